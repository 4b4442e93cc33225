package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestCostumesList(t *testing.T) {
	var out bytes.Buffer

	root := CostumesCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"list"})

	err := root.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 costumes, got %d lines: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "cowboy") {
		t.Errorf("expected cheapest costume first, got %q", lines[1])
	}
}
