package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func BuildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the server binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ensureDir("bin")
			if err != nil {
				return err
			}

			fmt.Println("==> Building", output)
			build := exec.Command("go", "build", "-trimpath", "-ldflags", "-s -w", "-o", output, "./cmd/server")
			build.Stdout = os.Stdout
			build.Stderr = os.Stderr
			build.Env = append(os.Environ(), "CGO_ENABLED=0")
			if err := build.Run(); err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			fmt.Println("==> Done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "bin/server", "output path")

	return cmd
}
