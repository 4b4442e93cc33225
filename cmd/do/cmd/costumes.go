package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pennypet/server/internal/model"
)

func CostumesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "costumes",
		Short: "Inspect the costume shop",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the costume catalog with prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE")
			for _, c := range model.Costumes {
				fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Name, c.Price)
			}
			return w.Flush()
		},
	})

	return cmd
}
