package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List or create categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every category id and name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, closeEnv, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeEnv()

			cats, err := env.Store.Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range cats {
				fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: "Create categories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeEnv()

			for _, name := range args {
				c, err := env.Store.CreateCategory(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("add %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	})
	return cmd
}
