package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calder/delegator/internal/config"
	"github.com/calder/delegator/internal/worker"
)

func newWorkersCommand() *cobra.Command {
	var workersDir string

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List discovered worker definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := workersDir
			if dir == "" {
				home, err := config.DelegatorHome()
				if err != nil {
					return err
				}
				dir = filepath.Join(home, "workers")
			}

			defs, err := worker.Discover(dir)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No worker definitions found in %s\n", dir)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tCOMMAND\tDESCRIPTION")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Name, def.Category, def.Command, def.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&workersDir, "workers-dir", "", "worker definitions directory (default: <home>/workers)")
	return cmd
}
