package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calder/delegator/internal/models"
	"github.com/calder/delegator/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <category>",
		Short: "Print the response contract for a worker category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := models.Category(args[0])
			validator := schema.NewValidator()
			contract, ok := validator.Contract(category)
			if !ok {
				return fmt.Errorf("no contract for category %q (known: %v)", category, models.Categories())
			}
			fmt.Fprintln(cmd.OutOrStdout(), contract.JSONSchema())
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the delegator version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "delegator %s\n", Version)
		},
	}
}
