// Package suggest implements the suggest command.
package suggest

import (
	"strings"

	"github.com/ladyxxa/Web4/cmd/output"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/geocode"
	"github.com/ladyxxa/Web4/internal/observability"
	"github.com/spf13/cobra"
)

// Command creates the "suggest" command. It does not open the store.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest city names for a partial query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.Validate(format); err != nil {
				return err
			}

			m, err := observability.NewMetrics()
			if err != nil {
				return err
			}
			resolver := geocode.NewResolver(settings, nil, m.Weather)
			suggestions := resolver.Suggest(cmd.Context(), strings.Join(args, " "))
			return output.Lines(cmd.OutOrStdout(), format, suggestions)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format (table, json or yaml)")

	return cmd
}
