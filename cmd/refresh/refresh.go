// Package refresh implements the refresh command.
package refresh

import (
	"fmt"

	"github.com/ladyxxa/Web4/cmd/output"
	"github.com/ladyxxa/Web4/internal/app"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/spf13/cobra"
)

// Command creates the "refresh" command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		format string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "refresh [city]",
		Short: "Fetch fresh weather",
		Long:  "Refresh the active city, a named tracked city, or every tracked city with --all.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.Validate(format); err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			switch {
			case all:
				var failed int
				for _, name := range a.Dashboard.Cities() {
					if _, err := a.Dashboard.Refresh(ctx, name); err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", name, errors.UserMessage(err))
					}
				}
				if err := output.View(w, format, a.Dashboard.View()); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d cities failed to refresh", failed, len(a.Dashboard.Cities()))
				}
				return nil
			case len(args) == 1:
				snapshot, err := a.Dashboard.Refresh(ctx, args[0])
				if err != nil {
					return err
				}
				return output.Snapshot(w, format, snapshot)
			default:
				snapshot, err := a.Dashboard.RefreshActive(ctx)
				if err != nil {
					return err
				}
				return output.Snapshot(w, format, snapshot)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format (table, json or yaml)")
	cmd.Flags().BoolVar(&all, "all", false, "Refresh every tracked city")

	return cmd
}
