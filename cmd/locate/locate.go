// Package locate implements the locate command.
package locate

import (
	"github.com/ladyxxa/Web4/cmd/output"
	"github.com/ladyxxa/Web4/internal/app"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/spf13/cobra"
)

// Command creates the "locate" command.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Track the device location and show its weather",
		Long:  "Acquire the device position, name it by reverse geocoding and make it the active city at index 0.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.Validate(format); err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			snapshot, err := a.Dashboard.LocateCurrent(cmd.Context())
			if err != nil {
				return err
			}
			return output.Snapshot(cmd.OutOrStdout(), format, snapshot)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatTable, "Output format (table, json or yaml)")
	cmd.Flags().DurationVar(&settings.Geolocation.Timeout, "timeout", settings.Geolocation.Timeout, "How long to wait for a position")

	return cmd
}
