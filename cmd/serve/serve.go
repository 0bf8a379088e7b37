// Package serve implements the long-running dashboard service.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ladyxxa/Web4/internal/app"
	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command creates the "serve" command.
func Command(settings *conf.Settings, build buildinfo.BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard service",
		Long:  "Keep tracked cities refreshed, tick their clocks, publish updates and serve the JSON API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, build)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, build buildinfo.BuildInfo) error {
	a, err := app.New(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx, build)
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Listen, "listen", settings.WebServer.Listen, "Listen address of the JSON API")
	cmd.Flags().BoolVar(&settings.WebServer.Enabled, "api", settings.WebServer.Enabled, "Serve the JSON API")
	cmd.Flags().BoolVar(&settings.MQTT.Enabled, "mqtt", settings.MQTT.Enabled, "Publish updates to the MQTT broker")
	cmd.Flags().StringVar(&settings.MQTT.Broker, "broker", settings.MQTT.Broker, "MQTT broker URL (tcp://host:port)")
	cmd.Flags().BoolVar(&settings.Alerts.Enabled, "alerts", settings.Alerts.Enabled, "Send severe weather alerts")
	cmd.Flags().DurationVar(&settings.Clock.Interval, "tick", settings.Clock.Interval, "Clock tick period")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
