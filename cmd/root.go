package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ladyxxa/Web4/cmd/cities"
	"github.com/ladyxxa/Web4/cmd/locate"
	"github.com/ladyxxa/Web4/cmd/refresh"
	"github.com/ladyxxa/Web4/cmd/serve"
	"github.com/ladyxxa/Web4/cmd/suggest"
	"github.com/ladyxxa/Web4/cmd/version"
	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weatherdash",
		Short:         "Multi-city weather dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	versionCmd := version.Command(build)

	rootCmd.AddCommand(
		serve.Command(settings, build),
		cities.Command(settings),
		refresh.Command(settings),
		locate.Command(settings),
		suggest.Command(settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Main.Locale, "locale", settings.Main.Locale, "Language for condition descriptions and geocoding (en or ru)")
	rootCmd.PersistentFlags().StringVar(&settings.Store.Backend, "store", settings.Store.Backend, "Persistent store backend (sqlite, mysql or redis)")
	rootCmd.PersistentFlags().StringVar(&settings.Store.SQLite.Path, "db", settings.Store.SQLite.Path, "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&settings.Geolocation.Provider, "geolocation", settings.Geolocation.Provider, "Device location provider (ip, static or none)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
