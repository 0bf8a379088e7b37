// Package main provides a CLI tool for moving dashboard state between store backends.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/spf13/cobra"
)

// Version information (can be set via ldflags during build)
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dbexport",
	Short: "Copy weather dashboard state between store backends",
	Long: `Copies the tracked city list and cached fetch stamps from one store
backend to another, for example from the local SQLite file to a shared
MySQL or Redis instance. Connection settings for both sides come from
config.yaml; only the backend names are given on the command line.`,
	RunE: runExport,
}

var cfg struct {
	ConfigPath string
	From       string
	To         string
	SQLitePath string
	Clean      bool
	SkipVerify bool
	Version    bool
}

func init() {
	rootCmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "Path to config.yaml")
	rootCmd.Flags().StringVar(&cfg.From, "from", "sqlite", "Source backend (sqlite, mysql or redis)")
	rootCmd.Flags().StringVar(&cfg.To, "to", "mysql", "Target backend (sqlite, mysql or redis)")
	rootCmd.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", "", "Override the SQLite database path")
	rootCmd.Flags().BoolVar(&cfg.Clean, "clean", false, "Delete target fetch stamps for cities the source does not track")
	rootCmd.Flags().BoolVar(&cfg.SkipVerify, "skip-verify", false, "Skip post-export verification")
	rootCmd.Flags().BoolVarP(&cfg.Version, "version", "v", false, "Print version information")
}

func runExport(cmd *cobra.Command, args []string) error {
	if cfg.Version {
		fmt.Printf("dbexport version %s\n", version)
		return nil
	}
	if cfg.From == cfg.To && cfg.From != "sqlite" {
		return fmt.Errorf("source and target are both %s", cfg.From)
	}

	conf.ConfigFile = cfg.ConfigPath
	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.SQLitePath != "" {
		settings.Store.SQLite.Path = cfg.SQLitePath
	}

	src, err := openStore(settings, cfg.From)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := openStore(settings, cfg.To)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer dst.Close()

	ctx := context.Background()
	stats, err := datastore.Copy(ctx, src, dst, cfg.Clean)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("Copied %d cities and %d fetch stamps (%d skipped)\n", stats.Cities, stats.FetchStamps, stats.Skipped)

	if !cfg.SkipVerify {
		if err := datastore.Verify(ctx, src, dst); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Println("Verification passed!")
	}
	return nil
}

func openStore(settings *conf.Settings, backend string) (datastore.Interface, error) {
	s := *settings
	s.Store.Backend = backend
	store, err := datastore.New(&s, nil)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}
