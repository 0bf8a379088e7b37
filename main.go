package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ladyxxa/Web4/cmd"
	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/telemetry"
)

// Set via -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if path := os.Getenv("WEATHERDASH_CONFIG"); path != "" {
		conf.ConfigFile = path
	}

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	closeLog, err := logging.Setup(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	build := buildinfo.NewContext(version, buildDate)

	if err := telemetry.InitSentry(settings, build); err != nil {
		logging.Warn("Telemetry disabled", "error", err)
	}
	defer telemetry.Flush(2 * time.Second)

	rootCmd := cmd.RootCommand(settings, build)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.UserMessage(err))
		logging.Debug("Command failed", "error", err)
		return 1
	}
	return 0
}
