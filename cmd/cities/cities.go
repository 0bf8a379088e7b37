// Package cities implements the city list subcommands.
package cities

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ladyxxa/Web4/cmd/output"
	"github.com/ladyxxa/Web4/internal/app"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/spf13/cobra"
)

// Command creates the "cities" command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "cities",
		Short: "Manage tracked cities",
		Long:  "List, add, remove and select the cities shown on the dashboard.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			return output.Validate(format)
		},
	}
	cmd.PersistentFlags().StringVarP(&format, "output", "o", output.FormatTable, "Output format (table, json or yaml)")

	cmd.AddCommand(
		listCommand(settings, &format),
		addCommand(settings, &format),
		removeCommand(settings, &format),
		selectCommand(settings, &format),
	)
	return cmd
}

func listCommand(settings *conf.Settings, format *string) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked cities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), settings, func(a *app.App) error {
				return output.View(cmd.OutOrStdout(), *format, a.Dashboard.View())
			})
		},
	}
}

func addCommand(settings *conf.Settings, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Track a city and make it active",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			return withApp(cmd.Context(), settings, func(a *app.App) error {
				wasTracked := tracked(a, name)
				if err := a.Dashboard.AddCity(cmd.Context(), name); err != nil {
					if wasTracked || !tracked(a, name) || !dashboard.IsRefreshError(err) {
						return err
					}
					warn(cmd.ErrOrStderr(), err)
				}
				return output.View(cmd.OutOrStdout(), *format, a.Dashboard.View())
			})
		},
	}
}

func removeCommand(settings *conf.Settings, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Stop tracking the city at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), settings, func(a *app.App) error {
				before := len(a.Dashboard.Cities())
				if err := a.Dashboard.RemoveCity(cmd.Context(), index); err != nil {
					if len(a.Dashboard.Cities()) == before || !dashboard.IsRefreshError(err) {
						return err
					}
					warn(cmd.ErrOrStderr(), err)
				}
				return output.View(cmd.OutOrStdout(), *format, a.Dashboard.View())
			})
		},
	}
}

func selectCommand(settings *conf.Settings, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "select <index>",
		Short: "Make the city at index active and refresh it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), settings, func(a *app.App) error {
				if err := a.Dashboard.SelectCity(cmd.Context(), index); err != nil {
					if a.Dashboard.ActiveIndex() != index || !dashboard.IsRefreshError(err) {
						return err
					}
					warn(cmd.ErrOrStderr(), err)
				}
				return output.View(cmd.OutOrStdout(), *format, a.Dashboard.View())
			})
		},
	}
}

func withApp(ctx context.Context, settings *conf.Settings, fn func(*app.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func tracked(a *app.App, name string) bool {
	return slices.Contains(a.Dashboard.Cities(), name)
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, errors.Newf("invalid city index %q", s).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	return index, nil
}

// warn reports a refresh failure after the list change was saved.
func warn(w io.Writer, err error) {
	fmt.Fprintf(w, "warning: %s\n", errors.UserMessage(err))
}
