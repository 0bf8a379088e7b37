// Package version implements the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/spf13/cobra"
)

// Command creates the "version" command.
func Command(build buildinfo.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "weatherdash %s (built %s, %s %s/%s)\n",
				build.GetVersion(), build.GetBuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
