package app

import (
	"github.com/ladyxxa/Web4/internal/api"
	"github.com/ladyxxa/Web4/internal/buildinfo"
)

func newServer(a *App, build buildinfo.BuildInfo) (*api.Server, error) {
	return api.New(a.Settings, a.Dashboard,
		api.WithSuggester(a.Resolver),
		api.WithMetrics(a.Metrics),
		api.WithBuildInfo(build),
	)
}
