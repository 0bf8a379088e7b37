// Package app assembles the dashboard services from settings and runs them.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ladyxxa/Web4/internal/buildinfo"
	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/dashboard"
	"github.com/ladyxxa/Web4/internal/datastore"
	"github.com/ladyxxa/Web4/internal/events"
	"github.com/ladyxxa/Web4/internal/geocode"
	"github.com/ladyxxa/Web4/internal/geolocation"
	"github.com/ladyxxa/Web4/internal/logging"
	"github.com/ladyxxa/Web4/internal/mqtt"
	"github.com/ladyxxa/Web4/internal/notification"
	"github.com/ladyxxa/Web4/internal/observability"
	"github.com/ladyxxa/Web4/internal/weather"
	"github.com/ladyxxa/Web4/internal/weathercache"
	"github.com/shirou/gopsutil/v3/host"
)

const (
	eventBusBufferSize = 256
	eventBusWorkers    = 1
	shutdownTimeout    = 5 * time.Second
	connectTimeout     = 30 * time.Second
)

// App holds the wired services. Close releases them in reverse order.
type App struct {
	Settings  *conf.Settings
	Store     datastore.Interface
	Metrics   *observability.Metrics
	Resolver  *geocode.Resolver
	Dashboard *dashboard.Manager
	Bus       *events.EventBus

	mqttClient mqtt.Client
}

func getLogger() *slog.Logger {
	return logging.ForService("app")
}

// New opens the store, wires the dashboard and loads the persisted state.
// Only the log consumer is registered; call StartPublishers for MQTT and alerts.
func New(ctx context.Context, settings *conf.Settings) (*App, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("error initializing metrics: %w", err)
	}

	store, err := datastore.New(settings, m.Weather)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, err
	}

	locator, err := geolocation.New(settings.Geolocation)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	bus := events.NewEventBus(&events.Config{BufferSize: eventBusBufferSize, Workers: eventBusWorkers})
	if err := bus.RegisterConsumer(events.NewLogConsumer()); err != nil {
		closeStore(store)
		return nil, err
	}

	resolver := geocode.NewResolver(settings, nil, m.Weather)
	provider := weather.NewOpenMeteoProvider(settings.Weather.Endpoint, settings.Main.Locale, settings.Weather.Timeout, m.Weather)

	manager := dashboard.New(dashboard.Options{
		Store:              store,
		Resolver:           resolver,
		Provider:           provider,
		Locator:            locator,
		Cache:              weathercache.New(settings.Weather.CacheTTL, m.Weather),
		Notifier:           bus,
		Metrics:            m.Weather,
		Placeholder:        geocode.PlaceholderLabel(settings),
		DefaultTimezone:    settings.Dashboard.DefaultTimezone,
		GeolocationTimeout: settings.Geolocation.Timeout,
		ClockPeriod:        settings.Clock.Interval,
		ClockFormat:        settings.Clock.Format,
	})
	resolver.SetLocations(manager)

	a := &App{
		Settings:  settings,
		Store:     store,
		Metrics:   m,
		Resolver:  resolver,
		Dashboard: manager,
		Bus:       bus,
	}

	if err := manager.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// StartPublishers connects to the MQTT broker and registers the MQTT and
// alert consumers when they are enabled. A broker that cannot be reached
// is logged; the client keeps retrying in the background.
func (a *App) StartPublishers(ctx context.Context) error {
	if a.Settings.MQTT.Enabled {
		client, err := mqtt.NewClient(a.Settings, a.Metrics.MQTT)
		if err != nil {
			return err
		}
		a.mqttClient = client

		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := client.Connect(connectCtx); err != nil {
			getLogger().Warn("MQTT broker unavailable, publishing resumes after reconnect",
				"broker", a.Settings.MQTT.Broker,
				"error", err)
		}
		cancel()

		if err := a.Bus.RegisterConsumer(mqtt.NewPublisher(client, a.Settings.MQTT.Topic, a.Metrics.MQTT)); err != nil {
			return err
		}
	}

	if a.Settings.Alerts.Enabled {
		sender, err := notification.NewShoutrrrSender(a.Settings.Alerts.URLs, notification.DefaultSendTimeout)
		if err != nil {
			return err
		}
		consumer := notification.NewAlertConsumer(sender, a.Settings.Alerts, a.Metrics.Notification,
			notification.AlertOptions(a.Settings.Alerts)...)
		if err := a.Bus.RegisterConsumer(consumer); err != nil {
			return err
		}
	}
	return nil
}

// Serve bootstraps the dashboard and runs the HTTP API until ctx is done.
// With the web server disabled it just keeps the clocks and publishers alive.
func (a *App) Serve(ctx context.Context, build buildinfo.BuildInfo) error {
	logSystemDetails(build)

	if err := a.StartPublishers(ctx); err != nil {
		return err
	}

	if _, err := a.Dashboard.Bootstrap(ctx); err != nil {
		getLogger().Warn("Startup refresh failed", "error", err)
	}

	if !a.Settings.WebServer.Enabled {
		getLogger().Info("Web server disabled, running until interrupted")
		<-ctx.Done()
		return nil
	}

	server, err := newServer(a, build)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

// Close stops clocks, delivers the queued events, disconnects MQTT and closes the store.
func (a *App) Close() {
	if a.Dashboard != nil {
		a.Dashboard.Close()
	}
	if a.Bus != nil {
		if err := a.Bus.Shutdown(shutdownTimeout); err != nil {
			getLogger().Warn("Event bus did not drain in time", "error", err)
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	closeStore(a.Store)
}

// logSystemDetails logs the platform the service runs on.
func logSystemDetails(build buildinfo.BuildInfo) {
	version := buildinfo.UnknownValue
	if build != nil {
		version = build.GetVersion()
	}

	info, err := host.Info()
	if err != nil {
		getLogger().Warn("Failed to read host info", "error", err)
		getLogger().Info("Starting weather dashboard", "version", version)
		return
	}
	getLogger().Info("Starting weather dashboard",
		"version", version,
		"os", info.OS,
		"platform", info.Platform,
		"platform_version", info.PlatformVersion,
		"arch", info.KernelArch)
}

func closeStore(store datastore.Interface) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		getLogger().Error("Failed to close store", "error", err)
		return
	}
	getLogger().Debug("Store closed")
}
