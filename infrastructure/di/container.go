package di

import (
	"context"

	"catmenu/application/commands/bus"
	"catmenu/application/ports"
	querybus "catmenu/application/queries/bus"
	"catmenu/application/services"
	"catmenu/infrastructure/config"
	"catmenu/infrastructure/persistence/fixtures"
	"catmenu/interfaces/http/rest"
	"catmenu/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Metrics         *observability.Collector
	Tracing         *observability.TracerProvider
	TaxonomyStore   ports.TaxonomyStore
	TaxonomyWatcher *fixtures.Watcher // nil unless WATCH_TAXONOMY
	MenuStore       ports.MenuStore
	Locker          ports.MenuLocker
	EventBus        ports.EventBus
	Materializer    *services.Materializer
	CommandBus      *bus.CommandBus
	QueryBus        *querybus.QueryBus
	Router          *rest.Router
}

// Shutdown stops the taxonomy watcher, then flushes telemetry and the logger
func (c *Container) Shutdown(ctx context.Context) {
	if c.TaxonomyWatcher != nil {
		c.TaxonomyWatcher.Stop()
	}
	if err := c.Tracing.Shutdown(ctx); err != nil {
		c.Logger.Error("Failed to shut down tracing", zap.Error(err))
	}
	_ = c.Logger.Sync()
}
