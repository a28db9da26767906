//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"catmenu/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideTableConfig,
	ProvideTaxonomyFixture,
	ProvideStores,
	ProvideTaxonomyWatcher,
	ProvideTaxonomyStore,
	ProvideMenuStore,
	ProvideMenuLocker,
	ProvideEventBus,
	ProvideMaterializer,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideTokenValidator,
	ProvideNonceVerifier,
	ProvideErrorHandler,
	ProvideReadinessCheck,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
