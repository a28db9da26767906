package di

import (
	"context"
	"fmt"
	"math"
	"time"

	"catmenu/application/commands"
	"catmenu/application/commands/bus"
	commandhandlers "catmenu/application/commands/handlers"
	"catmenu/application/ports"
	"catmenu/application/queries"
	querybus "catmenu/application/queries/bus"
	queryhandlers "catmenu/application/queries/handlers"
	"catmenu/application/services"
	"catmenu/domain/core/valueobjects"
	"catmenu/infrastructure/config"
	"catmenu/infrastructure/messaging"
	"catmenu/infrastructure/messaging/eventbridge"
	"catmenu/infrastructure/persistence/dynamodb"
	"catmenu/infrastructure/persistence/fixtures"
	"catmenu/infrastructure/persistence/memory"
	"catmenu/infrastructure/persistence/resilience"
	"catmenu/interfaces/http/rest"
	"catmenu/interfaces/http/rest/middleware"
	"catmenu/pkg/auth"
	pkgerrors "catmenu/pkg/errors"
	"catmenu/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName identifies the service in metrics and traces
const ServiceName = "catmenu"

// nonceWindow is how long a request nonce is remembered
const nonceWindow = 5 * time.Minute

// Stores groups the taxonomy and menu adapters selected by STORE_BACKEND
type Stores struct {
	Taxonomy ports.TaxonomyStore
	Menus    ports.MenuStore

	// memoryTaxonomy is the unwrapped in-memory taxonomy, nil on dynamodb
	memoryTaxonomy *memory.TaxonomyStore
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", ServiceName)), nil
}

// ProvideMetrics creates the metrics collector, or nil when metrics are disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(ServiceName)
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled
func ProvideTracing(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	if !cfg.EnableTracing {
		return nil, nil
	}
	return observability.InitTracing(ctx, ServiceName, cfg.Environment, cfg.OTLPEndpoint)
}

// ProvideAWSConfig creates AWS configuration. Shared config files are only
// read when a component actually talks to AWS.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if !usesAWS(cfg) {
		return aws.Config{Region: cfg.AWSRegion}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

func usesAWS(cfg *config.Config) bool {
	return cfg.StoreBackend == config.BackendDynamoDB ||
		cfg.LockBackend == config.BackendDynamoDB ||
		cfg.EventBusName != ""
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideTableConfig names the single table and its parent index
func ProvideTableConfig(cfg *config.Config) dynamodb.TableConfig {
	return dynamodb.TableConfig{
		TableName:       cfg.TableName,
		ParentIndexName: cfg.ParentIndexName,
	}
}

// ProvideTaxonomyFixture loads TAXONOMY_FILE, or returns nil when unset
func ProvideTaxonomyFixture(cfg *config.Config) (*fixtures.Taxonomy, error) {
	if cfg.TaxonomyFile == "" {
		return nil, nil
	}
	return fixtures.LoadFile(cfg.TaxonomyFile)
}

// ProvideStores selects the store adapters for STORE_BACKEND and wraps them
// in circuit breakers when enabled
func ProvideStores(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	table dynamodb.TableConfig,
	fixture *fixtures.Taxonomy,
	metrics *observability.Collector,
	logger *zap.Logger,
) (Stores, error) {
	var stores Stores

	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		stores.Taxonomy = dynamodb.NewCategoryRepository(client, table, metrics, logger)
		stores.Menus = dynamodb.NewMenuRepository(client, table, metrics, logger)
	default:
		taxonomy := memory.NewTaxonomyStore()
		menus := memory.NewMenuStore(fixture != nil && len(fixture.Menus) > 0)
		if fixture != nil {
			if err := fixture.Seed(ctx, taxonomy, menus, nil); err != nil {
				return Stores{}, err
			}
			logger.Info("Seeded in-memory taxonomy",
				zap.String("file", cfg.TaxonomyFile),
				zap.Int("categories", len(fixture.Categories)),
				zap.Int("menus", len(fixture.Menus)),
			)
		}
		stores.Taxonomy = taxonomy
		stores.Menus = menus
		stores.memoryTaxonomy = taxonomy
	}

	if cfg.EnableCircuitBreaker {
		stores.Taxonomy = resilience.NewTaxonomyStore(stores.Taxonomy,
			resilience.DefaultCircuitBreakerConfig("taxonomy-store"), logger)
		stores.Menus = resilience.NewMenuStore(stores.Menus,
			resilience.DefaultCircuitBreakerConfig("menu-store"), logger)
	}

	return stores, nil
}

// ProvideTaxonomyWatcher creates the TAXONOMY_FILE watcher when
// WATCH_TAXONOMY is set on the memory backend. The caller starts it.
func ProvideTaxonomyWatcher(cfg *config.Config, stores Stores, logger *zap.Logger) (*fixtures.Watcher, error) {
	if !cfg.WatchTaxonomy || cfg.IsLambda || stores.memoryTaxonomy == nil {
		return nil, nil
	}
	return fixtures.NewWatcher(cfg.TaxonomyFile, stores.memoryTaxonomy, logger)
}

// ProvideTaxonomyStore exposes the selected taxonomy store
func ProvideTaxonomyStore(stores Stores) ports.TaxonomyStore {
	return stores.Taxonomy
}

// ProvideMenuStore exposes the selected menu store
func ProvideMenuStore(stores Stores) ports.MenuStore {
	return stores.Menus
}

// ProvideMenuLocker creates the per-menu lock for LOCK_BACKEND. The "none"
// backend returns nil and leaves concurrent writers unserialized.
func ProvideMenuLocker(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.MenuLocker {
	switch cfg.LockBackend {
	case config.BackendDynamoDB:
		return dynamodb.NewDistributedLock(client, cfg.TableName, cfg.LockTTL, cfg.LockWait, logger)
	case config.BackendNone:
		return nil
	default:
		return memory.NewKeyedLocker(cfg.LockWait)
	}
}

// ProvideEventBus publishes to EventBridge when EVENT_BUS_NAME is set and
// only logs events otherwise
func ProvideEventBus(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventBus {
	if cfg.EventBusName == "" {
		return messaging.NewLoggingEventBus(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMaterializer creates the subtree materializer
func ProvideMaterializer(
	taxonomy ports.TaxonomyStore,
	menus ports.MenuStore,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.Materializer {
	return services.NewMaterializer(taxonomy, menus, logger,
		services.WithMaxDepth(cfg.MaterializeMaxDepth),
		services.WithMetrics(metrics),
	)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	materializer *services.Materializer,
	locker ports.MenuLocker,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	addHandler := commandhandlers.NewAddCategoriesToMenuHandler(materializer, locker, eventBus, metrics, logger)
	if err := commandBus.Register(commands.AddCategoriesToMenuCommand{}, addHandler.AsBusHandler()); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	taxonomy ports.TaxonomyStore,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger))

	listRootsHandler := queryhandlers.NewListRootCategoriesHandler(taxonomy, metrics, logger)
	if err := queryBus.Register(queries.ListRootCategoriesQuery{}, listRootsHandler.AsBusHandler()); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideTokenValidator creates the bearer token validator
func ProvideTokenValidator(cfg *config.Config) (middleware.TokenValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideNonceVerifier creates the anti-replay guard for state-changing
// requests. With the DynamoDB store backend nonces are claimed in the table so
// a replay is caught by any instance.
func ProvideNonceVerifier(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) auth.NonceVerifier {
	if cfg.StoreBackend == config.BackendDynamoDB {
		return dynamodb.NewNonceStore(client, cfg.TableName, nonceWindow, logger)
	}
	return auth.NewReplayGuard(nonceWindow)
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideReadinessCheck probes the taxonomy store with a lookup that is
// expected to miss
func ProvideReadinessCheck(taxonomy ports.TaxonomyStore) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := taxonomy.GetCategory(ctx, valueobjects.CategoryID(math.MaxInt64))
		if err == nil || pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator middleware.TokenValidator,
	nonces auth.NonceVerifier,
	errHandler *pkgerrors.ErrorHandler,
	ready rest.ReadinessCheck,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, validator, nonces, errHandler, rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
		Ready:          ready,
	}, logger)
}
