package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catmenu/domain/core/valueobjects"
	"catmenu/infrastructure/config"
	"catmenu/infrastructure/messaging"
	"catmenu/infrastructure/persistence/dynamodb"
	"catmenu/infrastructure/persistence/memory"
	"catmenu/infrastructure/persistence/resilience"
	"catmenu/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
menus:
  - id: 1
    name: Main
categories:
  - id: 10
    name: Apparel
    children:
      - id: 11
        name: Shirts
  - id: 20
    name: Books
`

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.LogLevel = "error"
	cfg.JWTSecret = "container-secret"
	cfg.TaxonomyFile = path
	return cfg
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	container, err := InitializeContainer(ctx, memoryConfig(t))
	require.NoError(t, err)
	defer container.Shutdown(ctx)

	assert.IsType(t, &resilience.TaxonomyStore{}, container.TaxonomyStore)
	assert.IsType(t, &resilience.MenuStore{}, container.MenuStore)
	assert.IsType(t, &memory.KeyedLocker{}, container.Locker)
	assert.IsType(t, &messaging.LoggingEventBus{}, container.EventBus)
	assert.NotNil(t, container.Metrics)
	assert.Nil(t, container.Tracing)

	roots, err := container.TaxonomyStore.GetRootCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	report := container.Materializer.Materialize(ctx, 1, 10, valueobjects.TopLevel)
	assert.Equal(t, 2, report.ItemsCreated())
	assert.Empty(t, report.Failures)
}

func TestInitializeContainer_ServesRequests(t *testing.T) {
	ctx := context.Background()
	container, err := InitializeContainer(ctx, memoryConfig(t))
	require.NoError(t, err)
	handler := container.Router.Setup()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID: "admin-1",
		Roles:  []string{auth.RoleManageMenus},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catmenu",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("container-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/menus/1/categories",
		strings.NewReader(`{"category_ids":[10,20]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.NonceHeader, "n-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"items_created":3`)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeContainer_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := memoryConfig(t)
	cfg.JWTSecret = ""
	_, err := InitializeContainer(ctx, cfg)
	assert.ErrorContains(t, err, "JWT_SECRET")

	cfg = memoryConfig(t)
	cfg.LogLevel = "loud"
	_, err = InitializeContainer(ctx, cfg)
	assert.ErrorContains(t, err, "LOG_LEVEL")

	cfg = memoryConfig(t)
	cfg.TaxonomyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = InitializeContainer(ctx, cfg)
	assert.Error(t, err)
}

func TestProvideMenuLocker(t *testing.T) {
	cfg := config.Defaults()

	cfg.LockBackend = config.BackendNone
	assert.Nil(t, ProvideMenuLocker(cfg, nil, nil))

	cfg.LockBackend = config.BackendMemory
	assert.IsType(t, &memory.KeyedLocker{}, ProvideMenuLocker(cfg, nil, nil))
}

func TestProvideNonceVerifier(t *testing.T) {
	cfg := config.Defaults()

	assert.IsType(t, &auth.ReplayGuard{}, ProvideNonceVerifier(cfg, nil, nil))

	cfg.StoreBackend = config.BackendDynamoDB
	assert.IsType(t, &dynamodb.NonceStore{}, ProvideNonceVerifier(cfg, nil, nil))
}

func TestInitializeContainer_TaxonomyWatcher(t *testing.T) {
	ctx := context.Background()

	container, err := InitializeContainer(ctx, memoryConfig(t))
	require.NoError(t, err)
	assert.Nil(t, container.TaxonomyWatcher)
	container.Shutdown(ctx)

	cfg := memoryConfig(t)
	cfg.WatchTaxonomy = true
	container, err = InitializeContainer(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, container.TaxonomyWatcher)
	container.TaxonomyWatcher.Start()
	container.Shutdown(ctx)
}
