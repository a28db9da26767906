package handlers

import (
	"context"
	"errors"
	"testing"

	"catmenu/application/ports/mocks"
	"catmenu/application/queries"
	"catmenu/application/queries/bus"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	"catmenu/infrastructure/persistence/memory"
	"catmenu/pkg/observability"
	pkgerrors "catmenu/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func put(t *testing.T, store *memory.TaxonomyStore, id, parent valueobjects.CategoryID, name string) {
	t.Helper()
	c, err := entities.NewCategory(id, name, parent)
	require.NoError(t, err)
	store.Put(c)
}

func TestListRootCategories(t *testing.T) {
	store := memory.NewTaxonomyStore()
	put(t, store, 4, 0, "Toys")
	put(t, store, 2, 0, "Books")
	put(t, store, 9, 4, "Puzzles")
	put(t, store, 7, 0, "Garden") // no products, still listed

	metrics := observability.NewCollector("test")
	h := NewListRootCategoriesHandler(store, metrics, zap.NewNop())

	result, err := h.Handle(context.Background(), queries.ListRootCategoriesQuery{})

	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Equal(t, []queries.RootCategory{
		{ID: 2, Name: "Books"},
		{ID: 7, Name: "Garden"},
		{ID: 4, Name: "Toys"},
	}, result.Categories)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RootListings.WithLabelValues("available")))
}

func TestListRootCategories_EmptyTaxonomy(t *testing.T) {
	h := NewListRootCategoriesHandler(memory.NewTaxonomyStore(), nil, zap.NewNop())

	result, err := h.Handle(context.Background(), queries.ListRootCategoriesQuery{MenuID: 3})

	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Empty(t, result.Categories)
}

func TestListRootCategories_StoreFailureIsSoft(t *testing.T) {
	taxonomy := new(mocks.MockTaxonomyStore)
	taxonomy.On("GetRootCategories", mock.Anything).Return(nil, errors.New("table unreachable"))
	h := NewListRootCategoriesHandler(taxonomy, nil, zap.NewNop())

	result, err := h.Handle(context.Background(), queries.ListRootCategoriesQuery{})

	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.NotNil(t, result.Categories)
	assert.Empty(t, result.Categories)
	taxonomy.AssertExpectations(t)
}

func TestListRootCategories_InvalidMenu(t *testing.T) {
	taxonomy := new(mocks.MockTaxonomyStore)
	h := NewListRootCategoriesHandler(taxonomy, nil, zap.NewNop())

	_, err := h.Handle(context.Background(), queries.ListRootCategoriesQuery{MenuID: -5})

	assert.True(t, pkgerrors.IsValidation(err))
	taxonomy.AssertNotCalled(t, "GetRootCategories", mock.Anything)
}

func TestListRootCategories_ThroughQueryBus(t *testing.T) {
	store := memory.NewTaxonomyStore()
	put(t, store, 1, 0, "Books")

	b := bus.NewQueryBus()
	require.NoError(t, b.Register(queries.ListRootCategoriesQuery{}, NewListRootCategoriesHandler(store, nil, zap.NewNop()).AsBusHandler()))

	out, err := b.Ask(context.Background(), queries.ListRootCategoriesQuery{})
	require.NoError(t, err)

	result, ok := out.(*queries.ListRootCategoriesResult)
	require.True(t, ok)
	assert.Len(t, result.Categories, 1)
}
