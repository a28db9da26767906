package services

import (
	"context"
	"errors"
	"testing"

	"catmenu/application/ports/mocks"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	"catmenu/infrastructure/persistence/memory"
	pkgerrors "catmenu/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	apparel valueobjects.CategoryID = 10
	books   valueobjects.CategoryID = 20
	hats    valueobjects.CategoryID = 11
	shirts  valueobjects.CategoryID = 12
	tees    valueobjects.CategoryID = 13
)

func category(t *testing.T, id, parent valueobjects.CategoryID, name string) *entities.Category {
	t.Helper()
	c, err := entities.NewCategory(id, name, parent)
	require.NoError(t, err)
	return c
}

// seedTaxonomy builds Apparel{Hats, Shirts{Tees}} and Books.
func seedTaxonomy(t *testing.T) *memory.TaxonomyStore {
	t.Helper()
	store := memory.NewTaxonomyStore()
	store.Put(category(t, apparel, 0, "Apparel"))
	store.Put(category(t, books, 0, "Books"))
	store.Put(category(t, hats, apparel, "Hats"))
	store.Put(category(t, shirts, apparel, "Shirts"))
	store.Put(category(t, tees, shirts, "Tees"))
	return store
}

func TestMaterializer_MirrorsSubtree(t *testing.T) {
	ctx := context.Background()
	taxonomy := seedTaxonomy(t)
	menus := memory.NewMenuStore(false)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	require.False(t, report.HasFailures())
	require.Equal(t, 4, report.ItemsCreated())

	items := menus.Items(7)
	require.Len(t, items, 4)

	byCategory := make(map[valueobjects.CategoryID]entities.MenuItem)
	for _, it := range items {
		byCategory[it.CategoryID()] = it
	}

	assert.Equal(t, valueobjects.TopLevel, byCategory[apparel].ParentItemID)
	assert.Equal(t, byCategory[apparel].ID, byCategory[hats].ParentItemID)
	assert.Equal(t, byCategory[apparel].ID, byCategory[shirts].ParentItemID)
	assert.Equal(t, byCategory[shirts].ID, byCategory[tees].ParentItemID)

	for _, it := range items {
		assert.Equal(t, "product_cat", it.ObjectType)
		assert.Equal(t, "taxonomy", it.ItemType)
		assert.Equal(t, entities.MenuItemStatusPublish, it.Status)
	}

	// depth-first, children in enumeration order
	order := []valueobjects.CategoryID{}
	for _, c := range report.Created {
		order = append(order, c.CategoryID)
	}
	assert.Equal(t, []valueobjects.CategoryID{apparel, hats, shirts, tees}, order)
	assert.Equal(t, 2, report.Created[3].Depth)
}

func TestMaterializer_AttachesUnderExistingItem(t *testing.T) {
	ctx := context.Background()
	taxonomy := seedTaxonomy(t)
	menus := memory.NewMenuStore(false)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	first := m.Materialize(ctx, 7, books, valueobjects.TopLevel)
	require.Equal(t, 1, first.ItemsCreated())
	anchor := first.Created[0].ItemID

	report := m.Materialize(ctx, 7, hats, anchor)
	require.Equal(t, 1, report.ItemsCreated())
	assert.Equal(t, anchor, report.Created[0].ParentItemID)
}

func TestMaterializer_InvalidMenuIsNoop(t *testing.T) {
	taxonomy := new(mocks.MockTaxonomyStore)
	menus := new(mocks.MockMenuStore)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	report := m.Materialize(context.Background(), 0, apparel, valueobjects.TopLevel)

	assert.Zero(t, report.ItemsCreated())
	assert.False(t, report.HasFailures())
	taxonomy.AssertNotCalled(t, "GetCategory", mock.Anything, mock.Anything)
	menus.AssertNotCalled(t, "CreateMenuItem", mock.Anything, mock.Anything)
}

func TestMaterializer_LookupFailureSkipsSubtree(t *testing.T) {
	ctx := context.Background()
	taxonomy := new(mocks.MockTaxonomyStore)
	menus := new(mocks.MockMenuStore)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	taxonomy.On("GetCategory", mock.Anything, apparel).
		Return(nil, pkgerrors.NewNotFoundError("category 10"))

	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	assert.Zero(t, report.ItemsCreated())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureNotFound, report.Failures[0].Kind)
	taxonomy.AssertNotCalled(t, "GetChildren", mock.Anything, mock.Anything)
	menus.AssertNotCalled(t, "CreateMenuItem", mock.Anything, mock.Anything)
}

func TestMaterializer_ChildrenFailureKeepsOnlyCategory(t *testing.T) {
	ctx := context.Background()
	taxonomy := new(mocks.MockTaxonomyStore)
	menus := new(mocks.MockMenuStore)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	taxonomy.On("GetCategory", mock.Anything, apparel).Return(category(t, apparel, 0, "Apparel"), nil)
	taxonomy.On("GetChildren", mock.Anything, apparel).Return(nil, errors.New("index unavailable"))
	menus.On("CreateMenuItem", mock.Anything, mock.AnythingOfType("*entities.MenuItem")).
		Return(valueobjects.MenuItemID(31), nil).Once()

	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	require.Equal(t, 1, report.ItemsCreated())
	assert.Equal(t, valueobjects.MenuItemID(31), report.Created[0].ItemID)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureNotFound, report.Failures[0].Kind)
	menus.AssertNumberOfCalls(t, "CreateMenuItem", 1)
}

func TestMaterializer_CreateFailureSkipsChildrenButNotSiblings(t *testing.T) {
	ctx := context.Background()
	taxonomy := seedTaxonomy(t)
	menus := memory.NewMenuStore(false)
	menus.FailFor(shirts.Int64(), errors.New("throttled"))
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	created := []valueobjects.CategoryID{}
	for _, c := range report.Created {
		created = append(created, c.CategoryID)
	}
	assert.Equal(t, []valueobjects.CategoryID{apparel, hats}, created)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, shirts, report.Failures[0].CategoryID)
	assert.Equal(t, FailureStoreWrite, report.Failures[0].Kind)
}

func TestMaterializer_ZeroItemIDIsAFailure(t *testing.T) {
	ctx := context.Background()
	taxonomy := new(mocks.MockTaxonomyStore)
	menus := new(mocks.MockMenuStore)
	m := NewMaterializer(taxonomy, menus, zap.NewNop())

	taxonomy.On("GetCategory", mock.Anything, apparel).Return(category(t, apparel, 0, "Apparel"), nil)
	menus.On("CreateMenuItem", mock.Anything, mock.Anything).Return(valueobjects.MenuItemID(0), nil)

	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	assert.Zero(t, report.ItemsCreated())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureStoreWrite, report.Failures[0].Kind)
	taxonomy.AssertNotCalled(t, "GetChildren", mock.Anything, mock.Anything)
}

func TestMaterializer_DepthGuardStopsCycles(t *testing.T) {
	ctx := context.Background()
	taxonomy := new(mocks.MockTaxonomyStore)
	menus := memory.NewMenuStore(false)
	m := NewMaterializer(taxonomy, menus, zap.NewNop(), WithMaxDepth(3))

	// 1 -> 2 -> 1 -> ...
	one := category(t, 1, 2, "One")
	two := category(t, 2, 1, "Two")
	taxonomy.On("GetCategory", mock.Anything, valueobjects.CategoryID(1)).Return(one, nil)
	taxonomy.On("GetCategory", mock.Anything, valueobjects.CategoryID(2)).Return(two, nil)
	taxonomy.On("GetChildren", mock.Anything, valueobjects.CategoryID(1)).Return([]*entities.Category{two}, nil)
	taxonomy.On("GetChildren", mock.Anything, valueobjects.CategoryID(2)).Return([]*entities.Category{one}, nil)

	report := m.Materialize(ctx, 7, 1, valueobjects.TopLevel)

	assert.Equal(t, 3, report.ItemsCreated())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureDepthExceeded, report.Failures[0].Kind)
}

func TestMaterializer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMaterializer(seedTaxonomy(t), memory.NewMenuStore(false), zap.NewNop())
	report := m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	assert.Zero(t, report.ItemsCreated())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureCancelled, report.Failures[0].Kind)
}

func TestMaterializer_NotIdempotent(t *testing.T) {
	ctx := context.Background()
	menus := memory.NewMenuStore(false)
	m := NewMaterializer(seedTaxonomy(t), menus, zap.NewNop())

	m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)
	m.Materialize(ctx, 7, apparel, valueobjects.TopLevel)

	assert.Len(t, menus.Items(7), 8)
}

func TestMaterializeReport_Merge(t *testing.T) {
	r := &MaterializeReport{MenuID: 7}
	r.Merge(&MaterializeReport{Created: []CreatedItem{{CategoryID: 1, ItemID: 2}}})
	r.Merge(&MaterializeReport{Failures: []BranchFailure{{CategoryID: 3, Kind: FailureNotFound}}})
	r.Merge(nil)

	assert.Equal(t, 1, r.ItemsCreated())
	assert.True(t, r.HasFailures())
}
