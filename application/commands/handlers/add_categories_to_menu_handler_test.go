package handlers

import (
	"context"
	"errors"
	"testing"

	"catmenu/application/commands"
	"catmenu/application/commands/bus"
	"catmenu/application/ports"
	"catmenu/application/ports/mocks"
	"catmenu/application/services"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	"catmenu/domain/events"
	"catmenu/infrastructure/persistence/memory"
	pkgerrors "catmenu/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	catA  valueobjects.CategoryID = 1
	catB  valueobjects.CategoryID = 2
	catA1 valueobjects.CategoryID = 3
	catA2 valueobjects.CategoryID = 4
)

type fixture struct {
	taxonomy *memory.TaxonomyStore
	menus    *memory.MenuStore
	locker   *mocks.MockMenuLocker
	eventBus *mocks.MockEventBus
	handler  *AddCategoriesToMenuHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	taxonomy := memory.NewTaxonomyStore()
	for _, c := range []struct {
		id, parent valueobjects.CategoryID
		name       string
	}{
		{catA, 0, "A"},
		{catB, 0, "B"},
		{catA1, catA, "A1"},
		{catA2, catA, "A2"},
	} {
		category, err := entities.NewCategory(c.id, c.name, c.parent)
		require.NoError(t, err)
		taxonomy.Put(category)
	}

	menus := memory.NewMenuStore(false)
	locker := new(mocks.MockMenuLocker)
	eventBus := new(mocks.MockEventBus)
	materializer := services.NewMaterializer(taxonomy, menus, zap.NewNop())

	return &fixture{
		taxonomy: taxonomy,
		menus:    menus,
		locker:   locker,
		eventBus: eventBus,
		handler:  NewAddCategoriesToMenuHandler(materializer, locker, eventBus, nil, zap.NewNop()),
	}
}

func (f *fixture) expectLock(menuID valueobjects.MenuID) *bool {
	released := false
	f.locker.On("Lock", mock.Anything, menuID).
		Return(ports.UnlockFunc(func() { released = true }), nil)
	return &released
}

func TestAddCategoriesToMenu_Scenario(t *testing.T) {
	f := newFixture(t)
	released := f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		ev, ok := e.(events.MenuCategoriesAdded)
		return ok && ev.ItemsCreated == 4 && ev.FailedBranches == 0 && ev.RequestedBy == "admin-1"
	})).Return(nil)

	result, err := f.handler.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{int64(catA), int64(catB)},
		RequestedBy: "admin-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Added 4 menu items", result.Message)
	assert.True(t, *released)

	items := f.menus.Items(12)
	require.Len(t, items, 4)

	byCategory := make(map[valueobjects.CategoryID]entities.MenuItem)
	for _, it := range items {
		byCategory[it.CategoryID()] = it
	}
	assert.True(t, byCategory[catA].ParentItemID.IsTopLevel())
	assert.True(t, byCategory[catB].ParentItemID.IsTopLevel())
	assert.Equal(t, byCategory[catA].ID, byCategory[catA1].ParentItemID)
	assert.Equal(t, byCategory[catA].ID, byCategory[catA2].ParentItemID)
	assert.Less(t, byCategory[catA1].Position, byCategory[catA2].Position)

	f.locker.AssertExpectations(t)
	f.eventBus.AssertExpectations(t)
}

func TestAddCategoriesToMenu_RunningTwiceDuplicates(t *testing.T) {
	f := newFixture(t)
	f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	cmd := commands.AddCategoriesToMenuCommand{MenuID: 12, CategoryIDs: []int64{1, 2}}
	for i := 0; i < 2; i++ {
		_, err := f.handler.Handle(context.Background(), cmd)
		require.NoError(t, err)
	}

	assert.Len(t, f.menus.Items(12), 8)
}

func TestAddCategoriesToMenu_ValidationMakesNoStoreCalls(t *testing.T) {
	tests := []struct {
		name      string
		cmd       commands.AddCategoriesToMenuCommand
		wantField string
	}{
		{"missing menu", commands.AddCategoriesToMenuCommand{MenuID: 0, CategoryIDs: []int64{5}}, "menu_id"},
		{"empty selection", commands.AddCategoriesToMenuCommand{MenuID: 12, CategoryIDs: []int64{}}, "category_ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taxonomy := new(mocks.MockTaxonomyStore)
			menus := new(mocks.MockMenuStore)
			locker := new(mocks.MockMenuLocker)
			eventBus := new(mocks.MockEventBus)
			h := NewAddCategoriesToMenuHandler(
				services.NewMaterializer(taxonomy, menus, zap.NewNop()),
				locker, eventBus, nil, zap.NewNop(),
			)

			result, err := h.Handle(context.Background(), tt.cmd)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantField, pkgerrors.GetAppError(err).Field())
			taxonomy.AssertNotCalled(t, "GetCategory", mock.Anything, mock.Anything)
			menus.AssertNotCalled(t, "CreateMenuItem", mock.Anything, mock.Anything)
			locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
			eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestAddCategoriesToMenu_LockConflict(t *testing.T) {
	f := newFixture(t)
	f.locker.On("Lock", mock.Anything, valueobjects.MenuID(12)).
		Return(nil, pkgerrors.NewConflictError("menu 12 is being modified"))

	result, err := f.handler.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{1},
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Zero(t, f.menus.Count())
	f.eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAddCategoriesToMenu_PartialFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.handler.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{999, 2},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Report.ItemsCreated())
	require.Len(t, result.Report.Failures, 1)
	assert.Equal(t, valueobjects.CategoryID(999), result.Report.Failures[0].CategoryID)
	assert.Equal(t, "Added 1 menu items; 1 category was skipped", result.Message)
}

func TestAddCategoriesToMenu_DuplicateSelectionCollapsed(t *testing.T) {
	f := newFixture(t)
	f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.handler.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{2, 2, 2},
	})

	require.NoError(t, err)
	assert.Len(t, f.menus.Items(12), 1)
}

func TestAddCategoriesToMenu_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))

	result, err := f.handler.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{2},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, f.menus.Items(12), 1)
}

func TestAddCategoriesToMenu_WithoutOptionalCollaborators(t *testing.T) {
	f := newFixture(t)
	h := NewAddCategoriesToMenuHandler(
		services.NewMaterializer(f.taxonomy, f.menus, zap.NewNop()),
		nil, nil, nil, zap.NewNop(),
	)

	result, err := h.Handle(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      3,
		CategoryIDs: []int64{1},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Report.ItemsCreated())
}

func TestAddCategoriesToMenu_ThroughCommandBus(t *testing.T) {
	f := newFixture(t)
	f.expectLock(12)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	b := bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, b.Register(commands.AddCategoriesToMenuCommand{}, f.handler.AsBusHandler()))

	out, err := b.Send(context.Background(), commands.AddCategoriesToMenuCommand{
		MenuID:      12,
		CategoryIDs: []int64{1},
	})
	require.NoError(t, err)

	result, ok := out.(*commands.AddCategoriesToMenuResult)
	require.True(t, ok)
	assert.Equal(t, 3, result.Report.ItemsCreated())

	_, err = b.Send(context.Background(), commands.AddCategoriesToMenuCommand{MenuID: 12})
	assert.True(t, pkgerrors.IsValidation(err))
}
