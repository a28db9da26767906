// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"catmenu/application/ports"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	"catmenu/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockTaxonomyStore is a mock of ports.TaxonomyStore
type MockTaxonomyStore struct {
	mock.Mock
}

func (m *MockTaxonomyStore) GetRootCategories(ctx context.Context) ([]*entities.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func (m *MockTaxonomyStore) GetCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Category), args.Error(1)
}

func (m *MockTaxonomyStore) GetChildren(ctx context.Context, id valueobjects.CategoryID) ([]*entities.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Category), args.Error(1)
}

// MockMenuStore is a mock of ports.MenuStore
type MockMenuStore struct {
	mock.Mock
}

func (m *MockMenuStore) CreateMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(valueobjects.MenuItemID), args.Error(1)
}

// MockMenuLocker is a mock of ports.MenuLocker
type MockMenuLocker struct {
	mock.Mock
}

func (m *MockMenuLocker) Lock(ctx context.Context, menuID valueobjects.MenuID) (ports.UnlockFunc, error) {
	args := m.Called(ctx, menuID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.UnlockFunc), args.Error(1)
}

// MockEventBus is a mock of ports.EventBus
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
