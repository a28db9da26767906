package memory

import (
	"context"
	"sync"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
)

// MenuStore is an in-memory implementation of ports.MenuStore.
// Item ids are allocated from a single sequence shared by all menus.
type MenuStore struct {
	mu     sync.RWMutex
	menus  map[valueobjects.MenuID]*entities.Menu
	items  map[valueobjects.MenuID][]*entities.MenuItem
	nextID valueobjects.MenuItemID

	// requireMenu rejects items for menus that were never registered
	requireMenu bool

	// For testing error scenarios
	failFor map[int64]error
}

// NewMenuStore creates an empty menu store. When requireMenu is true, items
// can only be created in menus registered with AddMenu.
func NewMenuStore(requireMenu bool) *MenuStore {
	return &MenuStore{
		menus:       make(map[valueobjects.MenuID]*entities.Menu),
		items:       make(map[valueobjects.MenuID][]*entities.MenuItem),
		requireMenu: requireMenu,
		failFor:     make(map[int64]error),
	}
}

// AddMenu registers a menu
func (s *MenuStore) AddMenu(menu entities.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[menu.ID] = &menu
}

// CreateMenu registers a menu, failing with a conflict when it already exists
func (s *MenuStore) CreateMenu(ctx context.Context, menu entities.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[menu.ID]; ok {
		return pkgerrors.NewConflictError("menu " + menu.ID.String() + " already exists")
	}
	s.menus[menu.ID] = &menu
	return nil
}

// FailFor makes creation of items pointing at objectID fail with err
func (s *MenuStore) FailFor(objectID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFor[objectID] = err
}

// CreateMenuItem implements ports.MenuStore
func (s *MenuStore) CreateMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[item.ObjectID]; ok {
		return 0, pkgerrors.NewStoreWriteError("menu item rejected", err)
	}
	if s.requireMenu {
		if _, ok := s.menus[item.MenuID]; !ok {
			return 0, pkgerrors.NewStoreWriteError("menu "+item.MenuID.String()+" does not exist", nil)
		}
	}
	if item.ParentItemID != valueobjects.TopLevel && !s.hasItem(item.MenuID, item.ParentItemID) {
		return 0, pkgerrors.NewStoreWriteError("parent item "+item.ParentItemID.String()+" does not exist", nil)
	}

	s.nextID++
	stored := *item
	stored.ID = s.nextID
	stored.Position = len(s.items[item.MenuID]) + 1
	s.items[item.MenuID] = append(s.items[item.MenuID], &stored)

	return stored.ID, nil
}

// Items returns a snapshot of a menu's items in creation order
func (s *MenuStore) Items(menuID valueobjects.MenuID) []entities.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.MenuItem, 0, len(s.items[menuID]))
	for _, it := range s.items[menuID] {
		out = append(out, *it)
	}
	return out
}

// Count returns the number of items stored across all menus
func (s *MenuStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, items := range s.items {
		n += len(items)
	}
	return n
}

func (s *MenuStore) hasItem(menuID valueobjects.MenuID, id valueobjects.MenuItemID) bool {
	for _, it := range s.items[menuID] {
		if it.ID == id {
			return true
		}
	}
	return false
}
