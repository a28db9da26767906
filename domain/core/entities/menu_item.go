package entities

import (
	"time"

	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
)

// Menu item vocabulary shared with the host menu editor.
const (
	ObjectTypeProductCategory = ProductCategoryTaxonomy
	ItemTypeTaxonomy          = "taxonomy"
)

// MenuItemStatus is the publication state of a menu item
type MenuItemStatus string

const (
	MenuItemStatusPublish MenuItemStatus = "publish"
	MenuItemStatusDraft   MenuItemStatus = "draft"
)

// Menu is a navigation menu. Items can only be created in menus that exist.
type Menu struct {
	ID   valueobjects.MenuID
	Name string
}

// MenuItem is a node of a navigation menu referencing a source object.
// ID and Position are assigned by the menu store when the item is created.
type MenuItem struct {
	ID           valueobjects.MenuItemID
	MenuID       valueobjects.MenuID
	Title        string
	ObjectType   string
	ObjectID     int64
	ItemType     string
	ParentItemID valueobjects.MenuItemID
	Status       MenuItemStatus
	Position     int
	CreatedAt    time.Time
}

// NewCategoryMenuItem prepares a published menu item pointing at a product
// category, attached under parent (TopLevel for the menu root).
func NewCategoryMenuItem(menuID valueobjects.MenuID, category *Category, parent valueobjects.MenuItemID) (*MenuItem, error) {
	if !menuID.Valid() {
		return nil, pkgerrors.NewFieldValidationError("menu_id", "menu_id must be a positive integer")
	}
	if category == nil {
		return nil, pkgerrors.NewValidationError("category is required")
	}
	if parent < 0 {
		return nil, pkgerrors.NewValidationError("parent item id cannot be negative")
	}

	return &MenuItem{
		MenuID:       menuID,
		Title:        category.Name,
		ObjectType:   ObjectTypeProductCategory,
		ObjectID:     category.ID.Int64(),
		ItemType:     ItemTypeTaxonomy,
		ParentItemID: parent,
		Status:       MenuItemStatusPublish,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CategoryID returns the category the item points at
func (m *MenuItem) CategoryID() valueobjects.CategoryID {
	return valueobjects.CategoryID(m.ObjectID)
}

// IsTopLevel reports whether the item sits at the root of its menu
func (m *MenuItem) IsTopLevel() bool {
	return m.ParentItemID.IsTopLevel()
}
