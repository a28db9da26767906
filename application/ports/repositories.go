package ports

import (
	"context"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
)

// TaxonomyStore gives read access to the product category taxonomy.
// This is a port in hexagonal architecture - the core doesn't know about the implementation
type TaxonomyStore interface {
	// GetRootCategories returns every category without a parent, empty ones included,
	// in the store's native enumeration order
	GetRootCategories(ctx context.Context) ([]*entities.Category, error)

	// GetCategory resolves a single category. A missing category is reported
	// as a NOT_FOUND AppError
	GetCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error)

	// GetChildren returns the direct children of a category in native enumeration order
	GetChildren(ctx context.Context, id valueobjects.CategoryID) ([]*entities.Category, error)
}

// MenuStore persists navigation menu items
type MenuStore interface {
	// CreateMenuItem stores a new item and returns the identifier assigned to it.
	// A rejected write is reported as a STORE_WRITE AppError
	CreateMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error)
}
