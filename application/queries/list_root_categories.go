package queries

import (
	pkgerrors "catmenu/pkg/errors"
)

// ListRootCategoriesQuery lists the categories that can be selected for a menu.
// MenuID is optional; when set it only scopes logging and must be positive.
type ListRootCategoriesQuery struct {
	MenuID int64
}

// Validate validates the ListRootCategoriesQuery
func (q ListRootCategoriesQuery) Validate() error {
	if q.MenuID < 0 {
		return pkgerrors.NewFieldValidationError("menu_id", "menu_id must be a positive integer")
	}
	return nil
}

// RootCategory is one selectable top-level category
type RootCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListRootCategoriesResult represents the selectable categories.
// Available is false when nothing can be offered, either because the taxonomy
// has no top-level categories or because it could not be read.
type ListRootCategoriesResult struct {
	Categories []RootCategory `json:"categories"`
	Available  bool           `json:"available"`
}
