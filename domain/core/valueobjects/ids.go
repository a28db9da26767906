package valueobjects

import (
	"strconv"

	pkgerrors "catmenu/pkg/errors"
)

// CategoryID identifies a term in the product category taxonomy.
// Zero means "no category", which as a parent value marks a root.
type CategoryID int64

// NoParent is the parent value carried by root categories.
const NoParent CategoryID = 0

// NewCategoryID validates a raw identifier coming from a caller.
func NewCategoryID(raw int64) (CategoryID, error) {
	if raw <= 0 {
		return 0, pkgerrors.NewFieldValidationError("category_id", "category_id must be a positive integer")
	}
	return CategoryID(raw), nil
}

// Int64 returns the raw identifier
func (id CategoryID) Int64() int64 { return int64(id) }

// IsRoot reports whether id, used as a parent value, marks a root category
func (id CategoryID) IsRoot() bool { return id == NoParent }

// String returns the decimal representation
func (id CategoryID) String() string { return strconv.FormatInt(int64(id), 10) }

// MenuID identifies a navigation menu owned by the menu store.
type MenuID int64

// NewMenuID validates a raw menu identifier. Only positive values are accepted.
func NewMenuID(raw int64) (MenuID, error) {
	if raw <= 0 {
		return 0, pkgerrors.NewFieldValidationError("menu_id", "menu_id must be a positive integer")
	}
	return MenuID(raw), nil
}

// ParseMenuID parses a menu identifier from its textual form (a URL segment).
func ParseMenuID(raw string) (MenuID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.NewFieldValidationError("menu_id", "menu_id must be an integer").WithCause(err)
	}
	return NewMenuID(n)
}

// Int64 returns the raw identifier
func (id MenuID) Int64() int64 { return int64(id) }

// Valid reports whether the identifier can address a menu
func (id MenuID) Valid() bool { return id > 0 }

// String returns the decimal representation
func (id MenuID) String() string { return strconv.FormatInt(int64(id), 10) }

// MenuItemID identifies a menu item. It is assigned by the menu store on creation.
type MenuItemID int64

// TopLevel is the anchor used as parent for items sitting at the root of a menu.
const TopLevel MenuItemID = 0

// Int64 returns the raw identifier
func (id MenuItemID) Int64() int64 { return int64(id) }

// IsTopLevel reports whether id, used as a parent value, is the top-level anchor
func (id MenuItemID) IsTopLevel() bool { return id == TopLevel }

// String returns the decimal representation
func (id MenuItemID) String() string { return strconv.FormatInt(int64(id), 10) }
