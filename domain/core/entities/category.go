package entities

import (
	"fmt"
	"strings"

	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
)

// ProductCategoryTaxonomy is the taxonomy every category handled here belongs to.
const ProductCategoryTaxonomy = "product_cat"

// Category is a node of the product category taxonomy.
// The taxonomy store owns categories; this service only reads them.
type Category struct {
	ID       valueobjects.CategoryID
	Name     string
	ParentID valueobjects.CategoryID
	Taxonomy string
	Count    int
}

// NewCategory builds a category read from a store, enforcing the invariants
// the rest of the service relies on.
func NewCategory(id valueobjects.CategoryID, name string, parent valueobjects.CategoryID) (*Category, error) {
	if id <= 0 {
		return nil, pkgerrors.NewValidationError("category id must be positive")
	}
	if parent < 0 {
		return nil, pkgerrors.NewValidationError("category parent id cannot be negative")
	}
	if parent == id {
		return nil, pkgerrors.NewValidationError("category cannot be its own parent")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("category name cannot be empty")
	}
	if strings.ContainsRune(name, sortKeySeparator) {
		return nil, pkgerrors.NewValidationError("category name cannot contain NUL")
	}

	return &Category{
		ID:       id,
		Name:     name,
		ParentID: parent,
		Taxonomy: ProductCategoryTaxonomy,
	}, nil
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID.IsRoot()
}

// sortKeySeparator sorts below every byte a name can contain, so a name
// orders before any longer name it prefixes.
const sortKeySeparator = '\x00'

// SortKey orders siblings by name, then id, under plain byte comparison.
// Every taxonomy store enumerates children in this order.
func (c *Category) SortKey() string {
	return fmt.Sprintf("%s%c%020d", c.Name, sortKeySeparator, c.ID)
}
