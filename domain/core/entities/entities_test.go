package entities

import (
	"testing"

	"catmenu/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	tests := []struct {
		name    string
		id      valueobjects.CategoryID
		cname   string
		parent  valueobjects.CategoryID
		wantErr bool
	}{
		{"root", 1, "Clothing", 0, false},
		{"child", 2, "Shirts", 1, false},
		{"zero id", 0, "Broken", 0, true},
		{"self parent", 3, "Loop", 3, true},
		{"blank name", 4, "  ", 0, true},
		{"nul in name", 5, "Men\x00Shoes", 0, true},
		{"negative parent", 5, "Odd", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCategory(tt.id, tt.cname, tt.parent)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProductCategoryTaxonomy, c.Taxonomy)
			assert.Equal(t, tt.parent == 0, c.IsRoot())
		})
	}
}

func TestNewCategoryMenuItem(t *testing.T) {
	cat, err := NewCategory(14, "Accessories", 0)
	require.NoError(t, err)

	item, err := NewCategoryMenuItem(7, cat, valueobjects.TopLevel)
	require.NoError(t, err)

	assert.Equal(t, valueobjects.MenuID(7), item.MenuID)
	assert.Equal(t, "Accessories", item.Title)
	assert.Equal(t, "product_cat", item.ObjectType)
	assert.Equal(t, int64(14), item.ObjectID)
	assert.Equal(t, "taxonomy", item.ItemType)
	assert.Equal(t, MenuItemStatusPublish, item.Status)
	assert.True(t, item.IsTopLevel())
	assert.Equal(t, valueobjects.CategoryID(14), item.CategoryID())
	assert.Zero(t, item.ID)

	_, err = NewCategoryMenuItem(0, cat, valueobjects.TopLevel)
	assert.Error(t, err)

	_, err = NewCategoryMenuItem(7, nil, valueobjects.TopLevel)
	assert.Error(t, err)
}

func TestCategory_SortKey(t *testing.T) {
	build := func(id valueobjects.CategoryID, name string) *Category {
		c, err := NewCategory(id, name, 0)
		require.NoError(t, err)
		return c
	}

	men := build(11, "Men")
	menShoes := build(12, "Men Shoes")
	menBang := build(13, "Men!")
	twin := build(9, "Men")

	assert.Less(t, men.SortKey(), menShoes.SortKey())
	assert.Less(t, men.SortKey(), menBang.SortKey())
	assert.Less(t, menShoes.SortKey(), menBang.SortKey())
	assert.Less(t, twin.SortKey(), men.SortKey(), "equal names fall back to id")
}
