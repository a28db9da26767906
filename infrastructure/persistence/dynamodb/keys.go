package dynamodb

import (
	"fmt"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
)

const (
	entityCategory = "CATEGORY"
	entityMenu     = "MENU"
	entityMenuItem = "MENU_ITEM"

	metadataSK = "METADATA"
	counterPK  = "COUNTER#menu_item"
	counterSK  = "COUNTER"
	lockSK     = "LOCK"
	nonceSK    = "NONCE"
)

func taxonomyPK() string {
	return "TAXONOMY#" + entities.ProductCategoryTaxonomy
}

func categorySK(id valueobjects.CategoryID) string {
	return fmt.Sprintf("CAT#%d", id)
}

func parentPK(parent valueobjects.CategoryID) string {
	return fmt.Sprintf("%s#PARENT#%d", taxonomyPK(), parent)
}

// siblingSK makes the parent index return children in Category.SortKey order
func siblingSK(c *entities.Category) string {
	return "NAME#" + c.SortKey()
}

func menuPK(id valueobjects.MenuID) string {
	return fmt.Sprintf("MENU#%d", id)
}

func menuItemSK(id valueobjects.MenuItemID) string {
	return fmt.Sprintf("ITEM#%d", id)
}

func lockPK(id valueobjects.MenuID) string {
	return fmt.Sprintf("LOCK#menu#%d", id)
}

func noncePK(userID, nonce string) string {
	return fmt.Sprintf("NONCE#%s#%s", userID, nonce)
}
