package events

import (
	"time"

	"catmenu/domain/core/valueobjects"
)

// EventTypeMenuCategoriesAdded is emitted after a selection was materialized into a menu
const EventTypeMenuCategoriesAdded = "menu.categories_added"

// MenuCategoriesAdded is raised once per accepted add-to-menu request.
// It reports counts only; partial failures are visible through FailedBranches.
type MenuCategoriesAdded struct {
	BaseEvent
	MenuID         valueobjects.MenuID       `json:"menu_id"`
	CategoryIDs    []valueobjects.CategoryID `json:"category_ids"`
	ItemsCreated   int                       `json:"items_created"`
	FailedBranches int                       `json:"failed_branches"`
	RequestedBy    string                    `json:"requested_by,omitempty"`
}

// NewMenuCategoriesAdded creates a MenuCategoriesAdded event
func NewMenuCategoriesAdded(
	menuID valueobjects.MenuID,
	categoryIDs []valueobjects.CategoryID,
	itemsCreated, failedBranches int,
	requestedBy string,
	timestamp time.Time,
) MenuCategoriesAdded {
	return MenuCategoriesAdded{
		BaseEvent:      newBaseEvent(menuID.String(), EventTypeMenuCategoriesAdded, timestamp),
		MenuID:         menuID,
		CategoryIDs:    categoryIDs,
		ItemsCreated:   itemsCreated,
		FailedBranches: failedBranches,
		RequestedBy:    requestedBy,
	}
}
