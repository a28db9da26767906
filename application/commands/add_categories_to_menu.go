package commands

import (
	"catmenu/application/services"
	"catmenu/domain/core/valueobjects"
)

// AddCategoriesToMenuCommand asks for the subtrees of the selected categories
// to be added to a menu as top-level items.
type AddCategoriesToMenuCommand struct {
	MenuID      int64   `json:"menu_id"`
	CategoryIDs []int64 `json:"category_ids"`
	RequestedBy string  `json:"requested_by,omitempty"`
}

// Validate validates the command
func (c AddCategoriesToMenuCommand) Validate() error {
	_, _, err := c.Parse()
	return err
}

// Parse converts the raw command fields into value objects. The menu id is
// checked before the selection.
func (c AddCategoriesToMenuCommand) Parse() (valueobjects.MenuID, valueobjects.Selection, error) {
	menuID, err := valueobjects.NewMenuID(c.MenuID)
	if err != nil {
		return 0, valueobjects.Selection{}, err
	}
	selection, err := valueobjects.NewSelection(c.CategoryIDs)
	if err != nil {
		return 0, valueobjects.Selection{}, err
	}
	return menuID, selection, nil
}

// AddCategoriesToMenuResult is returned for every command that passed validation.
// Success stays true when some branches were skipped; see Report.Failures.
type AddCategoriesToMenuResult struct {
	Success bool                        `json:"success"`
	Message string                      `json:"message"`
	Report  *services.MaterializeReport `json:"report"`
}
