package handlers

import (
	"fmt"
	"net/http"

	"catmenu/application/commands"
	"catmenu/application/commands/bus"
	"catmenu/application/services"
	"catmenu/pkg/auth"
	pkgerrors "catmenu/pkg/errors"
	"catmenu/pkg/utils"

	"go.uber.org/zap"
)

// MenuHandler handles menu changes
type MenuHandler struct {
	commandBus *bus.CommandBus
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(commandBus *bus.CommandBus, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *MenuHandler {
	return &MenuHandler{
		commandBus: commandBus,
		errHandler: errHandler,
		logger:     logger,
	}
}

// AddCategoriesRequest represents the request body for adding categories to a menu
type AddCategoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids" validate:"required,min=1,max=500"`
}

// AddCategoriesResponse represents the response for adding categories to a menu
type AddCategoriesResponse struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message"`
	ItemsCreated int                      `json:"items_created"`
	Items        []services.CreatedItem   `json:"items"`
	Failures     []services.BranchFailure `json:"failures"`
}

// AddCategories handles POST /menus/{menuID}/categories
func (h *MenuHandler) AddCategories(w http.ResponseWriter, r *http.Request) {
	menuID, err := menuIDParam(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	var req AddCategoriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	cmd := commands.AddCategoriesToMenuCommand{
		MenuID:      menuID,
		CategoryIDs: req.CategoryIDs,
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		cmd.RequestedBy = claims.UserID
	}

	// Command validation reports menu_id before the body, so run it first.
	if err := cmd.Validate(); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	out, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	result, ok := out.(*commands.AddCategoriesToMenuResult)
	if !ok {
		h.errHandler.Handle(w, r, pkgerrors.NewInternalError(fmt.Sprintf("unexpected command result %T", out)))
		return
	}

	resp := AddCategoriesResponse{
		Success:  result.Success,
		Message:  result.Message,
		Items:    []services.CreatedItem{},
		Failures: []services.BranchFailure{},
	}
	if result.Report != nil {
		resp.ItemsCreated = result.Report.ItemsCreated()
		if result.Report.Created != nil {
			resp.Items = result.Report.Created
		}
		if result.Report.Failures != nil {
			resp.Failures = result.Report.Failures
		}
	}

	respondJSON(w, h.logger, http.StatusOK, resp)
}
