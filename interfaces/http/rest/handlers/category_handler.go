package handlers

import (
	"fmt"
	"net/http"

	"catmenu/application/queries"
	querybus "catmenu/application/queries/bus"
	pkgerrors "catmenu/pkg/errors"

	"go.uber.org/zap"
)

// CategoryHandler serves the selectable category listings
type CategoryHandler struct {
	queryBus   *querybus.QueryBus
	errHandler *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(queryBus *querybus.QueryBus, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		queryBus:   queryBus,
		errHandler: errHandler,
		logger:     logger,
	}
}

// MenuOptionsResponse is the category picker for one menu
type MenuOptionsResponse struct {
	MenuID int64 `json:"menu_id"`
	*queries.ListRootCategoriesResult
}

// ListRoots handles GET /categories/roots
func (h *CategoryHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	result, err := h.ask(r, queries.ListRootCategoriesQuery{})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// MenuOptions handles GET /menus/{menuID}/categories/options
func (h *CategoryHandler) MenuOptions(w http.ResponseWriter, r *http.Request) {
	menuID, err := menuIDParam(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	if menuID <= 0 {
		h.errHandler.Handle(w, r, pkgerrors.NewFieldValidationError("menu_id", "menu_id must be a positive integer"))
		return
	}

	result, err := h.ask(r, queries.ListRootCategoriesQuery{MenuID: menuID})
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, MenuOptionsResponse{MenuID: menuID, ListRootCategoriesResult: result})
}

func (h *CategoryHandler) ask(r *http.Request, q queries.ListRootCategoriesQuery) (*queries.ListRootCategoriesResult, error) {
	out, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		return nil, err
	}
	result, ok := out.(*queries.ListRootCategoriesResult)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query result %T", out))
	}
	return result, nil
}
