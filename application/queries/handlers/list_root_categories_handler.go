package handlers

import (
	"context"
	"fmt"

	"catmenu/application/ports"
	"catmenu/application/queries"
	"catmenu/application/queries/bus"
	"catmenu/pkg/observability"

	"go.uber.org/zap"
)

// ListRootCategoriesHandler answers root category listings
type ListRootCategoriesHandler struct {
	taxonomy ports.TaxonomyStore
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewListRootCategoriesHandler creates a new handler
func NewListRootCategoriesHandler(
	taxonomy ports.TaxonomyStore,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ListRootCategoriesHandler {
	return &ListRootCategoriesHandler{
		taxonomy: taxonomy,
		metrics:  metrics,
		logger:   logger,
	}
}

// Handle lists every category without a parent, empty ones included, in
// taxonomy order. A store failure is logged and reported as an empty,
// unavailable listing instead of an error.
func (h *ListRootCategoriesHandler) Handle(ctx context.Context, q queries.ListRootCategoriesQuery) (*queries.ListRootCategoriesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := &queries.ListRootCategoriesResult{Categories: []queries.RootCategory{}}

	roots, err := h.taxonomy.GetRootCategories(ctx)
	if err != nil {
		h.metrics.RecordRootListing("error")
		h.logger.Warn("Failed to list root categories",
			zap.Int64("menuID", q.MenuID),
			zap.Error(err),
		)
		return result, nil
	}

	for _, c := range roots {
		result.Categories = append(result.Categories, queries.RootCategory{
			ID:   c.ID.Int64(),
			Name: c.Name,
		})
	}

	if len(result.Categories) == 0 {
		h.metrics.RecordRootListing("empty")
		return result, nil
	}

	result.Available = true
	h.metrics.RecordRootListing("available")
	return result, nil
}

// AsBusHandler adapts the handler for registration on a query bus
func (h *ListRootCategoriesHandler) AsBusHandler() bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, query bus.Query) (interface{}, error) {
		q, ok := query.(queries.ListRootCategoriesQuery)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", query)
		}
		return h.Handle(ctx, q)
	})
}
