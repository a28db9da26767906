package services

import (
	"context"
	"fmt"

	"catmenu/application/ports"
	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	"catmenu/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds recursion when the taxonomy is corrupted into a cycle.
const DefaultMaxDepth = 64

// FailureKind classifies why a category branch was abandoned
type FailureKind string

const (
	// FailureNotFound covers a category or its children failing to resolve
	FailureNotFound FailureKind = "NOT_FOUND"
	// FailureStoreWrite covers the menu store rejecting an item
	FailureStoreWrite FailureKind = "STORE_WRITE"
	// FailureDepthExceeded covers branches deeper than the configured limit
	FailureDepthExceeded FailureKind = "DEPTH_EXCEEDED"
	// FailureCancelled covers branches skipped because the request context ended
	FailureCancelled FailureKind = "CANCELLED"
)

// CreatedItem records one menu item produced from a category
type CreatedItem struct {
	CategoryID   valueobjects.CategoryID `json:"category_id"`
	ItemID       valueobjects.MenuItemID `json:"item_id"`
	ParentItemID valueobjects.MenuItemID `json:"parent_item_id"`
	Depth        int                     `json:"depth"`
}

// BranchFailure records a branch that was abandoned. Descendants of the
// category were not visited.
type BranchFailure struct {
	CategoryID   valueobjects.CategoryID `json:"category_id"`
	ParentItemID valueobjects.MenuItemID `json:"parent_item_id"`
	Kind         FailureKind             `json:"kind"`
	Reason       string                  `json:"reason"`
}

// MaterializeReport is the outcome of materializing one or more subtrees.
// Items appear in creation order (depth-first, children in taxonomy order).
type MaterializeReport struct {
	MenuID   valueobjects.MenuID `json:"menu_id"`
	Created  []CreatedItem       `json:"created"`
	Failures []BranchFailure     `json:"failures"`
}

// ItemsCreated returns the number of menu items created
func (r *MaterializeReport) ItemsCreated() int {
	return len(r.Created)
}

// HasFailures reports whether any branch was abandoned
func (r *MaterializeReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// Merge appends another report's results to r
func (r *MaterializeReport) Merge(other *MaterializeReport) {
	if other == nil {
		return
	}
	r.Created = append(r.Created, other.Created...)
	r.Failures = append(r.Failures, other.Failures...)
}

// Materializer copies a category subtree into a navigation menu, one menu
// item per category, mirroring the category parent/child links.
//
// Branch failures never stop sibling branches: a category that cannot be
// resolved or whose item cannot be stored is skipped together with its
// descendants, logged and recorded in the report. Nothing is deduplicated;
// materializing the same subtree twice creates it twice.
type Materializer struct {
	taxonomy ports.TaxonomyStore
	menus    ports.MenuStore
	logger   *zap.Logger
	metrics  *observability.Collector
	maxDepth int
}

// MaterializerOption configures a Materializer
type MaterializerOption func(*Materializer)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) MaterializerOption {
	return func(m *Materializer) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// WithMetrics attaches a metrics collector
func WithMetrics(metrics *observability.Collector) MaterializerOption {
	return func(m *Materializer) {
		m.metrics = metrics
	}
}

// NewMaterializer creates a new Materializer
func NewMaterializer(
	taxonomy ports.TaxonomyStore,
	menus ports.MenuStore,
	logger *zap.Logger,
	opts ...MaterializerOption,
) *Materializer {
	m := &Materializer{
		taxonomy: taxonomy,
		menus:    menus,
		logger:   logger,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize creates a menu item for categoryID under parent and then for
// every descendant, depth-first. An invalid menu id makes the call a no-op.
func (m *Materializer) Materialize(
	ctx context.Context,
	menuID valueobjects.MenuID,
	categoryID valueobjects.CategoryID,
	parent valueobjects.MenuItemID,
) *MaterializeReport {
	report := &MaterializeReport{MenuID: menuID}
	if !menuID.Valid() {
		return report
	}

	ctx, span := observability.Tracer().Start(ctx, "Materializer.Materialize")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("menu.id", menuID.Int64()),
		attribute.Int64("category.id", categoryID.Int64()),
		attribute.Int64("menu.parent_item_id", parent.Int64()),
	)

	m.materialize(ctx, menuID, categoryID, parent, 0, report)

	span.SetAttributes(
		attribute.Int("menu.items_created", report.ItemsCreated()),
		attribute.Int("menu.branch_failures", len(report.Failures)),
	)
	if report.HasFailures() {
		span.SetStatus(codes.Error, "some branches were abandoned")
	}

	return report
}

func (m *Materializer) materialize(
	ctx context.Context,
	menuID valueobjects.MenuID,
	categoryID valueobjects.CategoryID,
	parent valueobjects.MenuItemID,
	depth int,
	report *MaterializeReport,
) {
	if err := ctx.Err(); err != nil {
		m.fail(report, categoryID, parent, FailureCancelled, err)
		return
	}
	if depth >= m.maxDepth {
		m.fail(report, categoryID, parent, FailureDepthExceeded,
			fmt.Errorf("category nesting exceeds %d levels; taxonomy may contain a cycle", m.maxDepth))
		return
	}

	category, err := m.taxonomy.GetCategory(ctx, categoryID)
	if err != nil {
		m.fail(report, categoryID, parent, FailureNotFound, err)
		return
	}

	item, err := entities.NewCategoryMenuItem(menuID, category, parent)
	if err != nil {
		m.fail(report, categoryID, parent, FailureStoreWrite, err)
		return
	}

	itemID, err := m.menus.CreateMenuItem(ctx, item)
	if err != nil {
		m.fail(report, categoryID, parent, FailureStoreWrite, err)
		return
	}
	if itemID <= 0 {
		m.fail(report, categoryID, parent, FailureStoreWrite, fmt.Errorf("menu store returned no item id"))
		return
	}

	report.Created = append(report.Created, CreatedItem{
		CategoryID:   categoryID,
		ItemID:       itemID,
		ParentItemID: parent,
		Depth:        depth,
	})
	m.metrics.RecordItemCreated()
	m.logger.Debug("Menu item created from category",
		zap.Int64("menuID", menuID.Int64()),
		zap.Int64("categoryID", categoryID.Int64()),
		zap.Int64("itemID", itemID.Int64()),
		zap.Int64("parentItemID", parent.Int64()),
		zap.Int("depth", depth),
	)

	children, err := m.taxonomy.GetChildren(ctx, categoryID)
	if err != nil {
		// The category's own item stays; only its descendants are lost.
		m.fail(report, categoryID, itemID, FailureNotFound, fmt.Errorf("enumerate children: %w", err))
		return
	}

	for _, child := range children {
		m.materialize(ctx, menuID, child.ID, itemID, depth+1, report)
	}
}

func (m *Materializer) fail(
	report *MaterializeReport,
	categoryID valueobjects.CategoryID,
	parent valueobjects.MenuItemID,
	kind FailureKind,
	err error,
) {
	report.Failures = append(report.Failures, BranchFailure{
		CategoryID:   categoryID,
		ParentItemID: parent,
		Kind:         kind,
		Reason:       err.Error(),
	})
	m.metrics.RecordBranchFailure(string(kind))
	m.logger.Warn("Category branch skipped",
		zap.Int64("menuID", report.MenuID.Int64()),
		zap.Int64("categoryID", categoryID.Int64()),
		zap.Int64("parentItemID", parent.Int64()),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
}
