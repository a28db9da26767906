package handlers

import (
	"context"
	"fmt"
	"time"

	"catmenu/application/commands"
	"catmenu/application/commands/bus"
	"catmenu/application/ports"
	"catmenu/application/services"
	"catmenu/domain/core/valueobjects"
	"catmenu/domain/events"
	"catmenu/pkg/observability"

	"go.uber.org/zap"
)

// SubtreeMaterializer copies one category subtree into a menu
type SubtreeMaterializer interface {
	Materialize(
		ctx context.Context,
		menuID valueobjects.MenuID,
		categoryID valueobjects.CategoryID,
		parent valueobjects.MenuItemID,
	) *services.MaterializeReport
}

// AddCategoriesToMenuHandler handles add-to-menu submissions
type AddCategoriesToMenuHandler struct {
	materializer SubtreeMaterializer
	locker       ports.MenuLocker
	eventBus     ports.EventBus
	metrics      *observability.Collector
	logger       *zap.Logger
	now          func() time.Time
}

// NewAddCategoriesToMenuHandler creates a new handler. locker, eventBus and
// metrics may be nil.
func NewAddCategoriesToMenuHandler(
	materializer SubtreeMaterializer,
	locker ports.MenuLocker,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *AddCategoriesToMenuHandler {
	return &AddCategoriesToMenuHandler{
		materializer: materializer,
		locker:       locker,
		eventBus:     eventBus,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Handle validates the command and materializes every selected category as a
// top-level menu item, in selection order. Branch failures do not fail the
// command; validation and lock errors do, before anything is written.
func (h *AddCategoriesToMenuHandler) Handle(ctx context.Context, cmd commands.AddCategoriesToMenuCommand) (*commands.AddCategoriesToMenuResult, error) {
	start := h.now()

	menuID, selection, err := cmd.Parse()
	if err != nil {
		h.metrics.RecordMaterialization("invalid", 0)
		return nil, err
	}

	if h.locker != nil {
		unlock, err := h.locker.Lock(ctx, menuID)
		if err != nil {
			h.metrics.RecordMaterialization("conflict", 0)
			h.logger.Warn("Menu is locked by another request",
				zap.Int64("menuID", menuID.Int64()),
				zap.Error(err),
			)
			return nil, err
		}
		defer unlock()
	}

	report := &services.MaterializeReport{MenuID: menuID}
	for _, categoryID := range selection.IDs() {
		report.Merge(h.materializer.Materialize(ctx, menuID, categoryID, valueobjects.TopLevel))
	}

	outcome := "success"
	if report.HasFailures() {
		outcome = "partial"
	}
	h.metrics.RecordMaterialization(outcome, h.now().Sub(start))

	h.logger.Info("Categories added to menu",
		zap.Int64("menuID", menuID.Int64()),
		zap.Int("selected", selection.Len()),
		zap.Int("itemsCreated", report.ItemsCreated()),
		zap.Int("failedBranches", len(report.Failures)),
		zap.String("requestedBy", cmd.RequestedBy),
	)

	h.publish(ctx, events.NewMenuCategoriesAdded(
		menuID,
		selection.IDs(),
		report.ItemsCreated(),
		len(report.Failures),
		cmd.RequestedBy,
		h.now(),
	))

	return &commands.AddCategoriesToMenuResult{
		Success: true,
		Message: resultMessage(report),
		Report:  report,
	}, nil
}

// AsBusHandler adapts the handler for registration on a command bus
func (h *AddCategoriesToMenuHandler) AsBusHandler() bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		c, ok := cmd.(commands.AddCategoriesToMenuCommand)
		if !ok {
			return nil, fmt.Errorf("unexpected command type %T", cmd)
		}
		return h.Handle(ctx, c)
	})
}

func (h *AddCategoriesToMenuHandler) publish(ctx context.Context, event events.DomainEvent) {
	if h.eventBus == nil {
		return
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		// Items are already written; the event is informational.
		h.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

func resultMessage(report *services.MaterializeReport) string {
	switch {
	case !report.HasFailures():
		return fmt.Sprintf("Added %d menu items", report.ItemsCreated())
	case len(report.Failures) == 1:
		return fmt.Sprintf("Added %d menu items; 1 category was skipped", report.ItemsCreated())
	default:
		return fmt.Sprintf("Added %d menu items; %d categories were skipped", report.ItemsCreated(), len(report.Failures))
	}
}
