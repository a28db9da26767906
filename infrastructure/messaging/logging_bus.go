// Package messaging holds event bus adapters
package messaging

import (
	"context"

	"catmenu/domain/events"

	"go.uber.org/zap"
)

// LoggingEventBus writes events to the log. It stands in for EventBridge
// when no event bus is configured.
type LoggingEventBus struct {
	logger *zap.Logger
}

// NewLoggingEventBus creates a new LoggingEventBus
func NewLoggingEventBus(logger *zap.Logger) *LoggingEventBus {
	return &LoggingEventBus{logger: logger}
}

// Publish implements ports.EventBus
func (b *LoggingEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.logger.Info("Domain event",
		zap.String("eventID", event.GetEventID()),
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Any("event", event),
	)
	return nil
}
