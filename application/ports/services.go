package ports

import (
	"context"

	"catmenu/domain/core/valueobjects"
	"catmenu/domain/events"
)

// UnlockFunc releases a lock obtained from a MenuLocker
type UnlockFunc func()

// MenuLocker serializes writers targeting the same menu
type MenuLocker interface {
	// Lock blocks until the menu is exclusively held or ctx ends.
	// When the lock cannot be obtained a CONFLICT AppError is returned
	Lock(ctx context.Context, menuID valueobjects.MenuID) (UnlockFunc, error)
}

// EventBus publishes domain events to interested parties
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
