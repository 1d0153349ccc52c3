package medium

import (
	"context"

	"custody/pkg/entities"
)

// EventPublisher fans vault events out to a delivery medium.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event entities.Event) error
	Close()
}
