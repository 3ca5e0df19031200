package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRegistered is published once a verified account has been persisted.
// Downstream delivery (confirmation mail) is owned by the sink.
type UserRegistered struct {
	UserID     uuid.UUID
	Email      Email
	OccurredAt time.Time
}

// EventSink receives registration notifications for asynchronous side
// effects outside the engine.
type EventSink interface {
	Publish(ctx context.Context, event UserRegistered) error
}
