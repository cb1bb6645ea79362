package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
)

// Type names a cart change.
type Type string

const (
	TypeItemAdded       Type = "cart.item_added"
	TypeItemRemoved     Type = "cart.item_removed"
	TypeQuantityChanged Type = "cart.quantity_changed"
	TypeCleared         Type = "cart.cleared"
)

// Event describes a committed cart mutation and the resulting aggregates.
type Event struct {
	ID          string          `json:"event_id"`
	Type        Type            `json:"event_type"`
	SessionID   string          `json:"session_id"`
	ProductID   string          `json:"product_id,omitempty"`
	Quantity    int             `json:"quantity,omitempty"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    enums.Currency  `json:"currency"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType Type, sessionID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands events off without blocking cart operations on delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}
