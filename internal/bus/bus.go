// Package bus carries PriceDropEvents between the scan coordinator and the
// fan-out dispatcher. Delivery is at-least-once: consumers must tolerate
// redelivery of the same event.
package bus

import (
	"context"

	"github.com/pricedrop/notifier/internal/models"
)

// Publisher emits price-drop events.
type Publisher interface {
	PublishPriceDrop(ctx context.Context, ev *models.PriceDropEvent) error
	Close() error
}

// Handler processes one delivered event. Returning an error leaves the event
// uncommitted so the bus redelivers it.
type Handler func(ctx context.Context, ev *models.PriceDropEvent) error
