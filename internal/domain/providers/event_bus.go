package providers

import (
	"context"
	"fmt"

	"github.com/zatekoja/hospital-booking-core/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// booking events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close shuts down the event bus
	Close() error
}

// BookingChannel is the default channel booking events are published on
const BookingChannel = "booking.events"

// ChannelForProvider returns a per-provider event channel name
func ChannelForProvider(providerID string) string {
	return fmt.Sprintf("%s.%s", BookingChannel, providerID)
}
