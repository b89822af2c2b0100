package providers

import (
	"context"

	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to admission events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.AdmissionEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AdmissionEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelAdmissions is the firehose channel carrying every admission decision
	EventChannelAdmissions = "admissions:all"

	// EventChannelComboPrefix is the prefix for combo-specific channels
	EventChannelComboPrefix = "combo:"
)

// GetComboChannel returns the channel name for a specific ingredient combo
func GetComboChannel(comboKey entities.ComboKey) string {
	return EventChannelComboPrefix + string(comboKey)
}
