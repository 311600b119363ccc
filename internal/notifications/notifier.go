package notifications

import (
	"context"
	"log"
	"time"
)

// Event types delivered to the notification exchange.
const (
	EventGroupJoin  = "GROUP_JOIN"
	EventGroupLeave = "GROUP_LEAVE"
)

// Publisher is the transport notifications go out on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Event is the envelope consumed by the notification service.
type Event struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	FromUserID    int    `json:"from_user_id"`
	ToUserID      int    `json:"to_user_id"`
	Message       string `json:"message"`
}

// Notifier emits notification events. Delivery is best effort: publishing
// happens off the calling goroutine and failures are logged, never returned.
type Notifier struct {
	publisher  Publisher
	routingKey string
	service    string
}

// NewNotifier constructs a Notifier.
func NewNotifier(publisher Publisher, routingKey, service string) *Notifier {
	return &Notifier{publisher: publisher, routingKey: routingKey, service: service}
}

// Emit queues a notification for delivery and returns immediately.
func (n *Notifier) Emit(eventType string, fromUserID, toUserID int, message string) {
	if n == nil || n.publisher == nil {
		return
	}

	event := Event{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       n.service,
		FromUserID:    fromUserID,
		ToUserID:      toUserID,
		Message:       message,
	}

	go func() {
		if err := n.publisher.Publish(context.Background(), n.routingKey, event); err != nil {
			log.Printf("notification publish failed: %v", err)
		}
	}()
}
