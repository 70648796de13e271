package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Notifier reacts to emitted events. The owning application registers
// notifiers to persist sub-account and product status changes observed via
// webhooks; this service itself keeps no state.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Event is a gateway event dispatched to notifiers.
type Event struct {
	Topic   string
	Payload json.RawMessage
}

// Bus fans emitted events out to the registered notifiers. Notifiers must be
// idempotent by effect: webhook delivery is at-least-once and the same event
// may be observed more than once.
type Bus struct {
	Notifiers []Notifier
}

// Emit dispatches the event to all configured notifiers. Notifier errors are
// joined so one failing subscriber does not hide another.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{Topic: topic, Payload: encoded}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	case json.RawMessage:
		return encodePayload([]byte(v))
	case string:
		return encodePayload([]byte(v))
	default:
		return json.Marshal(v)
	}
}
