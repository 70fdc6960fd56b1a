// Package queue carries collaboration events between server instances
// over a RabbitMQ fanout exchange.  Every instance publishes the events
// of its engines and consumes everyone else's through its own exclusive
// queue.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ContentType marks message bodies produced by Encode.
const ContentType = "application/vnd.seating.collab+json"

// envelopeVersion is bumped when the body shape changes incompatibly.
const envelopeVersion = 1

// envelope wraps an event on the wire.
type envelope struct {
	Version int               `json:"v"`
	Event   model.CollabEvent `json:"event"`
}

// Encode serialises ev for publishing.
func Encode(ev model.CollabEvent) ([]byte, error) {
	body, err := json.Marshal(envelope{Version: envelopeVersion, Event: ev})
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return body, nil
}

// Decode parses a message body and checks the fields every event needs.
func Decode(body []byte) (model.CollabEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.CollabEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if env.Version != envelopeVersion {
		return model.CollabEvent{}, fmt.Errorf("decode event: unsupported version %d", env.Version)
	}
	ev := env.Event
	switch ev.Kind {
	case model.EventPresence, model.EventLockAcquired, model.EventLockReleased,
		model.EventLockDenied, model.EventLayoutReplaced:
	default:
		return model.CollabEvent{}, fmt.Errorf("decode event: unknown kind %q", ev.Kind)
	}
	if ev.PlanID == "" {
		return model.CollabEvent{}, errors.New("decode event: missing plan id")
	}
	return ev, nil
}
