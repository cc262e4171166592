package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	// Link lifecycle events.
	EventLinkConnected    EventType = "link.connected"
	EventLinkDisconnected EventType = "link.disconnected"
	EventLinkError        EventType = "link.error"

	// Session lifecycle events.
	EventStateChanged EventType = "session.state_changed"
	EventDeviceReady  EventType = "session.ready"

	// Inbound line events.
	EventLineReceived EventType = "line.received"
	EventDecodeError  EventType = "line.decode_error"

	// Command execution events.
	EventCommandExecuted EventType = "command.executed"

	// Telemetry events.
	EventTelemetrySent EventType = "telemetry.sent"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for bridge events.
// Every inbound line, command outcome and state transition flows
// through it; the embedding front-end subscribes here.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}

// NewEvent builds an event stamped with the current time.
func NewEvent(t EventType, sessionID string, payload any) Event {
	ev := Event{Type: t, Timestamp: time.Now(), SessionID: sessionID}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}
