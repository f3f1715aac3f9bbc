// Package protocol defines the JSON wire shapes exchanged with protocol
// clients: command envelopes, correlated results, unsolicited events, and
// the schema version registry that governs which shapes a client sees.
package protocol

import "encoding/json"

// Message type tags
const (
	TypeResult  = "result"
	TypeEvent   = "event"
	TypeVersion = "version"
)

// CommandMessage is the envelope for every inbound command. Command-specific
// arguments ride flat on the same JSON object; handlers re-decode the raw
// bytes into their own argument struct via Bind.
type CommandMessage struct {
	MessageID string `json:"messageId"`
	Command   string `json:"command"`

	raw json.RawMessage
}

// ParseCommand decodes a raw frame into a command envelope, keeping the
// original bytes for argument binding.
func ParseCommand(data []byte) (*CommandMessage, error) {
	var msg CommandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	msg.raw = append(json.RawMessage(nil), data...)
	return &msg, nil
}

// Bind unmarshals the command's argument fields into v.
func (m *CommandMessage) Bind(v any) error {
	return json.Unmarshal(m.raw, v)
}

// ResultMessage is the correlated response to a command. Exactly one of the
// success payload or the error code/message pair is populated.
type ResultMessage struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Success   bool   `json:"success"`
	Result    any    `json:"result,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewResult builds a success result envelope
func NewResult(messageID string, result any) *ResultMessage {
	return &ResultMessage{
		Type:      TypeResult,
		MessageID: messageID,
		Success:   true,
		Result:    result,
	}
}

// NewErrorResult builds an error result envelope
func NewErrorResult(messageID, errorCode, message string) *ResultMessage {
	return &ResultMessage{
		Type:      TypeResult,
		MessageID: messageID,
		Success:   false,
		ErrorCode: errorCode,
		Message:   message,
	}
}

// OutgoingEvent is the payload of an event envelope. It always carries the
// "source" and "event" keys plus event-specific fields.
type OutgoingEvent map[string]any

// NewEvent builds an event payload for the given source and event name.
func NewEvent(source, event string) OutgoingEvent {
	return OutgoingEvent{
		"source": source,
		"event":  event,
	}
}

// Source returns the event's source tag.
func (e OutgoingEvent) Source() string {
	s, _ := e["source"].(string)
	return s
}

// Name returns the event's name.
func (e OutgoingEvent) Name() string {
	s, _ := e["event"].(string)
	return s
}

// With sets an event-specific field and returns the event for chaining.
func (e OutgoingEvent) With(key string, value any) OutgoingEvent {
	e[key] = value
	return e
}

// EventMessage is the wire envelope for unsolicited events.
type EventMessage struct {
	Type  string        `json:"type"`
	Event OutgoingEvent `json:"event"`
}

// NewEventMessage wraps an event payload in its wire envelope.
func NewEventMessage(event OutgoingEvent) *EventMessage {
	return &EventMessage{Type: TypeEvent, Event: event}
}

// VersionMessage is pushed once, immediately after the connection is
// accepted, before any command is processed.
type VersionMessage struct {
	Type             string `json:"type"`
	DriverVersion    string `json:"driverVersion"`
	ServerVersion    string `json:"serverVersion"`
	MinSchemaVersion int    `json:"minSchemaVersion"`
	MaxSchemaVersion int    `json:"maxSchemaVersion"`
}

// NewVersionMessage builds the connection banner.
func NewVersionMessage(driverVersion, serverVersion string) *VersionMessage {
	return &VersionMessage{
		Type:             TypeVersion,
		DriverVersion:    driverVersion,
		ServerVersion:    serverVersion,
		MinSchemaVersion: MinSchemaVersion,
		MaxSchemaVersion: MaxSchemaVersion,
	}
}

// Event source tags
const (
	SourceDriver  = "driver"
	SourceStation = "station"
	SourceDevice  = "device"
)
