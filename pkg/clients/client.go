// Package clients holds per-connection protocol state and the registry
// that fans events out to the right audience. A Client owns its outbound
// queue so a slow connection only ever backs up its own traffic.
package clients

import (
	"encoding/json"
	"sync"

	"sechub/pkg/errors"
	"sechub/pkg/protocol"
)

// Client is one protocol session. Created on connection accept, schema
// negotiated by the first set_api_schema command, excluded from every
// broadcast audience once the transport closes.
type Client struct {
	id string

	mu             sync.RWMutex
	schemaVersion  int
	negotiated     bool
	receiveEvents  bool
	receiveStreams map[string]bool
	listening      bool
	connected      bool
	closed         bool

	send chan []byte
}

// NewClient creates a session with the default state: schema 0 until
// negotiated, global events on, no livestream subscriptions.
func NewClient(id string, sendQueueSize int) *Client {
	if sendQueueSize < 1 {
		sendQueueSize = 256
	}
	return &Client{
		id:             id,
		receiveEvents:  true,
		receiveStreams: make(map[string]bool),
		connected:      true,
		send:           make(chan []byte, sendQueueSize),
	}
}

// ID returns the session identifier.
func (c *Client) ID() string { return c.id }

// SchemaVersion returns the negotiated schema version (0 until negotiated).
func (c *Client) SchemaVersion() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schemaVersion
}

// Negotiate validates and stores the requested schema version. The version
// is immutable for the session: a second negotiation attempt fails.
func (c *Client) Negotiate(requested int) (int, error) {
	version, err := protocol.NegotiateSchema(requested)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.negotiated {
		return 0, errors.Codef(errors.CodeSchemaLocked,
			"schema version already negotiated to %d", c.schemaVersion)
	}
	c.schemaVersion = version
	c.negotiated = true
	return version, nil
}

// ReceiveEvents reports whether the session receives global event
// broadcasts.
func (c *Client) ReceiveEvents() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiveEvents
}

// SetReceiveEvents toggles global event delivery.
func (c *Client) SetReceiveEvents(receive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiveEvents = receive
}

// ReceivesLivestream reports the per-device media opt-in.
func (c *Client) ReceivesLivestream(serial string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiveStreams[serial]
}

// SetReceiveLivestream toggles the per-device media opt-in.
func (c *Client) SetReceiveLivestream(serial string, receive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if receive {
		c.receiveStreams[serial] = true
	} else {
		delete(c.receiveStreams, serial)
	}
}

// Listening reports whether the session completed start_listening.
func (c *Client) Listening() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listening
}

// SetListening marks the session as listening.
func (c *Client) SetListening() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listening = true
}

// IsConnected reports whether the transport is still up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// MarkDisconnected excludes the session from all future audiences and
// closes the outbound queue. Idempotent.
func (c *Client) MarkDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Outbound exposes the session's ordered outbound frames for the
// connection's write loop.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// SendEvent delivers an event envelope. Delivery is at-most-once and
// best-effort: a closed session or a full queue drops the frame rather
// than blocking or buffering across reconnects.
func (c *Client) SendEvent(event protocol.OutgoingEvent) {
	if !c.IsConnected() {
		return
	}
	c.enqueue(protocol.NewEventMessage(event))
}

// SendResult delivers a success result correlated by messageID. The
// response is discarded if the session disconnected while the command was
// in flight.
func (c *Client) SendResult(messageID string, result any) {
	if !c.IsConnected() {
		return
	}
	c.enqueue(protocol.NewResult(messageID, result))
}

// SendError delivers an error result carrying err's stable wire code.
func (c *Client) SendError(messageID string, err error) {
	if !c.IsConnected() {
		return
	}
	c.enqueue(protocol.NewErrorResult(messageID, errors.CodeOf(err), err.Error()))
}

// SendRaw delivers an arbitrary marshaled message (the version banner).
func (c *Client) SendRaw(v any) {
	if !c.IsConnected() {
		return
	}
	c.enqueue(v)
}

func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		// Queue full: drop. Per-client order is preserved for what does
		// get through; a stalled client cannot block anyone else.
	}
}
