// Package dispatch routes command envelopes to their namespace handlers,
// invokes the shared driver, and emits exactly one correlated response per
// command. Commands unsupported at the session's negotiated schema version
// deliberately produce none (see ErrUnsupportedSchema).
package dispatch

import (
	"context"
	"time"

	"sechub/pkg/clients"
	"sechub/pkg/errors"
	"sechub/pkg/logger"
	"sechub/pkg/metrics"
	"sechub/pkg/protocol"
	"sechub/pkg/state"
)

// Dispatcher routes commands for every session against the one shared
// driver. Command handling for one session never serializes another:
// callers run Dispatch on its own goroutine per command.
type Dispatcher struct {
	registry *clients.Registry
	captcha  *CaptchaSlot
	log      *logger.Logger
	metrics  *metrics.Metrics

	// OnSchemaNegotiated, when set, observes successful negotiations
	// (the server persists them to the session store).
	OnSchemaNegotiated func(clientID string, version int)
}

// New creates a dispatcher bound to the session registry.
func New(registry *clients.Registry, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	if log == nil {
		log = logger.Get()
	}
	return &Dispatcher{
		registry: registry,
		captcha:  &CaptchaSlot{},
		log:      log.Component("dispatch"),
		metrics:  m,
	}
}

// Captcha exposes the single-slot captcha state so the event forwarder can
// record challenge ids as they arrive.
func (d *Dispatcher) Captcha() *CaptchaSlot { return d.captcha }

// Dispatch handles one raw command frame for a session. Every outcome is
// correlated by the caller-chosen messageId, echoed verbatim.
func (d *Dispatcher) Dispatch(ctx context.Context, c *clients.Client, raw []byte) {
	msg, err := protocol.ParseCommand(raw)
	if err != nil {
		c.SendError("", errors.Codef(errors.CodeInvalidArguments, "malformed command envelope: %v", err))
		return
	}
	if msg.Command == "" {
		c.SendError(msg.MessageID, errors.Codef(errors.CodeInvalidArguments, "command is required"))
		return
	}

	namespace, _ := protocol.Namespace(msg.Command)
	if namespace == "" {
		namespace = "connection"
	}

	start := time.Now()
	result, err := d.route(ctx, c, msg)
	d.metrics.CommandDuration.WithLabelValues(namespace).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		d.metrics.CommandsTotal.WithLabelValues(namespace, metrics.OutcomeSuccess).Inc()
		c.SendResult(msg.MessageID, result)
	case errors.Is(err, errors.ErrUnsupportedSchema):
		// Schema-gated command below its minimum version: no response on
		// the wire, kept for compatibility with old clients that probe by
		// silence. Observable through logs and the unsupported counter.
		d.metrics.CommandsTotal.WithLabelValues(namespace, metrics.OutcomeUnsupported).Inc()
		d.log.Debug("command unsupported at negotiated schema",
			"client", c.ID(), "command", msg.Command, "schemaVersion", c.SchemaVersion())
	default:
		d.metrics.CommandsTotal.WithLabelValues(namespace, metrics.OutcomeError).Inc()
		d.log.Debug("command failed",
			"client", c.ID(), "command", msg.Command, "error", err)
		c.SendError(msg.MessageID, err)
	}
}

func (d *Dispatcher) route(ctx context.Context, c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	switch msg.Command {
	case protocol.CmdSetAPISchema:
		return d.handleSetAPISchema(c, msg)
	case protocol.CmdStartListening:
		return d.handleStartListening(c)
	case protocol.CmdSetReceiveEvents:
		return d.handleSetReceiveEvents(c, msg)
	}

	namespace, _ := protocol.Namespace(msg.Command)
	switch namespace {
	case protocol.NamespaceDriver:
		return d.handleDriver(ctx, c, msg)
	case protocol.NamespaceStation:
		return d.handleStation(ctx, c, msg)
	case protocol.NamespaceDevice:
		return d.handleDevice(ctx, c, msg)
	default:
		return nil, errors.Codef(errors.CodeUnknownCommand, "unknown command: %s", msg.Command)
	}
}

func (d *Dispatcher) handleSetAPISchema(c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	var args struct {
		SchemaVersion *int `json:"schemaVersion"`
	}
	if err := msg.Bind(&args); err != nil || args.SchemaVersion == nil {
		return nil, errors.Codef(errors.CodeInvalidArguments, "schemaVersion is required")
	}

	version, err := c.Negotiate(*args.SchemaVersion)
	if err != nil {
		return nil, err
	}
	if d.OnSchemaNegotiated != nil {
		d.OnSchemaNegotiated(c.ID(), version)
	}
	d.log.Info("schema negotiated", "client", c.ID(), "schemaVersion", version)
	return struct{}{}, nil
}

type stateResult struct {
	State fullState `json:"state"`
}

type fullState struct {
	Driver   state.Snapshot   `json:"driver"`
	Stations []state.Snapshot `json:"stations"`
	Devices  []state.Snapshot `json:"devices"`
}

func (d *Dispatcher) handleStartListening(c *clients.Client) (any, error) {
	drv := d.registry.Driver()
	version := c.SchemaVersion()

	stations := drv.Stations()
	devices := drv.Devices()
	full := fullState{
		Driver:   state.DumpDriver(drv, version),
		Stations: make([]state.Snapshot, 0, len(stations)),
		Devices:  make([]state.Snapshot, 0, len(devices)),
	}
	for _, st := range stations {
		full.Stations = append(full.Stations, state.DumpStation(st, version))
	}
	for _, dev := range devices {
		full.Devices = append(full.Devices, state.DumpDevice(dev, version))
	}

	c.SetListening()
	return stateResult{State: full}, nil
}

func (d *Dispatcher) handleSetReceiveEvents(c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	var args struct {
		Receive *bool `json:"receive"`
	}
	if err := msg.Bind(&args); err != nil || args.Receive == nil {
		return nil, errors.Codef(errors.CodeInvalidArguments, "receive is required")
	}
	c.SetReceiveEvents(*args.Receive)
	return struct{}{}, nil
}

// requireSchema gates a command on the session's negotiated version.
func requireSchema(c *clients.Client, min int) error {
	if c.SchemaVersion() < min {
		return errors.ErrUnsupportedSchema
	}
	return nil
}

// driverErr preserves an existing wire code or tags the failure as a
// driver-surfaced error, propagated verbatim and never retried here.
func driverErr(err error) error {
	var coded *errors.Coded
	if errors.As(err, &coded) {
		return err
	}
	return errors.WithCode(errors.CodeDriverError, err)
}
