// Package forward subscribes once to the shared driver's event stream and
// republishes every occurrence as one or more version-windowed event
// envelopes to the right audience of protocol sessions.
package forward

import (
	"sync"

	"sechub/pkg/clients"
	"sechub/pkg/driver"
	"sechub/pkg/logger"
	"sechub/pkg/metrics"
	"sechub/pkg/protocol"
)

// CaptchaSink receives captcha challenge ids as they arrive on the event
// stream, so a later driver.set_captcha command can fall back to the most
// recent one.
type CaptchaSink interface {
	Store(id string)
}

// Forwarder fans driver events out to sessions. It consumes the driver
// stream for the lifetime of the process; individual subscriptions are
// never torn down, only entities come and go as the driver reports them.
type Forwarder struct {
	registry *clients.Registry
	captcha  CaptchaSink
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu            sync.Mutex
	wiredStations map[string]struct{}
	wiredDevices  map[string]detectionSet

	done chan struct{}
}

// New creates a forwarder over the session registry's driver handle.
func New(registry *clients.Registry, captcha CaptchaSink, m *metrics.Metrics, log *logger.Logger) *Forwarder {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	if log == nil {
		log = logger.Get()
	}
	return &Forwarder{
		registry:      registry,
		captcha:       captcha,
		log:           log.Component("forward"),
		metrics:       m,
		wiredStations: make(map[string]struct{}),
		wiredDevices:  make(map[string]detectionSet),
		done:          make(chan struct{}),
	}
}

// Start wires the entities the driver already knows about and begins
// consuming the event stream. It returns immediately; Done closes when
// the driver closes its stream.
func (f *Forwarder) Start() {
	drv := f.registry.Driver()
	for _, st := range drv.Stations() {
		f.wireStation(st.Serial())
	}
	for _, dev := range drv.Devices() {
		f.wireDevice(dev)
	}

	go func() {
		defer close(f.done)
		for ev := range drv.Events() {
			f.handle(ev)
		}
	}()
}

// Done closes once the driver event stream has been drained.
func (f *Forwarder) Done() <-chan struct{} { return f.done }

// wireStation records a station as wired. Re-adding an already known
// station must not duplicate anything.
func (f *Forwarder) wireStation(serial string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.wiredStations[serial]; ok {
		return false
	}
	f.wiredStations[serial] = struct{}{}
	return true
}

// wireDevice registers exactly the detection events matching the device's
// capability tags. Re-adding an already wired device is a no-op.
func (f *Forwarder) wireDevice(dev driver.Device) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.wiredDevices[dev.Serial()]; ok {
		return false
	}
	f.wiredDevices[dev.Serial()] = detectionsFor(dev.Capabilities())
	return true
}

// detectionWired reports whether the device emits this detection kind per
// its wiring. Unknown devices and unwired kinds are dropped.
func (f *Forwarder) detectionWired(serial string, kind driver.EventKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.wiredDevices[serial]
	if !ok {
		return false
	}
	_, ok = set[kind]
	return ok
}

func (f *Forwarder) handle(ev driver.Event) {
	switch ev.Kind {
	// Driver-level events
	case driver.EventDriverConnected:
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverConnected), protocol.AllVersions())
	case driver.EventDriverDisconnected:
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverDisconnected), protocol.AllVersions())
	case driver.EventPushConnected:
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverPushConnected), protocol.AllVersions())
	case driver.EventPushDisconnected:
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverPushDisconnected), protocol.AllVersions())
	case driver.EventVerifyCodeRequest:
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverVerifyCode), protocol.AllVersions())
	case driver.EventCaptchaRequest:
		f.captcha.Store(ev.CaptchaID)
		f.broadcast(protocol.NewEvent(protocol.SourceDriver, protocol.EventDriverCaptchaRequest).
			With("captchaId", ev.CaptchaID).
			With("captcha", ev.Captcha), protocol.Since(7))

	// Station lifecycle
	case driver.EventStationAdded:
		f.handleStationAdded(ev.Station)
	case driver.EventStationRemoved:
		f.broadcastSnapshot(protocol.SourceStation, protocol.EventStationRemoved, "station",
			func(version int) any { return dumpStationFor(ev.Station, version) })
	case driver.EventStationConnected:
		f.broadcast(protocol.NewEvent(protocol.SourceStation, protocol.EventStationConnected).
			With("serialNumber", ev.Serial), protocol.AllVersions())
	case driver.EventStationDisconnected:
		f.broadcast(protocol.NewEvent(protocol.SourceStation, protocol.EventStationDisconnected).
			With("serialNumber", ev.Serial), protocol.AllVersions())

	// Mode transitions changed shape at schema 3: dual emission from one
	// underlying transition.
	case driver.EventGuardModeChanged:
		f.handleGuardModeChanged(ev)
	case driver.EventCurrentModeChanged:
		f.handleCurrentModeChanged(ev)

	case driver.EventStationAlarm:
		f.broadcast(protocol.NewEvent(protocol.SourceStation, protocol.EventStationAlarmEvent).
			With("serialNumber", ev.Serial).
			With("alarmEvent", ev.AlarmEvent), protocol.Since(3))

	case driver.EventStationPropertyChanged:
		f.broadcast(propertyChangedEvent(protocol.SourceStation, ev), protocol.AllVersions())

	case driver.EventCommandResult:
		f.handleCommandResult(ev)

	case driver.EventRTSPURL:
		f.handleRTSPURL(ev)

	// Device lifecycle
	case driver.EventDeviceAdded:
		f.handleDeviceAdded(ev.Device)
	case driver.EventDeviceRemoved:
		f.broadcastSnapshot(protocol.SourceDevice, protocol.EventDeviceRemoved, "device",
			func(version int) any { return dumpDeviceFor(ev.Device, version) })

	case driver.EventDevicePropertyChanged:
		f.broadcast(propertyChangedEvent(protocol.SourceDevice, ev), protocol.AllVersions())

	// Detection events, delivered only when the device was wired for the
	// kind at added time.
	case driver.EventMotionDetected, driver.EventPersonDetected, driver.EventCryingDetected,
		driver.EventSoundDetected, driver.EventPetDetected, driver.EventRings, driver.EventSensorOpen:
		f.handleDetection(ev)

	// Media events
	case driver.EventLivestreamStarted:
		f.broadcastSubscribed(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceLivestreamStarted).
			With("serialNumber", ev.Serial), ev.Serial, protocol.LivestreamMinSchema)
	case driver.EventLivestreamStopped:
		f.handleLivestreamStopped(ev)
	case driver.EventLivestreamVideoData:
		f.metrics.MediaBytes.WithLabelValues("livestream_video").Add(float64(len(ev.Chunk)))
		f.broadcastSubscribed(videoChunkEvent(protocol.EventDeviceLivestreamVideoData, ev),
			ev.Serial, protocol.LivestreamMinSchema)
	case driver.EventLivestreamAudioData:
		f.metrics.MediaBytes.WithLabelValues("livestream_audio").Add(float64(len(ev.Chunk)))
		f.broadcastSubscribed(audioChunkEvent(protocol.EventDeviceLivestreamAudioData, ev),
			ev.Serial, protocol.LivestreamMinSchema)

	case driver.EventDownloadStarted:
		f.broadcastSubscribed(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceDownloadStarted).
			With("serialNumber", ev.Serial), ev.Serial, protocol.DownloadMinSchema)
	case driver.EventDownloadFinished:
		f.broadcastSubscribed(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceDownloadFinished).
			With("serialNumber", ev.Serial), ev.Serial, protocol.DownloadMinSchema)
	case driver.EventDownloadVideoData:
		f.metrics.MediaBytes.WithLabelValues("download_video").Add(float64(len(ev.Chunk)))
		f.broadcastSubscribed(videoChunkEvent(protocol.EventDeviceDownloadVideoData, ev),
			ev.Serial, protocol.DownloadMinSchema)
	case driver.EventDownloadAudioData:
		f.metrics.MediaBytes.WithLabelValues("download_audio").Add(float64(len(ev.Chunk)))
		f.broadcastSubscribed(audioChunkEvent(protocol.EventDeviceDownloadAudioData, ev),
			ev.Serial, protocol.DownloadMinSchema)

	case driver.EventRTSPLivestreamStarted:
		f.broadcastSubscribed(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceRTSPLivestreamStarted).
			With("serialNumber", ev.Serial), ev.Serial, protocol.RTSPMinSchema)
	case driver.EventRTSPLivestreamStopped:
		f.broadcastSubscribed(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceRTSPLivestreamStopped).
			With("serialNumber", ev.Serial), ev.Serial, protocol.RTSPMinSchema)

	default:
		f.metrics.EventsDropped.Inc()
		f.log.Debug("unhandled driver event", "kind", int(ev.Kind))
	}
}

func (f *Forwarder) handleStationAdded(st driver.Station) {
	if st == nil {
		return
	}
	f.broadcastSnapshot(protocol.SourceStation, protocol.EventStationAdded, "station",
		func(version int) any { return dumpStationFor(st, version) })
	f.wireStation(st.Serial())
}

func (f *Forwarder) handleDeviceAdded(dev driver.Device) {
	if dev == nil {
		return
	}
	f.broadcastSnapshot(protocol.SourceDevice, protocol.EventDeviceAdded, "device",
		func(version int) any { return dumpDeviceFor(dev, version) })
	f.wireDevice(dev)
}

func (f *Forwarder) handleDetection(ev driver.Event) {
	if !f.detectionWired(ev.Serial, ev.Kind) {
		f.metrics.EventsDropped.Inc()
		return
	}
	env := protocol.NewEvent(protocol.SourceDevice, detectionEventName(ev.Kind)).
		With("serialNumber", ev.Serial).
		With("state", ev.State)
	if ev.Kind == driver.EventPersonDetected {
		env.With("person", ev.Person)
	}
	f.broadcast(env, protocol.AllVersions())
}

// handleGuardModeChanged emits the legacy combined shape to [0,2] and the
// decomposed shape to [3,max]. The station is read once; both envelopes
// derive from the same transition.
func (f *Forwarder) handleGuardModeChanged(ev driver.Event) {
	currentMode := ev.Mode
	if st, err := f.registry.Driver().Station(ev.Serial); err == nil {
		currentMode = st.CurrentMode()
	}
	f.forEachVersioned(func(version int) (protocol.OutgoingEvent, bool) {
		return renderGuardModeChanged(ev.Serial, ev.Mode, currentMode, version)
	})
}

func (f *Forwarder) handleCurrentModeChanged(ev driver.Event) {
	guardMode := ev.Mode
	if st, err := f.registry.Driver().Station(ev.Serial); err == nil {
		guardMode = st.GuardMode()
	}
	f.forEachVersioned(func(version int) (protocol.OutgoingEvent, bool) {
		return renderCurrentModeChanged(ev.Serial, guardMode, ev.Mode, version)
	})
}

// handleCommandResult reconstructs the public command a driver result code
// corresponds to. Unmapped operation identifiers produce no event at all,
// keeping internal-only operations off the wire.
func (f *Forwarder) handleCommandResult(ev driver.Event) {
	if ev.Channel == driver.StationChannel {
		command, ok := stationCommandName(ev.OpCode)
		if !ok {
			f.metrics.EventsDropped.Inc()
			return
		}
		f.broadcast(commandResultEvent(protocol.SourceStation, protocol.EventStationCommandResult,
			ev.StationSerial, command, ev.ReturnCode), protocol.AllVersions())
		return
	}

	command, ok := deviceCommandName(ev.OpCode)
	if !ok {
		f.metrics.EventsDropped.Inc()
		return
	}
	dev, err := f.registry.Driver().StationDevice(ev.StationSerial, ev.Channel)
	if err != nil {
		f.log.Debug("command result for unknown device",
			"station", ev.StationSerial, "channel", ev.Channel)
		return
	}
	f.broadcast(commandResultEvent(protocol.SourceDevice, protocol.EventDeviceCommandResult,
		dev.Serial(), command, ev.ReturnCode), protocol.AllVersions())
}

func (f *Forwarder) handleRTSPURL(ev driver.Event) {
	dev, err := f.registry.Driver().StationDevice(ev.StationSerial, ev.Channel)
	if err != nil {
		return
	}
	f.broadcast(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceGotRTSPURL).
		With("serialNumber", dev.Serial()).
		With("rtspUrl", ev.URL), protocol.AllVersions())
}

// handleLivestreamStopped notifies subscribed sessions and then clears
// their per-device opt-in: a new stream requires a new opt-in.
func (f *Forwarder) handleLivestreamStopped(ev driver.Event) {
	for _, c := range f.registry.All() {
		if !c.IsConnected() || !c.ReceivesLivestream(ev.Serial) {
			continue
		}
		if c.ReceiveEvents() && c.SchemaVersion() >= protocol.LivestreamMinSchema {
			c.SendEvent(protocol.NewEvent(protocol.SourceDevice, protocol.EventDeviceLivestreamStopped).
				With("serialNumber", ev.Serial))
			f.metrics.EventsForwarded.WithLabelValues(protocol.SourceDevice).Inc()
		}
		c.SetReceiveLivestream(ev.Serial, false)
	}
}

// broadcast delivers one envelope to the global audience: connected
// sessions that did not opt out of events and whose negotiated version
// lies in the shape's validity window.
func (f *Forwarder) broadcast(env protocol.OutgoingEvent, window protocol.VersionWindow) {
	source := env.Source()
	f.registry.Broadcast(env, func(c *clients.Client) bool {
		if !c.ReceiveEvents() || !window.Contains(c.SchemaVersion()) {
			return false
		}
		f.metrics.EventsForwarded.WithLabelValues(source).Inc()
		return true
	})
}

// broadcastSnapshot renders a per-version entity snapshot into the
// envelope for each receiving session.
func (f *Forwarder) broadcastSnapshot(source, event, field string, render func(version int) any) {
	for _, c := range f.registry.All() {
		if !c.IsConnected() || !c.ReceiveEvents() {
			continue
		}
		snapshot := render(c.SchemaVersion())
		if snapshot == nil {
			continue
		}
		c.SendEvent(protocol.NewEvent(source, event).With(field, snapshot))
		f.metrics.EventsForwarded.WithLabelValues(source).Inc()
	}
}

// broadcastSubscribed delivers a media envelope to sessions that opted in
// for the device and meet the media category's minimum schema version.
func (f *Forwarder) broadcastSubscribed(env protocol.OutgoingEvent, serial string, minSchema int) {
	f.registry.Broadcast(env, func(c *clients.Client) bool {
		if !c.ReceiveEvents() || !c.ReceivesLivestream(serial) || c.SchemaVersion() < minSchema {
			return false
		}
		f.metrics.EventsForwarded.WithLabelValues(protocol.SourceDevice).Inc()
		return true
	})
}

// forEachVersioned sends the envelope a render function produces for each
// session's version, at most one shape per session.
func (f *Forwarder) forEachVersioned(render func(version int) (protocol.OutgoingEvent, bool)) {
	for _, c := range f.registry.All() {
		if !c.IsConnected() || !c.ReceiveEvents() {
			continue
		}
		env, ok := render(c.SchemaVersion())
		if !ok {
			continue
		}
		c.SendEvent(env)
		f.metrics.EventsForwarded.WithLabelValues(env.Source()).Inc()
	}
}
