package forward

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/clients"
	"sechub/pkg/dispatch"
	"sechub/pkg/driver"
	"sechub/pkg/driver/sim"
	"sechub/pkg/metrics"
	"sechub/pkg/protocol"
)

type fixture struct {
	drv       *sim.Driver
	registry  *clients.Registry
	captcha   *dispatch.CaptchaSlot
	forwarder *Forwarder
}

func newFixture(t *testing.T, drv *sim.Driver) *fixture {
	t.Helper()
	registry := clients.NewRegistry(drv)
	captcha := &dispatch.CaptchaSlot{}
	f := New(registry, captcha, metrics.NewUnregistered(), nil)
	f.Start()
	t.Cleanup(func() {
		drv.Close()
		<-f.Done()
	})
	return &fixture{drv: drv, registry: registry, captcha: captcha, forwarder: f}
}

func (fx *fixture) addClient(t *testing.T, version int) *clients.Client {
	t.Helper()
	c := clients.NewClient(fmt.Sprintf("c%d", fx.registry.Count()), 64)
	if version > 0 {
		if _, err := c.Negotiate(version); err != nil {
			t.Fatal(err)
		}
	}
	fx.registry.Add(c)
	return c
}

// emitAndSettle injects an event and waits until the forwarder has
// processed everything injected so far.
func (fx *fixture) emitAndSettle(t *testing.T, events ...driver.Event) {
	t.Helper()
	for _, ev := range events {
		fx.drv.Emit(ev)
	}
	// A sentinel the forwarder drops; once the queue drains past it, every
	// prior event has been fully handled.
	fx.drv.Emit(driver.Event{Kind: driver.EventKind(-1)})
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("forwarder did not settle")
		case <-time.After(time.Millisecond):
		}
		if len(fx.drv.Events()) == 0 {
			return
		}
	}
}

func receiveEvent(t *testing.T, c *clients.Client) protocol.OutgoingEvent {
	t.Helper()
	select {
	case data, ok := <-c.Outbound():
		require.True(t, ok, "outbound closed")
		var msg struct {
			Type  string                 `json:"type"`
			Event protocol.OutgoingEvent `json:"event"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, protocol.TypeEvent, msg.Type)
		return msg.Event
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event envelope")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *clients.Client) {
	t.Helper()
	select {
	case data := <-c.Outbound():
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func seededSim() *sim.Driver {
	st := sim.NewStation("T8010P0001", "Backyard")
	cam := sim.NewDevice("T81130001", "Front Door", "T8010P0001", 0, driver.CapCamera)
	return sim.New(sim.WithStation(st), sim.WithDevice(cam))
}

func TestDriverEventBroadcastToAllVersions(t *testing.T) {
	fx := newFixture(t, seededSim())
	legacy := fx.addClient(t, 0)
	modern := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventDriverConnected})

	for _, c := range []*clients.Client{legacy, modern} {
		ev := receiveEvent(t, c)
		assert.Equal(t, protocol.SourceDriver, ev.Source())
		assert.Equal(t, "connected", ev.Name())
	}
}

func TestReceiveEventsOptOutSilencesEverything(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)
	c.SetReceiveEvents(false)

	fx.emitAndSettle(t,
		driver.Event{Kind: driver.EventDriverConnected},
		driver.Event{Kind: driver.EventGuardModeChanged, Serial: "T8010P0001", Mode: 1},
		driver.Event{Kind: driver.EventMotionDetected, Serial: "T81130001", State: true},
	)

	assertNoEvent(t, c)
}

func TestGuardModeChangedDualEmission(t *testing.T) {
	fx := newFixture(t, seededSim())
	legacy := fx.addClient(t, 2)
	modern := fx.addClient(t, 3)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventGuardModeChanged, Serial: "T8010P0001", Mode: 1})

	legacyEv := receiveEvent(t, legacy)
	assert.Equal(t, "guard mode changed", legacyEv.Name())
	assert.Equal(t, float64(1), legacyEv["guardMode"])
	assert.Contains(t, legacyEv, "currentMode")

	modernEv := receiveEvent(t, modern)
	assert.Equal(t, "guard mode changed", modernEv.Name())
	assert.Equal(t, float64(1), modernEv["guardMode"])
	assert.NotContains(t, modernEv, "currentMode")

	// Exactly one shape per session.
	assertNoEvent(t, legacy)
	assertNoEvent(t, modern)
}

func TestCurrentModeChangedShapes(t *testing.T) {
	fx := newFixture(t, seededSim())
	legacy := fx.addClient(t, 0)
	modern := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventCurrentModeChanged, Serial: "T8010P0001", Mode: 2})

	legacyEv := receiveEvent(t, legacy)
	assert.Equal(t, "guard mode changed", legacyEv.Name())
	assert.Equal(t, float64(2), legacyEv["currentMode"])

	modernEv := receiveEvent(t, modern)
	assert.Equal(t, "current mode changed", modernEv.Name())
	assert.Equal(t, float64(2), modernEv["currentMode"])
	assert.NotContains(t, modernEv, "guardMode")
}

func TestAlarmEventGatedAtSchema3(t *testing.T) {
	fx := newFixture(t, seededSim())
	legacy := fx.addClient(t, 2)
	modern := fx.addClient(t, 3)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventStationAlarm, Serial: "T8010P0001", AlarmEvent: 4})

	ev := receiveEvent(t, modern)
	assert.Equal(t, "alarm event", ev.Name())
	assert.Equal(t, float64(4), ev["alarmEvent"])

	assertNoEvent(t, legacy)
}

func TestCaptchaRequestStoresIDAndGatesAtSchema7(t *testing.T) {
	fx := newFixture(t, seededSim())
	old := fx.addClient(t, 6)
	current := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind: driver.EventCaptchaRequest, CaptchaID: "cap-1", Captcha: "data:image/png;base64,...",
	})

	ev := receiveEvent(t, current)
	assert.Equal(t, "captcha request", ev.Name())
	assert.Equal(t, "cap-1", ev["captchaId"])

	assertNoEvent(t, old)

	id, ok := fx.captcha.Take()
	require.True(t, ok)
	assert.Equal(t, "cap-1", id)
}

func TestDetectionRequiresCapabilityWiring(t *testing.T) {
	st := sim.NewStation("T8010P0001", "Backyard")
	cam := sim.NewDevice("T81130001", "Front Door", "T8010P0001", 0, driver.CapCamera)
	sensor := sim.NewDevice("T89000001", "Back Door", "T8010P0001", 1, driver.CapEntrySensor)
	fx := newFixture(t, sim.New(sim.WithStation(st), sim.WithDevice(cam), sim.WithDevice(sensor)))
	c := fx.addClient(t, 7)

	// Camera is wired for motion, the entry sensor is not.
	fx.emitAndSettle(t,
		driver.Event{Kind: driver.EventMotionDetected, Serial: "T81130001", State: true},
		driver.Event{Kind: driver.EventMotionDetected, Serial: "T89000001", State: true},
		driver.Event{Kind: driver.EventSensorOpen, Serial: "T89000001", State: true},
	)

	first := receiveEvent(t, c)
	assert.Equal(t, "motion detected", first.Name())
	assert.Equal(t, "T81130001", first["serialNumber"])

	second := receiveEvent(t, c)
	assert.Equal(t, "sensor open", second.Name())
	assert.Equal(t, "T89000001", second["serialNumber"])

	assertNoEvent(t, c)
}

func TestPersonDetectedCarriesPersonName(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind: driver.EventPersonDetected, Serial: "T81130001", State: true, Person: "Alice",
	})

	ev := receiveEvent(t, c)
	assert.Equal(t, "person detected", ev.Name())
	assert.Equal(t, "Alice", ev["person"])
}

func TestDeviceAddedSnapshotPerVersion(t *testing.T) {
	fx := newFixture(t, seededSim())
	legacy := fx.addClient(t, 0)
	modern := fx.addClient(t, 7)

	newDev := sim.NewDevice("T81130099", "Garage", "T8010P0001", 2, driver.CapCamera)
	fx.emitAndSettle(t, driver.Event{Kind: driver.EventDeviceAdded, Serial: "T81130099", Device: newDev})

	legacyEv := receiveEvent(t, legacy)
	legacySnap := legacyEv["device"].(map[string]any)
	assert.NotContains(t, legacySnap, "capabilities")

	modernEv := receiveEvent(t, modern)
	modernSnap := modernEv["device"].(map[string]any)
	assert.Contains(t, modernSnap, "capabilities")

	// The freshly added device is wired: its detections now flow.
	fx.emitAndSettle(t, driver.Event{Kind: driver.EventMotionDetected, Serial: "T81130099", State: true})
	ev := receiveEvent(t, modern)
	assert.Equal(t, "motion detected", ev.Name())
}

func TestLivestreamChunksOnlyToSubscribedSessions(t *testing.T) {
	fx := newFixture(t, seededSim())
	subscribed := fx.addClient(t, 2)
	bystander := fx.addClient(t, 7)
	tooOld := fx.addClient(t, 1)

	subscribed.SetReceiveLivestream("T81130001", true)
	tooOld.SetReceiveLivestream("T81130001", true)

	fx.emitAndSettle(t, driver.Event{
		Kind:   driver.EventLivestreamVideoData,
		Serial: "T81130001",
		Chunk:  []byte{0x00, 0x01},
		Media:  &driver.StreamMetadata{VideoCodec: "H264"},
	})

	ev := receiveEvent(t, subscribed)
	assert.Equal(t, "livestream video data", ev.Name())
	meta := ev["metadata"].(map[string]any)
	assert.Equal(t, "H264", meta["videoCodec"])

	assertNoEvent(t, bystander)
	assertNoEvent(t, tooOld)
}

func TestLivestreamStopClearsOptIn(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 2)
	c.SetReceiveLivestream("T81130001", true)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventLivestreamStopped, Serial: "T81130001"})

	ev := receiveEvent(t, c)
	assert.Equal(t, "livestream stopped", ev.Name())
	assert.False(t, c.ReceivesLivestream("T81130001"))

	// Chunks after the stop are not delivered: a new stream needs a new opt-in.
	fx.emitAndSettle(t, driver.Event{
		Kind: driver.EventLivestreamVideoData, Serial: "T81130001", Chunk: []byte{0x00},
	})
	assertNoEvent(t, c)
}

func TestDownloadChunksGatedAtSchema3(t *testing.T) {
	fx := newFixture(t, seededSim())
	old := fx.addClient(t, 2)
	current := fx.addClient(t, 3)
	old.SetReceiveLivestream("T81130001", true)
	current.SetReceiveLivestream("T81130001", true)

	fx.emitAndSettle(t, driver.Event{
		Kind: driver.EventDownloadVideoData, Serial: "T81130001", Chunk: []byte{0x02},
	})

	ev := receiveEvent(t, current)
	assert.Equal(t, "download video data", ev.Name())
	assertNoEvent(t, old)
}

func TestRTSPEventsGatedAtSchema6(t *testing.T) {
	fx := newFixture(t, seededSim())
	old := fx.addClient(t, 5)
	current := fx.addClient(t, 6)
	old.SetReceiveLivestream("T81130001", true)
	current.SetReceiveLivestream("T81130001", true)

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventRTSPLivestreamStarted, Serial: "T81130001"})

	ev := receiveEvent(t, current)
	assert.Equal(t, "rtsp livestream started", ev.Name())
	assertNoEvent(t, old)
}

func TestCommandResultMapping(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: "T8010P0001",
		Channel:       driver.StationChannel,
		OpCode:        driver.OpSetArming,
		ReturnCode:    0,
	})

	ev := receiveEvent(t, c)
	assert.Equal(t, protocol.SourceStation, ev.Source())
	assert.Equal(t, "command result", ev.Name())
	assert.Equal(t, "set_guard_mode", ev["command"])
	assert.Equal(t, "ERROR_PPCS_SUCCESSFUL", ev["returnCodeName"])
}

func TestCommandResultDeviceChannelResolution(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: "T8010P0001",
		Channel:       0,
		OpCode:        driver.OpDeviceSwitch,
		ReturnCode:    -3,
	})

	ev := receiveEvent(t, c)
	assert.Equal(t, protocol.SourceDevice, ev.Source())
	assert.Equal(t, "T81130001", ev["serialNumber"])
	assert.Equal(t, "enable_device", ev["command"])
	assert.Equal(t, "ERROR_COMMAND_TIMEOUT", ev["returnCodeName"])
}

func TestUnmappedCommandResultDropped(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: "T8010P0001",
		Channel:       driver.StationChannel,
		OpCode:        driver.OpUnknown,
		ReturnCode:    0,
	})

	assertNoEvent(t, c)
}

func TestUnknownReturnCodeName(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)

	fx.emitAndSettle(t, driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: "T8010P0001",
		Channel:       driver.StationChannel,
		OpCode:        driver.OpHubReboot,
		ReturnCode:    -99,
	})

	ev := receiveEvent(t, c)
	assert.Equal(t, "UNKNOWN", ev["returnCodeName"])
}

func TestRTSPURLResolvedToDevice(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 0)

	fx.emitAndSettle(t, driver.Event{
		Kind:          driver.EventRTSPURL,
		StationSerial: "T8010P0001",
		Channel:       0,
		URL:           "rtsp://192.168.1.10/live0",
	})

	ev := receiveEvent(t, c)
	assert.Equal(t, "got rtsp url", ev.Name())
	assert.Equal(t, "T81130001", ev["serialNumber"])
	assert.Equal(t, "rtsp://192.168.1.10/live0", ev["rtspUrl"])
}

func TestDisconnectedClientExcluded(t *testing.T) {
	fx := newFixture(t, seededSim())
	c := fx.addClient(t, 7)
	c.MarkDisconnected()

	fx.emitAndSettle(t, driver.Event{Kind: driver.EventDriverConnected})

	_, ok := <-c.Outbound()
	assert.False(t, ok)
}
