package forward

import (
	"sechub/pkg/driver"
	"sechub/pkg/protocol"
	"sechub/pkg/state"
)

// Mode transitions were reported as one combined event before schema 3
// and as two decomposed events from schema 3 on. Each render function
// produces at most one shape for a given version, so no session ever
// sees both.

func renderGuardModeChanged(serial string, guardMode, currentMode, version int) (protocol.OutgoingEvent, bool) {
	if version < 3 {
		return protocol.NewEvent(protocol.SourceStation, protocol.EventStationGuardModeChanged).
			With("serialNumber", serial).
			With("guardMode", guardMode).
			With("currentMode", currentMode), true
	}
	return protocol.NewEvent(protocol.SourceStation, protocol.EventStationGuardModeChanged).
		With("serialNumber", serial).
		With("guardMode", guardMode), true
}

func renderCurrentModeChanged(serial string, guardMode, currentMode, version int) (protocol.OutgoingEvent, bool) {
	if version < 3 {
		// Legacy sessions saw current-mode transitions as the combined
		// guard-mode shape.
		return protocol.NewEvent(protocol.SourceStation, protocol.EventStationGuardModeChanged).
			With("serialNumber", serial).
			With("guardMode", guardMode).
			With("currentMode", currentMode), true
	}
	return protocol.NewEvent(protocol.SourceStation, protocol.EventStationCurrentModeChanged).
		With("serialNumber", serial).
		With("currentMode", currentMode), true
}

func propertyChangedEvent(source string, ev driver.Event) protocol.OutgoingEvent {
	return protocol.NewEvent(source, protocol.EventStationPropertyChanged).
		With("serialNumber", ev.Serial).
		With("name", ev.Name).
		With("value", ev.Value).
		With("timestamp", ev.Timestamp)
}

func commandResultEvent(source, event, serial, command string, returnCode int) protocol.OutgoingEvent {
	return protocol.NewEvent(source, event).
		With("serialNumber", serial).
		With("command", protocol.BareName(command)).
		With("returnCode", returnCode).
		With("returnCodeName", driver.ReturnCodeName(returnCode))
}

func videoChunkEvent(event string, ev driver.Event) protocol.OutgoingEvent {
	meta := ev.Media
	if meta == nil {
		meta = &driver.StreamMetadata{}
	}
	return protocol.NewEvent(protocol.SourceDevice, event).
		With("serialNumber", ev.Serial).
		With("buffer", ev.Chunk).
		With("metadata", map[string]any{
			"videoCodec":  meta.VideoCodec,
			"videoFPS":    meta.VideoFPS,
			"videoHeight": meta.VideoHeight,
			"videoWidth":  meta.VideoWidth,
		})
}

func audioChunkEvent(event string, ev driver.Event) protocol.OutgoingEvent {
	meta := ev.Media
	if meta == nil {
		meta = &driver.StreamMetadata{}
	}
	return protocol.NewEvent(protocol.SourceDevice, event).
		With("serialNumber", ev.Serial).
		With("buffer", ev.Chunk).
		With("metadata", map[string]any{
			"audioCodec": meta.AudioCodec,
		})
}

func detectionEventName(kind driver.EventKind) string {
	switch kind {
	case driver.EventMotionDetected:
		return protocol.EventDeviceMotionDetected
	case driver.EventPersonDetected:
		return protocol.EventDevicePersonDetected
	case driver.EventCryingDetected:
		return protocol.EventDeviceCryingDetected
	case driver.EventSoundDetected:
		return protocol.EventDeviceSoundDetected
	case driver.EventPetDetected:
		return protocol.EventDevicePetDetected
	case driver.EventRings:
		return protocol.EventDeviceRings
	case driver.EventSensorOpen:
		return protocol.EventDeviceSensorOpen
	}
	return ""
}

func dumpStationFor(st driver.Station, version int) any {
	if st == nil {
		return nil
	}
	return state.DumpStation(st, version)
}

func dumpDeviceFor(dev driver.Device, version int) any {
	if dev == nil {
		return nil
	}
	return state.DumpDevice(dev, version)
}
