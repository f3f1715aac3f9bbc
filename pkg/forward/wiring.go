package forward

import "sechub/pkg/driver"

// detectionSet is the detection event kinds a device is wired for.
type detectionSet map[driver.EventKind]struct{}

// capabilityDetections maps each capability tag to the detection events
// devices of that class report. A device's wiring is the union over its
// tags, fixed once when the device is first seen.
var capabilityDetections = map[driver.Capability][]driver.EventKind{
	driver.CapCamera: {
		driver.EventMotionDetected,
		driver.EventPersonDetected,
	},
	driver.CapIndoorCamera: {
		driver.EventCryingDetected,
		driver.EventSoundDetected,
		driver.EventPetDetected,
	},
	driver.CapDoorbell: {
		driver.EventRings,
	},
	driver.CapEntrySensor: {
		driver.EventSensorOpen,
	},
	driver.CapMotionSensor: {
		driver.EventMotionDetected,
	},
}

func detectionsFor(caps driver.CapabilitySet) detectionSet {
	set := make(detectionSet)
	for _, cap := range caps.List() {
		for _, kind := range capabilityDetections[cap] {
			set[kind] = struct{}{}
		}
	}
	return set
}
