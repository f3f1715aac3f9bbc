// Package state renders opaque driver entities into version-appropriate
// wire snapshots. Dumps are total for every schema version in the
// supported range and deterministic for a given entity state; fields a
// version does not know are omitted, never filled with sentinels. New
// versions only add fields; an existing field keeps its meaning at every
// later version.
package state

import "sechub/pkg/driver"

// Snapshot is one versioned entity projection.
type Snapshot map[string]any

// DumpDriver renders the driver-level snapshot.
func DumpDriver(d driver.Driver, schemaVersion int) Snapshot {
	// Schema 0 baseline; no later variant has been needed yet.
	return Snapshot{
		"version":       d.Version(),
		"connected":     d.IsConnected(),
		"pushConnected": d.IsPushConnected(),
	}
}

// DumpStation renders a station snapshot at the given schema version.
func DumpStation(st driver.Station, schemaVersion int) Snapshot {
	s := Snapshot{
		"name":            st.Name(),
		"model":           st.Model(),
		"serialNumber":    st.Serial(),
		"hardwareVersion": st.HardwareVersion(),
		"softwareVersion": st.SoftwareVersion(),
		"lanIpAddress":    st.LANIPAddress(),
		"macAddress":      st.MACAddress(),
		"guardMode":       st.GuardMode(),
		"currentMode":     st.CurrentMode(),
	}
	if schemaVersion >= 3 {
		s["connected"] = st.IsConnected()
	}
	if schemaVersion >= 5 {
		s["timeZone"] = st.TimeZone()
	}
	return s
}

// DumpDevice renders a device snapshot at the given schema version.
func DumpDevice(dev driver.Device, schemaVersion int) Snapshot {
	s := Snapshot{
		"name":                dev.Name(),
		"model":               dev.Model(),
		"serialNumber":        dev.Serial(),
		"hardwareVersion":     dev.HardwareVersion(),
		"softwareVersion":     dev.SoftwareVersion(),
		"stationSerialNumber": dev.StationSerial(),
	}
	if schemaVersion >= 2 {
		s["batteryLevel"] = dev.BatteryLevel()
	}
	if schemaVersion >= 3 {
		s["enabled"] = dev.Enabled()
	}
	if schemaVersion >= 4 {
		s["capabilities"] = dev.Capabilities().Strings()
	}
	return s
}
