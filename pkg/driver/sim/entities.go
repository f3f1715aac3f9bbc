package sim

import (
	"sync"
	"time"

	"sechub/pkg/driver"
)

// Station is a simulated hub entity.
type Station struct {
	mu          sync.RWMutex
	serial      string
	name        string
	model       string
	hwVersion   string
	swVersion   string
	lanIP       string
	mac         string
	timeZone    string
	guardMode   int
	currentMode int
	connected   bool
	properties  map[string]driver.PropertyValue
}

// NewStation creates a simulated station with stock metadata.
func NewStation(serial, name string) *Station {
	return &Station{
		serial:    serial,
		name:      name,
		model:     "T8010",
		hwVersion: "P2",
		swVersion: "2.1.8.8h",
		lanIP:     "192.168.1.10",
		mac:       "8c:85:80:00:00:01",
		timeZone:  "GMT+01:00",
		connected: true,
		properties: map[string]driver.PropertyValue{
			"promptVolume": {Value: 26, Timestamp: time.Now().UnixMilli()},
		},
	}
}

func (s *Station) Serial() string          { return s.serial }
func (s *Station) Name() string            { return s.name }
func (s *Station) Model() string           { return s.model }
func (s *Station) HardwareVersion() string { return s.hwVersion }
func (s *Station) SoftwareVersion() string { return s.swVersion }
func (s *Station) LANIPAddress() string    { return s.lanIP }
func (s *Station) MACAddress() string      { return s.mac }
func (s *Station) TimeZone() string        { return s.timeZone }

func (s *Station) GuardMode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guardMode
}

func (s *Station) CurrentMode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentMode
}

func (s *Station) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Station) Properties() map[string]driver.PropertyValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]driver.PropertyValue, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

func (s *Station) PropertiesMetadata() map[string]driver.PropertyMetadata {
	return map[string]driver.PropertyMetadata{
		"promptVolume": {Type: "number", Writable: true},
		"guardMode":    {Type: "number", Writable: true},
	}
}

func (s *Station) setGuardMode(mode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardMode = mode
	s.currentMode = mode
}

func (s *Station) setConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

func (s *Station) setProperty(name string, value any, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[name] = driver.PropertyValue{Value: value, Timestamp: ts}
}

// Device is a simulated camera/sensor entity.
type Device struct {
	mu            sync.RWMutex
	serial        string
	name          string
	model         string
	hwVersion     string
	swVersion     string
	stationSerial string
	channel       int
	enabled       bool
	battery       int
	caps          driver.CapabilitySet
	properties    map[string]driver.PropertyValue
}

// NewDevice creates a simulated device carrying the given capability tags.
func NewDevice(serial, name, stationSerial string, channel int, caps ...driver.Capability) *Device {
	return &Device{
		serial:        serial,
		name:          name,
		model:         "T8113",
		hwVersion:     "HAIYI-IMX323",
		swVersion:     "1.9.3",
		stationSerial: stationSerial,
		channel:       channel,
		enabled:       true,
		battery:       87,
		caps:          driver.NewCapabilitySet(caps...),
		properties: map[string]driver.PropertyValue{
			"motionDetection": {Value: true, Timestamp: time.Now().UnixMilli()},
		},
	}
}

func (d *Device) Serial() string          { return d.serial }
func (d *Device) Name() string            { return d.name }
func (d *Device) Model() string           { return d.model }
func (d *Device) HardwareVersion() string { return d.hwVersion }
func (d *Device) SoftwareVersion() string { return d.swVersion }
func (d *Device) StationSerial() string   { return d.stationSerial }
func (d *Device) Channel() int            { return d.channel }

func (d *Device) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

func (d *Device) BatteryLevel() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.battery
}

func (d *Device) Capabilities() driver.CapabilitySet { return d.caps }

func (d *Device) Properties() map[string]driver.PropertyValue {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]driver.PropertyValue, len(d.properties))
	for k, v := range d.properties {
		out[k] = v
	}
	return out
}

func (d *Device) PropertiesMetadata() map[string]driver.PropertyMetadata {
	return map[string]driver.PropertyMetadata{
		"motionDetection": {Type: "boolean", Writable: true},
		"enabled":         {Type: "boolean", Writable: true},
		"statusLed":       {Type: "boolean", Writable: true},
	}
}

func (d *Device) setProperty(name string, value any, ts int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[name] = driver.PropertyValue{Value: value, Timestamp: ts}
	switch name {
	case "enabled":
		if b, ok := value.(bool); ok {
			d.enabled = b
		}
	}
}
