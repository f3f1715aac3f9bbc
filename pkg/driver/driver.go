// Package driver defines the contract this gateway expects from the
// device-communication stack: a single shared Driver capability exposing
// commands against stations and devices and emitting domain events on one
// stream. How the driver talks to physical hardware (discovery, cloud
// authentication, transport encryption, media decoding) is outside this
// repository; the gateway only adapts the capability to protocol clients.
package driver

import (
	"context"
	"time"
)

// Driver is the shared backend capability. One instance serves all
// connected protocol clients; there is no per-client driver state.
// Methods taking a context may perform network I/O and can be slow or
// fail; the gateway propagates such failures verbatim and never retries.
type Driver interface {
	// Version reports the driver implementation version, included in the
	// connection banner and driver snapshots.
	Version() string

	// Connect establishes the backend session. The returned bool is false
	// when the backend requires a second factor before the session is
	// usable (a verify-code or captcha event follows on the stream).
	Connect(ctx context.Context) (bool, error)

	// VerifyCode completes a pending 2FA challenge with a numeric code.
	VerifyCode(ctx context.Context, code string) (bool, error)

	// SolveCaptcha completes a pending captcha challenge.
	SolveCaptcha(ctx context.Context, captcha, captchaID string) (bool, error)

	// Disconnect tears the backend session down.
	Disconnect()

	IsConnected() bool
	IsPushConnected() bool

	// PollRefresh forces a refresh of cloud-side state.
	PollRefresh(ctx context.Context) error

	// Entity enumeration and lookup.
	Stations() []Station
	Devices() []Device
	Station(serial string) (Station, error)
	Device(serial string) (Device, error)
	// StationDevice resolves a device by its station and channel, used to
	// attribute station-scoped events to the device they concern.
	StationDevice(stationSerial string, channel int) (Device, error)

	// Station commands.
	RebootStation(ctx context.Context, serial string) error
	SetGuardMode(ctx context.Context, serial string, mode int) error
	ConnectStation(ctx context.Context, serial string) error
	DisconnectStation(ctx context.Context, serial string) error
	TriggerStationAlarm(ctx context.Context, serial string, seconds int) error
	ResetStationAlarm(ctx context.Context, serial string) error
	SetStationProperty(ctx context.Context, serial, name string, value any) error

	// Device commands.
	SetDeviceProperty(ctx context.Context, serial, name string, value any) error
	StartLivestream(ctx context.Context, serial string) error
	StopLivestream(ctx context.Context, serial string) error
	IsLivestreaming(serial string) bool
	StartDownload(ctx context.Context, serial, path string, cipherID int) error
	CancelDownload(ctx context.Context, serial string) error

	// Historical queries against the backend's event archive.
	VideoEvents(ctx context.Context, q EventQuery) ([]EventRecord, error)
	AlarmEvents(ctx context.Context, q EventQuery) ([]EventRecord, error)
	HistoryEvents(ctx context.Context, q EventQuery) ([]EventRecord, error)

	// Events returns the driver's event stream. The channel is owned by
	// the driver, carries every driver/station/device event for the
	// lifetime of the process, and is closed only on shutdown.
	Events() <-chan Event
}

// Station is a read-only view of a hub entity. Commands against stations
// go through the Driver.
type Station interface {
	Serial() string
	Name() string
	Model() string
	HardwareVersion() string
	SoftwareVersion() string
	LANIPAddress() string
	MACAddress() string
	TimeZone() string
	GuardMode() int
	CurrentMode() int
	IsConnected() bool
	Properties() map[string]PropertyValue
	PropertiesMetadata() map[string]PropertyMetadata
}

// Device is a read-only view of a camera/sensor entity.
type Device interface {
	Serial() string
	Name() string
	Model() string
	HardwareVersion() string
	SoftwareVersion() string
	StationSerial() string
	Channel() int
	Enabled() bool
	BatteryLevel() int
	Capabilities() CapabilitySet
	Properties() map[string]PropertyValue
	PropertiesMetadata() map[string]PropertyMetadata
}

// EventQuery is a time-ranged historical query. Zero Start/End fall back
// to the backend defaults (now minus ~15 years through now), applied by
// the caller before the query reaches the driver.
type EventQuery struct {
	Start      time.Time
	End        time.Time
	Filter     string
	MaxResults int
}

// EventRecord is one archived event row returned by historical queries.
// The gateway treats it as opaque and serializes it as-is.
type EventRecord struct {
	Serial    string         `json:"serialNumber"`
	Kind      string         `json:"kind"`
	Timestamp int64          `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}
