// Package sim provides an in-memory driver backend. It serves two roles:
// a development stand-in for the real device stack so the gateway can run
// without hardware, and the fixture the test suites script events against.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sechub/pkg/driver"
	"sechub/pkg/errors"
)

const simVersion = "sim-1.4.0"

// Driver is a simulated driver.Driver with deterministic entities.
type Driver struct {
	mu            sync.RWMutex
	connected     bool
	pushConnected bool
	stations      map[string]*Station
	devices       map[string]*Device
	stationOrder  []string
	deviceOrder   []string
	streaming     map[string]bool
	downloading   map[string]bool
	records       []driver.EventRecord
	events        chan driver.Event
	closeOnce     sync.Once
}

// Option configures the simulated driver.
type Option func(*Driver)

// WithStation seeds a station.
func WithStation(st *Station) Option {
	return func(d *Driver) { d.addStation(st) }
}

// WithDevice seeds a device.
func WithDevice(dev *Device) Option {
	return func(d *Driver) { d.addDevice(dev) }
}

// WithRecords seeds the historical event archive.
func WithRecords(records ...driver.EventRecord) Option {
	return func(d *Driver) { d.records = append(d.records, records...) }
}

// New creates an empty simulated driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		stations:    make(map[string]*Station),
		devices:     make(map[string]*Device),
		streaming:   make(map[string]bool),
		downloading: make(map[string]bool),
		events:      make(chan driver.Event, 256),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewPopulated creates a simulated driver seeded with numbered stations
// and devices, used by the binary's sim mode.
func NewPopulated(stations, devicesPerStation int) *Driver {
	d := New()
	for s := 0; s < stations; s++ {
		stationSerial := fmt.Sprintf("T8010P%04d", s)
		d.addStation(NewStation(stationSerial, fmt.Sprintf("Station %d", s+1)))
		for c := 0; c < devicesPerStation; c++ {
			serial := fmt.Sprintf("T8113%04d%02d", s, c)
			dev := NewDevice(serial, fmt.Sprintf("Camera %d-%d", s+1, c+1), stationSerial, c,
				driver.CapCamera)
			d.addDevice(dev)
		}
	}
	return d
}

func (d *Driver) addStation(st *Station) {
	if _, ok := d.stations[st.serial]; ok {
		return
	}
	d.stations[st.serial] = st
	d.stationOrder = append(d.stationOrder, st.serial)
}

func (d *Driver) addDevice(dev *Device) {
	if _, ok := d.devices[dev.serial]; ok {
		return
	}
	d.devices[dev.serial] = dev
	d.deviceOrder = append(d.deviceOrder, dev.serial)
}

// Emit injects an event onto the stream. Exposed so tests and scripted
// scenarios can drive the forwarder directly.
func (d *Driver) Emit(ev driver.Event) {
	d.events <- ev
}

// Close closes the event stream.
func (d *Driver) Close() {
	d.closeOnce.Do(func() { close(d.events) })
}

// Version implements driver.Driver.
func (d *Driver) Version() string { return simVersion }

// Connect implements driver.Driver.
func (d *Driver) Connect(ctx context.Context) (bool, error) {
	d.mu.Lock()
	d.connected = true
	d.pushConnected = true
	d.mu.Unlock()
	d.Emit(driver.Event{Kind: driver.EventDriverConnected})
	d.Emit(driver.Event{Kind: driver.EventPushConnected})
	return true, nil
}

// VerifyCode implements driver.Driver. Any six-digit code passes.
func (d *Driver) VerifyCode(ctx context.Context, code string) (bool, error) {
	if len(code) != 6 {
		return false, fmt.Errorf("verify code rejected")
	}
	return d.Connect(ctx)
}

// SolveCaptcha implements driver.Driver.
func (d *Driver) SolveCaptcha(ctx context.Context, captcha, captchaID string) (bool, error) {
	if captchaID == "" {
		return false, fmt.Errorf("captcha id required")
	}
	return d.Connect(ctx)
}

// Disconnect implements driver.Driver.
func (d *Driver) Disconnect() {
	d.mu.Lock()
	wasConnected := d.connected
	d.connected = false
	d.pushConnected = false
	d.mu.Unlock()
	if wasConnected {
		d.Emit(driver.Event{Kind: driver.EventDriverDisconnected})
		d.Emit(driver.Event{Kind: driver.EventPushDisconnected})
	}
}

// IsConnected implements driver.Driver.
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// IsPushConnected implements driver.Driver.
func (d *Driver) IsPushConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pushConnected
}

// PollRefresh implements driver.Driver.
func (d *Driver) PollRefresh(ctx context.Context) error {
	if !d.IsConnected() {
		return errors.Codef(errors.CodeDriverError, "not connected")
	}
	return nil
}

// Stations implements driver.Driver.
func (d *Driver) Stations() []driver.Station {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]driver.Station, 0, len(d.stationOrder))
	for _, serial := range d.stationOrder {
		out = append(out, d.stations[serial])
	}
	return out
}

// Devices implements driver.Driver.
func (d *Driver) Devices() []driver.Device {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]driver.Device, 0, len(d.deviceOrder))
	for _, serial := range d.deviceOrder {
		out = append(out, d.devices[serial])
	}
	return out
}

// Station implements driver.Driver.
func (d *Driver) Station(serial string) (driver.Station, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.stations[serial]
	if !ok {
		return nil, errors.Codef(errors.CodeStationNotFound, "station %s not found", serial)
	}
	return st, nil
}

// Device implements driver.Driver.
func (d *Driver) Device(serial string) (driver.Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dev, ok := d.devices[serial]
	if !ok {
		return nil, errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	return dev, nil
}

// StationDevice implements driver.Driver.
func (d *Driver) StationDevice(stationSerial string, channel int) (driver.Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, serial := range d.deviceOrder {
		dev := d.devices[serial]
		if dev.stationSerial == stationSerial && dev.channel == channel {
			return dev, nil
		}
	}
	return nil, errors.Codef(errors.CodeDeviceNotFound,
		"no device on station %s channel %d", stationSerial, channel)
}

// RebootStation implements driver.Driver.
func (d *Driver) RebootStation(ctx context.Context, serial string) error {
	if _, err := d.Station(serial); err != nil {
		return err
	}
	d.Emit(driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: serial,
		Channel:       driver.StationChannel,
		OpCode:        driver.OpHubReboot,
		ReturnCode:    driver.ReturnCodeSuccess,
	})
	return nil
}

// SetGuardMode implements driver.Driver.
func (d *Driver) SetGuardMode(ctx context.Context, serial string, mode int) error {
	d.mu.Lock()
	st, ok := d.stations[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeStationNotFound, "station %s not found", serial)
	}
	st.setGuardMode(mode)
	d.mu.Unlock()

	d.Emit(driver.Event{Kind: driver.EventGuardModeChanged, Serial: serial, Mode: mode})
	d.Emit(driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: serial,
		Channel:       driver.StationChannel,
		OpCode:        driver.OpSetArming,
		ReturnCode:    driver.ReturnCodeSuccess,
	})
	return nil
}

// ConnectStation implements driver.Driver.
func (d *Driver) ConnectStation(ctx context.Context, serial string) error {
	d.mu.Lock()
	st, ok := d.stations[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeStationNotFound, "station %s not found", serial)
	}
	st.setConnected(true)
	d.mu.Unlock()
	d.Emit(driver.Event{Kind: driver.EventStationConnected, Serial: serial})
	return nil
}

// DisconnectStation implements driver.Driver.
func (d *Driver) DisconnectStation(ctx context.Context, serial string) error {
	d.mu.Lock()
	st, ok := d.stations[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeStationNotFound, "station %s not found", serial)
	}
	st.setConnected(false)
	d.mu.Unlock()
	d.Emit(driver.Event{Kind: driver.EventStationDisconnected, Serial: serial})
	return nil
}

// TriggerStationAlarm implements driver.Driver.
func (d *Driver) TriggerStationAlarm(ctx context.Context, serial string, seconds int) error {
	if _, err := d.Station(serial); err != nil {
		return err
	}
	if seconds <= 0 {
		return errors.Codef(errors.CodeDriverError, "alarm duration must be positive")
	}
	d.Emit(driver.Event{
		Kind:          driver.EventCommandResult,
		StationSerial: serial,
		Channel:       driver.StationChannel,
		OpCode:        driver.OpSetToneFile,
		ReturnCode:    driver.ReturnCodeSuccess,
	})
	return nil
}

// ResetStationAlarm implements driver.Driver.
func (d *Driver) ResetStationAlarm(ctx context.Context, serial string) error {
	_, err := d.Station(serial)
	return err
}

// SetStationProperty implements driver.Driver.
func (d *Driver) SetStationProperty(ctx context.Context, serial, name string, value any) error {
	d.mu.Lock()
	st, ok := d.stations[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeStationNotFound, "station %s not found", serial)
	}
	ts := time.Now().UnixMilli()
	st.setProperty(name, value, ts)
	d.mu.Unlock()
	d.Emit(driver.Event{
		Kind: driver.EventStationPropertyChanged, Serial: serial,
		Name: name, Value: value, Timestamp: ts,
	})
	return nil
}

// SetDeviceProperty implements driver.Driver.
func (d *Driver) SetDeviceProperty(ctx context.Context, serial, name string, value any) error {
	d.mu.Lock()
	dev, ok := d.devices[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	ts := time.Now().UnixMilli()
	dev.setProperty(name, value, ts)
	d.mu.Unlock()
	d.Emit(driver.Event{
		Kind: driver.EventDevicePropertyChanged, Serial: serial,
		Name: name, Value: value, Timestamp: ts,
	})
	return nil
}

// StartLivestream implements driver.Driver.
func (d *Driver) StartLivestream(ctx context.Context, serial string) error {
	d.mu.Lock()
	dev, ok := d.devices[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	if d.streaming[serial] {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDriverError, "device %s already streaming", serial)
	}
	d.streaming[serial] = true
	d.mu.Unlock()

	d.Emit(driver.Event{
		Kind:          driver.EventLivestreamStarted,
		Serial:        serial,
		StationSerial: dev.stationSerial,
		Media:         defaultStreamMetadata(),
	})
	return nil
}

// StopLivestream implements driver.Driver.
func (d *Driver) StopLivestream(ctx context.Context, serial string) error {
	d.mu.Lock()
	dev, ok := d.devices[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	streaming := d.streaming[serial]
	d.streaming[serial] = false
	d.mu.Unlock()

	if streaming {
		d.Emit(driver.Event{
			Kind:          driver.EventLivestreamStopped,
			Serial:        serial,
			StationSerial: dev.stationSerial,
		})
	}
	return nil
}

// IsLivestreaming implements driver.Driver.
func (d *Driver) IsLivestreaming(serial string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.streaming[serial]
}

// StartDownload implements driver.Driver.
func (d *Driver) StartDownload(ctx context.Context, serial, path string, cipherID int) error {
	d.mu.Lock()
	dev, ok := d.devices[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	d.downloading[serial] = true
	d.mu.Unlock()

	d.Emit(driver.Event{
		Kind:          driver.EventDownloadStarted,
		Serial:        serial,
		StationSerial: dev.stationSerial,
		Media:         defaultStreamMetadata(),
	})
	return nil
}

// CancelDownload implements driver.Driver.
func (d *Driver) CancelDownload(ctx context.Context, serial string) error {
	d.mu.Lock()
	dev, ok := d.devices[serial]
	if !ok {
		d.mu.Unlock()
		return errors.Codef(errors.CodeDeviceNotFound, "device %s not found", serial)
	}
	downloading := d.downloading[serial]
	d.downloading[serial] = false
	d.mu.Unlock()

	if downloading {
		d.Emit(driver.Event{
			Kind:          driver.EventDownloadFinished,
			Serial:        serial,
			StationSerial: dev.stationSerial,
		})
	}
	return nil
}

// VideoEvents implements driver.Driver.
func (d *Driver) VideoEvents(ctx context.Context, q driver.EventQuery) ([]driver.EventRecord, error) {
	return d.queryRecords(q, "video")
}

// AlarmEvents implements driver.Driver.
func (d *Driver) AlarmEvents(ctx context.Context, q driver.EventQuery) ([]driver.EventRecord, error) {
	return d.queryRecords(q, "alarm")
}

// HistoryEvents implements driver.Driver.
func (d *Driver) HistoryEvents(ctx context.Context, q driver.EventQuery) ([]driver.EventRecord, error) {
	return d.queryRecords(q, "")
}

func (d *Driver) queryRecords(q driver.EventQuery, kind string) ([]driver.EventRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]driver.EventRecord, 0, len(d.records))
	for _, rec := range d.records {
		if kind != "" && rec.Kind != kind {
			continue
		}
		ts := time.UnixMilli(rec.Timestamp)
		if !q.Start.IsZero() && ts.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && ts.After(q.End) {
			continue
		}
		out = append(out, rec)
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
	}
	return out, nil
}

// Events implements driver.Driver.
func (d *Driver) Events() <-chan driver.Event {
	return d.events
}

func defaultStreamMetadata() *driver.StreamMetadata {
	return &driver.StreamMetadata{
		VideoCodec:  "H264",
		VideoFPS:    15,
		VideoHeight: 1080,
		VideoWidth:  1920,
		AudioCodec:  "AAC",
	}
}
