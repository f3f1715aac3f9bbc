package driver

// EventKind discriminates the events on the driver stream.
type EventKind int

const (
	// Driver-level events
	EventDriverConnected EventKind = iota
	EventDriverDisconnected
	EventPushConnected
	EventPushDisconnected
	EventVerifyCodeRequest
	EventCaptchaRequest

	// Station lifecycle and state
	EventStationAdded
	EventStationRemoved
	EventStationConnected
	EventStationDisconnected
	EventGuardModeChanged
	EventCurrentModeChanged
	EventStationAlarm
	EventStationPropertyChanged
	EventCommandResult
	EventRTSPURL

	// Device lifecycle and state
	EventDeviceAdded
	EventDeviceRemoved
	EventDevicePropertyChanged

	// Detection events, gated by device capability
	EventMotionDetected
	EventPersonDetected
	EventCryingDetected
	EventSoundDetected
	EventPetDetected
	EventRings
	EventSensorOpen

	// Media events
	EventLivestreamStarted
	EventLivestreamStopped
	EventLivestreamVideoData
	EventLivestreamAudioData
	EventDownloadStarted
	EventDownloadFinished
	EventDownloadVideoData
	EventDownloadAudioData
	EventRTSPLivestreamStarted
	EventRTSPLivestreamStopped
)

// Event is one occurrence on the driver stream. Only the fields relevant
// to the Kind are populated; Serial identifies the emitting entity
// (station serial for station events, device serial for device and media
// events) unless noted otherwise.
type Event struct {
	Kind   EventKind
	Serial string

	// Entity payloads for added/removed events.
	Station Station
	Device  Device

	// StationSerial and Channel attribute station-scoped events (command
	// results, RTSP URLs) to a device.
	StationSerial string
	Channel       int

	// Property changes
	Name      string
	Value     any
	Timestamp int64

	// Detection events
	State  bool
	Person string

	// Mode and alarm changes
	Mode       int
	AlarmEvent int

	// 2FA / captcha
	CaptchaID string
	Captcha   string

	// Command results
	OpCode     OpCode
	ReturnCode int

	// Media payloads
	Chunk []byte
	Media *StreamMetadata

	// RTSP
	URL string
}
