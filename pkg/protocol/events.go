package protocol

// Driver event names
const (
	EventDriverConnected        = "connected"
	EventDriverDisconnected     = "disconnected"
	EventDriverPushConnected    = "push connected"
	EventDriverPushDisconnected = "push disconnected"
	EventDriverVerifyCode       = "verify code"
	EventDriverCaptchaRequest   = "captcha request"
)

// Station event names
const (
	EventStationAdded           = "station added"
	EventStationRemoved         = "station removed"
	EventStationConnected       = "connected"
	EventStationDisconnected    = "disconnected"
	EventStationGuardModeChanged   = "guard mode changed"
	EventStationCurrentModeChanged = "current mode changed"
	EventStationAlarmEvent      = "alarm event"
	EventStationCommandResult   = "command result"
	EventStationPropertyChanged = "property changed"
)

// Device event names
const (
	EventDeviceAdded           = "device added"
	EventDeviceRemoved         = "device removed"
	EventDevicePropertyChanged = "property changed"
	EventDeviceCommandResult   = "command result"
	EventDeviceGotRTSPURL      = "got rtsp url"

	EventDeviceMotionDetected = "motion detected"
	EventDevicePersonDetected = "person detected"
	EventDeviceCryingDetected = "crying detected"
	EventDeviceSoundDetected  = "sound detected"
	EventDevicePetDetected    = "pet detected"
	EventDeviceRings          = "rings"
	EventDeviceSensorOpen     = "sensor open"

	EventDeviceLivestreamStarted   = "livestream started"
	EventDeviceLivestreamStopped   = "livestream stopped"
	EventDeviceLivestreamVideoData = "livestream video data"
	EventDeviceLivestreamAudioData = "livestream audio data"

	EventDeviceDownloadStarted   = "download started"
	EventDeviceDownloadFinished  = "download finished"
	EventDeviceDownloadVideoData = "download video data"
	EventDeviceDownloadAudioData = "download audio data"

	EventDeviceRTSPLivestreamStarted = "rtsp livestream started"
	EventDeviceRTSPLivestreamStopped = "rtsp livestream stopped"
)

// Minimum schema versions for media event categories. Live chunks ship
// since schema 2, download chunks since 3, RTSP notifications since 6.
const (
	LivestreamMinSchema = 2
	DownloadMinSchema   = 3
	RTSPMinSchema       = 6
)
