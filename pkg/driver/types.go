package driver

// PropertyValue is one timestamped entity property.
type PropertyValue struct {
	Value     any   `json:"value"`
	Timestamp int64 `json:"timestamp"`
}

// PropertyMetadata describes a property's type and writability.
type PropertyMetadata struct {
	Type     string `json:"type"` // boolean | number | string
	Writable bool   `json:"writeable"`
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// StreamMetadata describes the codec parameters of a media stream.
type StreamMetadata struct {
	VideoCodec  string
	VideoFPS    int
	VideoHeight int
	VideoWidth  int
	AudioCodec  string
}

// StationChannel is the channel number stations report for their own
// command results, distinguishing them from per-device channels.
const StationChannel = 255

// OpCode identifies a driver-internal operation in command-result events.
// The code space is owned by the driver; the gateway maps a known subset
// to public command names and deliberately drops the rest.
type OpCode int

const (
	OpUnknown OpCode = iota

	// Station operations
	OpHubReboot
	OpSetArming
	OpSetToneFile

	// Device operations
	OpDeviceSwitch
	OpDoorLockPassThrough
	OpAntiTheftSwitch
	OpIRCutSwitch
	OpPIRSwitch
	OpIndoorMotionDetectEnable
	OpMotionDetectionPackage
	OpIndoorPetEnable
	OpNASSwitch
	OpIndoorSoundDetectEnable
	OpDeviceLEDSwitch
	OpIndoorLEDSwitch
	OpDoorbellLEDEnable
	OpLEDNightOpen
	OpSetOSD
	OpIndoorRotate
	OpDeviceToneFile
	OpDownloadVideo
	OpDownloadCancel
	OpStartRealtimeMedia
	OpStartLivestreamParam
	OpStopRealtimeMedia
	OpDoorbellQuickResponse
)

// Return codes carried by command-result events.
const (
	ReturnCodeSuccess = 0
)

var returnCodeNames = map[int]string{
	0:  "ERROR_PPCS_SUCCESSFUL",
	-1: "ERROR_GENERIC",
	-2: "ERROR_NOT_CONNECTED",
	-3: "ERROR_COMMAND_TIMEOUT",
	-4: "ERROR_INVALID_PARAM",
	-5: "ERROR_DEVICE_BUSY",
	-6: "ERROR_DEVICE_OFFLINE",
	-7: "ERROR_NOT_SUPPORTED",
}

// ReturnCodeName resolves a numeric return code to its textual name,
// "UNKNOWN" when the code has no known name.
func ReturnCodeName(code int) string {
	if name, ok := returnCodeNames[code]; ok {
		return name
	}
	return "UNKNOWN"
}
