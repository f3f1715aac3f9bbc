package protocol

import "strings"

// Connection-level commands, handled before namespace resolution.
const (
	CmdSetAPISchema     = "set_api_schema"
	CmdStartListening   = "start_listening"
	CmdSetReceiveEvents = "set_receive_events"
)

// Command namespaces
const (
	NamespaceDriver  = "driver"
	NamespaceStation = "station"
	NamespaceDevice  = "device"
)

// driver.* commands
const (
	CmdDriverConnect         = "driver.connect"
	CmdDriverDisconnect      = "driver.disconnect"
	CmdDriverIsConnected     = "driver.is_connected"
	CmdDriverIsPushConnected = "driver.is_push_connected"
	CmdDriverPollRefresh     = "driver.poll_refresh"
	CmdDriverSetVerifyCode   = "driver.set_verify_code"
	CmdDriverSetCaptcha      = "driver.set_captcha"
	CmdDriverGetVideoEvents  = "driver.get_video_events"
	CmdDriverGetAlarmEvents  = "driver.get_alarm_events"
	CmdDriverGetHistoryEvents = "driver.get_history_events"

	// Legacy aliases kept for schema 0 clients
	CmdDriverIsConnectedLegacy     = "driver.isConnected"
	CmdDriverIsPushConnectedLegacy = "driver.isPushConnected"
)

// station.* commands
const (
	CmdStationReboot                = "station.reboot"
	CmdStationSetGuardMode          = "station.set_guard_mode"
	CmdStationIsConnected           = "station.is_connected"
	CmdStationConnect               = "station.connect"
	CmdStationDisconnect            = "station.disconnect"
	CmdStationGetProperties         = "station.get_properties"
	CmdStationGetPropertiesMetadata = "station.get_properties_metadata"
	CmdStationTriggerAlarm          = "station.trigger_alarm"
	CmdStationResetAlarm            = "station.reset_alarm"
)

// device.* commands
const (
	CmdDeviceGetProperties         = "device.get_properties"
	CmdDeviceGetPropertiesMetadata = "device.get_properties_metadata"
	CmdDeviceSetProperty           = "device.set_property"
	CmdDeviceEnableDevice          = "device.enable_device"
	CmdDeviceSetStatusLed          = "device.set_status_led"
	CmdDeviceStartLivestream       = "device.start_livestream"
	CmdDeviceStopLivestream        = "device.stop_livestream"
	CmdDeviceIsLivestreaming       = "device.is_livestreaming"
	CmdDeviceStartDownload         = "device.start_download"
	CmdDeviceCancelDownload        = "device.cancel_download"
	CmdDeviceSetLivestreamEvents   = "device.set_livestream_events"

	// Command names that appear only in command-result events; the
	// operations themselves ride on device.set_property.
	CmdDeviceLockDevice             = "device.lock_device"
	CmdDeviceSetAntiTheftDetection  = "device.set_anti_theft_detection"
	CmdDeviceSetAutoNightVision     = "device.set_auto_night_vision"
	CmdDeviceSetMotionDetection     = "device.set_motion_detection"
	CmdDeviceSetPetDetection        = "device.set_pet_detection"
	CmdDeviceSetRTSPStream          = "device.set_rtsp_stream"
	CmdDeviceSetSoundDetection      = "device.set_sound_detection"
	CmdDeviceSetWatermark           = "device.set_watermark"
	CmdDevicePanAndTilt             = "device.pan_and_tilt"
	CmdDeviceTriggerAlarm           = "device.trigger_alarm"
	CmdDeviceQuickResponse          = "device.quick_response"
)

// Namespace splits a command into its namespace and bare name. Commands
// without a dot have an empty namespace.
func Namespace(command string) (namespace, name string) {
	idx := strings.IndexByte(command, '.')
	if idx < 0 {
		return "", command
	}
	return command[:idx], command[idx+1:]
}

// BareName strips the namespace prefix from a command. Command-result
// events carry the bare name on the wire.
func BareName(command string) string {
	_, name := Namespace(command)
	return name
}
