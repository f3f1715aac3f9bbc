package forward

import (
	"sechub/pkg/driver"
	"sechub/pkg/protocol"
)

// stationCommands maps driver operation codes reported on the station
// channel to the public commands they resulted from. Codes missing here
// are internal operations and never surface as events.
var stationCommands = map[driver.OpCode]string{
	driver.OpHubReboot:   protocol.CmdStationReboot,
	driver.OpSetArming:   protocol.CmdStationSetGuardMode,
	driver.OpSetToneFile: protocol.CmdStationTriggerAlarm,
}

// deviceCommands maps operation codes on device channels to public
// commands. Several distinct codes collapse onto the same command when
// the operation rides on device.set_property.
var deviceCommands = map[driver.OpCode]string{
	driver.OpDeviceSwitch:             protocol.CmdDeviceEnableDevice,
	driver.OpDoorLockPassThrough:      protocol.CmdDeviceLockDevice,
	driver.OpAntiTheftSwitch:          protocol.CmdDeviceSetAntiTheftDetection,
	driver.OpIRCutSwitch:              protocol.CmdDeviceSetAutoNightVision,
	driver.OpPIRSwitch:                protocol.CmdDeviceSetMotionDetection,
	driver.OpIndoorMotionDetectEnable: protocol.CmdDeviceSetMotionDetection,
	driver.OpMotionDetectionPackage:   protocol.CmdDeviceSetMotionDetection,
	driver.OpIndoorPetEnable:          protocol.CmdDeviceSetPetDetection,
	driver.OpNASSwitch:                protocol.CmdDeviceSetRTSPStream,
	driver.OpIndoorSoundDetectEnable:  protocol.CmdDeviceSetSoundDetection,
	driver.OpDeviceLEDSwitch:          protocol.CmdDeviceSetStatusLed,
	driver.OpIndoorLEDSwitch:          protocol.CmdDeviceSetStatusLed,
	driver.OpDoorbellLEDEnable:        protocol.CmdDeviceSetStatusLed,
	driver.OpLEDNightOpen:             protocol.CmdDeviceSetStatusLed,
	driver.OpSetOSD:                   protocol.CmdDeviceSetWatermark,
	driver.OpIndoorRotate:             protocol.CmdDevicePanAndTilt,
	driver.OpDeviceToneFile:           protocol.CmdDeviceTriggerAlarm,
	driver.OpDownloadVideo:            protocol.CmdDeviceStartDownload,
	driver.OpDownloadCancel:           protocol.CmdDeviceCancelDownload,
	driver.OpStartRealtimeMedia:       protocol.CmdDeviceStartLivestream,
	driver.OpStartLivestreamParam:     protocol.CmdDeviceStartLivestream,
	driver.OpStopRealtimeMedia:        protocol.CmdDeviceStopLivestream,
	driver.OpDoorbellQuickResponse:    protocol.CmdDeviceQuickResponse,
}

func stationCommandName(code driver.OpCode) (string, bool) {
	name, ok := stationCommands[code]
	return name, ok
}

func deviceCommandName(code driver.OpCode) (string, bool) {
	name, ok := deviceCommands[code]
	return name, ok
}
