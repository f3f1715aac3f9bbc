package dispatch

import (
	"context"

	"sechub/pkg/clients"
	"sechub/pkg/driver"
	"sechub/pkg/errors"
	"sechub/pkg/protocol"
)

type devicePropertiesResult struct {
	SerialNumber string                          `json:"serialNumber"`
	Properties   map[string]driver.PropertyValue `json:"properties"`
}

type livestreamingResult struct {
	SerialNumber  string `json:"serialNumber"`
	Livestreaming bool   `json:"livestreaming"`
}

func (d *Dispatcher) handleDevice(ctx context.Context, c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	var args serialArgs
	if err := msg.Bind(&args); err != nil || args.SerialNumber == "" {
		return nil, errors.Codef(errors.CodeInvalidArguments, "serialNumber is required")
	}

	drv := d.registry.Driver()

	switch msg.Command {
	case protocol.CmdDeviceGetProperties:
		dev, err := drv.Device(args.SerialNumber)
		if err != nil {
			return nil, driverErr(err)
		}
		return devicePropertiesResult{
			SerialNumber: args.SerialNumber,
			Properties:   dev.Properties(),
		}, nil

	case protocol.CmdDeviceGetPropertiesMetadata:
		if err := requireSchema(c, 3); err != nil {
			return nil, err
		}
		dev, err := drv.Device(args.SerialNumber)
		if err != nil {
			return nil, driverErr(err)
		}
		return propertiesMetadataResult{
			SerialNumber: args.SerialNumber,
			Properties:   dev.PropertiesMetadata(),
		}, nil

	case protocol.CmdDeviceSetProperty:
		var propArgs struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		}
		if err := msg.Bind(&propArgs); err != nil || propArgs.Name == "" || propArgs.Value == nil {
			return nil, errors.Codef(errors.CodeInvalidArguments, "name and value are required")
		}
		if err := drv.SetDeviceProperty(ctx, args.SerialNumber, propArgs.Name, propArgs.Value); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDeviceEnableDevice:
		value, err := bindBoolValue(msg)
		if err != nil {
			return nil, err
		}
		if err := drv.SetDeviceProperty(ctx, args.SerialNumber, "enabled", value); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDeviceSetStatusLed:
		value, err := bindBoolValue(msg)
		if err != nil {
			return nil, err
		}
		if err := drv.SetDeviceProperty(ctx, args.SerialNumber, "statusLed", value); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDeviceStartLivestream:
		if err := requireSchema(c, protocol.LivestreamMinSchema); err != nil {
			return nil, err
		}
		if err := drv.StartLivestream(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		// Starting the stream is the per-device opt-in for media chunks.
		c.SetReceiveLivestream(args.SerialNumber, true)
		return struct{}{}, nil

	case protocol.CmdDeviceStopLivestream:
		if err := requireSchema(c, protocol.LivestreamMinSchema); err != nil {
			return nil, err
		}
		if err := drv.StopLivestream(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDeviceIsLivestreaming:
		if err := requireSchema(c, protocol.LivestreamMinSchema); err != nil {
			return nil, err
		}
		return livestreamingResult{
			SerialNumber:  args.SerialNumber,
			Livestreaming: drv.IsLivestreaming(args.SerialNumber),
		}, nil

	case protocol.CmdDeviceStartDownload:
		if err := requireSchema(c, protocol.DownloadMinSchema); err != nil {
			return nil, err
		}
		var dlArgs struct {
			Path     string `json:"path"`
			CipherID int    `json:"cipherId"`
		}
		if err := msg.Bind(&dlArgs); err != nil || dlArgs.Path == "" {
			return nil, errors.Codef(errors.CodeInvalidArguments, "path is required")
		}
		if err := drv.StartDownload(ctx, args.SerialNumber, dlArgs.Path, dlArgs.CipherID); err != nil {
			return nil, driverErr(err)
		}
		c.SetReceiveLivestream(args.SerialNumber, true)
		return struct{}{}, nil

	case protocol.CmdDeviceCancelDownload:
		if err := requireSchema(c, protocol.DownloadMinSchema); err != nil {
			return nil, err
		}
		if err := drv.CancelDownload(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDeviceSetLivestreamEvents:
		var subArgs struct {
			Receive *bool `json:"receive"`
		}
		if err := msg.Bind(&subArgs); err != nil || subArgs.Receive == nil {
			return nil, errors.Codef(errors.CodeInvalidArguments, "receive is required")
		}
		// Verify the device exists before mutating subscription state.
		if _, err := drv.Device(args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		c.SetReceiveLivestream(args.SerialNumber, *subArgs.Receive)
		return struct{}{}, nil

	default:
		return nil, errors.Codef(errors.CodeUnknownCommand, "unknown command: %s", msg.Command)
	}
}

func bindBoolValue(msg *protocol.CommandMessage) (bool, error) {
	var args struct {
		Value *bool `json:"value"`
	}
	if err := msg.Bind(&args); err != nil || args.Value == nil {
		return false, errors.Codef(errors.CodeInvalidArguments, "value is required")
	}
	return *args.Value, nil
}
