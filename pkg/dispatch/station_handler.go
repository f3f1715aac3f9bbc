package dispatch

import (
	"context"

	"sechub/pkg/clients"
	"sechub/pkg/driver"
	"sechub/pkg/errors"
	"sechub/pkg/protocol"
)

type serialArgs struct {
	SerialNumber string `json:"serialNumber"`
}

type stationPropertiesResult struct {
	SerialNumber string                          `json:"serialNumber"`
	Properties   map[string]driver.PropertyValue `json:"properties"`
}

type propertiesMetadataResult struct {
	SerialNumber string                             `json:"serialNumber"`
	Properties   map[string]driver.PropertyMetadata `json:"properties"`
}

type stationConnectedResult struct {
	SerialNumber string `json:"serialNumber"`
	Connected    bool   `json:"connected"`
}

func (d *Dispatcher) handleStation(ctx context.Context, c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	var args serialArgs
	if err := msg.Bind(&args); err != nil || args.SerialNumber == "" {
		return nil, errors.Codef(errors.CodeInvalidArguments, "serialNumber is required")
	}

	drv := d.registry.Driver()

	switch msg.Command {
	case protocol.CmdStationReboot:
		if err := drv.RebootStation(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdStationSetGuardMode:
		var modeArgs struct {
			Mode *int `json:"mode"`
		}
		if err := msg.Bind(&modeArgs); err != nil || modeArgs.Mode == nil {
			return nil, errors.Codef(errors.CodeInvalidArguments, "mode is required")
		}
		if err := drv.SetGuardMode(ctx, args.SerialNumber, *modeArgs.Mode); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdStationIsConnected:
		st, err := drv.Station(args.SerialNumber)
		if err != nil {
			return nil, driverErr(err)
		}
		return stationConnectedResult{
			SerialNumber: args.SerialNumber,
			Connected:    st.IsConnected(),
		}, nil

	case protocol.CmdStationConnect:
		if err := drv.ConnectStation(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdStationDisconnect:
		if err := drv.DisconnectStation(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdStationGetProperties:
		st, err := drv.Station(args.SerialNumber)
		if err != nil {
			return nil, driverErr(err)
		}
		return stationPropertiesResult{
			SerialNumber: args.SerialNumber,
			Properties:   st.Properties(),
		}, nil

	case protocol.CmdStationGetPropertiesMetadata:
		if err := requireSchema(c, 3); err != nil {
			return nil, err
		}
		st, err := drv.Station(args.SerialNumber)
		if err != nil {
			return nil, driverErr(err)
		}
		return propertiesMetadataResult{
			SerialNumber: args.SerialNumber,
			Properties:   st.PropertiesMetadata(),
		}, nil

	case protocol.CmdStationTriggerAlarm:
		if err := requireSchema(c, 3); err != nil {
			return nil, err
		}
		var alarmArgs struct {
			Seconds int `json:"seconds"`
		}
		if err := msg.Bind(&alarmArgs); err != nil {
			return nil, errors.Codef(errors.CodeInvalidArguments, "malformed arguments: %v", err)
		}
		if alarmArgs.Seconds <= 0 {
			alarmArgs.Seconds = 30
		}
		if err := drv.TriggerStationAlarm(ctx, args.SerialNumber, alarmArgs.Seconds); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdStationResetAlarm:
		if err := requireSchema(c, 3); err != nil {
			return nil, err
		}
		if err := drv.ResetStationAlarm(ctx, args.SerialNumber); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	default:
		return nil, errors.Codef(errors.CodeUnknownCommand, "unknown command: %s", msg.Command)
	}
}
