package dispatch

import (
	"context"
	"time"

	"sechub/pkg/clients"
	"sechub/pkg/driver"
	"sechub/pkg/errors"
	"sechub/pkg/protocol"
)

// Historical queries default to a window reaching this far back when the
// client supplies no start timestamp.
const historyLookback = 15 * 365 * 24 * time.Hour

// Minimum schema version for the event-history queries.
const historyMinSchema = 3

type connectedResult struct {
	Connected bool `json:"connected"`
}

type boolResult struct {
	Result bool `json:"result"`
}

type eventsResult struct {
	Events []driver.EventRecord `json:"events"`
}

func (d *Dispatcher) handleDriver(ctx context.Context, c *clients.Client, msg *protocol.CommandMessage) (any, error) {
	drv := d.registry.Driver()

	switch msg.Command {
	case protocol.CmdDriverConnect:
		connected, err := drv.Connect(ctx)
		if err != nil {
			return nil, driverErr(err)
		}
		return connectedResult{Connected: connected}, nil

	case protocol.CmdDriverDisconnect:
		drv.Disconnect()
		return struct{}{}, nil

	case protocol.CmdDriverIsConnected, protocol.CmdDriverIsConnectedLegacy:
		return connectedResult{Connected: drv.IsConnected()}, nil

	case protocol.CmdDriverIsPushConnected, protocol.CmdDriverIsPushConnectedLegacy:
		return connectedResult{Connected: drv.IsPushConnected()}, nil

	case protocol.CmdDriverPollRefresh:
		if err := drv.PollRefresh(ctx); err != nil {
			return nil, driverErr(err)
		}
		return struct{}{}, nil

	case protocol.CmdDriverSetVerifyCode:
		var args struct {
			VerifyCode string `json:"verifyCode"`
		}
		if err := msg.Bind(&args); err != nil || args.VerifyCode == "" {
			return nil, errors.Codef(errors.CodeInvalidArguments, "verifyCode is required")
		}
		ok, err := drv.VerifyCode(ctx, args.VerifyCode)
		if err != nil {
			return nil, driverErr(err)
		}
		return boolResult{Result: ok}, nil

	case protocol.CmdDriverSetCaptcha:
		return d.handleSetCaptcha(ctx, msg)

	case protocol.CmdDriverGetVideoEvents:
		return d.handleHistoryQuery(ctx, c, msg, drv.VideoEvents)

	case protocol.CmdDriverGetAlarmEvents:
		return d.handleHistoryQuery(ctx, c, msg, drv.AlarmEvents)

	case protocol.CmdDriverGetHistoryEvents:
		return d.handleHistoryQuery(ctx, c, msg, drv.HistoryEvents)

	default:
		return nil, errors.Codef(errors.CodeUnknownCommand, "unknown command: %s", msg.Command)
	}
}

// handleSetCaptcha completes a captcha challenge. When the client omits
// the challenge id, the most recently observed server-side id is
// substituted and the slot cleared; with no id at hand the command
// resolves to false without touching the driver.
func (d *Dispatcher) handleSetCaptcha(ctx context.Context, msg *protocol.CommandMessage) (any, error) {
	var args struct {
		Captcha   string `json:"captcha"`
		CaptchaID string `json:"captchaId"`
	}
	if err := msg.Bind(&args); err != nil || args.Captcha == "" {
		return nil, errors.Codef(errors.CodeInvalidArguments, "captcha is required")
	}

	captchaID := args.CaptchaID
	if captchaID == "" {
		captchaID, _ = d.captcha.Take()
	} else {
		// An explicit id consumes the outstanding challenge too.
		d.captcha.Take()
	}
	if captchaID == "" {
		return boolResult{Result: false}, nil
	}

	ok, err := d.registry.Driver().SolveCaptcha(ctx, args.Captcha, captchaID)
	if err != nil {
		return nil, driverErr(err)
	}
	return boolResult{Result: ok}, nil
}

type historyArgs struct {
	StartTimestampMs *int64 `json:"startTimestampMs"`
	EndTimestampMs   *int64 `json:"endTimestampMs"`
	Filter           string `json:"filter"`
	MaxResults       int    `json:"maxResults"`
}

func (d *Dispatcher) handleHistoryQuery(ctx context.Context, c *clients.Client, msg *protocol.CommandMessage,
	query func(context.Context, driver.EventQuery) ([]driver.EventRecord, error)) (any, error) {

	if err := requireSchema(c, historyMinSchema); err != nil {
		return nil, err
	}

	var args historyArgs
	if err := msg.Bind(&args); err != nil {
		return nil, errors.Codef(errors.CodeInvalidArguments, "malformed query arguments: %v", err)
	}

	q := driver.EventQuery{
		Start:      time.Now().Add(-historyLookback),
		End:        time.Now(),
		Filter:     args.Filter,
		MaxResults: args.MaxResults,
	}
	if args.StartTimestampMs != nil {
		q.Start = time.UnixMilli(*args.StartTimestampMs)
	}
	if args.EndTimestampMs != nil {
		q.End = time.UnixMilli(*args.EndTimestampMs)
	}

	events, err := query(ctx, q)
	if err != nil {
		return nil, driverErr(err)
	}
	if events == nil {
		events = []driver.EventRecord{}
	}
	return eventsResult{Events: events}, nil
}
