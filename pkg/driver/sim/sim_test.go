package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/driver"
)

func drain(t *testing.T, d *Driver, want int) []driver.Event {
	t.Helper()
	out := make([]driver.Event, 0, want)
	for len(out) < want {
		select {
		case ev := <-d.Events():
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("expected %d events, got %d", want, len(out))
		}
	}
	return out
}

func TestNewPopulated(t *testing.T) {
	d := NewPopulated(2, 3)
	assert.Len(t, d.Stations(), 2)
	assert.Len(t, d.Devices(), 6)

	dev, err := d.StationDevice("T8010P0000", 1)
	require.NoError(t, err)
	assert.Equal(t, "T8113000001", dev.Serial())
	assert.Equal(t, "T8010P0000", dev.StationSerial())
}

func TestConnectLifecycle(t *testing.T) {
	d := New()
	ctx := context.Background()

	ok, err := d.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.IsConnected())
	assert.True(t, d.IsPushConnected())

	events := drain(t, d, 2)
	assert.Equal(t, driver.EventDriverConnected, events[0].Kind)
	assert.Equal(t, driver.EventPushConnected, events[1].Kind)

	d.Disconnect()
	assert.False(t, d.IsConnected())
	events = drain(t, d, 2)
	assert.Equal(t, driver.EventDriverDisconnected, events[0].Kind)
}

func TestSetGuardModeEmitsChangeAndResult(t *testing.T) {
	st := NewStation("T8010P0001", "Backyard")
	d := New(WithStation(st))

	require.NoError(t, d.SetGuardMode(context.Background(), "T8010P0001", 2))
	assert.Equal(t, 2, st.GuardMode())
	assert.Equal(t, 2, st.CurrentMode())

	events := drain(t, d, 2)
	assert.Equal(t, driver.EventGuardModeChanged, events[0].Kind)
	assert.Equal(t, 2, events[0].Mode)
	assert.Equal(t, driver.EventCommandResult, events[1].Kind)
	assert.Equal(t, driver.OpSetArming, events[1].OpCode)
	assert.Equal(t, driver.StationChannel, events[1].Channel)
}

func TestLivestreamStartIsExclusive(t *testing.T) {
	dev := NewDevice("T81130001", "Front Door", "T8010P0001", 0, driver.CapCamera)
	d := New(WithStation(NewStation("T8010P0001", "Backyard")), WithDevice(dev))
	ctx := context.Background()

	require.NoError(t, d.StartLivestream(ctx, "T81130001"))
	assert.True(t, d.IsLivestreaming("T81130001"))
	assert.Error(t, d.StartLivestream(ctx, "T81130001"))

	require.NoError(t, d.StopLivestream(ctx, "T81130001"))
	assert.False(t, d.IsLivestreaming("T81130001"))

	events := drain(t, d, 2)
	assert.Equal(t, driver.EventLivestreamStarted, events[0].Kind)
	assert.Equal(t, driver.EventLivestreamStopped, events[1].Kind)
}

func TestQueryRecordsFilters(t *testing.T) {
	now := time.Now()
	d := New(WithRecords(
		driver.EventRecord{Serial: "a", Kind: "video", Timestamp: now.Add(-time.Hour).UnixMilli()},
		driver.EventRecord{Serial: "b", Kind: "alarm", Timestamp: now.Add(-30 * time.Minute).UnixMilli()},
		driver.EventRecord{Serial: "c", Kind: "video", Timestamp: now.Add(-48 * time.Hour).UnixMilli()},
	))
	ctx := context.Background()

	video, err := d.VideoEvents(ctx, driver.EventQuery{Start: now.Add(-24 * time.Hour), End: now})
	require.NoError(t, err)
	require.Len(t, video, 1)
	assert.Equal(t, "a", video[0].Serial)

	all, err := d.HistoryEvents(ctx, driver.EventQuery{Start: now.Add(-72 * time.Hour), End: now})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	capped, err := d.HistoryEvents(ctx, driver.EventQuery{Start: now.Add(-72 * time.Hour), End: now, MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestStationDeviceUnknownChannel(t *testing.T) {
	d := NewPopulated(1, 1)
	_, err := d.StationDevice("T8010P0000", 9)
	assert.Error(t, err)
}
