package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/driver/sim"
	"sechub/pkg/protocol"
)

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry(sim.New())
	c := NewClient("c1", 8)
	r.Add(c)

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, r.Count())

	r.Remove("c1")
	_, err = r.Get("c1")
	assert.Error(t, err)
}

func TestBroadcastSkipsDisconnectedAndFiltered(t *testing.T) {
	r := NewRegistry(sim.New())
	listening := NewClient("c1", 8)
	gone := NewClient("c2", 8)
	optedOut := NewClient("c3", 8)
	r.Add(listening)
	r.Add(gone)
	r.Add(optedOut)

	gone.MarkDisconnected()
	optedOut.SetReceiveEvents(false)

	r.Broadcast(protocol.NewEvent(protocol.SourceDriver, "connected"), func(c *Client) bool {
		return c.ReceiveEvents()
	})

	select {
	case <-listening.Outbound():
	default:
		t.Fatal("listening client should have received the event")
	}

	select {
	case data, ok := <-optedOut.Outbound():
		if ok {
			t.Fatalf("opted-out client received %s", data)
		}
	default:
	}
}

func TestSweepRemovesDisconnected(t *testing.T) {
	r := NewRegistry(sim.New())
	live := NewClient("c1", 8)
	dead := NewClient("c2", 8)
	r.Add(live)
	r.Add(dead)
	dead.MarkDisconnected()

	removed := r.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Count())
	_, err := r.Get("c1")
	assert.NoError(t, err)
}
