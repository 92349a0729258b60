package network

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trg-labs/retro-factory/server/internal/events"
	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, nil, logger.NewNop(), 16, 10)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
		return nil
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := runHub(t)

	c1 := NewClient(hub, nil, 16)
	c2 := NewClient(hub, nil, 16)
	c1.Register()
	c2.Register()

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent(events.GameEvent{ID: "e1", Type: events.EventTypeTick, SessionID: "guest"})

	for _, c := range []*Client{c1, c2} {
		var got events.GameEvent
		require.NoError(t, json.Unmarshal(receive(t, c), &got))
		assert.Equal(t, "e1", got.ID)
		assert.Equal(t, events.EventTypeTick, got.Type)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := runHub(t)

	c := NewClient(hub, nil, 16)
	c.Register()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
}

func TestEventPollerForwardsNewEvents(t *testing.T) {
	hub := runHub(t)
	eventLog := events.NewEventLog(nil)

	c := NewClient(hub, nil, 16)
	c.Register()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.StartEventPoller(ctx, eventLog)

	eventLog.Append(events.GameEvent{ID: "e1", Type: events.EventTypeBrandBought})

	var got events.GameEvent
	require.NoError(t, json.Unmarshal(receive(t, c), &got))
	assert.Equal(t, "e1", got.ID)
}
