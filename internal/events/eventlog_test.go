package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePersister struct {
	mu     sync.Mutex
	events []GameEvent
}

func (p *capturePersister) Append(event GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePersister) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	log := NewEventLog(nil)

	log.Append(GameEvent{Type: EventTypeTick, SessionID: "guest"})

	events := log.Replay()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestReplayReturnsCopyInOrder(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(GameEvent{ID: "e1", Type: EventTypeTick})
	log.Append(GameEvent{ID: "e2", Type: EventTypeBrandBought})

	events := log.Replay()
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)

	// Mutating the returned slice must not affect the log.
	events[0].ID = "mutated"
	assert.Equal(t, "e1", log.Replay()[0].ID)
}

func TestGetBySessionAndType(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(GameEvent{Type: EventTypeTick, SessionID: "alice"})
	log.Append(GameEvent{Type: EventTypeBrandBought, SessionID: "alice"})
	log.Append(GameEvent{Type: EventTypeTick, SessionID: "bob"})

	assert.Len(t, log.GetBySession("alice"), 2)
	assert.Len(t, log.GetBySession("bob"), 1)
	assert.Len(t, log.GetByType(EventTypeTick), 2)
	assert.Empty(t, log.GetByType(EventTypeBrandSold))
	assert.Equal(t, 3, log.Len())
}

func TestAppendWritesThroughPersister(t *testing.T) {
	persister := &capturePersister{}
	log := NewEventLog(persister)

	log.Append(GameEvent{Type: EventTypeTick, SessionID: "guest"})

	// The write-through is asynchronous.
	require.Eventually(t, func() bool {
		return persister.len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestGenerateEventIDUnique(t *testing.T) {
	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}
