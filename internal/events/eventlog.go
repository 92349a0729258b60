// Package events provides the append-only log of simulation events.
// Subsystems and the network hub consume it; an optional persister writes
// events through to durable storage.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeTick            EventType = "TICK"
	EventTypeEventFired      EventType = "EVENT_FIRED"
	EventTypeRandomEvent     EventType = "RANDOM_EVENT"
	EventTypeChoiceApplied   EventType = "CHOICE_APPLIED"
	EventTypeBrandBought     EventType = "BRAND_BOUGHT"
	EventTypeBrandSold       EventType = "BRAND_SOLD"
	EventTypeMachineBuilt    EventType = "MACHINE_BUILT"
	EventTypeMachineUpgraded EventType = "MACHINE_UPGRADED"
	EventTypeAchievement     EventType = "ACHIEVEMENT"
	EventTypeSessionLogin    EventType = "SESSION_LOGIN"
	EventTypeSessionLogout   EventType = "SESSION_LOGOUT"
	EventTypeSessionSaved    EventType = "SESSION_SAVED"
	EventTypeSessionLoaded   EventType = "SESSION_LOADED"
)

// TickPayload summarizes one monthly advance.
type TickPayload struct {
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	ProducedUnits int64    `json:"produced_units"`
	Profit        int64    `json:"profit"`
	BonusProfit   int64    `json:"bonus_profit"`
	FiredEvents   []string `json:"fired_events,omitempty"`
}

// EventFiredPayload announces a historical event becoming due.
type EventFiredPayload struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	BrandID     string   `json:"brand_id"`
	MachineID   string   `json:"machine_id"`
	ChoiceIDs   []string `json:"choice_ids,omitempty"`
}

// RandomEventPayload describes an applied random event.
type RandomEventPayload struct {
	Title          string  `json:"title"`
	BrandID        string  `json:"brand_id"`
	MachineID      string  `json:"machine_id"`
	ProductionMult float64 `json:"production_mult"`
	ReliabilityHit int     `json:"reliability_hit"`
}

// ChoiceAppliedPayload records a resolved event choice.
type ChoiceAppliedPayload struct {
	EventTitle string `json:"event_title"`
	ChoiceID   string `json:"choice_id"`
	BrandID    string `json:"brand_id"`
	MachineID  string `json:"machine_id"`
}

// TradePayload covers brand buy/sell operations.
type TradePayload struct {
	BrandID string `json:"brand_id"`
	Price   int64  `json:"price"`
}

// BuildPayload records a production order.
type BuildPayload struct {
	BrandID   string `json:"brand_id"`
	MachineID string `json:"machine_id"`
	Quantity  int    `json:"quantity"`
}

// UpgradePayload records a machine upgrade.
type UpgradePayload struct {
	BrandID     string `json:"brand_id"`
	MachineID   string `json:"machine_id"`
	Cost        int64  `json:"cost"`
	Reliability int    `json:"reliability"`
	Popularity  int    `json:"popularity"`
}

// AchievementPayload announces an unlocked achievement.
type AchievementPayload struct {
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
}

// GameEvent is an immutable record of something that happened in the
// simulation.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of simulation events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister Persister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister Persister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		// Write through to persistent storage off the hot path.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// Replay returns the full event history in append order.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of appended events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GetBySession returns all events recorded for a session id.
func (el *EventLog) GetBySession(sessionID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
