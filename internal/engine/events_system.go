// Package engine - events_system.go
// The event engine scans the catalog for date-matching historical events,
// rolls random events, and resolves player choices.
//
// Events fire at most once per session: CheckDueAt inserts the yielded
// titles into the activated set as it walks, so idempotence holds by
// construction rather than by caller discipline.
package engine

import (
	"math"

	"github.com/trg-labs/retro-factory/server/internal/catalog"
	"github.com/trg-labs/retro-factory/server/internal/domain/player"
	"github.com/trg-labs/retro-factory/server/internal/domain/rules"
	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
)

// FiredEvent is a historical event that just became due.
type FiredEvent struct {
	BrandID   string                   `json:"brand_id"`
	MachineID string                   `json:"machine_id"`
	Event     *catalog.HistoricalEvent `json:"event"`
}

// RandomEvent describes an applied random event.
type RandomEvent struct {
	Title          string  `json:"title"`
	BrandID        string  `json:"brand_id"`
	MachineID      string  `json:"machine_id"`
	ProductionMult float64 `json:"production_mult"`
	ReliabilityHit int     `json:"reliability_hit"`
}

// AppliedChoice is the outcome of resolving an event choice.
type AppliedChoice struct {
	EventTitle  string `json:"event_title"`
	ChoiceID    string `json:"choice_id"`
	Description string `json:"description"`
	BrandID     string `json:"brand_id"`
	MachineID   string `json:"machine_id"`
}

// dueEvent tracks an event in the Due phase of its
// Dormant -> Due -> Resolved lifecycle.
type dueEvent struct {
	brand   *catalog.Brand
	machine *catalog.Machine
	event   *catalog.HistoricalEvent
	date    string // the tick date the event fired on
}

// EventEngine owns event matching, activation bookkeeping, and choice
// resolution. Not safe for concurrent use; the Simulation serializes access.
type EventEngine struct {
	catalog *catalog.Store
	tuning  Tuning
	logger  *logger.Logger
	due     map[string]*dueEvent // title -> due (unresolved) event
}

// NewEventEngine creates the event engine over a loaded catalog.
func NewEventEngine(store *catalog.Store, tuning Tuning, log *logger.Logger) *EventEngine {
	return &EventEngine{
		catalog: store,
		tuning:  tuning,
		logger:  log,
		due:     make(map[string]*dueEvent),
	}
}

// CheckDueAt fires every catalog event whose trigger date equals date and
// whose title has not yet activated this session. Fired titles enter the
// activated set immediately; a second call with the same date yields nothing
// further.
func (ee *EventEngine) CheckDueAt(st *player.GameState, date string) []FiredEvent {
	var fired []FiredEvent
	ee.catalog.EachEvent(func(b *catalog.Brand, m *catalog.Machine, ev *catalog.HistoricalEvent) {
		if ev.Date != date || st.ActivatedEvents[ev.Title] {
			return
		}
		st.ActivatedEvents[ev.Title] = true
		ee.due[ev.Title] = &dueEvent{brand: b, machine: m, event: ev, date: date}
		fired = append(fired, FiredEvent{BrandID: b.ID, MachineID: m.ID, Event: ev})
		ee.logger.Event("EVENT_FIRED", st.SessionID, ev.Title+" ("+ev.Date+")")
	})
	return fired
}

// Expire resolves, without effects, every due event whose fire date is not
// date. Once the clock moves past an event its choices are permanently
// inapplicable.
func (ee *EventEngine) Expire(date string) {
	for title, d := range ee.due {
		if d.date != date {
			delete(ee.due, title)
		}
	}
}

// Pending returns the currently due events, i.e. those whose choice window
// is still open.
func (ee *EventEngine) Pending() []FiredEvent {
	var out []FiredEvent
	ee.catalog.EachEvent(func(b *catalog.Brand, m *catalog.Machine, ev *catalog.HistoricalEvent) {
		if d, ok := ee.due[ev.Title]; ok && d.event == ev {
			out = append(out, FiredEvent{BrandID: b.ID, MachineID: m.ID, Event: ev})
		}
	})
	return out
}

// ApplyChoice resolves a due event with the given choice. The production
// effect overwrites the machine's commanded quantity; the profit effect
// overwrites the machine's per-unit profit. Resolving removes the event from
// the due set, so a second application fails with ErrUnknownChoice.
func (ee *EventEngine) ApplyChoice(st *player.GameState, eventTitle, choiceID string) (*AppliedChoice, error) {
	d, ok := ee.due[eventTitle]
	if !ok {
		return nil, ErrUnknownChoice
	}

	var choice *catalog.Choice
	for i := range d.event.Choices {
		if d.event.Choices[i].ID == choiceID {
			choice = &d.event.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, ErrUnknownChoice
	}

	if choice.Effects != nil {
		if choice.Effects.Production != nil {
			entry := st.EnsureEntry(d.brand.ID, d.machine.ID)
			entry.Quantity = *choice.Effects.Production
		}
		if choice.Effects.Profit != nil {
			d.machine.Stats.Profit = *choice.Effects.Profit
		}
	}

	delete(ee.due, eventTitle)
	ee.logger.Event("CHOICE_APPLIED", st.SessionID, eventTitle+" choice "+choiceID)

	return &AppliedChoice{
		EventTitle:  eventTitle,
		ChoiceID:    choiceID,
		Description: choice.Description,
		BrandID:     d.brand.ID,
		MachineID:   d.machine.ID,
	}, nil
}

// Reset drops all due events. Called when a different session is restored;
// the activated set travels with the game state, the due window does not.
func (ee *EventEngine) Reset() {
	ee.due = make(map[string]*dueEvent)
}

// RollRandomEvent applies, with the tuned probability, a production
// breakdown to one randomly selected owned producing machine: commanded
// quantity scaled down and reliability reduced. Returns nil when the roll
// misses or nothing is producing.
func (ee *EventEngine) RollRandomEvent(st *player.GameState, rng Rand) *RandomEvent {
	if rng.Float64() >= ee.tuning.RandomEventChance {
		return nil
	}

	type target struct {
		brand   *catalog.Brand
		machine *catalog.Machine
		entry   *player.LedgerEntry
	}
	var targets []target
	for _, brandID := range st.OwnedBrandIDs() {
		b, ok := ee.catalog.Brand(brandID)
		if !ok {
			continue
		}
		for _, m := range b.Machines {
			if e := st.Entry(b.ID, m.ID); e != nil && e.Quantity > 0 {
				targets = append(targets, target{brand: b, machine: m, entry: e})
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	t := targets[rng.Intn(len(targets))]
	t.entry.Quantity = int(math.Floor(float64(t.entry.Quantity) * ee.tuning.RandomEventProductionMult))
	t.machine.Stats.Reliability = rules.ClampPercent(t.machine.Stats.Reliability - ee.tuning.RandomEventReliabilityHit)

	ev := &RandomEvent{
		Title:          "Production breakdown",
		BrandID:        t.brand.ID,
		MachineID:      t.machine.ID,
		ProductionMult: ee.tuning.RandomEventProductionMult,
		ReliabilityHit: ee.tuning.RandomEventReliabilityHit,
	}
	ee.logger.Event("RANDOM_EVENT", st.SessionID, ev.Title+" on "+ev.BrandID+"/"+ev.MachineID)
	return ev
}
