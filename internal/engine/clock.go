// Package engine - clock.go
// The monthly tick: aggregate production and profit, bonus roll, capital
// update, event firing.
package engine

import (
	"time"

	"github.com/trg-labs/retro-factory/server/internal/domain/rules"
	"github.com/trg-labs/retro-factory/server/internal/events"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

// TickSummary reports the outcome of one monthly advance. Year and Month
// are the post-advance date.
type TickSummary struct {
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	ProducedUnits int64        `json:"produced_units"`
	Profit        int64        `json:"profit"`
	BonusProfit   int64        `json:"bonus_profit"`
	FiredEvents   []FiredEvent `json:"fired_events,omitempty"`
	RandomEvent   *RandomEvent `json:"random_event,omitempty"`
}

// Advance runs one monthly tick: the choice windows of past events close,
// the clock moves one month, production of every owned producing machine is
// aggregated into profit (plus the occasional bonus), capital is updated,
// and events due for the closing month fire.
//
// The due-event check runs against the tick's starting date: an event dated
// 1975-01 fires on the tick that closes January 1975.
func (s *Simulation) Advance() TickSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	tickDate := s.state.Date()
	s.engine.Expire(tickDate)
	s.state.AdvanceMonth()

	summary := TickSummary{Year: s.state.Year, Month: s.state.Month}

	for _, brandID := range s.state.OwnedBrandIDs() {
		b, ok := s.catalog.Brand(brandID)
		if !ok {
			continue
		}
		for _, m := range b.Machines {
			e := s.state.Entry(b.ID, m.ID)
			if e == nil || e.Quantity <= 0 {
				continue
			}
			eff := rules.EffectiveOutput(e.Quantity, m.Stats.Reliability, m.Stats.Popularity)
			summary.ProducedUnits += int64(eff)
			summary.Profit += rules.MonthlyProfit(eff, m.Stats.Profit)
		}
	}

	if s.rng.Float64() < s.tuning.BonusChance {
		summary.BonusProfit = int64(float64(summary.Profit) * s.tuning.BonusRate)
		summary.Profit += summary.BonusProfit
	}

	s.state.Capital += summary.Profit

	summary.FiredEvents = s.engine.CheckDueAt(s.state, tickDate)
	for _, f := range summary.FiredEvents {
		s.recordFired(f)
	}

	if ev := s.engine.RollRandomEvent(s.state, s.rng); ev != nil {
		summary.RandomEvent = ev
		s.record(events.EventTypeRandomEvent, events.RandomEventPayload{
			Title:          ev.Title,
			BrandID:        ev.BrandID,
			MachineID:      ev.MachineID,
			ProductionMult: ev.ProductionMult,
			ReliabilityHit: ev.ReliabilityHit,
		})
	}

	s.checkAchievements()

	titles := make([]string, 0, len(summary.FiredEvents))
	for _, f := range summary.FiredEvents {
		titles = append(titles, f.Event.Title)
	}
	s.record(events.EventTypeTick, events.TickPayload{
		Year:          summary.Year,
		Month:         summary.Month,
		ProducedUnits: summary.ProducedUnits,
		Profit:        summary.Profit,
		BonusProfit:   summary.BonusProfit,
		FiredEvents:   titles,
	})

	metrics.Get().RecordTick(time.Since(start))
	return summary
}
