// Package engine - accrual.go
// The continuous production loop. Once per interval, every owned producing
// machine adds its per-second rate to the lifetime-produced counter. This
// stream is independent of the monthly aggregate; the two are additive and
// never reconciled.
package engine

import (
	"context"
	"time"

	"github.com/trg-labs/retro-factory/server/internal/domain/rules"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

// StartAccrual runs the continuous production loop until the context is
// cancelled. Call in a goroutine.
func (s *Simulation) StartAccrual(ctx context.Context, interval time.Duration) {
	s.logger.Info("continuous production loop started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("continuous production loop stopped")
			return
		case <-ticker.C:
			s.AccrueSecond()
		}
	}
}

// AccrueSecond applies one interval's worth of continuous production.
// Exported so tests and the loop share the same code path.
func (s *Simulation) AccrueSecond() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accrued int64
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
			accrued += int64(rules.PerSecondRate(eff))
		}
	}

	if accrued > 0 {
		s.state.TotalUnitsProduced += accrued
		metrics.Get().RecordAccrual(accrued)
	}
}
