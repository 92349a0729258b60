// Package engine - ownership.go
// Buy/Sell/Build/Upgrade: the operations that mutate the ownership set and
// the production ledger. Every operation validates all preconditions before
// touching state, so failures leave nothing half-applied.
package engine

import (
	"github.com/trg-labs/retro-factory/server/internal/domain/player"
	"github.com/trg-labs/retro-factory/server/internal/domain/rules"
	"github.com/trg-labs/retro-factory/server/internal/events"
)

// Buy debits the fixed brand price and adds the brand to the owned set.
func (s *Simulation) Buy(brandID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Brand(brandID); !ok {
		return ErrBrandNotFound
	}
	if s.state.Owns(brandID) {
		return ErrAlreadyOwned
	}
	if len(s.state.OwnedBrands) >= s.tuning.MaxOwnedBrands {
		return ErrBrandCap
	}
	if s.state.Capital < s.tuning.BrandPrice {
		return ErrInsufficientFunds
	}

	s.state.Capital -= s.tuning.BrandPrice
	s.state.AddBrand(brandID)
	s.logger.Event("BRAND_BOUGHT", s.state.SessionID, brandID)
	s.record(events.EventTypeBrandBought, events.TradePayload{BrandID: brandID, Price: s.tuning.BrandPrice})

	if s.state.Unlock(player.AchievementFirstBrand) {
		s.announceAchievement(player.AchievementFirstBrand)
	}
	return nil
}

// Sell credits the fixed sell price, removes the brand from the owned set,
// and zeroes every one of its ledger entries.
func (s *Simulation) Sell(brandID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Brand(brandID); !ok {
		return ErrBrandNotFound
	}
	if !s.state.Owns(brandID) {
		return ErrNotOwned
	}

	s.state.Capital += s.tuning.BrandSellPrice
	s.state.RemoveBrand(brandID)
	s.state.ZeroBrandProduction(brandID)
	s.logger.Event("BRAND_SOLD", s.state.SessionID, brandID)
	s.record(events.EventTypeBrandSold, events.TradePayload{BrandID: brandID, Price: s.tuning.BrandSellPrice})
	return nil
}

// Build increments the commanded production quantity of a machine.
func (s *Simulation) Build(brandID, machineID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	b, ok := s.catalog.Brand(brandID)
	if !ok {
		return ErrBrandNotFound
	}
	if !s.state.Owns(brandID) {
		return ErrNotOwned
	}
	m, ok := b.Machine(machineID)
	if !ok {
		return ErrMachineNotFound
	}

	entry := s.state.EnsureEntry(b.ID, m.ID)
	entry.Quantity += quantity
	s.logger.Event("MACHINE_BUILT", s.state.SessionID, b.ID+"/"+m.ID)
	s.record(events.EventTypeMachineBuilt, events.BuildPayload{
		BrandID:   b.ID,
		MachineID: m.ID,
		Quantity:  quantity,
	})
	return nil
}

// Upgrade debits the fixed upgrade cost and raises the machine's
// reliability and popularity, clamped to 100.
func (s *Simulation) Upgrade(brandID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.catalog.Brand(brandID)
	if !ok {
		return ErrBrandNotFound
	}
	if !s.state.Owns(brandID) {
		return ErrNotOwned
	}
	m, ok := b.Machine(machineID)
	if !ok {
		return ErrMachineNotFound
	}
	if s.state.Capital < s.tuning.UpgradeCost {
		return ErrInsufficientFunds
	}

	s.state.Capital -= s.tuning.UpgradeCost
	m.Stats.Reliability = rules.ClampPercent(m.Stats.Reliability + s.tuning.UpgradeDelta)
	m.Stats.Popularity = rules.ClampPercent(m.Stats.Popularity + s.tuning.UpgradeDelta)

	entry := s.state.EnsureEntry(b.ID, m.ID)
	entry.Upgrades = append(entry.Upgrades, player.UpgradeRecord{
		Type: "general",
		Cost: s.tuning.UpgradeCost,
		Date: s.state.Date(),
	})

	s.logger.Event("MACHINE_UPGRADED", s.state.SessionID, b.ID+"/"+m.ID)
	s.record(events.EventTypeMachineUpgraded, events.UpgradePayload{
		BrandID:     b.ID,
		MachineID:   m.ID,
		Cost:        s.tuning.UpgradeCost,
		Reliability: m.Stats.Reliability,
		Popularity:  m.Stats.Popularity,
	})
	return nil
}
