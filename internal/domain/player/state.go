// Package player defines the aggregate game state for one player session.
// This package is PURE and must NOT import any infrastructure packages
// (network, events, platform).
package player

import (
	"fmt"
	"sort"
)

// Achievement ids.
const (
	AchievementFirstBrand  = "first_brand"
	AchievementMillionaire = "millionaire"
)

// Achievement is a one-way progress flag.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// UpgradeRecord is one applied machine upgrade.
type UpgradeRecord struct {
	Type string `json:"type"`
	Cost int64  `json:"cost"`
	Date string `json:"date"` // "YYYY-MM"
}

// LedgerEntry is the mutable per-machine production record.
type LedgerEntry struct {
	Quantity int             `json:"quantity"` // commanded units/month, >= 0
	Upgrades []UpgradeRecord `json:"upgrades,omitempty"`
}

// MachineStats mirrors catalog stats for snapshot purposes, so saves can
// carry runtime stat mutations without the domain importing the catalog.
type MachineStats struct {
	Cost        int `json:"cost"`
	Profit      int `json:"profit"`
	Reliability int `json:"reliability"`
	Popularity  int `json:"popularity"`
	Production  int `json:"production"`
}

// GameState is the aggregate root of one simulation session.
type GameState struct {
	SessionID string `json:"session_id"`

	Year  int `json:"year"`  // >= 1970
	Month int `json:"month"` // 1-12

	Capital int64 `json:"capital"`

	OwnedBrands     map[string]bool                    `json:"owned_brands"`
	Production      map[string]map[string]*LedgerEntry `json:"production"` // brand -> machine -> entry
	ActivatedEvents map[string]bool                    `json:"activated_events"`

	TotalUnitsProduced int64 `json:"total_units_produced"`

	Achievements map[string]*Achievement `json:"achievements"`

	// MachineStats captures the catalog stats at snapshot time, keyed
	// "brandID/machineID", so upgrades and choice effects survive save/load.
	MachineStats map[string]MachineStats `json:"machine_stats,omitempty"`
}

// NewGameState creates a fresh session starting in January 1970 with the
// default capital.
func NewGameState(sessionID string, startingCapital int64) *GameState {
	return &GameState{
		SessionID:       sessionID,
		Year:            1970,
		Month:           1,
		Capital:         startingCapital,
		OwnedBrands:     make(map[string]bool),
		Production:      make(map[string]map[string]*LedgerEntry),
		ActivatedEvents: make(map[string]bool),
		Achievements: map[string]*Achievement{
			AchievementFirstBrand: {
				ID:          AchievementFirstBrand,
				Name:        "First Steps",
				Description: "Buy your first brand",
			},
			AchievementMillionaire: {
				ID:          AchievementMillionaire,
				Name:        "Millionaire",
				Description: "Reach one million dollars",
			},
		},
	}
}

// Date renders the current date as "YYYY-MM", the event trigger key format.
func (s *GameState) Date() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}

// AdvanceMonth moves the clock forward one month, rolling over the year.
func (s *GameState) AdvanceMonth() {
	s.Month++
	if s.Month > 12 {
		s.Month = 1
		s.Year++
	}
}

// Owns reports whether the brand is in the owned set.
func (s *GameState) Owns(brandID string) bool {
	return s.OwnedBrands[brandID]
}

// AddBrand inserts a brand into the owned set.
func (s *GameState) AddBrand(brandID string) {
	s.OwnedBrands[brandID] = true
}

// RemoveBrand deletes a brand from the owned set.
func (s *GameState) RemoveBrand(brandID string) {
	delete(s.OwnedBrands, brandID)
}

// OwnedBrandIDs returns the owned brands in stable (sorted) order.
func (s *GameState) OwnedBrandIDs() []string {
	ids := make([]string, 0, len(s.OwnedBrands))
	for id := range s.OwnedBrands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entry returns the ledger entry for a machine, or nil if none exists yet.
func (s *GameState) Entry(brandID, machineID string) *LedgerEntry {
	if byMachine, ok := s.Production[brandID]; ok {
		return byMachine[machineID]
	}
	return nil
}

// EnsureEntry returns the ledger entry for a machine, creating it with
// quantity 0 if needed.
func (s *GameState) EnsureEntry(brandID, machineID string) *LedgerEntry {
	byMachine, ok := s.Production[brandID]
	if !ok {
		byMachine = make(map[string]*LedgerEntry)
		s.Production[brandID] = byMachine
	}
	entry, ok := byMachine[machineID]
	if !ok {
		entry = &LedgerEntry{}
		byMachine[machineID] = entry
	}
	return entry
}

// ZeroBrandProduction resets every ledger entry under a brand to quantity 0.
// Upgrade history is kept.
func (s *GameState) ZeroBrandProduction(brandID string) {
	for _, entry := range s.Production[brandID] {
		entry.Quantity = 0
	}
}

// Unlock marks an achievement as earned. Returns true on the first unlock.
func (s *GameState) Unlock(achievementID string) bool {
	a, ok := s.Achievements[achievementID]
	if !ok || a.Unlocked {
		return false
	}
	a.Unlocked = true
	return true
}
