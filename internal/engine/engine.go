// Package engine - engine.go
// The Simulation orchestrator.
//
// ARCHITECTURAL RULE: all mutation of the game state goes through the
// Simulation's public operations, each of which holds the single mutex for
// its whole duration. The accrual timer and player commands therefore never
// race on a ledger entry.
package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trg-labs/retro-factory/server/internal/catalog"
	"github.com/trg-labs/retro-factory/server/internal/domain/player"
	"github.com/trg-labs/retro-factory/server/internal/domain/rules"
	"github.com/trg-labs/retro-factory/server/internal/events"
	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
)

// Simulation is the authoritative owner of one game session. All public
// operations are safe for concurrent use.
type Simulation struct {
	mu      sync.Mutex
	catalog *catalog.Store
	state   *player.GameState
	engine  *EventEngine
	tuning  Tuning
	rng     Rand
	logger  *logger.Logger
	log     *events.EventLog
}

// NewSimulation wires a fresh simulation over a loaded catalog. The event
// log may be nil in tests.
func NewSimulation(store *catalog.Store, tuning Tuning, rng Rand, log *logger.Logger, eventLog *events.EventLog) *Simulation {
	return &Simulation{
		catalog: store,
		state:   player.NewGameState("guest", tuning.StartingCapital),
		engine:  NewEventEngine(store, tuning, log),
		tuning:  tuning,
		rng:     rng,
		logger:  log,
		log:     eventLog,
	}
}

// record appends to the simulation event log if one is attached.
func (s *Simulation) record(t events.EventType, payload interface{}) {
	if s.log == nil {
		return
	}
	s.log.Append(events.GameEvent{
		Type:      t,
		SessionID: s.state.SessionID,
		Year:      s.state.Year,
		Month:     s.state.Month,
		Payload:   payload,
	})
}

// SessionID returns the active session identifier.
func (s *Simulation) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// SetSessionID switches the active session identifier (login/logout). The
// running game state is otherwise untouched.
func (s *Simulation) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionID = id
}

// Snapshot returns a deep copy of the game state, with the current catalog
// machine stats captured so upgrades and choice effects survive save/load.
func (s *Simulation) Snapshot() (*player.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.MachineStats = make(map[string]player.MachineStats)
	for _, b := range s.catalog.Brands() {
		for _, m := range b.Machines {
			s.state.MachineStats[b.ID+"/"+m.ID] = player.MachineStats{
				Cost:        m.Stats.Cost,
				Profit:      m.Stats.Profit,
				Reliability: m.Stats.Reliability,
				Popularity:  m.Stats.Popularity,
				Production:  m.Stats.Production,
			}
		}
	}

	raw, err := json.Marshal(s.state)
	if err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	var copied player.GameState
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	return &copied, nil
}

// Restore replaces the running game state with a saved one and writes its
// captured machine stats back onto the catalog. Due-event windows do not
// survive a restore; the activated set does.
func (s *Simulation) Restore(st *player.GameState) error {
	if st == nil {
		return fmt.Errorf("restore: nil state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st.OwnedBrands == nil {
		st.OwnedBrands = make(map[string]bool)
	}
	if st.Production == nil {
		st.Production = make(map[string]map[string]*player.LedgerEntry)
	}
	if st.ActivatedEvents == nil {
		st.ActivatedEvents = make(map[string]bool)
	}

	for key, ms := range st.MachineStats {
		for _, b := range s.catalog.Brands() {
			for _, m := range b.Machines {
				if b.ID+"/"+m.ID != key {
					continue
				}
				m.Stats.Cost = ms.Cost
				m.Stats.Profit = ms.Profit
				m.Stats.Reliability = rules.ClampPercent(ms.Reliability)
				m.Stats.Popularity = rules.ClampPercent(ms.Popularity)
				m.Stats.Production = ms.Production
			}
		}
	}

	s.state = st
	s.engine.Reset()
	return nil
}

// MachineProduction is one producing machine in a brand detail view.
type MachineProduction struct {
	MachineID string `json:"machine_id"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	Quantity  int    `json:"quantity"`
	Stats     catalog.Stats `json:"stats"`
}

// BrandListing is one row of the brand list.
type BrandListing struct {
	BrandID string `json:"brand_id"`
	Name    string `json:"name"`
	Year    int    `json:"year"`
	Owned   bool   `json:"owned"`
	Price   int64  `json:"price"`
}

// BrandDetail is the full view of one brand for the info command.
type BrandDetail struct {
	BrandID     string              `json:"brand_id"`
	Name        string              `json:"name"`
	Year        int                 `json:"year"`
	Description string              `json:"description"`
	Owned       bool                `json:"owned"`
	Machines    []MachineProduction `json:"machines"`
}

// ListBrands returns every catalog brand with its ownership flag.
func (s *Simulation) ListBrands() []BrandListing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BrandListing, 0, len(s.catalog.Brands()))
	for _, b := range s.catalog.Brands() {
		out = append(out, BrandListing{
			BrandID: b.ID,
			Name:    b.Name,
			Year:    b.Year,
			Owned:   s.state.Owns(b.ID),
			Price:   s.tuning.BrandPrice,
		})
	}
	return out
}

// DescribeBrand returns the detail view for one brand.
func (s *Simulation) DescribeBrand(brandID string) (*BrandDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.catalog.Brand(brandID)
	if !ok {
		return nil, ErrBrandNotFound
	}

	detail := &BrandDetail{
		BrandID:     b.ID,
		Name:        b.Name,
		Year:        b.Year,
		Description: b.Description,
		Owned:       s.state.Owns(b.ID),
	}
	for _, m := range b.Machines {
		quantity := 0
		if e := s.state.Entry(b.ID, m.ID); e != nil {
			quantity = e.Quantity
		}
		detail.Machines = append(detail.Machines, MachineProduction{
			MachineID: m.ID,
			Name:      m.Name,
			Year:      m.Year,
			Quantity:  quantity,
			Stats:     m.Stats,
		})
	}
	return detail, nil
}

// Summary is the stats view of the running session.
type Summary struct {
	SessionID          string              `json:"session_id"`
	Year               int                 `json:"year"`
	Month              int                 `json:"month"`
	Capital            int64               `json:"capital"`
	OwnedBrands        int                 `json:"owned_brands"`
	MaxBrands          int                 `json:"max_brands"`
	TotalUnitsProduced int64               `json:"total_units_produced"`
	MachinesProducing  int                 `json:"machines_producing"`
	MonthlyUnits       int64               `json:"monthly_units"`
	MonthlyProfit      int64               `json:"monthly_profit"`
	AvgReliability     int                 `json:"avg_reliability"`
	AvgPopularity      int                 `json:"avg_popularity"`
	Achievements       []player.Achievement `json:"achievements"`
}

// Summarize computes the stats view: current date, capital, and the
// estimated monthly output of everything currently producing.
func (s *Simulation) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		SessionID:          s.state.SessionID,
		Year:               s.state.Year,
		Month:              s.state.Month,
		Capital:            s.state.Capital,
		OwnedBrands:        len(s.state.OwnedBrands),
		MaxBrands:          s.tuning.MaxOwnedBrands,
		TotalUnitsProduced: s.state.TotalUnitsProduced,
	}

	var reliabilitySum, popularitySum int
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
			sum.MachinesProducing++
			sum.MonthlyUnits += int64(eff)
			sum.MonthlyProfit += rules.MonthlyProfit(eff, m.Stats.Profit)
			reliabilitySum += m.Stats.Reliability
			popularitySum += m.Stats.Popularity
		}
	}
	if sum.MachinesProducing > 0 {
		sum.AvgReliability = reliabilitySum / sum.MachinesProducing
		sum.AvgPopularity = popularitySum / sum.MachinesProducing
	}

	for _, id := range []string{player.AchievementFirstBrand, player.AchievementMillionaire} {
		if a, ok := s.state.Achievements[id]; ok {
			sum.Achievements = append(sum.Achievements, *a)
		}
	}
	return sum
}

// DueEvents runs the due-event check at the live date and returns every
// event whose choice window is currently open, newly fired ones included.
func (s *Simulation) DueEvents() []FiredEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	fired := s.engine.CheckDueAt(s.state, s.state.Date())
	for _, f := range fired {
		s.recordFired(f)
	}
	return s.engine.Pending()
}

// ApplyChoice resolves a currently due event with one of its choices.
func (s *Simulation) ApplyChoice(eventTitle, choiceID string) (*AppliedChoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied, err := s.engine.ApplyChoice(s.state, eventTitle, choiceID)
	if err != nil {
		return nil, err
	}
	s.record(events.EventTypeChoiceApplied, events.ChoiceAppliedPayload{
		EventTitle: applied.EventTitle,
		ChoiceID:   applied.ChoiceID,
		BrandID:    applied.BrandID,
		MachineID:  applied.MachineID,
	})
	return applied, nil
}

func (s *Simulation) recordFired(f FiredEvent) {
	choiceIDs := make([]string, 0, len(f.Event.Choices))
	for _, c := range f.Event.Choices {
		choiceIDs = append(choiceIDs, c.ID)
	}
	s.record(events.EventTypeEventFired, events.EventFiredPayload{
		Title:       f.Event.Title,
		Date:        f.Event.Date,
		Description: f.Event.Description,
		BrandID:     f.BrandID,
		MachineID:   f.MachineID,
		ChoiceIDs:   choiceIDs,
	})
}

// checkAchievements unlocks any newly earned achievements. Caller holds the
// lock.
func (s *Simulation) checkAchievements() {
	if len(s.state.OwnedBrands) > 0 && s.state.Unlock(player.AchievementFirstBrand) {
		s.announceAchievement(player.AchievementFirstBrand)
	}
	if s.state.Capital >= s.tuning.MillionaireThreshold && s.state.Unlock(player.AchievementMillionaire) {
		s.announceAchievement(player.AchievementMillionaire)
	}
}

func (s *Simulation) announceAchievement(id string) {
	a := s.state.Achievements[id]
	s.logger.Event("ACHIEVEMENT", s.state.SessionID, a.Name)
	s.record(events.EventTypeAchievement, events.AchievementPayload{
		AchievementID: a.ID,
		Name:          a.Name,
	})
}
