// Package catalog defines the brand/machine database the simulation runs
// against. The structure of the catalog is immutable once loaded; machine
// stats are the only runtime-mutable part (upgrades and event choices).
// This package is PURE and must NOT import any infrastructure packages.
package catalog

import "strings"

// Stats holds the production economics of a machine.
type Stats struct {
	Cost        int `json:"cost"`
	Profit      int `json:"profit"`
	Reliability int `json:"reliability"` // 0-100
	Popularity  int `json:"popularity"`  // 0-100
	Production  int `json:"production"`  // units/month at quantity 1 reference
}

// ChoiceEffects describes the absolute stat overwrites a choice applies.
// Nil fields mean "leave untouched".
type ChoiceEffects struct {
	Production *int `json:"production,omitempty"`
	Profit     *int `json:"profit,omitempty"`
}

// Choice is one strategic option attached to a historical event.
type Choice struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Effects     *ChoiceEffects `json:"effects,omitempty"`
}

// HistoricalEvent is a date-keyed event defined on a machine. The title is
// the idempotence key and must be unique across the whole catalog.
type HistoricalEvent struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"` // "YYYY-MM"
	Description string   `json:"description"`
	Choices     []Choice `json:"choices,omitempty"`
}

// Machine is a product model belonging to a brand.
type Machine struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Description string            `json:"description"`
	Stats       Stats             `json:"stats"`
	Events      []HistoricalEvent `json:"events,omitempty"`
}

// Brand is a company with a catalog of machines.
type Brand struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	Description string     `json:"description"`
	Machines    []*Machine `json:"machines"`
}

// Machine resolves a machine by id, or by display name with underscores
// standing in for spaces (the command surface accepts both forms).
func (b *Brand) Machine(idOrName string) (*Machine, bool) {
	spaced := strings.ReplaceAll(idOrName, "_", " ")
	for _, m := range b.Machines {
		if m.ID == idOrName || strings.EqualFold(m.Name, spaced) {
			return m, true
		}
	}
	return nil, false
}

// Store is the loaded catalog: an ordered brand list plus by-id lookup.
type Store struct {
	brands []*Brand
	byID   map[string]*Brand
}

// NewStore builds a store from loaded brands, preserving index order.
func NewStore(brands []*Brand) *Store {
	s := &Store{
		brands: brands,
		byID:   make(map[string]*Brand, len(brands)),
	}
	for _, b := range brands {
		s.byID[b.ID] = b
	}
	return s
}

// Brands returns every brand in index order.
func (s *Store) Brands() []*Brand {
	return s.brands
}

// Brand looks up a brand by id.
func (s *Store) Brand(id string) (*Brand, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// EachEvent walks every historical event in the catalog in brand order.
func (s *Store) EachEvent(fn func(b *Brand, m *Machine, ev *HistoricalEvent)) {
	for _, b := range s.brands {
		for _, m := range b.Machines {
			for i := range m.Events {
				fn(b, m, &m.Events[i])
			}
		}
	}
}
