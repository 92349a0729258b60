package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning carries the economy constants of the simulation. Defaults match
// the shipped game balance; a YAML file can override them for playtesting.
type Tuning struct {
	StartingCapital int64 `yaml:"starting_capital"`

	BrandPrice     int64 `yaml:"brand_price"`
	BrandSellPrice int64 `yaml:"brand_sell_price"`
	MaxOwnedBrands int   `yaml:"max_owned_brands"`

	UpgradeCost  int64 `yaml:"upgrade_cost"`
	UpgradeDelta int   `yaml:"upgrade_delta"`

	BonusChance float64 `yaml:"bonus_chance"`
	BonusRate   float64 `yaml:"bonus_rate"`

	RandomEventChance         float64 `yaml:"random_event_chance"`
	RandomEventProductionMult float64 `yaml:"random_event_production_mult"`
	RandomEventReliabilityHit int     `yaml:"random_event_reliability_hit"`

	MillionaireThreshold int64 `yaml:"millionaire_threshold"`
}

// DefaultTuning returns the stock game balance.
func DefaultTuning() Tuning {
	return Tuning{
		StartingCapital: 1_000_000,

		BrandPrice:     500_000,
		BrandSellPrice: 300_000,
		MaxOwnedBrands: 5,

		UpgradeCost:  10_000,
		UpgradeDelta: 5,

		BonusChance: 0.20,
		BonusRate:   0.20,

		RandomEventChance:         0.10,
		RandomEventProductionMult: 0.80,
		RandomEventReliabilityHit: 10,

		MillionaireThreshold: 1_000_000,
	}
}

// LoadTuning reads overrides from a YAML file on top of the defaults. An
// empty path returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	return t, nil
}
