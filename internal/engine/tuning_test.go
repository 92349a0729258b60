package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuning(t *testing.T) {
	tuning := DefaultTuning()

	assert.Equal(t, int64(1_000_000), tuning.StartingCapital)
	assert.Equal(t, int64(500_000), tuning.BrandPrice)
	assert.Equal(t, int64(300_000), tuning.BrandSellPrice)
	assert.Equal(t, 5, tuning.MaxOwnedBrands)
	assert.Equal(t, int64(10_000), tuning.UpgradeCost)
	assert.Equal(t, 0.10, tuning.RandomEventChance)
}

func TestLoadTuningEmptyPath(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tuning)
}

func TestLoadTuningOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"brand_price: 250000\nmax_owned_brands: 3\nbonus_chance: 0.5\n",
	), 0o644))

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, int64(250_000), tuning.BrandPrice)
	assert.Equal(t, 3, tuning.MaxOwnedBrands)
	assert.Equal(t, 0.5, tuning.BonusChance)
	// Untouched keys keep their defaults.
	assert.Equal(t, int64(300_000), tuning.BrandSellPrice)
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadTuningMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := LoadTuning(path)
	assert.Error(t, err)
}
