package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameStateStartsAtEpoch(t *testing.T) {
	st := NewGameState("guest", 1_000_000)

	assert.Equal(t, 1970, st.Year)
	assert.Equal(t, 1, st.Month)
	assert.Equal(t, int64(1_000_000), st.Capital)
	assert.Equal(t, "1970-01", st.Date())
	assert.Empty(t, st.OwnedBrands)
}

func TestAdvanceMonthRollsOverYear(t *testing.T) {
	st := NewGameState("guest", 0)
	st.Year, st.Month = 1975, 12

	st.AdvanceMonth()

	assert.Equal(t, 1976, st.Year)
	assert.Equal(t, 1, st.Month)
	assert.Equal(t, "1976-01", st.Date())
}

func TestOwnedBrandIDsSorted(t *testing.T) {
	st := NewGameState("guest", 0)
	st.AddBrand("mits")
	st.AddBrand("apple")
	st.AddBrand("ibm")

	assert.Equal(t, []string{"apple", "ibm", "mits"}, st.OwnedBrandIDs())

	st.RemoveBrand("ibm")
	assert.Equal(t, []string{"apple", "mits"}, st.OwnedBrandIDs())
	assert.False(t, st.Owns("ibm"))
}

func TestEnsureEntryCreatesOnce(t *testing.T) {
	st := NewGameState("guest", 0)

	require.Nil(t, st.Entry("mits", "altair_8800"))

	e := st.EnsureEntry("mits", "altair_8800")
	e.Quantity = 1000

	same := st.EnsureEntry("mits", "altair_8800")
	assert.Same(t, e, same)
	assert.Equal(t, 1000, st.Entry("mits", "altair_8800").Quantity)
}

func TestZeroBrandProductionKeepsUpgrades(t *testing.T) {
	st := NewGameState("guest", 0)
	e := st.EnsureEntry("mits", "altair_8800")
	e.Quantity = 1000
	e.Upgrades = append(e.Upgrades, UpgradeRecord{Type: "general", Cost: 10_000, Date: "1970-01"})

	st.ZeroBrandProduction("mits")

	assert.Equal(t, 0, st.Entry("mits", "altair_8800").Quantity)
	assert.Len(t, st.Entry("mits", "altair_8800").Upgrades, 1)
}

func TestUnlockIsOneWay(t *testing.T) {
	st := NewGameState("guest", 0)

	assert.True(t, st.Unlock(AchievementFirstBrand))
	assert.False(t, st.Unlock(AchievementFirstBrand))
	assert.False(t, st.Unlock("no_such_achievement"))
	assert.True(t, st.Achievements[AchievementFirstBrand].Unlocked)
}
