package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoaderReadsCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brands.json", `[{"id":"mits"}]`)
	writeFile(t, dir, "mits.json", `{
		"id": "mits",
		"name": "MITS",
		"year": 1969,
		"machines": [{
			"id": "altair_8800",
			"name": "Altair 8800",
			"year": 1975,
			"stats": {"cost": 250, "profit": 147, "reliability": 85, "popularity": 70, "production": 1000},
			"events": [{"title": "Altair Launch", "date": "1975-01", "description": "cover story"}]
		}]
	}`)

	store, err := NewLoader(dir, logger.NewNop()).Load()
	require.NoError(t, err)

	require.Len(t, store.Brands(), 1)
	b, ok := store.Brand("mits")
	require.True(t, ok)
	assert.Equal(t, "MITS", b.Name)

	m, ok := b.Machine("altair_8800")
	require.True(t, ok)
	assert.Equal(t, 147, m.Stats.Profit)
	require.Len(t, m.Events, 1)
	assert.Equal(t, "1975-01", m.Events[0].Date)
}

func TestLoaderSkipsMalformedBrand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brands.json", `[{"id":"mits"},{"id":"broken"},{"id":"missing"}]`)
	writeFile(t, dir, "mits.json", `{"id":"mits","name":"MITS","machines":[]}`)
	writeFile(t, dir, "broken.json", `{not json`)

	store, err := NewLoader(dir, logger.NewNop()).Load()
	require.NoError(t, err)

	assert.Len(t, store.Brands(), 1)
	_, ok := store.Brand("broken")
	assert.False(t, ok)
}

func TestLoaderRejectsDuplicateEventTitles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brands.json", `[{"id":"a"},{"id":"b"}]`)
	event := `{"title": "Launch", "date": "1975-01", "description": "x"}`
	writeFile(t, dir, "a.json", `{"id":"a","name":"A","machines":[{"id":"m1","name":"M1","stats":{},"events":[`+event+`]}]}`)
	writeFile(t, dir, "b.json", `{"id":"b","name":"B","machines":[{"id":"m2","name":"M2","stats":{},"events":[`+event+`]}]}`)

	_, err := NewLoader(dir, logger.NewNop()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate event title")
}

func TestLoaderMissingIndex(t *testing.T) {
	_, err := NewLoader(t.TempDir(), logger.NewNop()).Load()
	require.Error(t, err)
}

func TestBrandMachineLookupByName(t *testing.T) {
	b := &Brand{
		ID: "mits",
		Machines: []*Machine{
			{ID: "altair_8800", Name: "Altair 8800"},
		},
	}

	m, ok := b.Machine("Altair_8800")
	require.True(t, ok)
	assert.Equal(t, "altair_8800", m.ID)

	_, ok = b.Machine("imsai_8080")
	assert.False(t, ok)
}
