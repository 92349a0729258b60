package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
)

// indexEntry is one row of brands.json.
type indexEntry struct {
	ID string `json:"id"`
}

// Loader reads the brand index and per-brand documents from a directory.
type Loader struct {
	dir    string
	logger *logger.Logger
}

// NewLoader creates a loader rooted at dir (expects brands.json plus one
// <id>.json document per brand).
func NewLoader(dir string, log *logger.Logger) *Loader {
	return &Loader{dir: dir, logger: log}
}

// Load reads the catalog. Individual brand documents that are missing or
// malformed are skipped with a warning; the engine continues with a partial
// catalog. Duplicate event titles across the catalog fail the whole load,
// since titles are the event idempotence keys.
func (l *Loader) Load() (*Store, error) {
	indexPath := filepath.Join(l.dir, "brands.json")
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read brand index: %w", err)
	}

	var index []indexEntry
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("parse brand index: %w", err)
	}

	var brands []*Brand
	for _, entry := range index {
		brand, err := l.loadBrand(entry.ID)
		if err != nil {
			l.logger.Warn("skipping brand document", "brand", entry.ID, "error", err.Error())
			continue
		}
		brands = append(brands, brand)
	}

	if err := validateEventTitles(brands); err != nil {
		return nil, err
	}

	l.logger.Info("catalog loaded", "brands", len(brands), "indexed", len(index))
	return NewStore(brands), nil
}

func (l *Loader) loadBrand(id string) (*Brand, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, id+".json"))
	if err != nil {
		return nil, err
	}

	var brand Brand
	if err := json.Unmarshal(raw, &brand); err != nil {
		return nil, fmt.Errorf("parse brand %s: %w", id, err)
	}
	if brand.ID == "" {
		brand.ID = id
	}
	return &brand, nil
}

// validateEventTitles rejects catalogs with duplicate event titles. A
// duplicate title would let one event mask the activation of another.
func validateEventTitles(brands []*Brand) error {
	seen := make(map[string]string)
	for _, b := range brands {
		for _, m := range b.Machines {
			for _, ev := range m.Events {
				if prev, dup := seen[ev.Title]; dup {
					return fmt.Errorf("duplicate event title %q (brands %s and %s)", ev.Title, prev, b.ID)
				}
				seen[ev.Title] = b.ID
			}
		}
	}
	return nil
}
