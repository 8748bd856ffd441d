// Package kb is the knowledge base behind fact checks: a flat mapping
// of dotted keys (e.g. "go.version") to values, refreshed by `certo kb
// update` and read-only at check time.
package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FactsFileName is the store file inside the .certo directory.
const FactsFileName = "facts.json"

type factsFile struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Facts     map[string]string `json:"facts"`
}

// Store is a read-only snapshot of the knowledge base.
type Store struct {
	facts     map[string]string
	updatedAt time.Time
}

// Load reads the fact store from the given .certo directory. A missing
// store is not an error; every lookup simply misses.
func Load(specDir string) (*Store, error) {
	path := filepath.Join(specDir, FactsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{facts: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("read fact store: %w", err)
	}

	var file factsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fact store: %w", err)
	}
	if file.Facts == nil {
		file.Facts = map[string]string{}
	}

	return &Store{facts: file.Facts, updatedAt: file.UpdatedAt}, nil
}

// Lookup returns the value for a dotted key.
func (s *Store) Lookup(key string) (string, bool) {
	v, ok := s.facts[key]
	return v, ok
}

// Keys returns all known keys, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of facts.
func (s *Store) Len() int { return len(s.facts) }

// UpdatedAt returns when the store was last refreshed.
func (s *Store) UpdatedAt() time.Time { return s.updatedAt }

// save writes a snapshot to the .certo directory.
func save(specDir string, facts map[string]string) error {
	file := factsFile{
		UpdatedAt: time.Now().UTC(),
		Facts:     facts,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fact store: %w", err)
	}

	if err := os.MkdirAll(specDir, 0o755); err != nil {
		return fmt.Errorf("create spec dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(specDir, FactsFileName), data, 0o644); err != nil {
		return fmt.Errorf("write fact store: %w", err)
	}
	return nil
}
