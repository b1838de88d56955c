// Package prefs persists user preferences, such as starred series, as JSON in
// the pitlane config directory.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const fileName = "preferences.json"

var ErrNotFound = errors.New("preferences not found")

// Preferences is the persisted user state.
type Preferences struct {
	Starred []string `json:"starred"`
}

// Store reads and writes preferences in one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the preferences file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Save writes p with owner-only permissions, replacing any previous file.
func (s *Store) Save(p *Preferences) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out := Preferences{Starred: slices.Clone(p.Starred)}
	slices.Sort(out.Starred)
	out.Starred = slices.Compact(out.Starred)
	if out.Starred == nil {
		out.Starred = []string{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path())
}

// Load reads the stored preferences. It returns ErrNotFound when none were saved.
func (s *Store) Load() (*Preferences, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return &p, nil
}

// LoadOrEmpty is Load with ErrNotFound mapped to empty preferences.
func (s *Store) LoadOrEmpty() (*Preferences, error) {
	p, err := s.Load()
	if errors.Is(err, ErrNotFound) {
		return &Preferences{}, nil
	}
	return p, err
}
