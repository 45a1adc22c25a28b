package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/moneyvault/internal/vault"
)

const recentFile = "recent.json"

// MaxRecent caps the recent accounts list.
const MaxRecent = 10

// RecentAccount is one entry of the recent accounts list.
type RecentAccount struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	LastOpened time.Time `json:"last_opened"`
}

// Store reads and writes the recent accounts list under Dir.
type Store struct {
	Dir string
}

// DefaultStore keeps the list in the user config directory.
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: filepath.Join(dir, "moneyvault")}, nil
}

func (s *Store) path() string { return filepath.Join(s.Dir, recentFile) }

// Recent returns the list, most recent first. A missing file is an empty list.
func (s *Store) Recent() ([]RecentAccount, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []RecentAccount
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Touch moves path to the front of the list, dropping the oldest entries
// beyond MaxRecent.
func (s *Store) Touch(path, name string, at time.Time) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	list, err := s.Recent()
	if err != nil {
		return err
	}
	out := []RecentAccount{{Path: abs, Name: name, LastOpened: at.UTC()}}
	for _, r := range list {
		if r.Path != abs {
			out = append(out, r)
		}
	}
	if len(out) > MaxRecent {
		out = out[:MaxRecent]
	}
	return s.save(out)
}

// Forget removes path from the list.
func (s *Store) Forget(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	list, err := s.Recent()
	if err != nil {
		return err
	}
	out := list[:0]
	for _, r := range list {
		if r.Path != abs {
			out = append(out, r)
		}
	}
	return s.save(out)
}

func (s *Store) save(list []RecentAccount) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return vault.WriteFile(s.path(), data)
}
