// Package store persists the badge record to its fixed location under the
// badges directory. Each run fully overwrites the prior record.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/badgeforge/internal/filelock"
	"github.com/harrison/badgeforge/internal/models"
)

// RecordFileName is the fixed name of the persisted record inside the badges
// directory.
const RecordFileName = "data.json"

// Store writes badge records into a badges directory.
type Store struct {
	badgesDir string
}

// New creates a Store rooted at badgesDir. The directory is created on the
// first write, not here.
func New(badgesDir string) *Store {
	return &Store{badgesDir: badgesDir}
}

// Path returns the record file path.
func (s *Store) Path() string {
	return filepath.Join(s.badgesDir, RecordFileName)
}

// Save writes the record, creating the badges directory if absent. The write
// is atomic and lock-coordinated; prior content is fully replaced.
func (s *Store) Save(record models.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode badge record: %w", err)
	}
	data = append(data, '\n')

	if err := filelock.LockAndWrite(s.Path(), data); err != nil {
		return fmt.Errorf("failed to write badge record: %w", err)
	}
	return nil
}

// Load reads the current record back. Used by the CLI to show the last run;
// the pipeline itself never reads it.
func (s *Store) Load() (models.Record, error) {
	var record models.Record

	data, err := os.ReadFile(s.Path())
	if err != nil {
		return record, fmt.Errorf("failed to read badge record: %w", err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to decode badge record: %w", err)
	}
	return record, nil
}
