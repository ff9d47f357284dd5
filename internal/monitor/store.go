package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// StateStore persists monitor state as a single JSON file. Writes are atomic
// so a crash mid-write never leaves a truncated state file behind.
type StateStore struct {
	path string
}

// NewStateStore creates a state store backed by the given file path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the persisted state. A missing file yields zero state, not an
// error: the first run starts from nothing.
func (s *StateStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return &st, nil
}

// Save writes the state atomically, creating parent directories as needed.
func (s *StateStore) Save(st *State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state file %s: %w", s.path, err)
	}
	return nil
}

// FilingLog is the append-only, newline-delimited JSON log of ingested
// filings. It is only ever appended to; truncation or rewrite is a manual
// operator action.
type FilingLog struct {
	path string
}

// NewFilingLog creates a filing log backed by the given file path.
func NewFilingLog(path string) *FilingLog {
	return &FilingLog{path: path}
}

// Append writes one record as a single JSON line.
func (l *FilingLog) Append(rec models.FilingLogRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open filing log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append filing log: %w", err)
	}
	return nil
}
