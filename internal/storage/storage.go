// Package storage persists derived views and bibliography exports to disk.
//
// Every write is atomic: data goes to a temp file in the target directory
// which is then renamed over the destination, so readers never observe a
// partially written file. Views are wrapped in an Envelope recording what
// was saved and when.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the current view file format.
const EnvelopeVersion = "1.0"

// ErrViewNotFound is returned when loading a view that was never saved.
var ErrViewNotFound = errors.New("view not found")

var kindPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Envelope is the on-disk representation of one exported view.
type Envelope struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Version string          `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Storage writes files under an export directory.
type Storage struct {
	mu sync.Mutex

	dir             string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// New creates a new Storage rooted at dir.
// If dir is empty, uses an OS-appropriate tmp directory.
func New(dir string, filePermissions, dirPermissions os.FileMode) *Storage {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "incomeshift")
	}
	return &Storage{
		dir:             dir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Dir returns the export directory.
func (s *Storage) Dir() string {
	return s.dir
}

// ViewPath returns the file a view of the given kind is saved to.
func (s *Storage) ViewPath(kind string) string {
	return filepath.Join(s.dir, kind+".json")
}

// SaveView marshals data into a new envelope and writes it to <dir>/<kind>.json.
func (s *Storage) SaveView(kind string, data any) (*Envelope, error) {
	if !kindPattern.MatchString(kind) {
		return nil, fmt.Errorf("invalid view kind: %q", kind)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s view: %w", kind, err)
	}
	env := &Envelope{
		ID:      uuid.NewString(),
		Kind:    kind,
		Version: EnvelopeVersion,
		SavedAt: time.Now().UTC(),
		Data:    raw,
	}

	jsonData, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeAtomic(s.ViewPath(kind), append(jsonData, '\n')); err != nil {
		return nil, err
	}
	return env, nil
}

// LoadView reads the envelope of a saved view and, when out is non-nil,
// unmarshals its data into out.
func (s *Storage) LoadView(kind string, out any) (*Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.ViewPath(kind)
	jsonData, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(jsonData, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Kind != kind {
		return nil, fmt.Errorf("envelope kind mismatch: file %s holds %q", path, env.Kind)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s view: %w", kind, err)
		}
	}
	return &env, nil
}

// ListViews returns the kinds of all saved views in sorted order.
func (s *Storage) ListViews() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var kinds []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		kinds = append(kinds, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(kinds)
	return kinds, nil
}

// WriteFile atomically writes data to path. Relative paths are taken as is,
// not relative to the export directory.
func (s *Storage) WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("output path must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(path, data)
}

// CleanTemp removes temp files left in the export directory by interrupted writes.
func (s *Storage) CleanTemp() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, ".*.tmp"))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}

// writeAtomic writes to a temp file next to path, then renames it into place.
func (s *Storage) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tempPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Chmod(s.filePermissions); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
