package desktop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// Registry maps bundle paths to the desktop files installed for them.
// It persists across service restarts so stale launcher entries can be
// cleaned up after a bundle disappears.
type Registry map[string]*RegistryEntry

// RegistryEntry records the desktop files linked to one bundle.
type RegistryEntry struct {
	DesktopFiles []string `json:"desktop_files"`
}

// Store loads and saves the registry file atomically, skipping writes
// when the serialized content has not changed since the last save.
type Store struct {
	path      string
	logger    hclog.Logger
	lastSaved []byte
}

// NewStore creates a Store for the registry file at path.
func NewStore(path string, logger hclog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the registry, returning an empty one when the file does
// not exist yet. A corrupt registry is surfaced as a warning and
// replaced on the next save rather than aborting the service.
func (s *Store) Load() Registry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("⚠️ Could not read registry", "path", s.path, "error", err)
		}
		return Registry{}
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		s.logger.Warn("⚠️ Registry is corrupt, starting fresh", "path", s.path, "error", err)
		return Registry{}
	}
	return reg
}

// Save persists the registry atomically. Desktop file lists are kept
// sorted so the serialized form is deterministic.
func (s *Store) Save(reg Registry) error {
	for _, entry := range reg {
		sort.Strings(entry.DesktopFiles)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize registry: %w", err)
	}

	if bytes.Equal(s.lastSaved, data) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := writeFileIfChanged(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}

	s.lastSaved = data
	return nil
}
