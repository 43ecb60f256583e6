package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wanwatcher/internal/netutil"
	"wanwatcher/internal/types"

	"go.uber.org/zap"
)

// Store persists the last-known address record to a single JSON file.
// Saves use write-to-temp-then-rename so a kill mid-write cannot leave
// a truncated file behind.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a new state store
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger,
	}
}

// legacyRecord is the v1 single-protocol on-disk format
type legacyRecord struct {
	IP          string    `json:"ip"`
	LastUpdated time.Time `json:"last_updated"`
}

// Load reads the persisted state. A missing or unrecognizable file
// returns (nil, nil), which callers treat as first run. Older on-disk
// formats are migrated into the current shape on read.
func (s *Store) Load() (*types.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st types.State
	if err := json.Unmarshal(data, &st); err == nil && st.FormatVersion >= types.StateFormatVersion {
		return &st, nil
	}

	if migrated := s.migrate(data); migrated != nil {
		return migrated, nil
	}

	// Unrecognized content is treated as no prior state so the next save
	// repairs the file, rather than wedging every future cycle.
	s.logger.Error("Unrecognized state file content, treating as first run",
		zap.String("path", s.path))
	return nil, nil
}

// migrate maps older on-disk formats into the current state shape
func (s *Store) migrate(data []byte) *types.State {
	// v1: {"ip": "...", "last_updated": "..."}
	var legacy legacyRecord
	if err := json.Unmarshal(data, &legacy); err == nil && legacy.IP != "" {
		s.logger.Info("Migrated legacy state record",
			zap.Int("from_version", 1),
			zap.Int("to_version", types.StateFormatVersion))
		return &types.State{
			FormatVersion: types.StateFormatVersion,
			IPv4:          legacy.IP,
			LastUpdated:   legacy.LastUpdated,
		}
	}

	// pre-v1: the file held nothing but the raw address
	raw := strings.TrimSpace(string(data))
	if netutil.IsValidIPv4(raw) {
		s.logger.Info("Migrated bare-address state file",
			zap.Int("to_version", types.StateFormatVersion))
		return &types.State{
			FormatVersion: types.StateFormatVersion,
			IPv4:          raw,
		}
	}

	return nil
}

// Save writes the full state, atomically replacing any prior content
func (s *Store) Save(st *types.State) error {
	st.FormatVersion = types.StateFormatVersion

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
