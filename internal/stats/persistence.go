package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// statsVersion is bumped when the schema changes, so Load can apply
	// migrations in the future.
	statsVersion = 1

	statsFileName = "stats.json"
	appDirName    = "random-media"
)

// Stats is the persistent aggregate data, stored as a single JSON document
// in ~/.local/state/random-media/stats.json (respecting XDG_STATE_HOME).
type Stats struct {
	Version int `json:"version"`

	TotalSpawned   int `json:"totalSpawned"`
	TotalCompleted int `json:"totalCompleted"`
	TotalFailed    int `json:"totalFailed"`
	TotalCleared   int `json:"totalCleared"`

	SpawnsPerExtension map[string]int `json:"spawnsPerExtension"`

	MaxConcurrentActive int `json:"maxConcurrentActive"`

	LastSpawnAt time.Time `json:"lastSpawnAt,omitzero"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store handles loading and saving Stats to disk.
type Store struct {
	dir string
}

// NewStore creates a Store that reads/writes stats in the given directory.
// Pass an empty string to use the default XDG state path.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStatsDir()
	}
	return &Store{dir: dir}
}

// Path returns the full path to the stats file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, statsFileName)
}

// Load reads stats from disk. A missing file yields a zero-value Stats with
// initialized maps and the current version.
func (s *Store) Load() (*Stats, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return newStats(), nil
		}
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing stats: %w", err)
	}
	if st.SpawnsPerExtension == nil {
		st.SpawnsPerExtension = make(map[string]int)
	}
	return &st, nil
}

// Save writes stats to disk using an atomic temp-file-then-rename pattern.
// The directory is created if it does not already exist.
func (s *Store) Save(st *Stats) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating stats dir: %w", err)
	}

	st.Version = statsVersion
	st.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".stats-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming stats file: %w", err)
	}
	committed = true

	return nil
}

func newStats() *Stats {
	return &Stats{
		Version:            statsVersion,
		SpawnsPerExtension: make(map[string]int),
	}
}

// clone returns a deep copy of Stats with the map duplicated.
func (st *Stats) clone() *Stats {
	cp := *st
	cp.SpawnsPerExtension = make(map[string]int, len(st.SpawnsPerExtension))
	for k, v := range st.SpawnsPerExtension {
		cp.SpawnsPerExtension[k] = v
	}
	return &cp
}

// defaultStatsDir returns ~/.local/state/random-media, respecting
// XDG_STATE_HOME if set.
func defaultStatsDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
