package playbook

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

//go:embed default.yaml
var defaultPlaybook []byte

// Default returns the built-in playbook.
func Default() (*Playbook, error) {
	return Parse(defaultPlaybook)
}

// Loaded is one successfully compiled generation of the playbook.
type Loaded struct {
	*Compiled
	Version  uint64
	Source   string
	LoadedAt time.Time
}

// Store holds the current playbook generation. Reload runs off the tick
// path; readers pick up a new generation by comparing Version.
type Store struct {
	path    string
	current atomic.Pointer[Loaded]
	version atomic.Uint64
}

// NewStore creates a store for path. An empty path serves the built-in
// playbook.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Current returns the latest generation, or nil before the first Reload.
func (s *Store) Current() *Loaded {
	return s.current.Load()
}

// Reload loads and compiles the playbook. On failure the previous
// generation stays current.
func (s *Store) Reload() (*Loaded, error) {
	var (
		pb     *Playbook
		err    error
		source = s.path
	)
	if source == "" {
		source = "(built-in)"
		pb, err = Default()
	} else {
		pb, err = Load(s.path)
	}
	if err != nil {
		return nil, err
	}

	compiled, err := Compile(pb)
	if err != nil {
		return nil, fmt.Errorf("compile playbook: %w", err)
	}

	l := &Loaded{
		Compiled: compiled,
		Version:  s.version.Add(1),
		Source:   source,
		LoadedAt: time.Now(),
	}
	s.current.Store(l)
	slog.Info("playbook loaded", "source", source, "version", l.Version, "plays", compiled.Names(), "goalie", compiled.Goalie != nil)
	return l, nil
}
