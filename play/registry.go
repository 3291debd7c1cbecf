package play

import (
	"fmt"
	"log/slog"
	"sync"
)

// Source lists the plays currently eligible for selection.
type Source interface {
	ListEnabled() []Descriptor
}

// Entry is a registry slot.
type Entry struct {
	Descriptor Descriptor
	Enabled    bool
}

// Registry is the ordered set of known plays. Order is registration order
// and breaks score ties. It is safe for concurrent use so the playbook
// watcher and CLI can update it while the scheduler reads.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(d Descriptor, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(d.Name()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicatePlay, d.Name())
	}
	r.entries = append(r.entries, Entry{Descriptor: d, Enabled: enabled})
	return nil
}

// Enable turns a play on or off for future selections. It does not affect
// an already installed instance.
func (r *Registry) Enable(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPlay, name)
	}
	r.entries[i].Enabled = enabled
	return nil
}

func (r *Registry) ListEnabled() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Descriptor
	for _, e := range r.entries {
		if e.Enabled {
			out = append(out, e.Descriptor)
		}
	}
	return out
}

// Entries returns a copy of all slots in order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Descriptor.Name()
	}
	return names
}

// Swap atomically replaces the whole registry (called when the playbook is
// reloaded). On a duplicate name the old contents remain.
func (r *Registry) Swap(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Descriptor.Name()
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicatePlay, name)
		}
		seen[name] = true
		names = append(names, name)
	}

	r.mu.Lock()
	r.entries = append([]Entry(nil), entries...)
	r.mu.Unlock()

	slog.Info("play registry swapped", "count", len(entries), "plays", names)
	return nil
}

func (r *Registry) indexOf(name string) int {
	for i, e := range r.entries {
		if e.Descriptor.Name() == name {
			return i
		}
	}
	return -1
}
