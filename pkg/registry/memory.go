package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Registry. Names declared in its manifest behave like
// manifest-declared services: once published they can be replaced but never
// removed.
type Memory struct {
	sync.RWMutex

	entries  map[string]Bus
	manifest map[string]struct{}
}

var _ Registry = &Memory{}

// MemoryOption configures a Memory registry.
type MemoryOption func(*Memory)

// WithManifest declares names as static entries.
func WithManifest(names ...string) MemoryOption {
	return func(m *Memory) {
		for _, name := range names {
			m.manifest[name] = struct{}{}
		}
	}
}

// NewMemory returns an empty Memory registry.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:  make(map[string]Bus),
		manifest: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Publish registers bus under name.
func (m *Memory) Publish(_ context.Context, name string, bus Bus) error {
	if name == "" {
		return errors.New("publishing bus: empty name")
	}
	if bus == nil {
		return fmt.Errorf("publishing %q: nil bus", name)
	}
	m.Lock()
	defer m.Unlock()
	m.entries[name] = bus
	return nil
}

// Lookup returns the bus registered under name.
func (m *Memory) Lookup(_ context.Context, name string) (Bus, error) {
	m.RLock()
	defer m.RUnlock()
	bus, ok := m.entries[name]
	if !ok {
		return nil, fmt.Errorf("looking up %q: %w", name, ErrNotFound)
	}
	return bus, nil
}

// Unpublish removes name unless it is a manifest entry.
func (m *Memory) Unpublish(_ context.Context, name string) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.manifest[name]; ok {
		return fmt.Errorf("unpublishing %q: %w", name, ErrStaticEntry)
	}
	if _, ok := m.entries[name]; !ok {
		return fmt.Errorf("unpublishing %q: %w", name, ErrNotFound)
	}
	delete(m.entries, name)
	return nil
}

// Names returns the registered names in order.
func (m *Memory) Names() []string {
	m.RLock()
	defer m.RUnlock()
	out := make([]string, 0, len(m.entries))
	for name := range m.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsStatic reports whether name is declared in the manifest.
func (m *Memory) IsStatic(name string) bool {
	m.RLock()
	defer m.RUnlock()
	_, ok := m.manifest[name]
	return ok
}
