package world

import (
	"context"
	"fmt"
	"sync"
)

// Manager collects objects as their models finish loading. Loads complete in
// any order and from any goroutine.
type Manager struct {
	objects map[string]*Object
	mu      sync.RWMutex
	changed chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		objects: make(map[string]*Object),
		changed: make(chan struct{}),
	}
}

// Add stores obj under its name, replacing any earlier entry, and wakes
// every Await caller.
func (m *Manager) Add(obj *Object) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *obj
	m.objects[obj.Name] = &cp

	close(m.changed)
	m.changed = make(chan struct{})
}

// Get returns a copy of the named object.
func (m *Manager) Get(name string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, exists := m.objects[name]
	if !exists {
		return Object{}, false
	}
	return *obj, true
}

// Missing returns the names that have not been added yet, keeping the order
// of names.
func (m *Manager) Missing(names ...string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.missingLocked(names)
}

func (m *Manager) missingLocked(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := m.objects[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Await blocks until every name is present and returns a registry holding
// exactly those objects.
func (m *Manager) Await(ctx context.Context, names ...string) (*Registry, error) {
	for {
		m.mu.RLock()
		missing := m.missingLocked(names)
		wait := m.changed
		if len(missing) == 0 {
			objs := make([]Object, 0, len(names))
			for _, name := range names {
				objs = append(objs, *m.objects[name])
			}
			m.mu.RUnlock()
			return NewRegistry(objs...), nil
		}
		m.mu.RUnlock()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %v: %w", missing, ctx.Err())
		case <-wait:
		}
	}
}
