package world

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Registry is the fixed set of scene objects the playback driver moves.
// It is built once all expected models have loaded and never grows.
type Registry struct {
	objects map[string]*Object
	mu      sync.RWMutex
}

// NewRegistry builds a registry from objs. Later duplicates win.
func NewRegistry(objs ...Object) *Registry {
	r := &Registry{objects: make(map[string]*Object, len(objs))}
	for i := range objs {
		obj := objs[i]
		r.objects[obj.Name] = &obj
	}
	return r
}

// Has reports whether every name is present.
func (r *Registry) Has(names ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if _, ok := r.objects[name]; !ok {
			return false
		}
	}
	return true
}

// Position returns the current position of the named object.
func (r *Registry) Position(name string) (mgl64.Vec3, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[name]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return obj.Position, true
}

// SetPosition moves the named object. It returns false for unknown names.
func (r *Registry) SetPosition(name string, pos mgl64.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objects[name]
	if !ok {
		return false
	}
	obj.Position = pos
	return true
}

// Snapshot returns the positions of all objects keyed by name.
func (r *Registry) Snapshot() map[string]mgl64.Vec3 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]mgl64.Vec3, len(r.objects))
	for name, obj := range r.objects {
		out[name] = obj.Position
	}
	return out
}

// Objects returns copies of all objects sorted by name.
func (r *Registry) Objects() []Object {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Object, 0, len(r.objects))
	for _, obj := range r.objects {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
