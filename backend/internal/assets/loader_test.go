package assets

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigpath/backend/internal/assets/assetstest"
	"rigpath/backend/internal/world"
)

func writeBox(t *testing.T, dir, name string, lo, hi [3]float32) {
	t.Helper()
	require.NoError(t, assetstest.WriteQuad(dir, name, lo, hi))
}

type sink struct {
	mu   sync.Mutex
	objs []*world.Object
}

func (s *sink) Add(obj *world.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objs = append(s.objs, obj)
}

func (s *sink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, o := range s.objs {
		out = append(out, o.Name)
	}
	sort.Strings(out)
	return out
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeBox(t, dir, world.Track, [3]float32{-1, 0, -2}, [3]float32{3, 2, 2})

	obj, err := NewLoader(dir, 2, zerolog.Nop()).Load(context.Background(), world.Track)
	require.NoError(t, err)

	assert.Equal(t, world.Track, obj.Name)
	assert.Equal(t, 2, obj.Triangles)
	assert.Equal(t, mgl64.Vec3{-1, 0, -2}, obj.Bounds.Min)
	assert.Equal(t, mgl64.Vec3{3, 2, 2}, obj.Bounds.Max)
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, obj.Center())
	assert.Equal(t, filepath.Join(dir, "Track.glb"), obj.Source)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	_, err := NewLoader(t.TempDir(), 1, zerolog.Nop()).Load(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading model nope")
}

func TestLoader_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(t.TempDir(), 1, zerolog.Nop()).Load(ctx, world.Track)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInspect_NoGeometry(t *testing.T) {
	_, _, err := Inspect(gltf.NewDocument())
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestLoader_LoadAll(t *testing.T) {
	dir := t.TempDir()
	for _, name := range world.TrackedNames {
		writeBox(t, dir, name, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	}

	s := &sink{}
	err := NewLoader(dir, 2, zerolog.Nop()).LoadAll(context.Background(), world.TrackedNames, s)
	require.NoError(t, err)

	want := append([]string(nil), world.TrackedNames...)
	sort.Strings(want)
	assert.Equal(t, want, s.names())
}

func TestLoader_LoadAllReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	writeBox(t, dir, world.Platform, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	require.NoError(t, os.WriteFile(filepath.Join(dir, world.XAxis+".glb"), []byte("not a model"), 0o644))

	var mu sync.Mutex
	failed := map[string]error{}

	loader := NewLoader(dir, 0, zerolog.Nop())
	loader.OnError = func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed[name] = err
	}

	m := world.NewManager()
	err := loader.LoadAll(context.Background(), []string{world.Platform, world.XAxis, world.YAxis}, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), world.XAxis)
	assert.Contains(t, err.Error(), world.YAxis)

	assert.Len(t, failed, 2)
	assert.Contains(t, failed, world.XAxis)
	assert.Contains(t, failed, world.YAxis)
	assert.Equal(t, []string{world.XAxis, world.YAxis}, m.Missing(world.Platform, world.XAxis, world.YAxis))
}
