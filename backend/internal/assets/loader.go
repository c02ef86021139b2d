// Package assets loads the rig models and reports their geometry.
package assets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rigpath/backend/internal/world"
)

// ErrNoGeometry is returned for models without any triangle.
var ErrNoGeometry = errors.New("no triangles found in gltf")

// DefaultExt is the model file extension.
const DefaultExt = ".glb"

// Sink receives loaded objects.
type Sink interface {
	Add(obj *world.Object)
}

// Loader reads <Dir>/<name><Ext> models.
type Loader struct {
	Dir         string
	Ext         string
	Concurrency int

	// OnError is called once per failed model.
	OnError func(name string, err error)

	logger zerolog.Logger
}

func NewLoader(dir string, concurrency int, logger zerolog.Logger) *Loader {
	return &Loader{
		Dir:         dir,
		Ext:         DefaultExt,
		Concurrency: concurrency,
		logger:      logger,
	}
}

// Path returns the file a model name resolves to.
func (l *Loader) Path(name string) string {
	ext := l.Ext
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Join(l.Dir, name+ext)
}

// Load opens one model and returns it as an object at the origin.
func (l *Loader) Load(ctx context.Context, name string) (*world.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := l.Path(name)
	doc, err := gltf.Open(file)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", name, err)
	}

	bounds, triangles, err := Inspect(doc)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", name, err)
	}

	return &world.Object{
		Name:      name,
		Bounds:    bounds,
		Triangles: triangles,
		Source:    file,
	}, nil
}

// LoadAll loads every name concurrently. Successes go to sink as they
// complete; each failure is passed to OnError and all of them are returned
// joined.
func (l *Loader) LoadAll(ctx context.Context, names []string, sink Sink) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	if l.Concurrency > 0 {
		g.SetLimit(l.Concurrency)
	}

	for _, name := range names {
		name := name
		g.Go(func() error {
			obj, err := l.Load(ctx, name)
			if err != nil {
				l.logger.Error().Err(err).Str("model", name).Msg("model load failed")
				if l.OnError != nil {
					l.OnError(name, err)
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			sink.Add(obj)
			l.logger.Info().
				Str("model", name).
				Int("triangles", obj.Triangles).
				Msg("model loaded")
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

// Inspect walks every triangle primitive and returns the model space bounds
// and triangle count.
func Inspect(doc *gltf.Document) (world.Box, int, error) {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	triangles := 0

	for _, mesh := range doc.Meshes {
		for _, primitive := range mesh.Primitives {
			if primitive.Mode != gltf.PrimitiveTriangles {
				continue
			}

			posIdx, ok := primitive.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return world.Box{}, 0, err
			}

			if primitive.Indices != nil {
				indices, err := modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
				if err != nil {
					return world.Box{}, 0, err
				}
				triangles += len(indices) / 3
			} else {
				triangles += len(positions) / 3
			}

			for _, p := range positions {
				for axis := 0; axis < 3; axis++ {
					v := float64(p[axis])
					lo[axis] = math.Min(lo[axis], v)
					hi[axis] = math.Max(hi[axis], v)
				}
			}
		}
	}

	if triangles == 0 {
		return world.Box{}, 0, ErrNoGeometry
	}
	return world.Box{Min: lo, Max: hi}, triangles, nil
}
