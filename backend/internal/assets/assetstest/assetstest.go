// Package assetstest writes small glTF models for tests.
package assetstest

import (
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// WriteQuad saves a two triangle quad spanning lo..hi as dir/name.glb.
func WriteQuad(dir, name string, lo, hi [3]float32) error {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{hi[0], hi[1], hi[2]},
		{lo[0], hi[1], hi[2]},
	})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Mode:       gltf.PrimitiveTriangles,
			Indices:    &idx,
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	})

	return gltf.SaveBinary(doc, filepath.Join(dir, name+".glb"))
}
