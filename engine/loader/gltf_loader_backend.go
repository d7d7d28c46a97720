package loader

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfLoaderBackend reads the triangle primitives of every mesh in a glTF or GLB file
// and merges them into one Mesh. Buffers must be embedded (GLB or data URIs); node
// transforms are not applied.
type gltfLoaderBackend struct{}

var _ loaderBackend = gltfLoaderBackend{}

func (gltfLoaderBackend) Load(name string, data []byte) (*Mesh, error) {
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", name)
	}

	mesh := &Mesh{Name: name}
	hasNormals := true
	for _, m := range doc.Meshes {
		for _, primitive := range m.Primitives {
			if primitive.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := primitive.Attributes["POSITION"]
			if !ok {
				continue
			}

			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: failed to read positions of mesh %q", name, m.Name)
			}

			var indices []uint32
			if primitive.Indices != nil {
				indices, err = modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
				if err != nil {
					return nil, errors.Wrapf(err, "%s: failed to read indices of mesh %q", name, m.Name)
				}
			} else {
				indices = make([]uint32, len(positions))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			var normals [][3]float32
			if normIdx, ok := primitive.Attributes["NORMAL"]; ok {
				normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
				if err != nil {
					return nil, errors.Wrapf(err, "%s: failed to read normals of mesh %q", name, m.Name)
				}
			}
			if len(normals) != len(positions) {
				hasNormals = false
			}

			base := uint32(len(mesh.Positions))
			for i, p := range positions {
				mesh.Positions = append(mesh.Positions, mgl32.Vec3(p))
				if hasNormals {
					mesh.Normals = append(mesh.Normals, mgl32.Vec3(normals[i]))
				}
			}
			for _, idx := range indices {
				mesh.Indices = append(mesh.Indices, idx+base)
			}
		}
	}

	if len(mesh.Positions) == 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "%s has no triangle geometry", name)
	}
	if err := mesh.validate(); err != nil {
		return nil, err
	}
	if !hasNormals {
		mesh.Normals = smoothNormals(mesh.Positions, mesh.Indices)
	}
	return mesh, nil
}
