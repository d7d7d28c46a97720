package loader

import (
	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Mesh is the CPU-side geometry of one @model file.
type Mesh struct {
	// Name is the model file name as referenced by @model.
	Name string

	// Positions holds one position per vertex.
	Positions []mgl32.Vec3

	// Normals holds one unit normal per vertex.
	Normals []mgl32.Vec3

	// Indices holds the triangle list, three vertex indices per triangle.
	Indices []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// PositionBytes returns the positions laid out for an array<vec3f> storage binding:
// three little-endian floats per element padded to a 16 byte stride.
func (m *Mesh) PositionBytes() []byte {
	return packVec3(m.Positions)
}

// NormalBytes returns the normals laid out for an array<vec3f> storage binding.
func (m *Mesh) NormalBytes() []byte {
	return packVec3(m.Normals)
}

// Unindexed expands the mesh into a plain triangle list, so a shader can read vertex
// data directly by vertex_index.
//
// Returns:
//   - *Mesh: a new mesh with one vertex per index and sequential indices
func (m *Mesh) Unindexed() *Mesh {
	out := &Mesh{
		Name:      m.Name,
		Positions: make([]mgl32.Vec3, len(m.Indices)),
		Normals:   make([]mgl32.Vec3, len(m.Indices)),
		Indices:   make([]uint32, len(m.Indices)),
	}
	for i, idx := range m.Indices {
		out.Positions[i] = m.Positions[idx]
		if int(idx) < len(m.Normals) {
			out.Normals[i] = m.Normals[idx]
		}
		out.Indices[i] = uint32(i)
	}
	return out
}

// validate checks that every index refers to an existing vertex and the index count
// forms whole triangles.
func (m *Mesh) validate() error {
	if len(m.Indices)%3 != 0 {
		return errors.Wrapf(ErrInvalidModel, "%s: %d indices do not form whole triangles", m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return errors.Wrapf(ErrInvalidModel, "%s: index %d out of range (%d vertices)", m.Name, idx, len(m.Positions))
		}
	}
	return nil
}

// smoothNormals computes per-vertex normals by accumulating the unnormalized face
// normal of every adjacent triangle, so larger faces weigh more, and normalizing the
// sum. Vertices without a face keep a zero normal.
//
// Parameters:
//   - positions: the vertex positions
//   - indices: the triangle list
//
// Returns:
//   - []mgl32.Vec3: one normal per position
func smoothNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0 := positions[i0]
		face := positions[i1].Sub(v0).Cross(positions[i2].Sub(v0))
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals
}

func packVec3(vs []mgl32.Vec3) []byte {
	padded := make([]mgl32.Vec4, len(vs))
	for i, v := range vs {
		padded[i] = v.Vec4(0)
	}
	return common.SliceToBytes(padded)
}
