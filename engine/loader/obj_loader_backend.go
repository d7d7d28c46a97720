package loader

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// objLoaderBackend parses Wavefront OBJ geometry: "v" positions, "vn" normals and "f"
// faces. Faces with more than three vertices are triangulated as a fan. Texture
// coordinates, groups and materials are ignored.
type objLoaderBackend struct{}

var _ loaderBackend = objLoaderBackend{}

func (objLoaderBackend) Load(name string, data []byte) (*Mesh, error) {
	mesh := &Mesh{Name: name}
	var normals []mgl32.Vec3

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d", name, line)
			}
			mesh.Positions = append(mesh.Positions, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d", name, line)
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, errors.Wrapf(ErrInvalidModel, "%s line %d: face needs at least 3 vertices", name, line)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := parseFaceIndex(ref, len(mesh.Positions))
				if err != nil {
					return nil, errors.Wrapf(err, "%s line %d", name, line)
				}
				face = append(face, idx)
			}
			for i := 1; i+1 < len(face); i++ {
				mesh.Indices = append(mesh.Indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}

	if err := mesh.validate(); err != nil {
		return nil, err
	}

	// Normals are only usable as-is when there is exactly one per position.
	if len(normals) == len(mesh.Positions) && len(normals) > 0 {
		mesh.Normals = normals
	} else {
		mesh.Normals = smoothNormals(mesh.Positions, mesh.Indices)
	}
	return mesh, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(fields) < 3 {
		return v, errors.Wrapf(ErrInvalidModel, "expected 3 components, got %d", len(fields))
	}
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, errors.Wrapf(ErrInvalidModel, "bad component %q", fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseFaceIndex parses the position part of a face vertex reference (v, v/vt, v/vt/vn
// or v//vn). OBJ indices are 1-based; negative indices count back from the last
// position read so far.
func parseFaceIndex(ref string, positions int) (uint32, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil || n == 0 {
		return 0, errors.Wrapf(ErrInvalidModel, "bad face index %q", ref)
	}
	if n < 0 {
		n += positions + 1
		if n <= 0 {
			return 0, errors.Wrapf(ErrInvalidModel, "relative face index %q out of range", ref)
		}
	}
	return uint32(n - 1), nil
}
