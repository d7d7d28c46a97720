package loader

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// loaderBackend parses one model file format into a Mesh.
// Concrete implementations (objLoaderBackend, gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load parses a model from its file contents.
	//
	// Parameters:
	//   - name: the model file name, used for error messages
	//   - data: the raw file contents
	//
	// Returns:
	//   - *Mesh: the parsed geometry with normals
	//   - error: error if parsing fails
	Load(name string, data []byte) (*Mesh, error)
}

// backends maps lower-case file extensions to the backend that parses them.
var backends = map[string]loaderBackend{
	".obj":  objLoaderBackend{},
	".gltf": gltfLoaderBackend{},
	".glb":  gltfLoaderBackend{},
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func resolveBackend(name string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(name))
	backend, ok := backends[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", name)
	}
	return backend, nil
}
