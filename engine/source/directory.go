package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Directory serves files from a directory on disk.
type Directory struct {
	root string
}

var _ Source = &Directory{}

// NewDirectory creates a Source rooted at the given directory. The directory is not
// checked for existence until the first read.
//
// Parameters:
//   - root: the directory that relative paths are resolved against
//
// Returns:
//   - *Directory: the directory source
func NewDirectory(root string) *Directory {
	if root == "" {
		root = "."
	}
	return &Directory{root: root}
}

// Root returns the directory this source reads from.
func (d *Directory) Root() string {
	return d.root
}

func (d *Directory) ReadBytes(path string) ([]byte, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%q in %s", path, d.root)
		}
		return nil, errors.Wrapf(err, "read %q", path)
	}
	return data, nil
}

func (d *Directory) ReadText(path string) (string, error) {
	data, err := d.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return decodeText(path, data)
}

func (d *Directory) Close() error {
	return nil
}

// resolve joins path onto the root after rejecting parent references and absolute paths.
func (d *Directory) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.Wrap(ErrNotFound, "empty path")
	}
	if hasParentRef(path) {
		return "", errors.Wrapf(ErrNotFound, "directory traversal not allowed: %q", path)
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return "", errors.Wrapf(ErrNotFound, "absolute path not allowed: %q", path)
	}
	return filepath.Join(d.root, filepath.FromSlash(path)), nil
}
