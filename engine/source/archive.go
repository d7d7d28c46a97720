package source

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Archive serves files from the entries of a zip archive.
type Archive struct {
	reader *zip.Reader
	closer io.Closer
}

var _ Source = &Archive{}

// OpenArchive opens a zip archive on disk. The caller must Close it.
//
// Parameters:
//   - path: the archive file path
//
// Returns:
//   - *Archive: the archive source
//   - error: an error if the file is missing or not a zip archive
func OpenArchive(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %q", path)
	}
	return &Archive{reader: &rc.Reader, closer: rc}, nil
}

// NewArchive reads a zip archive from memory or any other random-access reader.
//
// Parameters:
//   - r: the archive bytes
//   - size: the archive length in bytes
//
// Returns:
//   - *Archive: the archive source
//   - error: an error if r is not a zip archive
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "read archive")
	}
	return &Archive{reader: zr}, nil
}

func (a *Archive) ReadBytes(path string) ([]byte, error) {
	f := a.lookup(path)
	if f == nil {
		f = a.lookup(strings.TrimPrefix(path, "./"))
	}
	if f == nil {
		return nil, errors.Wrapf(ErrNotFound, "%q in archive", path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %q in archive", path)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q in archive", path)
	}
	return data, nil
}

func (a *Archive) ReadText(path string) (string, error) {
	data, err := a.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return decodeText(path, data)
}

func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// lookup returns the first entry whose name equals name exactly.
func (a *Archive) lookup(name string) *zip.File {
	for _, f := range a.reader.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
