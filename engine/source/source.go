// Package source provides uniform read access to game files (shaders, textures, sounds,
// models) stored either in a plain directory or inside a zip archive. Every read goes
// straight to the underlying store; nothing is cached, so a hot reload always observes
// the current file contents.
package source

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrNotFound is returned when a requested file does not exist in the store, or when
	// the path tries to escape the store root.
	ErrNotFound = errors.New("source: file not found")

	// ErrInvalidEncoding is returned by ReadText when the file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("source: file is not valid UTF-8")
)

// DefaultEntry is the shader file a game directory or archive starts from.
const DefaultEntry = "main.wgsl"

// Source is a read-only view over the files of one game. Implementations must be safe
// for concurrent reads.
type Source interface {
	// ReadBytes returns the raw contents of the file at the given relative path.
	//
	// Parameters:
	//   - path: a slash-separated path relative to the store root
	//
	// Returns:
	//   - []byte: the file contents
	//   - error: ErrNotFound (wrapped) if the file is missing or the path is rejected, or an I/O error
	ReadBytes(path string) ([]byte, error)

	// ReadText returns the contents of the file at the given relative path as a string.
	// A leading UTF-8 byte order mark is removed.
	//
	// Parameters:
	//   - path: a slash-separated path relative to the store root
	//
	// Returns:
	//   - string: the decoded file contents
	//   - error: ErrNotFound, ErrInvalidEncoding (wrapped) or an I/O error
	ReadText(path string) (string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Open selects a Source for a path given on the command line or by an embedding host.
// A single ".wgsl" file opens its parent directory, a ".zip" file opens the archive, and
// anything else is treated as a game directory.
//
// Parameters:
//   - path: a shader file, zip archive or directory path
//
// Returns:
//   - Source: the opened store
//   - error: an error if the archive cannot be opened
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wgsl":
		return NewDirectory(filepath.Dir(path)), nil
	case ".zip":
		return OpenArchive(path)
	default:
		return NewDirectory(path), nil
	}
}

// EntryName returns the entry shader for a path accepted by Open: the basename of a
// single ".wgsl" file, DefaultEntry otherwise.
func EntryName(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wgsl") {
		return filepath.Base(path)
	}
	return DefaultEntry
}

// decodeText validates data as UTF-8 and strips a leading byte order mark.
func decodeText(path string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.Wrapf(ErrInvalidEncoding, "%q", path)
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, "decode %q", path)
	}
	return string(out), nil
}

// hasParentRef reports whether a slash or backslash separated path contains a ".."
// component.
func hasParentRef(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
