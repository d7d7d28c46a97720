package source

import "github.com/pkg/errors"

// Map is an in-memory Source keyed by relative path. It is used by hosts that embed a
// game in the binary and by tests. Map must not be modified while it is being read.
type Map map[string][]byte

var _ Source = Map{}

func (m Map) ReadBytes(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m Map) ReadText(path string) (string, error) {
	data, err := m.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return decodeText(path, data)
}

func (m Map) Close() error {
	return nil
}
