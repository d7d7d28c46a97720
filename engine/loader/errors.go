package loader

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFormat is returned for a model file extension no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrInvalidModel is returned when a model file is malformed.
	ErrInvalidModel = errors.New("invalid model")

	// ErrClosed is returned by Load after Close.
	ErrClosed = errors.New("loader closed")
)
