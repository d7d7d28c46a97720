package shader

import "github.com/pkg/errors"

var (
	// ErrMalformedDirective is returned when a directive argument cannot be parsed, such
	// as an out-of-range width, height or camera index.
	ErrMalformedDirective = errors.New("malformed directive")

	// ErrUnsupportedType is returned when a GameState member has a type whose storage
	// layout cannot be derived.
	ErrUnsupportedType = errors.New("unsupported GameState member type")

	// ErrTooManyOSCParams is returned when a shader names more OSC parameters than the
	// host state buffer has slots for.
	ErrTooManyOSCParams = errors.New("too many OSC parameters")
)
