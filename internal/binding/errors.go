package binding

import "errors"

// Domain errors for the binding package.
var (
	// ErrConfiguration is returned when a binding, topic or codec is invalid.
	// The registry cannot be built while any configuration error is pending.
	ErrConfiguration = errors.New("binding: invalid configuration")

	// ErrValueType is returned by a typed codec when the value it receives
	// does not have the type the codec was built for.
	ErrValueType = errors.New("binding: unexpected value type")

	// ErrUnknownCodec is returned when a binding file names a codec that
	// does not exist for the binding's direction.
	ErrUnknownCodec = errors.New("binding: unknown codec")
)
