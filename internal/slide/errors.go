package slide

import "errors"

var (
	ErrOutOfRange   = errors.New("slide index out of range")
	ErrInvalidValue = errors.New("invalid value")
	ErrUnknownField = errors.New("unknown field")
)
