package server

import "errors"

var (
	ErrBadIndex = errors.New("slide index is not a number")
	ErrNoUpload = errors.New("no file uploaded")
	ErrTooLarge = errors.New("upload too large")
)
