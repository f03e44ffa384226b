package storage

import "errors"

var (
	ErrTooManyImages    = errors.New("too many images for debt")
	ErrImageNotFound    = errors.New("image not found")
	ErrChecksumMismatch = errors.New("image checksum mismatch")
	ErrInvalidImage     = errors.New("invalid image")
)
