package io

import "errors"

var (
	// ErrMissingHeader indicates a CSV stream with no header row.
	ErrMissingHeader = errors.New("io: missing header row")
	// ErrMissingValue indicates an empty cell in a complete table.
	ErrMissingValue = errors.New("io: missing value")
	// ErrInvalidFormat indicates malformed input.
	ErrInvalidFormat = errors.New("io: invalid format")
	// ErrTypeMismatch indicates a JSON document whose type discriminator
	// does not match the requested type.
	ErrTypeMismatch = errors.New("io: type discriminator mismatch")
	// ErrMissingField indicates a JSON document lacking a required field.
	ErrMissingField = errors.New("io: missing required field")
)
