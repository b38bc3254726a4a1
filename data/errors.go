package data

import "errors"

var (
	// ErrDuplicateLabels indicates repeated variable labels.
	ErrDuplicateLabels = errors.New("data: variable labels must be unique")
	// ErrDuplicateStates indicates repeated states for a variable.
	ErrDuplicateStates = errors.New("data: variable states must be unique")
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("data: invalid parameter")
	// ErrIncompatibleShape indicates mismatched dimensions.
	ErrIncompatibleShape = errors.New("data: incompatible shape")
	// ErrVertexOutOfBounds indicates a column index outside [0, cols).
	ErrVertexOutOfBounds = errors.New("data: column index out of bounds")
	// ErrMissingValue indicates an out-of-range value in a complete table.
	ErrMissingValue = errors.New("data: value out of range")
	// ErrMissingState indicates a state not declared for a variable.
	ErrMissingState = errors.New("data: state not found")
	// ErrEmptySet indicates a set argument that must not be empty.
	ErrEmptySet = errors.New("data: set must not be empty")
)
