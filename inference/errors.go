package inference

import "errors"

var (
	// ErrEmptySet indicates a set argument that must not be empty.
	ErrEmptySet = errors.New("inference: set must not be empty")
	// ErrSetsNotDisjoint indicates set arguments that must be disjoint.
	ErrSetsNotDisjoint = errors.New("inference: sets must be disjoint")
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("inference: invalid parameter")
)
