package factors

import "errors"

var (
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("factors: invalid parameter")
	// ErrIncompatibleShape indicates mismatched dimensions.
	ErrIncompatibleShape = errors.New("factors: incompatible shape")
	// ErrSetsNotDisjoint indicates label sets that must be disjoint.
	ErrSetsNotDisjoint = errors.New("factors: label sets must be disjoint")
	// ErrEmptySet indicates a set argument that must not be empty.
	ErrEmptySet = errors.New("factors: set must not be empty")
	// ErrMissingState indicates a state index outside a variable's domain.
	ErrMissingState = errors.New("factors: state out of range")
	// ErrMissingStatistics indicates an operation that needs sample
	// statistics on an object fitted without them.
	ErrMissingStatistics = errors.New("factors: missing sample statistics")
)
