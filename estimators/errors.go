package estimators

import "errors"

var (
	// ErrSetsNotDisjoint indicates set arguments that must be disjoint.
	ErrSetsNotDisjoint = errors.New("estimators: sets must be disjoint")
	// ErrEmptySet indicates a set argument that must not be empty.
	ErrEmptySet = errors.New("estimators: set must not be empty")
	// ErrVertexOutOfBounds indicates a column index outside the dataset.
	ErrVertexOutOfBounds = errors.New("estimators: column index out of bounds")
	// ErrMissingSufficientStatistics indicates an underdetermined cell:
	// a conditioning configuration with no observed mass.
	ErrMissingSufficientStatistics = errors.New("estimators: missing sufficient statistics")
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("estimators: invalid parameter")
	// ErrLabelsMismatch indicates label sets that must coincide.
	ErrLabelsMismatch = errors.New("estimators: labels mismatch")
	// ErrPriorKnowledgeConflict indicates prior knowledge inconsistent
	// with the initial graph.
	ErrPriorKnowledgeConflict = errors.New("estimators: prior knowledge conflicts with initial graph")
)
