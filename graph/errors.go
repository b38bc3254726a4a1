package graph

import "errors"

var (
	// ErrVertexOutOfBounds indicates a vertex index outside [0, |V|).
	ErrVertexOutOfBounds = errors.New("graph: vertex out of bounds")
	// ErrEmptySet indicates a set argument that must not be empty.
	ErrEmptySet = errors.New("graph: set must not be empty")
	// ErrSetsNotDisjoint indicates set arguments that must be disjoint.
	ErrSetsNotDisjoint = errors.New("graph: sets must be disjoint")
	// ErrSubsetMismatch indicates a violated subset relation between set arguments.
	ErrSubsetMismatch = errors.New("graph: subset relation violated")
	// ErrNotADag indicates an operation that requires an acyclic graph.
	ErrNotADag = errors.New("graph: graph must be acyclic")
	// ErrDuplicateLabels indicates repeated vertex labels.
	ErrDuplicateLabels = errors.New("graph: vertex labels must be unique")
	// ErrMissingLabel indicates a label not present in the graph. PGraph's
	// OrientEdge also returns it when the undirected edge to orient is
	// absent.
	ErrMissingLabel = errors.New("graph: label not found")
)
