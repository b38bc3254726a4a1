package models

import "errors"

var (
	// ErrNotADag indicates a cyclic graph where a DAG is required.
	ErrNotADag = errors.New("models: graph must be acyclic")
	// ErrLabelsMismatch indicates distribution labels that do not match
	// the graph labels.
	ErrLabelsMismatch = errors.New("models: labels mismatch")
	// ErrStatesMismatch indicates inconsistent state sets for a variable
	// across distributions.
	ErrStatesMismatch = errors.New("models: states mismatch")
	// ErrParentsMismatch indicates a distribution whose conditioning
	// labels differ from the graph parents of its vertex.
	ErrParentsMismatch = errors.New("models: conditioning labels must equal sorted parents")
	// ErrMissingDistribution indicates a vertex with no distribution.
	ErrMissingDistribution = errors.New("models: missing distribution")
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("models: invalid parameter")
)
