package estimators

import (
	"fmt"
	"sort"
)

// PriorKnowledge holds forbidden and required edges for structure
// learning, over a sorted label set.
type PriorKnowledge struct {
	labels    []string
	forbidden []bool
	required  []bool
}

// NewPriorKnowledge creates empty prior knowledge over the given labels.
func NewPriorKnowledge(labels []string) (*PriorKnowledge, error) {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidParameter, sorted[i])
		}
	}
	n := len(sorted)
	return &PriorKnowledge{
		labels:    sorted,
		forbidden: make([]bool, n*n),
		required:  make([]bool, n*n),
	}, nil
}

// Labels returns the sorted labels.
func (pk *PriorKnowledge) Labels() []string {
	out := make([]string, len(pk.labels))
	copy(out, pk.labels)
	return out
}

func (pk *PriorKnowledge) checkVertex(i int) error {
	if i < 0 || i >= len(pk.labels) {
		return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
	}
	return nil
}

// Forbid marks the edge i -> j as forbidden.
func (pk *PriorKnowledge) Forbid(i, j int) error {
	if err := pk.checkVertex(i); err != nil {
		return err
	}
	if err := pk.checkVertex(j); err != nil {
		return err
	}
	if pk.required[i*len(pk.labels)+j] {
		return fmt.Errorf(
			"%w: edge (%d, %d) is both forbidden and required", ErrInvalidParameter, i, j,
		)
	}
	pk.forbidden[i*len(pk.labels)+j] = true
	return nil
}

// Require marks the edge i -> j as required.
func (pk *PriorKnowledge) Require(i, j int) error {
	if err := pk.checkVertex(i); err != nil {
		return err
	}
	if err := pk.checkVertex(j); err != nil {
		return err
	}
	if pk.forbidden[i*len(pk.labels)+j] {
		return fmt.Errorf(
			"%w: edge (%d, %d) is both forbidden and required", ErrInvalidParameter, i, j,
		)
	}
	pk.required[i*len(pk.labels)+j] = true
	return nil
}

// IsForbidden checks if the edge i -> j is forbidden.
func (pk *PriorKnowledge) IsForbidden(i, j int) bool {
	if i < 0 || j < 0 || i >= len(pk.labels) || j >= len(pk.labels) {
		return false
	}
	return pk.forbidden[i*len(pk.labels)+j]
}

// IsRequired checks if the edge i -> j is required.
func (pk *PriorKnowledge) IsRequired(i, j int) bool {
	if i < 0 || j < 0 || i >= len(pk.labels) || j >= len(pk.labels) {
		return false
	}
	return pk.required[i*len(pk.labels)+j]
}
