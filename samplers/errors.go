package samplers

import "errors"

var (
	// ErrInvalidParameter indicates a parameter outside its domain.
	ErrInvalidParameter = errors.New("samplers: invalid parameter")
)
