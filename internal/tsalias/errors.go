package tsalias

import "errors"

var (
	// ErrNotFound indicates the project file (or a file it extends) does not exist
	ErrNotFound = errors.New("tsconfig not found")
	// ErrMalformed indicates the project file could not be parsed or its paths table is invalid
	ErrMalformed = errors.New("malformed tsconfig")
	// ErrExtendsCycle indicates the extends chain refers back to a file already visited
	ErrExtendsCycle = errors.New("tsconfig extends cycle")
)
