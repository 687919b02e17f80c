package fsrs

import "errors"

// Sentinel errors for the fsrs package.
var (
	ErrInvalidRating        = errors.New("fsrs: invalid rating")
	ErrInvalidConfiguration = errors.New("fsrs: invalid configuration")
)
