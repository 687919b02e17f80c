package fsrs

import (
	"fmt"
	"strconv"
)

// Rating is the caller's assessment of a review.
type Rating int

const (
	Again Rating = iota + 1 // Failed to recall.
	Hard                    // Recalled with serious difficulty.
	Good                    // Recalled with some effort.
	Easy                    // Recalled effortlessly.
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// String returns "Again", "Hard", "Good" or "Easy", or "Rating(n)" for
// out-of-range values.
func (r Rating) String() string {
	if r.Valid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// Valid reports whether r is one of Again, Hard, Good, Easy.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

// ParseRating parses a decimal rating ("1".."4") or a rating name.
// The returned rating is not range-checked when parsed from a number; use Valid.
func ParseRating(s string) (Rating, error) {
	for r := Again; r <= Easy; r++ {
		if s == ratingNames[r] {
			return r, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return Rating(n), nil
}
