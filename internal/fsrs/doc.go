// Package fsrs implements the FSRS-6 memory model used to schedule reviews.
//
// The package is pure: every function is deterministic given its inputs and
// touches no shared state. It covers:
//   - Parameter Set: the 21-weight vector plus target retention and max interval
//   - Forgetting curve: R(t, S) = (1 + factor*t/S)^(-w20)
//   - Interval inversion: the t at which R falls to the target retention
//   - State updates: initial and post-review difficulty and stability
//
// # Calibration
//
// The decay factor is derived from w20 so that R(S, S) = 0.9 for every
// stability S. With the default target retention of 0.9 the interval
// inversion therefore collapses to round(S), clamped to [1, maxInterval].
//
// # Rating
//
// Ratings are Again(1), Hard(2), Good(3), Easy(4). Callers validate the
// rating before calling into this package; the math functions index the
// weight vector with it directly.
package fsrs
