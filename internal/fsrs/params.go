package fsrs

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// WeightCount is the length of an FSRS-6 weight vector (w0..w20).
const WeightCount = 21

// Defaults for the scheduling knobs.
const (
	DefaultTargetRetention = 0.9
	DefaultMaxIntervalDays = 365

	// FallbackW20 is used when a weight vector stops short of index 20.
	FallbackW20 = 0.5
)

// DefaultWeights are the FSRS-6 defaults published with py-fsrs.
var DefaultWeights = [WeightCount]float64{
	0.2172, 1.2931, 2.3065, 8.2956, // w0..w3   S₀(G) for Again, Hard, Good, Easy
	6.4133, 0.8334, 3.0194, 0.001, // w4..w7   D₀ centre, D₀ grade scale, ΔD coefficient, mean reversion
	1.8722, 0.1666, 0.796, 1.4835, // w8..w11  recall growth base, D exponent, S exponent, R exponent
	0.0614, 0.2629, 1.6483, 0.6014, // w12..w15 forget D exponent, S exponent, R exponent, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // w16..w19 easy bonus, short-term (unused here)
	0.1542, // w20 forgetting-curve decay
}

// Params is the Parameter Set for one scheduling session.
type Params struct {
	W               []float64 `json:"w" validate:"len=21"`
	TargetRetention float64   `json:"target_retention" validate:"gt=0,lt=1"`
	MaxIntervalDays int       `json:"max_interval_days" validate:"gte=1"`
}

// DefaultParams returns a fresh copy of the default parameter set.
func DefaultParams() Params {
	w := make([]float64, WeightCount)
	copy(w, DefaultWeights[:])
	return Params{
		W:               w,
		TargetRetention: DefaultTargetRetention,
		MaxIntervalDays: DefaultMaxIntervalDays,
	}
}

// W20 returns the curve decay weight, or FallbackW20 when the vector is short.
func (p Params) W20() float64 {
	if len(p.W) > 20 {
		return p.W[20]
	}
	return FallbackW20
}

var validate = validator.New()

// Validate checks the parameter set once, at load time, so the math
// functions can index the weight vector without per-call guards.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	for i, w := range p.W {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: w[%d] is not finite", ErrInvalidConfiguration, i)
		}
	}
	return nil
}
