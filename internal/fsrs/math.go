package fsrs

import "math"

// FallbackDecayFactor is the FSRS-5 factor used when w20 is not positive.
// It is kept as a literal for compatibility; it does not follow from the
// R(S, S) = 0.9 calibration.
const FallbackDecayFactor = 19.0 / 81.0

// Bounds applied by the update rules.
const (
	MinStability  = 0.01
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// DecayFactor derives the curve factor from w20 so that R(S, S) = 0.9.
// factor = 0.9^(-1/w20) - 1
func DecayFactor(w20 float64) float64 {
	if w20 <= 0 {
		return FallbackDecayFactor
	}
	return math.Pow(0.9, -1.0/w20) - 1.0
}

// InitDifficulty returns D₀(G) = w[4] - e^(w[5]*(G-1)) + 1, clamped to [1, 10].
func InitDifficulty(w []float64, rating Rating) float64 {
	return Clamp(w[4]-math.Exp(w[5]*float64(rating-1))+1, MinDifficulty, MaxDifficulty)
}

// InitStability returns S₀(G) = w[G-1], floored at MinStability.
func InitStability(w []float64, rating Rating) float64 {
	return math.Max(w[rating-1], MinStability)
}

// Retrievability evaluates the power-law forgetting curve.
// R(t, S) = (1 + factor*t/S)^(-w20); 0 when S <= 0.
func Retrievability(elapsedDays, stability, w20 float64) float64 {
	if stability <= 0 {
		return 0
	}
	factor := DecayFactor(w20)
	return math.Pow(1.0+factor*elapsedDays/stability, -w20)
}

// NextInterval inverts the curve for t at the target retention.
// I = S/factor * (R^(-1/w20) - 1), rounded half-to-even and clamped to
// [1, maxIntervalDays]. Returns 1 when targetRetention is outside (0, 1).
func NextInterval(stability, w20, targetRetention float64, maxIntervalDays int) int {
	if targetRetention <= 0 || targetRetention >= 1 {
		return 1
	}
	factor := DecayFactor(w20)
	iv := stability / factor * (math.Pow(targetRetention, -1.0/w20) - 1.0)
	if math.IsNaN(iv) {
		return 1
	}
	return int(Clamp(math.RoundToEven(iv), 1, float64(maxIntervalDays)))
}

// NextDifficulty applies the mean-reverting difficulty update.
//
//	ΔD  = -w[6] * (G - 3)
//	D'  = D + ΔD * (10 - D) / 9
//	D'' = w[7]*D₀(Easy) + (1 - w[7])*D'
func NextDifficulty(w []float64, difficulty float64, rating Rating) float64 {
	d0Easy := InitDifficulty(w, Easy)
	delta := -w[6] * float64(rating-3)
	dPrime := difficulty + delta*(MaxDifficulty-difficulty)/9.0
	return Clamp(w[7]*d0Easy+(1-w[7])*dPrime, MinDifficulty, MaxDifficulty)
}

// NextStabilitySuccess is the stability after a Hard, Good or Easy review.
//
//	SInc = e^w[8] * (11-D)^w[9] * S^(-w[10]) * (e^(w[11]*(1-R)) - 1) * penalty * bonus
//	S'   = max(S * (SInc + 1), MinStability)
func NextStabilitySuccess(w []float64, difficulty, stability, retrievability float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = w[16]
	}
	sInc := math.Exp(w[8]) *
		math.Pow(11-difficulty, w[9]) *
		math.Pow(stability, -w[10]) *
		(math.Exp(w[11]*(1-retrievability)) - 1) *
		hardPenalty *
		easyBonus
	return math.Max(stability*(sInc+1), MinStability)
}

// NextStabilityForget is the stability after an Again review.
//
//	S' = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^(w[14]*(1-R))
//
// The result is clamped to [MinStability, S]: forgetting never raises stability.
func NextStabilityForget(w []float64, difficulty, stability, retrievability float64) float64 {
	newS := w[11] *
		math.Pow(difficulty, -w[12]) *
		(math.Pow(stability+1, w[13]) - 1) *
		math.Exp(w[14]*(1-retrievability))
	return Clamp(newS, MinStability, stability)
}
