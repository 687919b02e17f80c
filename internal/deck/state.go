package deck

// State is a card's position in its lifecycle.
//
// new → learning (first rating Again) or review (first rating Hard/Good/Easy).
// Afterwards Again always moves to learning and any other rating to review.
// There is no terminal state.
type State string

const (
	StateNew      State = "new"
	StateLearning State = "learning"
	StateReview   State = "review"
)

// Priority orders due cards: learning before review before new.
// Unknown states sort with new.
func (s State) Priority() int {
	switch s {
	case StateLearning:
		return 0
	case StateReview:
		return 1
	default:
		return 2
	}
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview:
		return true
	}
	return false
}
