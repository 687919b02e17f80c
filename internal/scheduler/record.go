package scheduler

import (
	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
)

// RecordOutcome summarizes a recorded review.
type RecordOutcome struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Rating         string    `json:"rating"`
	IntervalDays   int       `json:"interval_days"`
	DueDate        deck.Date `json:"due_date"`
	Stability      float64   `json:"stability"`
	Difficulty     float64   `json:"difficulty"`
	Retrievability float64   `json:"retrievability"`
}

// Record applies one review to the card with the given id.
//
// Unknown ids and ratings outside 1..4 are returned as domain errors and
// leave the snapshot untouched.
func (s *Scheduler) Record(id string, rating int) Result[RecordOutcome] {
	c, ok := s.snap.Card(id)
	if !ok {
		return Fail[RecordOutcome](NewNotFoundError(id))
	}
	g := fsrs.Rating(rating)
	if !g.Valid() {
		return Fail[RecordOutcome](NewInvalidRatingError(rating))
	}

	p := s.snap.Params
	w20 := p.W20()
	today := s.Today()

	elapsed := c.ElapsedDays(today)

	var r float64
	if c.Stability > 0 {
		r = fsrs.Retrievability(float64(elapsed), c.Stability, w20)
	}

	dBefore := c.Difficulty
	sBefore := c.Stability

	if c.State == deck.StateNew {
		c.Difficulty = fsrs.InitDifficulty(p.W, g)
		c.Stability = fsrs.InitStability(p.W, g)
		if g == fsrs.Again {
			c.State = deck.StateLearning
		} else {
			c.State = deck.StateReview
		}
	} else {
		// Stability must see the pre-review difficulty.
		newD := fsrs.NextDifficulty(p.W, dBefore, g)
		if g == fsrs.Again {
			c.Stability = fsrs.NextStabilityForget(p.W, dBefore, sBefore, r)
			c.Lapses++
			c.State = deck.StateLearning
		} else {
			c.Stability = fsrs.NextStabilitySuccess(p.W, dBefore, sBefore, r, g)
			c.State = deck.StateReview
		}
		c.Difficulty = newD
	}

	interval := fsrs.NextInterval(c.Stability, w20, p.TargetRetention, p.MaxIntervalDays)
	c.DueDate = today.AddDays(interval)
	reviewed := today
	c.LastReview = &reviewed
	c.Reps++

	c.ReviewLog = append(c.ReviewLog, deck.ReviewLogEntry{
		Date:             today,
		Rating:           g,
		ElapsedDays:      elapsed,
		Retrievability:   round(r, 4),
		StabilityBefore:  round(sBefore, 4),
		StabilityAfter:   round(c.Stability, 4),
		DifficultyBefore: round(dBefore, 4),
		DifficultyAfter:  round(c.Difficulty, 4),
		Interval:         interval,
	})

	s.log.Debug().
		Str("id", id).
		Str("rating", g.String()).
		Str("state", string(c.State)).
		Int("interval", interval).
		Msg("recorded review")

	return Ok(RecordOutcome{
		ID:             id,
		Title:          c.Title,
		Rating:         g.String(),
		IntervalDays:   interval,
		DueDate:        c.DueDate,
		Stability:      round(c.Stability, 2),
		Difficulty:     round(c.Difficulty, 2),
		Retrievability: round(r, 4),
	})
}
