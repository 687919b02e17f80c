package scheduler

import (
	"sort"

	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
)

// DueCard summarizes one card selected for review.
type DueCard struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	State          deck.State `json:"state"`
	Retrievability float64    `json:"retrievability"`
	DueDate        deck.Date  `json:"due_date"`
	Reps           int        `json:"reps"`
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	OverdueDays    int        `json:"overdue_days"`
}

// Due returns up to limit cards due today, most urgent first.
//
// New cards are always due with retrievability 0. Other cards are due when
// due_date <= today. Ordering is learning, then review, then new; within a
// state by retrievability ascending; remaining ties by card id.
func (s *Scheduler) Due(limit int) []DueCard {
	if limit <= 0 {
		return []DueCard{}
	}

	today := s.Today()
	w20 := s.snap.Params.W20()
	due := make([]DueCard, 0, len(s.snap.Cards))

	for id, c := range s.snap.Cards {
		if c.State == deck.StateNew {
			due = append(due, DueCard{
				ID:          id,
				Title:       c.Title,
				State:       c.State,
				DueDate:     c.DueDate,
				Reps:        c.Reps,
				Stability:   c.Stability,
				Difficulty:  c.Difficulty,
				OverdueDays: 0,
			})
			continue
		}
		if !c.IsDue(today) {
			continue
		}

		elapsed := c.ElapsedDays(today)
		r := fsrs.Retrievability(float64(elapsed), c.Stability, w20)

		due = append(due, DueCard{
			ID:             id,
			Title:          c.Title,
			State:          c.State,
			Retrievability: round(r, 4),
			DueDate:        c.DueDate,
			Reps:           c.Reps,
			Stability:      round(c.Stability, 2),
			Difficulty:     round(c.Difficulty, 2),
			OverdueDays:    today.DaysSince(c.DueDate),
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if pa, pb := a.State.Priority(), b.State.Priority(); pa != pb {
			return pa < pb
		}
		if a.Retrievability != b.Retrievability {
			return a.Retrievability < b.Retrievability
		}
		return a.ID < b.ID
	})

	if len(due) > limit {
		due = due[:limit]
	}

	s.log.Debug().Int("due", len(due)).Int("limit", limit).Msg("selected due cards")
	return due
}
