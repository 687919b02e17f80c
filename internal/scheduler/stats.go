package scheduler

import (
	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
)

// RatingDistribution counts log entries per rating.
type RatingDistribution struct {
	Again int `json:"Again"`
	Hard  int `json:"Hard"`
	Good  int `json:"Good"`
	Easy  int `json:"Easy"`
}

// Stats is a read-only rollup over the card population.
type Stats struct {
	TotalCards         int                `json:"total_cards"`
	ByState            map[deck.State]int `json:"by_state"`
	DueToday           int                `json:"due_today"`
	NextDue            *deck.Date         `json:"next_due"`
	AvgDifficulty      float64            `json:"avg_difficulty"`
	AvgStability       float64            `json:"avg_stability"`
	TotalReviews       int                `json:"total_reviews"`
	RatingDistribution RatingDistribution `json:"rating_distribution"`
	TotalSessions      int                `json:"total_sessions"`
	KnownCardIDs       []string           `json:"known_card_ids"`
	LastScan           *deck.Timestamp    `json:"last_scan"`
}

// Stats aggregates the current snapshot. Averages cover non-new cards only.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		TotalCards:    len(s.snap.Cards),
		ByState:       map[deck.State]int{},
		TotalSessions: len(s.snap.SessionHistory),
		KnownCardIDs:  s.snap.ScanHistory.KnownCardIDs,
		LastScan:      s.snap.ScanHistory.LastScan,
	}
	if st.KnownCardIDs == nil {
		st.KnownCardIDs = []string{}
	}

	today := s.Today()
	var sumD, sumS float64
	var reviewed int

	for _, c := range s.snap.Cards {
		st.ByState[c.State]++

		if c.IsDue(today) {
			st.DueToday++
		} else if st.NextDue == nil || c.DueDate.Before(*st.NextDue) {
			next := c.DueDate
			st.NextDue = &next
		}

		if c.State != deck.StateNew {
			sumD += c.Difficulty
			sumS += c.Stability
			reviewed++
		}
		st.TotalReviews += c.Reps

		for _, entry := range c.ReviewLog {
			switch entry.Rating {
			case fsrs.Again:
				st.RatingDistribution.Again++
			case fsrs.Hard:
				st.RatingDistribution.Hard++
			case fsrs.Good:
				st.RatingDistribution.Good++
			case fsrs.Easy:
				st.RatingDistribution.Easy++
			}
		}
	}

	if reviewed > 0 {
		st.AvgDifficulty = round(sumD/float64(reviewed), 2)
		st.AvgStability = round(sumS/float64(reviewed), 2)
	}
	return st
}
