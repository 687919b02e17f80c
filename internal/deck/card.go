package deck

import "github.com/roach88/recall/internal/fsrs"

// SnippetRunes is how much of a card's source content is kept for display.
const SnippetRunes = 500

// Card is one unit of knowledge under review.
//
// Difficulty and Stability are only meaningful once State != StateNew;
// readers must branch on State first. The scheduler is the only writer.
type Card struct {
	Title          string           `json:"title"`
	ContentSnippet string           `json:"content_snippet"`
	State          State            `json:"state"`
	Difficulty     float64          `json:"difficulty"`
	Stability      float64          `json:"stability"`
	DueDate        Date             `json:"due_date"`
	LastReview     *Date            `json:"last_review"`
	Reps           int              `json:"reps"`
	Lapses         int              `json:"lapses"`
	ReviewLog      []ReviewLogEntry `json:"review_log"`
}

// NewCard returns a never-reviewed card due on today.
func NewCard(title, snippet string, today Date) *Card {
	return &Card{
		Title:          title,
		ContentSnippet: snippet,
		State:          StateNew,
		DueDate:        today,
		ReviewLog:      []ReviewLogEntry{},
	}
}

// IsDue reports whether the card's due date is on or before today.
func (c *Card) IsDue(today Date) bool {
	return !c.DueDate.After(today)
}

// ElapsedDays returns days since the last review, or 0 if never reviewed
// or if the last review is dated after today.
func (c *Card) ElapsedDays(today Date) int {
	if c.LastReview == nil {
		return 0
	}
	if elapsed := today.DaysSince(*c.LastReview); elapsed > 0 {
		return elapsed
	}
	return 0
}

// ReviewLogEntry is an immutable record of one review. Entries are only
// ever appended to Card.ReviewLog.
type ReviewLogEntry struct {
	Date             Date        `json:"date"`
	Rating           fsrs.Rating `json:"rating"`
	ElapsedDays      int         `json:"elapsed_days"`
	Retrievability   float64     `json:"retrievability"`
	StabilityBefore  float64     `json:"stability_before"`
	StabilityAfter   float64     `json:"stability_after"`
	DifficultyBefore float64     `json:"difficulty_before"`
	DifficultyAfter  float64     `json:"difficulty_after"`
	Interval         int         `json:"interval"`
}
