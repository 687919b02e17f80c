package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/recall/internal/fsrs"
	"github.com/roach88/recall/internal/scheduler"
)

// Text renderings for --format text. Each type marshals to JSON exactly
// like the scheduler value it wraps.

type dueText []scheduler.DueCard

func (d dueText) WriteText(w io.Writer) error {
	if len(d) == 0 {
		_, err := fmt.Fprintln(w, "No cards due.")
		return err
	}
	for _, c := range d {
		if _, err := fmt.Fprintf(w, "%-8s R=%.4f due %s overdue %dd  %s  %s\n",
			c.State, c.Retrievability, c.DueDate, c.OverdueDays, c.ID, c.Title); err != nil {
			return err
		}
	}
	return nil
}

type recordText scheduler.RecordOutcome

func (r recordText) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %s, next review in %d day(s) on %s (S=%.2f D=%.2f R=%.4f)\n",
		r.ID, r.Rating, r.IntervalDays, r.DueDate, r.Stability, r.Difficulty, r.Retrievability)
	return err
}

type registerText scheduler.RegisterOutcome

func (r registerText) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s: %s\n", r.Status, r.ID, r.Title)
	return err
}

type bulkText scheduler.BulkOutcome

func (b bulkText) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d new, %d existing, %d skipped (scan %s)\n",
		b.New, b.Existing, b.Skipped, b.ScanID)
	return err
}

type sessionText scheduler.SessionOutcome

func (s sessionText) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Session recorded (%d total)\n", s.TotalSessions)
	return err
}

type statsText scheduler.Stats

func (s statsText) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Cards:          %d\n", s.TotalCards)

	states := make([]string, 0, len(s.ByState))
	for st, n := range s.ByState {
		states = append(states, fmt.Sprintf("%s=%d", st, n))
	}
	sort.Strings(states)
	fmt.Fprintf(&b, "By state:       %s\n", strings.Join(states, " "))

	fmt.Fprintf(&b, "Due today:      %d\n", s.DueToday)
	if s.NextDue != nil {
		fmt.Fprintf(&b, "Next due:       %s\n", *s.NextDue)
	}
	fmt.Fprintf(&b, "Avg difficulty: %.2f\n", s.AvgDifficulty)
	fmt.Fprintf(&b, "Avg stability:  %.2f\n", s.AvgStability)
	fmt.Fprintf(&b, "Reviews:        %d (Again=%d Hard=%d Good=%d Easy=%d)\n", s.TotalReviews,
		s.RatingDistribution.Again, s.RatingDistribution.Hard,
		s.RatingDistribution.Good, s.RatingDistribution.Easy)
	fmt.Fprintf(&b, "Sessions:       %d\n", s.TotalSessions)
	if s.LastScan != nil {
		fmt.Fprintf(&b, "Last scan:      %s\n", *s.LastScan)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type paramsText fsrs.Params

func (p paramsText) WriteText(w io.Writer) error {
	weights := make([]string, len(p.W))
	for i, v := range p.W {
		weights[i] = fmt.Sprint(v)
	}
	_, err := fmt.Fprintf(w, "target_retention: %v\nmax_interval_days: %d\nw: %s\n",
		p.TargetRetention, p.MaxIntervalDays, strings.Join(weights, " "))
	return err
}
