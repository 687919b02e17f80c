package scheduler

import (
	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/textutil"
)

// Registration statuses.
const (
	StatusRegistered = "registered"
	StatusExists     = "exists"
)

// RegisterOutcome reports the result of registering one card.
type RegisterOutcome struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Title  string `json:"title"`
}

// RegisterEntry is one element of a bulk registration batch.
type RegisterEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BulkOutcome summarizes a bulk registration.
type BulkOutcome struct {
	Total    int               `json:"total"`
	New      int               `json:"new"`
	Existing int               `json:"existing"`
	Skipped  int               `json:"skipped"`
	ScanID   string            `json:"scan_id"`
	Cards    []RegisterOutcome `json:"cards"`
}

// Register creates a new card due today. Registering a known id is a no-op
// that reports StatusExists with the stored title.
func (s *Scheduler) Register(id, title, content string) RegisterOutcome {
	if c, ok := s.snap.Card(id); ok {
		if title != "" && !textutil.Equal(title, c.Title) {
			s.log.Debug().
				Str("id", id).
				Str("stored_title", c.Title).
				Str("title", title).
				Msg("title differs from registered card")
		}
		return RegisterOutcome{Status: StatusExists, ID: id, Title: c.Title}
	}

	snippet := textutil.Snippet(content, deck.SnippetRunes)

	s.snap.Cards[id] = deck.NewCard(title, snippet, s.Today())
	s.snap.MarkKnown(id)

	s.log.Debug().Str("id", id).Msg("registered card")
	return RegisterOutcome{Status: StatusRegistered, ID: id, Title: title}
}

// BulkRegister registers entries in order. Entries without an id are
// skipped and counted. The last scan time is updated even when every entry
// was skipped.
func (s *Scheduler) BulkRegister(entries []RegisterEntry) BulkOutcome {
	out := BulkOutcome{Cards: make([]RegisterOutcome, 0, len(entries))}

	for _, e := range entries {
		if e.ID == "" {
			out.Skipped++
			continue
		}
		res := s.Register(e.ID, e.Title, e.Content)
		switch res.Status {
		case StatusRegistered:
			out.New++
		case StatusExists:
			out.Existing++
		}
		out.Cards = append(out.Cards, res)
	}
	out.Total = len(out.Cards)

	scanned := deck.NewTimestamp(s.clock.Now())
	out.ScanID = s.ids.Generate()
	s.snap.ScanHistory.LastScan = &scanned
	s.snap.ScanHistory.LastScanID = out.ScanID

	if out.Skipped > 0 {
		s.log.Warn().
			Str("code", string(ErrCodeMissingIdentifier)).
			Int("skipped", out.Skipped).
			Msg("skipped entries without id")
	}
	s.log.Debug().
		Str("scan_id", out.ScanID).
		Int("new", out.New).
		Int("existing", out.Existing).
		Msg("bulk registration complete")
	return out
}
