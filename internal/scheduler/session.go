package scheduler

import (
	json "github.com/goccy/go-json"
)

// SessionOutcome reports the session history length after an append.
type SessionOutcome struct {
	Status        string `json:"status"`
	TotalSessions int    `json:"total_sessions"`
}

// RecordSession appends a caller-defined session summary verbatim.
// The summary is opaque; callers validate it is well-formed JSON.
func (s *Scheduler) RecordSession(summary json.RawMessage) SessionOutcome {
	kept := make(json.RawMessage, len(summary))
	copy(kept, summary)
	s.snap.SessionHistory = append(s.snap.SessionHistory, kept)

	s.log.Debug().Int("total_sessions", len(s.snap.SessionHistory)).Msg("recorded session")
	return SessionOutcome{Status: "ok", TotalSessions: len(s.snap.SessionHistory)}
}
