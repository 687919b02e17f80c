package deck

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/roach88/recall/internal/fsrs"
)

// SchemaVersion is written to new snapshots.
const SchemaVersion = 1

// ScanHistory tracks every card id ever registered, in order of first
// appearance, and when the last bulk registration ran.
type ScanHistory struct {
	LastScan     *Timestamp `json:"last_scan"`
	LastScanID   string     `json:"last_scan_id,omitempty"`
	KnownCardIDs []string   `json:"known_card_ids"`
}

// Snapshot is the complete persisted state.
type Snapshot struct {
	Version        int               `json:"version"`
	Params         fsrs.Params       `json:"params"`
	Cards          map[string]*Card  `json:"cards"`
	ScanHistory    ScanHistory       `json:"scan_history"`
	SessionHistory []json.RawMessage `json:"session_history"`
}

// NewSnapshot returns the empty state with default parameters.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:        SchemaVersion,
		Params:         fsrs.DefaultParams(),
		Cards:          map[string]*Card{},
		ScanHistory:    ScanHistory{KnownCardIDs: []string{}},
		SessionHistory: []json.RawMessage{},
	}
}

// Normalize fills nil collections left by a partial document so that it
// behaves like the empty state.
func (s *Snapshot) Normalize() {
	if s.Cards == nil {
		s.Cards = map[string]*Card{}
	}
	if s.ScanHistory.KnownCardIDs == nil {
		s.ScanHistory.KnownCardIDs = []string{}
	}
	if s.SessionHistory == nil {
		s.SessionHistory = []json.RawMessage{}
	}
	for _, c := range s.Cards {
		if c != nil && c.ReviewLog == nil {
			c.ReviewLog = []ReviewLogEntry{}
		}
	}
}

// Validate checks the snapshot once after loading.
func (s *Snapshot) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	for id, c := range s.Cards {
		if c == nil {
			return fmt.Errorf("%w: card %q is null", ErrMalformedInput, id)
		}
		if !c.State.Valid() {
			return fmt.Errorf("%w: card %q has unknown state %q", ErrMalformedInput, id, c.State)
		}
	}
	return nil
}

// Card returns the card with the given id.
func (s *Snapshot) Card(id string) (*Card, bool) {
	c, ok := s.Cards[id]
	return c, ok
}

// IsKnown reports whether id has ever been registered.
func (s *Snapshot) IsKnown(id string) bool {
	for _, known := range s.ScanHistory.KnownCardIDs {
		if known == id {
			return true
		}
	}
	return false
}

// MarkKnown appends id to the scan history unless it is already present.
func (s *Snapshot) MarkKnown(id string) {
	if !s.IsKnown(id) {
		s.ScanHistory.KnownCardIDs = append(s.ScanHistory.KnownCardIDs, id)
	}
}

// OrderedCardIDs returns card ids in registration order: first the ids from
// scan history that still have a card, then any remaining ids sorted.
func (s *Snapshot) OrderedCardIDs() []string {
	ids := make([]string, 0, len(s.Cards))
	seen := make(map[string]bool, len(s.Cards))
	for _, id := range s.ScanHistory.KnownCardIDs {
		if _, ok := s.Cards[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range s.Cards {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
