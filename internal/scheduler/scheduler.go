package scheduler

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/roach88/recall/internal/clock"
	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/logging"
)

// DefaultDueLimit is the result size used when callers do not specify one.
const DefaultDueLimit = 10

// Scheduler applies review operations to one snapshot.
//
// A Scheduler is not safe for concurrent use; the design assumes a single
// operation in flight per snapshot.
type Scheduler struct {
	snap  *deck.Snapshot
	clock clock.Clock
	ids   IDGenerator
	log   zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock (default clock.System).
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithIDGenerator overrides the scan id generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scheduler) { s.ids = g }
}

// WithLogger sets the logger (default: disabled).
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler over snap.
func New(snap *deck.Snapshot, opts ...Option) *Scheduler {
	s := &Scheduler{
		snap:  snap,
		clock: clock.System{},
		ids:   UUIDv7Generator{},
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the state the scheduler operates on.
func (s *Scheduler) Snapshot() *deck.Snapshot {
	return s.snap
}

// Today returns the current calendar date.
func (s *Scheduler) Today() deck.Date {
	return deck.DateOf(s.clock.Now())
}

// round rounds x to the given number of decimal places, half away from zero.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
