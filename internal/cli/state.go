package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/fsrs"
	"github.com/roach88/recall/internal/scheduler"
	"github.com/roach88/recall/internal/store"
)

// operation runs against a loaded scheduler. It returns the success payload
// or a domain error; it must not fail any other way.
type operation func(s *scheduler.Scheduler) (any, *scheduler.DomainError)

// runOperation loads the snapshot, applies op and, when mutate is set and
// op succeeded, saves the snapshot before printing the result. Fatal
// failures print an error document and return an ExitError.
func runOperation(cmd *cobra.Command, opts *RootOptions, mutate bool, op operation) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)
	log := opts.Log.With().Str("state", opts.Config.StatePath).Logger()

	st, err := store.Open(ctx, store.Backend(opts.Config.Backend), opts.Config.StatePath)
	if err != nil {
		return fatal(f, ErrCodeStorage, "failed to open state", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing state")
		}
	}()

	snap, err := loadSnapshot(ctx, st, opts)
	if err != nil {
		return fatal(f, loadErrorCode(err), "failed to load state", err)
	}
	log.Debug().Int("cards", len(snap.Cards)).Msg("state loaded")

	sched := scheduler.New(snap,
		scheduler.WithClock(opts.Clock),
		scheduler.WithIDGenerator(opts.IDs),
		scheduler.WithLogger(log),
	)

	data, domainErr := op(sched)
	if domainErr != nil {
		log.Info().Str("code", string(domainErr.Code)).Msg(domainErr.Message)
		return f.Error(string(domainErr.Code), domainErr.Message, domainDetails(domainErr))
	}

	if mutate {
		if err := st.Save(ctx, snap); err != nil {
			return fatal(f, ErrCodeStorage, "failed to save state", err)
		}
		log.Debug().Msg("state saved")
	}
	return f.Success(data)
}

// loadSnapshot loads the stored snapshot. Configured parameters seed only a
// snapshot created because nothing was stored; a stored document keeps its
// own parameters.
func loadSnapshot(ctx context.Context, st store.Store, opts *RootOptions) (*deck.Snapshot, error) {
	snap, err := st.Load(ctx)
	if !errors.Is(err, store.ErrNoState) {
		return snap, err
	}

	snap = deck.NewSnapshot()
	opts.Config.Params.Apply(&snap.Params)
	if err := snap.Params.Validate(); err != nil {
		return nil, fmt.Errorf("configured parameters: %w", err)
	}
	return snap, nil
}

// fatal prints an error document and returns an ExitError.
func fatal(f *OutputFormatter, code, message string, err error) error {
	_ = f.Error(code, message+": "+err.Error(), nil)
	return WrapExitError(ExitFailure, message, err)
}

func loadErrorCode(err error) string {
	switch {
	case errors.Is(err, fsrs.ErrInvalidConfiguration):
		return ErrCodeInvalidConfiguration
	case errors.Is(err, deck.ErrMalformedInput):
		return ErrCodeMalformedInput
	default:
		return ErrCodeStorage
	}
}

func domainDetails(err *scheduler.DomainError) any {
	if err.CardID == "" {
		return nil
	}
	return map[string]string{"id": err.CardID}
}
