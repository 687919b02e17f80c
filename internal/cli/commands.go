package cli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roach88/recall/internal/fsrs"
	"github.com/roach88/recall/internal/scheduler"
)

// DueOptions holds flags for the due command.
type DueOptions struct {
	*RootOptions
	Limit int
}

// NewDueCommand creates the due command.
func NewDueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due for review, most urgent first",
		Long: `List cards due for review.

Cards in learning come first, then scheduled reviews, then new cards. Within
each group the card with the lowest retrievability comes first.

Example:
  recall due --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := opts.Config.DueLimit
			if cmd.Flags().Changed("limit") {
				limit = opts.Limit
			}
			return runOperation(cmd, opts.RootOptions, false, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				return dueText(s.Due(limit)), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", scheduler.DefaultDueLimit, "maximum number of cards")

	return cmd
}

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	ID     string
	Rating string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a review result",
		Long: `Record a review result and reschedule the card.

Ratings: 1=Again, 2=Hard, 3=Good, 4=Easy (names are accepted too).

Example:
  recall record --id go-ctx --rating 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts.RootOptions, true, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				if opts.ID == "" {
					return nil, missingIDError()
				}
				rating, err := parseRating(opts.Rating)
				if err != nil {
					return nil, err
				}
				res := s.Record(opts.ID, rating)
				if res.IsErr() {
					return nil, res.Err
				}
				return recordText(*res.Value), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "card identifier")
	cmd.Flags().StringVar(&opts.Rating, "rating", "3", "rating 1-4")

	return cmd
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	ID      string
	Title   string
	Content string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register one card",
		Long: `Register one card. Registering a known id changes nothing and reports "exists".

Example:
  recall register --id go-ctx --title "Contexts" --content "Cancellation propagates..."`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts.RootOptions, true, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				if opts.ID == "" {
					return nil, missingIDError()
				}
				return registerText(s.Register(opts.ID, opts.Title, opts.Content)), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "card identifier")
	cmd.Flags().StringVar(&opts.Title, "title", "", "card title")
	cmd.Flags().StringVar(&opts.Content, "content", "", "source content (first 500 characters are kept)")

	return cmd
}

// NewBulkRegisterCommand creates the bulk-register command.
func NewBulkRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk-register",
		Short: "Register cards from a JSON array on stdin",
		Long: `Register cards from a JSON array of {"id","title","content"} objects on stdin.

Entries without an id are skipped and counted. Input that is not a JSON
array of objects aborts the call without touching the state.

Example:
  echo '[{"id":"go-ctx","title":"Contexts","content":"..."}]' | recall bulk-register`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readBulkEntries(cmd.InOrStdin())
			if err != nil {
				return fatal(rootOpts.formatter(cmd), ErrCodeMalformedInput, "invalid JSON on stdin", err)
			}
			return runOperation(cmd, rootOpts, true, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				return bulkText(s.BulkRegister(entries)), nil
			})
		},
	}

	return cmd
}

// NewRecordSessionCommand creates the record-session command.
func NewRecordSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record-session",
		Short: "Append a session summary read from stdin",
		Long: `Append a caller-defined JSON session summary, read from stdin, to the
session history. The summary is stored verbatim.

Example:
  echo '{"reviewed":12,"again":2}' | recall record-session`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := readJSONValue(cmd.InOrStdin())
			if err != nil {
				return fatal(rootOpts.formatter(cmd), ErrCodeMalformedInput, "invalid JSON on stdin", err)
			}
			return runOperation(cmd, rootOpts, true, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				return sessionText(s.RecordSession(summary)), nil
			})
		},
	}

	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Print statistics about the card pool",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, rootOpts, false, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				return statsText(s.Stats()), nil
			})
		},
	}

	return cmd
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "params",
		Short:         "Print the parameter set in effect",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, rootOpts, false, func(s *scheduler.Scheduler) (any, *scheduler.DomainError) {
				return paramsText(s.Snapshot().Params), nil
			})
		},
	}

	return cmd
}

func missingIDError() *scheduler.DomainError {
	return &scheduler.DomainError{
		Code:    scheduler.ErrCodeMissingIdentifier,
		Message: "Missing --id",
	}
}

// parseRating accepts "1".."4" or a rating name. Anything else is an
// INVALID_RATING domain error.
func parseRating(s string) (int, *scheduler.DomainError) {
	r, err := fsrs.ParseRating(s)
	if err != nil || !r.Valid() {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, &scheduler.DomainError{
				Code:    scheduler.ErrCodeInvalidRating,
				Message: fmt.Sprintf("Invalid rating: %s. Must be 1-4.", s),
			}
		}
		return 0, scheduler.NewInvalidRatingError(n)
	}
	return int(r), nil
}

// readJSONValue reads one JSON document from r.
func readJSONValue(r io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("not a JSON document")
	}
	return json.RawMessage(data), nil
}

// readBulkEntries decodes a JSON array of objects. Non-string ids and titles
// are converted to text; ids without identity (see idField) mark an entry as
// skipped.
func readBulkEntries(r io.Reader) ([]scheduler.RegisterEntry, error) {
	raw, err := readJSONValue(r)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array of objects: %w", err)
	}

	entries := make([]scheduler.RegisterEntry, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("entry %d is null", i)
		}
		entries = append(entries, scheduler.RegisterEntry{
			ID:      idField(item["id"]),
			Title:   textField(item["title"]),
			Content: textField(item["content"]),
		})
	}
	return entries, nil
}

// idField converts an entry id to text. null, false, 0, "" and empty
// arrays or objects yield "".
func idField(v any) string {
	switch v := v.(type) {
	case float64:
		if v == 0 {
			return ""
		}
	case []any:
		if len(v) == 0 {
			return ""
		}
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	return textField(v)
}

func textField(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
