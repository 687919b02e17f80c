package harness

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/roach88/recall/internal/clock"
	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/logging"
	"github.com/roach88/recall/internal/scheduler"
	"github.com/roach88/recall/internal/store"
	"github.com/roach88/recall/internal/testutil"
)

// scenarioHour is the time of day the scenario clock is frozen at.
const scenarioHour = 9

// Harness is the scenario execution engine.
// It runs scenarios with a frozen calendar and deterministic scan ids.
type Harness struct {
	store  *store.SQLiteStore
	snap   *deck.Snapshot
	sched  *scheduler.Scheduler
	clock  *clock.Fixed
	seq    *testutil.Sequence
	logger zerolog.Logger
}

// advanceOutcome is the completion result of the advance action.
type advanceOutcome struct {
	Today deck.Date `json:"today"`
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh snapshot and a fresh in-memory
// database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and empty snapshot
// 2. Execute setup steps (any failure aborts the run)
// 3. Execute flow steps and compare against expect clauses
// 4. Save the snapshot so final_state assertions can query it
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, logging.Nop())
}

// RunWithLogger is Run with scheduler and harness logging sent to logger.
func RunWithLogger(scenario *Scenario, logger zerolog.Logger) (*Result, error) {
	ctx := context.Background()

	start, err := time.Parse(deck.DateLayout, scenario.Today)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	st, err := store.OpenSQLite(ctx, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	snap := deck.NewSnapshot()
	if p := scenario.Params; p != nil {
		if p.TargetRetention != 0 {
			snap.Params.TargetRetention = p.TargetRetention
		}
		if p.MaxIntervalDays != 0 {
			snap.Params.MaxIntervalDays = p.MaxIntervalDays
		}
	}
	if err := snap.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario params: %w", err)
	}

	clk := clock.NewFixed(start.Add(scenarioHour * time.Hour))
	h := &Harness{
		store: st,
		snap:  snap,
		sched: scheduler.New(snap,
			scheduler.WithClock(clk),
			scheduler.WithIDGenerator(testutil.NewSequentialIDs("scan")),
			scheduler.WithLogger(logger),
		),
		clock:  clk,
		seq:    testutil.NewSequence(),
		logger: logger,
	}

	result := NewResult()
	if err := h.executeSetup(scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	if err := h.store.Save(ctx, h.snap); err != nil {
		return nil, fmt.Errorf("failed to save final state: %w", err)
	}

	actx := &AssertionContext{
		Store: h.store,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. Setup steps must complete with "ok".
func (h *Harness) executeSetup(setup []ActionStep, result *Result) error {
	for i, step := range setup {
		result.AddInvocationTrace(step.Action, step.Args, h.seq.Next())

		outputCase, value, err := h.invoke(step.Action, step.Args)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		result.AddCompletionTrace(outputCase, value, h.seq.Next())

		if outputCase != CaseOK {
			return fmt.Errorf("setup step %d: %s completed with %s", i, step.Action, outputCase)
		}

		h.logger.Debug().
			Int("step", i).
			Str("action", step.Action).
			Msg("setup step completed")
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Records the invocation in the trace
// 2. Invokes the scheduler operation
// 3. Records the actual completion in the trace
// 4. Compares the completion with the expect clause (subset match)
func (h *Harness) executeFlow(flow []FlowStep, result *Result) error {
	for i, step := range flow {
		result.AddInvocationTrace(step.Invoke, step.Args, h.seq.Next())

		outputCase, value, err := h.invoke(step.Invoke, step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		result.AddCompletionTrace(outputCase, value, h.seq.Next())

		expectedCase := CaseOK
		if step.Expect != nil {
			expectedCase = step.Expect.Case
		}

		if outputCase != expectedCase {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q",
				i, step.Invoke, expectedCase, outputCase))
		} else if step.Expect != nil {
			for _, mismatch := range compareResult(step.Expect.Result, value) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, mismatch))
			}
		}

		h.logger.Debug().
			Int("step", i).
			Str("action", step.Invoke).
			Str("output_case", outputCase).
			Msg("flow step completed")
	}

	return nil
}

// invoke dispatches one action to the scheduler. It returns the output
// case, the completion result in generic JSON form, and an error only when
// the step itself is malformed.
func (h *Harness) invoke(action string, args map[string]interface{}) (string, interface{}, error) {
	var out interface{}
	outputCase := CaseOK

	switch action {
	case ActionRegister:
		id, err := stringArg(args, "id", true)
		if err != nil {
			return "", nil, err
		}
		title, err := stringArg(args, "title", false)
		if err != nil {
			return "", nil, err
		}
		content, err := stringArg(args, "content", false)
		if err != nil {
			return "", nil, err
		}
		out = h.sched.Register(id, title, content)

	case ActionBulkRegister:
		entries, err := entriesArg(args)
		if err != nil {
			return "", nil, err
		}
		out = h.sched.BulkRegister(entries)

	case ActionRecord:
		id, err := stringArg(args, "id", true)
		if err != nil {
			return "", nil, err
		}
		rating, err := intArg(args, "rating", 0)
		if err != nil {
			return "", nil, err
		}
		res := h.sched.Record(id, rating)
		if res.IsErr() {
			outputCase = string(res.Err.Code)
			out = res.Err
		} else {
			out = res.Value
		}

	case ActionRecordSession:
		summary, ok := args["summary"]
		if !ok {
			return "", nil, fmt.Errorf("%s: summary is required", action)
		}
		raw, err := json.Marshal(summary)
		if err != nil {
			return "", nil, fmt.Errorf("%s: encode summary: %w", action, err)
		}
		out = h.sched.RecordSession(raw)

	case ActionDue:
		limit, err := intArg(args, "limit", scheduler.DefaultDueLimit)
		if err != nil {
			return "", nil, err
		}
		out = h.sched.Due(limit)

	case ActionStats:
		out = h.sched.Stats()

	case ActionAdvance:
		days, err := intArg(args, "days", 1)
		if err != nil {
			return "", nil, err
		}
		if days < 0 {
			return "", nil, fmt.Errorf("%s: days must be non-negative, got %d", action, days)
		}
		h.clock.AdvanceDays(days)
		out = advanceOutcome{Today: h.sched.Today()}

	default:
		return "", nil, fmt.Errorf("unknown action %q", action)
	}

	generic, err := toGeneric(out)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", action, err)
	}
	return outputCase, generic, nil
}

// toGeneric round-trips v through JSON so results compare and serialize
// exactly as the CLI would print them.
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return generic, nil
}

// stringArg reads a string argument. Missing optional arguments are "".
func stringArg(args map[string]interface{}, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("argument %q is required", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case int, int64, float64, bool:
		return fmt.Sprint(val), nil
	default:
		return "", fmt.Errorf("argument %q: unsupported type %T", key, v)
	}
}

// intArg reads an integer argument, falling back to def when absent.
func intArg(args map[string]interface{}, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("argument %q: %v is not an integer", key, val)
		}
		return int(val), nil
	default:
		return 0, fmt.Errorf("argument %q: unsupported type %T", key, v)
	}
}

// entriesArg reads the bulk_register entries list.
func entriesArg(args map[string]interface{}) ([]scheduler.RegisterEntry, error) {
	raw, ok := args["entries"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q must be a list", "entries")
	}
	entries := make([]scheduler.RegisterEntry, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("entries[%d]: must be a map, got %T", i, item)
		}
		var e scheduler.RegisterEntry
		var err error
		if e.ID, err = stringArg(m, "id", false); err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		if e.Title, err = stringArg(m, "title", false); err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		if e.Content, err = stringArg(m, "content", false); err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
