package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recall/internal/deck"
	"github.com/roach88/recall/internal/store"
)

func TestAssertTraceContains_Found(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "record", Args: map[string]interface{}{"id": "c1", "rating": 3}, Seq: 1},
		{Type: "completion", OutputCase: "ok", Seq: 2},
	}

	assertion := Assertion{
		Type:   AssertTraceContains,
		Action: "record",
		Args:   map[string]interface{}{"id": "c1"},
	}

	err := assertTraceContains(trace, assertion)
	assert.NoError(t, err)
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "register", Args: map[string]interface{}{"id": "c1"}, Seq: 1},
		{Type: "completion", OutputCase: "ok", Seq: 2},
	}

	assertion := Assertion{
		Type:   AssertTraceContains,
		Action: "record",
	}

	err := assertTraceContains(trace, assertion)
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "trace_contains", assertErr.Type)
	assert.Contains(t, assertErr.Expected, "record")
	assert.Equal(t, "not found in trace", assertErr.Actual)
}

func TestAssertTraceContains_WrongArgs(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "record", Args: map[string]interface{}{"rating": 3}, Seq: 1},
	}

	assertion := Assertion{
		Type:   AssertTraceContains,
		Action: "record",
		Args:   map[string]interface{}{"rating": 1},
	}

	err := assertTraceContains(trace, assertion)
	require.Error(t, err)
}

func TestAssertTraceContains_IgnoresCompletions(t *testing.T) {
	trace := []TraceEvent{
		{Type: "completion", ActionURI: "record", OutputCase: "ok", Seq: 2},
	}

	err := assertTraceContains(trace, Assertion{Type: AssertTraceContains, Action: "record"})
	require.Error(t, err)
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "register", Seq: 1},
		{Type: "completion", OutputCase: "ok", Seq: 2},
		{Type: "invocation", ActionURI: "advance", Seq: 3},
		{Type: "completion", OutputCase: "ok", Seq: 4},
		{Type: "invocation", ActionURI: "record", Seq: 5},
		{Type: "completion", OutputCase: "ok", Seq: 6},
	}

	assertion := Assertion{
		Type:    AssertTraceOrder,
		Actions: []string{"register", "record"},
	}

	err := assertTraceOrder(trace, assertion)
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "record", Seq: 1},
		{Type: "invocation", ActionURI: "register", Seq: 3},
	}

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: []string{"register", "record"}})
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Contains(t, assertErr.Actual, "should be before")
}

func TestAssertTraceOrder_MissingAction(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "register", Seq: 1},
	}

	err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: []string{"register", "due"}})
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "missing action: due", assertErr.Actual)
}

func TestAssertTraceCount(t *testing.T) {
	trace := []TraceEvent{
		{Type: "invocation", ActionURI: "due", Seq: 1},
		{Type: "completion", OutputCase: "ok", Seq: 2},
		{Type: "invocation", ActionURI: "due", Seq: 3},
		{Type: "completion", OutputCase: "ok", Seq: 4},
	}

	tests := []struct {
		name    string
		action  string
		count   int
		wantErr bool
	}{
		{"exact", "due", 2, false},
		{"too_few", "due", 3, true},
		{"too_many", "due", 1, true},
		{"zero", "stats", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Action: tt.action, Count: tt.count})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchArgs_SubsetSemantics(t *testing.T) {
	tests := []struct {
		name     string
		actual   interface{}
		expected map[string]interface{}
		want     bool
	}{
		{
			name:     "exact_match",
			actual:   map[string]interface{}{"id": "c1"},
			expected: map[string]interface{}{"id": "c1"},
			want:     true,
		},
		{
			name:     "subset_match",
			actual:   map[string]interface{}{"id": "c1", "rating": 3},
			expected: map[string]interface{}{"id": "c1"},
			want:     true,
		},
		{
			name:     "missing_key",
			actual:   map[string]interface{}{"id": "c1"},
			expected: map[string]interface{}{"id": "c1", "rating": 3},
			want:     false,
		},
		{
			name:     "value_mismatch",
			actual:   map[string]interface{}{"id": "c1"},
			expected: map[string]interface{}{"id": "c2"},
			want:     false,
		},
		{
			name:     "nil_expected",
			actual:   map[string]interface{}{"id": "c1"},
			expected: nil,
			want:     true,
		},
		{
			name:     "non_map_actual",
			actual:   "not a map",
			expected: map[string]interface{}{"id": "c1"},
			want:     false,
		},
		{
			name:     "int_matches_float",
			actual:   map[string]interface{}{"rating": float64(3)},
			expected: map[string]interface{}{"rating": 3},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchArgs(tt.actual, tt.expected))
		})
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
		want     bool
	}{
		{"both_nil", nil, nil, true},
		{"actual_nil", nil, "value", false},
		{"expected_nil", "value", nil, false},
		{"strings_equal", "Good", "Good", true},
		{"strings_different", "Good", "Easy", false},
		{"float_vs_int", float64(2), 2, true},
		{"float_within_tolerance", 2.3065000000000001, 2.3065, true},
		{"floats_different", 2.31, 2.3, false},
		{"string_vs_number", "2", 2, false},
		{"bools_equal", true, true, true},
		{"arrays_equal", []interface{}{"a", float64(1)}, []interface{}{"a", 1}, true},
		{"arrays_length_differs", []interface{}{"a"}, []interface{}{"a", "b"}, false},
		{"map_subset",
			map[string]interface{}{"Again": float64(1), "Good": float64(2)},
			map[string]interface{}{"Good": 2},
			true},
		{"map_value_differs",
			map[string]interface{}{"new": float64(1)},
			map[string]interface{}{"new": 2},
			false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.actual, tt.expected))
		})
	}
}

func TestCompareResult(t *testing.T) {
	actual := map[string]interface{}{
		"interval_days": float64(2),
		"rating":        "Good",
		"stability":     2.31,
	}

	assert.Empty(t, compareResult(nil, actual))
	assert.Empty(t, compareResult(map[string]interface{}{"interval_days": 2, "rating": "Good"}, actual))

	mismatches := compareResult(map[string]interface{}{"interval_days": 3, "due_date": "2026-03-03"}, actual)
	require.Len(t, mismatches, 2)
	assert.Contains(t, mismatches[0], `"due_date" missing`)
	assert.Contains(t, mismatches[1], `"interval_days" = 2, expected 3`)

	mismatches = compareResult(map[string]interface{}{"id": "a"}, []interface{}{})
	require.Len(t, mismatches, 1)
	assert.Contains(t, mismatches[0], "expected an object result")
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := &Result{
		Trace: []TraceEvent{
			{Type: "invocation", ActionURI: "register", Args: map[string]interface{}{"id": "c1"}, Seq: 1},
			{Type: "completion", OutputCase: "ok", Seq: 2},
			{Type: "invocation", ActionURI: "record", Seq: 3},
			{Type: "completion", OutputCase: "ok", Seq: 4},
		},
	}

	assertions := []Assertion{
		{Type: AssertTraceContains, Action: "register", Args: map[string]interface{}{"id": "c1"}},
		{Type: AssertTraceOrder, Actions: []string{"register", "record"}},
		{Type: AssertTraceCount, Action: "record", Count: 1},
	}

	assert.Empty(t, EvaluateAssertions(result, assertions, nil))
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	result := &Result{
		Trace: []TraceEvent{
			{Type: "invocation", ActionURI: "register", Seq: 1},
		},
	}

	assertions := []Assertion{
		{Type: AssertTraceContains, Action: "register"},
		{Type: AssertTraceContains, Action: "record"},
		{Type: AssertTraceCount, Action: "register", Count: 2},
	}

	errs := EvaluateAssertions(result, assertions, nil)
	assert.Len(t, errs, 2)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "bogus"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "bogus"`)
}

func TestEvaluateAssertions_FinalStateWithoutContext_Fail(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertFinalState, Table: "cards", Expect: map[string]interface{}{"reps": 1}},
	}

	errs := EvaluateAssertions(NewResult(), assertions, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     "trace_count",
		Expected: "2 occurrences of due",
		Actual:   "1 occurrences",
		Trace: []TraceEvent{
			{Type: "invocation", ActionURI: "due", Args: map[string]interface{}{"limit": 5}, Seq: 1},
			{Type: "completion", OutputCase: "ok", Seq: 2},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 2 occurrences of due")
	assert.Contains(t, msg, "Actual: 1 occurrences")
	assert.Contains(t, msg, "[1] due map[limit:5]")
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)

	sql, args, err = buildWhereClause(map[string]interface{}{"seq": 1, "card_id": "c1"})
	require.NoError(t, err)
	assert.Equal(t, "card_id = ? AND seq = ?", sql)
	assert.Equal(t, []interface{}{"c1", int64(1)}, args)
}

func TestBuildWhereClause_NoInterpolation(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]interface{}{"id": "'; DROP TABLE cards; --"})
	require.NoError(t, err)
	assert.Equal(t, "id = ?", sql)
	assert.Equal(t, []interface{}{"'; DROP TABLE cards; --"}, args)
}

func TestBuildWhereClause_InvalidColumnName(t *testing.T) {
	_, _, err := buildWhereClause(map[string]interface{}{"id; DROP TABLE cards": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestToSQLValue_Types(t *testing.T) {
	assert.Equal(t, int64(3), toSQLValue(3))
	assert.Equal(t, int64(3), toSQLValue(int64(3)))
	assert.Equal(t, 0.5, toSQLValue(0.5))
	assert.Equal(t, "c1", toSQLValue("c1"))
	assert.Equal(t, true, toSQLValue(true))
	assert.Equal(t, "[a]", toSQLValue([]string{"a"}))
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "card_id=c1 AND seq=0", formatWhereClause(map[string]interface{}{"seq": 0, "card_id": "c1"}))
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"strings", "review", "review", true},
		{"string_bytes", "review", []byte("review"), true},
		{"string_mismatch", "review", "learning", false},
		{"int_vs_int64", 2, int64(2), true},
		{"int_mismatch", 2, int64(3), false},
		{"int_vs_real", 1, float64(1), true},
		{"float_vs_real", 2.3065, 2.3065, true},
		{"float_vs_string", 2.3065, "2.3065", false},
		{"bool_vs_int64", true, int64(1), true},
		{"both_nil", nil, nil, true},
		{"nil_vs_value", nil, "2026-03-01", false},
		{"value_vs_nil", "2026-03-01", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual))
		})
	}
}

// Integration tests for assertFinalState against a saved snapshot.

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	snap := deck.NewSnapshot()
	today := deck.MustParseDate("2026-03-01")
	snap.Cards["c1"] = deck.NewCard("Contexts", "carry deadlines", today)
	snap.Cards["c2"] = deck.NewCard("Channels", "synchronize", today)
	snap.Cards["c2"].Reps = 4
	snap.MarkKnown("c1")
	snap.MarkKnown("c2")

	require.NoError(t, st.Save(ctx, snap))
	return st
}

func TestAssertFinalState_RowFound_Pass(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:  AssertFinalState,
		Table: "cards",
		Where: map[string]interface{}{"id": "c2"},
		Expect: map[string]interface{}{
			"title":       "Channels",
			"reps":        4,
			"stability":   0,
			"last_review": nil,
		},
	}

	assert.NoError(t, assertFinalState(context.Background(), st, assertion))
}

func TestAssertFinalState_RowNotFound_Fail(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "cards",
		Where:  map[string]interface{}{"id": "ghost"},
		Expect: map[string]interface{}{"reps": 0},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "final_state", assertErr.Type)
	assert.Contains(t, assertErr.Actual, "row not found")
}

func TestAssertFinalState_ValueMismatch_Fail(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "cards",
		Where:  map[string]interface{}{"id": "c2"},
		Expect: map[string]interface{}{"reps": 10},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Contains(t, assertErr.Expected, "reps")
	assert.Contains(t, assertErr.Expected, "10")
	assert.Contains(t, assertErr.Actual, "4")
}

func TestAssertFinalState_MultipleRows_Fail(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "cards",
		Where:  map[string]interface{}{"state": "new"},
		Expect: map[string]interface{}{"lapses": 0},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple rows matched")
}

func TestAssertFinalState_MissingColumn_Fail(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "cards",
		Where:  map[string]interface{}{"id": "c1"},
		Expect: map[string]interface{}{"nonexistent": "x"},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "nonexistent" not present`)
}

func TestAssertFinalState_TableNotFound_Fail(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "nonexistent_table",
		Expect: map[string]interface{}{"id": "c1"},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query error")
}

func TestAssertFinalState_InvalidTableName(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "cards; DROP TABLE cards",
		Expect: map[string]interface{}{"id": "c1"},
	}

	err := assertFinalState(context.Background(), st, assertion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestAssertFinalState_KnownCards(t *testing.T) {
	st := setupTestStore(t)

	assertion := Assertion{
		Type:   AssertFinalState,
		Table:  "known_cards",
		Where:  map[string]interface{}{"id": "c2"},
		Expect: map[string]interface{}{"seq": 1},
	}

	assert.NoError(t, assertFinalState(context.Background(), st, assertion))
}

func TestEvaluateAssertions_FinalStateWithContext_Pass(t *testing.T) {
	st := setupTestStore(t)

	assertions := []Assertion{
		{
			Type:   AssertFinalState,
			Table:  "cards",
			Where:  map[string]interface{}{"id": "c1"},
			Expect: map[string]interface{}{"state": "new", "due_date": "2026-03-01"},
		},
	}

	errs := EvaluateAssertions(NewResult(), assertions, &AssertionContext{Store: st, Ctx: context.Background()})
	assert.Empty(t, errs)
}
