// Package harness runs review scenarios against the scheduler.
//
// A scenario is a YAML file that names a start date, a sequence of actions
// and assertions over the outcome:
//
//	name: first_review_good
//	description: A new card rated Good graduates to review
//	today: "2026-03-01"
//	setup:
//	  - action: register
//	    args: {id: c1, title: Contexts}
//	flow:
//	  - invoke: record
//	    args: {id: c1, rating: 3}
//	    expect:
//	      case: ok
//	      result: {interval_days: 2}
//	assertions:
//	  - type: final_state
//	    table: cards
//	    where: {id: c1}
//	    expect: {state: review, reps: 1}
//
// Actions are register, bulk_register, record, record_session, due, stats
// and advance (moves the calendar forward by args.days). Each action is
// traced as an invocation followed by a completion carrying the actual
// result in the same JSON shape the CLI prints. Domain errors complete with
// their code as the output case.
//
// # Determinism
//
// Every run uses:
//   - A fresh in-memory SQLite store
//   - A clock frozen at 09:00 UTC on the scenario date
//   - Sequential scan ids (scan-1, scan-2, ...)
//   - A logical sequence counter for trace events (testutil.Sequence)
//
// so the same scenario always produces byte-identical traces, which are
// compared against golden files under testdata/golden.
//
// # Final state
//
// After the flow the snapshot is saved to the store, and final_state
// assertions query its tables (cards, review_log, known_cards, sessions)
// with parameterized SQL.
package harness
