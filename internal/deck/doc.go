// Package deck defines the persisted review state: cards, their review logs,
// scan history and session history, bundled as a Snapshot.
//
// A Snapshot is the single unit of persistence. Callers load one, hand it to
// the scheduler, and for mutating operations save it back whole. There are
// no package-level variables holding state; ownership is explicit.
//
// All JSON tags use snake_case and match the on-disk state document:
//
//	{
//	  "version": 1,
//	  "params": {"w": [...], "target_retention": 0.9, "max_interval_days": 365},
//	  "cards": {"<id>": {...}},
//	  "scan_history": {"last_scan": null, "known_card_ids": []},
//	  "session_history": []
//	}
package deck
