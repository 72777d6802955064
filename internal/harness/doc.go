// Package harness runs YAML query scenarios against the sample users.
//
// Every case is parsed and compiled once, then executed by each executor
// (in-memory and SQLite). A case passes when its expectations hold for
// every executor and the executors agree with each other.
//
// # Scenario Format
//
//	name: active_users
//	description: "Active users, newest first"
//	schema: ../schemas      # optional CUE directory; default is the built-in User registry
//	entity: User            # optional; picks a registry from schema
//	culture: en             # optional culture for |i folding
//	executors: [memory]     # optional; default runs all
//	cases:
//	  - name: newest first
//	    filter: "Status=Active"
//	    sort: "Created,2"
//	    expect:
//	      ids: [5, 4, 2, 1]
//	  - name: typo
//	    filter: "Stats=Active"
//	    expect:
//	      error: UNKNOWN_FIELD
//
// # Expectations
//
//   - ids: matching ids in result order
//   - empty: no matches
//   - count: number of matches
//   - error: query error code; the case must be rejected
//   - predicate: rendering of the compiled filter
//   - portable: whether the filter behaves the same on every backend
//
// # Golden Traces
//
// The trace of a run (compiled predicate, ordering and ids per executor)
// encodes as canonical JSON, so it can be pinned in a golden file with
// RunWithGolden.
package harness
