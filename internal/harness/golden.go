package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/filterql/internal/value"
)

// Snapshot encodes a scenario trace as canonical JSON, so identical runs
// produce identical bytes.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"seq":  ev.Seq,
			"case": ev.Case,
			"type": ev.Type,
		}
		if ev.Executor != "" {
			m["executor"] = ev.Executor
		}
		if ev.Type == EventCompiled {
			m["predicate"] = ev.Predicate
			m["order"] = ev.Order
			if len(ev.Warnings) > 0 {
				m["warnings"] = ev.Warnings
			}
		}
		if ev.Code != "" {
			m["code"] = ev.Code
		}
		if ev.Type == EventResult {
			ids := make([]any, len(ev.IDs))
			for j, id := range ev.IDs {
				ids[j] = id
			}
			m["ids"] = ids
		}
		trace[i] = m
	}

	return value.MarshalCanonical(map[string]any{
		"scenario": scenarioName,
		"trace":    trace,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
