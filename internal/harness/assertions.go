package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when a case does not meet an expectation.
type AssertionError struct {
	Case     string       // case name
	Type     string       // which expectation failed
	Executor string       // executor that produced the mismatch, if any
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // the case's events, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "case %q: %s", e.Case, e.Type)
	if e.Executor != "" {
		fmt.Fprintf(&buf, " (%s)", e.Executor)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		buf.WriteString("\nCase trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Type)
			switch ev.Type {
			case EventCompiled:
				fmt.Fprintf(&buf, " %s; order %s", ev.Predicate, ev.Order)
			case EventRejected:
				fmt.Fprintf(&buf, " %s", ev.Code)
			case EventResult:
				fmt.Fprintf(&buf, " %s %v", ev.Executor, ev.IDs)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// assertRejected checks a rejected case against its expectations.
func assertRejected(c Case, code string, trace []TraceEvent) error {
	if c.Expect.Error == code {
		return nil
	}
	expected := "query to compile"
	if c.Expect.Error != "" {
		expected = "error " + c.Expect.Error
	}
	return &AssertionError{
		Case:     c.Name,
		Type:     "error",
		Expected: expected,
		Actual:   "error " + code,
		Trace:    trace,
	}
}

// assertCompiled checks the compiled filter of an accepted case.
func assertCompiled(c Case, ev TraceEvent, trace []TraceEvent) error {
	if c.Expect.Error != "" {
		return &AssertionError{
			Case:     c.Name,
			Type:     "error",
			Expected: "error " + c.Expect.Error,
			Actual:   "query compiled",
			Trace:    trace,
		}
	}
	if c.Expect.Predicate != "" && c.Expect.Predicate != ev.Predicate {
		return &AssertionError{
			Case:     c.Name,
			Type:     "predicate",
			Expected: c.Expect.Predicate,
			Actual:   ev.Predicate,
			Trace:    trace,
		}
	}
	if c.Expect.Portable != nil && *c.Expect.Portable != (len(ev.Warnings) == 0) {
		return &AssertionError{
			Case:     c.Name,
			Type:     "portable",
			Expected: fmt.Sprintf("portable=%t", *c.Expect.Portable),
			Actual:   fmt.Sprintf("warnings %v", ev.Warnings),
			Trace:    trace,
		}
	}
	return nil
}

// assertResult checks one executor's ids.
func assertResult(c Case, executor string, ids []int64, trace []TraceEvent) error {
	if c.Expect.Count != nil && *c.Expect.Count != len(ids) {
		return &AssertionError{
			Case:     c.Name,
			Type:     "count",
			Executor: executor,
			Expected: fmt.Sprintf("%d match(es)", *c.Expect.Count),
			Actual:   fmt.Sprintf("%d match(es)", len(ids)),
			Trace:    trace,
		}
	}

	want := c.Expect.IDs
	if !c.Expect.Empty && len(want) == 0 {
		return nil
	}
	if !slices.Equal(want, ids) {
		return &AssertionError{
			Case:     c.Name,
			Type:     "ids",
			Executor: executor,
			Expected: fmt.Sprintf("%v", nonNil(want)),
			Actual:   fmt.Sprintf("%v", nonNil(ids)),
			Trace:    trace,
		}
	}
	return nil
}

// assertAgreement checks that every executor returned the same ids.
func assertAgreement(c Case, results map[string][]int64, order []string, trace []TraceEvent) error {
	if len(order) < 2 {
		return nil
	}
	first := results[order[0]]
	for _, e := range order[1:] {
		if !slices.Equal(first, results[e]) {
			return &AssertionError{
				Case:     c.Name,
				Type:     "agreement",
				Executor: e,
				Expected: fmt.Sprintf("%v from %s", nonNil(first), order[0]),
				Actual:   fmt.Sprintf("%v", nonNil(results[e])),
				Trace:    trace,
			}
		}
	}
	return nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
