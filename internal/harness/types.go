package harness

// Trace event types.
const (
	EventCompiled = "compiled" // filter and sort accepted
	EventRejected = "rejected" // parse failed with a query error code
	EventResult   = "result"   // one executor's matching ids
)

// TraceEvent records one step of a scenario run.
type TraceEvent struct {
	Seq       int      `json:"seq"`
	Case      string   `json:"case"`
	Type      string   `json:"type"`
	Executor  string   `json:"executor,omitempty"`
	Predicate string   `json:"predicate,omitempty"`
	Order     string   `json:"order,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Code      string   `json:"code,omitempty"`
	IDs       []int64  `json:"ids,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every case met its expectations.
	Pass bool `json:"pass"`

	// Trace holds every event in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends e with the next sequence number.
func (r *Result) addEvent(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}
