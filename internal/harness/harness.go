package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/roach88/filterql/internal/compiler"
	"github.com/roach88/filterql/internal/parser"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/querymem"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/store"
	"github.com/roach88/filterql/internal/users"
	"github.com/roach88/filterql/internal/value"
)

// Harness runs the cases of one scenario.
type Harness struct {
	registry *schema.Registry
	culture  language.Tag
	records  []value.Record
	table    *store.Table
	logger   *zap.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger logs each case at Debug.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns the result. A failed expectation is
// reported in the result; an error means the scenario could not run.
//
// Each run gets its own in-memory SQLite database seeded with the sample
// users, so runs are isolated and deterministic.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	reg, err := loadRegistry(scenario)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		registry: reg,
		culture:  scenario.culture(),
		records:  users.Records(users.Seed()),
		logger:   o.logger.With(zap.String("scenario", scenario.Name)),
	}

	executors := scenario.executors()
	for _, e := range executors {
		if e != ExecSQLite {
			continue
		}
		st, err := store.OpenSQLite(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		if err := st.SeedUsers(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
		h.table = st.Table(users.Resource, users.PropId, reg)
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		if err := h.runCase(ctx, c, executors, result); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	return result, nil
}

// loadRegistry picks the scenario's entity registry.
func loadRegistry(scenario *Scenario) (*schema.Registry, error) {
	if scenario.Schema == "" {
		if scenario.Entity != "" && scenario.Entity != users.Entity {
			return nil, fmt.Errorf("entity %q: the built-in schema only has %s", scenario.Entity, users.Entity)
		}
		return users.Schema(), nil
	}

	regs, err := schema.LoadCUE(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	if scenario.Entity == "" {
		return regs[0], nil
	}
	for _, r := range regs {
		if r.Entity() == scenario.Entity {
			return r, nil
		}
	}
	return nil, fmt.Errorf("entity %q not found in %s", scenario.Entity, scenario.Schema)
}

func (h *Harness) runCase(ctx context.Context, c Case, executors []string, result *Result) error {
	start := len(result.Trace)
	caseTrace := func() []TraceEvent { return result.Trace[start:] }

	fc, sc, err := h.parse(c)
	if err != nil {
		code := qerrors.CodeOf(err)
		if code == "" {
			return err
		}
		result.addEvent(TraceEvent{Case: c.Name, Type: EventRejected, Code: string(code)})
		h.logger.Debug("case rejected", zap.String("case", c.Name), zap.Error(err))
		if aerr := assertRejected(c, string(code), caseTrace()); aerr != nil {
			result.AddError(aerr.Error())
		}
		return nil
	}

	q, err := compiler.Compile(fc, sc)
	if err != nil {
		return err
	}
	report := queryir.Validate(q.Filter)
	compiled := TraceEvent{
		Case:      c.Name,
		Type:      EventCompiled,
		Predicate: queryir.String(q.Filter),
		Order:     q.Order.String(),
		Warnings:  report.Warnings,
	}
	result.addEvent(compiled)
	if aerr := assertCompiled(c, compiled, caseTrace()); aerr != nil {
		result.AddError(aerr.Error())
		return nil
	}

	ids := make(map[string][]int64, len(executors))
	for _, e := range executors {
		got, err := h.execute(ctx, e, q)
		if err != nil {
			return fmt.Errorf("%s: %w", e, err)
		}
		ids[e] = got
		result.addEvent(TraceEvent{Case: c.Name, Type: EventResult, Executor: e, IDs: got})
		h.logger.Debug("case executed",
			zap.String("case", c.Name),
			zap.String("executor", e),
			zap.Int64s("ids", got),
		)
		if aerr := assertResult(c, e, got, caseTrace()); aerr != nil {
			result.AddError(aerr.Error())
		}
	}
	if aerr := assertAgreement(c, ids, executors, caseTrace()); aerr != nil {
		result.AddError(aerr.Error())
	}
	return nil
}

func (h *Harness) parse(c Case) (*query.FilterContext, *query.SortContext, error) {
	fc, err := parser.ParseFilter(h.registry, c.Filter)
	if err != nil {
		return nil, nil, err
	}
	sc, err := parser.ParseSort(h.registry, c.Sort)
	if err != nil {
		return nil, nil, err
	}
	return fc, sc, nil
}

// execute returns the ids of the records q selects, in result order.
func (h *Harness) execute(ctx context.Context, executor string, q compiler.Query) ([]int64, error) {
	var records []value.Record
	switch executor {
	case ExecMemory:
		out, err := querymem.Apply(h.records, q.Filter, q.Order, querymem.WithCulture(h.culture))
		if err != nil {
			return nil, err
		}
		records = out
	case ExecSQLite:
		page, err := h.table.List(ctx, store.ListQuery{Filter: q.Filter, Order: q.Order})
		if err != nil {
			return nil, err
		}
		records = page.Records
	default:
		return nil, fmt.Errorf("unknown executor %q", executor)
	}
	return idsOf(records)
}

func idsOf(records []value.Record) ([]int64, error) {
	ids := make([]int64, len(records))
	for i, r := range records {
		id, ok := r.Value(users.PropId).(value.Int)
		if !ok {
			return nil, errors.New("record without an integer Id")
		}
		ids[i] = int64(id)
	}
	return ids, nil
}
