package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/filterql/internal/compiler"
	"github.com/roach88/filterql/internal/parser"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/querydoc"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/querymem"
	"github.com/roach88/filterql/internal/querysql"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/users"
	"github.com/roach88/filterql/internal/value"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Schema  string // CUE schema directory; empty uses the built-in User registry
	Entity  string
	Filter  string
	Sort    string
	Dialect string // render SQL in this dialect when set
	Table   string
	Key     string
	Doc     bool // render the document filter
	Eval    bool // run against the sample users
}

// ParseResult is the compiled form of one filter and sort pair.
type ParseResult struct {
	Entity      string        `json:"entity"`
	Filter      string        `json:"filter"`
	Sort        string        `json:"sort"`
	Predicate   string        `json:"predicate"`
	Order       string        `json:"order"`
	Fingerprint string        `json:"fingerprint"`
	Portable    bool          `json:"portable"`
	Warnings    []string      `json:"warnings,omitempty"`
	SQL         *SQLRendering `json:"sql,omitempty"`
	Document    *DocRendering `json:"document,omitempty"`
	Matches     []int64       `json:"matches,omitempty"`
}

// SQLRendering is a parameterized SELECT.
type SQLRendering struct {
	Dialect string `json:"dialect"`
	Query   string `json:"query"`
	Args    []any  `json:"args"`
}

// DocRendering is a document-store filter and sort.
type DocRendering struct {
	Filter querydoc.D           `json:"filter"`
	Sort   []querydoc.SortField `json:"sort"`
}

// String renders the result for text output.
func (r *ParseResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity:      %s\n", r.Entity)
	fmt.Fprintf(&b, "Predicate:   %s\n", r.Predicate)
	fmt.Fprintf(&b, "Order:       %s\n", r.Order)
	fmt.Fprintf(&b, "Fingerprint: %s\n", r.Fingerprint)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "Warning:     %s\n", w)
	}
	if r.SQL != nil {
		fmt.Fprintf(&b, "\nSQL (%s):\n  %s\n  args: %v\n", r.SQL.Dialect, r.SQL.Query, r.SQL.Args)
	}
	if r.Document != nil {
		fmt.Fprintf(&b, "\nDocument filter: %v\nDocument sort:   %v\n", r.Document.Filter, r.Document.Sort)
	}
	if r.Matches != nil {
		fmt.Fprintf(&b, "\nMatches: %v\n", r.Matches)
	}
	return b.String()
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Compile a filter and sort string",
		Long: `Parse and compile a filter and sort string against an entity registry.

Prints the compiled predicate, the ordering, the query fingerprint and any
portability warnings. The registry is the built-in User entity unless
--schema names a directory of CUE entity declarations.

Exit codes:
  0 - Query compiled
  1 - Query rejected (the error code names the reason)
  2 - Command error (bad schema directory, unknown dialect, etc.)

Examples:
  filterql parse --filter "Status=Active;Age>30" --sort "Name;Created,2"
  filterql parse --filter "Username|i=admin" --sql sqlite
  filterql parse --schema ./schemas --entity User --filter "Id-1,10" --doc
  filterql parse --filter "Email~example.com" --eval --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "directory of CUE entity schemas")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity to query (default: first declared)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "filter string")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "sort string")
	cmd.Flags().StringVar(&opts.Dialect, "sql", "", "render SQL in this dialect (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name for --sql (default: entity name in lower case)")
	cmd.Flags().StringVar(&opts.Key, "key", compiler.IdField, "tiebreaker property for --sql")
	cmd.Flags().BoolVar(&opts.Doc, "doc", false, "render the document-store filter")
	cmd.Flags().BoolVar(&opts.Eval, "eval", false, "evaluate against the sample users")

	return cmd
}

func runParse(opts *ParseOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len([]rune(opts.Filter)) > parser.MaxFilterLength {
		return outputQueryError(formatter, CodeLimit, fmt.Sprintf("filter is longer than %d characters", parser.MaxFilterLength))
	}
	if len([]rune(opts.Sort)) > parser.MaxSortLength {
		return outputQueryError(formatter, CodeLimit, fmt.Sprintf("sort is longer than %d characters", parser.MaxSortLength))
	}

	reg, err := LoadRegistry(opts.Schema, opts.Entity)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Using entity %s (%d filter field(s), %d sort field(s))",
		reg.Entity(), len(reg.Filters()), len(reg.Sorts()))

	result, err := compileQuery(reg, opts.Filter, opts.Sort)
	if err != nil {
		return formatter.Reject(err)
	}
	q := result.query

	if opts.Dialect != "" {
		r, err := renderSQL(reg, q, opts)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		result.SQL = r
	}

	if opts.Doc {
		r, err := renderDoc(q)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		result.Document = r
	}

	if opts.Eval {
		tag, err := language.Parse(opts.viper().GetString("query.culture"))
		if err != nil {
			return outputCommandError(formatter, ErrCodeConfig, fmt.Sprintf("query.culture: %v", err))
		}
		ids, err := evalSample(q, tag)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
		formatter.VerboseLog("Evaluated against %d sample user(s) with culture %s", len(users.Seed()), tag)
		result.Matches = ids
	}

	return formatter.Success(&result.ParseResult)
}

type compiled struct {
	ParseResult
	query compiler.Query
}

// compileQuery parses and compiles filter and sort against reg.
func compileQuery(reg *schema.Registry, filter, sort string) (*compiled, error) {
	fc, err := parser.ParseFilter(reg, filter)
	if err != nil {
		return nil, err
	}
	sc, err := parser.ParseSort(reg, sort)
	if err != nil {
		return nil, err
	}
	fingerprint, err := query.Fingerprint(fc, sc)
	if err != nil {
		return nil, err
	}
	q, err := compiler.Compile(fc, sc)
	if err != nil {
		return nil, err
	}
	report := queryir.Validate(q.Filter)

	return &compiled{
		ParseResult: ParseResult{
			Entity:      reg.Entity(),
			Filter:      filter,
			Sort:        parser.FormatSort(sc.Requests()),
			Predicate:   queryir.String(q.Filter),
			Order:       q.Order.String(),
			Fingerprint: fingerprint,
			Portable:    report.IsPortable,
			Warnings:    report.Warnings,
		},
		query: q,
	}, nil
}

func renderSQL(reg *schema.Registry, q compiler.Query, opts *ParseOptions) (*SQLRendering, error) {
	dialect, err := querysql.ParseDialect(opts.Dialect)
	if err != nil {
		return nil, err
	}
	table := opts.Table
	if table == "" {
		table = strings.ToLower(reg.Entity())
	}
	sqlc := querysql.NewSQLCompiler(dialect, querysql.TableFor(table, opts.Key, reg.PropertyKinds()))
	text, args, err := sqlc.Select(querysql.Select{Filter: q.Filter, Order: q.Order})
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	return &SQLRendering{Dialect: dialect.String(), Query: text, Args: args}, nil
}

func renderDoc(q compiler.Query) (*DocRendering, error) {
	filter, err := querydoc.Filter(q.Filter)
	if err != nil {
		return nil, err
	}
	sort := querydoc.Sort(q.Order)
	if sort == nil {
		sort = []querydoc.SortField{}
	}
	return &DocRendering{Filter: filter, Sort: sort}, nil
}

// evalSample runs q over the sample users and returns the matching ids.
func evalSample(q compiler.Query, culture language.Tag) ([]int64, error) {
	matched, err := querymem.Apply(users.Records(users.Seed()), q.Filter, q.Order, querymem.WithCulture(culture))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(matched))
	for _, r := range matched {
		id, ok := r.Value(users.PropId).(value.Int)
		if !ok {
			return nil, errors.New("sample user without an integer Id")
		}
		ids = append(ids, int64(id))
	}
	return ids, nil
}

// CodeLimit marks input rejected before parsing.
const CodeLimit = "LIMIT"

// outputLoadError reports a schema loading failure (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, posDetails(loadErr))
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error())
}

// posDetails returns the source position of a load error, if any.
func posDetails(e *LoadError) any {
	if !e.Pos.IsValid() {
		return nil
	}
	return map[string]any{
		"file":   e.Pos.Filename(),
		"line":   e.Pos.Line(),
		"column": e.Pos.Column(),
	}
}
