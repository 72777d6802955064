// Package parser turns filter and sort strings into validated query
// contexts.
//
// Filter grammar, per clause (clauses are separated by an unescaped ';'):
//
//	[!]name[|flags](op)[args]
//
// op is one of = : - > >= < <= ~ .= .~ or empty for a null test; flags are
// the letters i (CaseInsensitive), v (CaseInsensitiveInvariant) and n
// (TrueWhenNull). Between and In arguments are split on an unescaped ','.
//
// Sort grammar, per clause: name[,1|,2] for ascending or descending.
//
// Any failure rejects the whole query with a *qerrors.Error.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/value"
)

// Length bounds enforced at the transport boundary.
const (
	MaxFilterLength = 4096
	MaxSortLength   = 2048
)

// Operator symbols.
const (
	SymEqual          = "="
	SymDefault        = ":"
	SymBetween        = "-"
	SymGreater        = ">"
	SymGreaterOrEqual = ">="
	SymLess           = "<"
	SymLessOrEqual    = "<="
	SymLike           = "~"
	SymIn             = ".="
	SymBitsAnd        = ".~"
)

var clausePattern = regexp.MustCompile(`(?s)^(!)?([A-Za-z_][A-Za-z0-9_]*)(\|[^=:\-><~.]*)?(>=|<=|\.=|\.~|=|:|-|>|<|~)?(.*)$`)

var symbolOps = map[string]operator.Op{
	SymEqual:          operator.Equal,
	SymBetween:        operator.Between,
	SymGreater:        operator.Greater,
	SymGreaterOrEqual: operator.GreaterOrEqual,
	SymLess:           operator.Less,
	SymLessOrEqual:    operator.LessOrEqual,
	SymLike:           operator.Like,
	SymIn:             operator.In,
	SymBitsAnd:        operator.BitsAnd,
	"":                operator.IsNull,
}

var flagOps = map[rune]operator.Op{
	'i': operator.CaseInsensitive,
	'v': operator.CaseInsensitiveInvariant,
	'n': operator.TrueWhenNull,
}

// clause is one filter clause split into its grammar parts.
type clause struct {
	text    string
	negated bool
	name    string
	flags   string
	hasFlag bool
	symbol  string
	args    string
}

func matchClause(text string) (clause, error) {
	m := clausePattern.FindStringSubmatch(text)
	if m == nil {
		return clause{}, qerrors.NewGrammarError(text, fmt.Sprintf("malformed clause %q", text))
	}
	c := clause{
		text:    text,
		negated: m[1] == "!",
		name:    m[2],
		flags:   strings.TrimPrefix(m[3], "|"),
		hasFlag: m[3] != "",
		symbol:  m[4],
		args:    m[5],
	}
	if c.symbol == "" && c.args != "" {
		return clause{}, qerrors.NewGrammarError(text, fmt.Sprintf("unrecognized operator in %q", text))
	}
	if c.hasFlag && c.flags == "" {
		return clause{}, qerrors.NewGrammarError(text, "empty flag list")
	}
	return c, nil
}

// ParseFilter parses a filter string against reg. An empty string yields
// an empty context. Empty clauses are skipped.
func ParseFilter(reg *schema.Registry, text string) (*query.FilterContext, error) {
	var requests []query.FilterRequest
	for _, raw := range Split(text, ClauseDelimiter) {
		ct := Unescape(raw, ClauseDelimiter)
		if strings.TrimSpace(ct) == "" {
			continue
		}
		req, err := parseClause(reg, ct)
		if err != nil {
			return nil, withClause(err, ct)
		}
		requests = append(requests, req)
	}

	fc, err := query.NewFilterContext(reg, requests)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// ParseClause parses a single, already unescaped filter clause.
func ParseClause(reg *schema.Registry, text string) (query.FilterRequest, error) {
	req, err := parseClause(reg, text)
	if err != nil {
		return query.FilterRequest{}, withClause(err, text)
	}
	return req, nil
}

func parseClause(reg *schema.Registry, text string) (query.FilterRequest, error) {
	c, err := matchClause(text)
	if err != nil {
		return query.FilterRequest{}, err
	}

	fd, ok := reg.Filter(c.name)
	if !ok {
		return query.FilterRequest{}, qerrors.NewUnknownFieldError(c.name)
	}

	op, err := resolveOperator(c, fd)
	if err != nil {
		return query.FilterRequest{}, err
	}

	values, err := coerceArgs(c, fd, op)
	if err != nil {
		return query.FilterRequest{}, err
	}

	return query.FilterRequest{Field: fd.Name, Op: op, Values: values}, nil
}

// resolveOperator maps symbol, negation and flags to one canonical
// operator and checks it against the field's allowed set.
func resolveOperator(c clause, fd *schema.FieldDescriptor) (operator.Op, error) {
	var op operator.Op
	if c.symbol == SymDefault {
		op = fd.Default
	} else {
		op = symbolOps[c.symbol]
	}

	// '~' doubles as the flags operator on fields that allow BitsOr but
	// not Like. The negated form is not remapped.
	if c.symbol == SymLike && !c.negated &&
		!fd.Allowed.Contains(operator.Like) && fd.Allowed.Contains(operator.BitsOr) {
		op = operator.BitsOr
	}

	if c.negated {
		n, ok := op.Negate()
		if !ok {
			return 0, qerrors.NewGrammarError(c.text, fmt.Sprintf("%s cannot be negated", op.Base()))
		}
		op = n
	}

	var flags operator.Op
	for _, r := range c.flags {
		f, ok := flagOps[r]
		if !ok {
			return 0, qerrors.NewGrammarError(c.text, fmt.Sprintf("unknown flag %q", r))
		}
		flags |= f
	}
	if flags.Fold() != operator.None {
		op &^= operator.CaseInsensitive | operator.CaseInsensitiveInvariant
	}
	op |= flags

	if err := op.Validate(); err != nil {
		return 0, &qerrors.Error{
			Code:    qerrors.CodeOperatorNotAllowed,
			Field:   fd.Name,
			Message: fmt.Sprintf("%s is not a valid operator", op),
			Err:     err,
		}
	}
	if !fd.Allowed.Contains(op) {
		return 0, qerrors.NewOperatorNotAllowedError(fd.Name, op.String())
	}
	return op, nil
}

// coerceArgs splits the argument text by arity and parses every operand.
func coerceArgs(c clause, fd *schema.FieldDescriptor, op operator.Op) ([]value.Value, error) {
	var texts []string
	switch op.Arity() {
	case operator.Arity0:
		if c.args != "" {
			return nil, qerrors.NewArityError(fd.Name, "0", len(SplitUnescape(c.args, ValueDelimiter)))
		}
		return nil, nil
	case operator.Arity1:
		texts = []string{c.args}
	case operator.Arity2:
		if c.args == "" {
			return nil, qerrors.NewArityError(fd.Name, "2", 0)
		}
		texts = SplitUnescape(c.args, ValueDelimiter)
		if len(texts) != 2 {
			return nil, qerrors.NewArityError(fd.Name, "2", len(texts))
		}
	case operator.ArityMany:
		if c.args == "" {
			return nil, qerrors.NewArityError(fd.Name, "1 or more", 0)
		}
		texts = SplitUnescape(c.args, ValueDelimiter)
	}

	values := make([]value.Value, len(texts))
	for i, t := range texts {
		v, err := coerce(fd, t)
		if err != nil {
			return nil, err
		}
		if value.IsNull(v) && !fd.NullAllowed {
			return nil, qerrors.NewNullabilityError(fd.Name)
		}
		values[i] = v
	}
	return values, nil
}

// coerce parses one operand. Strings keep empty text unless the field maps
// empty to null.
func coerce(fd *schema.FieldDescriptor, text string) (value.Value, error) {
	if fd.Kind == value.KindString && !fd.EmptyToNull {
		return value.String(text), nil
	}
	v, err := value.Parse(fd.Kind, text, fd.Enum)
	if err != nil {
		return nil, qerrors.NewValueFormatError(fd.Name, err)
	}
	return v, nil
}

func withClause(err error, text string) error {
	if qe, ok := err.(*qerrors.Error); ok && qe.Clause == "" {
		return qe.WithClause(text)
	}
	return err
}
