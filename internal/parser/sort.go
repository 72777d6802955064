package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/query"
	"github.com/roach88/filterql/internal/schema"
)

// Sort direction suffixes.
const (
	SuffixAscending  = "1"
	SuffixDescending = "2"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSort parses a sort string against reg. Clauses without a suffix
// take the field's default direction. Empty clauses are skipped.
func ParseSort(reg *schema.Registry, text string) (*query.SortContext, error) {
	var requests []query.SortRequest
	for _, raw := range Split(text, ClauseDelimiter) {
		ct := Unescape(raw, ClauseDelimiter)
		if strings.TrimSpace(ct) == "" {
			continue
		}
		req, err := parseSortClause(reg, ct)
		if err != nil {
			return nil, withClause(err, ct)
		}
		requests = append(requests, req)
	}
	return query.NewSortContext(reg, requests)
}

func parseSortClause(reg *schema.Registry, text string) (query.SortRequest, error) {
	parts := SplitUnescape(text, ValueDelimiter)
	if len(parts) > 2 {
		return query.SortRequest{}, qerrors.NewGrammarError(text, fmt.Sprintf("malformed sort clause %q", text))
	}

	name := parts[0]
	if !namePattern.MatchString(name) {
		return query.SortRequest{}, qerrors.NewGrammarError(text, fmt.Sprintf("invalid sort field name %q", name))
	}
	sd, ok := reg.Sort(name)
	if !ok {
		return query.SortRequest{}, qerrors.NewUnknownFieldError(name)
	}

	dir := sd.Default
	if len(parts) == 2 {
		switch parts[1] {
		case SuffixAscending:
			dir = operator.Ascending
		case SuffixDescending:
			dir = operator.Descending
		default:
			return query.SortRequest{}, qerrors.NewGrammarError(text, fmt.Sprintf("unknown sort direction %q", parts[1]))
		}
	}
	return query.SortRequest{Field: sd.Name, Direction: dir}, nil
}

// FormatSort renders sort requests in the sort grammar.
func FormatSort(requests []query.SortRequest) string {
	clauses := make([]string, len(requests))
	for i, r := range requests {
		suffix := SuffixAscending
		if r.Direction == operator.Descending {
			suffix = SuffixDescending
		}
		clauses[i] = Join([]string{r.Field, suffix}, ValueDelimiter)
	}
	return Join(clauses, ClauseDelimiter)
}
