package queryir

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/filterql/internal/value"
)

// ValidationResult contains the portability analysis of a predicate.
//
// Every backend evaluates the whole IR, but some nodes cannot be evaluated
// identically everywhere. Those are reported as warnings; they never stop a
// query from running.
type ValidationResult struct {
	// IsPortable is true when every backend produces the same result set.
	IsPortable bool

	// Warnings lists the non-portable features used, in tree order.
	Warnings []string
}

// Validate checks p for constructs whose result differs between the
// in-memory, SQL and document executors:
//  1. Culture folding - only the in-memory executor applies culture rules;
//     SQL and document backends fold with plain lowercase. Invariant folding
//     of non-ASCII text differs too: SQLite's LOWER() folds ASCII only.
//  2. Exact equality on floats - storage round-trips may change the last bit.
//  3. Compare or Range against a null literal - never true; use Null/NotNull.
//  4. Empty In lists and inverted ranges - constant results.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validate(p)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validate(p Predicate) {
	if p == nil {
		v.addWarning("nil predicate - use True for an empty filter")
		return
	}

	switch n := p.(type) {
	case True, Null, NotNull, BitsAll, BitsAny:
	case And:
		for _, c := range n.Predicates {
			v.validate(c)
		}
	case Or:
		for _, c := range n.Predicates {
			v.validate(c)
		}
	case Compare:
		s, _ := n.Value.(value.String)
		v.checkFold(n.Field, n.Fold, string(s))
		if value.IsNull(n.Value) {
			v.addWarning("field '%s' compared to null - use Null or NotNull", n.Field)
			return
		}
		if n.Value.Kind() == value.KindFloat && (n.Op == OpEq || n.Op == OpNe) {
			v.addWarning("exact equality on float field '%s' depends on storage precision", n.Field)
		}
	case Contains:
		v.checkFold(n.Field, n.Fold, n.Value)
	case Range:
		if value.IsNull(n.Lo) || value.IsNull(n.Hi) {
			v.addWarning("range on '%s' has a null bound", n.Field)
			return
		}
		if c, err := value.Compare(n.Lo, n.Hi); err != nil {
			v.addWarning("range on '%s' mixes kinds: %v", n.Field, err)
		} else if c > 0 {
			v.addWarning("range on '%s' is inverted (%s > %s)", n.Field, value.Format(n.Lo), value.Format(n.Hi))
		}
	case In:
		if len(n.Values) == 0 {
			v.addWarning("in-list on '%s' is empty", n.Field)
		}
	default:
		v.addWarning("unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) checkFold(field string, f Fold, text string) {
	switch {
	case f == FoldCulture:
		v.addWarning("culture-sensitive folding on '%s' is evaluated as invariant lowercase outside memory", field)
	case f == FoldInvariant && !isASCII(text):
		v.addWarning("invariant folding of non-ASCII text on '%s' is ASCII-only in SQLite", field)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
