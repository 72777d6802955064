package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/value"
)

func TestValidate_PortablePredicate(t *testing.T) {
	pred := And{Predicates: []Predicate{
		Compare{Field: "Id", Op: OpEq, Value: value.Int(5)},
		Contains{Field: "Username", Value: "adm", Fold: FoldInvariant},
		Or{Predicates: []Predicate{
			Range{Field: "Age", Lo: value.Int(18), Hi: value.Int(30)},
			Null{Field: "Age"},
		}},
		In{Field: "Status", Values: []value.Value{value.Enum(1)}},
		BitsAny{Field: "Permissions", Mask: 3},
	}}

	result := Validate(pred)

	assert.True(t, result.IsPortable, "warnings: %v", result.Warnings)
	assert.Empty(t, result.Warnings)
}

func TestValidate_True(t *testing.T) {
	assert.True(t, Validate(True{}).IsPortable)
}

func TestValidate_Warnings(t *testing.T) {
	tests := []struct {
		name     string
		pred     Predicate
		contains string
	}{
		{"nil", nil, "nil predicate"},
		{"culture fold compare", Compare{Field: "Username", Op: OpEq, Value: value.String("a"), Fold: FoldCulture}, "culture-sensitive"},
		{"culture fold contains", Contains{Field: "Username", Value: "a", Fold: FoldCulture}, "culture-sensitive"},
		{"invariant fold non-ascii", Compare{Field: "Username", Op: OpEq, Value: value.String("École"), Fold: FoldInvariant}, "ASCII-only"},
		{"invariant fold non-ascii contains", Contains{Field: "Username", Value: "straße", Fold: FoldInvariant}, "ASCII-only"},
		{"float equality", Compare{Field: "Score", Op: OpEq, Value: value.Float(1.5)}, "float"},
		{"null literal", Compare{Field: "Email", Op: OpEq, Value: value.Null{}}, "compared to null"},
		{"null bound", Range{Field: "Age", Lo: value.Null{}, Hi: value.Int(3)}, "null bound"},
		{"inverted range", Range{Field: "Age", Lo: value.Int(9), Hi: value.Int(3)}, "inverted"},
		{"mixed range", Range{Field: "Age", Lo: value.Int(1), Hi: value.String("3")}, "mixes kinds"},
		{"empty in", In{Field: "Id"}, "empty"},
		{"nested", Or{Predicates: []Predicate{True{}, In{Field: "Id"}}}, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.pred)
			assert.False(t, result.IsPortable)
			require.Len(t, result.Warnings, 1)
			assert.Contains(t, result.Warnings[0], tt.contains)
		})
	}
}

func TestValidate_FloatRelationalIsPortable(t *testing.T) {
	result := Validate(Compare{Field: "Score", Op: OpGt, Value: value.Float(1.5)})
	assert.True(t, result.IsPortable)
}

func TestValidate_InvariantFoldASCIIIsPortable(t *testing.T) {
	result := Validate(Contains{Field: "Username", Value: "Admin", Fold: FoldInvariant})
	assert.True(t, result.IsPortable)
}
