package value

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPermissions = MustEnum("Permissions",
	EnumMember{Name: "Read", Value: 1},
	EnumMember{Name: "Write", Value: 2},
	EnumMember{Name: "Admin", Value: 4},
)

var testStatus = MustEnum("Status",
	EnumMember{Name: "Active", Value: 1},
	EnumMember{Name: "Suspended", Value: 2},
)

func TestParseValid(t *testing.T) {
	id := uuid.MustParse("0190f2a8-7b7c-7cc1-9a3c-4f1f3e8b2a10")

	tests := []struct {
		name string
		kind Kind
		text string
		enum *EnumDef
		want Value
	}{
		{"string", KindString, "John", nil, String("John")},
		{"string keeps spaces", KindString, " a b ", nil, String(" a b ")},
		{"int", KindInt, "42", nil, Int(42)},
		{"negative int", KindInt, "-7", nil, Int(-7)},
		{"float", KindFloat, "1.5", nil, Float(1.5)},
		{"decimal", KindDecimal, "10.25", nil, NewDecimal(decimal.RequireFromString("10.25"))},
		{"bool true", KindBool, "true", nil, Bool(true)},
		{"bool false", KindBool, "false", nil, Bool(false)},
		{"date", KindDate, "2024-02-29", nil, NewDate(2024, time.February, 29)},
		{"datetime date only", KindDateTime, "2020-01-01", nil, NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"datetime T", KindDateTime, "2020-01-01T10:20:30", nil, NewDateTime(time.Date(2020, 1, 1, 10, 20, 30, 0, time.UTC))},
		{"datetime space", KindDateTime, "2020-01-01 10:20:30", nil, NewDateTime(time.Date(2020, 1, 1, 10, 20, 30, 0, time.UTC))},
		{"datetime offset", KindDateTime, "2020-01-01T12:00:00+02:00", nil, NewDateTime(time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC))},
		{"datetime fraction", KindDateTime, "2020-01-01T00:00:00.5", nil, NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 500000000, time.UTC))},
		{"uuid", KindUUID, id.String(), nil, UUID(id)},
		{"enum by name", KindEnum, "Suspended", testStatus, Enum(2)},
		{"enum by number", KindEnum, "1", testStatus, Enum(1)},
		{"flags by names", KindFlags, "Read|Admin", testPermissions, Flags(5)},
		{"flags by number", KindFlags, "3", testPermissions, Flags(3)},
		{"compound", KindCompound, "3:17", nil, NewCompound(3, 17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.text, tt.enum)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %s, got %s", Format(tt.want), Format(got))
		})
	}
}

func TestParseBlankIsNull(t *testing.T) {
	for _, kind := range []Kind{KindString, KindInt, KindDateTime, KindEnum, KindCompound} {
		t.Run(kind.String(), func(t *testing.T) {
			for _, text := range []string{"", "  ", "\t"} {
				got, err := Parse(kind, text, nil)
				require.NoError(t, err)
				assert.True(t, IsNull(got))
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		text string
		enum *EnumDef
	}{
		{"int with letters", KindInt, "12a", nil},
		{"int comma decimal", KindInt, "1,5", nil},
		{"int overflow", KindInt, "99999999999999999999", nil},
		{"float comma separator", KindFloat, "1,5", nil},
		{"float NaN", KindFloat, "NaN", nil},
		{"float Inf", KindFloat, "Inf", nil},
		{"decimal exponent", KindDecimal, "1e3", nil},
		{"decimal garbage", KindDecimal, "ten", nil},
		{"bool capitalized", KindBool, "True", nil},
		{"bool numeric", KindBool, "1", nil},
		{"date with time", KindDate, "2024-01-01T00:00:00", nil},
		{"date us layout", KindDate, "01/02/2024", nil},
		{"datetime garbage", KindDateTime, "yesterday", nil},
		{"uuid short", KindUUID, "1234", nil},
		{"enum wrong case", KindEnum, "active", testStatus},
		{"enum unknown number", KindEnum, "9", testStatus},
		{"enum without definition", KindEnum, "Active", nil},
		{"flags unknown name", KindFlags, "Read|Delete", testPermissions},
		{"flags undefined bits", KindFlags, "8", testPermissions},
		{"compound negative part", KindCompound, "1:-2", nil},
		{"compound empty part", KindCompound, "1::2", nil},
		{"null kind", KindNull, "x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.kind, tt.text, tt.enum)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.text, pe.Text)
		})
	}
}

func TestParseEnumRequired(t *testing.T) {
	_, err := Parse(KindFlags, "Read", nil)
	assert.ErrorIs(t, err, ErrEnumRequired)
}

func TestParseFormatRoundTrip(t *testing.T) {
	values := []Value{
		String("x;y"),
		Int(-12),
		Float(0.25),
		NewDecimal(decimal.RequireFromString("3.14159")),
		Bool(true),
		NewDateTime(time.Date(2021, 6, 1, 8, 30, 0, 123, time.UTC)),
		NewDate(1999, time.December, 31),
		UUID(uuid.MustParse("0190f2a8-7b7c-7cc1-9a3c-4f1f3e8b2a10")),
		NewCompound(1, 2, 3),
	}

	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			back, err := Parse(v.Kind(), Format(v), nil)
			require.NoError(t, err)
			assert.True(t, Equal(v, back))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" DateTime ")
	require.NoError(t, err)
	assert.Equal(t, KindDateTime, k)

	_, err = ParseKind("null")
	assert.Error(t, err)

	_, err = ParseKind("money")
	assert.Error(t, err)
}

func TestNewEnumRejectsDuplicates(t *testing.T) {
	_, err := NewEnum("E", EnumMember{Name: "A", Value: 1}, EnumMember{Name: "A", Value: 2})
	assert.Error(t, err)

	_, err = NewEnum("E", EnumMember{Name: " ", Value: 1})
	assert.Error(t, err)
}

func TestEnumLookup(t *testing.T) {
	n, ok := testStatus.Lookup("Active")
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	name, ok := testStatus.NameOf(2)
	assert.True(t, ok)
	assert.Equal(t, "Suspended", name)

	assert.Equal(t, uint64(7), testPermissions.Mask())
}
