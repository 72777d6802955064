package value

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"null equals null", Null{}, Null{}, 0},
		{"nil is null", nil, Null{}, 0},
		{"null first", Null{}, Int(-100), -1},
		{"null last reversed", String(""), Null{}, 1},
		{"ordinal strings", String("B"), String("a"), -1},
		{"ints", Int(2), Int(10), -1},
		{"floats", Float(2.5), Float(2.5), 0},
		{"decimals ignore scale", NewDecimal(decimal.RequireFromString("1.0")), NewDecimal(decimal.RequireFromString("1.00")), 0},
		{"bools", Bool(false), Bool(true), -1},
		{"datetimes", NewDateTime(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)), NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), 1},
		{"dates", NewDate(2020, 1, 1), NewDate(2020, 1, 1), 0},
		{"enums", Enum(1), Enum(2), -1},
		{"flags", Flags(4), Flags(3), 1},
		{"compound partwise", NewCompound(1, 20), NewCompound(2, 1), -1},
		{"compound prefix", NewCompound(1), NewCompound(1, 0), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareKindMismatch(t *testing.T) {
	_, err := Compare(Int(1), Float(1))
	assert.Error(t, err)
	assert.False(t, Equal(Int(1), String("1")))
}

func TestCompareUUIDBytewise(t *testing.T) {
	a := UUID(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	b := UUID(uuid.MustParse("00000000-0000-0000-0000-000000000002"))
	assert.Equal(t, -1, MustCompare(a, b))
	assert.True(t, Equal(a, a))
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(NewDecimal(decimal.RequireFromString("1.50"))), Key(NewDecimal(decimal.RequireFromString("1.5"))))
	assert.NotEqual(t, Key(Int(1)), Key(String("1")))
	assert.Equal(t, "null", Key(nil))
	assert.Equal(t, "string:abc", Key(String("abc")))
}

func TestNativeOrderingMatchesValueOrdering(t *testing.T) {
	early := NewDateTime(time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC))
	late := NewDateTime(time.Date(2020, 1, 1, 11, 0, 0, 0, time.FixedZone("x", 3600)))
	assert.Less(t, Native(early).(string), Native(late).(string))

	assert.Less(t, Native(NewCompound(2, 9)).(string), Native(NewCompound(10, 1)).(string))
	assert.Equal(t, "00000000000000000001:00000000000000000002", Native(NewCompound(1, 2)))
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		src  any
		want Value
	}{
		{"nil", KindInt, nil, Null{}},
		{"bytes to string", KindString, []byte("abc"), String("abc")},
		{"int64", KindInt, int64(5), Int(5)},
		{"float from int", KindFloat, int64(2), Float(2)},
		{"decimal text", KindDecimal, "2.50", NewDecimal(decimal.RequireFromString("2.5"))},
		{"decimal float", KindDecimal, 2.5, NewDecimal(decimal.RequireFromString("2.5"))},
		{"bool from int", KindBool, int64(1), Bool(true)},
		{"datetime storage text", KindDateTime, "2020-01-01T10:00:00.000000000Z", NewDateTime(time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC))},
		{"datetime time", KindDateTime, time.Date(2020, 1, 1, 11, 0, 0, 0, time.FixedZone("x", 3600)), NewDateTime(time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC))},
		{"date from timestamp text", KindDate, "2020-03-04T00:00:00Z", NewDate(2020, 3, 4)},
		{"flags", KindFlags, int64(6), Flags(6)},
		{"padded compound", KindCompound, Native(NewCompound(7, 8)), NewCompound(7, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.kind, tt.src)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %s, got %s", Format(tt.want), Format(got))
		})
	}
}

func TestFromNativeMismatch(t *testing.T) {
	_, err := FromNative(KindBool, "yes")
	assert.Error(t, err)
}

func TestRecordValue(t *testing.T) {
	r := Record{"Name": String("a"), "Email": nil}
	assert.Equal(t, String("a"), r.Value("Name"))
	assert.True(t, IsNull(r.Value("Email")))
	assert.True(t, IsNull(r.Value("name")))
	assert.Equal(t, []string{"Email", "Name"}, r.Properties())
	assert.Equal(t, map[string]any{"Name": "a", "Email": nil}, r.Plain())
}
