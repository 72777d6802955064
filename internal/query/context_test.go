package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/users"
	"github.com/roach88/filterql/internal/value"
)

func TestNewFilterContext(t *testing.T) {
	reg := users.Schema()
	reqs := []FilterRequest{
		{Field: "Id", Op: operator.Equal, Values: []value.Value{value.Int(5)}},
		{Field: "LastName", Op: operator.IsNotNull},
		{Field: "Age", Op: operator.Between | operator.TrueWhenNull, Values: []value.Value{value.Int(1), value.Int(9)}},
	}

	fc, err := NewFilterContext(reg, reqs)
	require.NoError(t, err)
	assert.Equal(t, 3, fc.Len())
	assert.Same(t, reg, fc.Registry())
	assert.Equal(t, reqs, fc.Requests())
}

func TestFilterContextIsImmutable(t *testing.T) {
	values := []value.Value{value.Int(5)}
	fc, err := NewFilterContext(users.Schema(), []FilterRequest{{Field: "Id", Op: operator.Equal, Values: values}})
	require.NoError(t, err)

	values[0] = value.Int(6)
	got := fc.Requests()
	assert.Equal(t, value.Int(5), got[0].Values[0])

	got[0].Values[0] = value.Int(7)
	assert.Equal(t, value.Int(5), fc.Requests()[0].Values[0])
}

func TestCheckFilter(t *testing.T) {
	tests := []struct {
		name string
		req  FilterRequest
		code qerrors.Code
	}{
		{"unknown field", FilterRequest{Field: "Nope", Op: operator.Equal, Values: []value.Value{value.Int(1)}}, qerrors.CodeUnknownField},
		{"two base operators", FilterRequest{Field: "Id", Op: operator.Equal | operator.Less, Values: []value.Value{value.Int(1)}}, qerrors.CodeOperatorNotAllowed},
		{"no base operator", FilterRequest{Field: "Id", Op: operator.TrueWhenNull}, qerrors.CodeOperatorNotAllowed},
		{"not allowed", FilterRequest{Field: "Id", Op: operator.Like, Values: []value.Value{value.Int(1)}}, qerrors.CodeOperatorNotAllowed},
		{"null test with operand", FilterRequest{Field: "Age", Op: operator.IsNull, Values: []value.Value{value.Int(1)}}, qerrors.CodeArity},
		{"missing operand", FilterRequest{Field: "Id", Op: operator.Equal}, qerrors.CodeArity},
		{"between one operand", FilterRequest{Field: "Id", Op: operator.Between, Values: []value.Value{value.Int(1)}}, qerrors.CodeArity},
		{"empty in", FilterRequest{Field: "Id", Op: operator.In}, qerrors.CodeArity},
		{"null on non-nullable", FilterRequest{Field: "Id", Op: operator.Equal, Values: []value.Value{value.Null{}}}, qerrors.CodeNullability},
		{"null with relational", FilterRequest{Field: "Age", Op: operator.Greater, Values: []value.Value{value.Null{}}}, qerrors.CodeNullability},
		{"wrong kind", FilterRequest{Field: "Id", Op: operator.Equal, Values: []value.Value{value.String("5")}}, qerrors.CodeValueFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFilter(users.Schema(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, qerrors.CodeOf(err), "error: %v", err)

			fc, err := NewFilterContext(users.Schema(), []FilterRequest{tt.req})
			assert.Nil(t, fc)
			assert.Error(t, err)
		})
	}
}

func TestCheckFilterNullEquality(t *testing.T) {
	err := CheckFilter(users.Schema(), FilterRequest{Field: "Email", Op: operator.NotEqual, Values: []value.Value{value.Null{}}})
	assert.NoError(t, err)
}

func TestNewSortContext(t *testing.T) {
	reg := users.Schema()

	sc, err := NewSortContext(reg, []SortRequest{{Field: "Name", Direction: operator.Ascending}})
	require.NoError(t, err)
	assert.Equal(t, 1, sc.Len())

	_, err = NewSortContext(reg, []SortRequest{{Field: "Nope", Direction: operator.Ascending}})
	assert.True(t, qerrors.IsUnknownField(err))

	_, err = NewSortContext(reg, []SortRequest{{Field: "Name", Direction: operator.BothDirections}})
	assert.True(t, qerrors.IsOperatorNotAllowed(err))

	_, err = NewSortContext(reg, []SortRequest{{Field: "Name"}})
	assert.True(t, qerrors.IsOperatorNotAllowed(err))
}

func TestFingerprint(t *testing.T) {
	reg := users.Schema()
	mk := func(field string) *FilterContext {
		fc, err := NewFilterContext(reg, []FilterRequest{{Field: field, Op: operator.Like, Values: []value.Value{value.String("x")}}})
		require.NoError(t, err)
		return fc
	}
	sc, err := NewSortContext(reg, []SortRequest{{Field: "created", Direction: operator.Descending}})
	require.NoError(t, err)

	a, err := Fingerprint(mk("Username"), sc)
	require.NoError(t, err)
	b, err := Fingerprint(mk("username"), sc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Fingerprint(mk("Email"), sc)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := Fingerprint(mk("Username"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	empty, err := Fingerprint(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}
