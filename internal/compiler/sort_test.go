package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/parser"
	"github.com/roach88/filterql/internal/queryir"
	"github.com/roach88/filterql/internal/users"
)

func TestCompileSort(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []queryir.SortKey
	}{
		{"empty", "", nil},
		{"name then created descending", "Name;Created,2", []queryir.SortKey{
			{Field: "LastName"},
			{Field: "FirstName"},
			{Field: "Created", Descending: true},
		}},
		{"descending expands every property", "Name,2", []queryir.SortKey{
			{Field: "LastName", Descending: true},
			{Field: "FirstName", Descending: true},
		}},
		{"repeated property keeps first key", "Name;Id;Name,2", []queryir.SortKey{
			{Field: "LastName"},
			{Field: "FirstName"},
			{Field: "Id"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := parser.ParseSort(users.Schema(), tt.text)
			require.NoError(t, err)
			got, err := CompileSort(sc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Keys)
		})
	}
}

func TestCompileBoth(t *testing.T) {
	reg := users.Schema()
	fc, err := parser.ParseFilter(reg, "Id=5")
	require.NoError(t, err)
	sc, err := parser.ParseSort(reg, "Created,2")
	require.NoError(t, err)

	q, err := Compile(fc, sc)
	require.NoError(t, err)
	assert.Equal(t, "entity.Id==5", queryir.String(q.Filter))
	assert.Equal(t, "Created desc", q.Order.String())

	q, err = Compile(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.True{}, q.Filter)
	assert.True(t, q.Order.IsEmpty())
}
