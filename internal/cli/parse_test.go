package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/filterql/internal/parser"
)

type parseResponse struct {
	Status string       `json:"status"`
	Data   *ParseResult `json:"data"`
	Error  *CLIError    `json:"error"`
}

func runParseCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewParseCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func decodeParse(t *testing.T, buf *bytes.Buffer) parseResponse {
	t.Helper()
	var resp parseResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

func TestParseCommand_Compiles(t *testing.T) {
	buf, err := runParseCmd(t, "json", "--filter", "Id=5")
	require.NoError(t, err)

	resp := decodeParse(t, buf)
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "User", resp.Data.Entity)
	assert.Equal(t, "entity.Id==5", resp.Data.Predicate)
	assert.True(t, resp.Data.Portable)
	assert.Empty(t, resp.Data.Warnings)
	assert.NotEmpty(t, resp.Data.Fingerprint)
	assert.Nil(t, resp.Data.SQL)
	assert.Nil(t, resp.Data.Document)
}

func TestParseCommand_CaseInsensitiveWarning(t *testing.T) {
	buf, err := runParseCmd(t, "json", "--filter", "Username|i=Admin")
	require.NoError(t, err)

	resp := decodeParse(t, buf)
	require.NotNil(t, resp.Data)
	assert.Equal(t, `lower(entity.Username)=="admin"`, resp.Data.Predicate)
	assert.False(t, resp.Data.Portable)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Contains(t, resp.Data.Warnings[0], "culture-sensitive")
}

func TestParseCommand_FingerprintStable(t *testing.T) {
	first, err := runParseCmd(t, "json", "--filter", "Status=Active", "--sort", "Created,2")
	require.NoError(t, err)
	second, err := runParseCmd(t, "json", "--filter", "Status=Active", "--sort", "Created,2")
	require.NoError(t, err)

	assert.Equal(t, decodeParse(t, first).Data.Fingerprint, decodeParse(t, second).Data.Fingerprint)
}

func TestParseCommand_Eval(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		sort   string
		want   []int64
	}{
		{"by id", "Id=5", "", []int64{5}},
		{"case insensitive", "Username|i=ADMIN", "", []int64{1}},
		{"active newest first", "Status=Active", "Created,2", []int64{5, 4, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := runParseCmd(t, "json", "--filter", tt.filter, "--sort", tt.sort, "--eval")
			require.NoError(t, err)

			resp := decodeParse(t, buf)
			require.NotNil(t, resp.Data)
			assert.Equal(t, tt.want, resp.Data.Matches)
		})
	}
}

func TestParseCommand_SQL(t *testing.T) {
	tests := []struct {
		dialect     string
		placeholder string
	}{
		{"sqlite", "?"},
		{"postgres", "$1"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			buf, err := runParseCmd(t, "json", "--filter", "Id=5", "--sql", tt.dialect)
			require.NoError(t, err)

			resp := decodeParse(t, buf)
			require.NotNil(t, resp.Data)
			require.NotNil(t, resp.Data.SQL)
			assert.Equal(t, tt.dialect, resp.Data.SQL.Dialect)
			assert.True(t, strings.HasPrefix(resp.Data.SQL.Query, "SELECT "))
			assert.Contains(t, resp.Data.SQL.Query, `FROM "user"`)
			assert.Contains(t, resp.Data.SQL.Query, tt.placeholder)
			assert.Contains(t, resp.Data.SQL.Query, "ORDER BY")
			assert.Equal(t, []any{float64(5)}, resp.Data.SQL.Args)
		})
	}
}

func TestParseCommand_SQLTable(t *testing.T) {
	buf, err := runParseCmd(t, "json", "--filter", "Id=5", "--sql", "sqlite", "--table", "users")
	require.NoError(t, err)

	resp := decodeParse(t, buf)
	require.NotNil(t, resp.Data.SQL)
	assert.Contains(t, resp.Data.SQL.Query, `FROM "users"`)
}

func TestParseCommand_UnknownDialect(t *testing.T) {
	buf, err := runParseCmd(t, "json", "--filter", "Id=5", "--sql", "oracle")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeParse(t, buf)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeGeneric, resp.Error.Code)
}

func TestParseCommand_Doc(t *testing.T) {
	buf, err := runParseCmd(t, "json", "--filter", "Id=5", "--doc")
	require.NoError(t, err)

	resp := decodeParse(t, buf)
	require.NotNil(t, resp.Data.Document)
	assert.Contains(t, resp.Data.Document.Filter, "Id")
	assert.NotNil(t, resp.Data.Document.Sort)
}

func TestParseCommand_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		sort   string
		code   string
	}{
		{"unknown field", "Nope=1", "", "UNKNOWN_FIELD"},
		{"grammar", "Foo@Bar", "", "GRAMMAR"},
		{"filter too long", strings.Repeat("a", parser.MaxFilterLength+1), "", CodeLimit},
		{"sort too long", "", strings.Repeat("a", parser.MaxSortLength+1), CodeLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := runParseCmd(t, "json", "--filter", tt.filter, "--sort", tt.sort)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeParse(t, buf)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestParseCommand_Text(t *testing.T) {
	buf, err := runParseCmd(t, "text", "--filter", "Id=5", "--eval")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Entity:      User")
	assert.Contains(t, out, "Predicate:   entity.Id==5")
	assert.Contains(t, out, "Matches: [5]")
}

func TestParseCommand_TextRejected(t *testing.T) {
	buf, err := runParseCmd(t, "text", "--filter", "Nope=1")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error [UNKNOWN_FIELD]")
}

func TestParseCommand_CUESchema(t *testing.T) {
	schemaDir := filepath.Join("..", "schema", "testdata", "users")

	buf, err := runParseCmd(t, "json", "--schema", schemaDir, "--entity", "User", "--filter", "Status=Suspended")
	require.NoError(t, err)

	resp := decodeParse(t, buf)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "User", resp.Data.Entity)
	assert.Contains(t, resp.Data.Predicate, "entity.Status")
}

func TestParseCommand_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing directory", []string{"--schema", "/nonexistent/schemas"}, ErrCodeNotFound},
		{"unknown entity", []string{"--schema", filepath.Join("..", "schema", "testdata", "users"), "--entity", "Order"}, ErrCodeUnknownEntity},
		{"unknown built-in entity", []string{"--entity", "Order"}, ErrCodeUnknownEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := runParseCmd(t, "json", append(tt.args, "--filter", "Id=1")...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeParse(t, buf)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
