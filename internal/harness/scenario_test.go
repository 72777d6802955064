package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "cue_schema.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "cue_schema", scenario.Name)
	assert.Equal(t, "User", scenario.Entity)
	assert.Equal(t, filepath.Join("testdata", "schemas"), filepath.Clean(scenario.Schema))
	require.NotEmpty(t, scenario.Cases)
	assert.Equal(t, "Status=Suspended", scenario.Cases[0].Filter)
	assert.Equal(t, []int64{3}, scenario.Cases[0].Expect.IDs)
	assert.Equal(t, Executors, scenario.executors())
	assert.Equal(t, language.English, scenario.culture())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "misspelled key"
casez:
  - name: a
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ncases: [{name: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ncases: [{name: a}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no cases",
			content: "name: n\ndescription: d\n",
			wantErr: "cases list is required",
		},
		{
			name:    "unnamed case",
			content: "name: n\ndescription: d\ncases: [{filter: Id=1}]\n",
			wantErr: "cases[0]: name is required",
		},
		{
			name:    "duplicate case",
			content: "name: n\ndescription: d\ncases: [{name: a}, {name: a}]\n",
			wantErr: `duplicate name "a"`,
		},
		{
			name:    "unknown executor",
			content: "name: n\ndescription: d\nexecutors: [mongo]\ncases: [{name: a}]\n",
			wantErr: `unknown executor "mongo"`,
		},
		{
			name:    "bad culture",
			content: "name: n\ndescription: d\nculture: \"!!\"\ncases: [{name: a}]\n",
			wantErr: "culture",
		},
		{
			name:    "missing schema dir",
			content: "name: n\ndescription: d\nschema: nowhere\ncases: [{name: a}]\n",
			wantErr: "schema directory",
		},
		{
			name:    "unknown error code",
			content: "name: n\ndescription: d\ncases: [{name: a, expect: {error: OOPS}}]\n",
			wantErr: `unknown error code "OOPS"`,
		},
		{
			name:    "error with ids",
			content: "name: n\ndescription: d\ncases: [{name: a, expect: {error: GRAMMAR, ids: [1]}}]\n",
			wantErr: "error excludes result expectations",
		},
		{
			name:    "empty with ids",
			content: "name: n\ndescription: d\ncases: [{name: a, expect: {empty: true, ids: [1]}}]\n",
			wantErr: "empty and ids are exclusive",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\ncases: [{name: a, expect: {count: -1}}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenario_Executors(t *testing.T) {
	s := &Scenario{Executors: []string{ExecSQLite, ExecMemory}}
	assert.Equal(t, []string{ExecMemory, ExecSQLite}, s.executors())

	s = &Scenario{Executors: []string{ExecSQLite}}
	assert.Equal(t, []string{ExecSQLite}, s.executors())
}

func TestScenario_Culture(t *testing.T) {
	s := &Scenario{Culture: "tr"}
	assert.Equal(t, language.Make("tr"), s.culture())
}
