package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/filterql/internal/qerrors"
)

// Executor names.
const (
	ExecMemory = "memory"
	ExecSQLite = "sqlite"
)

// Executors lists every executor a scenario may name, in run order.
var Executors = []string{ExecMemory, ExecSQLite}

// Scenario is a list of filter and sort cases run against the sample users.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Schema is a directory of CUE entity schemas, relative to the scenario
	// file. Empty uses the built-in User registry.
	Schema string `yaml:"schema,omitempty"`

	// Entity picks the registry from Schema. Empty picks the first one.
	Entity string `yaml:"entity,omitempty"`

	// Culture is the BCP 47 tag for culture folding (default "en").
	Culture string `yaml:"culture,omitempty"`

	// Executors restricts which executors run. Empty runs all of them.
	Executors []string `yaml:"executors,omitempty"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`
}

// Case is one query and what it must produce.
type Case struct {
	Name   string `yaml:"name"`
	Filter string `yaml:"filter,omitempty"`
	Sort   string `yaml:"sort,omitempty"`
	Expect Expect `yaml:"expect"`
}

// Expect holds a case's expectations. Unset fields are not checked.
type Expect struct {
	// IDs are the matching user ids, in result order.
	IDs []int64 `yaml:"ids,omitempty"`

	// Empty expects no matches. It is needed because an empty ids list
	// cannot be told apart from a missing one.
	Empty bool `yaml:"empty,omitempty"`

	// Count is the expected number of matches.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected query error code, e.g. UNKNOWN_FIELD.
	Error string `yaml:"error,omitempty"`

	// Predicate is the expected rendering of the compiled filter.
	Predicate string `yaml:"predicate,omitempty"`

	// Portable, when set, is the expected portability of the filter.
	Portable *bool `yaml:"portable,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and Schema is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); err != nil {
			return fmt.Errorf("schema directory: %w", err)
		}
	}
	if s.Culture != "" {
		if _, err := language.Parse(s.Culture); err != nil {
			return fmt.Errorf("culture %q: %w", s.Culture, err)
		}
	}
	for _, e := range s.Executors {
		if !slices.Contains(Executors, e) {
			return fmt.Errorf("unknown executor %q", e)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
		if err := validateExpect(i, c.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e Expect) error {
	if e.Error == "" {
		if e.Empty && len(e.IDs) > 0 {
			return fmt.Errorf("cases[%d].expect: empty and ids are exclusive", index)
		}
		if e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("cases[%d].expect: count must be non-negative", index)
		}
		return nil
	}

	if !qerrors.IsKnownCode(qerrors.Code(e.Error)) {
		return fmt.Errorf("cases[%d].expect: unknown error code %q", index, e.Error)
	}
	if len(e.IDs) > 0 || e.Empty || e.Count != nil || e.Predicate != "" || e.Portable != nil {
		return fmt.Errorf("cases[%d].expect: error excludes result expectations", index)
	}
	return nil
}

// executors returns the executors the scenario runs, in run order.
func (s *Scenario) executors() []string {
	if len(s.Executors) == 0 {
		return Executors
	}
	var out []string
	for _, e := range Executors {
		if slices.Contains(s.Executors, e) {
			out = append(out, e)
		}
	}
	return out
}

// culture returns the scenario's culture tag. LoadScenario has validated it.
func (s *Scenario) culture() language.Tag {
	if s.Culture == "" {
		return language.English
	}
	return language.Make(s.Culture)
}
