package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/filterql/internal/schema"
	"github.com/roach88/filterql/internal/users"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every entity and collects all errors.
	LoadModeCollectAll
)

// LoadResult contains the registries compiled from a schema directory.
type LoadResult struct {
	Registries []*schema.Registry
	FileCount  int // number of CUE files found
}

// Registry returns the registry for entity, or the first one when entity
// is empty.
func (r *LoadResult) Registry(entity string) (*schema.Registry, error) {
	if len(r.Registries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoEntities, Message: "no entities loaded"}
	}
	if entity == "" {
		return r.Registries[0], nil
	}
	for _, reg := range r.Registries {
		if reg.Entity() == entity {
			return reg, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeUnknownEntity, Message: fmt.Sprintf("entity %q not found", entity)}
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas compiles every entity declared in the CUE files of dir.
// A nil result means the directory itself could not be loaded.
func LoadSchemas(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	root := ctx.BuildInstance(inst)
	if err := root.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}

	enums, err := schema.CompileEnums(root)
	if err != nil {
		return result, []error{convertSchemaError(err, "enum")}
	}

	entities := root.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoEntities, Message: "no entities declared"}}
	}
	iter, err := entities.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		name := iter.Selector().Unquoted()
		reg, err := schema.CompileEntity(name, iter.Value(), enums)
		if err != nil {
			errs = append(errs, convertSchemaError(err, "entity."+name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Registries = append(result.Registries, reg)
	}

	if len(result.Registries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoEntities, Message: "no entities declared"})
	}
	return result, errs
}

// LoadRegistry returns the registry for entity from dir, or the built-in
// User registry when dir is empty.
func LoadRegistry(dir, entity string) (*schema.Registry, error) {
	if dir == "" {
		if entity != "" && entity != users.Entity {
			return nil, &LoadError{Code: ErrCodeUnknownEntity, Message: fmt.Sprintf("entity %q not found in the built-in schema", entity)}
		}
		return users.Schema(), nil
	}

	result, errs := LoadSchemas(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return result.Registry(entity)
}

// FindCUEFiles returns the .cue files directly inside dir. CUE loads one
// package per directory, so subdirectories are not searched.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}

// convertSchemaError converts a schema error to a LoadError with position info.
func convertSchemaError(err error, context string) *LoadError {
	var cueErr *schema.CUEError
	if errors.As(err, &cueErr) {
		return &LoadError{
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf("%s: %s", cueErr.Field, cueErr.Message),
			Pos:     cueErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeSchema        = "E007" // Entity declaration rejected
	ErrCodeNoEntities    = "E008" // No entity declared
	ErrCodeUnknownEntity = "E009" // Requested entity missing
	ErrCodeConfig        = "E010" // Configuration invalid
	ErrCodeServe         = "E011" // Server failed
)
