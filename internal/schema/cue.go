package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/value"
)

// CUEError reports a problem in a declarative schema, with the CUE source
// position when one is known.
type CUEError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CUEError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads every .cue file in dir as one CUE instance and compiles
// the entity schemas it declares. A schema file looks like:
//
//	enum: Status: {Active: 1, Suspended: 2}
//
//	entity: User: {
//		fields: {
//			Id:     {kind: "int"}
//			Name:   {kind: "string", nullable: true}
//			Status: {kind: "enum", enum: "Status"}
//			Search: {group: [
//				{property: "Name", kind: "string", nullable: true, join: "or"},
//				{property: "Email", kind: "string", nullable: true, join: "or"},
//			]}
//		}
//		sorts: {
//			Name: {properties: ["Name"]}
//		}
//	}
func LoadCUE(dir string) ([]*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errors.New("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	root := ctx.BuildInstance(inst)
	return CompileCUE(root)
}

// CompileCUE compiles every entity under the root value's "entity" struct,
// in declaration order. Enumerations are taken from the "enum" struct.
func CompileCUE(root cue.Value) ([]*Registry, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	enums, err := CompileEnums(root)
	if err != nil {
		return nil, err
	}

	entities := root.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CUEError{Field: "entity", Message: "no entities declared", Pos: root.Pos()}
	}

	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var regs []*Registry
	for iter.Next() {
		reg, err := CompileEntity(iter.Selector().Unquoted(), iter.Value(), enums)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// CompileEntity compiles one entity struct into a registry.
func CompileEntity(name string, v cue.Value, enums map[string]*value.EnumDef) (*Registry, error) {
	b := NewBuilder(name)

	if fields := v.LookupPath(cue.ParsePath("fields")); fields.Exists() {
		iter, err := fields.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			if err := compileField(b, iter.Selector().Unquoted(), iter.Value(), enums); err != nil {
				return nil, err
			}
		}
	}

	if sorts := v.LookupPath(cue.ParsePath("sorts")); sorts.Exists() {
		iter, err := sorts.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			if err := compileSort(b, iter.Selector().Unquoted(), iter.Value()); err != nil {
				return nil, err
			}
		}
	}

	reg, err := b.Build()
	if err != nil {
		return nil, &CUEError{Field: "entity." + name, Message: err.Error(), Pos: v.Pos()}
	}
	return reg, nil
}

// CompileEnums compiles the enumerations under the root value's "enum"
// struct, keyed by name.
func CompileEnums(root cue.Value) (map[string]*value.EnumDef, error) {
	enums := make(map[string]*value.EnumDef)
	ev := root.LookupPath(cue.ParsePath("enum"))
	if !ev.Exists() {
		return enums, nil
	}

	iter, err := ev.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		members, err := iter.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var list []value.EnumMember
		for members.Next() {
			n, err := members.Value().Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			list = append(list, value.EnumMember{Name: members.Selector().Unquoted(), Value: n})
		}
		def, err := value.NewEnum(name, list...)
		if err != nil {
			return nil, &CUEError{Field: "enum." + name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		enums[name] = def
	}
	return enums, nil
}

func compileField(b *Builder, name string, v cue.Value, enums map[string]*value.EnumDef) error {
	if group := v.LookupPath(cue.ParsePath("group")); group.Exists() {
		return compileGroup(b, name, v, group, enums)
	}

	kind, err := lookupKind(v, name)
	if err != nil {
		return err
	}
	property, err := optionalString(v, "property", name)
	if err != nil {
		return err
	}

	fb := b.Field(name, property, kind)
	nullable, err := optionalBool(v, "nullable", false)
	if err != nil {
		return err
	}
	if nullable {
		fb.Nullable()
	}

	if exposed := v.LookupPath(cue.ParsePath("exposed")); exposed.Exists() {
		ek, err := lookupKind(exposed, name+".exposed")
		if err != nil {
			return err
		}
		en, err := optionalBool(exposed, "nullable", false)
		if err != nil {
			return err
		}
		fb.Exposed(ek, en)
	}

	if ops := v.LookupPath(cue.ParsePath("operators")); ops.Exists() {
		op, err := parseOpValue(ops, name+".operators")
		if err != nil {
			return err
		}
		fb.Operators(op)
	}
	if def := v.LookupPath(cue.ParsePath("default")); def.Exists() {
		op, err := parseOpValue(def, name+".default")
		if err != nil {
			return err
		}
		fb.Default(op)
	}
	if e := v.LookupPath(cue.ParsePath("emptyToNull")); e.Exists() {
		on, err := e.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		fb.EmptyToNull(on)
	}
	if pos := v.LookupPath(cue.ParsePath("position")); pos.Exists() {
		n, err := pos.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		fb.Position(int(n))
	}

	def, err := lookupEnum(v, name, enums)
	if err != nil {
		return err
	}
	if def != nil {
		fb.Enum(def)
	}
	return nil
}

func compileGroup(b *Builder, name string, v, group cue.Value, enums map[string]*value.EnumDef) error {
	gb := b.Group(name)

	iter, err := group.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		pv := iter.Value()
		property, err := optionalString(pv, "property", "")
		if err != nil {
			return err
		}
		if property == "" {
			return &CUEError{Field: name + ".group", Message: "part property is required", Pos: pv.Pos()}
		}
		kind, err := lookupKind(pv, name+"."+property)
		if err != nil {
			return err
		}
		joinName, err := optionalString(pv, "join", "and")
		if err != nil {
			return err
		}

		var join Join
		switch joinName {
		case "and":
			join = JoinAnd
		case "or":
			join = JoinOr
		default:
			return &CUEError{Field: name + "." + property + ".join", Message: fmt.Sprintf("join must be \"and\" or \"or\", got %q", joinName), Pos: pv.Pos()}
		}

		var opts []PartOption
		nullable, err := optionalBool(pv, "nullable", false)
		if err != nil {
			return err
		}
		if nullable {
			opts = append(opts, PartNullable())
		}
		if ops := pv.LookupPath(cue.ParsePath("operators")); ops.Exists() {
			op, err := parseOpValue(ops, name+"."+property+".operators")
			if err != nil {
				return err
			}
			opts = append(opts, PartOperators(op))
		}
		if order := pv.LookupPath(cue.ParsePath("order")); order.Exists() {
			n, err := order.Int64()
			if err != nil {
				return formatCUEError(err)
			}
			opts = append(opts, PartOrder(int(n)))
		}
		gb.Part(property, kind, join, opts...)
	}

	if pos := v.LookupPath(cue.ParsePath("position")); pos.Exists() {
		n, err := pos.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		gb.Position(int(n))
	}
	def, err := lookupEnum(v, name, enums)
	if err != nil {
		return err
	}
	if def != nil {
		gb.Enum(def)
	}
	return nil
}

func compileSort(b *Builder, name string, v cue.Value) error {
	var properties []string
	if pv := v.LookupPath(cue.ParsePath("properties")); pv.Exists() {
		if err := pv.Decode(&properties); err != nil {
			return formatCUEError(err)
		}
	} else {
		properties = []string{name}
	}

	sb := b.Sort(name, properties...)
	if d := v.LookupPath(cue.ParsePath("directions")); d.Exists() {
		dir, err := parseDirValue(d, name+".directions")
		if err != nil {
			return err
		}
		sb.Directions(dir)
	}
	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		dir, err := parseDirValue(d, name+".default")
		if err != nil {
			return err
		}
		sb.Default(dir)
	}
	if pos := v.LookupPath(cue.ParsePath("position")); pos.Exists() {
		n, err := pos.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		sb.Position(int(n))
	}
	return nil
}

func lookupKind(v cue.Value, field string) (value.Kind, error) {
	kv := v.LookupPath(cue.ParsePath("kind"))
	if !kv.Exists() {
		return value.KindNull, &CUEError{Field: field, Message: "kind is required", Pos: v.Pos()}
	}
	s, err := kv.String()
	if err != nil {
		return value.KindNull, formatCUEError(err)
	}
	k, err := value.ParseKind(s)
	if err != nil {
		return value.KindNull, &CUEError{Field: field + ".kind", Message: err.Error(), Pos: kv.Pos()}
	}
	return k, nil
}

func lookupEnum(v cue.Value, field string, enums map[string]*value.EnumDef) (*value.EnumDef, error) {
	ev := v.LookupPath(cue.ParsePath("enum"))
	if !ev.Exists() {
		return nil, nil
	}
	name, err := ev.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	def, ok := enums[name]
	if !ok {
		return nil, &CUEError{Field: field + ".enum", Message: fmt.Sprintf("undefined enum %q", name), Pos: ev.Pos()}
	}
	return def, nil
}

func parseOpValue(v cue.Value, field string) (operator.Op, error) {
	s, err := v.String()
	if err != nil {
		return operator.None, formatCUEError(err)
	}
	op, err := operator.ParseName(s)
	if err != nil {
		return operator.None, &CUEError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return op, nil
}

func parseDirValue(v cue.Value, field string) (operator.Direction, error) {
	s, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	d, err := operator.ParseDirection(s)
	if err != nil {
		return 0, &CUEError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return d, nil
}

func optionalString(v cue.Value, path, fallback string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return fallback, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string, fallback bool) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(path))
	if !bv.Exists() {
		return fallback, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError keeps the first CUE error together with its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CUEError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
