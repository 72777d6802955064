package schema

import (
	"errors"
	"slices"
	"strings"

	"github.com/roach88/filterql/internal/operator"
	"github.com/roach88/filterql/internal/qerrors"
	"github.com/roach88/filterql/internal/value"
)

// Builder registers the filter and sort fields of one entity type.
//
//	reg, err := schema.NewBuilder("User").
//		Field("Name", "Name", value.KindString).Nullable().
//		Builder().Sort("Name", "Name").
//		Builder().Build()
//
// Field, Group and Sort return sub-builders; each sub-builder's Builder
// method returns to the parent so registrations can be chained. Build
// checks every registration and reports all problems at once.
type Builder struct {
	entity string
	fields []*FieldBuilder
	groups []*GroupBuilder
	sorts  []*SortBuilder
	next   int
}

// NewBuilder starts a registry for entity.
func NewBuilder(entity string) *Builder {
	return &Builder{entity: entity}
}

func (b *Builder) position() int {
	p := b.next
	b.next++
	return p
}

// Field registers a simple field backed by property.
func (b *Builder) Field(name, property string, kind value.Kind) *FieldBuilder {
	fb := &FieldBuilder{
		parent:   b,
		name:     name,
		property: property,
		storage:  Type{Kind: kind},
		position: b.position(),
	}
	b.fields = append(b.fields, fb)
	return fb
}

// Group registers a field spanning several properties. Add parts with Part.
func (b *Builder) Group(name string) *GroupBuilder {
	gb := &GroupBuilder{parent: b, name: name, position: b.position()}
	b.groups = append(b.groups, gb)
	return gb
}

// Sort registers a sort field expanding to properties in order.
func (b *Builder) Sort(name string, properties ...string) *SortBuilder {
	sb := &SortBuilder{
		parent:     b,
		name:       name,
		properties: properties,
		allowed:    operator.BothDirections,
		position:   len(b.sorts),
	}
	b.sorts = append(b.sorts, sb)
	return sb
}

// Build validates every registration and returns the registry. All
// problems are reported together as *qerrors.RegistrationError values
// joined with errors.Join.
func (b *Builder) Build() (*Registry, error) {
	var errs []error
	var filters []*FieldDescriptor
	seen := make(map[string]bool)

	addFilter := func(fd *FieldDescriptor) {
		key := foldName(fd.Name)
		if seen[key] {
			errs = append(errs, qerrors.NewRegistrationError(b.entity, fd.Name, "duplicate filter field name"))
			return
		}
		seen[key] = true
		filters = append(filters, fd)
	}

	for _, fb := range b.fields {
		fd, err := fb.build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addFilter(fd)
	}
	for _, gb := range b.groups {
		fd, err := gb.build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addFilter(fd)
	}

	var sorts []*SortDescriptor
	seenSort := make(map[string]bool)
	for _, sb := range b.sorts {
		sd, err := sb.build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := foldName(sd.Name)
		if seenSort[key] {
			errs = append(errs, qerrors.NewRegistrationError(b.entity, sd.Name, "duplicate sort field name"))
			continue
		}
		seenSort[key] = true
		sorts = append(sorts, sd)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return newRegistry(b.entity, filters, sorts), nil
}

// MustBuild is like Build but panics on error.
// Use only at startup for schemas known to be valid.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// FieldBuilder configures a simple field.
type FieldBuilder struct {
	parent   *Builder
	name     string
	property string
	storage  Type
	exposed  *Type
	allowed  *operator.Op
	def      *operator.Op
	empty    *bool
	enum     *value.EnumDef
	position int
}

// Builder returns the parent builder.
func (f *FieldBuilder) Builder() *Builder { return f.parent }

// Nullable marks the stored property as nullable.
func (f *FieldBuilder) Nullable() *FieldBuilder {
	f.storage.Nullable = true
	return f
}

// Exposed sets the shape clients see when it differs from storage. The
// kind must match the stored kind; nullability may be narrower.
func (f *FieldBuilder) Exposed(kind value.Kind, nullable bool) *FieldBuilder {
	f.exposed = &Type{Kind: kind, Nullable: nullable}
	return f
}

// Operators overrides the allowed operator set.
func (f *FieldBuilder) Operators(op operator.Op) *FieldBuilder {
	f.allowed = &op
	return f
}

// Default overrides the default operator used by the ':' symbol.
func (f *FieldBuilder) Default(op operator.Op) *FieldBuilder {
	f.def = &op
	return f
}

// EmptyToNull sets whether an empty string argument means null.
func (f *FieldBuilder) EmptyToNull(on bool) *FieldBuilder {
	f.empty = &on
	return f
}

// Enum attaches the definition used to parse enum and flags literals.
func (f *FieldBuilder) Enum(def *value.EnumDef) *FieldBuilder {
	f.enum = def
	return f
}

// Position sets the enumeration position (declaration order by default).
func (f *FieldBuilder) Position(n int) *FieldBuilder {
	f.position = n
	return f
}

func (f *FieldBuilder) build() (*FieldDescriptor, error) {
	entity := f.parent.entity
	if strings.TrimSpace(f.name) == "" {
		return nil, qerrors.NewRegistrationError(entity, f.property, "field name is empty")
	}
	if strings.TrimSpace(f.property) == "" {
		return nil, qerrors.NewRegistrationError(entity, f.name, "property is empty")
	}

	exposed := f.storage
	if f.exposed != nil {
		exposed = *f.exposed
	}
	if exposed.Kind != f.storage.Kind {
		return nil, qerrors.NewRegistrationError(entity, f.name,
			"exposed kind %s does not match stored kind %s", exposed.Kind, f.storage.Kind)
	}

	nullAllowed := f.storage.Nullable && exposed.Nullable
	empty := nullAllowed && f.storage.Kind == value.KindString
	if f.empty != nil {
		empty = *f.empty
	}

	allowed, def, err := resolveOperators(entity, f.name, f.storage.Kind, nullAllowed, f.enum, f.allowed, f.def)
	if err != nil {
		return nil, err
	}
	if empty && !nullAllowed {
		return nil, qerrors.NewRegistrationError(entity, f.name, "empty-to-null requires a nullable field")
	}

	return &FieldDescriptor{
		Name:        f.name,
		Property:    f.property,
		Declared:    Type{Kind: exposed.Kind, Nullable: nullAllowed},
		Kind:        f.storage.Kind,
		Allowed:     allowed,
		Default:     def,
		NullAllowed: nullAllowed,
		EmptyToNull: empty,
		Position:    f.position,
		Enum:        f.enum,
	}, nil
}

// GroupBuilder configures a field spanning several properties.
type GroupBuilder struct {
	parent   *Builder
	name     string
	parts    []partSpec
	enum     *value.EnumDef
	position int
}

type partSpec struct {
	property string
	kind     value.Kind
	join     Join
	order    int
	nullable bool
	allowed  *operator.Op
	def      *operator.Op
}

// PartOption configures one group part.
type PartOption func(*partSpec)

// PartNullable marks the part's property as nullable.
func PartNullable() PartOption {
	return func(p *partSpec) { p.nullable = true }
}

// PartOperators overrides the part's allowed operator set.
func PartOperators(op operator.Op) PartOption {
	return func(p *partSpec) { p.allowed = &op }
}

// PartDefault overrides the part's default operator.
func PartDefault(op operator.Op) PartOption {
	return func(p *partSpec) { p.def = &op }
}

// PartOrder sets the evaluation order of the part (insertion order by default).
func PartOrder(n int) PartOption {
	return func(p *partSpec) { p.order = n }
}

// Builder returns the parent builder.
func (g *GroupBuilder) Builder() *Builder { return g.parent }

// Part adds a property to the group.
func (g *GroupBuilder) Part(property string, kind value.Kind, join Join, opts ...PartOption) *GroupBuilder {
	p := partSpec{property: property, kind: kind, join: join, order: len(g.parts)}
	for _, opt := range opts {
		opt(&p)
	}
	g.parts = append(g.parts, p)
	return g
}

// Enum attaches the definition used to parse enum and flags literals.
func (g *GroupBuilder) Enum(def *value.EnumDef) *GroupBuilder {
	g.enum = def
	return g
}

// Position sets the enumeration position.
func (g *GroupBuilder) Position(n int) *GroupBuilder {
	g.position = n
	return g
}

func (g *GroupBuilder) build() (*FieldDescriptor, error) {
	entity := g.parent.entity
	if strings.TrimSpace(g.name) == "" {
		return nil, qerrors.NewRegistrationError(entity, "", "group field name is empty")
	}
	if len(g.parts) < 2 {
		return nil, qerrors.NewRegistrationError(entity, g.name, "group needs at least two parts, got %d", len(g.parts))
	}

	kind := g.parts[0].kind
	parts := make([]Part, 0, len(g.parts))
	allowed := operator.BaseMask | operator.ModifierMask
	defaults := operator.BaseMask | operator.ModifierMask
	nullAllowed, empty := true, true

	for _, ps := range g.parts {
		if strings.TrimSpace(ps.property) == "" {
			return nil, qerrors.NewRegistrationError(entity, g.name, "group part property is empty")
		}
		if ps.kind != kind {
			return nil, qerrors.NewRegistrationError(entity, g.name,
				"part %s has kind %s, group kind is %s", ps.property, ps.kind, kind)
		}
		pa, pd, err := resolveOperators(entity, g.name+"."+ps.property, ps.kind, ps.nullable, g.enum, ps.allowed, ps.def)
		if err != nil {
			return nil, err
		}
		pe := ps.nullable && ps.kind == value.KindString

		parts = append(parts, Part{
			Property:    ps.property,
			Kind:        ps.kind,
			Join:        ps.join,
			Order:       ps.order,
			Nullable:    ps.nullable,
			EmptyToNull: pe,
			Allowed:     pa,
			Default:     pd,
		})
		allowed &= pa
		defaults &= pd
		nullAllowed = nullAllowed && ps.nullable
		empty = empty && pe
	}

	if allowed.Base() == operator.None {
		return nil, qerrors.NewRegistrationError(entity, g.name, "parts share no legal operator")
	}
	def := defaults
	if def.Validate() != nil || !allowed.Contains(def) {
		def = operator.DefaultFromAllowed(allowed)
	}

	slices.SortStableFunc(parts, func(a, b Part) int { return a.Order - b.Order })

	return &FieldDescriptor{
		Name:        g.name,
		Declared:    Type{Kind: kind, Nullable: nullAllowed},
		Kind:        kind,
		Allowed:     allowed,
		Default:     def,
		NullAllowed: nullAllowed,
		EmptyToNull: empty,
		Parts:       parts,
		Position:    g.position,
		Enum:        g.enum,
	}, nil
}

// SortBuilder configures a sort field.
type SortBuilder struct {
	parent     *Builder
	name       string
	properties []string
	allowed    operator.Direction
	def        operator.Direction
	position   int
}

// Builder returns the parent builder.
func (s *SortBuilder) Builder() *Builder { return s.parent }

// Default sets the direction used when a sort clause has no suffix.
func (s *SortBuilder) Default(dir operator.Direction) *SortBuilder {
	s.def = dir
	return s
}

// Directions sets the allowed directions.
func (s *SortBuilder) Directions(dir operator.Direction) *SortBuilder {
	s.allowed = dir
	return s
}

// Position sets the enumeration position.
func (s *SortBuilder) Position(n int) *SortBuilder {
	s.position = n
	return s
}

func (s *SortBuilder) build() (*SortDescriptor, error) {
	entity := s.parent.entity
	if strings.TrimSpace(s.name) == "" {
		return nil, qerrors.NewRegistrationError(entity, "", "sort field name is empty")
	}
	if len(s.properties) == 0 {
		return nil, qerrors.NewRegistrationError(entity, s.name, "sort field has no properties")
	}
	for _, p := range s.properties {
		if strings.TrimSpace(p) == "" {
			return nil, qerrors.NewRegistrationError(entity, s.name, "sort property is empty")
		}
	}
	if s.allowed == 0 || s.allowed&^operator.BothDirections != 0 {
		return nil, qerrors.NewRegistrationError(entity, s.name, "illegal allowed directions %s", s.allowed)
	}
	def := s.def
	if def == 0 {
		def = operator.Ascending
		if !s.allowed.Contains(def) {
			def = operator.Descending
		}
	}
	if !def.Single() {
		return nil, qerrors.NewRegistrationError(entity, s.name, "default direction must be a single direction")
	}
	if !s.allowed.Contains(def) {
		return nil, qerrors.NewRegistrationError(entity, s.name, "default direction %s is not allowed", def)
	}

	return &SortDescriptor{
		Name:       s.name,
		Properties: slices.Clone(s.properties),
		Allowed:    s.allowed,
		Default:    def,
		Position:   s.position,
	}, nil
}

// applicable is the set of base operators and modifiers meaningful for kind.
func applicable(kind value.Kind) operator.Op {
	ops := operator.Equal | operator.NotEqual | operator.In | operator.NotIn | operator.Nullable
	if kind.Ordered() {
		ops |= operator.Relational | operator.Between | operator.NotBetween
	}
	if kind == value.KindString {
		ops |= operator.Like | operator.NotLike | operator.CaseInsensitive | operator.CaseInsensitiveInvariant
	}
	if kind == value.KindFlags {
		ops |= operator.BitsAnd | operator.BitsOr
	}
	return ops
}

// resolveOperators derives the allowed set and default operator of one
// property, checking explicit overrides.
func resolveOperators(entity, field string, kind value.Kind, nullable bool, enum *value.EnumDef,
	explicitAllowed, explicitDefault *operator.Op) (operator.Op, operator.Op, error) {
	if !kind.Supported() {
		return 0, 0, qerrors.NewRegistrationError(entity, field, "unsupported kind %s", kind)
	}
	if (kind == value.KindEnum || kind == value.KindFlags) && enum == nil {
		return 0, 0, qerrors.NewRegistrationError(entity, field, "%s kind requires an enum definition", kind)
	}

	allowed, def, _ := operator.Typical(kind, nullable)
	if explicitAllowed != nil {
		allowed = *explicitAllowed
		if !nullable && allowed&operator.Nullable != 0 {
			return 0, 0, qerrors.NewRegistrationError(entity, field,
				"%s requested on a non-nullable field", allowed&operator.Nullable)
		}
		if extra := allowed &^ applicable(kind); extra != 0 {
			return 0, 0, qerrors.NewRegistrationError(entity, field,
				"%s not applicable to kind %s", extra, kind)
		}
		def = operator.DefaultFromAllowed(allowed)
	}
	if allowed.Base() == operator.None {
		return 0, 0, qerrors.NewRegistrationError(entity, field, "no legal operators")
	}

	if explicitDefault != nil {
		def = *explicitDefault
		if err := def.Validate(); err != nil {
			return 0, 0, qerrors.NewRegistrationError(entity, field, "invalid default operator: %v", err)
		}
		if !allowed.Contains(def) {
			return 0, 0, qerrors.NewRegistrationError(entity, field, "default %s is not within allowed %s", def, allowed)
		}
	}
	return allowed, def, nil
}
