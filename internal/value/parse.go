package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixed layouts for temporal kinds. Parsing never consults the host locale.
const (
	DateLayout = "2006-01-02"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// FlagSeparator joins flag names in the text form of a Flags value.
const FlagSeparator = "|"

// ParseError reports text that is not a valid literal of the requested kind.
type ParseError struct {
	Kind Kind
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s value %q: %v", e.Kind, e.Text, e.Err)
	}
	return fmt.Sprintf("invalid %s value %q", e.Kind, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEnumRequired is returned when an enum or flags literal is parsed without
// a definition.
var ErrEnumRequired = errors.New("enum definition required")

// Parse converts text into a Value of the given kind.
//
// Blank text (empty or whitespace only) yields Null; callers decide whether
// Null is legal. Otherwise parsing is strict and locale-invariant. enum is
// consulted for KindEnum and KindFlags only and may be nil for other kinds.
func Parse(kind Kind, text string, enum *EnumDef) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return Null{}, nil
	}

	switch kind {
	case KindString:
		return String(text), nil
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &ParseError{Kind: kind, Text: text, Err: numError(err)}
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &ParseError{Kind: kind, Text: text, Err: numError(err)}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ParseError{Kind: kind, Text: text, Err: errors.New("not a finite number")}
		}
		return Float(f), nil
	case KindDecimal:
		if strings.ContainsAny(text, "eE") {
			return nil, &ParseError{Kind: kind, Text: text, Err: errors.New("exponent notation not accepted")}
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, &ParseError{Kind: kind, Text: text}
		}
		return NewDecimal(d), nil
	case KindBool:
		switch text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, &ParseError{Kind: kind, Text: text, Err: errors.New("expected true or false")}
	case KindDateTime:
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return NewDateTime(t), nil
			}
		}
		return nil, &ParseError{Kind: kind, Text: text}
	case KindDate:
		t, err := time.Parse(DateLayout, text)
		if err != nil {
			return nil, &ParseError{Kind: kind, Text: text}
		}
		return Date(t), nil
	case KindUUID:
		u, err := uuid.Parse(text)
		if err != nil {
			return nil, &ParseError{Kind: kind, Text: text, Err: err}
		}
		return UUID(u), nil
	case KindEnum:
		return parseEnum(text, enum)
	case KindFlags:
		return parseFlags(text, enum)
	case KindCompound:
		c, err := ParseCompound(text)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &ParseError{Kind: kind, Text: text, Err: errors.New("unsupported kind")}
	}
}

// ParseCompound reads the "a:b:c" form of a compound identifier.
func ParseCompound(text string) (Compound, error) {
	fields := strings.Split(text, CompoundSeparator)
	parts := make([]int64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil || n < 0 {
			return Compound{}, &ParseError{Kind: KindCompound, Text: text, Err: fmt.Errorf("part %d is not a non-negative integer", i)}
		}
		parts[i] = n
	}
	return Compound{parts: parts}, nil
}

func parseEnum(text string, enum *EnumDef) (Value, error) {
	if enum == nil {
		return nil, &ParseError{Kind: KindEnum, Text: text, Err: ErrEnumRequired}
	}
	if n, ok := enum.Lookup(text); ok {
		return Enum(n), nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil && enum.Has(n) {
		return Enum(n), nil
	}
	return nil, &ParseError{Kind: KindEnum, Text: text, Err: fmt.Errorf("not a member of %s", enum.Name)}
}

func parseFlags(text string, enum *EnumDef) (Value, error) {
	if enum == nil {
		return nil, &ParseError{Kind: KindFlags, Text: text, Err: ErrEnumRequired}
	}
	if n, err := strconv.ParseUint(text, 10, 64); err == nil {
		if n&^enum.Mask() != 0 {
			return nil, &ParseError{Kind: KindFlags, Text: text, Err: fmt.Errorf("undefined bits for %s", enum.Name)}
		}
		return Flags(n), nil
	}

	var bits uint64
	for _, name := range strings.Split(text, FlagSeparator) {
		n, ok := enum.Lookup(name)
		if !ok {
			return nil, &ParseError{Kind: KindFlags, Text: text, Err: fmt.Errorf("%q is not a member of %s", name, enum.Name)}
		}
		bits |= uint64(n)
	}
	return Flags(bits), nil
}

// numError strips strconv's wrapping so messages stay short.
func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
