package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is a sealed interface over the supported operand kinds.
// Only Null, String, Int, Float, Decimal, Bool, DateTime, Date, UUID, Enum,
// Flags and Compound implement it.
type Value interface {
	Kind() Kind
	value() // Sealed - only these types implement it
}

// Null is the absent value. It is a real type (not a nil interface) so that
// every Value satisfies the sealed interface.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}

// String is a text value. Comparison is ordinal.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Int is a signed 64-bit integer value.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}

// Float is a 64-bit floating point value. NaN and infinities never parse.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (Float) value()     {}

// Decimal is an arbitrary-precision decimal value.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) Kind() Kind { return KindDecimal }
func (Decimal) value()     {}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// DateTime is an instant, always held in UTC.
type DateTime time.Time

func (DateTime) Kind() Kind { return KindDateTime }
func (DateTime) value()     {}

// NewDateTime normalizes t to UTC.
func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UTC())
}

// Time returns the underlying instant.
func (d DateTime) Time() time.Time { return time.Time(d) }

// Date is a calendar date, held as midnight UTC.
type Date time.Time

func (Date) Kind() Kind { return KindDate }
func (Date) value()     {}

// NewDate truncates t to its calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return time.Time(d) }

// UUID is a universally unique identifier.
type UUID uuid.UUID

func (UUID) Kind() Kind { return KindUUID }
func (UUID) value()     {}

func (u UUID) String() string { return uuid.UUID(u).String() }

// Enum is a single member of an enumeration, held by its numeric value.
type Enum int64

func (Enum) Kind() Kind { return KindEnum }
func (Enum) value()     {}

// Flags is a bit set over a flag-style enumeration.
type Flags uint64

func (Flags) Kind() Kind { return KindFlags }
func (Flags) value()     {}

// Compound is an identifier made of ordered non-negative integer parts
// (for example a tenant id and a local id). It is constructed directly
// from its parts; ParseCompound reads the "a:b:c" text form.
type Compound struct {
	parts []int64
}

func (Compound) Kind() Kind { return KindCompound }
func (Compound) value()     {}

// CompoundSeparator separates the parts of a Compound in text form.
const CompoundSeparator = ":"

// NewCompound builds a compound identifier. The parts are copied.
func NewCompound(parts ...int64) Compound {
	return Compound{parts: append([]int64(nil), parts...)}
}

// Parts returns a copy of the parts.
func (c Compound) Parts() []int64 {
	return append([]int64(nil), c.parts...)
}

// Len returns the number of parts.
func (c Compound) Len() int { return len(c.parts) }

func (c Compound) String() string {
	s := make([]string, len(c.parts))
	for i, p := range c.parts {
		s[i] = strconv.FormatInt(p, 10)
	}
	return strings.Join(s, CompoundSeparator)
}

// IsNull reports whether v is absent. A nil interface counts as null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
