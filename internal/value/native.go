package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StorageTimeLayout is the fixed-width UTC layout used when instants are
// stored as text, so that text order equals chronological order.
const StorageTimeLayout = "2006-01-02T15:04:05.000000000Z"

// compoundPartWidth zero-pads compound parts in storage form so that text
// order equals part-wise numeric order.
const compoundPartWidth = 20

// Format renders v in the text form Parse accepts for its kind. Null
// formats as the empty string.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Decimal:
		return val.Decimal.String()
	case Bool:
		return strconv.FormatBool(bool(val))
	case DateTime:
		return val.Time().Format(time.RFC3339Nano)
	case Date:
		return val.Time().Format(DateLayout)
	case UUID:
		return val.String()
	case Enum:
		return strconv.FormatInt(int64(val), 10)
	case Flags:
		return strconv.FormatUint(uint64(val), 10)
	case Compound:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Plain converts v to a JSON-friendly Go value: strings, integers, floats
// and bools stay native, null becomes nil and every other kind becomes its
// Format text.
func Plain(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return Format(v)
	}
}

// Native converts v to a database/sql driver argument. Temporal values,
// decimals and compounds become text whose ordering matches the value
// ordering; enums and flags become integers.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Decimal:
		return val.Decimal.String()
	case Bool:
		return bool(val)
	case DateTime:
		return val.Time().UTC().Format(StorageTimeLayout)
	case Date:
		return val.Time().Format(DateLayout)
	case UUID:
		return val.String()
	case Enum:
		return int64(val)
	case Flags:
		return int64(val)
	case Compound:
		parts := make([]string, len(val.parts))
		for i, p := range val.parts {
			parts[i] = fmt.Sprintf("%0*d", compoundPartWidth, p)
		}
		return strings.Join(parts, CompoundSeparator)
	default:
		return nil
	}
}

// FromNative converts a scanned database value back into a Value of the
// given kind. nil scans to Null.
func FromNative(kind Kind, src any) (Value, error) {
	if src == nil {
		return Null{}, nil
	}
	if b, ok := src.([]byte); ok {
		src = string(b)
	}

	switch kind {
	case KindString:
		if s, ok := src.(string); ok {
			return String(s), nil
		}
	case KindInt:
		switch n := src.(type) {
		case int64:
			return Int(n), nil
		case int32:
			return Int(n), nil
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err == nil {
				return Int(i), nil
			}
		}
	case KindFloat:
		switch f := src.(type) {
		case float64:
			return Float(f), nil
		case int64:
			return Float(f), nil
		case string:
			x, err := strconv.ParseFloat(f, 64)
			if err == nil {
				return Float(x), nil
			}
		}
	case KindDecimal:
		switch d := src.(type) {
		case string:
			x, err := decimal.NewFromString(d)
			if err == nil {
				return NewDecimal(x), nil
			}
		case float64:
			return NewDecimal(decimal.NewFromFloat(d)), nil
		case int64:
			return NewDecimal(decimal.NewFromInt(d)), nil
		}
	case KindBool:
		switch b := src.(type) {
		case bool:
			return Bool(b), nil
		case int64:
			return Bool(b != 0), nil
		}
	case KindDateTime:
		switch t := src.(type) {
		case time.Time:
			return NewDateTime(t), nil
		case string:
			v, err := Parse(KindDateTime, t, nil)
			if err == nil {
				return v, nil
			}
		}
	case KindDate:
		switch t := src.(type) {
		case time.Time:
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		case string:
			// Drivers may hand back a full timestamp for DATE columns.
			if len(t) >= len(DateLayout) {
				v, err := Parse(KindDate, t[:len(DateLayout)], nil)
				if err == nil {
					return v, nil
				}
			}
		}
	case KindUUID:
		switch u := src.(type) {
		case string:
			id, err := uuid.Parse(u)
			if err == nil {
				return UUID(id), nil
			}
		case [16]byte:
			return UUID(u), nil
		}
	case KindEnum:
		if n, ok := src.(int64); ok {
			return Enum(n), nil
		}
	case KindFlags:
		if n, ok := src.(int64); ok {
			return Flags(uint64(n)), nil
		}
	case KindCompound:
		if s, ok := src.(string); ok {
			c, err := ParseCompound(s)
			if err == nil {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot convert %T (%v) to %s", src, src, kind)
}
