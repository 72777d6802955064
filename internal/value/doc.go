// Package value provides the closed set of typed operand values used by the
// filter engine.
//
// Every literal that appears in a filter string is coerced into exactly one
// Value variant before it reaches the compiler. Value is a sealed interface:
// only the types in this package implement it, so executors can dispatch on
// it with an exhaustive type switch.
//
// This package imports nothing internal. All other internal packages import
// value; value remains the foundational layer.
//
// Key constraints:
//   - Parsing is strict and locale-invariant ('.' is always the decimal
//     separator, date/time layouts are fixed, literals are case-sensitive)
//   - Blank text parses to Null; whether Null is legal is the caller's call
//   - Values of different kinds never compare equal
//   - Canonical JSON (MarshalCanonical) is the only encoding used for
//     fingerprints
package value
