// Package operator defines the filter operator algebra.
//
// An Op is a bitset. A usable operator carries exactly one base bit (Equal,
// Like, Between, ...) plus any number of modifier bits (TrueWhenNull,
// CaseInsensitive, CaseInsensitiveInvariant). The same type describes the
// set of operators a field allows, so legality is a subset test:
//
//	allowed.Contains(Like | CaseInsensitive)
//
// Per-kind tables (Typical) give the allowed set and default operator a
// field gets when registration does not override them. DefaultFromAllowed
// picks a default from an arbitrary allowed set using a fixed priority list.
//
// Direction is the analogous bitset for sort directions.
package operator
