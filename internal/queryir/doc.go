// Package queryir is the backend-neutral intermediate representation of a
// compiled filter and sort order.
//
// The IR sits between the compiler and the executors:
//
//	[filter text] → parser → query.FilterContext → compiler → [Predicate]
//	                                                          ↓
//	                               querymem (closures), querysql (SQL), querydoc (document filter)
//
// PREDICATES:
//
// Predicate is a sealed interface using the marker method pattern. Only the
// node types in this package implement it, so executors can switch over
// them exhaustively:
//
//	True       always true (an empty filter)
//	And, Or    conjunction and disjunction (empty And is true, empty Or is false)
//	Null       field is null
//	NotNull    field is not null
//	Compare    field <op> literal, with optional case folding
//	Contains   substring test, with optional case folding and negation
//	BitsAll    (field & mask) == mask
//	BitsAny    (field & mask) != 0
//	Range      lo <= field <= hi, or its negation
//	In         field is one of the values, or its negation
//
// Fields are entity property names, not public filter names; group fields
// have already been expanded by the compiler.
//
// NULL SEMANTICS:
//
// A null field never satisfies Compare, Contains, BitsAll, BitsAny, Range or
// In, negated forms included. Null handling is always explicit through Null
// and NotNull nodes, so every backend agrees regardless of its native
// three-valued logic.
//
// ORDERINGS:
//
// Ordering is a prioritized list of SortKey values. Nulls order before any
// value in ascending order and after every value in descending order.
package queryir
