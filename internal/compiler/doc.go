// Package compiler lowers validated query contexts to the predicate and
// ordering IR.
//
// CompileFilter turns a query.FilterContext into a queryir.Predicate:
//
//   - requests on the Id field come first, the rest keep input order;
//   - the per-request predicates are AND-combined;
//   - group fields apply the same operator to every part, conjoining the
//     "and" parts and disjoining the "or" parts, then AND the two groups;
//   - TrueWhenNull ORs a Null test onto the result.
//
// CompileSort turns a query.SortContext into a queryir.Ordering, expanding
// multi-property sort fields in order.
//
// Compilation is pure and all-or-nothing: on error no partial result is
// returned.
package compiler
