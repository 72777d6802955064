// Package schema holds the field descriptor registry of an entity type.
//
// A Registry maps client-visible field names (case-insensitively) to
// FieldDescriptor and SortDescriptor values. It is built once at startup,
// either in code through Builder or declaratively from CUE files through
// LoadCUE, and is read-only afterwards.
//
// Registration problems are fatal: Build reports every problem found as a
// *qerrors.RegistrationError.
package schema
