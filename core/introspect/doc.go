// Package introspect wraps the reflection the reconciliation engine needs.
//
// It resolves class names back to types (scalar kinds, registered entities and enums),
// strips generated proxy types back to their business type, and reads or writes properties
// through getters or exported fields. Unenhancement results are memoized for the lifetime
// of the Introspector.
package introspect
