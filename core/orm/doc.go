// Package orm declares the narrow ports through which the reconciliation engine reaches the ORM.
//
// Nothing in this package talks to a database. The engine consumes:
//
//   - Metamodel: entity persisters by name, collection persisters by role, managed types
//   - Session: loading proxies and instances, eager association fetches, queries, flush
//   - SessionFactory: opens sessions
//   - Proxy / LazyInitializer: lazy entity stand-ins whose identifier is readable without loading
//
// core/gormorm provides the gorm backed implementation; tests use the mocks sub-package
// or small in-memory fakes.
package orm
