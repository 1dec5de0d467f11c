package orm

import (
	"context"
	"errors"
	"reflect"
)

var (
	// ErrObjectNotFound is returned when the row behind an identifier does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrUnknownEntity is returned when an entity name is not mapped.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownRole is returned when a collection role is not mapped.
	ErrUnknownRole = errors.New("unknown collection role")
)

// Session is a unit of work against the database.
type Session interface {
	// Load returns a lazy proxy for the row. It fails with ErrObjectNotFound when the row is gone.
	Load(ctx context.Context, entityName string, id any) (any, error)
	// Get returns the materialized instance, or nil when no row matches.
	Get(ctx context.Context, t reflect.Type, id any) (any, error)
	// LoadAssociation returns the entity with the named association eagerly fetched, or nil.
	LoadAssociation(ctx context.Context, entityName string, id any, property string) (any, error)
	// LoadCollection returns the members of the collection identified by role and owner key.
	LoadCollection(ctx context.Context, role string, key any) ([]any, error)
	// Query runs a query with positional parameters.
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	// NamedQuery runs a query with named parameters.
	NamedQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	// Save queues an entity for the next Flush.
	Save(entity any)
	// Attach queues a collection wrapper; Flush writes it when dirty.
	Attach(wrapper any)
	// Flush writes pending changes.
	Flush(ctx context.Context) error
	IsConnected() bool
	Close() error
	// BestGuessEntityName resolves the entity name of an instance.
	BestGuessEntityName(instance any) string
}

// SessionFactory opens sessions and owns the metamodel.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
	Metamodel() Metamodel
}
