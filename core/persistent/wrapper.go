package persistent

import (
	"context"
	"errors"
	"fmt"

	"reattach/core/collection"
	"reattach/core/orm"
)

// ErrNoSession is returned when an uninitialized wrapper has no session to load from.
var ErrNoSession = errors.New("wrapper is not bound to a session")

// Snapshot is the last known clean state of a wrapper.
type Snapshot struct {
	Role string
	// Items holds collection members, or map values positionally paired with Keys.
	Items []any
	Keys  []any
}

// Len returns the number of members recorded in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Entry is a map member as returned by Session.LoadCollection for map roles.
type Entry struct {
	Key   any
	Value any
}

// Wrapper is the state every persistent wrapper shares with the ORM.
type Wrapper interface {
	Kind() Kind
	Session() orm.Session
	Owner() any
	SetOwner(owner any)
	Role() string
	Key() any
	// StoredSnapshot returns the snapshot installed by SetSnapshot.
	StoredSnapshot() *Snapshot
	// GetSnapshot computes a snapshot of the current content.
	GetSnapshot(persister orm.CollectionPersister) *Snapshot
	SetSnapshot(key any, role string, snapshot *Snapshot)
	// Dirty flags the wrapper as changed since its snapshot.
	Dirty()
	IsDirty() bool
	ClearDirty()
	WasInitialized() bool
	// ForceInitialization loads the members through the session when the wrapper is uninitialized.
	ForceInitialization(ctx context.Context) error
}

// Collection is a persistent wrapper around a plain collection.
type Collection interface {
	Wrapper
	collection.Collection
	// Underlying returns the backing collection, nil while uninitialized.
	Underlying() collection.Collection
}

// Map is a persistent wrapper around a plain map.
type Map interface {
	Wrapper
	collection.Map
	// Underlying returns the backing map, nil while uninitialized.
	Underlying() collection.Map
}

type state struct {
	kind        Kind
	session     orm.Session
	owner       any
	role        string
	key         any
	snapshot    *Snapshot
	initialized bool
	dirty       bool
}

func (s *state) Kind() Kind { return s.kind }
func (s *state) Session() orm.Session { return s.session }
func (s *state) Owner() any { return s.owner }
func (s *state) SetOwner(owner any) { s.owner = owner }
func (s *state) Role() string { return s.role }
func (s *state) Key() any { return s.key }
func (s *state) StoredSnapshot() *Snapshot { return s.snapshot }
func (s *state) Dirty() { s.dirty = true }
func (s *state) IsDirty() bool { return s.dirty }
func (s *state) ClearDirty() { s.dirty = false }
func (s *state) WasInitialized() bool { return s.initialized }
func (s *state) SetSnapshot(key any, role string, snapshot *Snapshot) {
	s.key = key
	s.role = role
	s.snapshot = snapshot
}

func (s *state) load(ctx context.Context) ([]any, error) {
	if s.session == nil || !s.session.IsConnected() {
		return nil, fmt.Errorf("initializing %s: %w", s.role, ErrNoSession)
	}
	items, err := s.session.LoadCollection(ctx, s.role, s.key)
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", s.role, err)
	}
	return items, nil
}

func roleOf(persister orm.CollectionPersister) string {
	if persister == nil {
		return ""
	}
	return persister.Role()
}
