package gormorm

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"reattach/core/orm"
)

// lazy is the orm.LazyInitializer behind proxies returned by Session.Load.
// The row is fetched through the session on first use; a closed session fails
// with orm.ErrSessionClosed.
type lazy struct {
	session *Session
	entity  *entity
	id      any

	mu     sync.Mutex
	target any
}

func (l *lazy) EntityName() string { return l.entity.name }

func (l *lazy) Identifier() any { return l.id }

func (l *lazy) PersistentType() reflect.Type { return l.entity.typ }

func (l *lazy) IsUninitialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target == nil
}

func (l *lazy) Initialize(ctx context.Context) error {
	_, err := l.Implementation(ctx)
	return err
}

func (l *lazy) Implementation(ctx context.Context) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.target != nil {
		return l.target, nil
	}
	v, err := l.session.Get(ctx, l.entity.typ, l.id)
	if err != nil {
		return nil, fmt.Errorf("initializing proxy %s#%v: %w", l.entity.name, l.id, err)
	}
	if v == nil {
		return nil, fmt.Errorf("initializing proxy %s#%v: %w", l.entity.name, l.id, orm.ErrObjectNotFound)
	}
	l.target = v
	return v, nil
}
