package bridge

import (
	"context"
	"fmt"

	"reattach/core/orm"
)

// SerializeEntityProxy captures an entity or proxy as its class name and identifier.
func (b *Bridge) SerializeEntityProxy(ctx context.Context, p any) (*ProxyDescriptor, error) {
	if isNil(p) {
		return nil, nil
	}
	id, err := b.ResolveID(ctx, p)
	if err != nil {
		b.metrics.Reconciled("proxy", "error")
		return nil, err
	}
	b.metrics.Reconciled("proxy", "serialized")
	return &ProxyDescriptor{Class: b.intro.TypeName(b.persistentType(p)), ID: id}, nil
}

// RehydrateEntityProxy returns a lazy proxy bound to the session of ctx.
func (b *Bridge) RehydrateEntityProxy(ctx context.Context, d *ProxyDescriptor) (any, error) {
	if d == nil {
		return nil, nil
	}
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	if d.Class == "" {
		return nil, fmt.Errorf("%w: proxy without class", ErrInvalidDescriptor)
	}

	var proxy any
	err := b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		proxy, err = session.Load(ctx, d.Class, d.ID)
		return err
	})
	if err != nil {
		b.metrics.Reconciled("proxy", "error")
		return nil, err
	}
	b.metrics.Reconciled("proxy", "rehydrated")
	return proxy, nil
}
