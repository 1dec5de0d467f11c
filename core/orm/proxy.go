package orm

import (
	"context"
	"reflect"
)

// LazyInitializer holds the state of a lazy proxy.
type LazyInitializer interface {
	EntityName() string
	// Identifier never triggers initialization.
	Identifier() any
	PersistentType() reflect.Type
	IsUninitialized() bool
	Initialize(ctx context.Context) error
	// Implementation initializes the proxy if needed and returns the real instance.
	Implementation(ctx context.Context) (any, error)
}

// Proxy is implemented by every lazy entity proxy.
type Proxy interface {
	LazyInitializer() LazyInitializer
}

// Enhanced is implemented by generated types standing in for a business type.
// It must be callable on a nil receiver.
type Enhanced interface {
	UnenhancedType() reflect.Type
}

// EntityProxy is the lazy stand-in for an entity of type T.
type EntityProxy[T any] struct {
	init LazyInitializer
}

// NewProxy creates a proxy backed by init.
func NewProxy[T any](init LazyInitializer) *EntityProxy[T] {
	return &EntityProxy[T]{init: init}
}

// LazyInitializer returns the proxy state.
func (p *EntityProxy[T]) LazyInitializer() LazyInitializer { return p.init }

// UnenhancedType returns T.
func (p *EntityProxy[T]) UnenhancedType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get materializes the entity.
func (p *EntityProxy[T]) Get(ctx context.Context) (*T, error) {
	impl, err := p.init.Implementation(ctx)
	if err != nil {
		return nil, err
	}
	return impl.(*T), nil
}

// AsProxy returns the lazy initializer of v when v is a proxy.
func AsProxy(v any) (LazyInitializer, bool) {
	p, ok := v.(Proxy)
	if !ok {
		return nil, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, false
	}
	init := p.LazyInitializer()
	return init, init != nil
}
