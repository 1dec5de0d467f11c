package bridge

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"reattach/core/introspect"
	"reattach/core/metrics"
	"reattach/core/orm"
	"reattach/core/persistent"

	"go.uber.org/zap"
)

// Bridge is the entry point used by serializers and data access code to move
// entities, proxies and collection wrappers across the detached boundary.
type Bridge struct {
	factory    orm.SessionFactory
	intro      *introspect.Introspector
	cfg        Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	classifier *Classifier
	scope      *Scope
	external   orm.Session

	virtualWarning sync.Once
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithSession makes the bridge reuse session while it is connected.
// The bridge never closes it.
func WithSession(session orm.Session) Option {
	return func(b *Bridge) { b.external = session }
}

// WithMetrics reports counters to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New creates a bridge over factory. A nil factory yields a bridge whose metadata
// operations fail with ErrNoSessionFactory.
func New(factory orm.SessionFactory, intro *introspect.Introspector, cfg Config, logger *zap.Logger, opts ...Option) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if intro == nil {
		intro = introspect.New()
	}
	b := &Bridge{factory: factory, intro: intro, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	if factory != nil {
		b.classifier = NewClassifier(factory.Metamodel(), intro, logger, b.metrics)
	}
	b.scope = NewScope(factory, b.external, logger)
	return b
}

// Introspector returns the introspector shared with the classifier.
func (b *Bridge) Introspector() *introspect.Introspector { return b.intro }

// IsPersistentClass reports whether t is an entity, a component or a user type.
func (b *Bridge) IsPersistentClass(t reflect.Type) (bool, error) {
	if b.classifier == nil {
		return false, ErrNoSessionFactory
	}
	return b.classifier.IsPersistentClass(t)
}

// Classify returns the detailed classification of t.
func (b *Bridge) Classify(t reflect.Type) (Classification, error) {
	if b.classifier == nil {
		return Classification{}, ErrNoSessionFactory
	}
	return b.classifier.Classify(t)
}

// IsPersistentPojo reports whether v is an instance carrying a saved identifier.
// Transient, component and non-persistent values report false.
func (b *Bridge) IsPersistentPojo(ctx context.Context, v any) (bool, error) {
	if v == nil {
		return false, nil
	}
	if _, err := b.ResolveID(ctx, v); err != nil {
		if IsSkippable(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsPersistentCollection reports whether v is a collection wrapper.
func (b *Bridge) IsPersistentCollection(v any) bool {
	_, ok := v.(persistent.Collection)
	return ok
}

// IsPersistentMap reports whether v is a map wrapper.
func (b *Bridge) IsPersistentMap(v any) bool {
	_, ok := v.(persistent.Map)
	return ok
}

// IsInitialized reports whether a proxy or wrapper has loaded its content.
// Plain values are always initialized.
func (b *Bridge) IsInitialized(v any) bool {
	if init, ok := orm.AsProxy(v); ok {
		return !init.IsUninitialized()
	}
	if w, ok := v.(persistent.Wrapper); ok {
		return w.WasInitialized()
	}
	return true
}

// Initialize loads the content of a proxy or wrapper.
func (b *Bridge) Initialize(ctx context.Context, v any) error {
	if init, ok := orm.AsProxy(v); ok {
		return init.Initialize(ctx)
	}
	if w, ok := v.(persistent.Wrapper); ok {
		return w.ForceInitialization(ctx)
	}
	return nil
}

// UnderlyingCollection returns the backing collection of a wrapper, or v itself.
func (b *Bridge) UnderlyingCollection(v any) any {
	switch w := v.(type) {
	case persistent.Collection:
		if u := w.Underlying(); u != nil {
			return u
		}
		return nil
	case persistent.Map:
		if u := w.Underlying(); u != nil {
			return u
		}
		return nil
	}
	return v
}

// UnenhancedType strips proxies and pointers from t.
func (b *Bridge) UnenhancedType(t reflect.Type) reflect.Type { return b.intro.Unenhance(t) }

// IsEnhanced reports whether t is a generated proxy type.
func (b *Bridge) IsEnhanced(t reflect.Type) bool { return b.intro.IsEnhanced(t) }

// OpenSession binds a session to the returned context. Pair it with CloseSession.
func (b *Bridge) OpenSession(ctx context.Context) (context.Context, error) {
	if b.factory == nil {
		return ctx, ErrNoSessionFactory
	}
	return b.scope.Open(ctx)
}

// CloseSession releases the session bound by OpenSession.
func (b *Bridge) CloseSession(ctx context.Context) error {
	return b.scope.Close(ctx)
}

// Session returns the session bound to ctx.
func (b *Bridge) Session(ctx context.Context) (orm.Session, bool) {
	return b.scope.Session(ctx)
}

// LoadByID returns the instance of t stored under id, or nil.
func (b *Bridge) LoadByID(ctx context.Context, t reflect.Type, id any) (any, error) {
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	var out any
	err := b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		out, err = session.Get(ctx, b.intro.Unenhance(t), id)
		return err
	})
	return out, err
}

// LoadAssociation returns the entity of type t stored under id with property eagerly fetched.
func (b *Bridge) LoadAssociation(ctx context.Context, t reflect.Type, id any, property string) (any, error) {
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	name, err := b.entityName(ctx, b.intro.Unenhance(t), nil)
	if err != nil {
		return nil, err
	}
	var out any
	err = b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		out, err = session.LoadAssociation(ctx, name, id, property)
		return err
	})
	return out, err
}

// ExecuteQuery runs query with positional parameters.
func (b *Bridge) ExecuteQuery(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	b.logger.Debug("Executing query", zap.String("query", query))
	var rows []map[string]any
	err := b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		rows, err = session.Query(ctx, query, args...)
		return err
	})
	return rows, err
}

// ExecuteNamedQuery runs query with named parameters.
func (b *Bridge) ExecuteNamedQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	b.logger.Debug("Executing query", zap.String("query", query))
	var rows []map[string]any
	err := b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		rows, err = session.NamedQuery(ctx, query, params)
		return err
	})
	return rows, err
}

// FlushIfNeeded flushes the session bound to ctx, if any.
func (b *Bridge) FlushIfNeeded(ctx context.Context) error {
	session, ok := b.scope.Session(ctx)
	if !ok || !session.IsConnected() {
		return nil
	}
	b.logger.Debug("Flushing session")
	if err := session.Flush(ctx); err != nil {
		return fmt.Errorf("flushing session: %w", err)
	}
	return nil
}
