package bridge

import (
	"context"
	"fmt"

	"reattach/core/orm"

	"go.uber.org/zap"
)

type scopeKey struct{}

// slot is the session bound to a context by Scope.Open.
type slot struct {
	session orm.Session
	owned   bool
	depth   int
}

// Scope binds a session to a context for the duration of a reconciliation.
// A live external session is reused and never closed; otherwise a session is
// opened from the factory and closed again by Close.
type Scope struct {
	factory  orm.SessionFactory
	external orm.Session
	logger   *zap.Logger
}

// NewScope creates a scope. external may be nil.
func NewScope(factory orm.SessionFactory, external orm.Session, logger *zap.Logger) *Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope{factory: factory, external: external, logger: logger}
}

// Open returns a context carrying a session. Opening a context that already
// carries a live session reuses it; each Open must be paired with a Close.
func (s *Scope) Open(ctx context.Context) (context.Context, error) {
	if current := slotFrom(ctx); current != nil && current.session.IsConnected() {
		current.depth++
		return ctx, nil
	}

	session, owned := s.external, false
	if session == nil || !session.IsConnected() {
		if s.factory == nil {
			return ctx, ErrNoSessionFactory
		}
		opened, err := s.factory.OpenSession(ctx)
		if err != nil {
			return ctx, fmt.Errorf("could not open a session: %w", err)
		}
		session, owned = opened, true
	}
	return context.WithValue(ctx, scopeKey{}, &slot{session: session, owned: owned, depth: 1}), nil
}

// Close releases the session bound by the matching Open. Only sessions the
// scope opened itself are closed.
func (s *Scope) Close(ctx context.Context) error {
	current := slotFrom(ctx)
	if current == nil || current.depth == 0 {
		return nil
	}
	current.depth--
	if current.depth > 0 {
		return nil
	}

	session := current.session
	current.session = nil
	if current.owned && session != nil {
		if err := session.Close(); err != nil {
			s.logger.Warn("Failed to close session", zap.Error(err))
			return err
		}
	}
	return nil
}

// Session returns the session bound to ctx.
func (s *Scope) Session(ctx context.Context) (orm.Session, bool) {
	current := slotFrom(ctx)
	if current == nil || current.depth == 0 || current.session == nil {
		return nil, false
	}
	return current.session, true
}

// Owned reports whether the session bound to ctx was opened by the scope.
func (s *Scope) Owned(ctx context.Context) bool {
	current := slotFrom(ctx)
	return current != nil && current.depth > 0 && current.owned
}

// within runs fn with the session bound to ctx, or inside a short-lived scope when none is open.
func (s *Scope) within(ctx context.Context, fn func(context.Context, orm.Session) error) error {
	if session, ok := s.Session(ctx); ok {
		return fn(ctx, session)
	}

	scoped, err := s.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(scoped); cerr != nil {
			s.logger.Warn("Failed to release session", zap.Error(cerr))
		}
	}()
	session, _ := s.Session(scoped)
	return fn(scoped, session)
}

func slotFrom(ctx context.Context) *slot {
	if ctx == nil {
		return nil
	}
	current, _ := ctx.Value(scopeKey{}).(*slot)
	if current == nil || current.session == nil {
		return nil
	}
	return current
}
