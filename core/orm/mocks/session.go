package mocks

import (
	"context"
	"reflect"

	"reattach/core/orm"

	"github.com/stretchr/testify/mock"
)

// Session is a mock implementation of orm.Session
type Session struct {
	mock.Mock
}

func (m *Session) Load(ctx context.Context, entityName string, id any) (any, error) {
	args := m.Called(ctx, entityName, id)
	return args.Get(0), args.Error(1)
}

func (m *Session) Get(ctx context.Context, t reflect.Type, id any) (any, error) {
	args := m.Called(ctx, t, id)
	return args.Get(0), args.Error(1)
}

func (m *Session) LoadAssociation(ctx context.Context, entityName string, id any, property string) (any, error) {
	args := m.Called(ctx, entityName, id, property)
	return args.Get(0), args.Error(1)
}

func (m *Session) LoadCollection(ctx context.Context, role string, key any) ([]any, error) {
	args := m.Called(ctx, role, key)
	if items, ok := args.Get(0).([]any); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Session) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	ret := m.Called(ctx, query, args)
	if rows, ok := ret.Get(0).([]map[string]any); ok {
		return rows, ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Session) NamedQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	args := m.Called(ctx, query, params)
	if rows, ok := args.Get(0).([]map[string]any); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Session) Save(entity any) {
	m.Called(entity)
}

func (m *Session) Attach(wrapper any) {
	m.Called(wrapper)
}

func (m *Session) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Session) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *Session) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Session) BestGuessEntityName(instance any) string {
	args := m.Called(instance)
	return args.String(0)
}

// SessionFactory is a mock implementation of orm.SessionFactory
type SessionFactory struct {
	mock.Mock
}

func (m *SessionFactory) OpenSession(ctx context.Context) (orm.Session, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(orm.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionFactory) Metamodel() orm.Metamodel {
	args := m.Called()
	if mm, ok := args.Get(0).(orm.Metamodel); ok {
		return mm
	}
	return nil
}
