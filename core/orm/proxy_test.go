package orm

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID int
}

type stubInitializer struct {
	id     any
	target any
}

func (s *stubInitializer) EntityName() string { return "orm.widget" }
func (s *stubInitializer) Identifier() any { return s.id }
func (s *stubInitializer) PersistentType() reflect.Type { return reflect.TypeOf(widget{}) }
func (s *stubInitializer) IsUninitialized() bool { return s.target == nil }
func (s *stubInitializer) Initialize(ctx context.Context) error {
	s.target = &widget{ID: s.id.(int)}
	return nil
}
func (s *stubInitializer) Implementation(ctx context.Context) (any, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.target, nil
}

func TestEntityProxy(t *testing.T) {
	init := &stubInitializer{id: 7}
	p := NewProxy[widget](init)

	got, ok := AsProxy(p)
	require.True(t, ok)
	assert.Equal(t, 7, got.Identifier())
	assert.True(t, got.IsUninitialized())

	w, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, w.ID)
	assert.False(t, init.IsUninitialized())
}

func TestEntityProxy_UnenhancedTypeOnNilReceiver(t *testing.T) {
	var p *EntityProxy[widget]
	assert.Equal(t, reflect.TypeOf(widget{}), p.UnenhancedType())

	_, ok := AsProxy(p)
	assert.False(t, ok)
	_, ok = AsProxy(widget{})
	assert.False(t, ok)
}
