package bridge

import (
	"context"
	"testing"

	"reattach/core/orm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityProxy_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)

	d, err := f.bridge.SerializeEntityProxy(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, &ProxyDescriptor{Class: customerType.String(), ID: int64(42)}, d)

	p, err := f.bridge.RehydrateEntityProxy(ctx, d)
	require.NoError(t, err)
	init, ok := orm.AsProxy(p)
	require.True(t, ok)
	assert.Equal(t, int64(42), init.Identifier())
	assert.True(t, init.IsUninitialized())
	assert.False(t, f.bridge.IsInitialized(p))

	again, err := f.bridge.SerializeEntityProxy(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, d, again)
	assert.True(t, init.IsUninitialized(), "serializing a proxy must not load it")

	c, err := p.(*orm.EntityProxy[customer]).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)
}

func TestEntityProxy_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.bridge.SerializeEntityProxy(ctx, &tag{Label: "unsaved"})
	assert.ErrorIs(t, err, ErrTransientObject)

	_, err = f.bridge.RehydrateEntityProxy(ctx, &ProxyDescriptor{Class: tagType.String(), ID: int64(99)})
	assert.ErrorIs(t, err, orm.ErrObjectNotFound)

	_, err = f.bridge.RehydrateEntityProxy(ctx, &ProxyDescriptor{ID: 1})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	d, err := f.bridge.SerializeEntityProxy(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, d)

	p, err := f.bridge.RehydrateEntityProxy(ctx, nil)
	assert.NoError(t, err)
	assert.Nil(t, p)
}
