package persistent

import (
	"context"
	"errors"
	"testing"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/orm/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rolePersister struct{ role string }

func (p rolePersister) Role() string { return p.role }
func (p rolePersister) OwnerEntityName() string { return "" }
func (p rolePersister) PropertyName() string { return "" }
func (p rolePersister) ElementType() orm.Type { return nil }

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindBag, KindList, KindSet, KindSortedSet, KindHashMap, KindSortedMap} {
		t.Run(k.ClassName(), func(t *testing.T) {
			parsed, err := ParseKind(k.ClassName())
			require.NoError(t, err)
			assert.Equal(t, k, parsed)
		})
	}

	_, err := ParseKind("persistent.Queue")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	assert.True(t, KindList.Ordered())
	assert.True(t, KindSortedSet.Ordered())
	assert.False(t, KindSet.Ordered())
	assert.True(t, KindSortedMap.IsMap())
	assert.False(t, KindBag.IsMap())
}

func TestNewCollection_Uninitialized(t *testing.T) {
	w, err := NewCollection(KindSet, nil, nil)
	require.NoError(t, err)

	assert.False(t, w.WasInitialized())
	assert.Nil(t, w.Underlying())
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.IsDirty())
}

func TestNewCollection_WithContent(t *testing.T) {
	content := collection.NewList("a", "b")
	w, err := NewCollection(KindList, nil, content)
	require.NoError(t, err)

	assert.True(t, w.WasInitialized())
	assert.Same(t, content, w.Underlying())
	assert.Equal(t, []any{"a", "b"}, w.Items())
	assert.Equal(t, "persistent.List", collection.TypeName(w))
}

func TestNewCollection_SortedKindsGetSortedBacking(t *testing.T) {
	w, err := NewCollection(KindSortedSet, nil, collection.NewBag(3, 1, 2))
	require.NoError(t, err)

	_, sorted := w.Underlying().(*collection.SortedSet)
	assert.True(t, sorted)
	assert.Equal(t, []any{1, 2, 3}, w.Items())

	m, err := NewMap(KindSortedMap, nil, func() collection.Map {
		hm := collection.NewHashMap()
		hm.Put("b", 2)
		hm.Put("a", 1)
		return hm
	}())
	require.NoError(t, err)
	_, sorted = m.Underlying().(*collection.SortedMap)
	assert.True(t, sorted)
	assert.Equal(t, []any{"a", "b"}, m.Keys())
}

func TestNewCollection_RejectsMapKind(t *testing.T) {
	_, err := NewCollection(KindHashMap, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = NewMap(KindBag, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestWrapper_SnapshotAndOwner(t *testing.T) {
	w, err := Of(KindBag, nil, 1, 2)
	require.NoError(t, err)

	snap := w.GetSnapshot(rolePersister{role: "models.Customer.Orders"})
	w.SetSnapshot(10, "models.Customer.Orders", snap)
	w.SetOwner("owner")

	assert.Equal(t, 10, w.Key())
	assert.Equal(t, "models.Customer.Orders", w.Role())
	assert.Equal(t, "owner", w.Owner())
	assert.Equal(t, 2, w.StoredSnapshot().Len())
	assert.Equal(t, "models.Customer.Orders", w.StoredSnapshot().Role)

	// the snapshot is a copy
	w.Add(3)
	assert.Equal(t, 2, w.StoredSnapshot().Len())
}

func TestWrapper_DirtyTracking(t *testing.T) {
	w, err := Of(KindSet, nil, "a")
	require.NoError(t, err)
	assert.False(t, w.IsDirty())

	assert.False(t, w.Add("a"))
	assert.False(t, w.IsDirty())

	assert.True(t, w.Add("b"))
	assert.True(t, w.IsDirty())

	w.ClearDirty()
	w.Dirty()
	assert.True(t, w.IsDirty())
}

func TestForceInitialization(t *testing.T) {
	ctx := context.Background()
	session := new(mocks.Session)
	session.On("IsConnected").Return(true)
	session.On("LoadCollection", ctx, "models.Customer.Tags", uint(1)).Return([]any{"x", "y"}, nil).Once()

	w := NewSet(session)
	w.SetSnapshot(uint(1), "models.Customer.Tags", nil)

	require.NoError(t, w.ForceInitialization(ctx))
	assert.True(t, w.WasInitialized())
	assert.Equal(t, []any{"x", "y"}, w.Items())
	assert.Equal(t, 2, w.StoredSnapshot().Len())

	// already initialized: no second load
	require.NoError(t, w.ForceInitialization(ctx))
	session.AssertExpectations(t)
}

func TestForceInitialization_Errors(t *testing.T) {
	ctx := context.Background()

	w := NewBag(nil)
	err := w.ForceInitialization(ctx)
	assert.True(t, errors.Is(err, ErrNoSession))

	session := new(mocks.Session)
	session.On("IsConnected").Return(true)
	session.On("LoadCollection", ctx, "models.Customer.Orders", mock.Anything).Return(nil, errors.New("boom"))

	w = NewBag(session)
	w.SetSnapshot(1, "models.Customer.Orders", nil)
	err = w.ForceInitialization(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, w.WasInitialized())
}

func TestMapWrapper(t *testing.T) {
	ctx := context.Background()
	session := new(mocks.Session)
	session.On("IsConnected").Return(true)
	session.On("LoadCollection", ctx, "models.Shelf.Labels", 5).Return([]any{
		Entry{Key: "k1", Value: "v1"},
		Entry{Key: "k2", Value: "v2"},
	}, nil)

	m := NewHashMap(session)
	m.SetSnapshot(5, "models.Shelf.Labels", nil)
	require.NoError(t, m.ForceInitialization(ctx))

	v, ok := m.Get("k2")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.False(t, m.IsDirty())

	m.Put("k3", "v3")
	assert.True(t, m.IsDirty())
	assert.Equal(t, 3, m.GetSnapshot(nil).Len())
}
