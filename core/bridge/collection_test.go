package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) wrap(t *testing.T, kind persistent.Kind, property string, items ...any) persistent.Collection {
	t.Helper()
	w, err := persistent.Of(kind, nil, items...)
	require.NoError(t, err)
	role := f.role(property)
	w.SetSnapshot(f.owner.ID, role, &persistent.Snapshot{Role: role, Items: w.Items()})
	w.SetOwner(f.owner)
	w.ClearDirty()
	return w
}

func (f *fixture) open(t *testing.T) context.Context {
	t.Helper()
	ctx, err := f.bridge.OpenSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.bridge.CloseSession(ctx) })
	return ctx
}

func (f *fixture) roundTrip(t *testing.T, ctx context.Context, w persistent.Collection, underlying any) persistent.Collection {
	t.Helper()
	d, err := f.bridge.SerializeCollection(ctx, w)
	require.NoError(t, err)
	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, underlying)
	require.NoError(t, err)
	return got
}

func TestCollection_UnchangedSet(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	t1, t2 := f.tags[0], f.tags[1]

	d, err := f.bridge.SerializeCollection(ctx, f.wrap(t, persistent.KindSet, "Tags", t1, t2))
	require.NoError(t, err)
	assert.Equal(t, "persistent.Set", d.Class)
	assert.Equal(t, collection.SetName, d.Underlying)
	assert.True(t, d.Initialized)
	assert.Equal(t, []SerializableID{
		{EntityName: tagType.String(), ID: int64(1)},
		{EntityName: tagType.String(), ID: int64(2)},
	}, d.IDList)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	var decoded CollectionDescriptor
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, &decoded, []*tag{t1, t2})
	require.NoError(t, err)

	assert.False(t, got.IsDirty())
	require.NotNil(t, got.StoredSnapshot())
	assert.Equal(t, 2, got.StoredSnapshot().Len())
	items := got.Items()
	require.Len(t, items, 2)
	assert.Same(t, t1, items[0])
	assert.Same(t, t2, items[1])
	assert.Equal(t, f.role("Tags"), got.Role())
	assert.Equal(t, float64(42), got.Key())
	assert.Same(t, f.owner, got.Owner())
	assert.True(t, got.Session().IsConnected())
}

func TestCollection_AddedElement(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	t1, t3 := f.tags[0], f.tags[2]

	got := f.roundTrip(t, ctx, f.wrap(t, persistent.KindSet, "Tags", t1), []*tag{t1, t3})

	assert.True(t, got.IsDirty())
	assert.Equal(t, 2, got.Len())
	assert.True(t, got.Contains(t1))
	assert.True(t, got.Contains(t3))
	assert.Equal(t, 1, got.StoredSnapshot().Len())
}

func TestCollection_ReorderedList(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	x, y, z := f.tags[0], f.tags[1], f.tags[2]

	got := f.roundTrip(t, ctx, f.wrap(t, persistent.KindList, "Tags", x, y, z), []*tag{y, x, z})

	assert.True(t, got.IsDirty())
	assert.Equal(t, []any{y, x, z}, got.Items())
}

func TestCollection_ReorderIgnoredByUnorderedKinds(t *testing.T) {
	for _, kind := range []persistent.Kind{persistent.KindBag, persistent.KindSet} {
		t.Run(kind.String(), func(t *testing.T) {
			f := newFixture()
			ctx := f.open(t)
			x, y, z := f.tags[0], f.tags[1], f.tags[2]

			got := f.roundTrip(t, ctx, f.wrap(t, kind, "Tags", x, y, z), []*tag{z, x, y})
			assert.False(t, got.IsDirty())
			assert.Equal(t, 3, got.Len())
		})
	}
}

func TestCollection_SortedSet(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	w := f.wrap(t, persistent.KindSortedSet, "Labels", 3, 1, 2)

	got := f.roundTrip(t, ctx, w, collection.NewSortedSet(nil, 2, 3, 1))
	assert.False(t, got.IsDirty())
	assert.Equal(t, []any{1, 2, 3}, got.Items())

	got = f.roundTrip(t, ctx, w, collection.NewSortedSet(nil, 4, 2, 1))
	assert.True(t, got.IsDirty())
	assert.Equal(t, []any{1, 2, 4}, got.Items())
	assert.IsType(t, &collection.SortedSet{}, got.Underlying())
}

func TestCollection_SortedSetFromPlainSlice(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	w := f.wrap(t, persistent.KindSortedSet, "Labels", 1, 2, 3)

	got := f.roundTrip(t, ctx, w, []any{3, 1, 2})
	assert.False(t, got.IsDirty())
	assert.Equal(t, []any{1, 2, 3}, got.Items())

	got = f.roundTrip(t, ctx, w, []any{3, 1, 4})
	assert.True(t, got.IsDirty())
	assert.Equal(t, []any{1, 3, 4}, got.Items())
}

func TestCollection_BagCountsDuplicates(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	x, y := f.tags[0], f.tags[1]
	w := f.wrap(t, persistent.KindBag, "Tags", x, x, y)

	got := f.roundTrip(t, ctx, w, []*tag{x, y, x})
	assert.False(t, got.IsDirty())

	got = f.roundTrip(t, ctx, w, []*tag{x, y, y})
	assert.True(t, got.IsDirty())
	assert.Equal(t, []any{x, y, y}, got.Items())
}

func TestCollection_WithoutClientContent(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)

	got := f.roundTrip(t, ctx, f.wrap(t, persistent.KindSet, "Tags", f.tags[0], f.tags[1]), nil)

	assert.False(t, got.IsDirty())
	assert.Equal(t, 2, got.StoredSnapshot().Len())
	var ids []any
	for _, item := range got.Items() {
		id, err := f.bridge.ResolveID(ctx, item)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []any{int64(1), int64(2)}, ids)
	assert.Same(t, f.owner, got.Owner())
	assert.Equal(t, f.role("Tags"), got.Role())
}

func TestCollection_Uninitialized(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)

	w := persistent.NewSet(nil)
	w.SetSnapshot(f.owner.ID, f.role("Tags"), nil)
	w.SetOwner(f.owner)

	d, err := f.bridge.SerializeCollection(ctx, w)
	require.NoError(t, err)
	assert.False(t, d.Initialized)
	assert.NotContains(t, d.ToMap(), KeyIDList)

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, nil)
	require.NoError(t, err)
	assert.False(t, got.WasInitialized())
	assert.False(t, got.IsDirty())
	assert.Nil(t, got.StoredSnapshot())

	got, err = f.bridge.RehydrateCollection(ctx, f.owner, d, []*tag{f.tags[2]})
	require.NoError(t, err)
	assert.True(t, got.IsDirty())
	assert.Equal(t, []any{f.tags[2]}, got.Items())
}

func TestCollection_InitializedButEmpty(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)

	d, err := f.bridge.SerializeCollection(ctx, f.wrap(t, persistent.KindBag, "Tags"))
	require.NoError(t, err)
	assert.True(t, d.Initialized)
	assert.Nil(t, d.IDList)
	assert.Contains(t, d.ToMap(), KeyIDList)

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, nil)
	require.NoError(t, err)
	assert.True(t, got.WasInitialized())
	assert.NotNil(t, got.StoredSnapshot())
	assert.Zero(t, got.Len())
}

func TestCollection_ScalarMembers(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	w := f.wrap(t, persistent.KindBag, "Labels", 5, "x", statusActive)

	d, err := f.bridge.SerializeCollection(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, []SerializableID{
		{EntityName: "int", Value: StringValue("5")},
		{EntityName: "string", Value: StringValue("x")},
		{EntityName: "bridge.status", Value: StringValue("ACTIVE")},
	}, d.IDList)

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{5, "x", statusActive}, got.Items())
	assert.False(t, got.IsDirty())
}

func TestCollection_TransientElementReloadsAssociation(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	fresh := &tag{Label: "fresh"}
	t1 := f.tags[0]

	d, err := f.bridge.SerializeCollection(ctx, f.wrap(t, persistent.KindSet, "Tags", t1, fresh))
	require.NoError(t, err)
	require.Len(t, d.IDList, 2)
	assert.Equal(t, SerializableID{EntityName: tagType.String()}, d.IDList[1])

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, []*tag{t1, fresh})
	require.NoError(t, err)

	assert.True(t, got.IsDirty())
	assert.Equal(t, 2, got.Len())
	assert.True(t, got.Contains(t1))
	assert.True(t, got.Contains(fresh))
	assert.Equal(t, f.role("Tags"), got.Role())
	assert.Same(t, f.owner, got.Owner())
}

func TestCollection_DeletedRow(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)
	t1 := f.tags[0]
	w := f.wrap(t, persistent.KindSet, "Tags", t1, f.tags[1])
	d, err := f.bridge.SerializeCollection(ctx, w)
	require.NoError(t, err)

	f.factory.store.remove(tagType.String(), int64(2))

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, d, []*tag{t1})
	require.NoError(t, err)
	assert.Equal(t, 1, got.StoredSnapshot().Len())
	assert.Equal(t, []any{t1}, got.Items())
	assert.True(t, got.IsDirty())

	got, err = f.bridge.RehydrateCollection(ctx, f.owner, d, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.True(t, got.IsDirty())
}

func TestCollection_Rejects(t *testing.T) {
	f := newFixture()
	ctx := f.open(t)

	_, err := f.bridge.RehydrateCollection(ctx, f.owner, &CollectionDescriptor{Class: "persistent.Queue"}, nil)
	assert.ErrorIs(t, err, ErrUnknownWrapper)

	_, err = f.bridge.RehydrateCollection(ctx, f.owner, &CollectionDescriptor{Class: "persistent.HashMap"}, nil)
	assert.ErrorIs(t, err, ErrUnknownWrapper)

	_, err = f.bridge.RehydrateCollection(ctx, f.owner, &CollectionDescriptor{Class: "persistent.Set", Role: "bridge.customer.Nothing"}, nil)
	assert.ErrorIs(t, err, orm.ErrUnknownRole)

	_, err = f.bridge.RehydrateCollection(ctx, f.owner, &CollectionDescriptor{
		Class:       "persistent.Set",
		Role:        f.role("Tags"),
		Initialized: true,
		IDList:      []SerializableID{{EntityName: "int", ID: 1, Value: StringValue("1")}},
	}, []*tag{})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	got, err := f.bridge.RehydrateCollection(ctx, f.owner, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	b := New(nil, nil, DefaultConfig(), nil)
	_, err = b.RehydrateCollection(ctx, f.owner, &CollectionDescriptor{Class: "persistent.Set"}, nil)
	assert.ErrorIs(t, err, ErrNoSessionFactory)
	_, err = b.SerializeCollection(ctx, persistent.NewSet(nil))
	assert.ErrorIs(t, err, ErrNoSessionFactory)
}

func TestCollectionsDiffer(t *testing.T) {
	a, b := &tag{ID: 1}, &tag{ID: 2}

	assert.False(t, collectionsDiffer(persistent.KindSet, nil, nil))
	assert.True(t, collectionsDiffer(persistent.KindSet, nil, []any{a}))
	assert.True(t, collectionsDiffer(persistent.KindSet, collection.NewSet(a), nil))
	assert.True(t, collectionsDiffer(persistent.KindBag, collection.NewBag(a), []any{a, b}))
	assert.False(t, collectionsDiffer(persistent.KindBag, collection.NewBag(a, b), []any{b, a}))
	assert.True(t, collectionsDiffer(persistent.KindBag, collection.NewBag(a, a, b), []any{a, b, b}))
	assert.False(t, collectionsDiffer(persistent.KindSortedSet, collection.NewSortedSet(nil, 1, 2, 3), []any{3, 1, 2}))
	assert.True(t, collectionsDiffer(persistent.KindSortedSet, collection.NewSortedSet(nil, 1, 2, 3), []any{3, 1, 4}))
	assert.True(t, collectionsDiffer(persistent.KindList, collection.NewList(a, b), []any{b, a}))
	assert.True(t, collectionsDiffer(persistent.KindList, collection.NewList(a), []any{&tag{ID: 1}}))
}
