package gormorm

import (
	"context"
	"testing"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCustomer(t *testing.T, session *Session, property string) *Customer {
	t.Helper()
	loaded, err := session.LoadAssociation(context.Background(), "gormorm.Customer", 42, property)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	return loaded.(*Customer)
}

func tagLabels(items []any) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.(*Tag).Label)
	}
	return labels
}

func TestWrap(t *testing.T) {
	f, _ := newTestFactory(t)
	session := openSession(t, f)
	ctx := context.Background()

	t.Run("Loaded Association", func(t *testing.T) {
		customer := loadCustomer(t, session, "Tags")
		w, err := session.Wrap(ctx, customer, "Tags")
		require.NoError(t, err)

		assert.Equal(t, persistent.KindSet, w.Kind())
		assert.True(t, w.WasInitialized())
		assert.False(t, w.IsDirty())
		assert.Equal(t, 2, w.Len())
		assert.Equal(t, 42, w.Key())
		assert.Equal(t, "gormorm.Customer.Tags", w.Role())
		assert.Same(t, customer, w.Owner())
		assert.Equal(t, 2, w.StoredSnapshot().Len())
	})

	t.Run("Not Fetched", func(t *testing.T) {
		loaded, err := session.Get(ctx, customerType, 42)
		require.NoError(t, err)
		w, err := session.Wrap(ctx, loaded, "Tags")
		require.NoError(t, err)
		assert.False(t, w.WasInitialized())
		assert.Nil(t, w.Underlying())

		require.NoError(t, w.ForceInitialization(ctx))
		assert.True(t, w.WasInitialized())
		assert.ElementsMatch(t, []string{"red", "blue"}, tagLabels(w.Items()))
	})

	t.Run("Has Many Is A Bag", func(t *testing.T) {
		customer := loadCustomer(t, session, "Orders")
		w, err := session.Wrap(ctx, customer, "Orders")
		require.NoError(t, err)
		assert.Equal(t, persistent.KindBag, w.Kind())
		assert.Equal(t, 1, w.Len())
	})

	t.Run("Rejects", func(t *testing.T) {
		_, err := session.Wrap(ctx, &Customer{ID: 42}, "Name")
		assert.ErrorIs(t, err, orm.ErrUnknownRole)
		_, err = session.Wrap(ctx, &Address{}, "Tags")
		assert.ErrorIs(t, err, orm.ErrUnknownEntity)
	})
}

func TestUnwrap(t *testing.T) {
	f, _ := newTestFactory(t)
	session := openSession(t, f)
	ctx := context.Background()

	proxy, err := session.Load(ctx, "gormorm.Tag", 3)
	require.NoError(t, err)
	w, err := persistent.Of(persistent.KindList, session, proxy)
	require.NoError(t, err)

	owner := &Customer{ID: 42}
	require.NoError(t, session.Unwrap(ctx, w, owner, "Labels"))
	require.Len(t, owner.Labels, 1)
	assert.Equal(t, "green", owner.Labels[0].Label)

	untouched := &Customer{ID: 42, Labels: []*Tag{{ID: 1}}}
	require.NoError(t, session.Unwrap(ctx, persistent.NewList(session), untouched, "Labels"))
	assert.Len(t, untouched.Labels, 1)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()

	reload := func(t *testing.T, f *Factory) *Customer {
		t.Helper()
		fresh := openSession(t, f)
		return loadCustomer(t, fresh, "Tags")
	}

	t.Run("Adds A Member", func(t *testing.T) {
		f, _ := newTestFactory(t)
		session := openSession(t, f)

		w, err := session.Wrap(ctx, loadCustomer(t, session, "Tags"), "Tags")
		require.NoError(t, err)
		green, err := session.Load(ctx, "gormorm.Tag", 3)
		require.NoError(t, err)
		w.Add(green)
		require.True(t, w.IsDirty())

		require.NoError(t, session.Flush(ctx))
		assert.False(t, w.IsDirty())
		assert.Equal(t, 3, w.StoredSnapshot().Len())

		customer := reload(t, f)
		labels := make([]any, 0)
		for _, tag := range customer.Tags {
			labels = append(labels, tag)
		}
		assert.ElementsMatch(t, []string{"red", "blue", "green"}, tagLabels(labels))
	})

	t.Run("Clears The Association", func(t *testing.T) {
		f, _ := newTestFactory(t)
		session := openSession(t, f)

		w, err := session.Wrap(ctx, loadCustomer(t, session, "Tags"), "Tags")
		require.NoError(t, err)
		w.Clear()

		require.NoError(t, session.Flush(ctx))
		assert.Empty(t, reload(t, f).Tags)
	})

	t.Run("Clean Wrappers Are Skipped", func(t *testing.T) {
		f, db := newTestFactory(t)
		session := openSession(t, f)

		_, err := session.Wrap(ctx, loadCustomer(t, session, "Tags"), "Tags")
		require.NoError(t, err)
		require.NoError(t, db.Exec("DELETE FROM customer_tags WHERE tag_id = 1").Error)

		require.NoError(t, session.Flush(ctx))
		assert.Len(t, reload(t, f).Tags, 1)
	})

	t.Run("Saves Queued Entities", func(t *testing.T) {
		f, _ := newTestFactory(t)
		session := openSession(t, f)

		loaded, err := session.Get(ctx, customerType, 42)
		require.NoError(t, err)
		customer := loaded.(*Customer)
		customer.Name = "Grace"
		session.Save(customer)
		require.NoError(t, session.Flush(ctx))

		fresh := reload(t, f)
		assert.Equal(t, "Grace", fresh.Name)
		assert.Len(t, fresh.Tags, 2, "associations are left alone")
	})

	t.Run("Map Wrappers Are Rejected", func(t *testing.T) {
		f, _ := newTestFactory(t)
		session := openSession(t, f)

		m := persistent.NewHashMapWith(session, collection.NewHashMap())
		m.SetSnapshot(42, "gormorm.Customer.Tags", nil)
		m.SetOwner(&Customer{ID: 42})
		m.Put("k", "v")
		session.Attach(m)

		assert.ErrorContains(t, session.Flush(ctx), "map associations are not supported")
	})

	t.Run("Ignores Foreign Values", func(t *testing.T) {
		f, _ := newTestFactory(t)
		session := openSession(t, f)
		session.Attach("not a wrapper")
		assert.NoError(t, session.Flush(ctx))
	})
}

func TestVerify(t *testing.T) {
	f, db := newTestFactory(t)
	mismatches, err := f.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	require.NoError(t, db.Exec("DROP TABLE memberships").Error)
	require.NoError(t, db.Exec("CREATE TABLE memberships (customer_id INTEGER, group_id INTEGER)").Error)

	mismatches, err = f.Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, Mismatch{Entity: "gormorm.Membership", Table: "memberships", Missing: []string{"level"}}, mismatches[0])
}
