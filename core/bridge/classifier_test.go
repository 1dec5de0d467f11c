package bridge

import (
	"reflect"
	"testing"

	"reattach/core/introspect"
	"reattach/core/orm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type labeled interface {
	Label() string
}

type badge struct {
	Text string
}

func (b badge) Label() string { return b.Text }

func TestClassifier_IsPersistentClass(t *testing.T) {
	b := newFixture().bridge

	cases := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{"entity", customerType, true},
		{"entity pointer", reflect.TypeOf(&customer{}), true},
		{"proxy", reflect.TypeOf(&orm.EntityProxy[tag]{}), true},
		{"component", addressType, true},
		{"user type", moneyType, true},
		{"entity reached through a collection", orderType, true},
		{"scalar", reflect.TypeOf(""), false},
		{"unmapped struct", reflect.TypeOf(unrelated{}), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := b.IsPersistentClass(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	b := newFixture().bridge

	got, err := b.Classify(customerType)
	require.NoError(t, err)
	assert.Equal(t, ClassEntity, got.Kind)

	got, err = b.Classify(addressType)
	require.NoError(t, err)
	assert.Equal(t, ClassComponent, got.Kind)

	got, err = b.Classify(moneyType)
	require.NoError(t, err)
	assert.Equal(t, ClassUserType, got.Kind)

	got, err = b.Classify(reflect.TypeOf([]*tag{}))
	require.NoError(t, err)
	assert.Equal(t, ClassCollection, got.Kind)
	assert.Equal(t, tagType, got.Element)
	assert.Equal(t, "collection-of(bridge.tag)", got.String())

	got, err = b.Classify(reflect.TypeOf(map[string]*order{}))
	require.NoError(t, err)
	assert.Equal(t, ClassCollection, got.Kind)
	assert.Equal(t, orderType, got.Element)

	got, err = b.Classify(reflect.TypeOf([]string{}))
	require.NoError(t, err)
	assert.Equal(t, ClassTransient, got.Kind)

	got, err = b.Classify(reflect.TypeOf(unrelated{}))
	require.NoError(t, err)
	assert.Equal(t, ClassTransient, got.Kind)
}

func TestClassifier_StableAcrossGoroutines(t *testing.T) {
	b := newFixture().bridge
	types := []reflect.Type{customerType, addressType, moneyType, tagType, reflect.TypeOf(unrelated{}), reflect.TypeOf(0)}
	want := []bool{true, true, true, true, false, false}

	var g errgroup.Group
	results := make([][]bool, 16)
	for i := range results {
		i := i
		g.Go(func() error {
			out := make([]bool, len(types))
			for j, typ := range types {
				persistent, err := b.IsPersistentClass(typ)
				if err != nil {
					return err
				}
				out[j] = persistent
			}
			results[i] = out
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestClassifier_RejectsConflictingDecision(t *testing.T) {
	b := newFixture().bridge

	persistent, err := b.IsPersistentClass(addressType)
	require.NoError(t, err)
	require.True(t, persistent)

	err = b.classifier.mark(addressType, false)
	assert.ErrorIs(t, err, ErrInconsistentClassification)
	assert.NoError(t, b.classifier.mark(addressType, true))
}

func TestClassifier_MappedInterface(t *testing.T) {
	meta := &fakeMeta{
		entities: []*fakeEntity{{t: reflect.TypeOf((*labeled)(nil)).Elem(), id: fakeID{name: "ID"}}},
		roles:    map[string]*fakeRole{},
	}
	c := NewClassifier(meta, introspect.New(), nil, nil)

	persistent, err := c.IsPersistentClass(reflect.TypeOf(badge{}))
	require.NoError(t, err)
	assert.True(t, persistent)

	persistent, err = c.IsPersistentClass(reflect.TypeOf(unrelated{}))
	require.NoError(t, err)
	assert.False(t, persistent)
}

func TestClassifier_NoFactory(t *testing.T) {
	b := New(nil, nil, DefaultConfig(), nil)

	_, err := b.IsPersistentClass(customerType)
	assert.ErrorIs(t, err, ErrNoSessionFactory)
	_, err = b.Classify(customerType)
	assert.ErrorIs(t, err, ErrNoSessionFactory)
}
