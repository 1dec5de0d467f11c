package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializableID(t *testing.T) {
	entity := SerializableID{EntityName: "bridge.tag", ID: int64(1)}
	assert.Equal(t, "bridge.tag#1", entity.String())
	assert.Equal(t, map[string]any{KeyEntityName: "bridge.tag", KeyID: int64(1)}, entity.ToMap())

	value := SerializableID{EntityName: "int", Value: StringValue("5")}
	assert.Equal(t, "int=5", value.String())

	parsed, err := SerializableIDFromMap(map[string]any{KeyEntityName: "int", KeyValue: "5"})
	require.NoError(t, err)
	assert.Equal(t, value, parsed)

	_, err = SerializableIDFromMap(map[string]any{KeyEntityName: "int", KeyID: 1, KeyValue: "5"})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = SerializableIDFromMap(map[string]any{KeyID: 1})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestProxyDescriptor_Map(t *testing.T) {
	d := &ProxyDescriptor{Class: "bridge.customer", ID: int64(42)}
	parsed, err := ProxyDescriptorFromMap(d.ToMap())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ProxyDescriptorFromMap(map[string]any{KeyID: 42})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestCollectionDescriptor_IDListPresence(t *testing.T) {
	uninitialized := &CollectionDescriptor{Class: "persistent.Set", Role: "bridge.customer.Tags", Key: int64(42)}
	_, present := uninitialized.ToMap()[KeyIDList]
	assert.False(t, present)

	empty := &CollectionDescriptor{Class: "persistent.Set", Role: "bridge.customer.Tags", Key: int64(42), Initialized: true}
	list, present := empty.ToMap()[KeyIDList]
	assert.True(t, present)
	assert.Empty(t, list)

	data, err := json.Marshal(empty)
	require.NoError(t, err)
	var decoded CollectionDescriptor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Initialized)
	assert.Empty(t, decoded.IDList)

	data, err = json.Marshal(uninitialized)
	require.NoError(t, err)
	decoded = CollectionDescriptor{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.Initialized)
}

func TestCollectionDescriptor_JSON(t *testing.T) {
	d := &CollectionDescriptor{
		Class:       "persistent.HashMap",
		Underlying:  "collection.HashMap",
		Role:        "bridge.customer.Ratings",
		Key:         int64(42),
		Initialized: true,
		IDList:      []SerializableID{{EntityName: "string", Value: StringValue("speed")}},
		ValueList:   []SerializableID{{EntityName: "bridge.tag", ID: int64(2)}},
	}
	assert.True(t, d.IsMap())

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded CollectionDescriptor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d.Class, decoded.Class)
	assert.Equal(t, d.Underlying, decoded.Underlying)
	assert.Equal(t, d.Role, decoded.Role)
	assert.Equal(t, float64(42), decoded.Key)
	require.Len(t, decoded.IDList, 1)
	require.Len(t, decoded.ValueList, 1)
	assert.Equal(t, "speed", *decoded.IDList[0].Value)
	assert.Equal(t, float64(2), decoded.ValueList[0].ID)
}

func TestCollectionDescriptor_Rejects(t *testing.T) {
	_, err := CollectionDescriptorFromMap(map[string]any{KeyRole: "x"})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = CollectionDescriptorFromMap(map[string]any{
		KeyClass:     "persistent.HashMap",
		KeyIDList:    []any{map[string]any{KeyEntityName: "int", KeyValue: "1"}},
		KeyValueList: []any{},
	})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = CollectionDescriptorFromMap(map[string]any{
		KeyClass:  "persistent.List",
		KeyIDList: []any{"not a member"},
	})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}
