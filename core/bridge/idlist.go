package bridge

import (
	"context"
	"reflect"

	"reattach/core/introspect"
	"reattach/core/utils"
)

// createIDList serializes the non-nil members of items. An empty result is nil.
func (b *Bridge) createIDList(ctx context.Context, items []any) ([]SerializableID, error) {
	var ids []SerializableID
	for _, item := range items {
		if isNil(item) {
			continue
		}
		sid, err := b.serializeMember(ctx, item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sid)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// serializeMember describes one member: entities by identifier, anything else by value.
func (b *Bridge) serializeMember(ctx context.Context, item any) (SerializableID, error) {
	id, err := b.ResolveID(ctx, item)
	if err != nil {
		if !IsSkippable(err) {
			return SerializableID{}, err
		}
		return b.serializeValue(item), nil
	}
	name, err := b.entityName(ctx, b.persistentType(item), item)
	if err != nil {
		return SerializableID{}, err
	}
	return SerializableID{EntityName: name, ID: id}, nil
}

// serializeValue describes a non-persistent member. Only enums, numbers and strings
// get a value; other members keep just their type name and cannot be rebuilt.
func (b *Bridge) serializeValue(item any) SerializableID {
	sid := SerializableID{EntityName: b.intro.TypeName(b.intro.TypeOf(item))}
	if name, ok := b.intro.EnumName(item); ok {
		sid.Value = StringValue(name)
		return sid
	}
	if t := reflect.TypeOf(item); introspect.IsNumber(t) || t.Kind() == reflect.String {
		if literal, ok := introspect.FormatScalar(item); ok {
			sid.Value = StringValue(literal)
		}
	}
	return sid
}

// lookup maps members still present on the client side by identifier or value.
type lookup map[string]any

func idKey(entityName string, id any) string {
	return entityName + "#" + utils.CanonicalID(id)
}

func valueKey(entityName, value string) string {
	return entityName + "=" + value
}

// lookupTable indexes items so that descriptors can be matched back to the very
// instances the client holds.
func (b *Bridge) lookupTable(ctx context.Context, items []any) (lookup, error) {
	table := make(lookup, len(items))
	for _, item := range items {
		if isNil(item) {
			continue
		}
		sid, err := b.serializeMember(ctx, item)
		if err != nil {
			return nil, err
		}
		switch {
		case sid.ID != nil:
			table[idKey(sid.EntityName, sid.ID)] = item
		case sid.Value != nil:
			table[valueKey(sid.EntityName, *sid.Value)] = item
		}
	}
	return table, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
