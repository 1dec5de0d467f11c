package persistent

import (
	"context"
	"fmt"

	"reattach/core/collection"
	"reattach/core/orm"
)

type wrappedMap struct {
	state
	backing collection.Map
}

func newWrappedMap(kind Kind, session orm.Session, content collection.Map) wrappedMap {
	w := wrappedMap{state: state{kind: kind, session: session}}
	if content != nil {
		if _, sorted := content.(*collection.SortedMap); kind == KindSortedMap && !sorted {
			copied := kind.NewUnderlyingMap()
			keys, values := content.Keys(), content.Values()
			for i := range keys {
				copied.Put(keys[i], values[i])
			}
			content = copied
		}
		w.backing = content
		w.initialized = true
	}
	return w
}

func (w *wrappedMap) Underlying() collection.Map { return w.backing }

func (w *wrappedMap) write() collection.Map {
	if w.backing == nil {
		w.backing = w.kind.NewUnderlyingMap()
		w.initialized = true
	}
	return w.backing
}

func (w *wrappedMap) Len() int {
	if w.backing == nil {
		return 0
	}
	return w.backing.Len()
}

func (w *wrappedMap) Keys() []any {
	if w.backing == nil {
		return nil
	}
	return w.backing.Keys()
}

func (w *wrappedMap) Values() []any {
	if w.backing == nil {
		return nil
	}
	return w.backing.Values()
}

func (w *wrappedMap) Get(key any) (any, bool) {
	if w.backing == nil {
		return nil, false
	}
	return w.backing.Get(key)
}

func (w *wrappedMap) ContainsKey(key any) bool {
	return w.backing != nil && w.backing.ContainsKey(key)
}

func (w *wrappedMap) Put(key, value any) {
	w.write().Put(key, value)
	w.dirty = true
}

func (w *wrappedMap) Remove(key any) bool {
	changed := w.write().Remove(key)
	if changed {
		w.dirty = true
	}
	return changed
}

func (w *wrappedMap) Clear() {
	if w.write().Len() > 0 {
		w.dirty = true
	}
	w.backing.Clear()
}

func (w *wrappedMap) Empty() collection.Map {
	if w.backing == nil {
		return w.kind.NewUnderlyingMap()
	}
	return w.backing.Empty()
}

func (w *wrappedMap) GetSnapshot(persister orm.CollectionPersister) *Snapshot {
	return &Snapshot{Role: roleOf(persister), Keys: w.Keys(), Items: w.Values()}
}

func (w *wrappedMap) ForceInitialization(ctx context.Context) error {
	if w.initialized {
		return nil
	}
	items, err := w.load(ctx)
	if err != nil {
		return err
	}
	backing := w.kind.NewUnderlyingMap()
	for _, item := range items {
		e, ok := item.(Entry)
		if !ok {
			return fmt.Errorf("initializing %s: map member %T is not an Entry", w.role, item)
		}
		backing.Put(e.Key, e.Value)
	}
	w.backing = backing
	w.initialized = true
	w.snapshot = &Snapshot{Role: w.role, Keys: backing.Keys(), Items: backing.Values()}
	return nil
}

// HashMap is a persistent map.
type HashMap struct{ wrappedMap }

// NewHashMap creates an uninitialized map.
func NewHashMap(session orm.Session) *HashMap {
	return &HashMap{newWrappedMap(KindHashMap, session, nil)}
}

// NewHashMapWith creates a map already holding content.
func NewHashMapWith(session orm.Session, content collection.Map) *HashMap {
	return &HashMap{newWrappedMap(KindHashMap, session, content)}
}

// SortedMap is a persistent map kept in key order.
type SortedMap struct{ wrappedMap }

// NewSortedMap creates an uninitialized sorted map.
func NewSortedMap(session orm.Session) *SortedMap {
	return &SortedMap{newWrappedMap(KindSortedMap, session, nil)}
}

// NewSortedMapWith creates a sorted map already holding content. Content that is not a
// collection.SortedMap is copied into one with natural key ordering.
func NewSortedMapWith(session orm.Session, content collection.Map) *SortedMap {
	return &SortedMap{newWrappedMap(KindSortedMap, session, content)}
}

// NewMap instantiates a map wrapper of kind. A nil original yields an uninitialized wrapper.
func NewMap(kind Kind, session orm.Session, original collection.Map) (Map, error) {
	switch kind {
	case KindHashMap:
		if original == nil {
			return NewHashMap(session), nil
		}
		return NewHashMapWith(session, original), nil
	case KindSortedMap:
		if original == nil {
			return NewSortedMap(session), nil
		}
		return NewSortedMapWith(session, original), nil
	default:
		return nil, fmt.Errorf("%w: %s is not a map kind", ErrUnknownKind, kind)
	}
}
