package bridge

import (
	"context"
	"fmt"
	"reflect"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/persistent"
)

// SerializeMap captures a map wrapper. Keys and values are recorded as two
// positionally paired lists; entries with a nil key or value are left out.
func (b *Bridge) SerializeMap(ctx context.Context, w persistent.Map) (*CollectionDescriptor, error) {
	if w == nil {
		return nil, nil
	}
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	d := &CollectionDescriptor{
		Class: w.Kind().ClassName(),
		Role:  w.Role(),
		Key:   w.Key(),
	}
	if u := w.Underlying(); u != nil {
		d.Underlying = collection.TypeName(u)
	}
	if !w.WasInitialized() {
		b.metrics.Reconciled("map", "serialized")
		return d, nil
	}

	d.Initialized = true
	keys, values := w.Keys(), w.Values()
	for i, key := range keys {
		if isNil(key) || isNil(values[i]) {
			continue
		}
		ksid, err := b.serializeMember(ctx, key)
		if err != nil {
			b.metrics.Reconciled("map", "error")
			return nil, fmt.Errorf("serializing %s: %w", d.Role, err)
		}
		vsid, err := b.serializeMember(ctx, values[i])
		if err != nil {
			b.metrics.Reconciled("map", "error")
			return nil, fmt.Errorf("serializing %s: %w", d.Role, err)
		}
		d.IDList = append(d.IDList, ksid)
		d.ValueList = append(d.ValueList, vsid)
	}
	b.metrics.Reconciled("map", "serialized")
	return d, nil
}

// RehydrateMap rebuilds the map wrapper described by d for parent. underlying is the
// content the client holds now, either a collection.Map or a Go map; a nil underlying
// keeps the captured entries.
func (b *Bridge) RehydrateMap(ctx context.Context, parent any, d *CollectionDescriptor, underlying any) (persistent.Map, error) {
	if d == nil {
		return nil, nil
	}
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	kind, err := persistent.ParseKind(d.Class)
	if err != nil || !kind.IsMap() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWrapper, d.Class)
	}
	current, err := toMap(kind, underlying)
	if err != nil {
		return nil, err
	}

	var out persistent.Map
	err = b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		out, err = b.rehydrateMap(ctx, session, kind, parent, d, current)
		return err
	})
	if err != nil {
		b.metrics.Reconciled("map", "error")
		return nil, err
	}
	return out, nil
}

func (b *Bridge) rehydrateMap(ctx context.Context, session orm.Session, kind persistent.Kind, parent any, d *CollectionDescriptor, current collection.Map) (persistent.Map, error) {
	original, dropped, err := b.createOriginalMap(ctx, session, kind, d, current)
	if err != nil {
		return nil, err
	}

	w, err := persistent.NewMap(kind, session, original)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownWrapper, err)
	}
	persister, ok := b.factory.Metamodel().CollectionPersister(d.Role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", orm.ErrUnknownRole, d.Role)
	}
	var snapshot *persistent.Snapshot
	if original != nil {
		snapshot = w.GetSnapshot(persister)
	}
	w.SetSnapshot(d.Key, d.Role, snapshot)
	w.SetOwner(parent)

	if current == nil || !mapsDiffer(original, current) {
		if dropped {
			w.Dirty()
			b.metrics.Reconciled("map", "dirty")
			return w, nil
		}
		b.metrics.Reconciled("map", "clean")
		return w, nil
	}
	if original != nil {
		w.Clear()
	}
	keys, values := current.Keys(), current.Values()
	for i := range keys {
		w.Put(keys[i], values[i])
	}
	w.Dirty()
	b.metrics.Reconciled("map", "dirty")
	return w, nil
}

// createOriginalMap rebuilds the entries captured in d and reports whether some were
// dropped. It returns nil when the wrapper was not initialized.
func (b *Bridge) createOriginalMap(ctx context.Context, session orm.Session, kind persistent.Kind, d *CollectionDescriptor, current collection.Map) (collection.Map, bool, error) {
	if !d.Initialized {
		return nil, false, nil
	}
	if len(d.IDList) != len(d.ValueList) {
		return nil, false, fmt.Errorf("%w: %d keys for %d values", ErrInvalidDescriptor, len(d.IDList), len(d.ValueList))
	}

	original := kind.NewUnderlyingMap()
	var keyTable, valueTable lookup
	if current != nil {
		original = current.Empty()
		var err error
		if keyTable, err = b.lookupTable(ctx, current.Keys()); err != nil {
			return nil, false, err
		}
		if valueTable, err = b.lookupTable(ctx, current.Values()); err != nil {
			return nil, false, err
		}
	}

	dropped := false
	for i, ksid := range d.IDList {
		key, err := b.createOriginalEntity(ctx, session, ksid, keyTable)
		if err != nil {
			return nil, false, err
		}
		value, err := b.createOriginalEntity(ctx, session, d.ValueList[i], valueTable)
		if err != nil {
			return nil, false, err
		}
		if key == nil || value == nil {
			dropped = true
			continue
		}
		original.Put(key, value)
	}
	return original, dropped, nil
}

// toMap accepts the client content of a map association. Go maps are copied into
// the default plain map of kind.
func toMap(kind persistent.Kind, underlying any) (collection.Map, error) {
	if isNil(underlying) {
		return nil, nil
	}
	if m, ok := underlying.(collection.Map); ok {
		return m, nil
	}
	rv := reflect.ValueOf(underlying)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %T is not a map", ErrInvalidDescriptor, underlying)
	}
	out := kind.NewUnderlyingMap()
	iter := rv.MapRange()
	for iter.Next() {
		out.Put(iter.Key().Interface(), iter.Value().Interface())
	}
	return out, nil
}
