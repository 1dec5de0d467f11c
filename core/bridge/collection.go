package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/persistent"

	"go.uber.org/zap"
)

// SerializeCollection captures a collection wrapper. The member list is only
// recorded when the wrapper was initialized.
func (b *Bridge) SerializeCollection(ctx context.Context, w persistent.Collection) (*CollectionDescriptor, error) {
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
	if w.WasInitialized() {
		ids, err := b.createIDList(ctx, w.Items())
		if err != nil {
			b.metrics.Reconciled("collection", "error")
			return nil, fmt.Errorf("serializing %s: %w", d.Role, err)
		}
		d.Initialized = true
		d.IDList = ids
	}
	b.metrics.Reconciled("collection", "serialized")
	return d, nil
}

// RehydrateCollection rebuilds the wrapper described by d for parent. underlying is the
// content the client holds now (a collection.Collection, slice or array); when it differs
// from the captured members the wrapper takes it over and is flagged dirty. A nil
// underlying keeps the captured members.
//
// Members that cannot be rebuilt from their descriptor make the association reload
// from the database instead; the client content is then applied on top of it.
func (b *Bridge) RehydrateCollection(ctx context.Context, parent any, d *CollectionDescriptor, underlying any) (persistent.Collection, error) {
	if d == nil {
		return nil, nil
	}
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	kind, err := persistent.ParseKind(d.Class)
	if err != nil || kind.IsMap() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWrapper, d.Class)
	}

	var out persistent.Collection
	err = b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		var err error
		out, err = b.rehydrateCollection(ctx, session, kind, parent, d, underlying)
		if errors.Is(err, ErrUnableToCreateEntity) {
			b.logger.Warn("Unable to rebuild collection of not persistent members, loading it",
				zap.String("role", d.Role), zap.Error(err))
			b.metrics.Fallback()
			out, err = b.reloadCollection(ctx, session, kind, parent, d, underlying)
		}
		return err
	})
	if err != nil {
		b.metrics.Reconciled("collection", "error")
		return nil, err
	}
	return out, nil
}

func (b *Bridge) rehydrateCollection(ctx context.Context, session orm.Session, kind persistent.Kind, parent any, d *CollectionDescriptor, underlying any) (persistent.Collection, error) {
	items := collection.ItemsOf(underlying)
	original, dropped, err := b.createOriginalCollection(ctx, session, kind, d, underlying, items)
	if err != nil {
		return nil, err
	}

	w, err := persistent.NewCollection(kind, session, original)
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

	if isNil(underlying) || !collectionsDiffer(kind, original, items) {
		if dropped {
			// The association still references rows that are gone.
			w.Dirty()
			b.metrics.Reconciled("collection", "dirty")
			return w, nil
		}
		b.metrics.Reconciled("collection", "clean")
		return w, nil
	}
	if original != nil {
		w.Clear()
	}
	for _, item := range items {
		w.Add(item)
	}
	w.Dirty()
	b.metrics.Reconciled("collection", "dirty")
	return w, nil
}

// createOriginalCollection rebuilds the members captured in d and reports whether some
// were dropped. It returns nil when the wrapper was not initialized and the client holds
// no content.
func (b *Bridge) createOriginalCollection(ctx context.Context, session orm.Session, kind persistent.Kind, d *CollectionDescriptor, underlying any, items []any) (collection.Collection, bool, error) {
	if !d.Initialized && isNil(underlying) {
		return nil, false, nil
	}

	original, err := b.emptyLike(kind, d, underlying)
	if err != nil {
		return nil, false, err
	}
	if !d.Initialized {
		return original, false, nil
	}

	table, err := b.lookupTable(ctx, items)
	if err != nil {
		return nil, false, err
	}
	dropped := false
	for _, sid := range d.IDList {
		entity, err := b.createOriginalEntity(ctx, session, sid, table)
		if err != nil {
			return nil, false, err
		}
		if entity == nil {
			dropped = true
			continue
		}
		original.Add(entity)
	}
	return original, dropped, nil
}

// emptyLike returns an empty plain collection of the client's class, of the class
// recorded in the descriptor, or the default one for kind.
func (b *Bridge) emptyLike(kind persistent.Kind, d *CollectionDescriptor, underlying any) (collection.Collection, error) {
	if c, ok := underlying.(collection.Collection); ok && !isNil(c) {
		return c.Empty(), nil
	}
	if d.Underlying != "" {
		c, err := collection.New(d.Underlying)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		return c, nil
	}
	return kind.NewUnderlying(), nil
}

// reloadCollection fetches the association of parent again and applies the client content to it.
func (b *Bridge) reloadCollection(ctx context.Context, session orm.Session, kind persistent.Kind, parent any, d *CollectionDescriptor, underlying any) (persistent.Collection, error) {
	property := d.Role[strings.LastIndex(d.Role, ".")+1:]
	parentType := b.persistentType(parent)

	id, err := b.ResolveID(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("reloading %s: %w", d.Role, err)
	}
	name, err := b.entityName(ctx, parentType, parent)
	if err != nil {
		return nil, err
	}
	loaded, err := session.LoadAssociation(ctx, name, id, property)
	if err != nil {
		return nil, fmt.Errorf("reloading %s: %w", d.Role, err)
	}
	if loaded == nil {
		return nil, fmt.Errorf("reloading %s: %w", d.Role, orm.ErrObjectNotFound)
	}
	association, err := b.intro.Read(loaded, property)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.Role, err)
	}

	w, ok := association.(persistent.Collection)
	if !ok {
		if w, err = persistent.Of(kind, session, collection.ItemsOf(association)...); err != nil {
			return nil, err
		}
		w.SetSnapshot(d.Key, d.Role, &persistent.Snapshot{Role: d.Role, Items: w.Items()})
		w.SetOwner(parent)
	}
	w.Clear()
	for _, item := range collection.ItemsOf(underlying) {
		w.Add(item)
	}
	b.metrics.Reconciled("collection", "reloaded")
	return w, nil
}
