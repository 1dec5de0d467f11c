package gormorm

import (
	"context"
	"fmt"
	"reflect"

	"reattach/core/collection"
	"reattach/core/orm"
	"reattach/core/persistent"
)

// Wrap turns the association property of a loaded owner into a wrapper attached
// to the session. A nil slice means the association was not fetched and yields
// an uninitialized wrapper.
func (s *Session) Wrap(ctx context.Context, owner any, property string) (persistent.Collection, error) {
	e, ok := s.meta.entityOf(reflect.TypeOf(owner))
	if !ok {
		return nil, fmt.Errorf("%w: %T", orm.ErrUnknownEntity, owner)
	}
	r, ok := s.meta.role(e.name + "." + property)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", orm.ErrUnknownRole, e.name, property)
	}
	key, err := e.IdentifierOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	field, err := fieldValue(owner, property)
	if err != nil {
		return nil, err
	}

	var w persistent.Collection
	if field.Kind() == reflect.Slice && field.IsNil() {
		w, err = persistent.NewCollection(r.kind, s, nil)
		if err != nil {
			return nil, err
		}
		w.SetSnapshot(key, r.name, nil)
	} else {
		w, err = persistent.Of(r.kind, s, collection.ItemsOf(field.Interface())...)
		if err != nil {
			return nil, err
		}
		w.SetSnapshot(key, r.name, w.GetSnapshot(r))
	}
	w.SetOwner(owner)
	s.Attach(w)
	return w, nil
}

// Unwrap writes the members of w back into the property of owner, materializing proxies.
// An uninitialized wrapper leaves the property untouched.
func (s *Session) Unwrap(ctx context.Context, w persistent.Collection, owner any, property string) error {
	if !w.WasInitialized() {
		return nil
	}
	items := w.Items()
	members := make([]any, 0, len(items))
	for _, item := range items {
		member, err := materialize(ctx, item)
		if err != nil {
			return err
		}
		members = append(members, member)
	}
	return s.meta.intro.Write(owner, property, members)
}
