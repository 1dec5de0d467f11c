package persistent

import (
	"context"
	"fmt"

	"reattach/core/collection"
	"reattach/core/orm"
)

// wrapped holds the backing collection shared by the four collection kinds.
// Mutating an uninitialized wrapper starts from an empty backing collection;
// call ForceInitialization first to keep the stored members.
type wrapped struct {
	state
	backing collection.Collection
}

func newWrapped(kind Kind, session orm.Session, content collection.Collection) wrapped {
	w := wrapped{state: state{kind: kind, session: session}}
	if content != nil {
		w.backing = adopt(kind, content)
		w.initialized = true
	}
	return w
}

// adopt keeps content when it already has the shape the kind needs and copies it otherwise.
func adopt(kind Kind, content collection.Collection) collection.Collection {
	switch kind {
	case KindSortedSet:
		if _, ok := content.(*collection.SortedSet); ok {
			return content
		}
	case KindSet:
		if _, ok := content.(*collection.Set); ok {
			return content
		}
	case KindList:
		if _, ok := content.(*collection.List); ok {
			return content
		}
	default:
		return content
	}
	out := kind.NewUnderlying()
	for _, item := range content.Items() {
		out.Add(item)
	}
	return out
}

func (w *wrapped) Underlying() collection.Collection { return w.backing }

func (w *wrapped) write() collection.Collection {
	if w.backing == nil {
		w.backing = w.kind.NewUnderlying()
		w.initialized = true
	}
	return w.backing
}

func (w *wrapped) Len() int {
	if w.backing == nil {
		return 0
	}
	return w.backing.Len()
}

func (w *wrapped) Items() []any {
	if w.backing == nil {
		return nil
	}
	return w.backing.Items()
}

func (w *wrapped) Contains(item any) bool {
	return w.backing != nil && w.backing.Contains(item)
}

func (w *wrapped) Add(item any) bool {
	changed := w.write().Add(item)
	if changed {
		w.dirty = true
	}
	return changed
}

func (w *wrapped) Remove(item any) bool {
	changed := w.write().Remove(item)
	if changed {
		w.dirty = true
	}
	return changed
}

func (w *wrapped) Clear() {
	if w.write().Len() > 0 {
		w.dirty = true
	}
	w.backing.Clear()
}

func (w *wrapped) Empty() collection.Collection {
	if w.backing == nil {
		return w.kind.NewUnderlying()
	}
	return w.backing.Empty()
}

func (w *wrapped) GetSnapshot(persister orm.CollectionPersister) *Snapshot {
	return &Snapshot{Role: roleOf(persister), Items: w.Items()}
}

func (w *wrapped) ForceInitialization(ctx context.Context) error {
	if w.initialized {
		return nil
	}
	items, err := w.load(ctx)
	if err != nil {
		return err
	}
	backing := w.kind.NewUnderlying()
	for _, item := range items {
		backing.Add(item)
	}
	w.backing = backing
	w.initialized = true
	w.snapshot = &Snapshot{Role: w.role, Items: backing.Items()}
	return nil
}

// Bag is an unordered persistent collection that allows duplicates.
type Bag struct{ wrapped }

// NewBag creates an uninitialized bag.
func NewBag(session orm.Session) *Bag {
	return &Bag{newWrapped(KindBag, session, nil)}
}

// NewBagWith creates a bag already holding content.
func NewBagWith(session orm.Session, content collection.Collection) *Bag {
	return &Bag{newWrapped(KindBag, session, content)}
}

// List is an ordered persistent collection.
type List struct{ wrapped }

// NewList creates an uninitialized list.
func NewList(session orm.Session) *List {
	return &List{newWrapped(KindList, session, nil)}
}

// NewListWith creates a list already holding content.
func NewListWith(session orm.Session, content collection.Collection) *List {
	return &List{newWrapped(KindList, session, content)}
}

// Set is a persistent collection without duplicates.
type Set struct{ wrapped }

// NewSet creates an uninitialized set.
func NewSet(session orm.Session) *Set {
	return &Set{newWrapped(KindSet, session, nil)}
}

// NewSetWith creates a set already holding content.
func NewSetWith(session orm.Session, content collection.Collection) *Set {
	return &Set{newWrapped(KindSet, session, content)}
}

// SortedSet is a persistent set kept in comparator order.
type SortedSet struct{ wrapped }

// NewSortedSet creates an uninitialized sorted set.
func NewSortedSet(session orm.Session) *SortedSet {
	return &SortedSet{newWrapped(KindSortedSet, session, nil)}
}

// NewSortedSetWith creates a sorted set already holding content. Content that is not a
// collection.SortedSet is copied into one with natural ordering.
func NewSortedSetWith(session orm.Session, content collection.Collection) *SortedSet {
	return &SortedSet{newWrapped(KindSortedSet, session, content)}
}

// NewCollection instantiates a collection wrapper of kind. A nil original yields an
// uninitialized wrapper; otherwise original becomes the already loaded content.
func NewCollection(kind Kind, session orm.Session, original collection.Collection) (Collection, error) {
	switch kind {
	case KindBag:
		if original == nil {
			return NewBag(session), nil
		}
		return NewBagWith(session, original), nil
	case KindList:
		if original == nil {
			return NewList(session), nil
		}
		return NewListWith(session, original), nil
	case KindSet:
		if original == nil {
			return NewSet(session), nil
		}
		return NewSetWith(session, original), nil
	case KindSortedSet:
		if original == nil {
			return NewSortedSet(session), nil
		}
		return NewSortedSetWith(session, original), nil
	default:
		return nil, fmt.Errorf("%w: %s is not a collection kind", ErrUnknownKind, kind)
	}
}

// Of builds an initialized collection wrapper of kind holding items.
func Of(kind Kind, session orm.Session, items ...any) (Collection, error) {
	if kind.IsMap() {
		return nil, fmt.Errorf("%w: %s is not a collection kind", ErrUnknownKind, kind)
	}
	backing := kind.NewUnderlying()
	for _, item := range items {
		backing.Add(item)
	}
	return NewCollection(kind, session, backing)
}
