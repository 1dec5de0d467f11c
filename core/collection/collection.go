package collection

import (
	"fmt"
	"reflect"
	"sort"
)

// Collection is a plain, non-persistent collection of items.
type Collection interface {
	// Len returns the number of items.
	Len() int
	// Items returns a copy of the items in iteration order.
	Items() []any
	// Add appends an item. It reports whether the collection changed.
	Add(item any) bool
	// Remove deletes the first equal item. It reports whether the collection changed.
	Remove(item any) bool
	// Contains reports whether an equal item is present.
	Contains(item any) bool
	// Clear removes every item.
	Clear()
	// Empty returns a new, empty collection of the same kind (and ordering).
	Empty() Collection
}

// Class names understood by New.
const (
	BagName       = "collection.Bag"
	ListName      = "collection.List"
	SetName       = "collection.Set"
	SortedSetName = "collection.SortedSet"
)

// New instantiates an empty collection from its class name.
func New(name string) (Collection, error) {
	switch name {
	case BagName:
		return NewBag(), nil
	case ListName:
		return NewList(), nil
	case SetName:
		return NewSet(), nil
	case SortedSetName:
		return NewSortedSet(Natural), nil
	default:
		return nil, fmt.Errorf("unknown collection class %q", name)
	}
}

// TypeName returns the class name of a collection or map value.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// sequence backs Bag and List.
type sequence struct {
	items []any
}

func (s *sequence) Len() int { return len(s.items) }

func (s *sequence) Items() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

func (s *sequence) Add(item any) bool {
	s.items = append(s.items, item)
	return true
}

func (s *sequence) Remove(item any) bool {
	for i, existing := range s.items {
		if Equal(existing, item) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *sequence) Contains(item any) bool {
	for _, existing := range s.items {
		if Equal(existing, item) {
			return true
		}
	}
	return false
}

func (s *sequence) Clear() { s.items = nil }

// Bag is an unordered collection that allows duplicates.
// Iteration order is insertion order but carries no meaning.
type Bag struct{ sequence }

// NewBag creates a bag holding items.
func NewBag(items ...any) *Bag {
	b := &Bag{}
	b.items = append(b.items, items...)
	return b
}

func (b *Bag) Empty() Collection { return NewBag() }

// List is an ordered collection that allows duplicates.
type List struct{ sequence }

// NewList creates a list holding items.
func NewList(items ...any) *List {
	l := &List{}
	l.items = append(l.items, items...)
	return l
}

func (l *List) Empty() Collection { return NewList() }

// Get returns the item at index i.
func (l *List) Get(i int) any { return l.items[i] }

// Set is a collection without duplicates. Iteration follows insertion order.
type Set struct {
	items []any
}

// NewSet creates a set holding items, skipping duplicates.
func NewSet(items ...any) *Set {
	s := &Set{}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *Set) Len() int { return len(s.items) }

func (s *Set) Items() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Add(item any) bool {
	if s.Contains(item) {
		return false
	}
	s.items = append(s.items, item)
	return true
}

func (s *Set) Remove(item any) bool {
	for i, existing := range s.items {
		if Equal(existing, item) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Contains(item any) bool {
	for _, existing := range s.items {
		if Equal(existing, item) {
			return true
		}
	}
	return false
}

func (s *Set) Clear() { s.items = nil }

func (s *Set) Empty() Collection { return NewSet() }

// SortedSet is a set kept in the order defined by its comparator.
type SortedSet struct {
	less  Less
	items []any
}

// NewSortedSet creates a sorted set ordered by less. A nil less means Natural.
func NewSortedSet(less Less, items ...any) *SortedSet {
	if less == nil {
		less = Natural
	}
	s := &SortedSet{less: less}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Comparator returns the ordering of the set.
func (s *SortedSet) Comparator() Less { return s.less }

func (s *SortedSet) Len() int { return len(s.items) }

func (s *SortedSet) Items() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

func (s *SortedSet) search(item any) (int, bool) {
	i := sort.Search(len(s.items), func(i int) bool { return !s.less(s.items[i], item) })
	found := i < len(s.items) && !s.less(item, s.items[i])
	return i, found
}

func (s *SortedSet) Add(item any) bool {
	i, found := s.search(item)
	if found {
		return false
	}
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
	return true
}

func (s *SortedSet) Remove(item any) bool {
	i, found := s.search(item)
	if !found {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *SortedSet) Contains(item any) bool {
	_, found := s.search(item)
	return found
}

func (s *SortedSet) Clear() { s.items = nil }

func (s *SortedSet) Empty() Collection { return NewSortedSet(s.less) }

// ItemsOf flattens a collection, map values, slice or array into items.
// Struct elements of slices are addressed so that repeated calls yield identical pointers.
func ItemsOf(v any) []any {
	switch c := v.(type) {
	case nil:
		return nil
	case Collection:
		return c.Items()
	case Map:
		return c.Values()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && (rv.Elem().Kind() == reflect.Slice || rv.Elem().Kind() == reflect.Array) {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Struct && elem.CanAddr() {
				out = append(out, elem.Addr().Interface())
				continue
			}
			out = append(out, elem.Interface())
		}
		return out
	default:
		return []any{v}
	}
}
