package collection

import (
	"fmt"
	"sort"
)

// Map is a plain, non-persistent map.
type Map interface {
	// Len returns the number of entries.
	Len() int
	// Keys returns the keys in iteration order.
	Keys() []any
	// Values returns the values, positionally paired with Keys.
	Values() []any
	// Get returns the value stored under an equal key.
	Get(key any) (any, bool)
	// Put stores value under key, replacing an equal key.
	Put(key, value any)
	// Remove deletes the entry stored under an equal key.
	Remove(key any) bool
	// ContainsKey reports whether an equal key is present.
	ContainsKey(key any) bool
	// Clear removes every entry.
	Clear()
	// Empty returns a new, empty map of the same kind (and ordering).
	Empty() Map
}

// Class names understood by NewMap.
const (
	HashMapName   = "collection.HashMap"
	SortedMapName = "collection.SortedMap"
)

// NewMap instantiates an empty map from its class name.
func NewMap(name string) (Map, error) {
	switch name {
	case HashMapName:
		return NewHashMap(), nil
	case SortedMapName:
		return NewSortedMap(Natural), nil
	default:
		return nil, fmt.Errorf("unknown map class %q", name)
	}
}

type entry struct {
	key   any
	value any
}

// HashMap keeps entries in insertion order.
type HashMap struct {
	entries []entry
}

// NewHashMap creates an empty map.
func NewHashMap() *HashMap { return &HashMap{} }

func (m *HashMap) index(key any) int {
	for i, e := range m.entries {
		if Equal(e.key, key) {
			return i
		}
	}
	return -1
}

func (m *HashMap) Len() int { return len(m.entries) }

func (m *HashMap) Keys() []any {
	out := make([]any, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}

func (m *HashMap) Values() []any {
	out := make([]any, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.value
	}
	return out
}

func (m *HashMap) Get(key any) (any, bool) {
	if i := m.index(key); i >= 0 {
		return m.entries[i].value, true
	}
	return nil, false
}

func (m *HashMap) Put(key, value any) {
	if i := m.index(key); i >= 0 {
		m.entries[i].value = value
		return
	}
	m.entries = append(m.entries, entry{key: key, value: value})
}

func (m *HashMap) Remove(key any) bool {
	i := m.index(key)
	if i < 0 {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return true
}

func (m *HashMap) ContainsKey(key any) bool { return m.index(key) >= 0 }

func (m *HashMap) Clear() { m.entries = nil }

func (m *HashMap) Empty() Map { return NewHashMap() }

// SortedMap keeps entries ordered by key.
type SortedMap struct {
	less    Less
	entries []entry
}

// NewSortedMap creates an empty map ordered by less. A nil less means Natural.
func NewSortedMap(less Less) *SortedMap {
	if less == nil {
		less = Natural
	}
	return &SortedMap{less: less}
}

// Comparator returns the key ordering.
func (m *SortedMap) Comparator() Less { return m.less }

func (m *SortedMap) search(key any) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return !m.less(m.entries[i].key, key) })
	return i, i < len(m.entries) && !m.less(key, m.entries[i].key)
}

func (m *SortedMap) Len() int { return len(m.entries) }

func (m *SortedMap) Keys() []any {
	out := make([]any, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}

func (m *SortedMap) Values() []any {
	out := make([]any, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.value
	}
	return out
}

func (m *SortedMap) Get(key any) (any, bool) {
	if i, ok := m.search(key); ok {
		return m.entries[i].value, true
	}
	return nil, false
}

func (m *SortedMap) Put(key, value any) {
	i, ok := m.search(key)
	if ok {
		m.entries[i].value = value
		return
	}
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry{key: key, value: value}
}

func (m *SortedMap) Remove(key any) bool {
	i, ok := m.search(key)
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return true
}

func (m *SortedMap) ContainsKey(key any) bool {
	_, ok := m.search(key)
	return ok
}

func (m *SortedMap) Clear() { m.entries = nil }

func (m *SortedMap) Empty() Map { return NewSortedMap(m.less) }
