package bridge

import (
	"reattach/core/collection"
	"reattach/core/persistent"
)

// collectionsDiffer compares the rebuilt snapshot with the client content.
// Lists and sorted sets compare members pairwise by identity, bags by member counts,
// sets by containment. Client content of a sorted kind is put in snapshot order first.
func collectionsDiffer(kind persistent.Kind, original collection.Collection, items []any) bool {
	if original == nil {
		return len(items) > 0
	}
	if kind.Sorted() {
		sorted := original.Empty()
		for _, item := range items {
			sorted.Add(item)
		}
		items = sorted.Items()
	}
	if original.Len() != len(items) {
		return true
	}

	members := original.Items()
	switch {
	case kind.Ordered():
		for i, item := range members {
			if !collection.Same(item, items[i]) {
				return true
			}
		}
	case kind == persistent.KindBag:
		for _, item := range members {
			if countEqual(members, item) != countEqual(items, item) {
				return true
			}
		}
	default:
		for _, item := range members {
			if !containsEqual(items, item) {
				return true
			}
		}
	}
	return false
}

func countEqual(items []any, item any) int {
	n := 0
	for _, candidate := range items {
		if collection.Equal(candidate, item) {
			n++
		}
	}
	return n
}

func containsEqual(items []any, item any) bool {
	for _, candidate := range items {
		if collection.Equal(candidate, item) {
			return true
		}
	}
	return false
}

// mapsDiffer compares key sets and the values stored under each key.
func mapsDiffer(original, current collection.Map) bool {
	if original == nil {
		return current != nil && current.Len() > 0
	}
	if current == nil {
		return original.Len() > 0
	}
	if original.Len() != current.Len() {
		return true
	}

	keys, values := original.Keys(), original.Values()
	for i, key := range keys {
		v, ok := current.Get(key)
		if !ok || !collection.Equal(values[i], v) {
			return true
		}
	}
	return false
}
