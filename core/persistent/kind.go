package persistent

import (
	"errors"
	"fmt"

	"reattach/core/collection"
)

// ErrUnknownKind is returned when a class name does not name a wrapper kind.
var ErrUnknownKind = errors.New("unknown wrapper kind")

// Kind tags the six wrapper types.
type Kind int

const (
	KindBag Kind = iota + 1
	KindList
	KindSet
	KindSortedSet
	KindHashMap
	KindSortedMap
)

var classNames = map[Kind]string{
	KindBag:       "persistent.Bag",
	KindList:      "persistent.List",
	KindSet:       "persistent.Set",
	KindSortedSet: "persistent.SortedSet",
	KindHashMap:   "persistent.HashMap",
	KindSortedMap: "persistent.SortedMap",
}

// ParseKind maps a wrapper class name to its kind.
func ParseKind(className string) (Kind, error) {
	for k, name := range classNames {
		if name == className {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, className)
}

// ClassName returns the wrapper class name written into descriptors.
func (k Kind) ClassName() string {
	return classNames[k]
}

func (k Kind) String() string {
	if name, ok := classNames[k]; ok {
		return name
	}
	return fmt.Sprintf("persistent.Kind(%d)", int(k))
}

// IsMap reports whether the kind wraps a map.
func (k Kind) IsMap() bool {
	return k == KindHashMap || k == KindSortedMap
}

// Ordered reports whether member order is significant for the kind.
func (k Kind) Ordered() bool {
	return k == KindList || k == KindSortedSet
}

// Sorted reports whether the kind keeps its members in comparator order.
func (k Kind) Sorted() bool {
	return k == KindSortedSet || k == KindSortedMap
}

// NewUnderlying returns an empty instance of the default plain collection behind a collection kind.
func (k Kind) NewUnderlying() collection.Collection {
	switch k {
	case KindList:
		return collection.NewList()
	case KindSet:
		return collection.NewSet()
	case KindSortedSet:
		return collection.NewSortedSet(collection.Natural)
	default:
		return collection.NewBag()
	}
}

// NewUnderlyingMap returns an empty instance of the default plain map behind a map kind.
func (k Kind) NewUnderlyingMap() collection.Map {
	if k == KindSortedMap {
		return collection.NewSortedMap(collection.Natural)
	}
	return collection.NewHashMap()
}
