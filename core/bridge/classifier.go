package bridge

import (
	"fmt"
	"reflect"
	"sync"

	"reattach/core/introspect"
	"reattach/core/metrics"
	"reattach/core/orm"

	"go.uber.org/zap"
)

// ClassKind is the result of classifying a type.
type ClassKind int

const (
	ClassTransient ClassKind = iota
	ClassEntity
	ClassComponent
	ClassUserType
	ClassCollection
)

func (k ClassKind) String() string {
	switch k {
	case ClassEntity:
		return "entity"
	case ClassComponent:
		return "component"
	case ClassUserType:
		return "user-type"
	case ClassCollection:
		return "collection"
	default:
		return "transient"
	}
}

// Classification describes how the ORM sees a type.
type Classification struct {
	Kind ClassKind
	// Element is the member type of a collection of persistent values.
	Element reflect.Type
}

func (c Classification) String() string {
	if c.Kind == ClassCollection && c.Element != nil {
		return fmt.Sprintf("collection-of(%s)", c.Element)
	}
	return c.Kind.String()
}

var userTypeIface = reflect.TypeOf((*orm.UserType)(nil)).Elem()

// Classifier decides whether a type is persistent and remembers the answer.
// Decisions are monotonic: a type keeps its first classification forever.
type Classifier struct {
	meta    orm.Metamodel
	intro   *introspect.Introspector
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	persistence map[reflect.Type]bool

	warm sync.Once
}

// NewClassifier creates a classifier over meta. Scalar kinds start out non-persistent.
func NewClassifier(meta orm.Metamodel, intro *introspect.Introspector, logger *zap.Logger, m *metrics.Metrics) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		meta:        meta,
		intro:       intro,
		logger:      logger,
		metrics:     m,
		persistence: make(map[reflect.Type]bool),
	}
	for _, v := range []any{
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0), false, "",
	} {
		c.persistence[reflect.TypeOf(v)] = false
	}
	return c
}

// IsPersistentClass reports whether t is an entity, a component or a user type.
func (c *Classifier) IsPersistentClass(t reflect.Type) (bool, error) {
	c.warmUp()
	return c.isPersistent(t)
}

func (c *Classifier) isPersistent(t reflect.Type) (bool, error) {
	t = c.intro.Unenhance(t)
	if t == nil {
		return false, nil
	}
	if persistent, ok := c.lookup(t); ok {
		return persistent, nil
	}
	if err := c.computeClass(t); err != nil {
		return false, err
	}
	persistent, _ := c.lookup(t)
	return persistent, nil
}

// Classify returns the detailed classification of t.
func (c *Classifier) Classify(t reflect.Type) (Classification, error) {
	t = c.intro.Unenhance(t)
	if t == nil {
		return Classification{Kind: ClassTransient}, nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		elem := c.intro.Unenhance(t.Elem())
		persistent, err := c.IsPersistentClass(elem)
		if err != nil {
			return Classification{}, err
		}
		if persistent {
			return Classification{Kind: ClassCollection, Element: elem}, nil
		}
		return Classification{Kind: ClassTransient}, nil
	}

	persistent, err := c.IsPersistentClass(t)
	if err != nil || !persistent {
		return Classification{Kind: ClassTransient}, err
	}
	if len(c.entityNames(t)) > 0 {
		return Classification{Kind: ClassEntity}, nil
	}
	if isUserType(t) {
		return Classification{Kind: ClassUserType}, nil
	}
	return Classification{Kind: ClassComponent}, nil
}

// warmUp classifies every mapped entity once, so component types are known as
// persistent before anyone asks about them directly.
func (c *Classifier) warmUp() {
	c.warm.Do(func() {
		for _, et := range c.meta.Entities() {
			t := c.intro.Unenhance(et.BindableType())
			if t == nil || t.Kind() == reflect.Interface {
				continue
			}
			if err := c.computeClass(t); err != nil {
				c.logger.Error("Failed to classify entity", zap.String("entity", et.Name()), zap.Error(err))
			}
		}
	})
}

func (c *Classifier) lookup(t reflect.Type) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	persistent, ok := c.persistence[t]
	return persistent, ok
}

// entityNames lists the entity names bound to t.
func (c *Classifier) entityNames(t reflect.Type) []string {
	var names []string
	for _, et := range c.meta.Entities() {
		if c.intro.Unenhance(et.BindableType()) == t {
			names = append(names, et.Name())
		}
	}
	if len(names) == 0 {
		if et, ok := c.meta.ManagedType(t); ok {
			names = append(names, et.Name())
		}
	}
	return names
}

func (c *Classifier) computeClass(t reflect.Type) error {
	if t == nil {
		return nil
	}
	if _, ok := c.lookup(t); ok {
		return nil
	}

	names := c.entityNames(t)
	if len(names) == 0 {
		for _, iface := range c.interfacesOf(t) {
			persistent, err := c.isPersistent(iface)
			if err != nil {
				return err
			}
			if persistent {
				return c.mark(t, true)
			}
		}
		return c.mark(t, false)
	}

	if err := c.mark(t, true); err != nil {
		return err
	}
	for _, name := range names {
		persister, ok := c.meta.EntityPersister(name)
		if !ok {
			continue
		}
		for _, pt := range persister.PropertyTypes() {
			c.logger.Debug("Scanning property type", zap.String("type", pt.Name()), zap.Stringer("owner", t))
			if err := c.computeType(pt); err != nil {
				return err
			}
		}
	}
	return nil
}

// interfacesOf returns the interfaces implemented by t that may be persistent:
// interfaces mapped as entities and interfaces already classified persistent.
func (c *Classifier) interfacesOf(t reflect.Type) []reflect.Type {
	if t.Kind() == reflect.Interface {
		return nil
	}
	ptr := reflect.PointerTo(t)
	implements := func(iface reflect.Type) bool {
		return iface != nil && iface.Kind() == reflect.Interface && (t.Implements(iface) || ptr.Implements(iface))
	}

	var out []reflect.Type
	for _, et := range c.meta.Entities() {
		if iface := et.BindableType(); implements(iface) {
			out = append(out, iface)
		}
	}
	c.mu.RLock()
	for known, persistent := range c.persistence {
		if persistent && implements(known) {
			out = append(out, known)
		}
	}
	c.mu.RUnlock()
	return out
}

func (c *Classifier) computeType(pt orm.Type) error {
	if pt == nil {
		return nil
	}
	rt := c.intro.Unenhance(pt.ReturnedType())
	if rt != nil {
		if _, ok := c.lookup(rt); ok {
			return nil
		}
	}

	switch {
	case pt.Kind() == orm.KindComponent:
		c.logger.Debug("Type is component type", zap.String("type", pt.Name()))
		if err := c.mark(rt, true); err != nil {
			return err
		}
		for _, sub := range pt.Subtypes() {
			if err := c.computeType(sub); err != nil {
				return err
			}
		}
	case pt.Kind() == orm.KindUser || (rt != nil && isUserType(rt)):
		c.logger.Debug("Type is user type", zap.String("type", pt.Name()))
		return c.mark(rt, true)
	case pt.Kind() == orm.KindCollection:
		c.logger.Debug("Type is collection type", zap.String("type", pt.Name()))
		return c.computeType(pt.ElementType())
	case pt.Kind() == orm.KindEntity:
		c.logger.Debug("Type is entity type", zap.String("type", pt.Name()))
		return c.computeClass(rt)
	}
	return nil
}

// mark commits a decision. The last check happens under the write lock.
func (c *Classifier) mark(t reflect.Type, persistent bool) error {
	if t == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.persistence[t]; ok {
		if existing != persistent {
			return fmt.Errorf("%w: %s", ErrInconsistentClassification, t)
		}
		return nil
	}
	c.persistence[t] = persistent

	c.logger.Debug("Marking type", zap.Stringer("type", t), zap.Bool("persistent", persistent))
	if persistent {
		c.metrics.Classified("persistent")
	} else {
		c.metrics.Classified("transient")
	}
	return nil
}

func isUserType(t reflect.Type) bool {
	return t.Implements(userTypeIface) || (t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(userTypeIface))
}
