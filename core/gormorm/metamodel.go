package gormorm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"reattach/core/introspect"
	"reattach/core/orm"
	"reattach/core/persistent"

	"gorm.io/gorm/schema"
)

var userTypeIface = reflect.TypeOf((*orm.UserType)(nil)).Elem()

// collectionKinds are the values accepted by the `collection` struct tag.
var collectionKinds = map[string]persistent.Kind{
	"bag":       persistent.KindBag,
	"list":      persistent.KindList,
	"set":       persistent.KindSet,
	"sortedset": persistent.KindSortedSet,
}

// entity is the mapping of one registered model. It serves as both the
// orm.EntityType and the orm.EntityPersister of the model.
type entity struct {
	name     string
	typ      reflect.Type
	schema   *schema.Schema
	id       identifier
	props    []orm.Type
	newProxy func(orm.LazyInitializer) any
}

func (e *entity) Name() string { return e.name }
func (e *entity) BindableType() reflect.Type { return e.typ }
func (e *entity) EntityName() string { return e.name }
func (e *entity) MappedType() reflect.Type { return e.typ }
func (e *entity) IdentifierProperty() orm.IdentifierProperty { return e.id }
func (e *entity) PropertyTypes() []orm.Type { return e.props }

func (e *entity) IdentifierGetterName() string {
	if e.id.virtual {
		return "GetID"
	}
	return introspect.GetterName(e.id.name)
}

// IdentifierOf reads the primary key of instance. Composite keys are returned
// as a slice ordered like the primary fields.
func (e *entity) IdentifierOf(ctx context.Context, instance any) (any, error) {
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot read identifier of nil %s", e.name)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != e.typ {
		return nil, fmt.Errorf("%T is not an instance of %s", instance, e.name)
	}

	if !e.id.virtual {
		v, _ := e.schema.PrioritizedPrimaryField.ValueOf(ctx, rv)
		return v, nil
	}
	values := make([]any, 0, len(e.schema.PrimaryFields))
	for _, field := range e.schema.PrimaryFields {
		v, _ := field.ValueOf(ctx, rv)
		values = append(values, v)
	}
	return values, nil
}

// columns lists the database columns the entity is mapped to.
func (e *entity) columns() []string {
	var out []string
	for _, field := range e.schema.Fields {
		if field.DBName != "" {
			out = append(out, field.DBName)
		}
	}
	return out
}

// role is the collection persister of one to-many association.
type role struct {
	name     string
	owner    *entity
	property string
	element  orm.Type
	kind     persistent.Kind
	relation *schema.Relationship
}

func (r *role) Role() string { return r.name }
func (r *role) OwnerEntityName() string { return r.owner.name }
func (r *role) PropertyName() string { return r.property }
func (r *role) ElementType() orm.Type { return r.element }

// Kind is the wrapper kind used for the association.
func (r *role) Kind() persistent.Kind { return r.kind }

// Metamodel is the orm.Metamodel built from gorm schemas of registered models.
type Metamodel struct {
	intro *introspect.Introspector
	cache sync.Map
	namer schema.Namer

	mu       sync.RWMutex
	entities map[string]*entity
	byType   map[reflect.Type]*entity
	order    []*entity
	roles    map[string]*role
}

// NewMetamodel creates an empty metamodel. Registered types are made resolvable by name through intro.
func NewMetamodel(intro *introspect.Introspector) *Metamodel {
	if intro == nil {
		intro = introspect.New()
	}
	return &Metamodel{
		intro:    intro,
		namer:    schema.NamingStrategy{},
		entities: make(map[string]*entity),
		byType:   make(map[reflect.Type]*entity),
		roles:    make(map[string]*role),
	}
}

// Introspector returns the introspector types are registered with.
func (m *Metamodel) Introspector() *introspect.Introspector { return m.intro }

// Register maps the model T. T must be a struct with a primary key.
// Association targets must be registered as well before sessions load them.
func Register[T any](m *Metamodel) error {
	sch, err := schema.Parse(new(T), &m.cache, m.namer)
	if err != nil {
		return fmt.Errorf("parsing schema of %T: %w", *new(T), err)
	}
	return m.register(sch, func(init orm.LazyInitializer) any { return orm.NewProxy[T](init) })
}

// MustRegister is Register for package initialization.
func MustRegister[T any](m *Metamodel) {
	if err := Register[T](m); err != nil {
		panic(err)
	}
}

func (m *Metamodel) register(sch *schema.Schema, newProxy func(orm.LazyInitializer) any) error {
	t := sch.ModelType
	e := &entity{name: m.intro.TypeName(t), typ: t, schema: sch, newProxy: newProxy}

	switch {
	case sch.PrioritizedPrimaryField != nil:
		e.id = identifier{name: sch.PrioritizedPrimaryField.Name}
	case len(sch.PrimaryFields) > 1:
		names := make([]string, 0, len(sch.PrimaryFields))
		for _, field := range sch.PrimaryFields {
			names = append(names, field.Name)
		}
		e.id = identifier{name: strings.Join(names, ","), virtual: true}
	default:
		return fmt.Errorf("entity %s has no primary key", e.name)
	}

	var roles []*role
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("gorm") == "-" {
			continue
		}
		pt, err := m.propertyType(sch, sf)
		if err != nil {
			return fmt.Errorf("mapping %s.%s: %w", e.name, sf.Name, err)
		}
		e.props = append(e.props, pt)
		if pt.Kind() != orm.KindCollection {
			continue
		}
		kind, err := roleKind(sch.Relationships.Relations[sf.Name], sf)
		if err != nil {
			return fmt.Errorf("mapping %s.%s: %w", e.name, sf.Name, err)
		}
		roles = append(roles, &role{
			name:     e.name + "." + sf.Name,
			owner:    e,
			property: sf.Name,
			element:  pt.ElementType(),
			kind:     kind,
			relation: sch.Relationships.Relations[sf.Name],
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entities[e.name]; exists {
		return fmt.Errorf("entity %s is already registered", e.name)
	}
	m.entities[e.name] = e
	m.byType[t] = e
	m.order = append(m.order, e)
	for _, r := range roles {
		m.roles[r.name] = r
	}
	m.intro.RegisterType(t)
	return nil
}

func (m *Metamodel) propertyType(sch *schema.Schema, sf reflect.StructField) (orm.Type, error) {
	if rel, ok := sch.Relationships.Relations[sf.Name]; ok {
		target := &propertyType{
			name:     m.intro.TypeName(rel.FieldSchema.ModelType),
			kind:     orm.KindEntity,
			returned: rel.FieldSchema.ModelType,
		}
		switch rel.Type {
		case schema.HasMany, schema.Many2Many:
			return &propertyType{name: sf.Type.String(), kind: orm.KindCollection, returned: sf.Type, element: target}, nil
		default:
			return target, nil
		}
	}
	return m.valueType(sf, 0)
}

// valueType maps a non-association field: user types, embedded components and basic columns.
func (m *Metamodel) valueType(sf reflect.StructField, depth int) (orm.Type, error) {
	ft := sf.Type
	for ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	if ft.Implements(userTypeIface) || reflect.PointerTo(ft).Implements(userTypeIface) {
		return &propertyType{name: m.intro.TypeName(ft), kind: orm.KindUser, returned: ft}, nil
	}
	if ft.Kind() != reflect.Struct || !(sf.Anonymous || hasTagSetting(sf, "EMBEDDED")) {
		return &propertyType{name: ft.String(), kind: orm.KindBasic, returned: ft}, nil
	}
	if depth > 8 {
		return nil, fmt.Errorf("component %s nests too deeply", ft)
	}

	component := &propertyType{name: m.intro.TypeName(ft), kind: orm.KindComponent, returned: ft}
	for i := 0; i < ft.NumField(); i++ {
		inner := ft.Field(i)
		if !inner.IsExported() || inner.Tag.Get("gorm") == "-" {
			continue
		}
		sub, err := m.valueType(inner, depth+1)
		if err != nil {
			return nil, err
		}
		component.subtypes = append(component.subtypes, sub)
	}
	m.intro.RegisterType(ft)
	return component, nil
}

func roleKind(rel *schema.Relationship, sf reflect.StructField) (persistent.Kind, error) {
	if tag, ok := sf.Tag.Lookup("collection"); ok {
		kind, known := collectionKinds[strings.ToLower(tag)]
		if !known {
			return 0, fmt.Errorf("unknown collection kind %q", tag)
		}
		return kind, nil
	}
	if rel != nil && rel.Type == schema.Many2Many {
		return persistent.KindSet, nil
	}
	return persistent.KindBag, nil
}

func hasTagSetting(sf reflect.StructField, name string) bool {
	_, ok := schema.ParseTagSetting(sf.Tag.Get("gorm"), ";")[name]
	return ok
}

// EntityPersister returns the mapping registered under name.
func (m *Metamodel) EntityPersister(name string) (orm.EntityPersister, bool) {
	e, ok := m.entity(name)
	if !ok {
		return nil, false
	}
	return e, true
}

// CollectionPersister returns the association registered under role.
func (m *Metamodel) CollectionPersister(name string) (orm.CollectionPersister, bool) {
	r, ok := m.role(name)
	if !ok {
		return nil, false
	}
	return r, true
}

// ManagedType returns the entity mapped to t. Pointers and proxies are unwrapped.
func (m *Metamodel) ManagedType(t reflect.Type) (orm.EntityType, bool) {
	e, ok := m.entityOf(t)
	if !ok {
		return nil, false
	}
	return e, true
}

// Entities lists the registered entities in registration order.
func (m *Metamodel) Entities() []orm.EntityType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]orm.EntityType, 0, len(m.order))
	for _, e := range m.order {
		out = append(out, e)
	}
	return out
}

func (m *Metamodel) entity(name string) (*entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[name]
	return e, ok
}

func (m *Metamodel) entityOf(t reflect.Type) (*entity, bool) {
	t = m.intro.Unenhance(t)
	if t == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byType[t]
	return e, ok
}

func (m *Metamodel) role(name string) (*role, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[name]
	return r, ok
}
