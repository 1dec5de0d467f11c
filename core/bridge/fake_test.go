package bridge

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"reattach/core/introspect"
	"reattach/core/orm"
)

type address struct {
	Street string
	City   string
}

type money struct {
	Cents int64
}

func (money) UserType() {}

type tag struct {
	ID    int64
	Label string
}

type order struct {
	ID    int64
	Total money
}

type customer struct {
	ID      int64
	Name    string
	Address address
	Orders  []*order
	Tags    []*tag
	Prices  []money
}

type coupon struct {
	Code string
}

type customerDTO struct {
	id   int64
	Name string
}

func (d customerDTO) GetID() int64 { return d.id }

type status int

const (
	statusActive status = iota + 1
	statusClosed
)

func (s status) String() string {
	switch s {
	case statusActive:
		return "ACTIVE"
	case statusClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type unrelated struct {
	Note string
}

var (
	customerType = reflect.TypeOf(customer{})
	orderType    = reflect.TypeOf(order{})
	tagType      = reflect.TypeOf(tag{})
	couponType   = reflect.TypeOf(coupon{})
	addressType  = reflect.TypeOf(address{})
	moneyType    = reflect.TypeOf(money{})
)

type fakeType struct {
	kind orm.TypeKind
	rt   reflect.Type
	subs []orm.Type
	elem orm.Type
}

func (t *fakeType) Name() string { return t.rt.String() }
func (t *fakeType) Kind() orm.TypeKind { return t.kind }
func (t *fakeType) ReturnedType() reflect.Type { return t.rt }
func (t *fakeType) Subtypes() []orm.Type { return t.subs }
func (t *fakeType) ElementType() orm.Type { return t.elem }

type fakeID struct {
	name    string
	virtual bool
}

func (p fakeID) Name() string { return p.name }
func (p fakeID) IsVirtual() bool { return p.virtual }

type fakeEntity struct {
	t      reflect.Type
	id     fakeID
	getter string
	props  []orm.Type
}

func (e *fakeEntity) Name() string { return e.t.String() }
func (e *fakeEntity) BindableType() reflect.Type { return e.t }
func (e *fakeEntity) EntityName() string { return e.t.String() }
func (e *fakeEntity) MappedType() reflect.Type { return e.t }
func (e *fakeEntity) IdentifierProperty() orm.IdentifierProperty { return e.id }
func (e *fakeEntity) IdentifierGetterName() string { return e.getter }
func (e *fakeEntity) PropertyTypes() []orm.Type { return e.props }

func (e *fakeEntity) IdentifierOf(ctx context.Context, instance any) (any, error) {
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Type() != e.t {
		return nil, fmt.Errorf("%T is not a %s", instance, e.t)
	}
	return rv.FieldByName(e.id.name).Interface(), nil
}

type fakeRole struct {
	role     string
	owner    string
	property string
	elem     orm.Type
}

func (r *fakeRole) Role() string { return r.role }
func (r *fakeRole) OwnerEntityName() string { return r.owner }
func (r *fakeRole) PropertyName() string { return r.property }
func (r *fakeRole) ElementType() orm.Type { return r.elem }

type fakeMeta struct {
	entities []*fakeEntity
	roles    map[string]*fakeRole
}

func (m *fakeMeta) EntityPersister(name string) (orm.EntityPersister, bool) {
	for _, e := range m.entities {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

func (m *fakeMeta) CollectionPersister(role string) (orm.CollectionPersister, bool) {
	r, ok := m.roles[role]
	return r, ok
}

func (m *fakeMeta) ManagedType(t reflect.Type) (orm.EntityType, bool) {
	for _, e := range m.entities {
		if e.t == t {
			return e, true
		}
	}
	return nil, false
}

func (m *fakeMeta) Entities() []orm.EntityType {
	out := make([]orm.EntityType, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out
}

func newFakeMeta() *fakeMeta {
	moneyT := &fakeType{kind: orm.KindUser, rt: moneyType}
	tagT := &fakeType{kind: orm.KindEntity, rt: tagType}
	orderT := &fakeType{kind: orm.KindEntity, rt: orderType}
	meta := &fakeMeta{
		entities: []*fakeEntity{
			{
				t:      customerType,
				id:     fakeID{name: "ID"},
				getter: "GetID",
				props: []orm.Type{
					&fakeType{kind: orm.KindBasic, rt: reflect.TypeOf("")},
					&fakeType{kind: orm.KindComponent, rt: addressType, subs: []orm.Type{
						&fakeType{kind: orm.KindBasic, rt: reflect.TypeOf("")},
					}},
					&fakeType{kind: orm.KindCollection, rt: reflect.TypeOf([]*order{}), elem: orderT},
					&fakeType{kind: orm.KindCollection, rt: reflect.TypeOf([]*tag{}), elem: tagT},
					&fakeType{kind: orm.KindCollection, rt: reflect.TypeOf([]money{}), elem: moneyT},
				},
			},
			{t: orderType, id: fakeID{name: "ID"}, getter: "GetID", props: []orm.Type{moneyT}},
			{t: tagType, id: fakeID{name: "ID"}, getter: "GetID"},
			{t: couponType, id: fakeID{name: "Code", virtual: true}, getter: "GetCode"},
		},
		roles: map[string]*fakeRole{},
	}
	for _, property := range []string{"Orders", "Tags", "Prices", "Labels", "Ratings"} {
		role := customerType.String() + "." + property
		meta.roles[role] = &fakeRole{role: role, owner: customerType.String(), property: property}
	}
	return meta
}

// fakeStore holds the rows of the fake database, keyed by entity name and id.
type fakeStore struct {
	mu   sync.Mutex
	rows map[string]map[string]any
}

func (s *fakeStore) put(entity any, id any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := reflect.TypeOf(entity).Elem().String()
	if s.rows[name] == nil {
		s.rows[name] = map[string]any{}
	}
	s.rows[name][fmt.Sprint(id)] = entity
}

func (s *fakeStore) get(name string, id any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[name][fmt.Sprint(id)]
	return row, ok
}

func (s *fakeStore) remove(name string, id any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows[name], fmt.Sprint(id))
}

type fakeFactory struct {
	meta  *fakeMeta
	store *fakeStore

	mu     sync.Mutex
	opened int
	closed int
	last   *fakeSession
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{meta: newFakeMeta(), store: &fakeStore{rows: map[string]map[string]any{}}}
}

func (f *fakeFactory) Metamodel() orm.Metamodel { return f.meta }

func (f *fakeFactory) OpenSession(ctx context.Context) (orm.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	f.last = &fakeSession{factory: f, connected: true}
	return f.last, nil
}

type fakeSession struct {
	factory   *fakeFactory
	connected bool
	flushed   int
	queries   []string
	params    []any
}

type lazy struct {
	name   string
	id     any
	t      reflect.Type
	store  *fakeStore
	target any
}

func (l *lazy) EntityName() string { return l.name }
func (l *lazy) Identifier() any { return l.id }
func (l *lazy) PersistentType() reflect.Type { return l.t }
func (l *lazy) IsUninitialized() bool { return l.target == nil }

func (l *lazy) Initialize(ctx context.Context) error {
	row, ok := l.store.get(l.name, l.id)
	if !ok {
		return orm.ErrObjectNotFound
	}
	l.target = row
	return nil
}

func (l *lazy) Implementation(ctx context.Context) (any, error) {
	if l.target == nil {
		if err := l.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	return l.target, nil
}

func (s *fakeSession) Load(ctx context.Context, entityName string, id any) (any, error) {
	if _, ok := s.factory.store.get(entityName, id); !ok {
		return nil, fmt.Errorf("%s#%v: %w", entityName, id, orm.ErrObjectNotFound)
	}
	init := &lazy{name: entityName, id: id, store: s.factory.store}
	switch entityName {
	case customerType.String():
		init.t = customerType
		return orm.NewProxy[customer](init), nil
	case orderType.String():
		init.t = orderType
		return orm.NewProxy[order](init), nil
	case tagType.String():
		init.t = tagType
		return orm.NewProxy[tag](init), nil
	}
	return nil, fmt.Errorf("%w: %s", orm.ErrUnknownEntity, entityName)
}

func (s *fakeSession) Get(ctx context.Context, t reflect.Type, id any) (any, error) {
	row, ok := s.factory.store.get(t.String(), id)
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (s *fakeSession) LoadAssociation(ctx context.Context, entityName string, id any, property string) (any, error) {
	row, ok := s.factory.store.get(entityName, id)
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (s *fakeSession) LoadCollection(ctx context.Context, role string, key any) ([]any, error) {
	return nil, nil
}

func (s *fakeSession) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	s.queries = append(s.queries, query)
	s.params = append(s.params, args...)
	return []map[string]any{{"count": int64(len(args))}}, nil
}

func (s *fakeSession) NamedQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	s.queries = append(s.queries, query)
	s.params = append(s.params, params)
	return []map[string]any{{"count": int64(len(params))}}, nil
}

func (s *fakeSession) Save(entity any) {}
func (s *fakeSession) Attach(wrapper any) {}

func (s *fakeSession) Flush(ctx context.Context) error {
	s.flushed++
	return nil
}

func (s *fakeSession) IsConnected() bool { return s.connected }

func (s *fakeSession) Close() error {
	s.connected = false
	s.factory.mu.Lock()
	s.factory.closed++
	s.factory.mu.Unlock()
	return nil
}

func (s *fakeSession) BestGuessEntityName(instance any) string {
	return reflect.TypeOf(instance).Elem().String()
}

// fixture is a bridge over a fake database holding customer 42 with tags 1, 2 and 3.
type fixture struct {
	bridge  *Bridge
	factory *fakeFactory
	tags    []*tag
	owner   *customer
}

func newFixture() *fixture {
	factory := newFakeFactory()
	intro := introspect.New()
	_ = intro.RegisterEnum(statusActive, statusClosed)

	f := &fixture{
		bridge:  New(factory, intro, DefaultConfig(), nil),
		factory: factory,
	}
	for i := int64(1); i <= 3; i++ {
		t := &tag{ID: i, Label: fmt.Sprintf("tag-%d", i)}
		factory.store.put(t, i)
		f.tags = append(f.tags, t)
	}
	f.owner = &customer{ID: 42, Name: "Ada", Tags: []*tag{f.tags[0], f.tags[1]}}
	factory.store.put(f.owner, int64(42))
	return f
}

func (f *fixture) role(property string) string {
	return customerType.String() + "." + property
}
