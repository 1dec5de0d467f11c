package gormorm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"reattach/core/collection"
	"reattach/core/introspect"
	"reattach/core/orm"
	"reattach/core/persistent"
	"reattach/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// Session is a unit of work over a *gorm.DB. Instances loaded through it are kept
// in an identity map, so the same row always yields the same pointer until Close.
// Concurrent loads of one row share a single query.
type Session struct {
	db     *gorm.DB
	meta   *Metamodel
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.Mutex
	closed   bool
	identity map[string]any
	proxies  map[string]any
	pending  []any
	attached []persistent.Wrapper
}

func newSession(db *gorm.DB, meta *Metamodel, logger *zap.Logger) *Session {
	return &Session{
		db:       db,
		meta:     meta,
		logger:   logger,
		identity: make(map[string]any),
		proxies:  make(map[string]any),
	}
}

// FromSession returns the gorm session behind an orm.Session.
func FromSession(session orm.Session) (*Session, bool) {
	s, ok := session.(*Session)
	return s, ok
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return orm.ErrSessionClosed
	}
	return nil
}

// Load returns a lazy proxy for the row, or the instance itself when the session already holds it.
func (s *Session) Load(ctx context.Context, entityName string, id any) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	e, ok := s.meta.entity(entityName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orm.ErrUnknownEntity, entityName)
	}
	where, key, err := s.condition(e, id)
	if err != nil {
		return nil, err
	}
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	s.mu.Lock()
	p, ok := s.proxies[key]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(reflect.New(e.typ).Interface()).Where(where).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking %s: %w", key, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", orm.ErrObjectNotFound, key)
	}

	proxyID := id
	if !e.id.virtual {
		proxyID = where[e.schema.PrioritizedPrimaryField.DBName]
	}
	p = e.newProxy(&lazy{session: s, entity: e, id: proxyID})
	s.mu.Lock()
	if existing, ok := s.proxies[key]; ok {
		p = existing
	} else {
		s.proxies[key] = p
	}
	s.mu.Unlock()
	return p, nil
}

// Get returns the instance of t stored under id, or nil when no row matches.
func (s *Session) Get(ctx context.Context, t reflect.Type, id any) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	e, ok := s.meta.entityOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orm.ErrUnknownEntity, t)
	}
	where, key, err := s.condition(e, id)
	if err != nil {
		return nil, err
	}
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		out := reflect.New(e.typ).Interface()
		err := s.db.WithContext(ctx).Where(where).Take(out).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		return s.remember(key, out), nil
	})
	return v, err
}

// LoadAssociation returns a fresh instance with property preloaded, or nil when no row matches.
func (s *Session) LoadAssociation(ctx context.Context, entityName string, id any, property string) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	e, ok := s.meta.entity(entityName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orm.ErrUnknownEntity, entityName)
	}
	rel, ok := relation(e, property)
	if !ok {
		return nil, fmt.Errorf("entity %s has no association %s", e.name, property)
	}
	where, key, err := s.condition(e, id)
	if err != nil {
		return nil, err
	}

	out := reflect.New(e.typ).Interface()
	err = s.db.WithContext(ctx).Preload(rel.Name).Where(where).Take(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s with %s: %w", key, rel.Name, err)
	}
	return out, nil
}

// LoadCollection returns the members of the association role of the owner stored under key.
func (s *Session) LoadCollection(ctx context.Context, roleName string, key any) ([]any, error) {
	r, ok := s.meta.role(roleName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orm.ErrUnknownRole, roleName)
	}
	owner, err := s.LoadAssociation(ctx, r.owner.name, key, r.property)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: owner of %s", orm.ErrObjectNotFound, roleName)
	}
	field, err := fieldValue(owner, r.property)
	if err != nil {
		return nil, err
	}

	items := collection.ItemsOf(field.Interface())
	target, ok := s.meta.entityOf(r.relation.FieldSchema.ModelType)
	if !ok {
		return items, nil
	}
	for i, item := range items {
		id, err := target.IdentifierOf(ctx, item)
		if err != nil {
			continue
		}
		if _, memberKey, err := s.condition(target, id); err == nil {
			items[i] = s.remember(memberKey, item)
		}
	}
	return items, nil
}

// Query runs a raw query with positional parameters.
func (s *Session) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	return rows, nil
}

// NamedQuery runs a raw query whose parameters are written @name.
func (s *Session) NamedQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Raw(query, params).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	return rows, nil
}

// Save queues entity for the next Flush. Associations are written through attached wrappers only.
func (s *Session) Save(entity any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, entity)
}

// Attach queues a wrapper; Flush replaces the association when the wrapper is dirty.
func (s *Session) Attach(wrapper any) {
	w, ok := wrapper.(persistent.Wrapper)
	if !ok {
		s.logger.Warn("Ignoring attach of a value that is not a wrapper", zap.String("type", fmt.Sprintf("%T", wrapper)))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attached {
		if existing == w {
			return
		}
	}
	s.attached = append(s.attached, w)
}

// Flush writes queued entities and dirty associations in one transaction.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return orm.ErrSessionClosed
	}
	pending := s.pending
	var dirty []persistent.Wrapper
	for _, w := range s.attached {
		if w.IsDirty() {
			dirty = append(dirty, w)
		}
	}
	s.mu.Unlock()

	if len(pending) == 0 && len(dirty) == 0 {
		return nil
	}

	// Proxies are materialized before the transaction takes a connection.
	writes := make([]associationWrite, 0, len(dirty))
	for _, w := range dirty {
		write, err := s.prepareAssociation(ctx, w)
		if err != nil {
			return err
		}
		writes = append(writes, write)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entity := range pending {
			if err := tx.Omit(clause.Associations).Save(entity).Error; err != nil {
				return fmt.Errorf("saving %T: %w", entity, err)
			}
		}
		for _, write := range writes {
			if err := write.apply(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, write := range writes {
		write.wrapper.SetSnapshot(write.wrapper.Key(), write.role.name, write.wrapper.GetSnapshot(write.role))
		write.wrapper.ClearDirty()
	}
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	s.logger.Debug("Flushed session",
		zap.Int("entities", len(pending)),
		zap.Int("associations", len(writes)))
	return nil
}

// associationWrite replaces one association with the members of a dirty wrapper.
type associationWrite struct {
	wrapper persistent.Collection
	role    *role
	owner   any
}

func (s *Session) prepareAssociation(ctx context.Context, w persistent.Wrapper) (associationWrite, error) {
	r, ok := s.meta.role(w.Role())
	if !ok {
		return associationWrite{}, fmt.Errorf("%w: %s", orm.ErrUnknownRole, w.Role())
	}
	c, ok := w.(persistent.Collection)
	if !ok {
		return associationWrite{}, fmt.Errorf("flushing %s: map associations are not supported", r.name)
	}
	owner, err := materialize(ctx, w.Owner())
	if err != nil {
		return associationWrite{}, fmt.Errorf("flushing %s: %w", r.name, err)
	}
	if owner == nil {
		return associationWrite{}, fmt.Errorf("flushing %s: wrapper has no owner", r.name)
	}
	if err := s.Unwrap(ctx, c, owner, r.property); err != nil {
		return associationWrite{}, fmt.Errorf("flushing %s: %w", r.name, err)
	}
	return associationWrite{wrapper: c, role: r, owner: owner}, nil
}

func (a associationWrite) apply(tx *gorm.DB) error {
	field, err := fieldValue(a.owner, a.role.property)
	if err != nil {
		return err
	}
	assoc := tx.Model(a.owner).Association(a.role.property)
	if assoc.Error != nil {
		return fmt.Errorf("flushing %s: %w", a.role.name, assoc.Error)
	}
	if field.Len() == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(field.Interface())
	}
	if err != nil {
		return fmt.Errorf("flushing %s: %w", a.role.name, err)
	}
	return nil
}

// IsConnected reports whether the session is still open.
func (s *Session) IsConnected() bool {
	return s.check() == nil
}

// Close discards the identity map and every queued change.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.identity = nil
	s.proxies = nil
	s.pending = nil
	s.attached = nil
	return nil
}

// BestGuessEntityName resolves the entity name of an instance or proxy.
func (s *Session) BestGuessEntityName(instance any) string {
	if init, ok := orm.AsProxy(instance); ok {
		return init.EntityName()
	}
	if e, ok := s.meta.entityOf(reflect.TypeOf(instance)); ok {
		return e.name
	}
	return s.meta.intro.TypeName(s.meta.intro.TypeOf(instance))
}

func (s *Session) cached(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.identity[key]
	return v, ok
}

// remember stores v under key unless the session already holds an instance for it.
func (s *Session) remember(key string, v any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return v
	}
	if existing, ok := s.identity[key]; ok {
		return existing
	}
	s.identity[key] = v
	return v
}

// condition builds the primary key condition for id, converting it to the key
// field types, and the identity map key of the row.
func (s *Session) condition(e *entity, id any) (map[string]any, string, error) {
	fields := e.schema.PrimaryFields
	values := []any{id}
	if e.id.virtual {
		parts, ok := id.([]any)
		if !ok || len(parts) != len(fields) {
			return nil, "", fmt.Errorf("identifier of %s needs %d parts, got %v", e.name, len(fields), id)
		}
		values = parts
	} else {
		fields = []*schema.Field{e.schema.PrioritizedPrimaryField}
	}

	where := make(map[string]any, len(fields))
	keys := make([]string, 0, len(fields))
	for i, field := range fields {
		v, err := s.meta.convertID(field.FieldType, values[i])
		if err != nil {
			return nil, "", fmt.Errorf("identifier of %s: %w", e.name, err)
		}
		where[field.DBName] = v
		keys = append(keys, utils.CanonicalID(v))
	}
	return where, e.name + "#" + strings.Join(keys, ","), nil
}

// convertID converts a decoded identifier (JSON numbers arrive as float64, path
// parameters as strings) to the type of the key field.
func (m *Metamodel) convertID(t reflect.Type, v any) (any, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("identifier is nil")
	}
	if rv.Type() == t {
		return v, nil
	}

	str, isString := v.(string)
	switch {
	case t == uuidType && isString:
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, err
		}
		return id, nil
	case isString && introspect.IsNumber(t):
		return m.intro.ParseScalar(t, str)
	case introspect.IsNumber(rv.Type()) && introspect.IsNumber(t):
		return rv.Convert(t).Interface(), nil
	case rv.Kind() == reflect.String && t.Kind() == reflect.String:
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("cannot use %T as identifier of type %s", v, t)
}

func relation(e *entity, property string) (*schema.Relationship, bool) {
	if rel, ok := e.schema.Relationships.Relations[property]; ok {
		return rel, true
	}
	for name, rel := range e.schema.Relationships.Relations {
		if strings.EqualFold(name, property) {
			return rel, true
		}
	}
	return nil, false
}

func materialize(ctx context.Context, v any) (any, error) {
	if init, ok := orm.AsProxy(v); ok {
		return init.Implementation(ctx)
	}
	return v, nil
}

func fieldValue(owner any, property string) (reflect.Value, error) {
	rv := reflect.ValueOf(owner)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("cannot read %s of nil", property)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot read %s of %s", property, rv.Type())
	}
	field := rv.FieldByName(property)
	if !field.IsValid() {
		return reflect.Value{}, fmt.Errorf("type %s has no property %s", rv.Type(), property)
	}
	return field, nil
}
