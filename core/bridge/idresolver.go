package bridge

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"reattach/core/orm"
	"reattach/core/utils"

	"go.uber.org/zap"
)

// ResolveID returns the identifier of v. Proxies answer without being initialized.
func (b *Bridge) ResolveID(ctx context.Context, v any) (any, error) {
	return b.ResolveIDAs(ctx, v, b.persistentType(v))
}

// ResolveIDAs returns the identifier of v seen as an instance of t. When v is not
// of type t (a detached copy), the identifier is read through its getter.
func (b *Bridge) ResolveIDAs(ctx context.Context, v any, t reflect.Type) (any, error) {
	if b.factory == nil {
		return nil, ErrNoSessionFactory
	}
	t = b.intro.Unenhance(t)

	persistent, err := b.classifier.IsPersistentClass(t)
	if err != nil {
		return nil, err
	}
	if !persistent {
		b.logger.Debug("Type is not persistent", zap.Stringer("type", typeOrNil(t)))
		return nil, fmt.Errorf("%w: %s", ErrNotPersistentObject, typeOrNil(t))
	}

	name, err := b.entityName(ctx, t, v)
	if err != nil {
		return nil, err
	}
	persister, ok := b.factory.Metamodel().EntityPersister(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentType, t)
	}
	id, err := b.extractID(ctx, v, t, persister)
	if err != nil {
		return nil, err
	}
	if b.isUnsaved(id, persister) {
		return nil, fmt.Errorf("%w: %s", ErrTransientObject, t)
	}
	return id, nil
}

func (b *Bridge) extractID(ctx context.Context, v any, t reflect.Type, persister orm.EntityPersister) (any, error) {
	if b.persistentType(v) == t {
		if init, ok := orm.AsProxy(v); ok {
			return init.Identifier(), nil
		}
		id, err := persister.IdentifierOf(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("reading identifier of %s: %w", t, err)
		}
		return id, nil
	}

	getter := persister.IdentifierGetterName()
	id, err := b.intro.Invoke(v, getter)
	if err == nil {
		return id, nil
	}
	id, ferr := b.intro.Read(v, persister.IdentifierProperty().Name())
	if ferr != nil {
		return nil, fmt.Errorf("invoking %s on %T: %w", getter, v, errors.Join(err, ferr))
	}
	return id, nil
}

func (b *Bridge) isUnsaved(id any, persister orm.EntityPersister) bool {
	if id == nil || utils.IsNumericZero(id) {
		return true
	}
	if !persister.IdentifierProperty().IsVirtual() || !b.cfg.VirtualIDUnsaved {
		return false
	}
	b.virtualWarning.Do(func() {
		b.logger.Warn("Treating instance with a virtual identifier as unsaved",
			zap.String("entity", persister.EntityName()),
			zap.String("id", utils.CanonicalID(id)))
	})
	return true
}

// persistentType returns the business type of v, asking the lazy initializer for proxies.
func (b *Bridge) persistentType(v any) reflect.Type {
	if init, ok := orm.AsProxy(v); ok {
		return b.intro.Unenhance(init.PersistentType())
	}
	return b.intro.TypeOf(v)
}

// entityName resolves the entity name of type t, using v to disambiguate types
// mapped under several names.
func (b *Bridge) entityName(ctx context.Context, t reflect.Type, v any) (string, error) {
	meta := b.factory.Metamodel()
	if et, ok := meta.ManagedType(t); ok {
		return et.Name(), nil
	}

	names := b.classifier.entityNames(t)
	switch len(names) {
	case 0:
		return b.intro.TypeName(t), nil
	case 1:
		return names[0], nil
	}
	if v == nil {
		return "", fmt.Errorf("type %s is mapped as %d entities and no instance was given", t, len(names))
	}
	var name string
	err := b.scope.within(ctx, func(ctx context.Context, session orm.Session) error {
		name = session.BestGuessEntityName(v)
		return nil
	})
	return name, err
}

func typeOrNil(t reflect.Type) fmt.Stringer {
	if t == nil {
		return nilType{}
	}
	return t
}

type nilType struct{}

func (nilType) String() string { return "<nil>" }
