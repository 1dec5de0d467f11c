package bridge

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"reattach/core/introspect"
	"reattach/core/orm"

	"go.uber.org/zap"
)

// createOriginalEntity rebuilds one snapshot member. It returns nil when the member's
// row was deleted since the descriptor was captured.
func (b *Bridge) createOriginalEntity(ctx context.Context, session orm.Session, sid SerializableID, table lookup) (any, error) {
	if err := sid.Validate(); err != nil {
		return nil, err
	}

	if sid.ID != nil {
		if entity, ok := table[idKey(sid.EntityName, sid.ID)]; ok {
			return entity, nil
		}
		entity, err := session.Load(ctx, sid.EntityName, sid.ID)
		if errors.Is(err, orm.ErrObjectNotFound) {
			b.logger.Debug("Deleted entity cannot be retrieved and is left out of the snapshot", zap.Stringer("member", sid))
			b.metrics.Dropped()
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", sid, err)
		}
		return entity, nil
	}

	if sid.Value != nil {
		if entity, ok := table[valueKey(sid.EntityName, *sid.Value)]; ok {
			return entity, nil
		}
	}
	return b.createNotPersistentEntity(sid)
}

// createNotPersistentEntity rebuilds a number, string or enum from its literal.
func (b *Bridge) createNotPersistentEntity(sid SerializableID) (any, error) {
	if sid.Value == nil {
		return nil, fmt.Errorf("%w: %s has no value", ErrUnableToCreateEntity, sid.EntityName)
	}
	t, ok := b.intro.TypeByName(sid.EntityName)
	if !ok {
		return nil, fmt.Errorf("unexpected not persistent entity type: %s", sid.EntityName)
	}

	switch {
	case b.intro.IsEnum(t):
		v, ok := b.intro.EnumValue(t, *sid.Value)
		if !ok {
			return nil, fmt.Errorf("unexpected value for enum %s: %s", sid.EntityName, *sid.Value)
		}
		return v, nil
	case introspect.IsNumber(t), t.Kind() == reflect.String:
		return b.intro.ParseScalar(t, *sid.Value)
	default:
		return nil, fmt.Errorf("unexpected not persistent entity type: %s", sid.EntityName)
	}
}
