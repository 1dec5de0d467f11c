package orm

import (
	"context"
	"reflect"
)

// TypeKind classifies a mapped property type.
type TypeKind int

const (
	// KindBasic is a scalar column.
	KindBasic TypeKind = iota
	// KindComponent is an embeddable stored inline in its owner.
	KindComponent
	// KindUser is a domain defined scalar mapping (see UserType).
	KindUser
	// KindCollection is a to-many association or element collection.
	KindCollection
	// KindEntity is a to-one association.
	KindEntity
)

func (k TypeKind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindUser:
		return "user"
	case KindCollection:
		return "collection"
	case KindEntity:
		return "entity"
	default:
		return "basic"
	}
}

// Type is a mapped property type as seen by the metamodel.
type Type interface {
	// Name is a human readable name of the type.
	Name() string
	// Kind tells which of the other accessors are meaningful.
	Kind() TypeKind
	// ReturnedType is the Go type produced by the mapping.
	ReturnedType() reflect.Type
	// Subtypes are the property types of a component.
	Subtypes() []Type
	// ElementType is the element type of a collection.
	ElementType() Type
}

// UserType marks domain scalar types the ORM maps as persistent values
// without entity identity (money, coordinates, ...).
type UserType interface {
	UserType()
}

// IdentifierProperty describes the identifier of an entity.
type IdentifierProperty interface {
	Name() string
	// IsVirtual reports an identifier not backed by a single declared property
	// (for instance an embedded composite key).
	IsVirtual() bool
}

// EntityPersister exposes the metadata of one entity.
type EntityPersister interface {
	EntityName() string
	MappedType() reflect.Type
	IdentifierProperty() IdentifierProperty
	// IdentifierGetterName is the method a detached copy exposes to return its identifier.
	IdentifierGetterName() string
	// IdentifierOf reads the identifier of an instance of MappedType.
	IdentifierOf(ctx context.Context, instance any) (any, error)
	PropertyTypes() []Type
}

// CollectionPersister exposes the metadata of one mapped association.
type CollectionPersister interface {
	// Role is "<OwnerEntity>.<property>".
	Role() string
	OwnerEntityName() string
	PropertyName() string
	ElementType() Type
}

// EntityType is a managed entity of the metamodel.
type EntityType interface {
	Name() string
	BindableType() reflect.Type
}

// Metamodel is the read-only view of the ORM mapping.
type Metamodel interface {
	EntityPersister(name string) (EntityPersister, bool)
	CollectionPersister(role string) (CollectionPersister, bool)
	ManagedType(t reflect.Type) (EntityType, bool)
	Entities() []EntityType
}
