package gormorm

import (
	"reflect"

	"reattach/core/orm"
)

// propertyType is the orm.Type derived from one struct field.
type propertyType struct {
	name     string
	kind     orm.TypeKind
	returned reflect.Type
	subtypes []orm.Type
	element  orm.Type
}

func (p *propertyType) Name() string { return p.name }
func (p *propertyType) Kind() orm.TypeKind { return p.kind }
func (p *propertyType) ReturnedType() reflect.Type { return p.returned }
func (p *propertyType) Subtypes() []orm.Type { return p.subtypes }
func (p *propertyType) ElementType() orm.Type { return p.element }

type identifier struct {
	name    string
	virtual bool
}

func (i identifier) Name() string { return i.name }
func (i identifier) IsVirtual() bool { return i.virtual }
