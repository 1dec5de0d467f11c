package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"reattach/core/gormorm"
	"reattach/core/orm"
	"reattach/core/utils"
)

// Status is the lifecycle state of a customer.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

func (s Status) String() string { return string(s) }

// Statuses lists every Status value.
func Statuses() []fmt.Stringer {
	return []fmt.Stringer{StatusActive, StatusClosed}
}

// Money is an amount in cents stored in a single column.
type Money struct {
	Cents int64 `json:"cents"`
}

// UserType marks Money as a mapped value type.
func (Money) UserType() {}

// GormDataType declares the column type.
func (Money) GormDataType() string { return "bigint" }

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) { return m.Cents, nil }

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		m.Cents = 0
	case int64:
		m.Cents = v
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", v, err)
		}
		m.Cents = n
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
	return nil
}

// Address is stored inline in the customers table.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

// Tag labels customers.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Label string `gorm:"size:64" json:"label"`
}

// Equal compares tags by identifier, so detached copies and proxies of one row are equal.
func (t *Tag) Equal(other any) bool {
	if t == nil {
		return other == nil
	}
	switch o := other.(type) {
	case *Tag:
		return o != nil && o.ID == t.ID
	case orm.Proxy:
		init, ok := orm.AsProxy(o)
		return ok && init.EntityName() == "models.Tag" && utils.CanonicalID(init.Identifier()) == utils.CanonicalID(t.ID)
	}
	return false
}

// Order belongs to a customer.
type Order struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID *uint  `json:"customerId"`
	Reference  string `gorm:"size:32" json:"reference"`
	Total      Money  `json:"total"`
}

// Customer is the aggregate served by the catalog.
type Customer struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Name    string   `gorm:"size:128" json:"name"`
	Status  Status   `gorm:"size:16" json:"status"`
	Address Address  `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Balance Money    `json:"balance"`
	Orders  []*Order `collection:"list" json:"orders,omitempty"`
	Tags    []*Tag   `gorm:"many2many:customer_tags" json:"tags,omitempty"`
}

// Register maps the catalog models and the Status enum.
func Register(meta *gormorm.Metamodel) error {
	if err := gormorm.Register[Tag](meta); err != nil {
		return err
	}
	if err := gormorm.Register[Order](meta); err != nil {
		return err
	}
	if err := gormorm.Register[Customer](meta); err != nil {
		return err
	}
	return meta.Introspector().RegisterEnum(Statuses()...)
}
