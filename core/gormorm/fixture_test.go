package gormorm

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"

	"reattach/core/database"
	"reattach/core/introspect"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Money struct {
	Cents int64
}

func (Money) UserType() {}

func (Money) GormDataType() string { return "bigint" }

func (m Money) Value() (driver.Value, error) { return m.Cents, nil }

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		m.Cents = 0
	case int64:
		m.Cents = v
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
	return nil
}

type Address struct {
	Street string
	City   string
}

type Tag struct {
	ID    int
	Label string
}

type Order struct {
	ID         int
	CustomerID *int
	Reference  string
}

type Customer struct {
	ID      int
	Name    string
	Address Address `gorm:"embedded;embeddedPrefix:address_"`
	Balance Money
	Orders  []*Order
	Tags    []*Tag `gorm:"many2many:customer_tags"`
	Labels  []*Tag `gorm:"many2many:customer_labels" collection:"list"`
}

type Membership struct {
	CustomerID int `gorm:"primaryKey;autoIncrement:false"`
	GroupID    int `gorm:"primaryKey;autoIncrement:false"`
	Level      string
}

func newTestMetamodel(t *testing.T) *Metamodel {
	t.Helper()
	meta := NewMetamodel(introspect.New())
	require.NoError(t, Register[Tag](meta))
	require.NoError(t, Register[Order](meta))
	require.NoError(t, Register[Customer](meta))
	require.NoError(t, Register[Membership](meta))
	return meta
}

// newTestFactory returns a factory over a migrated in-memory database holding
// tags 1 to 3 and customer 42 tagged 1 and 2 with order 10.
func newTestFactory(t *testing.T) (*Factory, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	f := NewFactory(db, newTestMetamodel(t), zap.NewNop())
	require.NoError(t, f.Migrate(context.Background()))

	tags := []*Tag{{ID: 1, Label: "red"}, {ID: 2, Label: "blue"}, {ID: 3, Label: "green"}}
	require.NoError(t, db.Create(&tags).Error)
	customer := &Customer{
		ID:      42,
		Name:    "Ada",
		Address: Address{Street: "Main St", City: "Lyon"},
		Balance: Money{Cents: 1250},
		Orders:  []*Order{{ID: 10, Reference: "A-10"}},
		Tags:    []*Tag{tags[0], tags[1]},
	}
	require.NoError(t, db.Create(customer).Error)
	return f, db
}

func openSession(t *testing.T, f *Factory) *Session {
	t.Helper()
	session, err := f.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}
