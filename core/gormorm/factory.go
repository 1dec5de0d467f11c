package gormorm

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"reattach/core/database"
	"reattach/core/orm"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned when a factory has no database connection.
var ErrNoDatabase = errors.New("no database connection")

// Factory opens sessions over a database connection.
type Factory struct {
	db     *gorm.DB
	meta   *Metamodel
	logger *zap.Logger
}

// NewFactory creates a factory. meta must hold every model the sessions will load.
func NewFactory(db *gorm.DB, meta *Metamodel, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{db: db, meta: meta, logger: logger}
}

// OpenSession implements orm.SessionFactory.
func (f *Factory) OpenSession(ctx context.Context) (orm.Session, error) {
	return f.Open(ctx)
}

// Open returns a new gorm session.
func (f *Factory) Open(ctx context.Context) (*Session, error) {
	if f.db == nil {
		return nil, ErrNoDatabase
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newSession(f.db, f.meta, f.logger), nil
}

// Metamodel implements orm.SessionFactory.
func (f *Factory) Metamodel() orm.Metamodel { return f.meta }

// Migrate creates or updates the tables of every registered entity.
func (f *Factory) Migrate(ctx context.Context) error {
	if f.db == nil {
		return ErrNoDatabase
	}
	var models []any
	for _, e := range f.meta.Entities() {
		models = append(models, reflect.New(e.BindableType()).Interface())
	}
	if err := f.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrating entities: %w", err)
	}
	return nil
}

// Mismatch lists the mapped columns an entity table lacks.
type Mismatch struct {
	Entity  string   `json:"entity"`
	Table   string   `json:"table"`
	Missing []string `json:"missing"`
}

// Verify compares every registered entity with the columns of its table.
func (f *Factory) Verify(ctx context.Context) ([]Mismatch, error) {
	if f.db == nil {
		return nil, ErrNoDatabase
	}
	var out []Mismatch
	for _, et := range f.meta.Entities() {
		e := et.(*entity)
		missing, err := database.MissingColumns(f.db.WithContext(ctx), e.schema.Table, e.columns())
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", e.name, err)
		}
		if len(missing) > 0 {
			f.logger.Warn("Entity table is missing columns",
				zap.String("entity", e.name),
				zap.String("table", e.schema.Table),
				zap.Strings("missing", missing))
			out = append(out, Mismatch{Entity: e.name, Table: e.schema.Table, Missing: missing})
		}
	}
	return out, nil
}
