// Package database handles database connections and schema inspection.
//
// It wraps GORM so that the rest of the application receives a configured *gorm.DB
// for either MySQL or SQLite, selected by configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the database
// within the configured timeout. SQLite is limited to one open connection so that
// ":memory:" databases are shared by every query.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table (PRAGMA table_info on SQLite,
// SHOW COLUMNS on MySQL). MissingColumns compares them with the columns a mapping
// expects; core/gormorm uses it to verify registered entities against the database.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "customers", []string{"id", "name"})
package database
