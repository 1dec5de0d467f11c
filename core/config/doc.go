// Package config provides configuration management for reattach.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of every section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, shutdown, metrics path)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Store: descriptor store backend (memory, minio, redis)
//   - Bridge: reconciliation engine tunables
//   - Log: Logging level and format
//
// Environment variables are the upper-cased key path joined with underscores,
// for example DATABASE_DRIVER or BRIDGE_VIRTUAL_ID_UNSAVED.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
