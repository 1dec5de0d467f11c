package store

// Config holds configuration for the descriptor store.
type Config struct {
	// Backend selects where descriptors are kept (memory, minio, redis).
	Backend string `mapstructure:"backend" default:"memory"`
	// Prefix namespaces object names and redis keys.
	Prefix string `mapstructure:"prefix" default:"descriptors"`
	// TTLSeconds is how long a descriptor lives. Zero keeps it until deleted.
	// The minio backend relies on bucket lifecycle rules instead.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"3600"`
	// RedisAddr is the address of the redis server.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
	// RedisPassword authenticates against redis.
	RedisPassword string `mapstructure:"redis_password" default:""`
	// RedisDB is the redis database number.
	RedisDB int `mapstructure:"redis_db" default:"0"`
}
