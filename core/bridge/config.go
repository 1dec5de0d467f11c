package bridge

// Config holds the tunables of the reconciliation engine.
type Config struct {
	// VirtualIDUnsaved treats every instance of an entity with a virtual identifier property as unsaved.
	VirtualIDUnsaved bool `mapstructure:"virtual_id_unsaved" default:"true"`
}

// DefaultConfig returns the configuration used when none is loaded.
func DefaultConfig() Config {
	return Config{VirtualIDUnsaved: true}
}
