package types

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Verbose  bool           `mapstructure:"verbose"`
	Config   string         `mapstructure:"config"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	User     UserConfig     `mapstructure:"user"`
	History  HistoryConfig  `mapstructure:"history"`
	// Roster is the closed set of staff identifiers accepted for
	// assignment. Injected through configuration rather than inferred
	// from the login environment.
	Roster []string `mapstructure:"roster"`
	// Strict requires the full drawing-request field set on add/edit.
	Strict bool `mapstructure:"strict"`
}

// DataConfig selects and configures the persistence backend.
type DataConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	File       string `mapstructure:"file" validate:"required"`
	Format     string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
	SQLitePath string `mapstructure:"sqlitePath"`
}

// DefaultsConfig holds field defaults applied when input omits them.
type DefaultsConfig struct {
	Category string `mapstructure:"category"`
}

// UserConfig identifies the operator for provenance stamping.
type UserConfig struct {
	Name string `mapstructure:"name"`
}

// HistoryConfig bounds and locates the persisted undo/redo log.
type HistoryConfig struct {
	MaxDepth int    `mapstructure:"maxDepth" validate:"omitempty,min=1"`
	File     string `mapstructure:"file"`
}
