package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// StorageConfig selects and configures the persistence adapter.
type StorageConfig struct {
	// Driver is one of sqlite, file or memory.
	Driver string `mapstructure:"driver"     validate:"required,oneof=sqlite file memory"`
	// Path is the database file for sqlite and the directory for file.
	Path string `mapstructure:"path"       validate:"required_unless=Driver memory"`
	// KeyPrefix namespaces the three collection keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}
