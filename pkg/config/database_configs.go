package config

// DatabaseConfig selects the snapshot store dialect.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // sqlite, mysql
	DSN    string `json:"dsn" yaml:"dsn"`
}

// NewDatabaseConfig creates a database configuration populated from environment variables
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnv("DATABASE_DRIVER", "sqlite"),
		DSN:    getEnv("DATABASE_DSN", "data/outagewatch.db"),
	}
}

// Validate validates database configuration
func (c *DatabaseConfig) Validate() error {
	if c.Driver != "" && c.Driver != "sqlite" && c.Driver != "mysql" {
		return ErrInvalidValue
	}
	if c.DSN == "" {
		return ErrMissingRequired
	}
	return nil
}
