package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Shim        ShimConfig      `mapstructure:"shim"`
	AutoRetry   AutoRetryConfig `mapstructure:"autoRetry"`
	Retention   RetentionConfig `mapstructure:"retention"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	APIKey            string        `mapstructure:"apiKey"`
	APIPrefix         string        `mapstructure:"apiPrefix"`
	EnableCORS        bool          `mapstructure:"enableCors"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// ShimConfig contains qb-shim connection settings
type ShimConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"` // seconds
	Timeout        time.Duration `mapstructure:"timeout"`        // seconds
}

// AutoRetryConfig contains scheduled retry settings
type AutoRetryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"` // seconds
	MaxAttempts int           `mapstructure:"maxAttempts"`
}

// RetentionConfig contains transaction retention settings
type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"` // hours
	Days     int           `mapstructure:"days"`
}
