package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./.env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
	"../../configs/.env",
}

// LoadConfig loads configuration from file based on the environment.
// A missing config file is not fatal, the agent can run entirely from
// defaults plus QBA_* environment variables.
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("QBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env

	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.apiPrefix", "/api")
	v.SetDefault("server.enableCors", false)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 120)     // seconds, QuickBooks calls are slow
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 2) // seconds

	v.SetDefault("logger.level", "info")

	v.SetDefault("shim.url", "http://localhost:8166")
	v.SetDefault("shim.connectTimeout", 5) // seconds
	v.SetDefault("shim.timeout", 120)      // seconds

	v.SetDefault("autoRetry.enabled", true)
	v.SetDefault("autoRetry.interval", 300) // seconds
	v.SetDefault("autoRetry.maxAttempts", 10)

	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.interval", 24) // hours
	v.SetDefault("retention.days", 90)
}

// getEnvironment determines the environment to use based on QBA_ENV environment variable
func getEnvironment() string {
	env := os.Getenv("QBA_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values
func processEnvOverrides(v *viper.Viper) {
	// Database sensitive information
	if dbHost := os.Getenv("QBA_DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbPort := getEnvInt("QBA_DB_PORT", 0); dbPort > 0 {
		v.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("QBA_DB_USERNAME"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPass := os.Getenv("QBA_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}
	if dbName := os.Getenv("QBA_DB_NAME"); dbName != "" {
		v.Set("database.database", dbName)
	}
	if sslMode := os.Getenv("QBA_DB_SSL_MODE"); sslMode != "" {
		v.Set("database.sslMode", sslMode)
	}

	// Server settings
	if serverHost := os.Getenv("QBA_SERVER_HOST"); serverHost != "" {
		v.Set("server.host", serverHost)
	}
	if serverPort := getEnvInt("QBA_SERVER_PORT", 0); serverPort > 0 {
		v.Set("server.port", serverPort)
	}
	if apiKey := os.Getenv("QBA_API_KEY"); apiKey != "" {
		v.Set("server.apiKey", apiKey)
	}

	// Shim settings
	if shimURL := os.Getenv("QBA_SHIM_URL"); shimURL != "" {
		v.Set("shim.url", shimURL)
	}
	if connectTimeout := getEnvInt("QBA_SHIM_CONNECT_TIMEOUT_SECONDS", 0); connectTimeout > 0 {
		v.Set("shim.connectTimeout", connectTimeout)
	}
	if timeout := getEnvInt("QBA_SHIM_TIMEOUT_SECONDS", 0); timeout > 0 {
		v.Set("shim.timeout", timeout)
	}

	// Retry and retention settings
	if retryEnabled := os.Getenv("QBA_AUTO_RETRY_ENABLED"); retryEnabled != "" {
		v.Set("autoRetry.enabled", strings.EqualFold(retryEnabled, "true"))
	}
	if retryInterval := getEnvInt("QBA_AUTO_RETRY_INTERVAL_SECONDS", 0); retryInterval > 0 {
		v.Set("autoRetry.interval", retryInterval)
	}
	if maxAttempts := getEnvInt("QBA_AUTO_RETRY_MAX_ATTEMPTS", 0); maxAttempts > 0 {
		v.Set("autoRetry.maxAttempts", maxAttempts)
	}
	if retentionEnabled := os.Getenv("QBA_RETENTION_ENABLED"); retentionEnabled != "" {
		v.Set("retention.enabled", strings.EqualFold(retentionEnabled, "true"))
	}
	if retentionDays := getEnvInt("QBA_RETENTION_DAYS", 0); retentionDays > 0 {
		v.Set("retention.days", retentionDays)
	}

	// Logger settings
	if logLevel := os.Getenv("QBA_LOGGER_LEVEL"); logLevel != "" {
		v.Set("logger.level", logLevel)
	}
}

// Helper function to get environment variable as int
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second

	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second

	config.Shim.ConnectTimeout = time.Duration(config.Shim.ConnectTimeout) * time.Second
	config.Shim.Timeout = time.Duration(config.Shim.Timeout) * time.Second

	config.AutoRetry.Interval = time.Duration(config.AutoRetry.Interval) * time.Second
	config.Retention.Interval = time.Duration(config.Retention.Interval) * time.Hour
}
