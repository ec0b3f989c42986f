package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/evyataryagoni/addresslookup/internal/matcher"
)

// PasswordPlaceholder is written by WriteEnvTemplate and rejected by Validate
const PasswordPlaceholder = "change-me"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port           string
	LogLevel       string
	LogPretty      bool
	TracingEnabled bool

	// Database configuration
	DBDriver     string // "postgres" or "mysql"
	DBHost       string
	DBPort       int
	DBName       string
	DBUser       string
	DBPassword   string // No default; must be set explicitly
	DBSSLMode    string // Postgres only
	AddressTable string

	dbPasswordSet bool

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed
	RateLimitWindow int    // time window in seconds

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables with defaults
// A .env file in the working directory is loaded first if present
func Load() *Config {
	// Existing environment variables take precedence over .env
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables or defaults")
	}

	driver := normalizeDriver(getEnv("DB_DRIVER", "postgres"))
	password, passwordSet := os.LookupEnv("DB_PASSWORD")

	return &Config{
		Port:           getEnv("PORT", "5000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),

		DBDriver:      driver,
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnvAsInt("DB_PORT", defaultPort(driver)),
		DBName:        getEnv("DB_NAME", "postgres"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    password,
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		AddressTable:  getEnv("ADDRESS_TABLE", "team_cool_and_gang.pinellas_fl"),
		dbPasswordSet: passwordSet,

		// Rate limiting (default: memory, 10 requests per 1 second)
		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// Validate reports configuration that must not reach the server
func (c *Config) Validate() error {
	var errs []error

	if !c.dbPasswordSet {
		errs = append(errs, errors.New("DB_PASSWORD must be set explicitly"))
	} else if c.DBPassword == PasswordPlaceholder {
		errs = append(errs, errors.New("DB_PASSWORD still holds the template placeholder"))
	}

	if _, err := matcher.DialectFor(c.DBDriver); err != nil {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q (supported: postgres, mysql)", c.DBDriver))
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid DB_PORT %d", c.DBPort))
	}
	if strings.TrimSpace(c.AddressTable) == "" {
		errs = append(errs, errors.New("ADDRESS_TABLE must not be empty"))
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// DSN renders the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return c.MySQLDSN()
	}
	return c.PostgresDSN()
}

// PostgresDSN renders a postgres:// URL with escaped credentials
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// MySQLDSN renders a go-sql-driver DSN
func (c *Config) MySQLDSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.DBUser
	cfg.Passwd = c.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// RequestsPerSecond is the effective per-client rate
// Example: 10 requests per 5 seconds = 2.0 req/s
func (c *Config) RequestsPerSecond() float64 {
	if c.RateLimitWindow <= 0 {
		return float64(c.RateLimit)
	}
	return float64(c.RateLimit) / float64(c.RateLimitWindow)
}

// normalizeDriver maps aliases such as "postgresql" to the dialect name
// Unknown names are lowercased and left for Validate to reject
func normalizeDriver(driver string) string {
	if d, err := matcher.DialectFor(driver); err == nil {
		return d.Name()
	}
	return strings.ToLower(strings.TrimSpace(driver))
}

func defaultPort(driver string) int {
	if driver == "mysql" {
		return 3306
	}
	return 5432
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as a boolean
// Returns default if not set or invalid
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
