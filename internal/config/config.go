package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// OperatorAPIKey guards import and recalculation routes when set
	OperatorAPIKey string
	// OperatorRateLimit is a limiter rate such as "60-M" for the same routes
	OperatorRateLimit string
	// CORSOrigins lists allowed browser origins; "*" allows any
	CORSOrigins []string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Recalculation workers
	WorkerCount int
	QueueSize   int

	// Tracing limits
	TraceMaxDays int
	ChartWindow  int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		OperatorAPIKey:    os.Getenv("OPERATOR_API_KEY"),
		OperatorRateLimit: getEnv("OPERATOR_RATE_LIMIT", "60-M"),
		CORSOrigins:       strings.Split(getEnv("CORS_ORIGINS", "*"), ","),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "exitprotocol"),
		DBPassword: getEnv("DB_PASSWORD", "exitprotocol"),
		DBName:     getEnv("DB_NAME", "exitprotocol"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "exitprotocol.db"),

		WorkerCount:  getEnvInt("WORKER_COUNT", 4),
		QueueSize:    getEnvInt("QUEUE_SIZE", 100),
		TraceMaxDays: getEnvInt("TRACE_MAX_DAYS", 20000),
		ChartWindow:  getEnvInt("CHART_WINDOW", 365),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer environment variable, falling back to the
// default when the value is missing or invalid.
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
