package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite only
	JWTSecret  string
	ServerPort string

	RabbitMQURL      string // empty disables event publishing
	RabbitMQExchange string

	LogFormat      string // text, json
	TrackerTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	trackerTimeout, err := time.ParseDuration(getEnv("TRACKER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("config: TRACKER_TIMEOUT: %w", err)
	}

	cfg := &Config{
		DBDriver:         getEnv("DB_DRIVER", DriverPostgres),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "lingua"),
		DBPath:           getEnv("DB_PATH", "lingua.db"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "lingua.events"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		TrackerTimeout:   trackerTimeout,
	}

	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
