// Package config loads application configuration from environment variables.
// A .env file is honored when present so local runs need no exported shell
// state.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message; everything else carries a sensible default.
type Config struct {
	Port string // HTTP port to listen on

	DBHost           string        // database host address
	DBPort           string        // database port number
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBName           string        // database name
	DBConnectTimeout time.Duration // bounded connect timeout per connection
	ListPerPage      int           // page size for order pagination

	JWTSecret string // secret used to sign auth tokens

	FactoryURL    string // pizza factory base URL
	FactoryAPIKey string // bearer key for factory calls

	LokiURL    string // log push endpoint (empty disables shipping)
	LokiUserID string
	LokiAPIKey string
	LogSource  string // source label attached to shipped logs

	RedisAddr       string        // menu cache backend (empty disables caching)
	AMQPURL         string        // order event broker (empty disables publishing)
	MetricsInterval time.Duration // system sampler period
}

// Load reads the environment (and .env, when present) into a Config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:             getenv("APP_PORT", "3000"),
		DBHost:           must("DB_HOST"),
		DBPort:           getenv("DB_PORT", "3306"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBName:           getenv("DB_NAME", "pizza"),
		DBConnectTimeout: duration("DB_CONNECT_TIMEOUT", 5*time.Second),
		ListPerPage:      intenv("LIST_PER_PAGE", 10),
		JWTSecret:        must("JWT_SECRET"),
		FactoryURL:       getenv("FACTORY_URL", "https://pizza-factory.cs329.click"),
		FactoryAPIKey:    os.Getenv("FACTORY_API_KEY"),
		LokiURL:          os.Getenv("LOKI_URL"),
		LokiUserID:       os.Getenv("LOKI_USER_ID"),
		LokiAPIKey:       os.Getenv("LOKI_API_KEY"),
		LogSource:        getenv("LOG_SOURCE", "jwt-pizza-service"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		MetricsInterval:  duration("METRICS_INTERVAL", 5*time.Second),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intenv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
