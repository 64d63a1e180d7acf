package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	Profiles   []string
	LogFile    string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLiteDSN  string

	// Transactions
	TxMaxAttempts int
	TxLockTimeout time.Duration
	TxBackoff     time.Duration

	// Messaging
	RabbitURL      string
	RabbitPrefetch int

	// Redis backs the scheduler's distributed lock; empty runs jobs unlocked.
	RedisURL    string
	JobLockTTL  time.Duration
	JobsEnabled bool

	// SMTP; an empty host leaves queued emails unsent.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Allocation
	ReservationTTL         time.Duration
	ReservationSlack       time.Duration
	EmailBatchSize         int
	EmailMaxAttempts       int
	ConsumerCommandTimeout time.Duration

	JobIntervals map[string]time.Duration
}

// Nominal task intervals, overridable with JOB_<NAME>_INTERVAL
// (e.g. JOB_SEND_EMAILS_INTERVAL=10s).
var defaultIntervals = map[string]string{
	"cleanup-expired-reservations":     "30s",
	"send-offline-payment-reminders":   "30m",
	"send-ticket-assignment-reminders": "30m",
	"generate-special-price-codes":     "30s",
	"send-emails":                      "5s",
	"process-reservation-requests":     "5s",
	"process-released-tickets":         "30s",
	"cleanup-unreferenced-blobs":       "60m",
	"cleanup-demo-accounts":            "60m",
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found, using environment")
	}

	intervals := make(map[string]time.Duration, len(defaultIntervals))
	for name, def := range defaultIntervals {
		intervals[name] = getEnvAsDuration(intervalKey(name), def)
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8083"),
		Profiles:   getEnvAsList("PROFILES", nil),
		LogFile:    getEnv("LOG_FILE", ""),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "inventory_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLiteDSN:  getEnv("SQLITE_DSN", "file:inventory.db?_foreign_keys=on"),

		TxMaxAttempts: getEnvAsInt("TX_MAX_ATTEMPTS", 3),
		TxLockTimeout: getEnvAsDuration("TX_LOCK_TIMEOUT", "5s"),
		TxBackoff:     getEnvAsDuration("TX_BACKOFF", "50ms"),

		RabbitURL:      getEnv("RABBITMQ_URL", ""),
		RabbitPrefetch: getEnvAsInt("RABBITMQ_PREFETCH", 10),

		RedisURL:    getEnv("REDIS_URL", ""),
		JobLockTTL:  getEnvAsDuration("JOB_LOCK_TTL", "2m"),
		JobsEnabled: getEnvAsBool("JOBS_ENABLED", true),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@localhost"),

		ReservationTTL:         getEnvAsDuration("WAITING_QUEUE_RESERVATION_TIMEOUT", "25m"),
		ReservationSlack:       getEnvAsDuration("RESERVATION_EXPIRY_SLACK", "10m"),
		EmailBatchSize:         getEnvAsInt("EMAIL_BATCH_SIZE", 50),
		EmailMaxAttempts:       getEnvAsInt("EMAIL_MAX_ATTEMPTS", 3),
		ConsumerCommandTimeout: getEnvAsDuration("CONSUMER_COMMAND_TIMEOUT", "10s"),

		JobIntervals: intervals,
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) HasProfile(name string) bool {
	for _, p := range c.Profiles {
		if p == name {
			return true
		}
	}
	return false
}

func intervalKey(task string) string {
	return "JOB_" + strings.ToUpper(strings.ReplaceAll(task, "-", "_")) + "_INTERVAL"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
