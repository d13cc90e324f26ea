package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every environment-supplied knob. It is loaded once in main
// and passed into constructors; nothing reads the environment after startup.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPassword string

	KafkaBroker      string
	ElasticsearchURL string
	SentryDSN        string

	AdminID string
	AdminPW string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	NotifyFrom   string
	NotifyTo     string
	WebhookURL   string

	// Statistics knobs: the landing page advertises a historical head-start
	// on top of the live row count and a per-day intake quota. The "today"
	// window is computed in a fixed UTC offset, not the process locale.
	BaselineTotal    int
	DailyLimit       int
	UTCOffsetMinutes int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	return &Config{
		Port: GetEnv("PORT", "3000"),

		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", ""),
		DBName:     GetEnv("DB_NAME", "consult"),

		RedisHost:     GetEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),

		KafkaBroker:      GetEnv("KAFKA_BROKER", ""),
		ElasticsearchURL: GetEnv("ELASTICSEARCH_URL", ""),
		SentryDSN:        GetEnv("SENTRY_DSN", ""),

		AdminID: GetEnv("ADMIN_ID", "admin"),
		AdminPW: GetEnv("ADMIN_PW", ""),

		SMTPHost:     GetEnv("SMTP_HOST", ""),
		SMTPPort:     GetEnvInt("SMTP_PORT", 587),
		SMTPUser:     GetEnv("SMTP_USER", ""),
		SMTPPassword: GetEnv("SMTP_PASSWORD", ""),
		NotifyFrom:   GetEnv("NOTIFY_FROM", ""),
		NotifyTo:     GetEnv("NOTIFY_TO", ""),
		WebhookURL:   GetEnv("WEBHOOK_URL", ""),

		BaselineTotal:    GetEnvInt("CONSULT_BASELINE_TOTAL", 0),
		DailyLimit:       GetEnvInt("CONSULT_DAILY_LIMIT", 10),
		UTCOffsetMinutes: GetEnvInt("STATS_UTC_OFFSET_MINUTES", 540),
	}
}

func GetEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
