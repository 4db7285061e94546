package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL string

	CardCondition    string
	ProductCondition string

	Headless     bool
	ChromeBin    string
	PageTimeoutS int
	WaitTimeoutS int
	CartAttempts int
	CartBackoffS int

	MonitorBaseS   int
	MonitorJitterS int

	MaxConcurrency int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	TelegramToken   string
	TelegramChatIDs []int64
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		BaseURL: getEnv("LIGA_BASE_URL", "https://www.ligapokemon.com.br/"),

		CardCondition:    getEnv("CARD_CONDITION", "NM"),
		ProductCondition: getEnv("PRODUCT_CONDITION", "Lacrado"),

		Headless:     getEnvBool("HEADLESS", true),
		ChromeBin:    getEnv("CHROME_BIN", ""),
		PageTimeoutS: getEnvInt("PAGE_TIMEOUT_S", 30),
		WaitTimeoutS: getEnvInt("WAIT_TIMEOUT_S", 12),
		CartAttempts: getEnvInt("CART_ATTEMPTS", 3),
		CartBackoffS: getEnvInt("CART_BACKOFF_S", 1),

		MonitorBaseS:   getEnvInt("MONITOR_BASE_S", 55),
		MonitorJitterS: getEnvInt("MONITOR_JITTER_S", 30),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "busca"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "busca123"),
		PostgresDB:       getEnv("POSTGRES_DB", "web_busca"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatIDs: getEnvInt64List("TELEGRAM_CHAT_IDS"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt64List(key string) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}
