package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	MySQL    MySQLConfig
	Log      LogConfig
	Mellat   MellatConfig
	Messages MessagesConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type MellatConfig struct {
	AccountName  string
	TerminalID   int64
	UserName     string
	UserPassword string
	TestTerminal bool
	HTTPTimeout  time.Duration
}

// MessagesConfig overrides the default caller-facing message texts.
// Empty fields keep the defaults.
type MessagesConfig struct {
	PaymentSucceeded        string
	PaymentFailed           string
	DuplicateTrackingNumber string
	AlreadyVerified         string
	InvalidCallbackData     string
	UnknownResultCode       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "bankpay-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Mellat: MellatConfig{
			AccountName:  getEnv("MELLAT_ACCOUNT_NAME", "mellat"),
			TerminalID:   getInt64Env("MELLAT_TERMINAL_ID", 0),
			UserName:     getEnv("MELLAT_USERNAME", ""),
			UserPassword: getEnv("MELLAT_USER_PASSWORD", ""),
			TestTerminal: getBoolEnv("MELLAT_TEST_TERMINAL", false),
			HTTPTimeout:  getSecondsEnv("MELLAT_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Messages: MessagesConfig{
			PaymentSucceeded:        getEnv("MESSAGES_PAYMENT_SUCCEEDED", ""),
			PaymentFailed:           getEnv("MESSAGES_PAYMENT_FAILED", ""),
			DuplicateTrackingNumber: getEnv("MESSAGES_DUPLICATE_TRACKING_NUMBER", ""),
			AlreadyVerified:         getEnv("MESSAGES_ALREADY_VERIFIED", ""),
			InvalidCallbackData:     getEnv("MESSAGES_INVALID_CALLBACK_DATA", ""),
			UnknownResultCode:       getEnv("MESSAGES_UNKNOWN_RESULT_CODE", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
