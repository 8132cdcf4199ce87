package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGoogle   = "google"
	BackendWorkbook = "workbook"

	LockLocal    = "local"
	LockPostgres = "postgres"
)

type Config struct {
	Addr                string
	Environment         string
	StoreBackend        string
	GoogleSheetID       string
	ServiceAccountJSON  string
	WorkbookPath        string
	StoreTimeout        time.Duration
	ManagerPassword     string
	ManagerPasswordHash string
	JWTSecret           string
	SessionTTL          time.Duration
	Timezone            string
	FrontendURL         string
	AllowedOrigins      string
	LockBackend         string
	DatabaseURL         string
	LockPoolSize        int
	InjectFormulas      bool
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	MonthSheetInterval  time.Duration
	EmailEnabled        bool
	EmailFrom           string
	ManagerEmail        string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	MetricsEnabled      bool
}

// Load reads the optional env file first; variables already set in the
// process environment win over the file.
func Load() Config {
	_ = godotenv.Load(getEnv("CONFIG_ENV_FILE", ".env"))

	return Config{
		Addr:                getEnv("APP_ADDR", ":8000"),
		Environment:         getEnv("APP_ENV", "development"),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", BackendWorkbook)),
		GoogleSheetID:       getEnv("GOOGLE_SHEET_ID", ""),
		ServiceAccountJSON:  getEnv("SERVICE_ACCOUNT_JSON", ""),
		WorkbookPath:        getEnv("WORKBOOK_PATH", "data/tipsheet.xlsx"),
		StoreTimeout:        getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		ManagerPassword:     getEnv("MANAGER_PASSWORD", ""),
		ManagerPasswordHash: getEnv("MANAGER_PASSWORD_HASH", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		SessionTTL:          getEnvDuration("SESSION_TTL", 12*time.Hour),
		Timezone:            getEnv("TIMEZONE", "Local"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", ""),
		LockBackend:         strings.ToLower(getEnv("LOCK_BACKEND", LockLocal)),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		LockPoolSize:        getEnvInt("LOCK_POOL_SIZE", 20),
		InjectFormulas:      getEnvBool("INJECT_FORMULAS", false),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 65536)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MonthSheetInterval:  getEnvDuration("MONTH_SHEET_INTERVAL", 6*time.Hour),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@example.com"),
		ManagerEmail:        getEnv("MANAGER_EMAIL", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", true),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves TIMEZONE; "Local" and "" map to the process zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// Origins returns the CORS allow-list.
func (c Config) Origins() []string {
	origins := []string{}
	if strings.TrimSpace(c.FrontendURL) != "" {
		origins = append(origins, strings.TrimSpace(c.FrontendURL))
	}
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendGoogle:
		if strings.TrimSpace(c.GoogleSheetID) == "" {
			return fmt.Errorf("GOOGLE_SHEET_ID is required when STORE_BACKEND is google")
		}
		if !json.Valid([]byte(c.ServiceAccountJSON)) {
			return fmt.Errorf("SERVICE_ACCOUNT_JSON must be valid JSON")
		}
	case BackendWorkbook:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q", BackendGoogle, BackendWorkbook)
	}
	switch c.LockBackend {
	case LockLocal:
	case LockPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when LOCK_BACKEND is postgres")
		}
		if c.LockPoolSize < 2 {
			return fmt.Errorf("LOCK_POOL_SIZE must be at least 2")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be %q or %q", LockLocal, LockPostgres)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.ManagerPassword == "" && c.ManagerPasswordHash == "" {
			return fmt.Errorf("MANAGER_PASSWORD or MANAGER_PASSWORD_HASH must be set in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && (c.SMTPHost == "" || c.ManagerEmail == "") {
		return fmt.Errorf("SMTP_HOST and MANAGER_EMAIL must be set when EMAIL_ENABLED is true")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}
