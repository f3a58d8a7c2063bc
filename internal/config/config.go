package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	ServiceName string
	LogLevel    string

	// Database
	DatabaseURL   string
	RunMigrations bool

	// Telemetry
	OTLPEndpoint string

	// Identity
	JWTSecret string

	// Redis (opcional, vazio desativa o lock distribuído)
	RedisAddr      string
	RedisPassword  string
	ConfirmLockTTL time.Duration

	// Regras de pedido
	StrictOrderTransitions bool
	DeliveryLeadDays       int

	// File storage
	SupabaseURL        string
	SupabaseServiceKey string
	StorageBucket      string
	ReceiptURLTTL      int
}

func Load() (*Config, error) {
	// .env é opcional; variáveis de ambiente reais têm precedência
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "marketplace-service"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", databaseURLFromParts()),
		RunMigrations: getBool("RUN_MIGRATIONS", true),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		ConfirmLockTTL: getDuration("CONFIRM_LOCK_TTL", 10*time.Second),

		StrictOrderTransitions: getBool("ORDER_STRICT_TRANSITIONS", false),
		DeliveryLeadDays:       getInt("DELIVERY_LEAD_DAYS", 7),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		StorageBucket:      getEnv("SUPABASE_STORAGE_BUCKET", "marketplace-files"),
		ReceiptURLTTL:      getInt("RECEIPT_URL_TTL", 600),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DeliveryLeadDays <= 0 {
		return fmt.Errorf("DELIVERY_LEAD_DAYS must be positive")
	}
	if c.ConfirmLockTTL <= 0 {
		return fmt.Errorf("CONFIRM_LOCK_TTL must be positive")
	}
	if c.ReceiptURLTTL <= 0 {
		return fmt.Errorf("RECEIPT_URL_TTL must be positive")
	}
	return nil
}

// StorageEnabled indica se as referências de arquivo podem ser resolvidas
func (c *Config) StorageEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func databaseURLFromParts() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "marketplace_db"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
