package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "dev-secret-unsafe-change-me"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Shop     ShopConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	AMQP     AMQPConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins string
	PublicDir   string
}

// Addr is the listen address derived from Port.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type DatabaseConfig struct {
	// Driver is "sqlite" (embedded, default) or "pgx".
	Driver string
	Path   string
	URL    string
}

type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	PublicBaseURL string
}

// UsesDefaultSecret reports whether the signing key was left at its development value.
func (a AuthConfig) UsesDefaultSecret() bool {
	return a.JWTSecret == defaultJWTSecret
}

type ShopConfig struct {
	ShippingFee decimal.Decimal
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AMQPConfig struct {
	URL      string
	Exchange string
}

func (a AMQPConfig) Enabled() bool { return a.URL != "" }

type ObservabilityConfig struct {
	ServiceName    string
	JaegerEndpoint string
}

func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         getEnv("ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			PublicDir:   getEnv("PUBLIC_DIR", "./public"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			Path:   getEnv("DB_PATH", "shop.db"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
			SessionTTL:    getDuration("SESSION_TTL", 8*time.Hour),
			ResetTokenTTL: getDuration("RESET_TOKEN_TTL", time.Hour),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "securePassword123!"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		},
		Shop: ShopConfig{
			ShippingFee: getDecimal("SHIPPING_FEE", decimal.RequireFromString("5.99")),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "shop-events"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "shop_events"),
		},
		Observ: ObservabilityConfig{
			ServiceName:    getEnv("SERVICE_NAME", "deko-shop"),
			JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(os.Getenv(key))
	if err != nil || d.IsNegative() {
		return defaultVal
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
