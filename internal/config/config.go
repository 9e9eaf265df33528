// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	AWS         AWSConfig
	Payment     PaymentConfig
	Checkout    CheckoutConfig
	Credit      CreditConfig
	Reconciler  ReconcilerConfig
	Email       EmailConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	// ConnectTimeout is in seconds; 0 waits indefinitely.
	ConnectTimeout int
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    int
	LogLevel       string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// PaymentLockTTL bounds how long a pay-once lock is held, in seconds.
	PaymentLockTTL int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
	// Local storage is used when no access key is configured.
	LocalUploadDir string
	LocalBaseURL   string
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	Currency             string
}

type CheckoutConfig struct {
	SuccessDelay     time.Duration
	FlowTTL          time.Duration
	MaxDocumentBytes int64
	Currency         string
	QRScheme         string
	BankID           string
	AccountNumber    string
	AccountName      string
}

type CreditConfig struct {
	// MaxTermDays caps seller-configured default terms.
	MaxTermDays     int
	MaxInterestRate float64
}

type ReconcilerConfig struct {
	Enabled    bool
	Interval   time.Duration
	StaleAfter time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			Database:       getEnv("DB_NAME", "farmlink"),
			SSLMode:        getEnv("DB_SSL_MODE", "disable"),
			TimeZone:       getEnv("DB_TIMEZONE", "UTC"),
			ConnectTimeout: getEnvAsInt("DB_CONNECT_TIMEOUT", 10),
			MaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:    getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:       getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", ""),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			PaymentLockTTL: getEnvAsInt("REDIS_PAYMENT_LOCK_TTL", 120),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "farmlink.transactions"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "farmlink-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
			LocalUploadDir:  getEnv("UPLOAD_DIR", "./uploads"),
			LocalBaseURL:    getEnv("UPLOAD_BASE_URL", "http://localhost:8080/uploads"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			Currency:             strings.ToLower(getEnv("PAYMENT_CURRENCY", "vnd")),
		},
		Checkout: CheckoutConfig{
			SuccessDelay:     getEnvAsDuration("CHECKOUT_SUCCESS_DELAY", 2*time.Second),
			FlowTTL:          getEnvAsDuration("CHECKOUT_FLOW_TTL", 30*time.Minute),
			MaxDocumentBytes: int64(getEnvAsInt("CHECKOUT_MAX_DOCUMENT_MB", 5)) << 20,
			Currency:         getEnv("CHECKOUT_CURRENCY", "VND"),
			QRScheme:         getEnv("CHECKOUT_QR_SCHEME", "BANKQR"),
			BankID:           getEnv("CHECKOUT_BANK_ID", ""),
			AccountNumber:    getEnv("CHECKOUT_BANK_ACCOUNT_NUMBER", ""),
			AccountName:      getEnv("CHECKOUT_BANK_ACCOUNT_NAME", ""),
		},
		Credit: CreditConfig{
			MaxTermDays:     getEnvAsInt("CREDIT_MAX_TERM_DAYS", 3650),
			MaxInterestRate: getEnvAsFloat("CREDIT_MAX_INTEREST_RATE", 100),
		},
		Reconciler: ReconcilerConfig{
			Enabled:    getEnvAsBool("RECONCILER_ENABLED", true),
			Interval:   getEnvAsDuration("RECONCILER_INTERVAL", 5*time.Minute),
			StaleAfter: getEnvAsDuration("RECONCILER_STALE_AFTER", time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@farmlink.vn"),
			FromName:     getEnv("FROM_NAME", "FarmLink"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "vi"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Checkout.MaxDocumentBytes <= 0 {
		return fmt.Errorf("checkout max document size must be positive")
	}

	if c.Checkout.SuccessDelay < 0 {
		return fmt.Errorf("checkout success delay must not be negative")
	}

	if c.Checkout.FlowTTL <= 0 {
		return fmt.Errorf("checkout flow TTL must be positive")
	}

	if c.Environment == "production" && c.Checkout.BankID == "" {
		return fmt.Errorf("checkout bank account is required in production")
	}

	if c.Credit.MaxTermDays < 1 {
		return fmt.Errorf("credit max term days must be at least 1")
	}

	if c.Reconciler.Enabled && (c.Reconciler.Interval <= 0 || c.Reconciler.StaleAfter <= 0) {
		return fmt.Errorf("reconciler interval and stale age must be positive")
	}

	return nil
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
