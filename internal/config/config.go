package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	ProviderLocal  = "local"
	ProviderStripe = "stripe"
)

type Config struct {
	Server      ServerConfig
	LogLevel    slog.Level
	StoreDriver string
	Postgres    PostgresConfig
	Redis       RedisConfig
	Reservation ReservationConfig
	Raffle      RaffleConfig
	Payment     PaymentConfig
	Admin       AdminConfig
	Telegram    TelegramConfig
}

type ServerConfig struct {
	Host string
	Port int
	// BaseURL is the public address used in checkout redirect links.
	BaseURL string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	Migrate  bool
	MaxConns int32
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type ReservationConfig struct {
	TTL           time.Duration
	MinTTL        time.Duration
	MaxTTL        time.Duration
	SweepSchedule string
}

type RaffleConfig struct {
	MaxTotalNumbers       int
	MaxNumbersPerPurchase int
	RateLimitPerMinute    int
}

type PaymentConfig struct {
	Provider            string
	Currency            string
	StripeSecretKey     string
	StripeWebhookSecret string
	WebhookSecret       string
	CheckoutURL         string
}

type AdminConfig struct {
	JWTSecret    string
	JWTTTL       time.Duration
	Username     string
	PasswordHash string
	// Password is hashed at startup when no PasswordHash is configured.
	Password string
}

// Enabled reports whether the admin API has credentials to log in with.
func (c AdminConfig) Enabled() bool {
	return c.JWTSecret != "" && (c.PasswordHash != "" || c.Password != "")
}

type TelegramConfig struct {
	Token       string
	AdminChatID int64
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	var err error
	cfg := &Config{}

	cfg.Server.Host = getEnv("SERVER_HOST", "localhost")
	if cfg.Server.Port, err = getInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.Server.BaseURL = getEnv("APP_BASE_URL", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StorePostgres))
	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.Postgres, err = loadPostgres(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("%s: invalid STORE_DRIVER %q", op, cfg.StoreDriver)
	}

	if cfg.Redis, err = loadRedis(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Reservation, err = loadReservation(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Raffle.MaxTotalNumbers, err = getInt("MAX_TOTAL_NUMBERS", 100_000); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Raffle.MaxNumbersPerPurchase, err = getInt("MAX_NUMBERS_PER_PURCHASE", 100); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Raffle.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 10); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Payment, err = loadPayment(cfg.Server.BaseURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Admin, err = loadAdmin(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	if chat := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); chat != "" {
		if cfg.Telegram.AdminChatID, err = strconv.ParseInt(chat, 10, 64); err != nil {
			return nil, fmt.Errorf("%s: invalid TELEGRAM_ADMIN_CHAT_ID: %w", op, err)
		}
	}

	return cfg, nil
}

func loadPostgres() (PostgresConfig, error) {
	var (
		c   PostgresConfig
		err error
	)

	c.Host = getEnv("POSTGRES_HOST", "localhost")
	if c.Port, err = getInt("POSTGRES_PORT", 5432); err != nil {
		return c, err
	}

	c.User = os.Getenv("POSTGRES_USER")
	if c.User == "" {
		return c, fmt.Errorf("missing POSTGRES_USER")
	}

	c.Password = os.Getenv("POSTGRES_PASSWORD")
	if c.Password == "" {
		return c, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	c.Name = os.Getenv("POSTGRES_DB")
	if c.Name == "" {
		return c, fmt.Errorf("missing POSTGRES_DB")
	}

	c.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")

	if c.Migrate, err = getBool("POSTGRES_MIGRATE", true); err != nil {
		return c, err
	}

	maxConns, err := getInt("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return c, err
	}
	c.MaxConns = int32(maxConns)

	return c, nil
}

func loadRedis() (RedisConfig, error) {
	var (
		c   RedisConfig
		err error
	)

	if c.Enabled, err = getBool("REDIS_ENABLED", false); err != nil {
		return c, err
	}

	c.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	c.Password = os.Getenv("REDIS_PASSWORD")

	if c.DB, err = getInt("REDIS_DB", 0); err != nil {
		return c, err
	}

	if c.PoolSize, err = getInt("REDIS_POOL_SIZE", 0); err != nil {
		return c, err
	}

	return c, nil
}

func loadReservation() (ReservationConfig, error) {
	var (
		c   ReservationConfig
		err error
	)

	if c.TTL, err = getDuration("RESERVATION_TTL", 15*time.Minute); err != nil {
		return c, err
	}
	if c.MinTTL, err = getDuration("RESERVATION_MIN_TTL", time.Minute); err != nil {
		return c, err
	}
	if c.MaxTTL, err = getDuration("RESERVATION_MAX_TTL", time.Hour); err != nil {
		return c, err
	}

	if c.MinTTL > c.MaxTTL {
		return c, fmt.Errorf("RESERVATION_MIN_TTL %s exceeds RESERVATION_MAX_TTL %s", c.MinTTL, c.MaxTTL)
	}

	c.SweepSchedule = getEnv("EXPIRY_SWEEP_SCHEDULE", "@every 30s")

	return c, nil
}

func loadPayment(baseURL string) (PaymentConfig, error) {
	c := PaymentConfig{
		Provider:            strings.ToLower(getEnv("PAYMENT_PROVIDER", ProviderLocal)),
		Currency:            strings.ToLower(getEnv("PAYMENT_CURRENCY", "brl")),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		WebhookSecret:       os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		CheckoutURL:         getEnv("PAYMENT_CHECKOUT_URL", strings.TrimRight(baseURL, "/")+"/checkout"),
	}

	switch c.Provider {
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return c, fmt.Errorf("missing STRIPE_SECRET_KEY")
		}
		if c.StripeWebhookSecret == "" {
			return c, fmt.Errorf("missing STRIPE_WEBHOOK_SECRET")
		}
	case ProviderLocal:
		if c.WebhookSecret == "" {
			return c, fmt.Errorf("missing PAYMENT_WEBHOOK_SECRET")
		}
	default:
		return c, fmt.Errorf("invalid PAYMENT_PROVIDER %q", c.Provider)
	}

	return c, nil
}

func loadAdmin() (AdminConfig, error) {
	c := AdminConfig{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Password:     os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if c.JWTTTL, err = getDuration("JWT_TTL", 12*time.Hour); err != nil {
		return c, err
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return c, fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}

	return c, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
