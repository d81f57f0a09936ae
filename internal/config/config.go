package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevJWTSecret is only acceptable outside production.
	DevJWTSecret = "SmartCartSecretKeyForDevelopment123456789"
	// MinJWTSecretLen is 128 bits.
	MinJWTSecretLen = 16
)

var ErrInsecureSecret = errors.New("insecure jwt secret")

type Config struct {
	Env         string
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret      []byte
	JWTTTL         time.Duration
	UsingDevSecret bool
	BcryptCost     int

	KafkaBrokers   []string
	KafkaTopic     string
	PublishTimeout time.Duration

	AdminEmail    string
	AdminPassword string
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("notice: .env not loaded: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func FromEnv() Config {
	return Config{
		Env:         strings.ToLower(EnvDefault("APP_ENV", EnvDevelopment)),
		ServiceName: EnvDefault("SERVICE_NAME", "smartcart-auth"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTTTL:     EnvDurationDefault("JWT_TTL", 60*time.Minute),
		BcryptCost: EnvIntDefault("BCRYPT_COST", 0),

		KafkaBrokers:   CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     EnvDefault("KAFKA_USER_TOPIC", "user_events"),
		PublishTimeout: EnvDurationDefault("KAFKA_PUBLISH_TIMEOUT", 2*time.Second),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate refuses to run production without a real secret and fills the
// development default otherwise.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if len(c.JWTSecret) == 0 {
			return fmt.Errorf("%w: JWT_SECRET is required when APP_ENV=production", ErrInsecureSecret)
		}
		if len(c.JWTSecret) < MinJWTSecretLen {
			return fmt.Errorf("%w: JWT_SECRET must be at least %d bytes", ErrInsecureSecret, MinJWTSecretLen)
		}
		if string(c.JWTSecret) == DevJWTSecret {
			return fmt.Errorf("%w: development JWT_SECRET used in production", ErrInsecureSecret)
		}
	}
	if len(c.JWTSecret) == 0 {
		c.JWTSecret = []byte(DevJWTSecret)
		c.UsingDevSecret = true
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
