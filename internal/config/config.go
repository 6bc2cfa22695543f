// config - источник загрузки конфигурации для blog-admin.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Провайдеры идентичности.
const (
	ProviderGoTrue = "gotrue"
	ProviderMemory = "memory"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Session  SessionConfig  `yaml:"session"`
	Identity IdentityConfig `yaml:"identity"`
	DB       DBConfig       `yaml:"db"`
	Mongo    MongoConfig    `yaml:"mongo"`
	S3       S3Config       `yaml:"s3"`
	Covers   CoversConfig   `yaml:"covers"`
	Redis    RedisConfig    `yaml:"redis"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// IsProduction - признак продакшн-окружения (влияет на Secure у cookie).
func (c *Config) IsProduction() bool { return c.Env == "prod" }

// TimeoutConfig - общий дедлайн обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"15s"`
}

// HTTPConfig - публичный HTTP-сервер.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"4321"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// SessionConfig - политика cookie и защищённых путей.
type SessionConfig struct {
	AccessCookie    string        `yaml:"access_cookie"    env:"SESSION_ACCESS_COOKIE"    env-default:"access-token"`
	RefreshCookie   string        `yaml:"refresh_cookie"   env:"SESSION_REFRESH_COOKIE"   env-default:"refresh-token"`
	MaxAge          time.Duration `yaml:"max_age"          env:"SESSION_MAX_AGE"          env-default:"168h"`
	ProtectedPrefix string        `yaml:"protected_prefix" env:"SESSION_PROTECTED_PREFIX" env-default:"/admin"`
	LoginPath       string        `yaml:"login_path"       env:"SESSION_LOGIN_PATH"       env-default:"/login"`
}

// IdentityConfig - внешний провайдер идентичности.
type IdentityConfig struct {
	Provider string        `yaml:"provider" env:"IDENTITY_PROVIDER" env-default:"gotrue"`
	URL      string        `yaml:"url"      env:"IDENTITY_URL"`
	APIKey   string        `yaml:"api_key"  env:"IDENTITY_API_KEY"`
	Timeout  time.Duration `yaml:"timeout"  env:"IDENTITY_TIMEOUT" env-default:"10s"`
	Memory   MemoryConfig  `yaml:"memory"`
}

// MemoryConfig - встроенный провайдер для local/dev и тестов.
type MemoryConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"        env:"MEMORY_JWT_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"  env:"MEMORY_ACCESS_TOKEN_TTL"  env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"MEMORY_REFRESH_TOKEN_TTL" env-default:"720h"`
	Users           []MemoryUser  `yaml:"users"`
}

// MemoryUser - учётная запись встроенного провайдера.
// Password - bcrypt-хэш ("$2a$...") либо открытый текст (хэшируется при старте).
type MemoryUser struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Confirmed bool   `yaml:"confirmed"`
}

// DBConfig - PostgreSQL для постов и профилей.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// MongoConfig - MongoDB для журнала активности.
type MongoConfig struct {
	URL string `yaml:"url" env:"MONGO_URL"`
}

// S3Config - MinIO/S3 для обложек постов.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"        env:"S3_ENDPOINT"`
	RootUser      string `yaml:"root_user"       env:"S3_ROOT_USER"`
	RootPassword  string `yaml:"root_password"   env:"S3_ROOT_PASSWORD"`
	Bucket        string `yaml:"bucket"          env:"S3_BUCKET" env-default:"images"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// CoversConfig - ограничения на загрузку обложек.
type CoversConfig struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes"        env:"COVER_MAX_SIZE_BYTES" env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"COVER_ALLOWED_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp,image/gif" env-separator:","`
}

// RedisConfig - Redis для ограничения попыток входа. Пустой URL выключает лимитер.
type RedisConfig struct {
	URL         string        `yaml:"url"          env:"REDIS_URL"`
	MaxAttempts int           `yaml:"max_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"10"`
	Window      time.Duration `yaml:"window"       env:"LOGIN_WINDOW"       env-default:"15m"`
}

// MustLoad - паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch {
	// 1) --config
	case path != "":
		c, err = tryRead(path)
	// 2) CONFIG_PATH
	case os.Getenv("CONFIG_PATH") != "":
		c, err = tryRead(os.Getenv("CONFIG_PATH"))
	// 3) ./local.yaml
	case fileExists("local.yaml"):
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}
		c = &cfg
	// 4) только ENV
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// validate - базовая валидация значений.
func (c *Config) validate() error {
	if c.Session.AccessCookie == "" || c.Session.RefreshCookie == "" {
		return fmt.Errorf("session cookie names are required")
	}

	if c.Session.AccessCookie == c.Session.RefreshCookie {
		return fmt.Errorf("session.access_cookie and session.refresh_cookie must differ")
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be > 0")
	}

	prefix := c.Session.ProtectedPrefix
	if !strings.HasPrefix(prefix, "/") || len(prefix) < 2 || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("session.protected_prefix must look like /segment")
	}

	if !strings.HasPrefix(c.Session.LoginPath, "/") {
		return fmt.Errorf("session.login_path must be absolute")
	}

	switch c.Identity.Provider {
	case ProviderGoTrue:
		if c.Identity.URL == "" {
			return fmt.Errorf("identity.url is required for provider %q", ProviderGoTrue)
		}
	case ProviderMemory:
		if c.IsProduction() {
			return fmt.Errorf("identity provider %q is not allowed in prod", ProviderMemory)
		}

		if c.Identity.Memory.JWTSecret == "" {
			return fmt.Errorf("identity.memory.jwt_secret is required for provider %q", ProviderMemory)
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.Redis.URL != "" {
		if c.Redis.MaxAttempts <= 0 {
			return fmt.Errorf("redis.max_attempts must be > 0")
		}

		if c.Redis.Window <= 0 {
			return fmt.Errorf("redis.window must be > 0")
		}
	}

	if c.Covers.MaxSizeBytes <= 0 {
		return fmt.Errorf("covers.max_size_bytes must be > 0")
	}

	return nil
}
