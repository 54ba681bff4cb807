package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置，启动时加载一次后只读
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Identity    IdentityConfig
	RateLimit   RateLimitConfig
	Cache       CacheConfig
	LogLevel    slog.Level
}

type ServerConfig struct {
	Port           string
	TrustedProxies []string
}

type DatabaseConfig struct {
	URL string
}

type AuthConfig struct {
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration
	SecureCookie  bool
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type IdentityConfig struct {
	// UseRemoteAddr 直连地址是否可作为访客 IP。部署在代理后面时应关闭。
	UseRemoteAddr bool
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

const defaultDatabaseURL = "host=localhost user=postgres password=postgres dbname=postpulse port=5432 sslmode=disable"

// Load 读取 .env（如存在）和环境变量
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading env vars from system")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("database_url", defaultDatabaseURL)
	v.SetDefault("session_secret", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("secure_cookie", false)
	v.SetDefault("admin_name", "Super Admin")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("identity_use_remote_addr", true)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("post_cache_size", 500)
	v.SetDefault("post_cache_ttl", "10m")
	v.SetDefault("log_level", "info")

	cfg := Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		Server: ServerConfig{
			Port:           v.GetString("port"),
			TrustedProxies: splitList(v.GetString("trusted_proxies")),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database_url"),
		},
		Auth: AuthConfig{
			SessionSecret: v.GetString("session_secret"),
			JWTSecret:     v.GetString("jwt_secret"),
			TokenTTL:      v.GetDuration("token_ttl"),
			SecureCookie:  v.GetBool("secure_cookie"),
			AdminName:     v.GetString("admin_name"),
			AdminEmail:    v.GetString("admin_email"),
			AdminPassword: v.GetString("admin_password"),
		},
		Identity: IdentityConfig{
			UseRemoteAddr: v.GetBool("identity_use_remote_addr"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: v.GetInt("rate_limit_per_minute"),
			Burst:     v.GetInt("rate_limit_burst"),
		},
		Cache: CacheConfig{
			Size: v.GetInt("post_cache_size"),
			TTL:  v.GetDuration("post_cache_ttl"),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev_jwt_secret_change_me"
	}
	if c.Auth.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.Auth.SessionSecret = "secret_key_change_me"
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("POST_CACHE_SIZE must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
