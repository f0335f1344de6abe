package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Credentials is one platform's OAuth client pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Publisher struct {
	Interval time.Duration
	Timeout  time.Duration
	Workers  int
}

// DefaultFrontendURL is where the dashboard runs in development.
const DefaultFrontendURL = "http://localhost:5173"

type Config struct {
	Facebook  Credentials
	Instagram Credentials
	Twitter   Credentials
	LinkedIn  Credentials
	TikTok    Credentials
	YouTube   Credentials
	Pinterest Credentials

	FrontendURL      string
	OAuthHTTPTimeout time.Duration

	EncryptionKey string
	SecretKey     string
	CookieName    string

	Port        string
	PostgresURI string
	RedisURI    string
	R2          R2

	Publisher            Publisher
	TokenRefreshSchedule string

	LogLevel  string
	LogFormat string
}

func LoadConfig() *Config {
	return &Config{
		Facebook: Credentials{
			ClientID:     getEnv("FACEBOOK_APP_ID", ""),
			ClientSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		},
		Instagram: Credentials{
			ClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
			ClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		},
		Twitter: Credentials{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		},
		LinkedIn: Credentials{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		},
		TikTok: Credentials{
			ClientID:     getEnv("TIKTOK_CLIENT_KEY", ""),
			ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		},
		YouTube: Credentials{
			ClientID:     getEnv("YOUTUBE_CLIENT_ID", ""),
			ClientSecret: getEnv("YOUTUBE_CLIENT_SECRET", ""),
		},
		Pinterest: Credentials{
			ClientID:     getEnv("PINTEREST_APP_ID", ""),
			ClientSecret: getEnv("PINTEREST_APP_SECRET", ""),
		},
		FrontendURL:      getEnv("FRONTEND_URL", DefaultFrontendURL),
		OAuthHTTPTimeout: getDuration("OAUTH_HTTP_TIMEOUT", 15*time.Second),
		EncryptionKey:    getEnv("ENCRYPTION_KEY", ""),
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "crosspost_session"),
		Port:             getEnv("PORT", "3000"),
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Publisher: Publisher{
			Interval: getDuration("PUBLISH_INTERVAL", 60*time.Second),
			Timeout:  getDuration("PUBLISH_TIMEOUT", 2*time.Minute),
			Workers:  getInt("PUBLISH_WORKERS", 10),
		},
		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 10m"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}
}

// FrontendBaseURL is FrontendURL without a trailing slash, falling back to
// DefaultFrontendURL when unset so redirects are never relative.
func (c *Config) FrontendBaseURL() string {
	if u := strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/"); u != "" {
		return u
	}
	return DefaultFrontendURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}
