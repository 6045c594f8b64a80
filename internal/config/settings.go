package config

import (
	"fmt"
	"time"
)

// Cache backends for dictionaries.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	Server     ServerSettings
	Database   DatabaseSettings
	Dictionary DictionarySettings
	Redis      RedisSettings
	Auth       AuthSettings
	Text       TextSettings
	Log        LogSettings
}

type ServerSettings struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int
	RateWindow      time.Duration
	TrustedProxies  []string
}

type DatabaseSettings struct {
	Driver string
	DSN    string
}

type DictionarySettings struct {
	Dir       string
	Cache     string
	CacheSize int
	CacheTTL  time.Duration
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

type AuthSettings struct {
	JWTSecret string
}

type TextSettings struct {
	AdaptiveLength int
	PlainWords     int
	Retention      int
}

type LogSettings struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Default returns the settings used when neither file nor flags set a value.
func Default() Settings {
	return Settings{
		Server: ServerSettings{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RateLimit:       30,
			RateWindow:      time.Minute,
		},
		Database: DatabaseSettings{
			Driver: "sqlite",
			DSN:    DefaultDBPath(),
		},
		Dictionary: DictionarySettings{
			Dir:       DefaultDictionaryDir(),
			Cache:     CacheMemory,
			CacheSize: 16,
			CacheTTL:  time.Hour,
		},
		Redis: RedisSettings{
			Addr: "localhost:6379",
		},
		Text: TextSettings{
			AdaptiveLength: 300,
			PlainWords:     50,
			Retention:      5,
		},
		Log: LogSettings{
			Level:      "info",
			File:       DefaultLogPath(),
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (s Settings) Validate() error {
	if s.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt-secret must be set")
	}
	switch s.Dictionary.Cache {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("dictionary.cache must be one of %q, %q, %q", CacheMemory, CacheRedis, CacheNone)
	}
	if s.Text.AdaptiveLength <= 0 {
		return fmt.Errorf("text.adaptive-length must be > 0")
	}
	if s.Text.PlainWords <= 0 {
		return fmt.Errorf("text.plain-words must be > 0")
	}
	if s.Text.Retention <= 0 {
		return fmt.Errorf("text.retention must be > 0")
	}
	if s.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate-limit must be >= 0")
	}
	if s.Server.RateLimit > 0 && s.Server.RateWindow <= 0 {
		return fmt.Errorf("server.rate-window must be > 0")
	}
	return nil
}
