// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Dictionary DictionaryConfig `toml:"dictionary"`
	Redis      RedisConfig      `toml:"redis"`
	Auth       AuthConfig       `toml:"auth"`
	Text       TextConfig       `toml:"text"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr            *string  `toml:"addr"`
	ReadTimeout     *string  `toml:"read-timeout"`
	WriteTimeout    *string  `toml:"write-timeout"`
	ShutdownTimeout *string  `toml:"shutdown-timeout"`
	CORSOrigins     []string `toml:"cors-origins"`
	RateLimit       *int     `toml:"rate-limit"`
	RateWindow      *string  `toml:"rate-window"`
	TrustedProxies  []string `toml:"trusted-proxies"`
}

// DatabaseConfig maps storage settings.
type DatabaseConfig struct {
	Driver *string `toml:"driver"`
	DSN    *string `toml:"dsn"`
}

// DictionaryConfig maps word list settings.
type DictionaryConfig struct {
	Dir       *string `toml:"dir"`
	Cache     *string `toml:"cache"`
	CacheSize *int    `toml:"cache-size"`
	CacheTTL  *string `toml:"cache-ttl"`
}

// RedisConfig maps the redis connection used by the dictionary cache.
type RedisConfig struct {
	Addr     *string `toml:"addr"`
	Password *string `toml:"password"`
	DB       *int    `toml:"db"`
}

// AuthConfig maps token verification settings.
type AuthConfig struct {
	JWTSecret *string `toml:"jwt-secret"`
}

// TextConfig maps text generation and history settings.
type TextConfig struct {
	AdaptiveLength *int `toml:"adaptive-length"`
	PlainWords     *int `toml:"plain-words"`
	Retention      *int `toml:"retention"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	File       *string `toml:"file"`
	MaxSize    *int    `toml:"max-size"`
	MaxBackups *int    `toml:"max-backups"`
	MaxAge     *int    `toml:"max-age"`
	Compress   *bool   `toml:"compress"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overwrites s with every value present in the file.
func (fc FileConfig) Apply(s *Settings) error {
	setString(&s.Server.Addr, fc.Server.Addr)
	if err := setDuration(&s.Server.ReadTimeout, fc.Server.ReadTimeout, "server.read-timeout"); err != nil {
		return err
	}
	if err := setDuration(&s.Server.WriteTimeout, fc.Server.WriteTimeout, "server.write-timeout"); err != nil {
		return err
	}
	if err := setDuration(&s.Server.ShutdownTimeout, fc.Server.ShutdownTimeout, "server.shutdown-timeout"); err != nil {
		return err
	}
	if fc.Server.CORSOrigins != nil {
		s.Server.CORSOrigins = append([]string(nil), fc.Server.CORSOrigins...)
	}
	setInt(&s.Server.RateLimit, fc.Server.RateLimit)
	if err := setDuration(&s.Server.RateWindow, fc.Server.RateWindow, "server.rate-window"); err != nil {
		return err
	}
	if fc.Server.TrustedProxies != nil {
		s.Server.TrustedProxies = append([]string(nil), fc.Server.TrustedProxies...)
	}

	setString(&s.Database.Driver, fc.Database.Driver)
	setString(&s.Database.DSN, fc.Database.DSN)

	setString(&s.Dictionary.Dir, fc.Dictionary.Dir)
	setString(&s.Dictionary.Cache, fc.Dictionary.Cache)
	setInt(&s.Dictionary.CacheSize, fc.Dictionary.CacheSize)
	if err := setDuration(&s.Dictionary.CacheTTL, fc.Dictionary.CacheTTL, "dictionary.cache-ttl"); err != nil {
		return err
	}

	setString(&s.Redis.Addr, fc.Redis.Addr)
	setString(&s.Redis.Password, fc.Redis.Password)
	setInt(&s.Redis.DB, fc.Redis.DB)

	setString(&s.Auth.JWTSecret, fc.Auth.JWTSecret)

	setInt(&s.Text.AdaptiveLength, fc.Text.AdaptiveLength)
	setInt(&s.Text.PlainWords, fc.Text.PlainWords)
	setInt(&s.Text.Retention, fc.Text.Retention)

	setString(&s.Log.Level, fc.Log.Level)
	setString(&s.Log.File, fc.Log.File)
	setInt(&s.Log.MaxSize, fc.Log.MaxSize)
	setInt(&s.Log.MaxBackups, fc.Log.MaxBackups)
	setInt(&s.Log.MaxAge, fc.Log.MaxAge)
	if fc.Log.Compress != nil {
		s.Log.Compress = *fc.Log.Compress
	}
	return nil
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value *string, key string) error {
	if value == nil {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = d
	return nil
}
