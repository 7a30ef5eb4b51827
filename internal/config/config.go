package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/satsrate/internal/offline"
	"github.com/five82/satsrate/internal/quote"
	"github.com/five82/satsrate/internal/share"
)

// Config holds everything the converter and the offline host read at startup.
type Config struct {
	QuoteURL           string
	ShareBaseURL       string
	MinRefreshInterval time.Duration

	Listen          string
	AssetOrigin     string
	CacheVersion    string
	CachePrefix     string
	Assets          []string
	AutoSkipWaiting bool
	CacheBackend    string
	RedisURL        string

	LogLevel  string
	LogFormat string
	LogFile   string
	LogMaxAge int // days
}

const (
	defaultConfigPath         = "~/.config/satsrate/config.toml"
	defaultLogFile            = "~/.local/state/satsrate/satsrate.log"
	defaultListen             = "127.0.0.1:8080"
	defaultMinRefreshInterval = 2 * time.Second
	defaultLogMaxAge          = 14

	BackendMemory = "memory"
	BackendRedis  = "redis"

	envPrefix = "SATSRATE_"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		QuoteURL:           quote.DefaultURL,
		ShareBaseURL:       share.DefaultBaseURL,
		MinRefreshInterval: defaultMinRefreshInterval,
		Listen:             defaultListen,
		AssetOrigin:        share.DefaultBaseURL,
		CacheVersion:       offline.DefaultVersion,
		CachePrefix:        offline.DefaultPrefix,
		AutoSkipWaiting:    true,
		CacheBackend:       BackendMemory,
		LogLevel:           "info",
		LogFormat:          "json",
		LogFile:            mustExpand(defaultLogFile),
		LogMaxAge:          defaultLogMaxAge,
	}
}

type fileConfig struct {
	QuoteURL           string   `toml:"quote_url"`
	ShareBaseURL       string   `toml:"share_base_url"`
	MinRefreshInterval string   `toml:"min_refresh_interval"`
	Listen             string   `toml:"listen"`
	AssetOrigin        string   `toml:"asset_origin"`
	CacheVersion       string   `toml:"cache_version"`
	CachePrefix        string   `toml:"cache_prefix"`
	Assets             []string `toml:"assets"`
	AutoSkipWaiting    *bool    `toml:"auto_skip_waiting"`
	CacheBackend       string   `toml:"cache_backend"`
	RedisURL           string   `toml:"redis_url"`
	LogLevel           string   `toml:"log_level"`
	LogFormat          string   `toml:"log_format"`
	LogFile            string   `toml:"log_file"`
	LogMaxAge          *int     `toml:"log_max_age_days"`
}

// Load reads the TOML config at path (the default location when empty),
// applies SATSRATE_* environment overrides and validates the result. A
// missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&raw)

	cfg := Default()
	setString(&cfg.QuoteURL, raw.QuoteURL)
	setString(&cfg.ShareBaseURL, raw.ShareBaseURL)
	setString(&cfg.Listen, raw.Listen)
	setString(&cfg.AssetOrigin, raw.AssetOrigin)
	setString(&cfg.CacheVersion, raw.CacheVersion)
	setString(&cfg.CachePrefix, raw.CachePrefix)
	setString(&cfg.CacheBackend, strings.ToLower(raw.CacheBackend))
	setString(&cfg.RedisURL, raw.RedisURL)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	if s := strings.TrimSpace(raw.LogFile); s != "" {
		switch s {
		case "stdout", "stderr":
			cfg.LogFile = s
		default:
			cfg.LogFile = mustExpand(s)
		}
	}
	for _, a := range raw.Assets {
		if a = strings.TrimSpace(a); a != "" {
			cfg.Assets = append(cfg.Assets, a)
		}
	}
	if raw.AutoSkipWaiting != nil {
		cfg.AutoSkipWaiting = *raw.AutoSkipWaiting
	}
	if raw.LogMaxAge != nil {
		cfg.LogMaxAge = *raw.LogMaxAge
	}
	if s := strings.TrimSpace(raw.MinRefreshInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("parse min_refresh_interval: %w", err)
		}
		cfg.MinRefreshInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.MinRefreshInterval < 0 {
		return errors.New("min_refresh_interval must not be negative")
	}
	if c.LogMaxAge < 0 {
		return errors.New("log_max_age_days must not be negative")
	}
	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("redis_url is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache_backend %q", c.CacheBackend)
	}
	if strings.TrimSpace(c.CacheVersion) == "" {
		return errors.New("cache_version must not be empty")
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

// applyEnv lets SATSRATE_<FIELD> override the file value.
func applyEnv(raw *fileConfig) {
	strs := map[string]*string{
		"QUOTE_URL":            &raw.QuoteURL,
		"SHARE_BASE_URL":       &raw.ShareBaseURL,
		"MIN_REFRESH_INTERVAL": &raw.MinRefreshInterval,
		"LISTEN":               &raw.Listen,
		"ASSET_ORIGIN":         &raw.AssetOrigin,
		"CACHE_VERSION":        &raw.CacheVersion,
		"CACHE_PREFIX":         &raw.CachePrefix,
		"CACHE_BACKEND":        &raw.CacheBackend,
		"REDIS_URL":            &raw.RedisURL,
		"LOG_LEVEL":            &raw.LogLevel,
		"LOG_FORMAT":           &raw.LogFormat,
		"LOG_FILE":             &raw.LogFile,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "ASSETS"); ok {
		raw.Assets = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv(envPrefix + "AUTO_SKIP_WAITING"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			raw.AutoSkipWaiting = &b
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_MAX_AGE_DAYS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			raw.LogMaxAge = &n
		}
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
