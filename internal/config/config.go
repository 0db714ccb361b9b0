// Package config loads the trustchain configuration file.
//
// The file is TOML and optional; every field has a default. Lookup order
// for the file is the --config flag, $TRUSTCHAIN_CONFIG, then
// $XDG_CONFIG_HOME/trustchain/config.toml (~/.config/trustchain/config.toml).
// TRUSTCHAIN_API_URL and TRUSTCHAIN_USER_ID override the file.
//
//	api_url = "https://dnssec.example.net"
//	retries = 5
//
//	[cache]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"

	"github.com/matzehuels/trustchain/pkg/cache"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/httputil"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

const appName = "trustchain"

// Environment variables read by Load.
const (
	EnvConfig = "TRUSTCHAIN_CONFIG"
	EnvAPIURL = "TRUSTCHAIN_API_URL"
	EnvUserID = "TRUSTCHAIN_USER_ID"
)

// Config is the full configuration.
type Config struct {
	APIURL string       `toml:"api_url" default:"http://localhost:8000"`
	UserID string       `toml:"user_id"`
	Retry  int          `toml:"retries" default:"3"` // attempts per chain API request
	Cache  CacheConfig  `toml:"cache"`
	Redis  RedisConfig  `toml:"redis"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend" default:"file"`
	Dir      string   `toml:"dir"` // file backend; empty means the XDG cache dir
	Size     int      `toml:"size" default:"1024"`
	ChainTTL Duration `toml:"chain_ttl" default:"1h"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr" default:"localhost:6379"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix" default:"trustchain:"`
}

// ServerConfig configures `trustchain serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr" default:":8080"`
	CORSOrigins    []string `toml:"cors_origins" default:"[\"*\"]"`
	RequestTimeout Duration `toml:"request_timeout" default:"30s"`
	ReadTimeout    Duration `toml:"read_timeout" default:"10s"`
	WriteTimeout   Duration `toml:"write_timeout" default:"60s"`
	Metrics        bool     `toml:"metrics" default:"true"`
}

// RenderConfig holds render defaults for the CLI.
type RenderConfig struct {
	Formats  []string `toml:"formats" default:"[\"svg\"]"`
	Detailed bool     `toml:"detailed"`
	Scale    float64  `toml:"scale" default:"2"`
}

// Duration is a time.Duration written as "90s" or "1h".
type Duration time.Duration

// ToDuration converts Duration to time.Duration.
func (d Duration) ToDuration() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(data []byte) error {
	v, err := time.ParseDuration(string(data))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", data, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Load reads the config file at path. With an empty path it uses
// $TRUSTCHAIN_CONFIG or DefaultPath, and a missing file yields the
// defaults. An explicit path that doesn't exist is FILE_NOT_FOUND.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path, explicit = env, true
		} else if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			cfg = Default()
		case errors.Is(err, fs.ErrNotExist):
			return cfg, tcerrors.Wrap(tcerrors.ErrCodeFileNotFound, err, "config file %s", path)
		case err != nil:
			return cfg, tcerrors.Wrap(tcerrors.ErrCodeInvalidInput, err, "config file %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				sort.Strings(keys)
				return cfg, tcerrors.New(tcerrors.ErrCodeInvalidInput,
					"config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		c.UserID = v
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if err := tcerrors.ValidateURL(c.APIURL); err != nil {
		return tcerrors.Wrap(tcerrors.ErrCodeInvalidInput, err, "api_url")
	}
	if err := tcerrors.ValidateUserID(c.UserID); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendNone:
	default:
		return tcerrors.New(tcerrors.ErrCodeInvalidInput,
			"cache.backend must be one of file, memory, redis, none; got %q", c.Cache.Backend)
	}
	if c.Retry < 1 {
		return tcerrors.New(tcerrors.ErrCodeInvalidInput, "retries must be at least 1")
	}
	if c.Cache.Size <= 0 {
		return tcerrors.New(tcerrors.ErrCodeInvalidInput, "cache.size must be positive")
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if c.Server.RequestTimeout.ToDuration() <= 0 {
		return tcerrors.New(tcerrors.ErrCodeInvalidInput, "server.request_timeout must be positive")
	}
	return nil
}

// RetryPolicy returns the chain API retry policy: [httputil.DefaultPolicy]
// with the configured number of attempts.
func (c *Config) RetryPolicy() httputil.Policy {
	p := httputil.DefaultPolicy
	p.Attempts = c.Retry
	return p
}

// CacheOptions returns the options for cache.Open. An empty Dir resolves
// to DefaultCacheDir.
func (c *Config) CacheOptions() (cache.Options, error) {
	dir := c.Cache.Dir
	if dir == "" && c.Cache.Backend == cache.BackendFile {
		d, err := DefaultCacheDir()
		if err != nil {
			return cache.Options{}, err
		}
		dir = d
	}
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     dir,
		Size:    c.Cache.Size,
		Redis: cache.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
	}, nil
}

// OpenCache opens the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	opts, err := c.CacheOptions()
	if err != nil {
		return nil, err
	}
	return cache.Open(ctx, opts)
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/trustchain/config.toml, falling
// back to ~/.config/trustchain/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using XDG standard (~/.cache/trustchain/).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
