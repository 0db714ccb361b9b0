package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/trustchain/pkg/cache"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvUserID, "")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Cache.Size != 1024 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.ChainTTL.ToDuration() != time.Hour {
		t.Errorf("ChainTTL = %s, want 1h", cfg.Cache.ChainTTL)
	}
	if cfg.Retry != 3 {
		t.Errorf("Retry = %d, want 3", cfg.Retry)
	}
	if cfg.Redis.Prefix != "trustchain:" {
		t.Errorf("Redis.Prefix = %q", cfg.Redis.Prefix)
	}
	if cfg.Server.Addr != ":8080" || !cfg.Server.Metrics {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if len(cfg.Render.Formats) != 1 || cfg.Render.Formats[0] != "svg" || cfg.Render.Scale != 2 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != Default().APIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.toml"))
	if !tcerrors.Is(err, tcerrors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
api_url = "https://dnssec.example.net"
user_id = "alice"
retries = 5

[cache]
backend = "redis"
chain_ttl = "15m"

[redis]
addr = "redis:6379"
db = 2

[server]
addr = "127.0.0.1:9000"
cors_origins = ["https://viewer.example.net"]

[render]
formats = ["svg", "json"]
detailed = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != "https://dnssec.example.net" || cfg.UserID != "alice" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Retry != 5 || cfg.RetryPolicy().Attempts != 5 {
		t.Errorf("Retry = %d, policy = %+v", cfg.Retry, cfg.RetryPolicy())
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.ChainTTL.ToDuration() != 15*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Size != 1024 {
		t.Errorf("unset Cache.Size = %d, want default", cfg.Cache.Size)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 || cfg.Redis.Prefix != "trustchain:" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.CORSOrigins[0] != "https://viewer.example.net" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout.ToDuration() != 30*time.Second {
		t.Errorf("RequestTimeout = %s, want default 30s", cfg.Server.RequestTimeout)
	}
	if len(cfg.Render.Formats) != 2 || !cfg.Render.Detailed {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `user_id = "from-file"`)
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UserID != "from-file" {
		t.Errorf("UserID = %q", cfg.UserID)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `api_url = "https://file.example.net"`)
	t.Setenv(EnvAPIURL, "https://env.example.net")
	t.Setenv(EnvUserID, "bob")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIURL != "https://env.example.net" || cfg.UserID != "bob" {
		t.Errorf("cfg = %+v, want env values", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "api_urll = \"http://x\"", "unknown keys: api_urll"},
		{"unknown section key", "[cache]\nttl = \"1h\"", "unknown keys: cache.ttl"},
		{"bad toml", "api_url = ", "config file"},
		{"bad duration", "[cache]\nchain_ttl = \"soon\"", "config file"},
		{"removed http_ttl", "[cache]\nhttp_ttl = \"1h\"", "unknown keys: cache.http_ttl"},
		{"no attempts", "retries = 0", "retries must be at least 1"},
		{"bad scheme", "api_url = \"ftp://x\"", "http or https"},
		{"bad backend", "[cache]\nbackend = \"disk\"", "cache.backend"},
		{"bad size", "[cache]\nsize = 0", "cache.size"},
		{"bad format", "[render]\nformats = [\"gif\"]", "gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeConfig(t, dir, tt.body)

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCacheOptions(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	opts, err := cfg.CacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Dir != filepath.Join(dir, "cache", "trustchain") {
		t.Errorf("Dir = %q, want XDG cache dir", opts.Dir)
	}
	if opts.Redis.Prefix != "trustchain:" || opts.Size != 1024 {
		t.Errorf("opts = %+v", opts)
	}

	cfg.Cache.Backend = cache.BackendMemory
	opts, _ = cfg.CacheOptions()
	if opts.Dir != "" {
		t.Errorf("memory backend Dir = %q, want empty", opts.Dir)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/xdg", "trustchain", "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}

	t.Setenv("XDG_CACHE_HOME", "/xdgcache")
	d, _ := DefaultCacheDir()
	if d != filepath.Join("/xdgcache", "trustchain") {
		t.Errorf("DefaultCacheDir() = %q", d)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.UserID = "carol"

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), `chain_ttl = "1h0m0s"`) {
		t.Errorf("durations should encode as text:\n%s", buf.String())
	}

	path := writeConfig(t, dir, buf.String())
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written) error: %v", err)
	}
	if got.UserID != "carol" || got.Cache.ChainTTL != cfg.Cache.ChainTTL {
		t.Errorf("round trip = %+v", got)
	}
}
