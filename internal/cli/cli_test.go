package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/trustchain/internal/config"
	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"render", "serve", "watch", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestConfigPathCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join(xdg, "trustchain", "config.toml"); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}
}

func TestConfigShowTOML(t *testing.T) {
	c := newTestCLI(t)
	c.cfg.APIURL = "https://chains.example.net"

	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--toml"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{`api_url = "https://chains.example.net"`, `backend = "none"`, "[server]"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, out.String())
		}
	}
}

func TestNewRunnerCachesChainsOnce(t *testing.T) {
	var hits atomic.Int32
	var down atomic.Bool
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		http.ServeFile(w, r, fixture)
	}))
	t.Cleanup(api.Close)

	c := newTestCLI(t)
	c.cfg.APIURL = api.URL
	c.cfg.Cache.Backend = cache.BackendMemory
	c.cfg.Cache.ChainTTL = config.Duration(15 * time.Minute)
	c.cfg.Retry = 1

	ctx := context.Background()
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		t.Fatalf("newRunner() error: %v", err)
	}
	t.Cleanup(func() { runner.Close() })
	if runner.ChainTTL != 15*time.Minute {
		t.Errorf("ChainTTL = %v, want 15m", runner.ChainTTL)
	}

	opts := pipeline.Options{Domain: "example.com"}
	for range 2 {
		if _, _, err := runner.FetchWithCacheInfo(ctx, opts); err != nil {
			t.Fatalf("FetchWithCacheInfo() error: %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 served by the runner cache", n)
	}

	// The client has no cache of its own.
	if _, err := runner.Fetcher.FetchChain(ctx, chainapi.Query{Domain: "example.com"}, false); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}

	down.Store(true)
	if _, err := runner.Fetcher.FetchChain(ctx, chainapi.Query{Domain: "example.org"}, false); err == nil {
		t.Fatal("expected an error from a failing API")
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("requests = %d, want a single attempt with retries = 1", n)
	}
}
