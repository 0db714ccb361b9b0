package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trustchain/pkg/cache"
	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
	"github.com/matzehuels/trustchain/pkg/observability"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

const fixture = "../../pkg/chain/testdata/example.com.json"

type fakeFetcher struct {
	resp *chain.Response
	errs map[string]error

	mu      sync.Mutex
	queries []chainapi.Query
	refresh []bool
}

func (f *fakeFetcher) FetchChain(_ context.Context, q chainapi.Query, refresh bool) (*chain.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	f.refresh = append(f.refresh, refresh)
	if err, ok := f.errs[q.Domain]; ok {
		return nil, err
	}
	return f.resp, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type testEnv struct {
	srv     *httptest.Server
	fetcher *fakeFetcher
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T, metrics *Metrics) *testEnv {
	t.Helper()
	resp, err := chain.ReadFile(fixture)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	f := &fakeFetcher{
		resp: resp,
		errs: map[string]error{
			"missing.example": tcerrors.New(tcerrors.ErrCodeNotFound, "chain api: no chain for missing.example"),
			"broken.example":  tcerrors.New(tcerrors.ErrCodeUpstream, "chain api: Could not build chain of trust"),
		},
	}
	mem, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	logs := &bytes.Buffer{}
	logger := log.NewWithOptions(logs, log.Options{Formatter: log.LogfmtFormatter})
	runner := pipeline.NewRunner(mem, nil, f, logger)

	s := New(runner, logger, Options{Metrics: metrics})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, fetcher: f, logs: logs}
}

func (e *testEnv) get(t *testing.T, path string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" || got["version"] == "" {
		t.Errorf("body = %v", got)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestGraphDOT(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/graph/Example.COM?format=dot")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(string(body), "digraph DNSSEC_Chain {") {
		t.Errorf("body does not look like DOT:\n%s", body)
	}
	if got := resp.Header.Get(headerCache); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	if resp.Header.Get("ETag") == "" {
		t.Error("missing ETag")
	}

	resp, again := env.get(t, "/graph/example.com?format=dot")
	if got := resp.Header.Get(headerCache); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	if !bytes.Equal(body, again) {
		t.Error("cached DOT differs from the first response")
	}
	if env.fetcher.calls() != 1 {
		t.Errorf("fetches = %d, want 1", env.fetcher.calls())
	}
}

func TestGraphJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/graph/example.com?format=json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Nodes) == 0 || len(doc.Edges) == 0 {
		t.Errorf("flow document has %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}
}

func TestGraphForwardsQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/graph/example.com?format=dot&user_id=alice&date=2024-05&refresh=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	q := env.fetcher.queries[0]
	if q.UserID != "alice" || q.Date != "2024-05" || !env.fetcher.refresh[0] {
		t.Errorf("query = %+v refresh=%v", q, env.fetcher.refresh[0])
	}

	logs := env.logs.String()
	for _, want := range []string{"event=graph", "user=alice", "domain=example.com", "date=2024-05"} {
		if !strings.Contains(logs, want) {
			t.Errorf("request log missing %q:\n%s", want, logs)
		}
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/summary/example.com")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got summaryBody
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Domain != "example.com" || got.Summary == nil || !got.Summary.ChainComplete {
		t.Errorf("summary = %+v", got)
	}
	if got.Stats.Levels != 3 || got.Stats.Clusters != 3 || got.Stats.Nodes == 0 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.Cached {
		t.Error("first summary should not be cached")
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		code   tcerrors.Code
	}{
		{"bad format", "/graph/example.com?format=gif", http.StatusBadRequest, tcerrors.ErrCodeInvalidFormat},
		{"png not served", "/graph/example.com?format=png", http.StatusBadRequest, tcerrors.ErrCodeInvalidFormat},
		{"bad domain", "/graph/bad..domain", http.StatusBadRequest, tcerrors.ErrCodeInvalidDomain},
		{"bad date", "/summary/example.com?date=2024-13", http.StatusBadRequest, tcerrors.ErrCodeInvalidDate},
		{"bad refresh", "/graph/example.com?refresh=maybe", http.StatusBadRequest, tcerrors.ErrCodeInvalidInput},
		{"not found", "/graph/missing.example?format=dot", http.StatusNotFound, tcerrors.ErrCodeNotFound},
		{"upstream", "/summary/broken.example", http.StatusBadGateway, tcerrors.ErrCodeUpstream},
		{"no route", "/nope", http.StatusNotFound, tcerrors.ErrCodeNotFound},
	}
	env := newTestEnv(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(t, tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var got errorBody
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode %q: %v", body, err)
			}
			if got.Code != tt.code || got.Error == "" {
				t.Errorf("body = %+v, want code %s", got, tt.code)
			}
		})
	}
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/graph/example.com?format=dot", headerRequestID, "req-42")
	if got := resp.Header.Get(headerRequestID); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
	if !strings.Contains(env.logs.String(), "request_id=req-42") {
		t.Error("request id missing from request log")
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/healthz", "Origin", "https://viewer.example.net")
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.Register()
	t.Cleanup(observability.Reset)
	env := newTestEnv(t, m)

	env.get(t, "/graph/example.com?format=dot")
	env.get(t, "/graph/example.com?format=dot")

	resp, body := env.get(t, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	text := string(body)
	for _, want := range []string{
		`trustchain_http_requests_total{route="/graph/{domain}",status="200"} 2`,
		`trustchain_cache_lookup_total{key_type="chain",result="hit"} 1`,
		`trustchain_cache_lookup_total{key_type="chain",result="miss"} 1`,
		`trustchain_chain_fetch_total{code="OK"} 1`,
		`trustchain_render_total{format="dot",result="ok"} 1`,
		`trustchain_build_info{commit="none",version="dev"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}
