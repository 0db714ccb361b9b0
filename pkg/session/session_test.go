package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

const fixture = "../chain/testdata/example.com.json"

// stubFetcher serves the fixture, fails for "fail.example" and blocks on
// "slow.example" until its context is cancelled. With hold set, every
// other fetch waits for hold to close or its context to end.
type stubFetcher struct {
	resp    *chain.Response
	started chan string
	hold    chan struct{}

	mu      sync.Mutex
	queries []chainapi.Query
	refresh []bool
}

func (f *stubFetcher) FetchChain(ctx context.Context, q chainapi.Query, refresh bool) (*chain.Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.refresh = append(f.refresh, refresh)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- q.Domain
	}

	switch q.Domain {
	case "slow.example":
		<-ctx.Done()
		return nil, ctx.Err()
	case "fail.example":
		return nil, tcerrors.New(tcerrors.ErrCodeUpstream, "chain api: Could not build chain of trust")
	}
	if f.hold != nil {
		select {
		case <-f.hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, nil
}

func (f *stubFetcher) last() (chainapi.Query, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1], f.refresh[len(f.refresh)-1]
}

func newTestSession(t *testing.T) (*Session, *stubFetcher) {
	t.Helper()
	resp, err := chain.ReadFile(fixture)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	f := &stubFetcher{resp: resp}
	runner := pipeline.NewRunner(nil, nil, f, log.New(io.Discard))
	s := New(runner, "viewer")
	s.now = func() time.Time { return time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(s.Close)
	return s, f
}

func TestNewSession(t *testing.T) {
	s, _ := newTestSession(t)
	if s.ID == "" {
		t.Error("session ID empty")
	}
	st := s.Current()
	if st.Graph == nil || !st.Graph.IsEmpty() {
		t.Error("new session should show the empty graph")
	}
	if st.Seq != 0 || st.Summary != nil {
		t.Errorf("new session state = %+v", st)
	}
}

func TestLoad(t *testing.T) {
	s, f := newTestSession(t)

	st, err := s.Load(context.Background(), Request{Domain: "Example.COM."})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if st.Graph.ClusterCount() != 3 {
		t.Errorf("clusters = %d, want 3", st.Graph.ClusterCount())
	}
	if st.Summary == nil || !st.Summary.ChainComplete {
		t.Error("summary missing")
	}
	if st.Request.Domain != "example.com" {
		t.Errorf("Request.Domain = %q, want normalized", st.Request.Domain)
	}
	if st.Seq != 1 {
		t.Errorf("Seq = %d, want 1", st.Seq)
	}

	q, _ := f.last()
	if q.UserID != "viewer" {
		t.Errorf("UserID = %q, want session default", q.UserID)
	}
	if cur := s.Current(); cur.Seq != st.Seq || cur.Graph != st.Graph {
		t.Error("Current() should return the loaded state")
	}
}

func TestLoadFailureClearsView(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Load(ctx, Request{Domain: "example.com"}); err != nil {
		t.Fatal(err)
	}

	st, err := s.Load(ctx, Request{Domain: "fail.example"})
	if !tcerrors.Is(err, tcerrors.ErrCodeUpstream) {
		t.Fatalf("Load() error = %v, want UPSTREAM_ERROR", err)
	}
	if !st.Graph.IsEmpty() {
		t.Error("failed load should show the empty graph")
	}
	if st.Summary != nil {
		t.Error("failed load should clear the summary")
	}
	cur := s.Current()
	if cur.Err == nil || !cur.Graph.IsEmpty() || cur.Summary != nil {
		t.Errorf("current state after failure = %+v", cur)
	}
}

func TestLoadInvalidDomain(t *testing.T) {
	s, f := newTestSession(t)

	st, err := s.Load(context.Background(), Request{Domain: "not a domain"})
	if !tcerrors.Is(err, tcerrors.ErrCodeInvalidDomain) {
		t.Fatalf("Load() error = %v, want INVALID_DOMAIN", err)
	}
	if !st.Graph.IsEmpty() {
		t.Error("invalid domain should show the empty graph")
	}
	if len(f.queries) != 0 {
		t.Error("invalid domain should not be fetched")
	}
}

func TestLoadLastRequestWins(t *testing.T) {
	s, f := newTestSession(t)
	f.started = make(chan string, 2)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.Load(ctx, Request{Domain: "slow.example"})
		done <- err
	}()
	if got := <-f.started; got != "slow.example" {
		t.Fatalf("first fetch = %q", got)
	}

	st, err := s.Load(ctx, Request{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	<-f.started

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("older load error = %v, want ErrSuperseded", err)
	}
	cur := s.Current()
	if cur.Request.Domain != "example.com" || cur.Seq != st.Seq {
		t.Errorf("current = %s (seq %d), want example.com (seq %d)", cur.Request.Domain, cur.Seq, st.Seq)
	}
	if cur.Err != nil {
		t.Errorf("superseded load leaked its error: %v", cur.Err)
	}
}

func TestRefresh(t *testing.T) {
	s, f := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Refresh(ctx); !tcerrors.Is(err, tcerrors.ErrCodeInvalidDomain) {
		t.Errorf("Refresh() before load error = %v", err)
	}

	if _, err := s.Load(ctx, Request{Domain: "example.com", Date: "2024-05"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	q, refresh := f.last()
	if !refresh {
		t.Error("Refresh() should bypass caches")
	}
	if q.Date != "2024-05" {
		t.Errorf("Refresh() date = %q, want 2024-05", q.Date)
	}
}

func TestShiftMonth(t *testing.T) {
	s, f := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Load(ctx, Request{Domain: "example.com"}); err != nil {
		t.Fatal(err)
	}

	st, err := s.ShiftMonth(ctx, -1)
	if err != nil {
		t.Fatalf("ShiftMonth() error: %v", err)
	}
	if st.Request.Date != "2025-02" {
		t.Errorf("Date = %q, want 2025-02", st.Request.Date)
	}

	if _, err := s.ShiftMonth(ctx, 2); err != nil {
		t.Fatal(err)
	}
	q, refresh := f.last()
	if q.Date != "2025-04" || refresh {
		t.Errorf("query = %+v refresh=%v, want 2025-04 without refresh", q, refresh)
	}
}

type loadResult struct {
	st  State
	err error
}

// goLoad runs fn in the background and waits until its fetch has started.
func goLoad(t *testing.T, f *stubFetcher, fn func() (State, error)) (<-chan loadResult, chainapi.Query) {
	t.Helper()
	out := make(chan loadResult, 1)
	go func() {
		st, err := fn()
		out <- loadResult{st, err}
	}()
	select {
	case <-f.started:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not start")
	}
	q, _ := f.last()
	return out, q
}

func TestShiftMonthWhileLoading(t *testing.T) {
	s, f := newTestSession(t)
	f.started = make(chan string, 4)
	f.hold = make(chan struct{})
	ctx := context.Background()

	first, _ := goLoad(t, f, func() (State, error) {
		return s.Load(ctx, Request{Domain: "example.com", Date: "2025-03"})
	})
	shift1, q1 := goLoad(t, f, func() (State, error) { return s.ShiftMonth(ctx, 1) })
	shift2, q2 := goLoad(t, f, func() (State, error) { return s.ShiftMonth(ctx, 1) })
	if q1.Date != "2025-04" || q2.Date != "2025-05" {
		t.Fatalf("shift dates = %s, %s; want 2025-04, 2025-05", q1.Date, q2.Date)
	}
	if p := s.Pending(); p.Date != "2025-05" || p.Domain != "example.com" {
		t.Errorf("Pending() = %+v", p)
	}
	close(f.hold)

	for _, ch := range []<-chan loadResult{first, shift1} {
		if r := <-ch; !errors.Is(r.err, ErrSuperseded) {
			t.Errorf("older load error = %v, want ErrSuperseded", r.err)
		}
	}
	r := <-shift2
	if r.err != nil || r.st.Request.Date != "2025-05" {
		t.Fatalf("last shift = %s, %v; want 2025-05", r.st.Request.Date, r.err)
	}
	if cur := s.Current(); cur.Request.Date != "2025-05" {
		t.Errorf("current date = %s, want 2025-05", cur.Request.Date)
	}
}

func TestRefreshDuringDomainChange(t *testing.T) {
	s, f := newTestSession(t)
	ctx := context.Background()
	if _, err := s.Load(ctx, Request{Domain: "example.com"}); err != nil {
		t.Fatal(err)
	}

	f.started = make(chan string, 4)
	f.hold = make(chan struct{})
	change, _ := goLoad(t, f, func() (State, error) {
		return s.Load(ctx, Request{Domain: "example.org"})
	})
	refresh, q := goLoad(t, f, func() (State, error) { return s.Refresh(ctx) })
	if q.Domain != "example.org" {
		t.Fatalf("refresh fetched %s, want the pending example.org", q.Domain)
	}
	close(f.hold)

	if r := <-change; !errors.Is(r.err, ErrSuperseded) {
		t.Errorf("domain change error = %v, want ErrSuperseded", r.err)
	}
	r := <-refresh
	if r.err != nil || r.st.Request.Domain != "example.org" {
		t.Fatalf("refresh = %s, %v; want example.org", r.st.Request.Domain, r.err)
	}
	if _, bypass := f.last(); !bypass {
		t.Error("refresh should bypass caches")
	}
	if p := s.Pending(); p.Refresh {
		t.Error("Pending() should not keep the refresh flag")
	}
}
