// Package session tracks what a viewer is currently looking at.
//
// A [Session] turns user events (pick a domain, refresh, step to another
// month) into pipeline loads and keeps the latest result. Loads can
// overlap: a user may type a new domain while the previous one is still
// being fetched. The session applies last-request-wins:
//
//   - every Load takes a new sequence number and cancels the load before it
//   - a load that finishes after a newer one started is discarded and
//     returns [ErrSuperseded]
//   - a failed load replaces the view with the empty graph and no summary,
//     keeping the error for display
//
// # Usage
//
//	s := session.New(runner, "user-1")
//	st, err := s.Load(ctx, session.Request{Domain: "example.com"})
//	if errors.Is(err, session.ErrSuperseded) {
//	    return // a newer request owns the view
//	}
//	render(st.Graph, st.Summary, st.Err)
//
// [FileStore] persists the last request so a viewer can resume where it
// left off.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/trustchain/pkg/chain"
	"github.com/matzehuels/trustchain/pkg/chaingraph"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/observability"
	"github.com/matzehuels/trustchain/pkg/pipeline"
)

// ErrSuperseded is returned by Load when a newer load started before it
// finished. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

var errNothingLoaded = tcerrors.New(tcerrors.ErrCodeInvalidDomain, "nothing loaded yet")

// Request is one user event.
type Request struct {
	Domain  string `json:"domain"`
	UserID  string `json:"user_id,omitempty"`
	Date    string `json:"date,omitempty"` // YYYY-MM, empty for the current month
	Refresh bool   `json:"-"`
}

// State is what the session currently shows.
//
// Zero values: a session that never loaded has Seq 0, an empty Graph and
// no Summary. Graph is never nil in a State returned by this package.
type State struct {
	Seq      uint64
	Request  Request
	Graph    *chaingraph.Graph
	Summary  *chain.Summary
	Err      error
	LoadedAt time.Time
	Cached   bool // Chain came from cache
}

// Session serializes loads for one viewer. It is safe for concurrent use.
type Session struct {
	ID     string
	runner *pipeline.Runner
	userID string
	now    func() time.Time

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	pending Request // last issued request, possibly still loading
	state   State
}

// New creates a session loading through runner. userID is forwarded
// with requests that don't set their own.
func New(runner *pipeline.Runner, userID string) *Session {
	return &Session{
		ID:     uuid.NewString(),
		runner: runner,
		userID: userID,
		now:    time.Now,
		state:  State{Graph: chaingraph.Empty()},
	}
}

// Current returns the latest completed state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the most recently issued request. It runs ahead of
// Current().Request while a load is in flight.
func (s *Session) Pending() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Load fetches and compiles req, cancelling any load still in flight.
//
// On success the returned state becomes current. On failure the current
// state becomes the empty graph with the error recorded, and the error is
// returned as well. If a newer Load started meanwhile, nothing changes and
// ErrSuperseded is returned.
func (s *Session) Load(ctx context.Context, req Request) (State, error) {
	return s.issue(ctx, func(Request) (Request, error) { return req, nil })
}

// issue derives the next request from the pending one and starts loading
// it. Deriving and registering happen under one lock so concurrent events
// build on each other.
func (s *Session) issue(ctx context.Context, next func(pending Request) (Request, error)) (State, error) {
	s.mu.Lock()
	req, err := next(s.pending)
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}
	if req.UserID == "" {
		req.UserID = s.userID
	}
	s.seq++
	seq := s.seq
	s.pending = req
	s.pending.Refresh = false
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	st := s.load(ctx, seq, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		observability.Pipeline().OnSuperseded(ctx, st.Request.Domain)
		return State{}, ErrSuperseded
	}
	s.cancel = nil
	s.state = st
	return st, st.Err
}

func (s *Session) load(ctx context.Context, seq uint64, req Request) State {
	opts := pipeline.Options{
		Domain:  req.Domain,
		UserID:  req.UserID,
		Date:    req.Date,
		Refresh: req.Refresh,
	}
	st := State{Seq: seq, Request: req, Graph: chaingraph.Empty(), LoadedAt: s.now()}

	if err := opts.ValidateForFetch(); err != nil {
		st.Err = err
		return st
	}
	st.Request.Domain = opts.Domain

	resp, hit, err := s.runner.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		st.Err = err
		return st
	}
	st.Graph = s.runner.Compile(ctx, opts.Domain, resp)
	st.Summary = resp.Summary
	st.Cached = hit
	return st
}

// Refresh reloads the last issued request bypassing caches.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	return s.issue(ctx, func(req Request) (Request, error) {
		if req.Domain == "" {
			return req, errNothingLoaded
		}
		req.Refresh = true
		return req, nil
	})
}

// ShiftMonth reloads the last issued domain delta months away from its
// month selector. Repeated shifts accumulate even while loads are in flight.
func (s *Session) ShiftMonth(ctx context.Context, delta int) (State, error) {
	return s.issue(ctx, func(req Request) (Request, error) {
		if req.Domain == "" {
			return req, errNothingLoaded
		}
		month, err := tcerrors.ShiftMonth(req.Date, delta, s.now())
		if err != nil {
			return req, err
		}
		req.Date = month
		req.Refresh = false
		return req, nil
	})
}

// Close cancels any load in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
