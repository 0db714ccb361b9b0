package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/trustchain/pkg/chain"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/integrations/chainapi"
	"github.com/matzehuels/trustchain/pkg/pipeline"
	"github.com/matzehuels/trustchain/pkg/session"
)

const fixture = "../../pkg/chain/testdata/example.com.json"

// stubFetcher fails for "fail.example". With hold set, fetches wait for
// it to close.
type stubFetcher struct {
	resp *chain.Response
	hold chan struct{}
}

func (f stubFetcher) FetchChain(ctx context.Context, q chainapi.Query, _ bool) (*chain.Response, error) {
	if q.Domain == "fail.example" {
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

func newTestWatch(t *testing.T, start session.Request) (watchModel, *session.FileStore) {
	t.Helper()
	return newHeldWatch(t, start, nil)
}

func newHeldWatch(t *testing.T, start session.Request, hold chan struct{}) (watchModel, *session.FileStore) {
	t.Helper()
	resp, err := chain.ReadFile(fixture)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	runner := pipeline.NewRunner(nil, nil, stubFetcher{resp: resp, hold: hold}, log.New(io.Discard))
	sess := session.New(runner, "viewer")
	t.Cleanup(sess.Close)

	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return newWatchModel(context.Background(), sess, store, start), store
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step applies msg and runs any returned load synchronously.
func step(t *testing.T, m watchModel, msg tea.Msg) (watchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(watchModel), cmd
}

func finish(t *testing.T, m watchModel, cmd tea.Cmd) watchModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	msg, ok := cmd().(loadedMsg)
	if !ok {
		t.Fatal("command did not produce a load result")
	}
	m, _ = step(t, m, msg)
	return m
}

func TestWatchTypeAndLoad(t *testing.T) {
	m, store := newTestWatch(t, session.Request{})
	if !m.editing || m.Init() != nil {
		t.Fatal("empty start should open the input without loading")
	}

	for _, s := range []string{"example", ".", "comx"} {
		m, _ = step(t, m, key(s))
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.input != "example.com" {
		t.Fatalf("input = %q", m.input)
	}

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.loading || m.editing {
		t.Error("enter should start loading and leave the input")
	}
	m = finish(t, m, cmd)

	if m.loading || m.err != nil {
		t.Fatalf("loading = %v, err = %v", m.loading, m.err)
	}
	if m.state.Graph.ClusterCount() != 3 {
		t.Errorf("clusters = %d, want 3", m.state.Graph.ClusterCount())
	}
	view := m.View()
	for _, want := range []string{"example.com", "3 levels", "r refresh"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	last, ok, err := store.Last()
	if err != nil || !ok || last.Domain != "example.com" {
		t.Errorf("store.Last() = %+v, %v, %v", last, ok, err)
	}
}

func TestWatchStartLoads(t *testing.T) {
	m, _ := newTestWatch(t, session.Request{Domain: "example.com"})
	if m.editing {
		t.Error("a start domain should skip the input")
	}
	m = finish(t, m, m.Init())
	if m.state.Request.Domain != "example.com" {
		t.Errorf("domain = %q", m.state.Request.Domain)
	}
}

func TestWatchMonthAndRefresh(t *testing.T) {
	m, _ := newTestWatch(t, session.Request{Domain: "example.com"})

	// Nothing loaded yet: month keys do nothing.
	if _, cmd := step(t, m, key("]")); cmd != nil {
		t.Error("] before a load should be ignored")
	}

	m = finish(t, m, m.Init())
	m2, cmd := step(t, m, key("["))
	m2 = finish(t, m2, cmd)
	if err := tcerrors.ValidateMonth(m2.state.Request.Date); err != nil || m2.state.Request.Date == "" {
		t.Errorf("date after [ = %q, %v", m2.state.Request.Date, err)
	}
	if !strings.Contains(m2.View(), m2.state.Request.Date) {
		t.Error("view should show the selected month")
	}

	m3, cmd := step(t, m2, key("r"))
	if !m3.loading {
		t.Error("r should start loading")
	}
	m3 = finish(t, m3, cmd)
	if m3.state.Request.Date != m2.state.Request.Date {
		t.Errorf("refresh changed month: %q -> %q", m2.state.Request.Date, m3.state.Request.Date)
	}
}

// runAsync runs cmd in the background and waits until the session has
// issued the request cond looks for.
func runAsync(t *testing.T, m watchModel, cmd tea.Cmd, cond func(session.Request) bool) <-chan tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(m.sess.Pending()) {
		if time.Now().After(deadline) {
			t.Fatal("request was not issued")
		}
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestWatchShiftWhileLoading(t *testing.T) {
	hold := make(chan struct{})
	m, _ := newHeldWatch(t, session.Request{Domain: "example.com", Date: "2025-03"}, hold)

	first := runAsync(t, m, m.Init(), func(r session.Request) bool { return r.Domain != "" })
	m, cmd := step(t, m, key("]"))
	if !m.loading {
		t.Fatal("] during the first load should start a shift")
	}
	shift := runAsync(t, m, cmd, func(r session.Request) bool { return r.Date == "2025-04" })
	if !strings.Contains(m.View(), "2025-04") {
		t.Error("view should show the month being loaded")
	}
	close(hold)

	m, _ = step(t, m, <-first)
	if !m.loading {
		t.Error("the superseded first load should not end loading")
	}
	m, _ = step(t, m, <-shift)
	if m.loading || m.err != nil || m.state.Request.Date != "2025-04" {
		t.Errorf("after shift: loading=%v err=%v date=%q", m.loading, m.err, m.state.Request.Date)
	}
}

func TestWatchError(t *testing.T) {
	m, store := newTestWatch(t, session.Request{Domain: "fail.example"})
	m = finish(t, m, m.Init())

	if m.err == nil {
		t.Fatal("expected an error")
	}
	if !m.state.Graph.IsEmpty() {
		t.Error("failed load should show the empty graph")
	}
	if !strings.Contains(m.View(), "Could not build chain of trust") {
		t.Error("view should show the error")
	}
	if _, ok, _ := store.Last(); ok {
		t.Error("failed loads should not be remembered")
	}
}

func TestWatchIgnoresSuperseded(t *testing.T) {
	m, _ := newTestWatch(t, session.Request{Domain: "example.com"})
	m = finish(t, m, m.Init())
	seq := m.state.Seq

	m.loading = true
	m, _ = step(t, m, loadedMsg{err: session.ErrSuperseded})
	if !m.loading || m.state.Seq != seq {
		t.Error("superseded result should leave the view alone")
	}
}

func TestWatchKeys(t *testing.T) {
	m, _ := newTestWatch(t, session.Request{Domain: "example.com"})
	m = finish(t, m, m.Init())

	m, _ = step(t, m, key("/"))
	if !m.editing {
		t.Fatal("/ should open the input")
	}
	m, _ = step(t, m, key("x"))
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || m.input != "example.com" {
		t.Errorf("esc should restore the input, got %q editing=%v", m.input, m.editing)
	}

	_, cmd := step(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}

	_, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
}
