package observability

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

// recorder embeds the no-op hooks and records the calls it overrides.
type recorder struct {
	NoopPipelineHooks
	NoopCacheHooks

	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) OnFetchStart(_ context.Context, domain string) { r.add("fetch " + domain) }
func (r *recorder) OnSuperseded(_ context.Context, domain string) { r.add("superseded " + domain) }
func (r *recorder) OnCacheHit(_ context.Context, keyType string)  { r.add("hit " + keyType) }

func TestHooksDefaultToNoop(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	ctx := context.Background()
	Pipeline().OnCompileComplete(ctx, "example.com", 3, 13, 19, time.Millisecond)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnResponse(ctx, "GET", "api.example.net", "/chain/example.com", 200, time.Second)
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	r := &recorder{}
	SetPipelineHooks(r)
	SetCacheHooks(r)

	ctx := context.Background()
	Pipeline().OnFetchStart(ctx, "example.com")
	Cache().OnCacheHit(ctx, "chain")
	Cache().OnCacheMiss(ctx, "artifact") // not overridden
	Pipeline().OnSuperseded(ctx, "example.org")

	want := []string{"fetch example.com", "hit chain", "superseded example.org"}
	if !slices.Equal(r.events, want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}

	Reset()
	Pipeline().OnFetchStart(ctx, "example.net")
	if len(r.events) != len(want) {
		t.Error("Reset() should detach the recorder")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	r := &recorder{}
	SetPipelineHooks(r)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)

	if Pipeline() != PipelineHooks(r) {
		t.Error("SetPipelineHooks(nil) should keep the current hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the no-op hooks")
	}
}
