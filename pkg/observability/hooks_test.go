package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnFetchStart(ctx, "weather(Home)", "weather")
	p.OnFetchComplete(ctx, "weather(Home)", "weather", time.Second, nil)
	p.OnRenderStart(ctx, "calendar")
	p.OnRenderComplete(ctx, "calendar", time.Second, nil)
	p.OnEncodeComplete(ctx, 1024, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "weather")
	c.OnCacheMiss(ctx, "strava")
	c.OnCacheSet(ctx, "gcal", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should keep the previous hooks")
	}

	SetCacheHooks(nil)
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the noop hooks")
	}

	Reset()
}

type testPipelineHooks struct {
	fetches []string
	renders []string
	encodes int
}

func (h *testPipelineHooks) OnFetchStart(_ context.Context, provider, _ string) {
	h.fetches = append(h.fetches, provider)
}
func (h *testPipelineHooks) OnFetchComplete(context.Context, string, string, time.Duration, error) {}
func (h *testPipelineHooks) OnRenderStart(_ context.Context, sectionName string) {
	h.renders = append(h.renders, sectionName)
}
func (h *testPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}
func (h *testPipelineHooks) OnEncodeComplete(context.Context, int, time.Duration, error) {
}

type testCacheHooks struct{}

func (testCacheHooks) OnCacheHit(context.Context, string)      {}
func (testCacheHooks) OnCacheMiss(context.Context, string)     {}
func (testCacheHooks) OnCacheSet(context.Context, string, int) {}
