package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

func newTestGateway(t *testing.T, ttl, delay time.Duration) *Gateway {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return New(log, NewResultCache(ttl), NewDebounceGate(delay))
}

func TestFingerprint(t *testing.T) {
	args := map[string]any{"lesson_id": "123456", "content": "x"}
	a := Fingerprint("lesson_section_put", "alice@example.com", args)
	b := Fingerprint("lesson_section_put", "alice@example.com", map[string]any{"content": "x", "lesson_id": "123456"})
	if a != b {
		t.Fatalf("key order changed the fingerprint:\n%s\n%s", a, b)
	}
	if Fingerprint("lesson_section_put", "bob@example.com", args) == a {
		t.Fatalf("actor did not change the fingerprint")
	}
	if Fingerprint("lesson_section_delete", "alice@example.com", args) == a {
		t.Fatalf("operation did not change the fingerprint")
	}
	if Fingerprint("lesson_section_put", "alice@example.com", map[string]any{"lesson_id": "654321"}) == a {
		t.Fatalf("args did not change the fingerprint")
	}
}

func TestDoCachesSuccessOnly(t *testing.T) {
	gw := newTestGateway(t, time.Minute, 5*time.Millisecond)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) Result {
		calls.Add(1)
		return OK(map[string]any{"id": "123456"})
	}
	first := gw.Do(ctx, "lesson_create", "alice@example.com", map[string]any{"title": "T"}, fn)
	if value, ok := first.Value(); !ok || value["id"] != "123456" {
		t.Fatalf("first result = %+v", first.Payload())
	}
	second := gw.Do(ctx, "lesson_create", "alice@example.com", map[string]any{"title": "T"}, fn)
	if value, ok := second.Value(); !ok || value["id"] != "123456" {
		t.Fatalf("second result = %+v", second.Payload())
	}
	if calls.Load() != 1 {
		t.Fatalf("fn executed %d times, want 1 (second call cached)", calls.Load())
	}

	var failures atomic.Int32
	failing := func(context.Context) Result {
		failures.Add(1)
		return Fail(KindInfrastructure, "backend down", nil)
	}
	for i := 0; i < 2; i++ {
		res := gw.Do(ctx, "lesson_delete", "alice@example.com", map[string]any{"lesson_id": "1"}, failing)
		if _, isErr := res.Err(); !isErr {
			t.Fatalf("expected failure result")
		}
	}
	if failures.Load() != 2 {
		t.Fatalf("failing fn executed %d times, want 2 (failures are never cached)", failures.Load())
	}
}

func TestDoDebouncesRapidDuplicates(t *testing.T) {
	gw := newTestGateway(t, time.Minute, 60*time.Millisecond)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) Result {
		calls.Add(1)
		return OK(map[string]any{"ok": true})
	}

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- gw.Do(ctx, "lesson_section_put", "alice@example.com", map[string]any{"content": "v"}, fn)
	}()
	time.Sleep(15 * time.Millisecond)
	second := gw.Do(ctx, "lesson_section_put", "alice@example.com", map[string]any{"content": "v"}, fn)
	first := <-firstDone

	if !first.IsDebounced() {
		t.Fatalf("superseded call should be debounced, got %+v", first.Payload())
	}
	if _, ok := second.Value(); !ok {
		t.Fatalf("latest call should execute, got %+v", second.Payload())
	}
	if calls.Load() != 1 {
		t.Fatalf("fn executed %d times, want 1", calls.Load())
	}
}

func TestDoDistinctFingerprintsRunConcurrently(t *testing.T) {
	gw := newTestGateway(t, time.Minute, 20*time.Millisecond)
	ctx := context.Background()

	var calls atomic.Int32
	var wg sync.WaitGroup
	for _, id := range []string{"111111", "222222", "333333"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := gw.Do(ctx, "lesson_update", "alice@example.com", map[string]any{"lesson_id": id}, func(context.Context) Result {
				calls.Add(1)
				return OK(map[string]any{"id": id})
			})
			if res.IsDebounced() {
				t.Errorf("distinct args should not debounce each other")
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 3 {
		t.Fatalf("fn executed %d times, want 3", calls.Load())
	}
}

func TestResultCacheExpiry(t *testing.T) {
	cache := NewResultCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("k", OK(map[string]any{"v": 1}))
	if _, ok := cache.Get("k"); !ok {
		t.Fatalf("entry should be present before expiry")
	}
	now = now.Add(61 * time.Second)
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestDoReexecutesAfterCacheExpiry(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	cache := NewResultCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }
	gw := New(log, cache, NewDebounceGate(time.Millisecond))
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) Result {
		calls.Add(1)
		return OK(map[string]any{"ok": true})
	}

	args := map[string]any{"lesson_id": "123456"}
	gw.Do(ctx, "lesson_update", "alice@example.com", args, fn)
	gw.Do(ctx, "lesson_update", "alice@example.com", args, fn)
	if calls.Load() != 1 {
		t.Fatalf("fn executed %d times within the TTL, want 1", calls.Load())
	}

	now = now.Add(61 * time.Second)
	third := gw.Do(ctx, "lesson_update", "alice@example.com", args, fn)
	if _, ok := third.Value(); !ok {
		t.Fatalf("third result = %+v", third.Payload())
	}
	if calls.Load() != 2 {
		t.Fatalf("fn executed %d times after expiry, want 2", calls.Load())
	}
}

func TestDebounceGateLatestWins(t *testing.T) {
	gate := NewDebounceGate(40 * time.Millisecond)

	firstDone := make(chan bool, 1)
	go func() { firstDone <- gate.Run("same-key") }()
	time.Sleep(10 * time.Millisecond)
	second := gate.Run("same-key")
	first := <-firstDone

	if first {
		t.Fatalf("superseded call won the debounce window")
	}
	if !second {
		t.Fatalf("latest call lost the debounce window")
	}
	if !gate.Run("other-key") {
		t.Fatalf("unrelated key should always win")
	}
}

func TestResultPayloadShapes(t *testing.T) {
	ok := OK(map[string]any{"id": "1"})
	if payload := ok.Payload(); payload["id"] != "1" {
		t.Fatalf("ok payload = %+v", payload)
	}
	fail := Fail(KindNotFound, "lesson not found", map[string]any{"id": "9"})
	payload := fail.Payload()
	if payload["error"] != "lesson not found" || payload["id"] != "9" {
		t.Fatalf("error payload = %+v", payload)
	}
	if payload := Debounced().Payload(); payload["status"] != "debounced" {
		t.Fatalf("debounced payload = %+v", payload)
	}
}
