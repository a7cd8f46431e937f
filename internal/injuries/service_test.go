package injuries

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeStore is an in-memory cache.Store with injectable failures.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.data[key], nil
}

func (f *fakeStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = payload
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) get(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}

// newUpstream returns a test server serving body with 200 and a counter of
// calls received.
func newUpstream(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestService(store *fakeStore, upstreamURL string) *Service {
	fetcher := NewFetcher(FetcherConfig{
		URL:     upstreamURL,
		APIKey:  "test-key",
		APIHost: "test-host",
	})
	return NewService(store, fetcher, ServiceConfig{
		Key: "injuryData",
		TTL: 12 * time.Hour,
	})
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()
	body := `{"response":[{"player":"X"}]}`

	t.Run("miss fetches and writes through", func(t *testing.T) {
		upstream, calls := newUpstream(t, body)
		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		got, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != body {
			t.Errorf("expected fetched payload, got %q", got)
		}
		if string(store.get("injuryData")) != body {
			t.Errorf("expected payload written through to store")
		}
		if store.ttls["injuryData"] != 12*time.Hour {
			t.Errorf("expected 12h TTL on write, got %v", store.ttls["injuryData"])
		}

		// Second request is served from the cache, no new upstream call.
		if _, err := svc.Get(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("expected 1 upstream call, got %d", n)
		}
	})

	t.Run("hit skips upstream", func(t *testing.T) {
		upstream, calls := newUpstream(t, body)
		store := newFakeStore()
		_ = store.Set(ctx, "injuryData", []byte(body), 12*time.Hour)
		svc := newTestService(store, upstream.URL)

		got, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != body {
			t.Errorf("expected cached payload, got %q", got)
		}
		if n := calls.Load(); n != 0 {
			t.Errorf("expected no upstream calls on a hit, got %d", n)
		}
	})

	t.Run("invalid upstream body leaves cache untouched", func(t *testing.T) {
		upstream, _ := newUpstream(t, `{}`)
		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		if _, err := svc.Get(ctx); err == nil {
			t.Fatal("expected error for payload without response field")
		}
		if store.get("injuryData") != nil {
			t.Error("invalid payload must not be cached")
		}
	})

	t.Run("store read error degrades to fetch", func(t *testing.T) {
		upstream, _ := newUpstream(t, body)
		store := newFakeStore()
		store.getErr = errors.New("connection refused")
		svc := newTestService(store, upstream.URL)

		got, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("cache unavailability must not surface: %v", err)
		}
		if string(got) != body {
			t.Errorf("expected fetched payload, got %q", got)
		}
	})

	t.Run("store write error does not discard payload", func(t *testing.T) {
		upstream, _ := newUpstream(t, body)
		store := newFakeStore()
		store.setErr = errors.New("connection refused")
		svc := newTestService(store, upstream.URL)

		got, err := svc.Get(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != body {
			t.Errorf("expected fetched payload despite failed write, got %q", got)
		}
	})

	t.Run("concurrent misses share one fetch", func(t *testing.T) {
		var calls atomic.Int64
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(upstream.Close)

		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		const waiters = 5
		var start, done sync.WaitGroup
		start.Add(waiters)
		done.Add(waiters)
		for i := 0; i < waiters; i++ {
			go func() {
				defer done.Done()
				start.Done()
				start.Wait()
				got, err := svc.Get(context.Background())
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				} else if string(got) != body {
					t.Errorf("expected shared payload, got %q", got)
				}
			}()
		}
		done.Wait()

		if n := calls.Load(); n != 1 {
			t.Errorf("expected concurrent misses to coalesce into 1 upstream call, got %d", n)
		}
	})
}

func TestServiceRefresh(t *testing.T) {
	ctx := context.Background()
	body := `{"response":[{"player":"X"}]}`

	t.Run("writes fresh entry on success", func(t *testing.T) {
		upstream, _ := newUpstream(t, body)
		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		if err := svc.Refresh(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(store.get("injuryData")) != body {
			t.Errorf("expected refreshed payload in store")
		}
	})

	t.Run("ignores cache state", func(t *testing.T) {
		upstream, calls := newUpstream(t, body)
		store := newFakeStore()
		_ = store.Set(ctx, "injuryData", []byte(`{"response":[]}`), 12*time.Hour)
		svc := newTestService(store, upstream.URL)

		if err := svc.Refresh(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("refresh must fetch even with a live entry, got %d calls", n)
		}
		if string(store.get("injuryData")) != body {
			t.Errorf("expected refresh to overwrite the entry")
		}
	})

	t.Run("failed fetch leaves previous entry", func(t *testing.T) {
		upstream, _ := newUpstream(t, `not json`)
		store := newFakeStore()
		previous := []byte(`{"response":[{"player":"Y"}]}`)
		_ = store.Set(ctx, "injuryData", previous, 12*time.Hour)
		svc := newTestService(store, upstream.URL)

		if err := svc.Refresh(ctx); err == nil {
			t.Fatal("expected error for invalid upstream body")
		}
		if string(store.get("injuryData")) != string(previous) {
			t.Errorf("failed refresh must not touch the previous entry")
		}
	})
}

func TestStartBackgroundRefresh(t *testing.T) {
	body := `{"response":[{"player":"X"}]}`

	t.Run("populates cache without traffic", func(t *testing.T) {
		upstream, _ := newUpstream(t, body)
		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		stop := svc.StartBackgroundRefresh(time.Hour)
		defer stop()

		deadline := time.After(2 * time.Second)
		for store.get("injuryData") == nil {
			select {
			case <-deadline:
				t.Fatal("refresher did not populate the cache")
			case <-time.After(10 * time.Millisecond):
			}
		}
	})

	t.Run("cancel stops the loop", func(t *testing.T) {
		upstream, calls := newUpstream(t, body)
		store := newFakeStore()
		svc := newTestService(store, upstream.URL)

		stop := svc.StartBackgroundRefresh(20 * time.Millisecond)
		time.Sleep(70 * time.Millisecond)
		stop()

		// Let any in-flight tick drain before sampling the counter.
		time.Sleep(30 * time.Millisecond)
		n := calls.Load()
		time.Sleep(70 * time.Millisecond)
		if after := calls.Load(); after != n {
			t.Errorf("expected no fetches after cancel, got %d more", after-n)
		}
	})
}
