package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shrinker-io/shrinker/internal/app/cache"
	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
)

type fakeLinkCache struct {
	entries map[string]cache.Entry
	sets    int
}

func newFakeLinkCache() *fakeLinkCache {
	return &fakeLinkCache{entries: make(map[string]cache.Entry)}
}

func (f *fakeLinkCache) Get(ctx context.Context, code string) (*cache.Entry, bool) {
	if entry, ok := f.entries[code]; ok {
		return &entry, true
	}
	return nil, false
}

func (f *fakeLinkCache) Set(ctx context.Context, code string, entry cache.Entry) {
	f.sets++
	f.entries[code] = entry
}

type fakeDispatcher struct {
	calls []int64
}

func (f *fakeDispatcher) Dispatch(linkID int64, ip, userAgent string) {
	f.calls = append(f.calls, linkID)
}

func TestRedirectService_CacheHitSkipsStore(t *testing.T) {
	linkCache := newFakeLinkCache()
	linkCache.entries["Lc4KTFB"] = cache.Entry{LinkID: 3, OriginalURL: "https://example.com/a"}

	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			t.Fatal("store must not be consulted on a cache hit")
			return nil, nil
		},
	}
	clicks := &fakeDispatcher{}
	svc := NewRedirectService(repo, linkCache, clicks, nil, nil)

	target, err := svc.Resolve(context.Background(), "Lc4KTFB", "203.0.113.9", "curl/8")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if target != "https://example.com/a" {
		t.Fatalf("unexpected target %q", target)
	}
	if len(clicks.calls) != 1 || clicks.calls[0] != 3 {
		t.Fatalf("expected one click dispatch for link 3, got %v", clicks.calls)
	}
}

func TestRedirectService_MissPopulatesCache(t *testing.T) {
	linkCache := newFakeLinkCache()
	storeLookups := 0
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			storeLookups++
			return &model.Link{ID: 5, ShortCode: code, OriginalURL: "https://example.com/b"}, nil
		},
	}
	clicks := &fakeDispatcher{}
	svc := NewRedirectService(repo, linkCache, clicks, nil, nil)

	first, err := svc.Resolve(context.Background(), "XcAStr1", "203.0.113.9", "curl/8")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := svc.Resolve(context.Background(), "XcAStr1", "203.0.113.9", "curl/8")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	// Cache-hit and cache-miss paths must look identical to the client.
	if first != second {
		t.Fatalf("paths disagree: %q vs %q", first, second)
	}
	if storeLookups != 1 {
		t.Fatalf("expected the second request to be served from cache, store lookups = %d", storeLookups)
	}
	if linkCache.sets != 1 {
		t.Fatalf("expected exactly one cache population, got %d", linkCache.sets)
	}
	if len(clicks.calls) != 2 {
		t.Fatalf("expected a click per redirect, got %d", len(clicks.calls))
	}
}

func TestRedirectService_UnknownCodeDispatchesNothing(t *testing.T) {
	clicks := &fakeDispatcher{}
	svc := NewRedirectService(&mockLinkRepository{}, newFakeLinkCache(), clicks, nil, nil)

	_, err := svc.Resolve(context.Background(), "zzzzzzz", "203.0.113.9", "curl/8")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if len(clicks.calls) != 0 {
		t.Fatalf("no click may be attributed to an unknown code, got %v", clicks.calls)
	}
}

func TestRedirectService_StoreErrorSurfaces(t *testing.T) {
	storeDown := errors.New("connection refused")
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return nil, storeDown
		},
	}
	clicks := &fakeDispatcher{}
	svc := NewRedirectService(repo, newFakeLinkCache(), clicks, nil, nil)

	_, err := svc.Resolve(context.Background(), "Lc4KTFB", "203.0.113.9", "curl/8")
	if err == nil || errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected a store failure distinct from not-found, got %v", err)
	}
	if len(clicks.calls) != 0 {
		t.Fatalf("no click may be dispatched on a failed resolve, got %v", clicks.calls)
	}
}

func TestRedirectService_NilCacheFallsThroughToStore(t *testing.T) {
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return &model.Link{ID: 9, ShortCode: code, OriginalURL: "https://example.com/c"}, nil
		},
	}
	svc := NewRedirectService(repo, nil, &fakeDispatcher{}, nil, nil)

	target, err := svc.Resolve(context.Background(), "EAaArVR", "203.0.113.9", "curl/8")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if target != "https://example.com/c" {
		t.Fatalf("unexpected target %q", target)
	}
}

func TestRedirectService_FilterMissSkipsCacheNotStore(t *testing.T) {
	filter := NewCodeFilter(1024, 0.01)
	filter.Add("Lc4KTFB")

	cacheTouched := false
	trackingCache := &trackingLinkCache{inner: newFakeLinkCache(), touched: &cacheTouched}

	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			// The store stays authoritative even when the filter says no.
			return nil, repository.ErrLinkNotFound
		},
	}
	svc := NewRedirectService(repo, trackingCache, &fakeDispatcher{}, filter, nil)

	_, err := svc.Resolve(context.Background(), "0000000", "203.0.113.9", "curl/8")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if cacheTouched {
		t.Fatal("cache lookup should be skipped on a definite filter miss")
	}
}

func TestRedirectService_StoreHitTeachesFilter(t *testing.T) {
	// The filter has never seen this code (say, registered by another
	// instance). The first resolve must reach the store; from then on the
	// code has to be served from cache like any other.
	filter := NewCodeFilter(1024, 0.01)
	linkCache := newFakeLinkCache()

	storeLookups := 0
	repo := &mockLinkRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			storeLookups++
			return &model.Link{ID: 7, ShortCode: code, OriginalURL: "https://example.com/d"}, nil
		},
	}
	svc := NewRedirectService(repo, linkCache, &fakeDispatcher{}, filter, nil)

	if _, err := svc.Resolve(context.Background(), "DM3BI9v", "203.0.113.9", "curl/8"); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if !filter.MayContain("DM3BI9v") {
		t.Fatal("store hit did not teach the filter the code")
	}

	if _, err := svc.Resolve(context.Background(), "DM3BI9v", "203.0.113.9", "curl/8"); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if storeLookups != 1 {
		t.Fatalf("second request hit the store anyway: store lookups = %d", storeLookups)
	}
	if linkCache.sets != 1 {
		t.Fatalf("expected exactly one cache population, got %d", linkCache.sets)
	}
}

type trackingLinkCache struct {
	inner   *fakeLinkCache
	touched *bool
}

func (t *trackingLinkCache) Get(ctx context.Context, code string) (*cache.Entry, bool) {
	*t.touched = true
	return t.inner.Get(ctx, code)
}

func (t *trackingLinkCache) Set(ctx context.Context, code string, entry cache.Entry) {
	t.inner.Set(ctx, code, entry)
}
