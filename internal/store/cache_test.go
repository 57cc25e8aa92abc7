package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"lockerd/internal/tabular"
)

type fakeFetcher struct {
	cred    string
	fetches int
	err     error
}

func (f *fakeFetcher) FetchSheet(ctx context.Context, name string) (*tabular.Sheet, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fetches++
	return &tabular.Sheet{Name: name, Header: []string{"Number"}}, nil
}

func (f *fakeFetcher) CredentialID() string { return f.cred }

func TestGetCachesWithinTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	cache := NewRequestCache()
	cache.now = func() time.Time { return now }
	fetcher := &fakeFetcher{cred: "service"}

	first, err := cache.Get(context.Background(), fetcher, "Lockers", 120*time.Second)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	now = now.Add(1 * time.Second)
	second, err := cache.Get(context.Background(), fetcher, "Lockers", 120*time.Second)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("Expected the identical sheet handle within the TTL")
	}
	if fetcher.fetches != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.fetches)
	}

	now = now.Add(120 * time.Second) // 121s after the fetch
	third, err := cache.Get(context.Background(), fetcher, "Lockers", 120*time.Second)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if third == first {
		t.Error("Expected a refetch after the TTL lapsed")
	}
	if fetcher.fetches != 2 {
		t.Errorf("Expected exactly 2 fetches, got %d", fetcher.fetches)
	}
}

func TestGetSeparatesCredentialContexts(t *testing.T) {
	cache := NewRequestCache()
	service := &fakeFetcher{cred: "service"}
	editor := &fakeFetcher{cred: "user:admin@gmail.com"}

	if _, err := cache.Get(context.Background(), service, "Locker_Rentals", time.Minute); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := cache.Get(context.Background(), editor, "Locker_Rentals", time.Minute); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if service.fetches != 1 || editor.fetches != 1 {
		t.Errorf("Expected each credential context to fetch once, got %d and %d",
			service.fetches, editor.fetches)
	}
}

func TestGetPropagatesFetchError(t *testing.T) {
	cache := NewRequestCache()
	wantErr := &tabular.AuthorizationError{Sheet: "Lockers", Credential: "user:x"}
	fetcher := &fakeFetcher{cred: "user:x", err: wantErr}

	_, err := cache.Get(context.Background(), fetcher, "Lockers", time.Minute)
	if !errors.Is(err, tabular.ErrUnauthorized) {
		t.Fatalf("Expected authorization error, got %v", err)
	}

	// A failed fetch must not be cached.
	fetcher.err = nil
	if _, err := cache.Get(context.Background(), fetcher, "Lockers", time.Minute); err != nil {
		t.Fatalf("Get after recovery failed: %v", err)
	}
	if fetcher.fetches != 1 {
		t.Errorf("Expected a real fetch after the failure, got %d", fetcher.fetches)
	}
}
