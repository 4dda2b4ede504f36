package tba

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetWithoutKeyNeverReachesServer(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	for _, keys := range []KeySource{nil, StaticKey(""), StaticKey(" \t "), &Credentials{}, NewCredentials("   ")} {
		client, err := New(Config{BaseURL: srv.URL, Keys: keys})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var body string
		_, err = client.Get(context.Background(), "status", &body)
		if !errors.Is(err, ErrAuthTokenMissing) {
			t.Fatalf("expected ErrAuthTokenMissing for %#v, got %v", keys, err)
		}
	}
	if got := hits.Load(); got != 0 {
		t.Fatalf("expected no requests to reach the server, got %d", got)
	}
}

func TestGetAttachesIdentificationHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL + "/api/v3/", Keys: StaticKey("secret-key")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var body string
	if _, err := client.Get(context.Background(), "status", &body, WithHeader("X-Caller", "yes")); err != nil {
		t.Fatalf("Get: %v", err)
	}

	want := map[string]string{
		"X-TBA-Auth-Key":      "secret-key",
		"User-Agent":          "TBA-API-V3",
		"Content-SortingType": "application/x-www-form-urlencoded",
		"charset":             "utf-8",
		"X-Caller":            "yes",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Fatalf("header %s = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestCallerHeaderIsKeptAlongsideInjectedValue(t *testing.T) {
	var values []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values = r.Header.Values("charset")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Keys: StaticKey("k")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Get(context.Background(), "status", nil, WithHeader("charset", "latin1")); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(values) != 2 || values[0] != "latin1" || values[1] != "utf-8" {
		t.Fatalf("expected caller value followed by injected value, got %v", values)
	}
}

func TestCredentialsSetAfterBuildIsUsed(t *testing.T) {
	var key atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key.Store(r.Header.Get("X-TBA-Auth-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	creds := &Credentials{}
	client, err := New(Config{BaseURL: srv.URL, Keys: creds})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Get(context.Background(), "status", nil); !errors.Is(err, ErrAuthTokenMissing) {
		t.Fatalf("expected missing key error before Set, got %v", err)
	}

	creds.Set("late-key")
	if _, err := client.Get(context.Background(), "status", nil); err != nil {
		t.Fatalf("Get after Set: %v", err)
	}
	if got, _ := key.Load().(string); got != "late-key" {
		t.Fatalf("expected late-key, got %q", got)
	}
}

func TestConcurrentRequestsCarryTheirOwnHeaders(t *testing.T) {
	var bad atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.Header.Values("X-TBA-Auth-Key")) != 1 || r.Header.Get("X-Req") == "" {
			bad.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Keys: StaticKey("k")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = client.Get(context.Background(), "status", nil, WithHeader("X-Req", string(rune('a'+i%26))))
		}(i)
	}
	wg.Wait()

	if bad.Load() != 0 {
		t.Fatalf("%d requests had unexpected headers", bad.Load())
	}
}

func TestPaddedStaticKeyIsTrimmed(t *testing.T) {
	var key atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key.Store(r.Header.Get("X-TBA-Auth-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, Keys: StaticKey("  padded-key\n")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Get(context.Background(), "status", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got, _ := key.Load().(string); got != "padded-key" {
		t.Fatalf("expected trimmed key, got %q", got)
	}
}
