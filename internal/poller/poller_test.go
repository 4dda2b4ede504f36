package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/samvad-hq/tba-sync/pkg/publishers"
	"github.com/samvad-hq/tba-sync/pkg/tba"
	"github.com/samvad-hq/tba-sync/pkg/watches"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

// fakeStore keeps validators in memory.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	readErr error
}

func (f *fakeStore) LastModified(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", false, f.readErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStore) SaveLastModified(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[key] = value
	return nil
}

const stamp = "Tue, 01 Oct 2024 00:00:00 GMT"

func newAPI(t *testing.T) (*tba.Client, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-Modified-Since") == stamp {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		switch r.URL.Path {
		case "/api/v3/team/frc254":
			w.Header().Set("Last-Modified", stamp)
			_, _ = w.Write([]byte(`{"team_number":254}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := tba.New(tba.Config{BaseURL: srv.URL + "/api/v3/", Keys: tba.StaticKey("k")})
	if err != nil {
		t.Fatalf("tba.New: %v", err)
	}
	return client, hits
}

func TestPollPublishesThenSkipsUnchanged(t *testing.T) {
	client, _ := newAPI(t)
	pub := &fakePublisher{}
	store := &fakeStore{}
	svc := NewService(client, pub, nil, store)
	w := watches.Watch{ID: "poofs", Path: "team/frc254"}

	outcome, err := svc.Poll(context.Background(), w)
	if err != nil {
		t.Fatalf("first Poll: %v", err)
	}
	if outcome != OutcomePublished || len(pub.events) != 1 {
		t.Fatalf("expected one published event, outcome=%v events=%d", outcome, len(pub.events))
	}
	if string(pub.events[0].Payload) != `{"team_number":254}` || pub.events[0].LastModified != stamp {
		t.Fatalf("unexpected event %+v", pub.events[0])
	}
	if store.values["poofs"] != stamp {
		t.Fatalf("validator not saved, got %q", store.values["poofs"])
	}

	outcome, err = svc.Poll(context.Background(), w)
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if outcome != OutcomeUnchanged || len(pub.events) != 1 {
		t.Fatalf("expected unchanged resource to be skipped")
	}
}

func TestPollKeepsValidatorWhenPublishFails(t *testing.T) {
	client, _ := newAPI(t)
	store := &fakeStore{}
	svc := NewService(client, &fakePublisher{err: errors.New("sink down")}, nil, store)

	if _, err := svc.Poll(context.Background(), watches.Watch{ID: "poofs", Path: "team/frc254"}); err == nil {
		t.Fatalf("expected publish error")
	}
	if _, ok := store.values["poofs"]; ok {
		t.Fatalf("validator must not advance when publishing failed")
	}
}

func TestPollFallsBackWhenStoreFails(t *testing.T) {
	client, _ := newAPI(t)
	pub := &fakePublisher{}
	svc := NewService(client, pub, nil, &fakeStore{readErr: errors.New("disk")})

	if outcome, err := svc.Poll(context.Background(), watches.Watch{ID: "poofs", Path: "team/frc254"}); err != nil || outcome != OutcomePublished {
		t.Fatalf("expected unconditional poll to publish, outcome=%v err=%v", outcome, err)
	}
}

func TestRunAggregatesWatchErrors(t *testing.T) {
	client, _ := newAPI(t)
	svc := NewService(client, &fakePublisher{}, nil, &fakeStore{})

	err := svc.Run(context.Background(), []watches.Watch{
		{ID: "missing", Path: "team/frc0"},
		{ID: "poofs", Path: "team/frc254"},
	})
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected error mentioning missing watch, got %v", err)
	}
}

func TestRunStopsWithoutAuthKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("no request should reach the server")
	}))
	defer srv.Close()

	client, err := tba.New(tba.Config{BaseURL: srv.URL, Keys: &tba.Credentials{}})
	if err != nil {
		t.Fatalf("tba.New: %v", err)
	}
	pub := &fakePublisher{}
	svc := NewService(client, pub, nil, nil)

	err = svc.Run(context.Background(), []watches.Watch{
		{ID: "a", Path: "status"},
		{ID: "b", Path: "team/frc254"},
	})
	if !errors.Is(err, tba.ErrAuthTokenMissing) {
		t.Fatalf("expected ErrAuthTokenMissing, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("nothing should be published")
	}
}

func TestRunRejectsEmptyWatchList(t *testing.T) {
	client, _ := newAPI(t)
	if err := NewService(client, nil, nil, nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when watch list empty")
	}
}

func TestRunAllStopsOnCancelledContext(t *testing.T) {
	client, hits := newAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := NewService(client, nil, nil, nil).runAll(ctx, []watches.Watch{{ID: "poofs", Path: "team/frc254"}})
	if len(errs) != 0 || hits.Load() != 0 {
		t.Fatalf("expected no work on cancelled context, errs=%v hits=%d", errs, hits.Load())
	}
}
