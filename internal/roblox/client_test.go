package roblox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gameradar/internal/core"
)

// fakeProxy serves the proxy endpoint and dispatches on the forwarded URL.
type fakeProxy struct {
	mu      sync.Mutex
	targets []string
	calls   atomic.Int32
	handle  func(w http.ResponseWriter, target *url.URL)
}

func (f *fakeProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	raw := r.URL.Query().Get("url")
	f.mu.Lock()
	f.targets = append(f.targets, raw)
	f.mu.Unlock()

	target, err := url.Parse(raw)
	if err != nil {
		http.Error(w, "bad url", http.StatusBadRequest)
		return
	}
	f.handle(w, target)
}

func newTestClient(t *testing.T, handle func(w http.ResponseWriter, target *url.URL)) (*Client, *fakeProxy) {
	t.Helper()
	fp := &fakeProxy{handle: handle}
	srv := httptest.NewServer(fp)
	t.Cleanup(srv.Close)
	c := New(Config{
		ProxyURL:   srv.URL + "/?url=",
		HTTPClient: srv.Client(),
	})
	return c, fp
}

func TestResolveUniverseThroughProxy(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, target *url.URL) {
		if target.Host != "apis.roblox.com" || target.Path != "/universes/v1/places/606849621/universe" {
			http.NotFound(w, nil)
			return
		}
		w.Write([]byte(`{"universeId": 245662005}`))
	})

	id, err := c.ResolveUniverse(context.Background(), "606849621")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "245662005" {
		t.Fatalf("unexpected universe %q", id)
	}

	// second lookup is served from cache
	if _, err := c.ResolveUniverse(context.Background(), "606849621"); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if n := fp.calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
	if fp.targets[0] != "https://apis.roblox.com/universes/v1/places/606849621/universe" {
		t.Fatalf("proxy received %q", fp.targets[0])
	}
}

func TestResolveUniverseMissing(t *testing.T) {
	for _, body := range []string{`{}`, `{"universeId": null}`} {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {
			w.Write([]byte(body))
		})
		_, err := c.ResolveUniverse(context.Background(), "1")
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("body %s: expected ErrNotFound, got %v", body, err)
		}
	}
}

func TestResolveUniverseSurvivesCancelledCaller(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c, fp := newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {
		arrived <- struct{}{}
		<-release
		w.Write([]byte(`{"universeId": 383310974}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ResolveUniverse(ctx, "920587237")
		firstErr <- err
	}()
	<-arrived

	type result struct {
		id  string
		err error
	}
	second := make(chan result, 1)
	go func() {
		id, err := c.ResolveUniverse(context.Background(), "920587237")
		second <- result{id, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should see context.Canceled, got %v", err)
	}

	close(release)
	got := <-second
	if got.err != nil || got.id != "383310974" {
		t.Fatalf("waiting caller got %q, %v", got.id, got.err)
	}
	if n := fp.calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestGetGameInfoBatches(t *testing.T) {
	var query string
	c, fp := newTestClient(t, func(w http.ResponseWriter, target *url.URL) {
		query = target.Query().Get("universeIds")
		w.Write([]byte(`{"data":[
			{"id": 9, "name": "Adventure", "updated": "2024-06-01T00:00:00Z"},
			{"id": 10, "name": "Obby", "updated": "2024-02-01T00:00:00Z"}
		]}`))
	})

	infos, err := c.GetGameInfo(context.Background(), []string{"9", "10", "11"})
	if err != nil {
		t.Fatalf("game info: %v", err)
	}
	if query != "9,10,11" {
		t.Fatalf("expected one batched call, got ids %q", query)
	}
	if fp.calls.Load() != 1 {
		t.Fatalf("expected a single call")
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 infos, got %d", len(infos))
	}
	if got := infos["9"]; got.Name != "Adventure" || got.LastUpdated != "2024-06-01T00:00:00Z" {
		t.Fatalf("unexpected info %+v", got)
	}
	if _, ok := infos["11"]; ok {
		t.Fatalf("unknown id should be absent")
	}
}

func TestGetGameInfoEmptySkipsNetwork(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {})
	infos, err := c.GetGameInfo(context.Background(), nil)
	if err != nil || len(infos) != 0 {
		t.Fatalf("unexpected result %v %v", infos, err)
	}
	if fp.calls.Load() != 0 {
		t.Fatalf("no call expected")
	}
}

func TestUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"body text", http.StatusTooManyRequests, "slow down", "slow down"},
		{"status text", http.StatusBadGateway, "", "Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.GetGameInfo(context.Background(), []string{"1"})
			var ue *core.UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if ue.Status != tc.status || ue.Message != tc.want {
				t.Fatalf("unexpected error %+v", ue)
			}
		})
	}
}

func TestGetThumbnail(t *testing.T) {
	c, fp := newTestClient(t, func(w http.ResponseWriter, target *url.URL) {
		q := target.Query()
		if q.Get("size") != "512x512" || q.Get("format") != "Png" || q.Get("isCircular") != "false" {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"data":[{"targetId":9,"imageUrl":"https://tr.rbxcdn.com/icon.png"}]}`))
	})
	if got := c.GetThumbnail(context.Background(), "9"); got != "https://tr.rbxcdn.com/icon.png" {
		t.Fatalf("unexpected thumbnail %q (targets %v)", got, fp.targets)
	}
}

func TestGetThumbnailBestEffort(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if got := c.GetThumbnail(context.Background(), "9"); got != "" {
		t.Fatalf("expected empty thumbnail, got %q", got)
	}

	c, _ = newTestClient(t, func(w http.ResponseWriter, _ *url.URL) {
		w.Write([]byte(`{"data":[]}`))
	})
	if got := c.GetThumbnail(context.Background(), "9"); got != "" {
		t.Fatalf("expected empty thumbnail, got %q", got)
	}
}

func TestDirectWithoutProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/games") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data":[{"id":3,"name":"Direct","updated":"2024-01-01"}]}`))
	}))
	defer srv.Close()

	c := New(Config{GamesBase: srv.URL, HTTPClient: srv.Client()})
	infos, err := c.GetGameInfo(context.Background(), []string{"3"})
	if err != nil {
		t.Fatalf("direct call: %v", err)
	}
	if infos["3"].Name != "Direct" {
		t.Fatalf("unexpected infos %+v", infos)
	}
}
