package notify

import (
	"context"
	"errors"
	"testing"

	"gameradar/internal/core"
)

func TestGameUpdated(t *testing.T) {
	n := GameUpdated(core.Game{PlaceID: "1", UniverseID: "9", Name: "Adventure", Thumbnail: "icon", LastUpdated: "2024-06-01"})
	if n.Title != "Update: Adventure" || n.Body != "A new update has been detected!" || n.Icon != "icon" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestParsePermission(t *testing.T) {
	cases := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"granted", PermissionGranted, false},
		{" DENIED ", PermissionDenied, false},
		{"", PermissionDefault, false},
		{"maybe", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePermission(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParsePermission(%q) = %q, %v", tc.in, got, err)
		}
		if tc.wantErr && !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestGateDropsUnlessGranted(t *testing.T) {
	for _, p := range []Permission{PermissionDenied, PermissionDefault} {
		rec := NewRecorder(0)
		g := NewGate(p, rec, nil)
		if err := g.Notify(context.Background(), Notification{Title: "x"}); err != nil {
			t.Fatalf("notify: %v", err)
		}
		if len(rec.Recent()) != 0 {
			t.Fatalf("%s: notification should be dropped", p)
		}
	}

	rec := NewRecorder(0)
	g := NewGate(PermissionGranted, rec, nil)
	g.Notify(context.Background(), Notification{Title: "x"})
	if len(rec.Recent()) != 1 {
		t.Fatalf("granted gate should forward")
	}
}

func TestRequestPermissionOnce(t *testing.T) {
	calls := 0
	req := RequesterFunc(func(context.Context) (Permission, error) {
		calls++
		return PermissionGranted, nil
	})

	g := NewGate(PermissionDefault, nil, nil)
	p, err := g.RequestPermission(context.Background(), req)
	if err != nil || p != PermissionGranted {
		t.Fatalf("unexpected %q %v", p, err)
	}
	g.RequestPermission(context.Background(), req)
	if calls != 1 {
		t.Fatalf("requester consulted %d times", calls)
	}

	denied := NewGate(PermissionDenied, nil, nil)
	if p, _ := denied.RequestPermission(context.Background(), req); p != PermissionDenied {
		t.Fatalf("denied should stay denied, got %q", p)
	}
	if calls != 1 {
		t.Fatalf("requester should not be asked when already decided")
	}
}

func TestRequestPermissionError(t *testing.T) {
	g := NewGate(PermissionDefault, nil, nil)
	_, err := g.RequestPermission(context.Background(), RequesterFunc(func(context.Context) (Permission, error) {
		return "", errors.New("dismissed")
	}))
	if err == nil || g.Permission() != PermissionDefault {
		t.Fatalf("failed request should leave permission at default, got %q %v", g.Permission(), err)
	}
}

func TestMultiContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	rec := NewRecorder(0)
	m := Multi{
		NotifierFunc(func(context.Context, Notification) error { return boom }),
		nil,
		rec,
	}
	err := m.Notify(context.Background(), Notification{Title: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(rec.Recent()) != 1 {
		t.Fatalf("later channels should still receive the notification")
	}
}

func TestRecorderLimit(t *testing.T) {
	rec := NewRecorder(2)
	for _, title := range []string{"a", "b", "c"} {
		rec.Notify(context.Background(), Notification{Title: title})
	}
	got := rec.Recent()
	if len(got) != 2 || got[0].Title != "b" || got[1].Title != "c" {
		t.Fatalf("unexpected recent %+v", got)
	}
}
