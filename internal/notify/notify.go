// Package notify delivers "game updated" notifications to whichever
// channels are configured, behind a permission gate.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gameradar/internal/core"
	"gameradar/internal/log"
)

const updateBody = "A new update has been detected!"

// Notification is one user-visible update alert.
type Notification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Icon        string `json:"icon,omitempty"`
	PlaceID     string `json:"placeId"`
	UniverseID  string `json:"universeId"`
	GameName    string `json:"gameName"`
	LastUpdated string `json:"lastUpdated"`
}

// GameUpdated builds the notification for a game whose update time changed.
func GameUpdated(g core.Game) Notification {
	return Notification{
		Title:       "Update: " + g.Name,
		Body:        updateBody,
		Icon:        g.Thumbnail,
		PlaceID:     g.PlaceID,
		UniverseID:  g.UniverseID,
		GameName:    g.Name,
		LastUpdated: g.LastUpdated,
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// ParsePermission accepts the three permission names, case-insensitively.
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return p, nil
	case "":
		return PermissionDefault, nil
	default:
		return "", fmt.Errorf("%w: unknown notification permission %q", core.ErrValidation, s)
	}
}

// Requester asks the user (or an operator policy) to resolve a "default"
// permission.
type Requester interface {
	Request(ctx context.Context) (Permission, error)
}

type RequesterFunc func(ctx context.Context) (Permission, error)

func (f RequesterFunc) Request(ctx context.Context) (Permission, error) { return f(ctx) }

// Gate forwards notifications only while permission is granted. Anything
// else drops them silently.
type Gate struct {
	mu         sync.RWMutex
	permission Permission
	next       Notifier
	logger     *log.Logger
}

var _ Notifier = (*Gate)(nil)

func NewGate(p Permission, next Notifier, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Default(log.ComponentNotify)
	}
	if p == "" {
		p = PermissionDefault
	}
	return &Gate{permission: p, next: next, logger: logger}
}

func (g *Gate) Permission() Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.permission
}

// RequestPermission resolves a "default" permission once. Granted or denied
// states are left alone and the requester is not consulted.
func (g *Gate) RequestPermission(ctx context.Context, r Requester) (Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.permission != PermissionDefault || r == nil {
		return g.permission, nil
	}
	p, err := r.Request(ctx)
	if err != nil {
		return g.permission, fmt.Errorf("request notification permission: %w", err)
	}
	g.permission = p
	g.logger.InfoContext(ctx, "Notification permission resolved", "permission", string(p))
	return p, nil
}

func (g *Gate) Notify(ctx context.Context, n Notification) error {
	if g.Permission() != PermissionGranted || g.next == nil {
		return nil
	}
	return g.next.Notify(ctx, n)
}

// Multi fans a notification out to every channel. A failing channel does
// not stop the others; their errors are joined.
type Multi []Notifier

var _ Notifier = Multi(nil)

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default(log.ComponentNotify)
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, n.Title,
		"body", n.Body,
		log.FieldPlaceID, n.PlaceID,
		log.FieldUniverseID, n.UniverseID,
		log.FieldLastUpdated, n.LastUpdated)
	return nil
}

// Recorder keeps every notification it receives. Used by tests and by
// the status endpoint's recent-notification list.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if r.limit > 0 && len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
	return nil
}

// Recent returns a copy of the retained notifications, oldest first.
func (r *Recorder) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
