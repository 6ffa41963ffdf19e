// Package roblox is the remote game source. Every request is routed through
// a CORS-style forwarding proxy that takes the upstream URL as a query
// parameter; an empty proxy prefix calls the Roblox APIs directly.
package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"gameradar/internal/cache"
	"gameradar/internal/core"
	"gameradar/internal/log"
)

const (
	DefaultProxyURL       = "https://roblox-updates.unleashed-xyz.workers.dev/?url="
	DefaultAPIsBase       = "https://apis.roblox.com"
	DefaultGamesBase      = "https://games.roblox.com"
	DefaultThumbnailsBase = "https://thumbnails.roblox.com"

	maxBodyBytes = 4 << 20
)

// Source is what the add-game flow and the reconciler need from Roblox.
type Source interface {
	ResolveUniverse(ctx context.Context, placeID string) (string, error)
	GetGameInfo(ctx context.Context, universeIDs []string) (map[string]core.GameInfo, error)
	GetThumbnail(ctx context.Context, universeID string) string
}

type Config struct {
	// ProxyURL is prepended to the query-escaped upstream URL.
	ProxyURL       string
	APIsBase       string
	GamesBase      string
	ThumbnailsBase string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CacheSize      int
	HTTPClient     *http.Client
	Logger         *log.Logger
}

type Client struct {
	http      *http.Client
	proxy     string
	apis      string
	games     string
	thumbs    string
	universes *cache.LRUCache[string]
	group     singleflight.Group
	logger    *log.Logger
}

var _ Source = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.APIsBase == "" {
		cfg.APIsBase = DefaultAPIsBase
	}
	if cfg.GamesBase == "" {
		cfg.GamesBase = DefaultGamesBase
	}
	if cfg.ThumbnailsBase == "" {
		cfg.ThumbnailsBase = DefaultThumbnailsBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClientWithPooling(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default(log.ComponentRoblox)
	}
	return &Client{
		http:      cfg.HTTPClient,
		proxy:     cfg.ProxyURL,
		apis:      strings.TrimRight(cfg.APIsBase, "/"),
		games:     strings.TrimRight(cfg.GamesBase, "/"),
		thumbs:    strings.TrimRight(cfg.ThumbnailsBase, "/"),
		universes: cache.NewLRUCache[string](cfg.CacheSize, cfg.CacheTTL),
		logger:    cfg.Logger,
	}
}

// UniverseCache exposes the place->universe cache so a cache.Manager can sweep it.
func (c *Client) UniverseCache() *cache.LRUCache[string] { return c.universes }

func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// ResolveUniverse maps a place id to its universe id. A response without a
// universe id is core.ErrNotFound.
func (c *Client) ResolveUniverse(ctx context.Context, placeID string) (string, error) {
	if id, ok := c.universes.Get(placeID); ok {
		return id, nil
	}

	// Shared by every caller waiting on placeID; detached from ctx and bounded
	// by the HTTP client timeout.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(placeID, func() (any, error) {
		var body struct {
			UniverseID json.Number `json:"universeId"`
		}
		target := fmt.Sprintf("%s/universes/v1/places/%s/universe", c.apis, url.PathEscape(placeID))
		if err := c.getJSON(shared, target, &body); err != nil {
			return "", err
		}
		id := body.UniverseID.String()
		if id == "" || id == "0" {
			return "", fmt.Errorf("%w: no universeId for place %s", core.ErrNotFound, placeID)
		}
		c.universes.Set(placeID, id)
		return id, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

type gameRow struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Updated string      `json:"updated"`
}

// GetGameInfo fetches current name and update time for every id in one
// batched call. Ids the upstream does not know are simply absent.
func (c *Client) GetGameInfo(ctx context.Context, universeIDs []string) (map[string]core.GameInfo, error) {
	out := make(map[string]core.GameInfo, len(universeIDs))
	if len(universeIDs) == 0 {
		return out, nil
	}

	var body struct {
		Data []gameRow `json:"data"`
	}
	target := fmt.Sprintf("%s/v1/games?universeIds=%s", c.games, strings.Join(universeIDs, ","))
	if err := c.getJSON(ctx, target, &body); err != nil {
		return nil, err
	}
	for _, g := range body.Data {
		id := g.ID.String()
		if id == "" {
			continue
		}
		out[id] = core.GameInfo{UniverseID: id, Name: g.Name, LastUpdated: g.Updated}
	}
	return out, nil
}

// GetThumbnail returns the 512x512 icon URL, or "" when anything goes wrong.
func (c *Client) GetThumbnail(ctx context.Context, universeID string) string {
	var body struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	target := fmt.Sprintf("%s/v1/games/icons?universeIds=%s&size=512x512&format=Png&isCircular=false",
		c.thumbs, url.QueryEscape(universeID))
	if err := c.getJSON(ctx, target, &body); err != nil {
		c.logger.WarnContext(ctx, "Thumbnail lookup failed", log.FieldUniverseID, universeID, log.FieldError, err)
		return ""
	}
	if len(body.Data) == 0 {
		return ""
	}
	return body.Data[0].ImageURL
}

// endpoint wraps target in the proxy prefix.
func (c *Client) endpoint(target string) string {
	if c.proxy == "" {
		return target
	}
	return c.proxy + url.QueryEscape(target)
}

func (c *Client) getJSON(ctx context.Context, target string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(target), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &core.UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &core.UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}
	c.logger.DebugContext(ctx, "Upstream call",
		"target", target,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &core.UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &core.UpstreamError{Status: resp.StatusCode, Message: "decode response: " + err.Error()}
	}
	return nil
}
