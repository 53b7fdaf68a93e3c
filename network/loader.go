package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLocalPath serves URL paths from dir before going to the network.
func WithLocalPath(dir string) LoaderOption {
	return func(l *Loader) { l.localPath = dir }
}

// WithCache replaces the loader's cache.
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithMetrics records fetch metrics.
func WithMetrics(m *Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = log }
}

// Loader fetches resources from data URLs, file URLs, a local directory, a
// response cache, or the network, in that order. Identical GETs in flight at
// the same time share one request.
type Loader struct {
	client    *Client
	cache     *Cache
	localPath string
	metrics   *Metrics
	logger    *zap.Logger
	group     singleflight.Group
}

// NewLoader creates a loader on top of client.
func NewLoader(client *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client: client,
		cache:  NewCache(1000),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("loader")
	return l
}

// Fetch retrieves rawURL. Non-2xx responses are returned, not treated as
// errors; callers use CheckStatus.
func (l *Loader) Fetch(ctx context.Context, rawURL string, opts *FetchOptions) (*Response, error) {
	typ := ResourceTypeUnknown
	mode := CacheDefault
	if opts != nil {
		typ = opts.Type
		if opts.Cache != "" {
			mode = opts.Cache
		}
	}
	start := time.Now()
	resp, outcome, err := l.fetch(ctx, rawURL, opts, mode)
	l.metrics.observe(typ, outcome, time.Since(start))
	if err != nil {
		l.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Stringer("type", typ), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string, opts *FetchOptions, mode string) (*Response, string, error) {
	if IsDataURL(rawURL) {
		d, err := ParseDataURL(rawURL)
		if err != nil {
			return nil, "error", err
		}
		return &Response{URL: rawURL, Status: http.StatusOK, StatusText: "OK", ContentType: d.ContentType(), Body: d.Data}, "ok", nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "error", fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	if u.Scheme == "about" {
		return &Response{URL: rawURL, Status: http.StatusOK, StatusText: "OK", ContentType: "text/html"}, "ok", nil
	}
	if u.Scheme == "file" {
		resp, err := l.readFile(rawURL, filepath.FromSlash(u.Path))
		if err != nil {
			return nil, "error", err
		}
		return resp, "ok", nil
	}

	get := opts.method() == http.MethodGet
	if get && mode != CacheNoStore && mode != CacheReload {
		if resp, ok := l.cachedFor(rawURL, mode); ok {
			return resp, "cache", nil
		}
		if mode == CacheOnlyIfCached {
			return nil, "error", fmt.Errorf("fetch %s: not in cache", rawURL)
		}
	}
	if l.localPath != "" {
		if resp, err := l.readFile(rawURL, filepath.Join(l.localPath, filepath.FromSlash(u.Path))); err == nil {
			return resp, "ok", nil
		}
	}
	if l.client == nil {
		return nil, "error", fmt.Errorf("fetch %s: no HTTP client", rawURL)
	}

	var resp *Response
	if get && (opts == nil || len(opts.Headers) == 0) {
		v, err, shared := l.group.Do(rawURL, func() (any, error) {
			return l.client.Do(ctx, rawURL, opts)
		})
		if err != nil {
			return nil, "error", err
		}
		if shared {
			l.metrics.observeShared()
		}
		resp = v.(*Response)
	} else {
		if resp, err = l.client.Do(ctx, rawURL, opts); err != nil {
			return nil, "error", err
		}
	}
	if !resp.OK() {
		return resp, "status", nil
	}
	if get && mode != CacheNoStore {
		l.cache.Set(rawURL, resp)
	}
	return resp, "ok", nil
}

func (l *Loader) cachedFor(rawURL, mode string) (*Response, bool) {
	if mode == CacheForce || mode == CacheOnlyIfCached {
		if e, ok := l.cache.Get(rawURL); ok {
			return cachedCopy(e.Response), true
		}
		return nil, false
	}
	if resp, ok := l.cache.Fresh(rawURL); ok {
		return cachedCopy(resp), true
	}
	return nil, false
}

func cachedCopy(resp *Response) *Response {
	c := *resp
	c.Cached = true
	return &c
}

func (l *Loader) readFile(rawURL, path string) (*Response, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, "index.html")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	ct := GuessContentType(path)
	if strings.HasPrefix(ct, "text/") {
		ct += ";charset=utf-8"
	}
	return &Response{URL: rawURL, Status: http.StatusOK, StatusText: "OK", ContentType: ct, Body: data}, nil
}

// ClearCache empties the response cache.
func (l *Loader) ClearCache() { l.cache.Clear() }

// Cache returns the loader's response cache.
func (l *Loader) Cache() *Cache { return l.cache }
