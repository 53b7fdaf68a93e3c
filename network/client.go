// Package network fetches documents, scripts and media for windows: an HTTP
// client with cookies and content decoding, a response cache, and a loader
// that also serves data URLs and local files.
package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is sent when no other agent is configured.
const DefaultUserAgent = "vibedom/1.0"

// Client is an HTTP client with a cookie jar and transparent content decoding.
type Client struct {
	httpClient     *http.Client
	cookieJar      http.CookieJar
	timeout        time.Duration
	maxRedirects   int
	userAgent      string
	followRedirect bool
	logger         *zap.Logger

	mu sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRedirects sets how many redirects are followed.
func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) { c.maxRedirects = n }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithFollowRedirect enables or disables redirect following.
func WithFollowRedirect(follow bool) ClientOption {
	return func(c *Client) { c.followRedirect = follow }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// NewClient creates a client.
func NewClient(opts ...ClientOption) (*Client, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	c := &Client{
		cookieJar:      jar,
		timeout:        30 * time.Second,
		maxRedirects:   10,
		userAgent:      DefaultUserAgent,
		followRedirect: true,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("http")

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Decoding is done by decodeBody so brotli is handled too.
		DisableCompression: true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	c.httpClient = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   c.timeout,
	}
	if c.followRedirect {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
			}
			return nil
		}
	} else {
		c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c, nil
}

// Do performs a request and reads the whole body.
func (c *Client) Do(ctx context.Context, rawURL string, opts *FetchOptions) (*Response, error) {
	var body *bytes.Reader
	if opts != nil && len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, opts.method(), rawURL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, opts.method(), rawURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	c.mu.RLock()
	hc := c.httpClient
	c.mu.RUnlock()
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	data, err := decodeBody(resp.Body, splitEncodings(resp.Header.Values("Content-Encoding")))
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	c.logger.Debug("response",
		zap.String("method", req.Method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Response{
		URL:         final,
		Status:      resp.StatusCode,
		StatusText:  http.StatusText(resp.StatusCode),
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, rawURL, nil)
}

// SetCookies stores cookies for u.
func (c *Client) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cookieJar.SetCookies(u, cookies)
}

// Cookies returns the cookies that would be sent to u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookieJar.Cookies(u)
}

// ClearCookies replaces the jar with an empty one.
func (c *Client) ClearCookies() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookieJar = jar
	hc := *c.httpClient
	hc.Jar = jar
	c.httpClient = &hc
	return nil
}

// ParseContentType splits a Content-Type header into its lowercase media
// type and charset. An empty header is application/octet-stream.
func ParseContentType(contentType string) (mediaType, cs string) {
	if strings.TrimSpace(contentType) == "" {
		return "application/octet-stream", ""
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		return mt, ""
	}
	return mt, strings.ToLower(params["charset"])
}

// IsHTMLContentType reports whether contentType is HTML.
func IsHTMLContentType(contentType string) bool {
	mt, _ := ParseContentType(contentType)
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// IsJavaScriptContentType reports whether contentType is a script type.
func IsJavaScriptContentType(contentType string) bool {
	mt, _ := ParseContentType(contentType)
	switch mt {
	case "text/javascript", "application/javascript", "application/x-javascript",
		"application/ecmascript", "text/ecmascript":
		return true
	}
	return false
}

// IsImageContentType reports whether contentType is an image type.
func IsImageContentType(contentType string) bool {
	mt, _ := ParseContentType(contentType)
	return strings.HasPrefix(mt, "image/")
}
