package network

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// ResourceType tells the loader what a fetch is for. It labels metrics and
// logs; the request itself does not change.
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeDocument
	ResourceTypeScript
	ResourceTypeImage
	ResourceTypeMedia
	ResourceTypeFetch
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeDocument:
		return "document"
	case ResourceTypeScript:
		return "script"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMedia:
		return "media"
	case ResourceTypeFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Cache modes accepted in FetchOptions.Cache.
const (
	CacheDefault      = "default"
	CacheNoStore      = "no-store"
	CacheReload       = "reload"
	CacheForce        = "force-cache"
	CacheOnlyIfCached = "only-if-cached"
)

// FetchOptions describes one request. A nil *FetchOptions is a plain GET.
type FetchOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
	Type    ResourceType
	Cache   string
}

func (o *FetchOptions) method() string {
	if o == nil || o.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(o.Method)
}

// Response is a fully read response.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	Status      int
	StatusText  string
	Headers     http.Header
	ContentType string
	Body        []byte
	Cached      bool
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Text decodes the body to UTF-8 using the charset from the content type.
func (r *Response) Text() (string, error) {
	_, cs := ParseContentType(r.ContentType)
	if cs == "" || cs == "utf-8" || cs == "us-ascii" {
		return string(r.Body), nil
	}
	rd, err := charset.NewReaderLabel(cs, bytes.NewReader(r.Body))
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", cs, err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", cs, err)
	}
	return string(b), nil
}

// ArrayBuffer returns the raw body bytes.
func (r *Response) ArrayBuffer() []byte { return r.Body }

// StatusError is returned by CheckStatus for non-2xx responses.
type StatusError struct {
	URL        string
	Status     int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.Status, e.StatusText)
}

// CheckStatus turns a non-2xx response into a *StatusError.
func CheckStatus(resp *Response) error {
	if resp == nil {
		return fmt.Errorf("fetch: nil response")
	}
	if resp.OK() {
		return nil
	}
	text := resp.StatusText
	if text == "" {
		text = http.StatusText(resp.Status)
	}
	return &StatusError{URL: resp.URL, Status: resp.Status, StatusText: text}
}
