package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, opts ...LoaderOption) *Loader {
	t.Helper()
	client, err := NewClient()
	require.NoError(t, err)
	return NewLoader(client, opts...)
}

func TestLoaderDataURL(t *testing.T) {
	l := newTestLoader(t)
	resp, err := l.Fetch(context.Background(), "data:text/javascript,window.x%3D1", &FetchOptions{Type: ResourceTypeScript})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "window.x=1", text)
	assert.Equal(t, "text/javascript;charset=us-ascii", resp.ContentType)
}

func TestLoaderHTTPStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	l := newTestLoader(t)
	resp, err := l.Fetch(context.Background(), server.URL+"/missing.js", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	err = CheckStatus(resp)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, 0, l.Cache().Size(), "failed responses are not cached")
}

func TestLoaderLocalPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>home</p>"), 0o644))

	l := newTestLoader(t, WithLocalPath(dir))
	resp, err := l.Fetch(context.Background(), "http://unreachable.invalid/js/app.js", nil)
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(resp.Body))
	assert.Equal(t, "text/javascript;charset=utf-8", resp.ContentType)

	resp, err = l.Fetch(context.Background(), "http://unreachable.invalid/", nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>home</p>", string(resp.Body))
}

func TestLoaderFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	l := NewLoader(nil)
	resp, err := l.Fetch(context.Background(), "file://"+filepath.ToSlash(path), nil)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(resp.Body))

	_, err = l.Fetch(context.Background(), "file://"+filepath.ToSlash(filepath.Join(dir, "nope.html")), nil)
	assert.Error(t, err)
}

func TestLoaderAboutBlank(t *testing.T) {
	l := NewLoader(nil)
	resp, err := l.Fetch(context.Background(), "about:blank", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, resp.Body)
}

func TestLoaderCacheModes(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte("cached"))
	}))
	defer server.Close()

	l := newTestLoader(t)
	ctx := context.Background()

	resp, err := l.Fetch(ctx, server.URL, nil)
	require.NoError(t, err)
	assert.False(t, resp.Cached)

	resp, err = l.Fetch(ctx, server.URL, nil)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, int32(1), hits.Load())

	_, err = l.Fetch(ctx, server.URL, &FetchOptions{Cache: CacheReload})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, err = l.Fetch(ctx, server.URL+"/other", &FetchOptions{Cache: CacheOnlyIfCached})
	assert.ErrorContains(t, err, "not in cache")

	l.ClearCache()
	_, err = l.Fetch(ctx, server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestLoaderSharesConcurrentGets(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte("shared"))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	l := newTestLoader(t, WithMetrics(metrics))

	const callers = 4
	var wg sync.WaitGroup
	bodies := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := l.Fetch(context.Background(), server.URL, &FetchOptions{Type: ResourceTypeImage})
			if assert.NoError(t, err) {
				bodies[i] = string(resp.Body)
			}
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, b := range bodies {
		assert.Equal(t, "shared", b)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, float64(callers), counterValue(t, metrics.fetches.WithLabelValues("image", "ok")))
	assert.Equal(t, float64(callers-1), counterValue(t, metrics.shared))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestLoaderPost(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(r.Method))
	}))
	defer server.Close()

	l := newTestLoader(t)
	for range 2 {
		resp, err := l.Fetch(context.Background(), server.URL, &FetchOptions{Method: http.MethodPost, Body: []byte("x")})
		require.NoError(t, err)
		assert.Equal(t, "POST", string(resp.Body))
	}
	assert.Equal(t, int32(2), hits.Load(), "POST responses are never cached")
}

func TestResponseTextDecodesCharset(t *testing.T) {
	resp := &Response{ContentType: "text/plain; charset=iso-8859-1", Body: []byte{'c', 'a', 'f', 0xe9}}
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "café", text)

	resp = &Response{ContentType: "text/plain; charset=no-such-charset", Body: []byte("x")}
	_, err = resp.Text()
	assert.Error(t, err)
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus(&Response{Status: 204}))
	err := CheckStatus(&Response{URL: "http://x/", Status: 500})
	assert.EqualError(t, err, "fetch http://x/: status 500 Internal Server Error")
	assert.Error(t, CheckStatus(nil))
}
