package dom

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chrisuehlinger/vibedom/html"
	"github.com/chrisuehlinger/vibedom/network"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// parseDocument binds markup into a document that belongs to no window.
func parseDocument(t *testing.T, markup string) *Document {
	t.Helper()
	ast, err := html.Parse(markup)
	require.NoError(t, err)
	return Bind(ast, nil, nil).AsDocument()
}

type page struct {
	body        string
	contentType string
	status      int
	delay       time.Duration
}

// stubFetcher serves pages from memory. Unknown URLs are 404s.
type stubFetcher struct {
	mu       sync.Mutex
	pages    map[string]page
	requests []string
}

func newStubFetcher(pages map[string]page) *stubFetcher {
	return &stubFetcher{pages: pages}
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, _ *network.FetchOptions) (*network.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	p, ok := f.pages[url]
	f.mu.Unlock()
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return &network.Response{URL: url, Status: http.StatusNotFound, StatusText: "Not Found"}, nil
	}
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return &network.Response{URL: url, Status: p.status, ContentType: p.contentType, Body: []byte(p.body)}, nil
}

// recordingEvaluator records every source it runs. Sources starting with
// "throw" fail; hooks let a test run Go code for a given source.
type recordingEvaluator struct {
	ran      []string
	released []*Window
	hooks    map[string]func(w *Window)
}

func (e *recordingEvaluator) Run(w *Window, source, filename string, line, col int) error {
	source = strings.TrimSpace(source)
	e.ran = append(e.ran, source)
	if hook, ok := e.hooks[source]; ok {
		hook(w)
	}
	if strings.HasPrefix(source, "throw") {
		return errors.New(source)
	}
	return nil
}

func (e *recordingEvaluator) Release(w *Window) {
	e.released = append(e.released, w)
}

// stubDecoder rejects payloads equal to "bad".
type stubDecoder struct{}

func (stubDecoder) Decode(kind Kind, data []byte, contentType string) error {
	if string(data) == "bad" {
		return errors.New("cannot decode " + kind.String())
	}
	return nil
}

type memStorage struct {
	keys   []string
	values map[string]string
}

func (m *memStorage) GetItem(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStorage) SetItem(key, value string) error {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return nil
}

func (m *memStorage) RemoveItem(key string) error {
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStorage) Clear() error {
	m.keys = nil
	clear(m.values)
	return nil
}

func (m *memStorage) Len() (int, error) { return len(m.keys), nil }

func (m *memStorage) Key(i int) (string, bool, error) {
	if i < 0 || i >= len(m.keys) {
		return "", false, nil
	}
	return m.keys[i], true, nil
}

const testURL = "http://example.test/app/index.html"

func newTestWindow(t *testing.T, fetcher Fetcher, configure ...func(*WindowOptions)) (*Window, *recordingEvaluator) {
	t.Helper()
	ev := &recordingEvaluator{hooks: make(map[string]func(*Window))}
	opts := WindowOptions{
		URL:       testURL,
		Fetcher:   fetcher,
		Evaluator: ev,
		Decoder:   stubDecoder{},
	}
	for _, c := range configure {
		c(&opts)
	}
	w, err := NewWindow(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, ev
}

func drain(t *testing.T, w *Window) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))
}

func load(t *testing.T, w *Window, markup string) *Document {
	t.Helper()
	doc, err := w.LoadMarkup(markup)
	require.NoError(t, err)
	return doc
}

func mustQuery(t *testing.T, root *Node, sel string) *Element {
	t.Helper()
	el, err := QuerySelector(root, sel)
	require.NoError(t, err)
	require.NotNil(t, el, "no element matches %s", sel)
	return el
}
