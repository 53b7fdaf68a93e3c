package js

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/vibedom/dom"
	"github.com/chrisuehlinger/vibedom/network"
)

type harness struct {
	t  *testing.T
	w  *dom.Window
	ev *Evaluator
}

func newHarness(t *testing.T, configure ...func(*dom.WindowOptions)) *harness {
	t.Helper()
	ev := New(WithRegisterer(prometheus.NewRegistry()))
	client, err := network.NewClient()
	require.NoError(t, err)
	opts := dom.WindowOptions{
		URL:       "http://example.test/app/index.html",
		Evaluator: ev,
		Fetcher:   network.NewLoader(client),
		DataPath:  t.TempDir(),
	}
	for _, c := range configure {
		c(&opts)
	}
	w, err := dom.NewWindow(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return &harness{t: t, w: w, ev: ev}
}

func (h *harness) load(markup string) {
	h.t.Helper()
	_, err := h.w.LoadMarkup(markup)
	require.NoError(h.t, err)
}

func (h *harness) run(source string) {
	h.t.Helper()
	require.NoError(h.t, h.ev.Run(h.w, source, "test.js", 1, 1))
}

func (h *harness) global(name string) any {
	h.t.Helper()
	v, ok := h.ev.Global(h.w, name)
	require.True(h.t, ok, "global %s is not defined", name)
	return v
}

func (h *harness) drain() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.w.Run(ctx))
}
