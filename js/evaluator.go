// Package js runs classic scripts for dom windows on the goja engine. Every
// window gets its own realm: a goja runtime whose global object is bound to
// that window, its document, location, history and storage.
package js

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/dom"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the evaluator's logger. Console output goes to a child
// logger named "console".
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithRegisterer records script metrics in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Evaluator) { e.registerer = reg }
}

// Evaluator implements dom.Evaluator with one goja realm per window. Realms
// are created on first use and dropped by Release.
type Evaluator struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *metrics

	mu     sync.Mutex
	realms map[*dom.Window]*realm
}

var (
	_ dom.Evaluator    = (*Evaluator)(nil)
	_ dom.GlobalReader = (*Evaluator)(nil)
	_ dom.Releaser     = (*Evaluator)(nil)
)

// New creates an evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger: zap.NewNop(),
		realms: make(map[*dom.Window]*realm),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("js")
	e.metrics = newMetrics(e.registerer)
	return e
}

// Run compiles and runs source in w's realm. line and col position the first
// character so reported errors point into the enclosing file.
func (e *Evaluator) Run(w *dom.Window, source, filename string, line, col int) (err error) {
	r := e.realm(w)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("evaluate %s: panic: %v", filename, p)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.observe(outcome, time.Since(start))
	}()

	program, err := goja.Compile(filename, pad(source, line, col), false)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", filename, err)
	}
	if _, err = r.vm.RunProgram(program); err != nil {
		return fmt.Errorf("evaluate %s: %w", filename, err)
	}
	return nil
}

// pad shifts source so that goja reports positions relative to its file.
func pad(source string, line, col int) string {
	if line <= 1 && col <= 1 {
		return source
	}
	var sb strings.Builder
	sb.Grow(len(source) + line + col)
	if line > 1 {
		sb.WriteString(strings.Repeat("\n", line-1))
	}
	if col > 1 {
		sb.WriteString(strings.Repeat(" ", col-1))
	}
	sb.WriteString(source)
	return sb.String()
}

// Global exports the named global of w's realm. It reports false when the
// window has no realm yet or the global is undefined.
func (e *Evaluator) Global(w *dom.Window, name string) (any, bool) {
	e.mu.Lock()
	r, ok := e.realms[w]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	v := r.vm.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	return v.Export(), true
}

// Release drops w's realm. Callbacks the realm left on the loop stop running.
func (e *Evaluator) Release(w *dom.Window) {
	e.mu.Lock()
	r, ok := e.realms[w]
	delete(e.realms, w)
	e.mu.Unlock()
	if !ok {
		return
	}
	r.release()
	e.logger.Debug("realm released", zap.String("window", w.ID()))
}

func (e *Evaluator) realm(w *dom.Window) *realm {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.realms[w]; ok {
		return r
	}
	r := newRealm(e, w)
	e.realms[w] = r
	e.metrics.realms.Inc()
	return r
}
