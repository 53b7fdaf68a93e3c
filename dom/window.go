package dom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/html"
	"github.com/chrisuehlinger/vibedom/network"
)

// DefaultURL is the address of a window created without one.
const DefaultURL = "http://127.0.0.1/"

// Fixed viewport metrics reported to scripts.
const (
	InnerWidth       = 1280
	InnerHeight      = 1024
	DevicePixelRatio = 1
)

// WindowOptions configures a Window. Without a Fetcher or Evaluator the
// resources that need one fail with a NotSupportedError; without a Decoder
// every media payload is accepted.
type WindowOptions struct {
	URL      string
	BaseURL  string
	DataPath string

	Fetcher     Fetcher
	Evaluator   Evaluator
	Decoder     Decoder
	Contexts    ContextProvider
	OpenStorage StorageOpener

	Logger *zap.Logger
	// Loop is shared by frames. A top-level window creates its own when nil.
	Loop *Loop
	// Context bounds every fetch the window starts.
	Context context.Context
	// OnResource is called each time an element walked by the pipeline
	// settles, with the error it failed with, if any.
	OnResource func(el *Element, err error)
}

// Window owns one document at a time together with its location, history and
// tag table. Frames are windows whose parent is the embedding window.
type Window struct {
	Emitter

	id       string
	opts     WindowOptions
	loop     *Loop
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	document *Document
	location *Location
	history  *History
	parent   *Window
	top      *Window
	tags     map[string]Constructor
	baseURL  string
	frames   []*Window
	started  time.Time

	frameCallbacks map[int]func(float64)
	nextFrame      int

	storage    Storage
	storageErr error
	navigation uint64
	closed     bool
}

// NewWindow creates a top-level window holding an empty document.
func NewWindow(opts WindowOptions) (*Window, error) {
	return newWindow(opts, nil)
}

func newWindow(opts WindowOptions, parent *Window) (*Window, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = opts.URL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Loop == nil {
		opts.Loop = NewLoop(opts.Logger)
	}
	parentCtx := opts.Context
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	loc, err := newLocation(opts.URL)
	if err != nil {
		return nil, err
	}

	w := &Window{
		id:             uuid.NewString(),
		opts:           opts,
		loop:           opts.Loop,
		location:       loc,
		parent:         parent,
		tags:           defaultTags(),
		baseURL:        opts.BaseURL,
		started:        time.Now(),
		frameCallbacks: make(map[int]func(float64)),
	}
	w.ctx, w.cancel = context.WithCancel(parentCtx)
	w.logger = opts.Logger.With(zap.String("window", w.id))
	loc.w = w
	w.history = newHistory(w, loc.Href())
	w.top = w
	if parent != nil {
		w.top = parent.top
	}

	ast, err := html.Parse("")
	if err != nil {
		return nil, err
	}
	w.commit(ast, opts.URL)
	return w, nil
}

// ID returns the window's unique identifier.
func (w *Window) ID() string { return w.id }

// Document returns the current document.
func (w *Window) Document() *Document { return w.document }

// Location returns the window's location.
func (w *Window) Location() *Location { return w.location }

// History returns the window's session history.
func (w *Window) History() *History { return w.history }

// Parent returns the embedding window, or w itself for a top-level window.
func (w *Window) Parent() *Window {
	if w.parent == nil {
		return w
	}
	return w.parent
}

// Top returns the outermost window of the frame tree.
func (w *Window) Top() *Window { return w.top }

// Frames returns the child windows created by frames in this window.
func (w *Window) Frames() []*Window {
	out := make([]*Window, len(w.frames))
	copy(out, w.frames)
	return out
}

// Loop returns the event loop the window runs on.
func (w *Window) Loop() *Loop { return w.loop }

// Logger returns the window's logger.
func (w *Window) Logger() *zap.Logger { return w.logger }

// Context returns the context that bounds the window's fetches.
func (w *Window) Context() context.Context { return w.ctx }

// BaseURL returns the URL relative references are resolved against.
func (w *Window) BaseURL() string { return w.baseURL }

// DataPath returns the directory persistent state is kept in.
func (w *Window) DataPath() string { return w.opts.DataPath }

// Evaluator returns the script evaluator, if any.
func (w *Window) Evaluator() Evaluator { return w.opts.Evaluator }

// Run processes the window's event loop until it is idle or ctx ends.
func (w *Window) Run(ctx context.Context) error { return w.loop.Run(ctx) }

// Define maps a tag name to a constructor used by the binder and CreateElement.
func (w *Window) Define(tag string, c Constructor) {
	w.tags[strings.ToUpper(tag)] = c
}

// Constructor returns the constructor registered for tag.
func (w *Window) Constructor(tag string) (Constructor, bool) {
	c, ok := w.tags[strings.ToUpper(tag)]
	return c, ok
}

func (w *Window) construct(doc *Document, localName string) *Element {
	if c, ok := w.tags[strings.ToUpper(localName)]; ok {
		return c(doc, localName)
	}
	return newElement(doc, localName, "", KindGeneric)
}

// DispatchEvent runs the window's listeners. Windows are the top of the event
// path, so nothing bubbles further.
func (w *Window) DispatchEvent(ev *Event) bool {
	if ev.Target == nil {
		ev.Target = w
	}
	ev.CurrentTarget = w
	w.Emit(ev)
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

// Global reads a script global through the evaluator.
func (w *Window) Global(name string) (any, bool) {
	if r, ok := w.opts.Evaluator.(GlobalReader); ok {
		return r.Global(w, name)
	}
	return nil, false
}

// ResolveURL resolves ref against the window's base URL.
func (w *Window) ResolveURL(ref string) (string, error) {
	return network.ResolveURL(w.baseURL, ref)
}

// LoadMarkup parses markup into a new document for the window and starts the
// pipeline. Parse failures are returned and leave the current document alone.
func (w *Window) LoadMarkup(markup string) (*Document, error) {
	ast, err := html.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("load markup: %w", err)
	}
	doc := w.commit(ast, w.location.Href())
	w.runPipeline(doc)
	return doc, nil
}

// commit binds ast as the window's document.
func (w *Window) commit(ast *html.Node, url string) *Document {
	doc := Bind(ast, w, nil).AsDocument()
	doc.doc.url = url
	w.document = doc
	return doc
}

// PostMessage delivers data to the window's message listeners in a later task.
func (w *Window) PostMessage(data any) {
	w.loop.QueueTask(func() {
		w.DispatchEvent(&Event{Type: "message", Data: data})
	})
}

// RequestAnimationFrame registers cb for the next TickAnimationFrame.
func (w *Window) RequestAnimationFrame(cb func(timestamp float64)) int {
	w.nextFrame++
	w.frameCallbacks[w.nextFrame] = cb
	return w.nextFrame
}

// CancelAnimationFrame unregisters a frame callback.
func (w *Window) CancelAnimationFrame(id int) {
	delete(w.frameCallbacks, id)
}

// TickAnimationFrame runs every frame callback registered before the tick,
// in registration order, with the milliseconds since the window was created.
func (w *Window) TickAnimationFrame() {
	if len(w.frameCallbacks) == 0 {
		return
	}
	ids := make([]int, 0, len(w.frameCallbacks))
	for id := range w.frameCallbacks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]func(float64), len(ids))
	for i, id := range ids {
		callbacks[i] = w.frameCallbacks[id]
	}
	w.frameCallbacks = make(map[int]func(float64))
	ts := float64(time.Since(w.started).Microseconds()) / 1000
	for _, cb := range callbacks {
		cb(ts)
	}
}

// LocalStorage opens the window's persistent store on first use. Frames share
// their top window's store.
func (w *Window) LocalStorage() (Storage, error) {
	if w.top != w {
		return w.top.LocalStorage()
	}
	if w.storage != nil || w.storageErr != nil {
		return w.storage, w.storageErr
	}
	if w.opts.OpenStorage == nil {
		w.storageErr = ErrNotSupported("no storage is configured")
		return nil, w.storageErr
	}
	w.storage, w.storageErr = w.opts.OpenStorage(filepath.Join(w.opts.DataPath, ".localStorage"))
	if w.storageErr != nil {
		w.storageErr = fmt.Errorf("open local storage: %w", w.storageErr)
	}
	return w.storage, w.storageErr
}

// Close releases the window and its frames. Pending fetches are canceled and
// the loop's timers stop when a top-level window closes.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var errs []error
	for _, f := range w.frames {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.cancel()
	if r, ok := w.opts.Evaluator.(Releaser); ok {
		r.Release(w)
	}
	if c, ok := w.storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close local storage: %w", err))
		}
	}
	if w.parent == nil {
		w.loop.Close()
	}
	return errors.Join(errs...)
}

// newFrame creates the child window for a frame element.
func (w *Window) newFrame(url string) (*Window, error) {
	opts := w.opts
	opts.URL = url
	opts.BaseURL = url
	opts.Loop = w.loop
	opts.Context = w.ctx
	opts.OnResource = nil
	child, err := newWindow(opts, w)
	if err != nil {
		return nil, err
	}
	w.frames = append(w.frames, child)
	return child, nil
}

// fetch retrieves url off the loop and calls done on the loop. Non-2xx
// responses arrive as errors.
func (w *Window) fetch(url string, typ network.ResourceType, done func(*network.Response, error)) {
	if w.opts.Fetcher == nil {
		w.loop.QueueTask(func() { done(nil, ErrNotSupported("no fetcher is configured")) })
		return
	}
	ctx := w.ctx
	fetcher := w.opts.Fetcher
	w.loop.Go(func() func() {
		resp, err := fetcher.Fetch(ctx, url, &network.FetchOptions{Type: typ})
		if err == nil {
			err = network.CheckStatus(resp)
		}
		return func() { done(resp, err) }
	})
}

// Fetch retrieves url for script callers and reports the result on the loop.
func (w *Window) Fetch(url string, done func(*network.Response, error)) {
	resolved, err := w.ResolveURL(url)
	if err != nil {
		w.loop.QueueTask(func() { done(nil, err) })
		return
	}
	w.fetch(resolved, network.ResourceTypeFetch, done)
}

func (w *Window) evaluate(source, filename string, line, col int) error {
	if w.opts.Evaluator == nil {
		return ErrNotSupported("no script evaluator is configured")
	}
	return w.opts.Evaluator.Run(w, source, filename, line, col)
}

func (w *Window) decode(kind Kind, data []byte, contentType string) error {
	if w.opts.Decoder == nil {
		return nil
	}
	return w.opts.Decoder.Decode(kind, data, contentType)
}
