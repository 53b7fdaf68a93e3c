package dom

import (
	"mime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/html"
	"github.com/chrisuehlinger/vibedom/network"
)

var runnableScriptTypes = map[string]bool{
	"":                         true,
	"text/javascript":          true,
	"application/javascript":   true,
	"application/ecmascript":   true,
	"text/ecmascript":          true,
	"application/x-javascript": true,
	"text/x-javascript":        true,
	"application/x-ecmascript": true,
}

func (e *Element) window() *Window {
	if e.ownerDoc == nil {
		return nil
	}
	return e.ownerDoc.DefaultView()
}

// Src returns the src attribute.
func (e *Element) Src() string { return e.GetAttribute("src") }

// SetSrc sets the src attribute. On scripts, media and frames this starts a
// load.
func (e *Element) SetSrc(src string) { e.SetAttribute("src", src) }

// Async reports whether a script carries the async attribute.
func (e *Element) Async() bool { return e.HasAttribute("async") }

// Type returns the type attribute.
func (e *Element) Type() string { return e.GetAttribute("type") }

// Runnable reports whether a script's type names a classic script.
func (e *Element) Runnable() bool {
	typ := strings.TrimSpace(e.Type())
	if typ != "" {
		if mt, _, err := mime.ParseMediaType(typ); err == nil {
			typ = mt
		} else {
			typ = strings.ToLower(typ)
		}
	}
	return runnableScriptTypes[typ]
}

// Run starts the element's resource work: a script is evaluated, media and
// frames load their src. The element later emits exactly one of load or error.
// Run reports false when there was nothing to start.
func (e *Element) Run() bool {
	w := e.window()
	if w == nil || w.closed {
		return false
	}
	switch e.elem.kind {
	case KindScript:
		return e.runScript(w)
	case KindImage, KindAudio, KindVideo:
		if e.Src() == "" {
			return false
		}
		e.loadMedia(w)
		return true
	case KindFrame:
		if e.Src() == "" {
			return false
		}
		e.loadFrame(w)
		return true
	}
	return false
}

func (e *Element) runScript(w *Window) bool {
	if e.elem.started || !e.Runnable() {
		return false
	}
	e.elem.started = true
	if src := e.Src(); src != "" {
		e.fetchScript(w, src)
		return true
	}
	line, col := 1, 1
	if loc := e.elem.location; loc != nil && loc.ContentLine > 0 {
		line, col = loc.ContentLine, loc.ContentCol
	}
	err := w.evaluate(e.AsNode().TextContent(), w.document.URL(), line, col)
	w.loop.QueueTask(func() { e.settle(w, err) })
	return true
}

func (e *Element) fetchScript(w *Window, src string) {
	resolved, err := w.ResolveURL(src)
	if err != nil {
		w.loop.QueueTask(func() { e.settle(w, err) })
		return
	}
	doc := w.document
	w.fetch(resolved, network.ResourceTypeScript, func(resp *network.Response, err error) {
		if err == nil && (w.closed || w.document != doc) {
			err = ErrInvalidState("document was replaced while " + resolved + " was loading")
		}
		if err == nil {
			var text string
			if text, err = resp.Text(); err == nil {
				err = w.evaluate(text, resolved, 1, 1)
			}
		}
		e.settle(w, err)
	})
}

// settle emits the element's outcome. Settle events do not bubble.
func (e *Element) settle(w *Window, err error) {
	n := e.AsNode()
	if err != nil {
		w.logger.Warn("resource failed",
			zap.String("tag", e.TagName()),
			zap.String("src", e.Src()),
			zap.Error(err))
		e.elem.readyState = "error"
		n.Emit(&Event{Type: "error", Target: n, CurrentTarget: n, Error: err})
		return
	}
	e.elem.readyState = "complete"
	n.Emit(&Event{Type: "load", Target: n, CurrentTarget: n})
	if e.elem.kind == KindAudio {
		n.Emit(&Event{Type: "canplay", Target: n, CurrentTarget: n})
	}
}

func (e *Element) loadMedia(w *Window) {
	resolved, err := w.ResolveURL(e.Src())
	if err != nil {
		w.loop.QueueTask(func() { e.settle(w, err) })
		return
	}
	typ := network.ResourceTypeImage
	if e.elem.kind != KindImage {
		typ = network.ResourceTypeMedia
	}
	e.elem.readyState = "loading"
	w.fetch(resolved, typ, func(resp *network.Response, err error) {
		if err == nil {
			err = w.decode(e.elem.kind, resp.ArrayBuffer(), resp.ContentType)
		}
		e.settle(w, err)
	})
}

func (e *Element) loadFrame(w *Window) {
	resolved, err := w.ResolveURL(e.Src())
	if err != nil {
		w.loop.QueueTask(func() { e.settle(w, err) })
		return
	}
	w.fetch(resolved, network.ResourceTypeDocument, func(resp *network.Response, err error) {
		if err != nil {
			e.settle(w, err)
			return
		}
		text, err := resp.Text()
		if err != nil {
			e.settle(w, err)
			return
		}
		ast, err := html.Parse(text)
		if err != nil {
			e.settle(w, err)
			return
		}
		var doc *Document
		if child := e.elem.frame; child != nil && !child.closed {
			doc = child.commitNavigation(ast, HistoryEntry{URL: resp.URL}, false)
		} else {
			if child, err = w.newFrame(resp.URL); err != nil {
				e.settle(w, err)
				return
			}
			e.elem.frame = child
			doc = child.commit(ast, resp.URL)
			child.runPipeline(doc)
		}
		doc.AsNode().Once("readystatechange", func(*Event) {
			if doc.ReadyState() == ReadyStateComplete {
				e.settle(w, nil)
			}
		})
	})
}

// ContentWindow returns the frame's child window, creating an empty one on
// first access. It is nil for other kinds.
func (e *Element) ContentWindow() *Window {
	if e.elem.kind != KindFrame {
		return nil
	}
	if e.elem.frame != nil {
		return e.elem.frame
	}
	w := e.window()
	if w == nil {
		return nil
	}
	child, err := w.newFrame("about:blank")
	if err != nil {
		w.logger.Warn("create frame window", zap.Error(err))
		return nil
	}
	e.elem.frame = child
	return child
}

// ContentDocument returns the document of the frame's child window.
func (e *Element) ContentDocument() *Document {
	if cw := e.ContentWindow(); cw != nil {
		return cw.Document()
	}
	return nil
}

// Paused reports whether a media element is paused. Media starts paused.
func (e *Element) Paused() bool { return e.elem.paused }

// Play unpauses a media element and emits play.
func (e *Element) Play() {
	if e.elem.kind != KindAudio && e.elem.kind != KindVideo {
		return
	}
	e.elem.paused = false
	e.DispatchEvent(NewEvent("play"))
}

// Pause pauses a media element and emits pause.
func (e *Element) Pause() {
	if e.elem.kind != KindAudio && e.elem.kind != KindVideo {
		return
	}
	e.elem.paused = true
	e.DispatchEvent(NewEvent("pause"))
}

func (e *Element) dimension(name string) int {
	if v, err := strconv.Atoi(strings.TrimSpace(e.GetAttribute(name))); err == nil && v >= 0 {
		return v
	}
	return 1
}

// Width returns a canvas's width attribute, 1 when missing or invalid.
func (e *Element) Width() int { return e.dimension("width") }

// Height returns a canvas's height attribute, 1 when missing or invalid.
func (e *Element) Height() int { return e.dimension("height") }

// SetWidth sets the width attribute.
func (e *Element) SetWidth(v int) { e.SetAttribute("width", strconv.Itoa(v)) }

// SetHeight sets the height attribute.
func (e *Element) SetHeight(v int) { e.SetAttribute("height", strconv.Itoa(v)) }

// GetContext asks the window's context provider for a rendering context.
func (e *Element) GetContext(kind string) (any, error) {
	if e.elem.kind != KindCanvas {
		return nil, ErrNotSupported("getContext on <" + e.elem.localName + ">")
	}
	w := e.window()
	if w == nil || w.opts.Contexts == nil {
		return nil, ErrNotSupported("no canvas context provider is configured")
	}
	return w.opts.Contexts.GetContext(e, kind)
}

// Href returns an anchor's href resolved against the base URL, or the raw
// attribute when it cannot be resolved.
func (e *Element) Href() string {
	raw := e.GetAttribute("href")
	w := e.window()
	if w == nil || raw == "" {
		return raw
	}
	if resolved, err := w.ResolveURL(raw); err == nil {
		return resolved
	}
	return raw
}

// attributeChanged starts a load when src is written on a resource element,
// whether or not it is connected.
func (e *Element) attributeChanged(name string) {
	if name != "src" || !e.isResource() {
		return
	}
	w := e.window()
	if w == nil || w.closed {
		return
	}
	switch e.elem.kind {
	case KindScript:
		if e.elem.started || !e.Runnable() {
			return
		}
		e.elem.started = true
		e.fetchScript(w, e.Src())
	case KindImage, KindAudio, KindVideo:
		e.loadMedia(w)
	case KindFrame:
		e.loadFrame(w)
	}
}
