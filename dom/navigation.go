package dom

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/html"
	"github.com/chrisuehlinger/vibedom/network"
)

// navigate fetches entry.URL and, when it arrives, replaces the window's
// document and records entry, with its URL set to the final response URL. A
// failed fetch leaves everything as it was and emits error on the window. Only
// the most recent navigation commits.
func (w *Window) navigate(entry HistoryEntry, replace bool) {
	if w.closed {
		return
	}
	w.navigation++
	seq := w.navigation
	target := entry.URL
	log := w.logger.With(zap.String("url", target))
	log.Debug("navigating", zap.Bool("replace", replace))

	w.fetch(target, network.ResourceTypeDocument, func(resp *network.Response, err error) {
		if w.closed || seq != w.navigation {
			return
		}
		var ast *html.Node
		if err == nil {
			var text string
			if text, err = resp.Text(); err == nil {
				ast, err = html.Parse(text)
			}
		}
		if err != nil {
			log.Warn("navigation failed", zap.Error(err))
			w.DispatchEvent(&Event{Type: "error", URL: target, Error: fmt.Errorf("navigate to %s: %w", target, err)})
			return
		}
		entry.URL = resp.URL
		w.commitNavigation(ast, entry, replace)
	})
}

// commitNavigation unloads the current document, binds ast in its place and
// starts its pipeline.
func (w *Window) commitNavigation(ast *html.Node, entry HistoryEntry, replace bool) *Document {
	url := entry.URL
	w.navigation++
	old := w.document
	old.DispatchEvent(NewEvent("beforeunload"))
	old.DispatchEvent(NewEvent("unload"))

	for _, f := range w.frames {
		if err := f.Close(); err != nil {
			w.logger.Warn("close frame", zap.String("frame", f.id), zap.Error(err))
		}
	}
	w.frames = nil
	if r, ok := w.opts.Evaluator.(Releaser); ok {
		r.Release(w)
	}

	w.location.set(url)
	w.baseURL = url
	if replace {
		w.history.replace(entry)
	} else {
		w.history.push(entry)
	}
	doc := w.commit(ast, url)
	doc.DispatchEvent(&Event{Type: "navigate", URL: url, State: entry.State})
	w.runPipeline(doc)
	return doc
}
