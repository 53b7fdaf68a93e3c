package dom

import (
	"fmt"
	"net/url"
)

// HistoryEntry is one entry of a window's session history.
type HistoryEntry struct {
	URL   string
	Title string
	State any
}

// History is the window's navigation stack.
type History struct {
	w       *Window
	entries []HistoryEntry
	index   int
}

func newHistory(w *Window, initial string) *History {
	return &History{w: w, entries: []HistoryEntry{{URL: initial}}}
}

// Length returns the number of entries.
func (h *History) Length() int { return len(h.entries) }

// Index returns the position of the current entry.
func (h *History) Index() int { return h.index }

// Current returns the current entry.
func (h *History) Current() HistoryEntry { return h.entries[h.index] }

// State returns the state of the current entry.
func (h *History) State() any { return h.entries[h.index].State }

// Back moves n entries back. n <= 0 means one.
func (h *History) Back(n int) {
	if n <= 0 {
		n = 1
	}
	h.Go(-n)
}

// Forward moves n entries forward. n <= 0 means one.
func (h *History) Forward(n int) {
	if n <= 0 {
		n = 1
	}
	h.Go(n)
}

// Go moves delta entries through the stack. Motion outside the stack, or by
// zero, does nothing. When the current entry changes the window's location is
// updated without fetching and popstate fires on the window in a later task.
func (h *History) Go(delta int) {
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		return
	}
	h.index = target
	entry := h.entries[target]
	h.w.location.set(entry.URL)
	h.w.loop.QueueTask(func() {
		h.w.DispatchEvent(&Event{Type: "popstate", URL: entry.URL, State: entry.State})
	})
}

// PushState navigates to rawURL, resolved against the current URL, and adds an
// entry carrying state and title once the new document commits. Forward
// entries are dropped at that point. An empty rawURL loads the current URL
// again. The location keeps its value until the navigation commits.
func (h *History) PushState(state any, title, rawURL string) error {
	next, err := h.resolve(rawURL)
	if err != nil {
		return err
	}
	h.w.navigate(HistoryEntry{URL: next, Title: title, State: state}, false)
	return nil
}

// ReplaceState navigates like PushState but rewrites the current entry instead
// of adding one.
func (h *History) ReplaceState(state any, title, rawURL string) error {
	next, err := h.resolve(rawURL)
	if err != nil {
		return err
	}
	h.w.navigate(HistoryEntry{URL: next, Title: title, State: state}, true)
	return nil
}

func (h *History) resolve(rawURL string) (string, error) {
	cur := h.w.location.url
	if rawURL == "" {
		return cur.String(), nil
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrSyntax(fmt.Sprintf("invalid URL %q", rawURL))
	}
	next := cur.ResolveReference(ref)
	if next.Scheme != cur.Scheme || next.Host != cur.Host {
		return "", &DOMError{Name: "SecurityError", Message: fmt.Sprintf("%s is not same-origin with %s", next, cur)}
	}
	return next.String(), nil
}

func (h *History) push(e HistoryEntry) {
	h.entries = append(h.entries[:h.index+1], e)
	h.index = len(h.entries) - 1
}

func (h *History) replace(e HistoryEntry) {
	h.entries[h.index] = e
}

func (h *History) replaceURL(u string) {
	h.entries[h.index].URL = u
}
