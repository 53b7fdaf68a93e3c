package dom

// resourcesIn returns the resource elements under nodes in document order.
// The result is a snapshot: elements a running script inserts later are not
// part of it.
func resourcesIn(nodes []*Node) []*Element {
	var out []*Element
	for _, n := range nodes {
		n.Walk(func(c *Node) bool {
			if el := c.AsElement(); el != nil && el.isResource() {
				out = append(out, el)
			}
			return true
		})
	}
	return out
}

func (e *Element) isResource() bool {
	switch e.elem.kind {
	case KindScript, KindImage, KindAudio, KindVideo, KindFrame:
		return true
	}
	return false
}

// blocking reports whether the walk waits for the element to settle.
func (e *Element) blocking() bool {
	return e.elem.kind == KindScript && !e.HasAttribute("async")
}

// runThen runs the element and calls done with the outcome of its first load
// or error event. It reports false, without calling done, when the element had
// nothing to run.
func (e *Element) runThen(done func(error)) bool {
	n := e.AsNode()
	var loadID, errorID ListenerID
	settled := false
	finish := func(err error) {
		if settled {
			return
		}
		settled = true
		n.Off("load", loadID)
		n.Off("error", errorID)
		done(err)
	}
	loadID = n.On("load", func(*Event) { finish(nil) })
	errorID = n.On("error", func(ev *Event) { finish(ev.Error) })
	if !e.Run() {
		n.Off("load", loadID)
		n.Off("error", errorID)
		return false
	}
	return true
}

// walk is one pipeline pass over a snapshot of resource elements.
type walk struct {
	w         *Window
	doc       *Document
	els       []*Element
	pending   int
	walked    bool
	onWalked  func()
	onSettled func()
}

// runResources walks els in order. Classic scripts are awaited before the walk
// moves on; everything else starts and is tracked without blocking. onWalked
// runs once the last element has been started, onSettled once every started
// element has also reported load or error. A walk whose window moves on to a
// new document stops where it is.
func (w *Window) runResources(els []*Element, onWalked, onSettled func()) {
	p := &walk{w: w, doc: w.document, els: els, onWalked: onWalked, onSettled: onSettled}
	p.step(0)
}

func (p *walk) step(i int) {
	for ; i < len(p.els); i++ {
		if p.abandoned() {
			return
		}
		el := p.els[i]
		if el.blocking() {
			next := i + 1
			if el.runThen(func(err error) {
				p.observe(el, err)
				p.step(next)
			}) {
				return
			}
			continue
		}
		p.pending++
		if !el.runThen(func(err error) {
			p.observe(el, err)
			p.pending--
			p.finish()
		}) {
			p.pending--
		}
	}
	p.walked = true
	if p.onWalked != nil {
		p.onWalked()
	}
	p.finish()
}

func (p *walk) abandoned() bool {
	return p.w.closed || p.w.document != p.doc
}

func (p *walk) finish() {
	if !p.walked || p.pending > 0 || p.onSettled == nil || p.abandoned() {
		return
	}
	cb := p.onSettled
	p.onSettled = nil
	cb()
}

func (p *walk) observe(el *Element, err error) {
	if hook := p.w.opts.OnResource; hook != nil {
		hook(el, err)
	}
}

// runPipeline runs every resource of a freshly committed document. When the
// walk is over DOMContentLoaded fires on the document; when every resource has
// settled the document becomes complete, fires readystatechange, and the
// window fires load.
// The walk starts in a later task so callers can subscribe first.
func (w *Window) runPipeline(doc *Document) {
	w.loop.QueueTask(func() {
		if w.closed || w.document != doc {
			return
		}
		w.runResources(resourcesIn([]*Node{doc.AsNode()}),
			func() {
				doc.DispatchEvent(NewEvent("DOMContentLoaded"))
			},
			func() {
				doc.doc.readyState = ReadyStateComplete
				doc.DispatchEvent(NewEvent("readystatechange"))
				w.DispatchEvent(NewEvent("load"))
			})
	})
}
