package dom

import (
	"strings"

	"github.com/chrisuehlinger/vibedom/html"
)

// Document is the root of a tree. It is a Node whose nodeType is DocumentNode.
type Document Node

// Ready states of a document.
const (
	ReadyStateLoading  = ""
	ReadyStateComplete = "complete"
)

type documentData struct {
	window        *Window
	url           string
	doctype       string
	readyState    string
	activeElement *Element
	pointerLock   *Element
}

// NewDocument creates an empty document that belongs to no window.
func NewDocument() *Document {
	return newDocument(nil, "")
}

func newDocument(w *Window, url string) *Document {
	n := &Node{
		nodeType: DocumentNode,
		nodeName: "#document",
		doc:      &documentData{window: w, url: url},
	}
	return (*Document)(n)
}

// AsNode returns d as a Node.
func (d *Document) AsNode() *Node { return (*Node)(d) }

// DispatchEvent dispatches ev on the document. Documents have no parent, so the
// event does not bubble further.
func (d *Document) DispatchEvent(ev *Event) bool { return d.AsNode().DispatchEvent(ev) }

// DefaultView returns the window that owns the document, if any.
func (d *Document) DefaultView() *Window {
	if d == nil || d.doc == nil {
		return nil
	}
	return d.doc.window
}

// URL returns the address the document was loaded from.
func (d *Document) URL() string { return d.doc.url }

// Doctype returns the doctype name, e.g. "html", or "" if there was none.
func (d *Document) Doctype() string { return d.doc.doctype }

// ReadyState returns "" while loading and "complete" once the pipeline finished.
func (d *Document) ReadyState() string { return d.doc.readyState }

// DocumentElement returns the root element.
func (d *Document) DocumentElement() *Element {
	return d.AsNode().FirstElementChild()
}

func (d *Document) rootChild(tag string) *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for _, c := range root.AsNode().Children() {
		if c.elem.localName == tag && c.elem.namespace == "" {
			return c
		}
	}
	return nil
}

// Head returns the head element.
func (d *Document) Head() *Element { return d.rootChild("head") }

// Body returns the body element.
func (d *Document) Body() *Element { return d.rootChild("body") }

// ActiveElement returns the focused element, defaulting to body.
func (d *Document) ActiveElement() *Element {
	if d.doc.activeElement != nil {
		return d.doc.activeElement
	}
	return d.Body()
}

// PointerLockElement returns the element holding pointer lock, or nil.
func (d *Document) PointerLockElement() *Element { return d.doc.pointerLock }

// ExitPointerLock releases pointer lock.
func (d *Document) ExitPointerLock() {
	if d.doc.pointerLock != nil {
		d.setPointerLock(nil)
	}
}

func (d *Document) setPointerLock(el *Element) {
	d.doc.pointerLock = el
	fire := func() { d.DispatchEvent(NewEvent("pointerlockchange")) }
	if w := d.DefaultView(); w != nil {
		w.loop.QueueTask(fire)
		return
	}
	fire()
}

// CreateElement creates an element of the kind the owning window maps the
// tag to, or a generic element.
func (d *Document) CreateElement(tagName string) *Element {
	local := strings.ToLower(tagName)
	if w := d.DefaultView(); w != nil {
		return w.construct(d, local)
	}
	return newElement(d, local, "", KindGeneric)
}

// Namespace URIs understood by CreateElementNS.
const (
	NamespaceHTML   = "http://www.w3.org/1999/xhtml"
	NamespaceSVG    = "http://www.w3.org/2000/svg"
	NamespaceMathML = "http://www.w3.org/1998/Math/MathML"
)

// CreateElementNS creates an element in the given namespace. HTML namespace
// elements behave like CreateElement.
func (d *Document) CreateElementNS(namespaceURI, qualifiedName string) *Element {
	switch namespaceURI {
	case "", NamespaceHTML:
		return d.CreateElement(qualifiedName)
	case NamespaceSVG:
		return newElement(d, qualifiedName, "svg", KindGeneric)
	case NamespaceMathML:
		return newElement(d, qualifiedName, "math", KindGeneric)
	default:
		return newElement(d, qualifiedName, namespaceURI, KindGeneric)
	}
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) *Node { return newText(d, data) }

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) *Node { return newComment(d, data) }

// Write parses markup and appends the result to the body. Resources in the
// written content are not run.
func (d *Document) Write(markup string) error {
	parent := d.Body()
	if parent == nil {
		parent = d.DocumentElement()
	}
	if parent == nil {
		return ErrInvalidState("document has no element to write into")
	}
	nodes, err := html.ParseFragment(markup, parent.elem.localName)
	if err != nil {
		return err
	}
	for _, an := range nodes {
		n := bindNode(an, d.DefaultView(), d)
		if n == nil {
			continue
		}
		if _, err := parent.AsNode().AppendChild(n); err != nil {
			return err
		}
	}
	return nil
}

// GetElementById returns the first element in document order with the id.
func (d *Document) GetElementById(id string) *Element {
	return GetElementById(d.AsNode(), id)
}

// QuerySelector returns the first element matching selector.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	return QuerySelector(d.AsNode(), selector)
}

// QuerySelectorAll returns every element matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	return QuerySelectorAll(d.AsNode(), selector)
}

// GetElementsByTagName returns the elements with the tag name.
func (d *Document) GetElementsByTagName(tag string) []*Element {
	return GetElementsByTagName(d.AsNode(), tag)
}

// GetElementsByClassName returns the elements carrying the class.
func (d *Document) GetElementsByClassName(class string) []*Element {
	return GetElementsByClassName(d.AsNode(), class)
}
