package dom

import (
	"slices"
	"strings"

	"github.com/chrisuehlinger/vibedom/html"
)

// Element is a Node whose nodeType is ElementNode.
type Element Node

// Kind is the concrete variant of an element. Kinds with behaviour (scripts,
// media, frames, canvases) are selected by the window's tag table.
type Kind int

const (
	KindGeneric Kind = iota
	KindAnchor
	KindScript
	KindImage
	KindAudio
	KindVideo
	KindFrame
	KindCanvas
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAnchor:
		return "anchor"
	case KindScript:
		return "script"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindFrame:
		return "frame"
	case KindCanvas:
		return "canvas"
	default:
		return "generic"
	}
}

// Attr is one attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// AttributeChange is the payload of an attribute notification. A nil OldValue
// means the attribute did not exist; a nil NewValue means it was removed.
type AttributeChange struct {
	Name     string
	OldValue *string
	NewValue *string
}

type elementData struct {
	localName string
	namespace string
	attrs     []Attr
	kind      Kind
	location  *html.Location

	started    bool
	readyState string
	paused     bool
	frame      *Window
}

func (d *elementData) clone() *elementData {
	c := &elementData{
		localName: d.localName,
		namespace: d.namespace,
		kind:      d.kind,
		location:  d.location,
		paused:    true,
	}
	c.attrs = make([]Attr, len(d.attrs))
	copy(c.attrs, d.attrs)
	return c
}

func newElement(doc *Document, localName, namespace string, kind Kind) *Element {
	name := localName
	if namespace == "" {
		name = strings.ToUpper(localName)
	}
	n := &Node{
		nodeType: ElementNode,
		nodeName: name,
		ownerDoc: doc,
		elem: &elementData{
			localName: localName,
			namespace: namespace,
			kind:      kind,
			paused:    true,
		},
	}
	return (*Element)(n)
}

// AsNode returns e as a Node.
func (e *Element) AsNode() *Node { return (*Node)(e) }

// DispatchEvent dispatches ev on the element and bubbles it to its ancestors.
func (e *Element) DispatchEvent(ev *Event) bool { return e.AsNode().DispatchEvent(ev) }

// TagName returns the tag name, uppercased for HTML elements.
func (e *Element) TagName() string { return e.nodeName }

// LocalName returns the tag name as written in the namespace, lowercase for HTML.
func (e *Element) LocalName() string { return e.elem.localName }

// Namespace returns the parser namespace ("" for HTML, "svg", "math").
func (e *Element) Namespace() string { return e.elem.namespace }

// Kind returns the element's variant.
func (e *Element) Kind() Kind { return e.elem.kind }

// Location returns where the element's start tag appeared in its source, or nil
// for elements created by script.
func (e *Element) Location() *html.Location { return e.elem.location }

func (e *Element) normalizeName(name string) string {
	if e.elem.namespace == "" {
		return strings.ToLower(name)
	}
	return name
}

func (e *Element) attrIndex(name string) int {
	for i, a := range e.elem.attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// GetAttribute returns the attribute value, or "" when it is absent.
func (e *Element) GetAttribute(name string) string {
	v, _ := e.LookupAttribute(name)
	return v
}

// LookupAttribute returns the attribute value and whether it is present.
func (e *Element) LookupAttribute(name string) (string, bool) {
	i := e.attrIndex(e.normalizeName(name))
	if i < 0 {
		return "", false
	}
	return e.elem.attrs[i].Value, true
}

// HasAttribute reports whether the attribute is present.
func (e *Element) HasAttribute(name string) bool {
	return e.attrIndex(e.normalizeName(name)) >= 0
}

// SetAttribute creates or replaces an attribute and emits one attribute
// notification.
func (e *Element) SetAttribute(name, value string) {
	e.setAttr(e.normalizeName(name), value)
}

// RemoveAttribute deletes an attribute. Removing an absent attribute does nothing.
func (e *Element) RemoveAttribute(name string) {
	e.removeAttr(e.normalizeName(name))
}

// Attributes returns the live attribute map.
func (e *Element) Attributes() *AttributeMap {
	return &AttributeMap{el: e}
}

func (e *Element) setAttr(name, value string) {
	var old *string
	if i := e.attrIndex(name); i >= 0 {
		prev := e.elem.attrs[i].Value
		old = &prev
		e.elem.attrs[i].Value = value
	} else {
		e.elem.attrs = append(e.elem.attrs, Attr{Name: name, Value: value})
	}
	nv := value
	e.notifyAttribute(&AttributeChange{Name: name, OldValue: old, NewValue: &nv})
	e.attributeChanged(name)
}

func (e *Element) removeAttr(name string) bool {
	i := e.attrIndex(name)
	if i < 0 {
		return false
	}
	prev := e.elem.attrs[i].Value
	e.elem.attrs = append(e.elem.attrs[:i], e.elem.attrs[i+1:]...)
	e.notifyAttribute(&AttributeChange{Name: name, OldValue: &prev})
	return true
}

func (e *Element) notifyAttribute(change *AttributeChange) {
	n := e.AsNode()
	n.Emit(&Event{Type: attributeNotification, Target: n, CurrentTarget: n, Detail: change})
}

// Id returns the id attribute.
func (e *Element) Id() string { return e.GetAttribute("id") }

// SetId sets the id attribute.
func (e *Element) SetId(id string) { e.SetAttribute("id", id) }

// ClassName returns the class attribute.
func (e *Element) ClassName() string { return e.GetAttribute("class") }

// SetClassName sets the class attribute.
func (e *Element) SetClassName(className string) { e.SetAttribute("class", className) }

// HasClass reports whether class is one of the element's class tokens.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(strings.FieldsFunc(e.ClassName(), isASCIIWhitespace), class)
}

// Style returns a live view over the style attribute.
func (e *Element) Style() *Style { return &Style{el: e} }

// InnerHTML serializes the element's children.
func (e *Element) InnerHTML() string {
	s, err := html.SerializeChildren(toAST(e.AsNode()))
	if err != nil {
		return ""
	}
	return s
}

// OuterHTML serializes the element itself.
func (e *Element) OuterHTML() string {
	s, err := html.Serialize(toAST(e.AsNode()))
	if err != nil {
		return ""
	}
	return s
}

// SetInnerHTML parses markup in the element's context and replaces its
// children with the result. When the element belongs to a window, scripts and
// resources in the new content run in a later task.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := html.ParseFragment(markup, e.elem.localName)
	if err != nil {
		return err
	}
	doc := e.ownerDoc
	var w *Window
	if doc != nil {
		w = doc.DefaultView()
	}
	bound := make([]*Node, 0, len(nodes))
	for _, an := range nodes {
		if n := bindNode(an, w, doc); n != nil {
			bound = append(bound, n)
		}
	}
	if err := e.AsNode().ReplaceChildren(bound...); err != nil {
		return err
	}
	if w == nil {
		return nil
	}
	if e.elem.kind == KindScript {
		e.elem.started = false
		w.loop.QueueTask(func() { e.Run() })
		return nil
	}
	els := resourcesIn(bound)
	if len(els) > 0 {
		w.loop.QueueTask(func() { w.runResources(els, nil, nil) })
	}
	return nil
}

// Focus makes the element the document's active element.
func (e *Element) Focus() {
	doc := e.ownerDoc
	if doc == nil || doc.doc == nil || doc.doc.activeElement == e {
		return
	}
	if prev := doc.doc.activeElement; prev != nil {
		prev.DispatchEvent(NewEvent("blur"))
	}
	doc.doc.activeElement = e
	e.DispatchEvent(NewEvent("focus"))
}

// Blur removes focus from the element if it has it.
func (e *Element) Blur() {
	doc := e.ownerDoc
	if doc == nil || doc.doc == nil || doc.doc.activeElement != e {
		return
	}
	doc.doc.activeElement = nil
	e.DispatchEvent(NewEvent("blur"))
}

// RequestPointerLock makes the element the document's pointer lock element and
// fires pointerlockchange on the document in a later task.
func (e *Element) RequestPointerLock() {
	doc := e.ownerDoc
	if doc == nil || doc.doc == nil {
		return
	}
	doc.setPointerLock(e)
}

// toAST converts a live subtree back into a markup AST for serialization.
func toAST(n *Node) *html.Node {
	out := &html.Node{}
	switch n.nodeType {
	case TextNode:
		out.Type, out.Data = html.TextNode, n.value
		return out
	case CommentNode:
		out.Type, out.Data = html.CommentNode, n.value
		return out
	case DocumentNode:
		out.Type = html.DocumentNode
		if n.doc != nil && n.doc.doctype != "" {
			out.AppendChild(&html.Node{Type: html.DoctypeNode, Data: n.doc.doctype})
		}
	case ElementNode:
		out.Type = html.ElementNode
		out.Data = n.elem.localName
		out.Namespace = n.elem.namespace
		for _, a := range n.elem.attrs {
			out.Attributes = append(out.Attributes, html.Attribute{Key: a.Name, Value: a.Value})
		}
	}
	for _, c := range n.children {
		out.AppendChild(toAST(c))
	}
	return out
}
