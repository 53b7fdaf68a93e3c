package dom

import "strings"

// Node is a unit of the document tree. Elements, text, comments and documents
// all share this struct; the variant is selected by nodeType and the
// type-specific data pointers.
type Node struct {
	Emitter

	nodeType NodeType
	nodeName string
	value    string
	parent   *Node
	children []*Node
	ownerDoc *Document

	elem *elementData
	doc  *documentData
}

// ChildListChange is the payload of a structural notification. Siblings describe
// the mutation site after the change.
type ChildListChange struct {
	Added           []*Node
	Removed         []*Node
	PreviousSibling *Node
	NextSibling     *Node
}

// NodeType returns the node's type.
func (n *Node) NodeType() NodeType { return n.nodeType }

// NodeName returns the tag name for elements, or #text, #comment, #document.
func (n *Node) NodeName() string { return n.nodeName }

// NodeValue returns the value of text and comment nodes, empty for others.
func (n *Node) NodeValue() string { return n.value }

// SetNodeValue replaces the value of a text or comment node.
func (n *Node) SetNodeValue(v string) {
	if n.nodeType == TextNode || n.nodeType == CommentNode {
		n.value = v
	}
}

// ParentNode returns the parent, or nil for detached nodes and documents.
func (n *Node) ParentNode() *Node { return n.parent }

// ParentElement returns the parent if it is an element.
func (n *Node) ParentElement() *Element {
	if n.parent == nil {
		return nil
	}
	return n.parent.AsElement()
}

// OwnerDocument returns the document this node belongs to. A document returns nil.
func (n *Node) OwnerDocument() *Document {
	if n.nodeType == DocumentNode {
		return nil
	}
	return n.ownerDoc
}

// document returns the owning document, or the node itself when it is one.
func (n *Node) document() *Document {
	if n.nodeType == DocumentNode {
		return (*Document)(n)
	}
	return n.ownerDoc
}

// AsElement returns n as an Element, or nil if it is not one.
func (n *Node) AsElement() *Element {
	if n == nil || n.nodeType != ElementNode {
		return nil
	}
	return (*Element)(n)
}

// AsDocument returns n as a Document, or nil if it is not one.
func (n *Node) AsDocument() *Document {
	if n == nil || n.nodeType != DocumentNode {
		return nil
	}
	return (*Document)(n)
}

// ChildNodes returns a copy of the child sequence.
func (n *Node) ChildNodes() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// HasChildNodes reports whether n has any children.
func (n *Node) HasChildNodes() bool { return len(n.children) > 0 }

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// LastChild returns the last child or nil.
func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

func (n *Node) index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// NextSibling returns the following sibling or nil.
func (n *Node) NextSibling() *Node {
	i := n.index()
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// PreviousSibling returns the preceding sibling or nil.
func (n *Node) PreviousSibling() *Node {
	i := n.index()
	if i <= 0 {
		return nil
	}
	return n.parent.children[i-1]
}

// Children returns the element children in order.
func (n *Node) Children() []*Element {
	var out []*Element
	for _, c := range n.children {
		if el := c.AsElement(); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// FirstElementChild returns the first element child or nil.
func (n *Node) FirstElementChild() *Element {
	for _, c := range n.children {
		if el := c.AsElement(); el != nil {
			return el
		}
	}
	return nil
}

// LastElementChild returns the last element child or nil.
func (n *Node) LastElementChild() *Element {
	for i := len(n.children) - 1; i >= 0; i-- {
		if el := n.children[i].AsElement(); el != nil {
			return el
		}
	}
	return nil
}

// NextElementSibling returns the next sibling that is an element.
func (n *Node) NextElementSibling() *Element {
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if el := s.AsElement(); el != nil {
			return el
		}
	}
	return nil
}

// PreviousElementSibling returns the previous sibling that is an element.
func (n *Node) PreviousElementSibling() *Element {
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		if el := s.AsElement(); el != nil {
			return el
		}
	}
	return nil
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// IsConnected reports whether n is attached to a document.
func (n *Node) IsConnected() bool {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root.nodeType == DocumentNode
}

// Walk visits n and its descendants in document order. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.ChildNodes() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) (*Node, error) {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends. A child that
// already has a parent is removed from it first.
func (n *Node) InsertBefore(child, ref *Node) (*Node, error) {
	if err := n.validateInsert(child, ref); err != nil {
		return nil, err
	}
	if ref == child {
		ref = child.NextSibling()
	}
	if child.parent != nil {
		if _, err := child.parent.RemoveChild(child); err != nil {
			return nil, err
		}
	}
	at := len(n.children)
	if ref != nil {
		at = ref.index()
	}
	n.children = append(n.children, nil)
	copy(n.children[at+1:], n.children[at:])
	n.children[at] = child
	child.parent = n
	child.adopt(n.document())

	n.notifyChildren(&ChildListChange{
		Added:           []*Node{child},
		PreviousSibling: child.PreviousSibling(),
		NextSibling:     child.NextSibling(),
	})
	return child, nil
}

// InsertAfter inserts child after ref. A nil ref prepends.
func (n *Node) InsertAfter(child, ref *Node) (*Node, error) {
	if ref == nil {
		return n.InsertBefore(child, n.FirstChild())
	}
	if ref.parent != n {
		return nil, ErrNotFound("the reference node is not a child of this node")
	}
	if ref == child {
		return child, nil
	}
	next := ref.NextSibling()
	if next == child {
		next = child.NextSibling()
	}
	return n.InsertBefore(child, next)
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) (*Node, error) {
	if child == nil || child.parent != n {
		return nil, ErrNotFound("the node to be removed is not a child of this node")
	}
	i := child.index()
	prev, next := child.PreviousSibling(), child.NextSibling()
	n.children = append(n.children[:i], n.children[i+1:]...)
	child.parent = nil
	n.blurRemoved(child)

	n.notifyChildren(&ChildListChange{
		Removed:         []*Node{child},
		PreviousSibling: prev,
		NextSibling:     next,
	})
	return child, nil
}

// ReplaceChildren swaps the whole child sequence. Observers see one removal
// notification for the old children, then one insertion notification for the
// new ones.
func (n *Node) ReplaceChildren(nodes ...*Node) error {
	for _, c := range nodes {
		if err := n.validateInsert(c, nil); err != nil {
			return err
		}
	}
	old := n.children
	n.children = nil
	for _, c := range old {
		c.parent = nil
		n.blurRemoved(c)
	}
	if len(old) > 0 {
		n.notifyChildren(&ChildListChange{Removed: old})
	}
	for _, c := range nodes {
		if c.parent != nil {
			if _, err := c.parent.RemoveChild(c); err != nil {
				return err
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	added := make([]*Node, len(nodes))
	copy(added, nodes)
	for _, c := range added {
		c.parent = n
		c.adopt(n.document())
	}
	n.children = added
	n.notifyChildren(&ChildListChange{Added: added})
	return nil
}

func (n *Node) validateInsert(child, ref *Node) error {
	if n.nodeType != ElementNode && n.nodeType != DocumentNode {
		return ErrHierarchyRequest("only elements and documents can have children")
	}
	if child == nil {
		return ErrHierarchyRequest("cannot insert a nil node")
	}
	if child.nodeType == DocumentNode {
		return ErrHierarchyRequest("a document cannot be inserted")
	}
	if child.Contains(n) {
		return ErrHierarchyRequest("the new child is an ancestor of the parent")
	}
	if ref != nil && ref.parent != n {
		return ErrNotFound("the reference node is not a child of this node")
	}
	return nil
}

func (n *Node) notifyChildren(change *ChildListChange) {
	n.Emit(&Event{Type: childrenNotification, Target: n, CurrentTarget: n, Detail: change})
}

// adopt moves n and its subtree into doc.
func (n *Node) adopt(doc *Document) {
	if doc == nil || n.ownerDoc == doc {
		return
	}
	n.Walk(func(c *Node) bool {
		c.ownerDoc = doc
		return true
	})
}

// blurRemoved clears focus and pointer lock that pointed into a removed subtree.
func (n *Node) blurRemoved(removed *Node) {
	doc := n.document()
	if doc == nil || doc.doc == nil {
		return
	}
	if a := doc.doc.activeElement; a != nil && removed.Contains(a.AsNode()) {
		doc.doc.activeElement = nil
	}
	if p := doc.doc.pointerLock; p != nil && removed.Contains(p.AsNode()) {
		doc.doc.pointerLock = nil
	}
}

// TextContent returns the concatenated text of descendants, or the value of a
// text or comment node. Documents return an empty string.
func (n *Node) TextContent() string {
	switch n.nodeType {
	case TextNode, CommentNode:
		return n.value
	case DocumentNode:
		return ""
	}
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		if c.nodeType == TextNode {
			sb.WriteString(c.value)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces the children of an element with a single text node,
// or sets the value of a text or comment node.
func (n *Node) SetTextContent(text string) error {
	switch n.nodeType {
	case TextNode, CommentNode:
		n.value = text
		return nil
	case DocumentNode:
		return nil
	}
	if text == "" {
		return n.ReplaceChildren()
	}
	return n.ReplaceChildren(newText(n.ownerDoc, text))
}

// CloneNode copies n. Elements keep their kind and a copy of their attributes;
// deep clones copy the subtree as well. The clone is detached and has no
// listeners.
func (n *Node) CloneNode(deep bool) *Node {
	c := &Node{
		nodeType: n.nodeType,
		nodeName: n.nodeName,
		value:    n.value,
		ownerDoc: n.ownerDoc,
	}
	if n.elem != nil {
		c.elem = n.elem.clone()
	}
	if n.doc != nil {
		c.doc = &documentData{url: n.doc.url, doctype: n.doc.doctype}
	}
	if deep {
		for _, child := range n.children {
			cc := child.CloneNode(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
		if c.nodeType == DocumentNode {
			cdoc := (*Document)(c)
			for _, child := range c.children {
				child.adopt(cdoc)
			}
		}
	}
	return c
}

// DispatchEvent runs listeners on n and then on each ancestor until the event's
// propagation is stopped or a parentless node is reached. It returns false if a
// listener called PreventDefault.
func (n *Node) DispatchEvent(ev *Event) bool {
	if ev.Target == nil {
		ev.Target = n
	}
	for cur := n; cur != nil; cur = cur.parent {
		ev.CurrentTarget = cur
		cur.Emit(ev)
		if ev.propagationStopped {
			break
		}
	}
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

func newText(doc *Document, data string) *Node {
	return &Node{nodeType: TextNode, nodeName: "#text", value: data, ownerDoc: doc}
}

func newComment(doc *Document, data string) *Node {
	return &Node{nodeType: CommentNode, nodeName: "#comment", value: data, ownerDoc: doc}
}
