// Package html is the markup collaborator of the runtime. It parses documents and
// fragments with golang.org/x/net/html into a small AST that carries source
// locations, and serializes AST nodes back to markup.
package html

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeType represents the type of an AST node.
type NodeType int

const (
	ErrorNode NodeType = iota
	TextNode
	DocumentNode
	ElementNode
	CommentNode
	DoctypeNode
)

// String returns a readable name for the node type.
func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "text"
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	default:
		return "error"
	}
}

// Attribute is a single name/value pair in source order.
type Attribute struct {
	Namespace string
	Key       string
	Value     string
}

// Location is the source position of an element's start tag. Line and Col point
// at the '<'; ContentLine and ContentCol point just past the closing '>', which
// is where inline script text begins. All values are 1-based.
type Location struct {
	Line        int
	Col         int
	ContentLine int
	ContentCol  int
}

// Node is an AST node. Elements hold their tag name in Data, text and comment
// nodes hold their value.
type Node struct {
	Type       NodeType
	Data       string
	DataAtom   atom.Atom
	Namespace  string
	Attributes []Attribute
	Location   *Location

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// AppendChild adds c as the last child of n, detaching it from any prior parent.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = n
	c.PrevSibling = n.LastChild
	if n.LastChild == nil {
		n.FirstChild = c
	} else {
		n.LastChild.NextSibling = c
	}
	n.LastChild = c
}

// RemoveChild unlinks c from n. It is a no-op if c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		return
	}
	if c.PrevSibling == nil {
		n.FirstChild = c.NextSibling
	} else {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	if c.NextSibling == nil {
		n.LastChild = c.PrevSibling
	} else {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	c.Parent, c.PrevSibling, c.NextSibling = nil, nil, nil
}

// Children returns the child nodes of n in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Attr returns the value of the named attribute and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the concatenated text of all descendant text nodes.
func (n *Node) Text() string {
	if n.Type == TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

// Parse parses a complete document. Element nodes carry source locations.
func Parse(markup string) (*Node, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc := fromNet(root)
	attachLocations([]*Node{doc}, scanStartTags(markup))
	return doc, nil
}

// ParseReader reads all of r and parses it as a document.
func ParseReader(r io.Reader) (*Node, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(string(b))
}

// ParseFragment parses markup as the children of an element named by context.
// An empty context parses in a <body> context.
func ParseFragment(markup string, context string) ([]*Node, error) {
	if context == "" {
		context = "body"
	}
	context = strings.ToLower(context)
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     context,
		DataAtom: atom.Lookup([]byte(context)),
	}
	netNodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	nodes := make([]*Node, 0, len(netNodes))
	for _, nn := range netNodes {
		nodes = append(nodes, fromNet(nn))
	}
	attachLocations(nodes, scanStartTags(markup))
	return nodes, nil
}

func fromNet(n *html.Node) *Node {
	node := &Node{
		Type:      nodeType(n.Type),
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		node.Attributes = make([]Attribute, len(n.Attr))
		for i, a := range n.Attr {
			node.Attributes[i] = Attribute{Namespace: a.Namespace, Key: a.Key, Value: a.Val}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.AppendChild(fromNet(c))
	}
	return node
}

func nodeType(t html.NodeType) NodeType {
	switch t {
	case html.TextNode:
		return TextNode
	case html.DocumentNode:
		return DocumentNode
	case html.ElementNode:
		return ElementNode
	case html.CommentNode:
		return CommentNode
	case html.DoctypeNode:
		return DoctypeNode
	default:
		return ErrorNode
	}
}
