// Package dom is the headless document runtime: a live node tree with attribute
// storage and change notifications, a small selector engine, the binder that
// turns parsed markup into that tree, the ordered script and resource pipeline,
// and the Window that owns a document, its location, history and frames.
package dom

// NodeType is the DOM nodeType value of a Node.
type NodeType uint16

const (
	ElementNode  NodeType = 1
	TextNode     NodeType = 3
	CommentNode  NodeType = 8
	DocumentNode NodeType = 9
)

// String returns the DOM constant name of the type.
func (nt NodeType) String() string {
	switch nt {
	case ElementNode:
		return "ELEMENT_NODE"
	case TextNode:
		return "TEXT_NODE"
	case CommentNode:
		return "COMMENT_NODE"
	case DocumentNode:
		return "DOCUMENT_NODE"
	default:
		return "UNKNOWN_NODE"
	}
}
