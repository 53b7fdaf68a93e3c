package dom

import (
	"strings"

	"github.com/chrisuehlinger/vibedom/html"
)

// Constructor creates an element for a tag. localName is lowercase.
type Constructor func(doc *Document, localName string) *Element

// ElementConstructor returns a constructor producing elements of kind.
func ElementConstructor(kind Kind) Constructor {
	return func(doc *Document, localName string) *Element {
		return newElement(doc, localName, "", kind)
	}
}

func defaultTags() map[string]Constructor {
	return map[string]Constructor{
		"A":      ElementConstructor(KindAnchor),
		"SCRIPT": ElementConstructor(KindScript),
		"IMG":    ElementConstructor(KindImage),
		"AUDIO":  ElementConstructor(KindAudio),
		"VIDEO":  ElementConstructor(KindVideo),
		"IFRAME": ElementConstructor(KindFrame),
		"CANVAS": ElementConstructor(KindCanvas),
	}
}

// Bind converts a parsed AST into a live tree owned by w. When owner is nil a
// document AST (or a bare element) becomes a new Document whose defaultView is
// w. Binding only builds nodes: it runs no scripts and fetches nothing.
func Bind(ast *html.Node, w *Window, owner *Document) *Node {
	if owner == nil && ast.Type != html.DocumentNode {
		doc := newDocument(w, "")
		if n := bindNode(ast, w, doc); n != nil {
			appendBound(doc.AsNode(), n)
		}
		return doc.AsNode()
	}
	return bindNode(ast, w, owner)
}

func bindNode(an *html.Node, w *Window, doc *Document) *Node {
	var n *Node
	switch an.Type {
	case html.DocumentNode:
		d := newDocument(w, "")
		doc = d
		n = d.AsNode()
	case html.DoctypeNode:
		if doc != nil {
			doc.doc.doctype = an.Data
		}
		return nil
	case html.ElementNode:
		var el *Element
		if an.Namespace == "" && w != nil {
			el = w.construct(doc, strings.ToLower(an.Data))
		} else {
			el = newElement(doc, an.Data, an.Namespace, KindGeneric)
		}
		if len(an.Attributes) > 0 {
			el.elem.attrs = make([]Attr, 0, len(an.Attributes))
			for _, a := range an.Attributes {
				name := a.Key
				if a.Namespace != "" {
					name = a.Namespace + ":" + a.Key
				}
				el.elem.attrs = append(el.elem.attrs, Attr{Name: name, Value: a.Value})
			}
		}
		el.elem.location = an.Location
		n = el.AsNode()
	case html.TextNode:
		return newText(doc, an.Data)
	case html.CommentNode:
		return newComment(doc, an.Data)
	default:
		return nil
	}
	for c := an.FirstChild; c != nil; c = c.NextSibling {
		if child := bindNode(c, w, doc); child != nil {
			appendBound(n, child)
		}
	}
	return n
}

// appendBound links a freshly bound child without notifications; nothing can be
// observing a subtree that is still being built.
func appendBound(parent, child *Node) {
	child.parent = parent
	parent.children = append(parent.children, child)
}
