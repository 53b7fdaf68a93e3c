package html

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rawText lists elements whose text children serialize without escaping.
var rawText = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true,
	"plaintext": true, "script": true, "style": true, "xmp": true,
}

// void elements never render children; a live tree can still give them some.
var void = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "keygen": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Serialize renders n and its descendants as markup.
func Serialize(n *Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, toNet(n)); err != nil {
		return "", fmt.Errorf("serialize %s: %w", n.Type, err)
	}
	return sb.String(), nil
}

// SerializeChildren renders the children of n, which is what innerHTML reads.
func SerializeChildren(n *Node) (string, error) {
	var sb strings.Builder
	raw := n.Type == ElementNode && rawText[strings.ToLower(n.Data)]
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if raw && c.Type == TextNode {
			sb.WriteString(c.Data)
			continue
		}
		s, err := Serialize(c)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func toNet(n *Node) *html.Node {
	nn := &html.Node{
		Type:      netType(n.Type),
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	if n.Type == ElementNode && nn.DataAtom == 0 {
		nn.DataAtom = atom.Lookup([]byte(strings.ToLower(n.Data)))
	}
	for _, a := range n.Attributes {
		nn.Attr = append(nn.Attr, html.Attribute{Namespace: a.Namespace, Key: a.Key, Val: a.Value})
	}
	if n.Type == ElementNode && n.Namespace == "" && void[strings.ToLower(n.Data)] {
		return nn
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nn.AppendChild(toNet(c))
	}
	return nn
}

func netType(t NodeType) html.NodeType {
	switch t {
	case TextNode:
		return html.TextNode
	case DocumentNode:
		return html.DocumentNode
	case ElementNode:
		return html.ElementNode
	case CommentNode:
		return html.CommentNode
	case DoctypeNode:
		return html.DoctypeNode
	default:
		return html.ErrorNode
	}
}
