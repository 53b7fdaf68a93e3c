package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findElement(n *Node, tag string) *Node {
	if n.Type == ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func TestParse_BasicDocument(t *testing.T) {
	doc, err := Parse(`<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><p class="x">Hello, World!</p></body>
</html>`)
	require.NoError(t, err)
	assert.Equal(t, DocumentNode, doc.Type)
	require.NotNil(t, doc.FirstChild)
	assert.Equal(t, DoctypeNode, doc.FirstChild.Type)
	assert.Equal(t, "html", doc.FirstChild.Data)

	p := findElement(doc, "p")
	require.NotNil(t, p)
	v, ok := p.Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, "Hello, World!", p.Text())
}

func TestParse_ImpliedElements(t *testing.T) {
	doc, err := Parse(`<p>unclosed<div>nested</div>`)
	require.NoError(t, err)
	require.NotNil(t, findElement(doc, "head"))
	require.NotNil(t, findElement(doc, "body"))
	assert.Nil(t, findElement(doc, "body").Location, "implied body has no source position")
	assert.NotNil(t, findElement(doc, "div").Location)
}

func TestParse_Locations(t *testing.T) {
	src := "<html>\n<body>\n  <script>var a = 1;</script>\n</body>\n</html>"
	doc, err := Parse(src)
	require.NoError(t, err)

	script := findElement(doc, "script")
	require.NotNil(t, script)
	require.NotNil(t, script.Location)
	assert.Equal(t, 3, script.Location.Line)
	assert.Equal(t, 3, script.Location.Col)
	assert.Equal(t, 3, script.Location.ContentLine)
	assert.Equal(t, 11, script.Location.ContentCol)

	body := findElement(doc, "body")
	require.NotNil(t, body.Location)
	assert.Equal(t, 2, body.Location.Line)
	assert.Equal(t, 1, body.Location.Col)
}

func TestParse_LocationsSkipDroppedTags(t *testing.T) {
	src := "<body><body><span></span><b></b></body>"
	doc, err := Parse(src)
	require.NoError(t, err)
	b := findElement(doc, "b")
	require.NotNil(t, b.Location)
	assert.Equal(t, strings.Index(src, "<b>")+1, b.Location.Col)
}

func TestParseFragment(t *testing.T) {
	nodes, err := ParseFragment(`<li>one</li>text<!--c-->`, "ul")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, ElementNode, nodes[0].Type)
	assert.Equal(t, "li", nodes[0].Data)
	require.NotNil(t, nodes[0].Location)
	assert.Equal(t, 1, nodes[0].Location.Col)
	assert.Equal(t, TextNode, nodes[1].Type)
	assert.Equal(t, CommentNode, nodes[2].Type)
	assert.Equal(t, "c", nodes[2].Data)
}

func TestParseFragment_DefaultContext(t *testing.T) {
	nodes, err := ParseFragment(`<span>a</span><span>b</span>`, "")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestSerialize_RoundTrip(t *testing.T) {
	nodes, err := ParseFragment(`<div id="a" class="b c"><p>x &amp; y</p><br></div>`, "body")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	first, err := Serialize(nodes[0])
	require.NoError(t, err)
	assert.Equal(t, `<div id="a" class="b c"><p>x &amp; y</p><br/></div>`, first)

	again, err := ParseFragment(first, "body")
	require.NoError(t, err)
	second, err := Serialize(again[0])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerializeChildren_RawText(t *testing.T) {
	nodes, err := ParseFragment(`<script>if (a < b && c) {}</script>`, "body")
	require.NoError(t, err)
	out, err := SerializeChildren(nodes[0])
	require.NoError(t, err)
	assert.Equal(t, `if (a < b && c) {}`, out)
}

func TestSerialize_VoidChildrenDropped(t *testing.T) {
	img := &Node{Type: ElementNode, Data: "img"}
	img.AppendChild(&Node{Type: TextNode, Data: "ignored"})
	out, err := Serialize(img)
	require.NoError(t, err)
	assert.Equal(t, `<img/>`, out)
}

func TestNode_AppendRemove(t *testing.T) {
	parent := &Node{Type: ElementNode, Data: "div"}
	a := &Node{Type: TextNode, Data: "a"}
	b := &Node{Type: TextNode, Data: "b"}
	parent.AppendChild(a)
	parent.AppendChild(b)
	assert.Equal(t, []*Node{a, b}, parent.Children())

	parent.RemoveChild(a)
	assert.Nil(t, a.Parent)
	assert.Equal(t, []*Node{b}, parent.Children())
	assert.Equal(t, "b", parent.Text())
}
