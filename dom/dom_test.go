package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	require.NotNil(t, doc)
	assert.Equal(t, DocumentNode, doc.AsNode().NodeType())
	assert.Equal(t, "#document", doc.AsNode().NodeName())
	assert.Nil(t, doc.DefaultView())
	assert.Nil(t, doc.DocumentElement())
}

func TestDocument_CreateElement(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("DiV")

	assert.Equal(t, "DIV", el.TagName())
	assert.Equal(t, "div", el.LocalName())
	assert.Equal(t, ElementNode, el.AsNode().NodeType())
	assert.Equal(t, KindGeneric, el.Kind())
	assert.Same(t, doc, el.AsNode().OwnerDocument())

	svg := doc.CreateElementNS(NamespaceSVG, "circle")
	assert.Equal(t, "circle", svg.TagName())
	assert.Equal(t, "svg", svg.Namespace())
}

func TestDocument_CreateTextAndComment(t *testing.T) {
	doc := NewDocument()
	text := doc.CreateTextNode("Hello, World!")
	assert.Equal(t, TextNode, text.NodeType())
	assert.Equal(t, "#text", text.NodeName())
	assert.Equal(t, "Hello, World!", text.NodeValue())

	comment := doc.CreateComment("note")
	assert.Equal(t, CommentNode, comment.NodeType())
	assert.Equal(t, "note", comment.TextContent())
}

func TestBind(t *testing.T) {
	doc := parseDocument(t, `<!DOCTYPE html><title>t</title><p id="a" class="x">one<!--c--></p>`)

	assert.Equal(t, "html", doc.Doctype())
	require.NotNil(t, doc.Head())
	require.NotNil(t, doc.Body())
	p := doc.GetElementById("a")
	require.NotNil(t, p)
	assert.Equal(t, "x", p.ClassName())
	kids := p.AsNode().ChildNodes()
	require.Len(t, kids, 2)
	assert.Equal(t, TextNode, kids[0].NodeType())
	assert.Equal(t, CommentNode, kids[1].NodeType())
	assert.Same(t, p.AsNode(), kids[0].ParentNode())
	assert.Same(t, doc, kids[1].OwnerDocument())
	require.NotNil(t, p.Location())
	assert.Equal(t, 1, p.Location().Line)
}

func TestNode_AppendThenRemoveNotifies(t *testing.T) {
	doc := parseDocument(t, `<div id="parent"><span></span></div>`)
	parent := doc.GetElementById("parent").AsNode()
	child := doc.CreateElement("em").AsNode()

	var changes []*ChildListChange
	parent.On(childrenNotification, func(ev *Event) {
		changes = append(changes, ev.Detail.(*ChildListChange))
	})

	_, err := parent.AppendChild(child)
	require.NoError(t, err)
	assert.Same(t, parent, child.ParentNode())
	_, err = parent.RemoveChild(child)
	require.NoError(t, err)

	assert.Nil(t, child.ParentNode())
	assert.NotContains(t, parent.ChildNodes(), child)
	require.Len(t, changes, 2)
	assert.Equal(t, []*Node{child}, changes[0].Added)
	assert.Empty(t, changes[0].Removed)
	assert.Equal(t, []*Node{child}, changes[1].Removed)
	assert.Empty(t, changes[1].Added)
	assert.Equal(t, "SPAN", changes[1].PreviousSibling.NodeName())
	assert.Nil(t, changes[1].NextSibling)
}

func TestNode_InsertBefore(t *testing.T) {
	doc := parseDocument(t, `<ul id="list"><li id="a"></li><li id="c"></li></ul>`)
	list := doc.GetElementById("list").AsNode()
	b := doc.CreateElement("li")
	b.SetId("b")

	_, err := list.InsertBefore(b.AsNode(), doc.GetElementById("c").AsNode())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list.Children()))

	_, err = list.InsertAfter(b.AsNode(), doc.GetElementById("c").AsNode())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(list.Children()))

	_, err = list.InsertBefore(b.AsNode(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(list.Children()))
}

func TestNode_MoveBetweenParents(t *testing.T) {
	doc := parseDocument(t, `<div id="from"><p id="p"></p></div><div id="to"></div>`)
	from := doc.GetElementById("from").AsNode()
	to := doc.GetElementById("to").AsNode()
	p := doc.GetElementById("p").AsNode()

	var removed, added int
	from.On(childrenNotification, func(ev *Event) { removed += len(ev.Detail.(*ChildListChange).Removed) })
	to.On(childrenNotification, func(ev *Event) { added += len(ev.Detail.(*ChildListChange).Added) })

	_, err := to.AppendChild(p)
	require.NoError(t, err)
	assert.False(t, from.HasChildNodes())
	assert.Same(t, to, p.ParentNode())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, added)
}

func TestNode_HierarchyRequestError(t *testing.T) {
	doc := parseDocument(t, `<div id="outer"><div id="inner"></div></div>`)
	outer := doc.GetElementById("outer").AsNode()
	inner := doc.GetElementById("inner").AsNode()
	text := doc.CreateTextNode("x")

	var de *DOMError
	_, err := inner.AppendChild(outer)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "HierarchyRequestError", de.Name)

	_, err = outer.AppendChild(outer)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "HierarchyRequestError", de.Name)

	_, err = text.AppendChild(doc.CreateTextNode("y"))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "HierarchyRequestError", de.Name)

	_, err = outer.AppendChild(doc.AsNode())
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "HierarchyRequestError", de.Name)

	_, err = outer.RemoveChild(text)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NotFoundError", de.Name)

	_, err = outer.InsertBefore(text, text)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NotFoundError", de.Name)
}

func TestNode_Siblings(t *testing.T) {
	doc := parseDocument(t, `<div id="d">a<b id="x"></b>b<i id="y"></i>c</div>`)
	d := doc.GetElementById("d").AsNode()
	x := doc.GetElementById("x")

	assert.Equal(t, "a", d.FirstChild().NodeValue())
	assert.Equal(t, "c", d.LastChild().NodeValue())
	assert.Same(t, x, d.FirstElementChild())
	assert.Equal(t, "y", d.LastElementChild().Id())
	assert.Equal(t, "y", x.AsNode().NextElementSibling().Id())
	assert.Equal(t, "b", x.AsNode().NextSibling().NodeValue())
	assert.Nil(t, x.AsNode().PreviousElementSibling())
	assert.True(t, d.Contains(x.AsNode()))
	assert.True(t, x.AsNode().IsConnected())
	assert.False(t, doc.CreateElement("p").AsNode().IsConnected())
}

func TestNode_TextContent(t *testing.T) {
	doc := parseDocument(t, `<div id="d">Hello <b>big</b> world<!-- hidden --></div>`)
	d := doc.GetElementById("d").AsNode()
	assert.Equal(t, "Hello big world", d.TextContent())

	require.NoError(t, d.SetTextContent("plain"))
	require.Len(t, d.ChildNodes(), 1)
	assert.Equal(t, TextNode, d.FirstChild().NodeType())
	assert.Equal(t, "plain", d.TextContent())

	require.NoError(t, d.SetTextContent(""))
	assert.False(t, d.HasChildNodes())
}

func TestNode_CloneNode(t *testing.T) {
	doc := parseDocument(t, `<div id="d" class="k"><span>x</span></div>`)
	d := doc.GetElementById("d").AsNode()

	shallow := d.CloneNode(false)
	assert.False(t, shallow.HasChildNodes())
	assert.Equal(t, "k", shallow.AsElement().ClassName())
	assert.Nil(t, shallow.ParentNode())

	deep := d.CloneNode(true)
	require.Len(t, deep.ChildNodes(), 1)
	assert.Equal(t, "x", deep.TextContent())
	assert.NotSame(t, d.FirstChild(), deep.FirstChild())

	deep.AsElement().SetAttribute("class", "changed")
	assert.Equal(t, "k", d.AsElement().ClassName())
}

func TestElement_Attributes(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")

	var changes []*AttributeChange
	el.AsNode().On(attributeNotification, func(ev *Event) {
		changes = append(changes, ev.Detail.(*AttributeChange))
	})

	el.SetAttribute("a", "v")
	assert.Equal(t, "v", el.GetAttribute("a"))
	require.Len(t, changes, 1)
	assert.Equal(t, "a", changes[0].Name)
	require.NotNil(t, changes[0].NewValue)
	assert.Equal(t, "v", *changes[0].NewValue)
	assert.Nil(t, changes[0].OldValue)

	el.SetAttribute("A", "w")
	require.Len(t, changes, 2)
	require.NotNil(t, changes[1].OldValue)
	assert.Equal(t, "v", *changes[1].OldValue)
	assert.Equal(t, "w", el.GetAttribute("a"))

	el.RemoveAttribute("a")
	require.Len(t, changes, 3)
	assert.Nil(t, changes[2].NewValue)
	assert.False(t, el.HasAttribute("a"))

	el.RemoveAttribute("a")
	assert.Len(t, changes, 3)
	_, ok := el.LookupAttribute("a")
	assert.False(t, ok)
}

func TestAttributeMap(t *testing.T) {
	doc := parseDocument(t, `<p id="p" data-one="1" title="t"></p>`)
	m := doc.GetElementById("p").Attributes()

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"id", "data-one", "title"}, m.Names())
	v, ok := m.Get("data-one")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	at, ok := m.Item(2)
	require.True(t, ok)
	assert.Equal(t, Attr{Name: "title", Value: "t"}, at)
	_, ok = m.Item(3)
	assert.False(t, ok)

	m.Set("lang", "en")
	assert.True(t, m.Has("lang"))
	assert.True(t, m.SetItem(0, "q"))
	assert.Equal(t, "q", doc.GetElementById("q").Id())
	assert.True(t, m.Delete("title"))
	assert.False(t, m.Delete("title"))
	assert.Equal(t, []Attr{{"id", "q"}, {"data-one", "1"}, {"lang", "en"}}, m.All())
}

func TestElement_InnerHTMLRoundTrip(t *testing.T) {
	doc := parseDocument(t, `<div id="d"></div>`)
	d := doc.GetElementById("d")

	require.NoError(t, d.SetInnerHTML(`<p class=a>one<br>two</p><ul><li>x<li>y</ul><!--c-->`))
	first := d.InnerHTML()
	assert.Equal(t, `<p class="a">one<br/>two</p><ul><li>x</li><li>y</li></ul><!--c-->`, first)

	require.NoError(t, d.SetInnerHTML(first))
	assert.Equal(t, first, d.InnerHTML())
	assert.Equal(t, d.InnerHTML(), d.InnerHTML())

	items, err := d.QuerySelectorAll("li")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestElement_OuterHTML(t *testing.T) {
	doc := parseDocument(t, `<div id="d" title="a&amp;b"><script>if (a < b) {}</script></div>`)
	assert.Equal(t, `<div id="d" title="a&amp;b"><script>if (a < b) {}</script></div>`, doc.GetElementById("d").OuterHTML())
}

func TestElement_SetInnerHTMLNotifiesOnce(t *testing.T) {
	doc := parseDocument(t, `<div id="d"><b></b><i></i></div>`)
	d := doc.GetElementById("d")

	var changes []*ChildListChange
	d.AsNode().On(childrenNotification, func(ev *Event) {
		changes = append(changes, ev.Detail.(*ChildListChange))
	})
	require.NoError(t, d.SetInnerHTML(`<em></em>`))

	require.Len(t, changes, 2)
	assert.Len(t, changes[0].Removed, 2)
	assert.Len(t, changes[1].Added, 1)
}

func TestStyle(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	s := el.Style()

	assert.Empty(t, s.CSSText())
	s.Set("color", "red")
	s.Set("margin-top", "4px")
	assert.Equal(t, "color: red; margin-top: 4px;", el.GetAttribute("style"))

	s.Set("color", "blue")
	assert.Equal(t, "blue", s.Get("color"))
	assert.Equal(t, "color: blue; margin-top: 4px;", s.CSSText())

	s.Remove("color")
	assert.Equal(t, "margin-top: 4px;", s.CSSText())
	s.Set("margin-top", "")
	assert.Empty(t, s.Properties())

	s.SetCSSText("a: 1;b:2; a: 3")
	assert.Equal(t, []StyleProperty{{Name: "a", Value: "3"}, {Name: "b", Value: "2"}}, s.Properties())

	el.SetStyle([]StyleProperty{{Name: "display", Value: "none"}})
	assert.Equal(t, "display: none;", el.GetAttribute("style"))
}

func TestFocusAndPointerLock(t *testing.T) {
	doc := parseDocument(t, `<input id="a"><input id="b">`)
	a, b := doc.GetElementById("a"), doc.GetElementById("b")

	var events []string
	doc.Body().AsNode().On("focus", func(ev *Event) { events = append(events, "focus:"+ev.Target.(*Node).AsElement().Id()) })
	doc.Body().AsNode().On("blur", func(ev *Event) { events = append(events, "blur:"+ev.Target.(*Node).AsElement().Id()) })

	a.Focus()
	b.Focus()
	assert.Same(t, b, doc.ActiveElement())
	assert.Equal(t, []string{"focus:a", "blur:a", "focus:b"}, events)

	_, err := b.AsNode().ParentNode().RemoveChild(b.AsNode())
	require.NoError(t, err)
	assert.Same(t, doc.Body(), doc.ActiveElement())

	a.RequestPointerLock()
	assert.Same(t, a, doc.PointerLockElement())
	doc.ExitPointerLock()
	assert.Nil(t, doc.PointerLockElement())
}

func ids(els []*Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Id()
	}
	return out
}

func TestClassList(t *testing.T) {
	doc := parseDocument(t, `<p id="p" class=" x  y x "></p><p id="bare"></p>`)
	list := doc.GetElementById("p").ClassList()
	assert.Equal(t, []string{"x", "y"}, list.Tokens())
	tok, ok := list.Item(1)
	assert.True(t, ok)
	assert.Equal(t, "y", tok)
	_, ok = list.Item(2)
	assert.False(t, ok)

	require.NoError(t, list.Add("z", "x"))
	assert.Equal(t, "x y z", list.Value())
	require.NoError(t, list.Remove("x"))
	assert.Equal(t, "y z", list.Value())

	on := true
	present, err := list.Toggle("y", nil)
	require.NoError(t, err)
	assert.False(t, present)
	present, err = list.Toggle("w", &on)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "z w", list.Value())

	replaced, err := list.Replace("z", "w")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "w", list.Value())
	replaced, err = list.Replace("missing", "q")
	require.NoError(t, err)
	assert.False(t, replaced)

	var de *DOMError
	require.ErrorAs(t, list.Add("a b"), &de)
	assert.Equal(t, "InvalidCharacterError", de.Name)
	require.ErrorAs(t, list.Remove(""), &de)
	assert.Equal(t, "SyntaxError", de.Name)
	assert.False(t, list.Contains("a b"))

	bare := doc.GetElementById("bare")
	require.NoError(t, bare.ClassList().Remove("nothing"))
	assert.False(t, bare.HasAttribute("class"))
}

func TestHasClass_SplitsOnASCIIWhitespaceOnly(t *testing.T) {
	doc := parseDocument(t, "<p id=\"nbsp\" class=\"x\u00a0y\"></p><p id=\"tab\" class=\"x\ty\"></p>")
	nbsp := doc.GetElementById("nbsp")
	assert.False(t, nbsp.HasClass("x"))
	assert.True(t, nbsp.HasClass("x\u00a0y"))
	assert.False(t, nbsp.ClassList().Contains("x"))
	assert.True(t, doc.GetElementById("tab").HasClass("y"))

	els, err := doc.QuerySelectorAll(".x")
	require.NoError(t, err)
	assert.Equal(t, []string{"tab"}, ids(els))
}

func TestDocument_Write(t *testing.T) {
	doc := parseDocument(t, `<p id="first"></p>`)
	require.NoError(t, doc.Write(`<span id="w">one</span>two`))

	kids := doc.Body().AsNode().ChildNodes()
	require.Len(t, kids, 3)
	assert.Equal(t, "w", kids[1].AsElement().Id())
	assert.Equal(t, "two", kids[2].TextContent())
}
