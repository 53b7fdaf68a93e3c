package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectorPage = `<!DOCTYPE html>
<html><head><title>selectors</title></head>
<body>
  <div id="main" class="c wide">
    <p id="p1" class="c">one</p>
    <section id="s1">
      <p id="p2">two</p>
      <span id="n1" class="note c">three</span>
    </section>
  </div>
  <ul id="list"><li id="l1" class="item">a</li><li id="l2" class="item first">b</li></ul>
  <SPAN id="n2" class="note">four</SPAN>
  <svg id="g"><circle id="circle" class="c2"></circle></svg>
</body></html>`

func TestQuerySelectorAll_ClassInDocumentOrder(t *testing.T) {
	doc := parseDocument(t, selectorPage)

	els, err := doc.QuerySelectorAll(".c")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "p1", "n1"}, ids(els))

	for _, el := range els {
		el.SetClassName(strings.ReplaceAll(" "+el.ClassName()+" ", " c ", " "))
	}
	els, err = doc.QuerySelectorAll(".c")
	require.NoError(t, err)
	assert.Empty(t, els)
}

// TestSelectorsAgreeWithGoquery checks the engine against goquery on the
// selector forms both support.
func TestSelectorsAgreeWithGoquery(t *testing.T) {
	doc := parseDocument(t, selectorPage)
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(selectorPage))
	require.NoError(t, err)

	for _, sel := range []string{"#main", "#n2", "#missing", ".c", ".note", ".item", ".first", "p", "span", "li", "section", "div", "circle", ".c2"} {
		t.Run(sel, func(t *testing.T) {
			els, err := doc.QuerySelectorAll(sel)
			require.NoError(t, err)

			var want []string
			gq.Find(sel).Each(func(_ int, s *goquery.Selection) {
				id, _ := s.Attr("id")
				want = append(want, id)
			})
			if len(want) == 0 {
				assert.Empty(t, els)
				return
			}
			assert.Equal(t, want, ids(els))

			first, err := doc.QuerySelector(sel)
			require.NoError(t, err)
			require.NotNil(t, first)
			assert.Equal(t, want[0], first.Id())
		})
	}
}

func TestQuerySelector_Scoped(t *testing.T) {
	doc := parseDocument(t, selectorPage)
	section := doc.GetElementById("s1")

	els, err := section.QuerySelectorAll("p")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(els))

	self, err := section.QuerySelector("section")
	require.NoError(t, err)
	assert.Nil(t, self)

	ok, err := section.Matches("#s1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = section.Matches(".c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuerySelector_SyntaxError(t *testing.T) {
	doc := parseDocument(t, selectorPage)
	for _, sel := range []string{"", "  ", "#", ".", "div p", "p.c", "[id]", "#1a", "a>b", "*"} {
		_, err := doc.QuerySelectorAll(sel)
		var de *DOMError
		require.ErrorAs(t, err, &de, "selector %q", sel)
		assert.Equal(t, "SyntaxError", de.Name)
	}
}

func TestGetElementsBy(t *testing.T) {
	doc := parseDocument(t, selectorPage)

	assert.Equal(t, []string{"n1", "n2"}, ids(doc.GetElementsByTagName("SPAN")))
	assert.Len(t, doc.GetElementsByTagName("*"), 15)
	assert.Equal(t, []string{"n1"}, ids(doc.GetElementsByClassName("c note")))
	assert.Empty(t, doc.GetElementsByClassName("  "))
	assert.Equal(t, "l2", doc.GetElementById("l2").Id())
	assert.Nil(t, doc.GetElementById("nope"))
}
