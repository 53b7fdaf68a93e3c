package html

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// matchWindow bounds how far ahead a parsed element looks for its start tag.
// Tags the tree builder drops (a second <body>, stray tags) would otherwise stall
// every element after them.
const matchWindow = 8

type startTag struct {
	name string
	loc  Location
}

// scanStartTags tokenizes markup and records where every start tag begins and
// ends, in source order.
func scanStartTags(markup string) []startTag {
	z := html.NewTokenizer(strings.NewReader(markup))
	line, col := 1, 1
	var tags []startTag
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return tags
		}
		startLine, startCol := line, col
		line, col = advance(line, col, z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		tags = append(tags, startTag{
			name: string(name),
			loc: Location{
				Line:        startLine,
				Col:         startCol,
				ContentLine: line,
				ContentCol:  col,
			},
		})
	}
}

func advance(line, col int, raw []byte) (int, int) {
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		raw = raw[size:]
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// attachLocations pairs parsed elements, in pre-order, with scanned start tags.
// Elements the tree builder implied (html, head, body, tbody) find no tag within
// the window and keep a nil Location.
func attachLocations(roots []*Node, tags []startTag) {
	next := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type == ElementNode {
			for i := next; i < len(tags) && i < next+matchWindow; i++ {
				if strings.EqualFold(tags[i].name, n.Data) {
					loc := tags[i].loc
					n.Location = &loc
					next = i + 1
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
}
