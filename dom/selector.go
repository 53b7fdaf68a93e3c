package dom

import "strings"

type selectorKind int

const (
	selectID selectorKind = iota
	selectClass
	selectTag
)

// selector is one of the three supported forms: #id, .class or a tag name.
type selector struct {
	kind  selectorKind
	value string
}

func parseSelector(s string) (selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return selector{}, ErrSyntax("empty selector")
	}
	switch s[0] {
	case '#':
		if !isIdent(s[1:]) {
			return selector{}, ErrSyntax("'" + s + "' is not a valid selector")
		}
		return selector{kind: selectID, value: s[1:]}, nil
	case '.':
		if !isIdent(s[1:]) {
			return selector{}, ErrSyntax("'" + s + "' is not a valid selector")
		}
		return selector{kind: selectClass, value: s[1:]}, nil
	}
	if !isIdent(s) {
		return selector{}, ErrSyntax("'" + s + "' is not a valid selector")
	}
	return selector{kind: selectTag, value: s}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= 0x80:
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		case i == 0 && r == '-' && len(s) > 1:
		default:
			return false
		}
	}
	return true
}

func (s selector) match(el *Element) bool {
	switch s.kind {
	case selectID:
		return el.Id() == s.value
	case selectClass:
		return el.HasClass(s.value)
	default:
		return strings.EqualFold(el.elem.localName, s.value)
	}
}

// collect walks the descendants of root in document order. The root itself is
// never a candidate.
func collect(root *Node, match func(*Element) bool, first bool) []*Element {
	var out []*Element
	for _, c := range root.children {
		c.Walk(func(n *Node) bool {
			el := n.AsElement()
			if el != nil && match(el) {
				out = append(out, el)
				return !first
			}
			return true
		})
		if first && len(out) > 0 {
			break
		}
	}
	return out
}

// QuerySelector returns the first descendant of root matching sel.
func QuerySelector(root *Node, sel string) (*Element, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return nil, err
	}
	if found := collect(root, s.match, true); len(found) > 0 {
		return found[0], nil
	}
	return nil, nil
}

// QuerySelectorAll returns every descendant of root matching sel.
func QuerySelectorAll(root *Node, sel string) ([]*Element, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return nil, err
	}
	return collect(root, s.match, false), nil
}

// GetElementById returns the first descendant of root with the id.
func GetElementById(root *Node, id string) *Element {
	found := collect(root, func(el *Element) bool { return el.Id() == id }, true)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// GetElementsByTagName returns the descendants of root with the tag name.
// "*" matches every element.
func GetElementsByTagName(root *Node, tag string) []*Element {
	return collect(root, func(el *Element) bool {
		return tag == "*" || strings.EqualFold(el.elem.localName, tag)
	}, false)
}

// GetElementsByClassName returns the descendants of root carrying every class
// in the space separated list.
func GetElementsByClassName(root *Node, classes string) []*Element {
	want := strings.FieldsFunc(classes, isASCIIWhitespace)
	if len(want) == 0 {
		return nil
	}
	return collect(root, func(el *Element) bool {
		for _, c := range want {
			if !el.HasClass(c) {
				return false
			}
		}
		return true
	}, false)
}

// QuerySelector returns the first descendant matching sel.
func (e *Element) QuerySelector(sel string) (*Element, error) {
	return QuerySelector(e.AsNode(), sel)
}

// QuerySelectorAll returns the descendants matching sel in document order.
func (e *Element) QuerySelectorAll(sel string) ([]*Element, error) {
	return QuerySelectorAll(e.AsNode(), sel)
}

// Matches tests the element itself against sel.
func (e *Element) Matches(sel string) (bool, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return false, err
	}
	return s.match(e), nil
}

// GetElementById returns the first descendant with the id.
func (e *Element) GetElementById(id string) *Element {
	return GetElementById(e.AsNode(), id)
}

// GetElementsByTagName returns the descendants with the tag name.
func (e *Element) GetElementsByTagName(tag string) []*Element {
	return GetElementsByTagName(e.AsNode(), tag)
}

// GetElementsByClassName returns the descendants carrying the classes.
func (e *Element) GetElementsByClassName(classes string) []*Element {
	return GetElementsByClassName(e.AsNode(), classes)
}
