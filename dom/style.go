package dom

import (
	"regexp"
	"strings"
)

var (
	declSep  = regexp.MustCompile(`;\s*`)
	valueSep = regexp.MustCompile(`:\s*`)
)

// StyleProperty is one declaration of an inline style.
type StyleProperty struct {
	Name  string
	Value string
}

// ParseStyle splits a style attribute into declarations in order. Later
// duplicates overwrite earlier ones in place.
func ParseStyle(s string) []StyleProperty {
	var props []StyleProperty
	for _, decl := range declSep.Split(s, -1) {
		parts := valueSep.Split(strings.TrimSpace(decl), 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		name, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		replaced := false
		for i := range props {
			if props[i].Name == name {
				props[i].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			props = append(props, StyleProperty{Name: name, Value: value})
		}
	}
	return props
}

// FormatStyle renders declarations as "name: value;" joined by spaces.
func FormatStyle(props []StyleProperty) string {
	parts := make([]string, len(props))
	for i, p := range props {
		parts[i] = p.Name + ": " + p.Value + ";"
	}
	return strings.Join(parts, " ")
}

// Style is a live key/value view of an element's style attribute. Reads parse
// the attribute; writes serialize it back.
type Style struct {
	el *Element
}

// Properties returns the parsed declarations.
func (s *Style) Properties() []StyleProperty {
	return ParseStyle(s.el.GetAttribute("style"))
}

// Get returns the value of prop.
func (s *Style) Get(prop string) string {
	for _, p := range s.Properties() {
		if p.Name == prop {
			return p.Value
		}
	}
	return ""
}

// Set assigns prop. An empty value removes it.
func (s *Style) Set(prop, value string) {
	if value == "" {
		s.Remove(prop)
		return
	}
	props := s.Properties()
	for i := range props {
		if props[i].Name == prop {
			props[i].Value = value
			s.el.SetAttribute("style", FormatStyle(props))
			return
		}
	}
	s.el.SetAttribute("style", FormatStyle(append(props, StyleProperty{Name: prop, Value: value})))
}

// Remove deletes prop if present.
func (s *Style) Remove(prop string) {
	props := s.Properties()
	for i := range props {
		if props[i].Name == prop {
			s.el.SetAttribute("style", FormatStyle(append(props[:i], props[i+1:]...)))
			return
		}
	}
}

// CSSText returns the serialized declarations.
func (s *Style) CSSText() string { return FormatStyle(s.Properties()) }

// SetCSSText replaces all declarations.
func (s *Style) SetCSSText(text string) {
	s.el.SetAttribute("style", FormatStyle(ParseStyle(text)))
}

// SetStyle replaces the element's inline style with props.
func (e *Element) SetStyle(props []StyleProperty) {
	e.SetAttribute("style", FormatStyle(props))
}
