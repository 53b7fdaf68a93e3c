package dom

import (
	"fmt"
	"slices"
	"strings"
)

// TokenList is a live view of a space-separated attribute such as class.
// Every write goes through SetAttribute, so observers see it as an attribute
// mutation.
type TokenList struct {
	el   *Element
	attr string
}

// ClassList returns the element's class attribute as a token list.
func (e *Element) ClassList() *TokenList {
	return &TokenList{el: e, attr: "class"}
}

const asciiWhitespace = " \t\n\f\r"

func isASCIIWhitespace(r rune) bool { return strings.ContainsRune(asciiWhitespace, r) }

func validToken(token string) error {
	if token == "" {
		return ErrSyntax("the token must not be empty")
	}
	if strings.ContainsAny(token, asciiWhitespace) {
		return &DOMError{Name: "InvalidCharacterError", Message: fmt.Sprintf("the token %q contains whitespace", token)}
	}
	return nil
}

// Tokens returns the distinct tokens in order.
func (l *TokenList) Tokens() []string {
	var out []string
	for _, tok := range strings.FieldsFunc(l.el.GetAttribute(l.attr), isASCIIWhitespace) {
		if !slices.Contains(out, tok) {
			out = append(out, tok)
		}
	}
	return out
}

func (l *TokenList) write(tokens []string) {
	if len(tokens) == 0 && !l.el.HasAttribute(l.attr) {
		return
	}
	l.el.SetAttribute(l.attr, strings.Join(tokens, " "))
}

// Len returns the number of distinct tokens.
func (l *TokenList) Len() int { return len(l.Tokens()) }

// Item returns the token at i.
func (l *TokenList) Item(i int) (string, bool) {
	tokens := l.Tokens()
	if i < 0 || i >= len(tokens) {
		return "", false
	}
	return tokens[i], true
}

// Contains reports whether token is present. Invalid tokens are never present.
func (l *TokenList) Contains(token string) bool {
	return validToken(token) == nil && slices.Contains(l.Tokens(), token)
}

// Add appends the tokens that are missing.
func (l *TokenList) Add(tokens ...string) error {
	for _, tok := range tokens {
		if err := validToken(tok); err != nil {
			return err
		}
	}
	cur := l.Tokens()
	for _, tok := range tokens {
		if !slices.Contains(cur, tok) {
			cur = append(cur, tok)
		}
	}
	l.write(cur)
	return nil
}

// Remove drops every given token.
func (l *TokenList) Remove(tokens ...string) error {
	for _, tok := range tokens {
		if err := validToken(tok); err != nil {
			return err
		}
	}
	cur := slices.DeleteFunc(l.Tokens(), func(t string) bool { return slices.Contains(tokens, t) })
	l.write(cur)
	return nil
}

// Toggle flips token, or forces it on or off when force is given. It reports
// whether the token is present afterwards.
func (l *TokenList) Toggle(token string, force *bool) (bool, error) {
	if err := validToken(token); err != nil {
		return false, err
	}
	want := !l.Contains(token)
	if force != nil {
		want = *force
	}
	if want {
		return true, l.Add(token)
	}
	return false, l.Remove(token)
}

// Replace swaps oldToken for newToken in place. It reports whether oldToken
// was present.
func (l *TokenList) Replace(oldToken, newToken string) (bool, error) {
	if oldToken == "" || newToken == "" {
		return false, ErrSyntax("the token must not be empty")
	}
	if err := validToken(oldToken); err != nil {
		return false, err
	}
	if err := validToken(newToken); err != nil {
		return false, err
	}
	cur := l.Tokens()
	i := slices.Index(cur, oldToken)
	if i < 0 {
		return false, nil
	}
	cur[i] = newToken
	out := make([]string, 0, len(cur))
	for _, tok := range cur {
		if !slices.Contains(out, tok) {
			out = append(out, tok)
		}
	}
	l.write(out)
	return true, nil
}

// Value returns the raw attribute value.
func (l *TokenList) Value() string { return l.el.GetAttribute(l.attr) }

// SetValue replaces the raw attribute value.
func (l *TokenList) SetValue(v string) { l.el.SetAttribute(l.attr, v) }

// String returns the raw attribute value.
func (l *TokenList) String() string { return l.Value() }
