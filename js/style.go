package js

import (
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/dom"
)

// cssName converts a camelCase style property to its dashed form.
func cssName(key string) string {
	if key == "cssFloat" {
		return "float"
	}
	if strings.Contains(key, "-") {
		return key
	}
	var sb strings.Builder
	for _, c := range key {
		if unicode.IsUpper(c) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(c))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// camelName is the inverse of cssName.
func camelName(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// inherited reports whether key resolves through Object.prototype, so
// dynamic objects fall back to it for toString and friends.
func (r *realm) inherited(key string) bool {
	proto := r.vm.Get("Object").ToObject(r.vm).Get("prototype").ToObject(r.vm)
	return proto.Get(key) != nil
}

// styleDeclaration exposes an element's inline style with both camelCase
// properties and the CSSStyleDeclaration methods.
type styleDeclaration struct {
	r  *realm
	el *dom.Element
}

func (r *realm) styleObject(el *dom.Element) goja.Value {
	return r.vm.NewDynamicObject(&styleDeclaration{r: r, el: el})
}

func (s *styleDeclaration) Get(key string) goja.Value {
	vm, style := s.r.vm, s.el.Style()
	switch key {
	case "cssText":
		return vm.ToValue(style.CSSText())
	case "length":
		return vm.ToValue(len(style.Properties()))
	case "getPropertyValue":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(style.Get(call.Argument(0).String()))
		})
	case "setProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			value, _ := optionalString(call.Argument(1))
			style.Set(call.Argument(0).String(), value)
			return goja.Undefined()
		})
	case "removeProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			name := call.Argument(0).String()
			old := style.Get(name)
			style.Remove(name)
			return vm.ToValue(old)
		})
	}
	if s.r.inherited(key) {
		return nil
	}
	return vm.ToValue(style.Get(cssName(key)))
}

func (s *styleDeclaration) Set(key string, val goja.Value) bool {
	value, _ := optionalString(val)
	if key == "cssText" {
		s.el.Style().SetCSSText(value)
		return true
	}
	s.el.Style().Set(cssName(key), value)
	return true
}

func (s *styleDeclaration) Has(key string) bool {
	return s.el.Style().Get(cssName(key)) != ""
}

func (s *styleDeclaration) Delete(key string) bool {
	s.el.Style().Remove(cssName(key))
	return true
}

func (s *styleDeclaration) Keys() []string {
	props := s.el.Style().Properties()
	keys := make([]string, len(props))
	for i, p := range props {
		keys[i] = camelName(p.Name)
	}
	return keys
}

// attributeProxy is the script view of dom.AttributeMap: named reads and
// writes go straight to the element.
type attributeProxy struct {
	r *realm
	m *dom.AttributeMap
}

func (r *realm) attributesObject(el *dom.Element) goja.Value {
	return r.vm.NewDynamicObject(&attributeProxy{r: r, m: el.Attributes()})
}

func (a *attributeProxy) attr(at dom.Attr) goja.Value {
	obj := a.r.vm.NewObject()
	obj.Set("name", at.Name)
	obj.Set("value", at.Value)
	return obj
}

func (a *attributeProxy) Get(key string) goja.Value {
	vm := a.r.vm
	switch key {
	case "length":
		return vm.ToValue(a.m.Len())
	case "item":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if at, ok := a.m.Item(int(call.Argument(0).ToInteger())); ok {
				return a.attr(at)
			}
			return goja.Null()
		})
	case "getNamedItem":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			name := call.Argument(0).String()
			if v, ok := a.m.Get(name); ok {
				return a.attr(dom.Attr{Name: strings.ToLower(name), Value: v})
			}
			return goja.Null()
		})
	case "removeNamedItem":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if !a.m.Delete(call.Argument(0).String()) {
				a.r.throw(dom.ErrNotFound("no attribute named " + call.Argument(0).String()))
			}
			return goja.Undefined()
		})
	}
	if v, ok := a.m.Get(key); ok {
		return vm.ToValue(v)
	}
	return nil
}

func (a *attributeProxy) Set(key string, val goja.Value) bool {
	a.m.Set(key, val.String())
	return true
}

func (a *attributeProxy) Has(key string) bool { return a.m.Has(key) }

func (a *attributeProxy) Delete(key string) bool {
	a.m.Delete(key)
	return true
}

func (a *attributeProxy) Keys() []string { return a.m.Names() }

// tokenListObject exposes a dom.TokenList as a DOMTokenList.
func (r *realm) tokenListObject(l *dom.TokenList) goja.Value {
	vm := r.vm
	obj := vm.NewObject()
	args := func(call goja.FunctionCall) []string {
		out := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			out[i] = a.String()
		}
		return out
	}
	r.accessor(obj, "length", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Len())
	}, nil)
	r.accessor(obj, "value", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Value())
	}, func(call goja.FunctionCall) {
		l.SetValue(call.Argument(0).String())
	})
	obj.Set("item", func(call goja.FunctionCall) goja.Value {
		tok, ok := l.Item(int(call.Argument(0).ToInteger()))
		return r.nullableString(tok, ok)
	})
	obj.Set("contains", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Contains(call.Argument(0).String()))
	})
	obj.Set("add", func(call goja.FunctionCall) goja.Value {
		r.check(l.Add(args(call)...))
		return goja.Undefined()
	})
	obj.Set("remove", func(call goja.FunctionCall) goja.Value {
		r.check(l.Remove(args(call)...))
		return goja.Undefined()
	})
	obj.Set("toggle", func(call goja.FunctionCall) goja.Value {
		var force *bool
		if v := call.Argument(1); !goja.IsUndefined(v) {
			b := v.ToBoolean()
			force = &b
		}
		on, err := l.Toggle(call.Argument(0).String(), force)
		r.check(err)
		return vm.ToValue(on)
	})
	obj.Set("replace", func(call goja.FunctionCall) goja.Value {
		ok, err := l.Replace(call.Argument(0).String(), call.Argument(1).String())
		r.check(err)
		return vm.ToValue(ok)
	})
	obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Value())
	})
	return obj
}
