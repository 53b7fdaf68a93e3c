package js

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/dom"
)

const goNode = "_goNode"

// wrap returns the script object for n, creating it on first use so the same
// node is always the same object within a realm.
func (r *realm) wrap(n *dom.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if obj, ok := r.nodes[n]; ok {
		return obj
	}
	obj := r.vm.NewObject()
	switch n.NodeType() {
	case dom.ElementNode:
		obj.SetPrototype(r.protos.element)
	case dom.DocumentNode:
		obj.SetPrototype(r.protos.document)
	case dom.TextNode:
		obj.SetPrototype(r.protos.text)
	case dom.CommentNode:
		obj.SetPrototype(r.protos.comment)
	default:
		obj.SetPrototype(r.protos.node)
	}
	r.hide(obj, goNode, n)
	r.nodes[n] = obj
	return obj
}

func (r *realm) wrapElement(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return r.wrap(el.AsNode())
}

func (r *realm) wrapNodes(nodes []*dom.Node) goja.Value {
	items := make([]any, len(nodes))
	for i, n := range nodes {
		items[i] = r.wrap(n)
	}
	return r.vm.NewArray(items...)
}

func (r *realm) wrapElements(els []*dom.Element) goja.Value {
	items := make([]any, len(els))
	for i, el := range els {
		items[i] = r.wrapElement(el)
	}
	return r.vm.NewArray(items...)
}

func (r *realm) nodeOf(v goja.Value) *dom.Node {
	n, _ := hidden[*dom.Node](v, goNode)
	return n
}

func (r *realm) thisNode(call goja.FunctionCall) *dom.Node {
	n := r.nodeOf(call.This)
	if n == nil {
		r.typeError("Illegal invocation")
	}
	return n
}

func (r *realm) thisElement(call goja.FunctionCall) *dom.Element {
	el := r.thisNode(call).AsElement()
	if el == nil {
		r.typeError("Illegal invocation")
	}
	return el
}

func (r *realm) thisDocument(call goja.FunctionCall) *dom.Document {
	doc := r.thisNode(call).AsDocument()
	if doc == nil {
		r.typeError("Illegal invocation")
	}
	return doc
}

// nodeArg returns argument i as a node; null and undefined give nil when
// nullable is set.
func (r *realm) nodeArg(call goja.FunctionCall, i int, nullable bool) *dom.Node {
	v := call.Argument(i)
	if nullable && (goja.IsUndefined(v) || goja.IsNull(v)) {
		return nil
	}
	n := r.nodeOf(v)
	if n == nil {
		r.typeError("parameter %d is not of type 'Node'", i+1)
	}
	return n
}

func (r *realm) check(err error) {
	if err != nil {
		r.throw(err)
	}
}

func (r *realm) installNodes() {
	r.protos.node = r.class("Node", r.protos.eventTarget, nil)
	r.protos.element = r.class("Element", r.protos.node, nil)
	r.vm.Set("HTMLElement", r.vm.Get("Element"))
	r.protos.document = r.class("Document", r.protos.node, nil)
	r.protos.characterData = r.class("CharacterData", r.protos.node, nil)
	r.protos.text = r.class("Text", r.protos.characterData, func(call goja.ConstructorCall) *goja.Object {
		data, _ := optionalString(call.Argument(0))
		return r.wrap(r.w.Document().CreateTextNode(data)).(*goja.Object)
	})
	r.protos.comment = r.class("Comment", r.protos.characterData, func(call goja.ConstructorCall) *goja.Object {
		data, _ := optionalString(call.Argument(0))
		return r.wrap(r.w.Document().CreateComment(data)).(*goja.Object)
	})

	nodeCtor := r.vm.Get("Node").ToObject(r.vm)
	for name, t := range map[string]dom.NodeType{
		"ELEMENT_NODE":  dom.ElementNode,
		"TEXT_NODE":     dom.TextNode,
		"COMMENT_NODE":  dom.CommentNode,
		"DOCUMENT_NODE": dom.DocumentNode,
	} {
		nodeCtor.Set(name, int(t))
	}

	r.installNodeMembers()
	r.installElementMembers()
	r.installDocumentMembers()
	r.installCharacterDataMembers()
	r.installMediaConstructors()
}

func (r *realm) installNodeMembers() {
	vm, p := r.vm, r.protos.node
	r.accessor(p, "nodeType", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(int(r.thisNode(call).NodeType()))
	}, nil)
	r.accessor(p, "nodeName", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisNode(call).NodeName())
	}, nil)
	r.accessor(p, "nodeValue", func(call goja.FunctionCall) goja.Value {
		n := r.thisNode(call)
		if t := n.NodeType(); t != dom.TextNode && t != dom.CommentNode {
			return goja.Null()
		}
		return vm.ToValue(n.NodeValue())
	}, func(call goja.FunctionCall) {
		s, _ := optionalString(call.Argument(0))
		r.thisNode(call).SetNodeValue(s)
	})
	r.accessor(p, "textContent", func(call goja.FunctionCall) goja.Value {
		n := r.thisNode(call)
		if n.NodeType() == dom.DocumentNode {
			return goja.Null()
		}
		return vm.ToValue(n.TextContent())
	}, func(call goja.FunctionCall) {
		s, _ := optionalString(call.Argument(0))
		r.check(r.thisNode(call).SetTextContent(s))
	})
	r.accessor(p, "parentNode", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).ParentNode())
	}, nil)
	r.accessor(p, "parentElement", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisNode(call).ParentElement())
	}, nil)
	r.accessor(p, "ownerDocument", func(call goja.FunctionCall) goja.Value {
		if doc := r.thisNode(call).OwnerDocument(); doc != nil {
			return r.wrap(doc.AsNode())
		}
		return goja.Null()
	}, nil)
	r.accessor(p, "childNodes", func(call goja.FunctionCall) goja.Value {
		return r.wrapNodes(r.thisNode(call).ChildNodes())
	}, nil)
	r.accessor(p, "firstChild", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).FirstChild())
	}, nil)
	r.accessor(p, "lastChild", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).LastChild())
	}, nil)
	r.accessor(p, "nextSibling", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).NextSibling())
	}, nil)
	r.accessor(p, "previousSibling", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).PreviousSibling())
	}, nil)
	r.accessor(p, "isConnected", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisNode(call).IsConnected())
	}, nil)

	p.Set("hasChildNodes", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisNode(call).HasChildNodes())
	})
	p.Set("contains", func(call goja.FunctionCall) goja.Value {
		other := r.nodeArg(call, 0, true)
		return vm.ToValue(other != nil && r.thisNode(call).Contains(other))
	})
	p.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		n, err := r.thisNode(call).AppendChild(r.nodeArg(call, 0, false))
		r.check(err)
		return r.wrap(n)
	})
	p.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		n, err := r.thisNode(call).InsertBefore(r.nodeArg(call, 0, false), r.nodeArg(call, 1, true))
		r.check(err)
		return r.wrap(n)
	})
	p.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		n, err := r.thisNode(call).RemoveChild(r.nodeArg(call, 0, false))
		r.check(err)
		return r.wrap(n)
	})
	// replaceChild is an insertion followed by a removal, so observers see
	// two records.
	p.Set("replaceChild", func(call goja.FunctionCall) goja.Value {
		parent := r.thisNode(call)
		child, old := r.nodeArg(call, 0, false), r.nodeArg(call, 1, false)
		if old.ParentNode() != parent {
			r.throw(dom.ErrNotFound("the node to be replaced is not a child of this node"))
		}
		if child == old {
			return r.wrap(old)
		}
		_, err := parent.InsertBefore(child, old)
		r.check(err)
		_, err = parent.RemoveChild(old)
		r.check(err)
		return r.wrap(old)
	})
	p.Set("replaceChildren", func(call goja.FunctionCall) goja.Value {
		nodes := make([]*dom.Node, len(call.Arguments))
		for i := range call.Arguments {
			nodes[i] = r.nodeArg(call, i, false)
		}
		r.check(r.thisNode(call).ReplaceChildren(nodes...))
		return goja.Undefined()
	})
	p.Set("remove", func(call goja.FunctionCall) goja.Value {
		n := r.thisNode(call)
		if parent := n.ParentNode(); parent != nil {
			_, err := parent.RemoveChild(n)
			r.check(err)
		}
		return goja.Undefined()
	})
	p.Set("cloneNode", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisNode(call).CloneNode(call.Argument(0).ToBoolean()))
	})
}

func (r *realm) installElementMembers() {
	vm, p := r.vm, r.protos.element
	r.accessor(p, "tagName", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).TagName())
	}, nil)
	r.accessor(p, "localName", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).LocalName())
	}, nil)
	r.accessor(p, "namespaceURI", func(call goja.FunctionCall) goja.Value {
		switch ns := r.thisElement(call).Namespace(); ns {
		case "":
			return vm.ToValue(dom.NamespaceHTML)
		case "svg":
			return vm.ToValue(dom.NamespaceSVG)
		case "math":
			return vm.ToValue(dom.NamespaceMathML)
		default:
			return vm.ToValue(ns)
		}
	}, nil)
	r.accessor(p, "id", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Id())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetId(call.Argument(0).String())
	})
	r.accessor(p, "className", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).ClassName())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetClassName(call.Argument(0).String())
	})
	r.accessor(p, "innerHTML", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).InnerHTML())
	}, func(call goja.FunctionCall) {
		s, _ := optionalString(call.Argument(0))
		r.check(r.thisElement(call).SetInnerHTML(s))
	})
	r.accessor(p, "outerHTML", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).OuterHTML())
	}, nil)
	r.accessor(p, "style", func(call goja.FunctionCall) goja.Value {
		return r.styleObject(r.thisElement(call))
	}, func(call goja.FunctionCall) {
		r.thisElement(call).Style().SetCSSText(call.Argument(0).String())
	})
	r.accessor(p, "attributes", func(call goja.FunctionCall) goja.Value {
		return r.attributesObject(r.thisElement(call))
	}, nil)
	r.accessor(p, "classList", func(call goja.FunctionCall) goja.Value {
		return r.tokenListObject(r.thisElement(call).ClassList())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetClassName(call.Argument(0).String())
	})

	r.accessor(p, "children", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisNode(call).Children())
	}, nil)
	r.accessor(p, "childElementCount", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(len(r.thisNode(call).Children()))
	}, nil)
	r.accessor(p, "firstElementChild", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisNode(call).FirstElementChild())
	}, nil)
	r.accessor(p, "lastElementChild", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisNode(call).LastElementChild())
	}, nil)
	r.accessor(p, "nextElementSibling", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisNode(call).NextElementSibling())
	}, nil)
	r.accessor(p, "previousElementSibling", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisNode(call).PreviousElementSibling())
	}, nil)

	p.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		return r.nullableString(r.thisElement(call).LookupAttribute(call.Argument(0).String()))
	})
	p.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).SetAttribute(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	p.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).RemoveAttribute(call.Argument(0).String())
		return goja.Undefined()
	})
	p.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).HasAttribute(call.Argument(0).String()))
	})
	p.Set("getAttributeNames", func(call goja.FunctionCall) goja.Value {
		names := r.thisElement(call).Attributes().Names()
		items := make([]any, len(names))
		for i, n := range names {
			items[i] = n
		}
		return vm.NewArray(items...)
	})
	p.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		el, err := r.thisElement(call).QuerySelector(call.Argument(0).String())
		r.check(err)
		return r.wrapElement(el)
	})
	p.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		els, err := r.thisElement(call).QuerySelectorAll(call.Argument(0).String())
		r.check(err)
		return r.wrapElements(els)
	})
	p.Set("matches", func(call goja.FunctionCall) goja.Value {
		ok, err := r.thisElement(call).Matches(call.Argument(0).String())
		r.check(err)
		return vm.ToValue(ok)
	})
	p.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisElement(call).GetElementsByTagName(call.Argument(0).String()))
	})
	p.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisElement(call).GetElementsByClassName(call.Argument(0).String()))
	})
	p.Set("focus", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).Focus()
		return goja.Undefined()
	})
	p.Set("blur", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).Blur()
		return goja.Undefined()
	})
	p.Set("requestPointerLock", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).RequestPointerLock()
		return goja.Undefined()
	})

	r.installResourceMembers(p)
	for _, typ := range []string{"load", "error", "canplay", "play", "pause", "click", "focus", "blur"} {
		r.handlerProperty(p, typ)
	}
}

// installResourceMembers adds the script, media, frame, canvas and anchor
// members. They live on every element, as the kinds share one prototype.
func (r *realm) installResourceMembers(p *goja.Object) {
	vm := r.vm
	r.accessor(p, "src", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Src())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetSrc(call.Argument(0).String())
	})
	r.accessor(p, "href", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Href())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetAttribute("href", call.Argument(0).String())
	})
	r.accessor(p, "type", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Type())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetAttribute("type", call.Argument(0).String())
	})
	r.accessor(p, "async", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Async())
	}, func(call goja.FunctionCall) {
		el := r.thisElement(call)
		if call.Argument(0).ToBoolean() {
			el.SetAttribute("async", "")
		} else {
			el.RemoveAttribute("async")
		}
	})
	r.accessor(p, "text", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).AsNode().TextContent())
	}, func(call goja.FunctionCall) {
		r.check(r.thisElement(call).AsNode().SetTextContent(call.Argument(0).String()))
	})
	r.accessor(p, "paused", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Paused())
	}, nil)
	p.Set("play", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).Play()
		return r.resolvedPromise(goja.Undefined())
	})
	p.Set("pause", func(call goja.FunctionCall) goja.Value {
		r.thisElement(call).Pause()
		return goja.Undefined()
	})
	r.accessor(p, "width", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Width())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetWidth(int(call.Argument(0).ToInteger()))
	})
	r.accessor(p, "height", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisElement(call).Height())
	}, func(call goja.FunctionCall) {
		r.thisElement(call).SetHeight(int(call.Argument(0).ToInteger()))
	})
	p.Set("getContext", func(call goja.FunctionCall) goja.Value {
		ctx, err := r.thisElement(call).GetContext(call.Argument(0).String())
		if err != nil {
			r.logger.Debug("getContext failed", zap.Error(err))
			return goja.Null()
		}
		return r.anyValue(ctx)
	})
	r.accessor(p, "contentWindow", func(call goja.FunctionCall) goja.Value {
		el := r.thisElement(call)
		if el.Kind() != dom.KindFrame {
			return goja.Undefined()
		}
		return r.windowValue(el.ContentWindow())
	}, nil)
	r.accessor(p, "contentDocument", func(call goja.FunctionCall) goja.Value {
		el := r.thisElement(call)
		if el.Kind() != dom.KindFrame {
			return goja.Undefined()
		}
		if doc := el.ContentDocument(); doc != nil {
			return r.wrap(doc.AsNode())
		}
		return goja.Null()
	}, nil)
}

func (r *realm) installDocumentMembers() {
	vm, p := r.vm, r.protos.document
	r.accessor(p, "documentElement", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).DocumentElement())
	}, nil)
	r.accessor(p, "head", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).Head())
	}, nil)
	r.accessor(p, "body", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).Body())
	}, nil)
	r.accessor(p, "URL", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisDocument(call).URL())
	}, nil)
	r.accessor(p, "readyState", func(call goja.FunctionCall) goja.Value {
		if s := r.thisDocument(call).ReadyState(); s != dom.ReadyStateLoading {
			return vm.ToValue(s)
		}
		return vm.ToValue("loading")
	}, nil)
	r.accessor(p, "activeElement", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).ActiveElement())
	}, nil)
	r.accessor(p, "pointerLockElement", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).PointerLockElement())
	}, nil)
	r.accessor(p, "defaultView", func(call goja.FunctionCall) goja.Value {
		return r.windowValue(r.thisDocument(call).DefaultView())
	}, nil)
	r.accessor(p, "location", func(call goja.FunctionCall) goja.Value {
		if w := r.thisDocument(call).DefaultView(); w != nil {
			return r.locationObject(w)
		}
		return goja.Null()
	}, nil)
	r.accessor(p, "children", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisNode(call).Children())
	}, nil)

	p.Set("exitPointerLock", func(call goja.FunctionCall) goja.Value {
		r.thisDocument(call).ExitPointerLock()
		return goja.Undefined()
	})
	p.Set("createElement", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).CreateElement(call.Argument(0).String()))
	})
	p.Set("createElementNS", func(call goja.FunctionCall) goja.Value {
		ns, _ := optionalString(call.Argument(0))
		return r.wrapElement(r.thisDocument(call).CreateElementNS(ns, call.Argument(1).String()))
	})
	p.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisDocument(call).CreateTextNode(call.Argument(0).String()))
	})
	p.Set("createComment", func(call goja.FunctionCall) goja.Value {
		return r.wrap(r.thisDocument(call).CreateComment(call.Argument(0).String()))
	})
	p.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return r.wrapElement(r.thisDocument(call).GetElementById(call.Argument(0).String()))
	})
	p.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		el, err := r.thisDocument(call).QuerySelector(call.Argument(0).String())
		r.check(err)
		return r.wrapElement(el)
	})
	p.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		els, err := r.thisDocument(call).QuerySelectorAll(call.Argument(0).String())
		r.check(err)
		return r.wrapElements(els)
	})
	p.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisDocument(call).GetElementsByTagName(call.Argument(0).String()))
	})
	p.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return r.wrapElements(r.thisDocument(call).GetElementsByClassName(call.Argument(0).String()))
	})
	p.Set("write", func(call goja.FunctionCall) goja.Value {
		doc := r.thisDocument(call)
		for _, arg := range call.Arguments {
			r.check(doc.Write(arg.String()))
		}
		return goja.Undefined()
	})

	for _, typ := range []string{"readystatechange", "DOMContentLoaded", "pointerlockchange", "beforeunload", "unload"} {
		r.handlerProperty(p, typ)
	}
}

func (r *realm) installCharacterDataMembers() {
	vm, p := r.vm, r.protos.characterData
	r.accessor(p, "data", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisNode(call).NodeValue())
	}, func(call goja.FunctionCall) {
		r.thisNode(call).SetNodeValue(call.Argument(0).String())
	})
	r.accessor(p, "length", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(len([]rune(r.thisNode(call).NodeValue())))
	}, nil)
}

// installMediaConstructors defines new Image(width, height) and
// new Audio(src) on top of createElement.
func (r *realm) installMediaConstructors() {
	r.class("Image", r.protos.element, func(call goja.ConstructorCall) *goja.Object {
		el := r.w.Document().CreateElement("img")
		if !goja.IsUndefined(call.Argument(0)) {
			el.SetWidth(int(call.Argument(0).ToInteger()))
		}
		if !goja.IsUndefined(call.Argument(1)) {
			el.SetHeight(int(call.Argument(1).ToInteger()))
		}
		return r.wrapElement(el).(*goja.Object)
	})
	r.class("Audio", r.protos.element, func(call goja.ConstructorCall) *goja.Object {
		el := r.w.Document().CreateElement("audio")
		if src, ok := optionalString(call.Argument(0)); ok {
			el.SetSrc(src)
		}
		return r.wrapElement(el).(*goja.Object)
	})
}
