package js

import (
	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/dom"
)

const goEvent = "_goEvent"

func (r *realm) installEvents() {
	vm := r.vm
	r.protos.eventTarget = r.class("EventTarget", nil, nil)
	r.protos.eventTarget.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		r.addEventListener(r.thisTarget(call), call)
		return goja.Undefined()
	})
	r.protos.eventTarget.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		r.removeEventListener(r.thisTarget(call), call)
		return goja.Undefined()
	})
	r.protos.eventTarget.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.dispatchEvent(r.thisTarget(call), call.Argument(0)))
	})

	r.protos.event = r.class("Event", nil, func(call goja.ConstructorCall) *goja.Object {
		return r.constructEvent(call, false)
	})
	r.protos.customEvent = r.class("CustomEvent", r.protos.event, func(call goja.ConstructorCall) *goja.Object {
		return r.constructEvent(call, true)
	})

	p := r.protos.event
	r.accessor(p, "type", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisEvent(call).Type)
	}, nil)
	r.accessor(p, "target", func(call goja.FunctionCall) goja.Value {
		return r.targetValue(r.thisEvent(call).Target)
	}, nil)
	r.accessor(p, "currentTarget", func(call goja.FunctionCall) goja.Value {
		return r.targetValue(r.thisEvent(call).CurrentTarget)
	}, nil)
	r.accessor(p, "defaultPrevented", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisEvent(call).DefaultPrevented())
	}, nil)
	r.accessor(p, "detail", func(call goja.FunctionCall) goja.Value {
		return r.anyValue(r.thisEvent(call).Detail)
	}, nil)
	r.accessor(p, "data", func(call goja.FunctionCall) goja.Value {
		return r.anyValue(r.thisEvent(call).Data)
	}, nil)
	r.accessor(p, "state", func(call goja.FunctionCall) goja.Value {
		return r.anyValue(r.thisEvent(call).State)
	}, nil)
	r.accessor(p, "url", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisEvent(call).URL)
	}, nil)
	r.accessor(p, "newURL", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.thisEvent(call).URL)
	}, nil)
	r.accessor(p, "oldURL", func(call goja.FunctionCall) goja.Value {
		old, _ := r.thisEvent(call).Detail.(string)
		return vm.ToValue(old)
	}, nil)
	r.accessor(p, "error", func(call goja.FunctionCall) goja.Value {
		if err := r.thisEvent(call).Error; err != nil {
			return r.errorValue(err)
		}
		return goja.Null()
	}, nil)
	r.accessor(p, "message", func(call goja.FunctionCall) goja.Value {
		if err := r.thisEvent(call).Error; err != nil {
			return vm.ToValue(err.Error())
		}
		return vm.ToValue("")
	}, nil)
	p.Set("preventDefault", func(call goja.FunctionCall) goja.Value {
		r.thisEvent(call).PreventDefault()
		return goja.Undefined()
	})
	p.Set("stopPropagation", func(call goja.FunctionCall) goja.Value {
		r.thisEvent(call).StopPropagation()
		return goja.Undefined()
	})
	p.Set("stopImmediatePropagation", func(call goja.FunctionCall) goja.Value {
		r.thisEvent(call).StopPropagation()
		return goja.Undefined()
	})
}

func (r *realm) constructEvent(call goja.ConstructorCall, custom bool) *goja.Object {
	typ, ok := optionalString(call.Argument(0))
	if !ok && goja.IsUndefined(call.Argument(0)) {
		r.typeError("Failed to construct 'Event': 1 argument required")
	}
	if !ok {
		typ = call.Argument(0).String()
	}
	ev := dom.NewEvent(typ)
	if init, ok := call.Argument(1).(*goja.Object); ok {
		if v := init.Get("bubbles"); v != nil {
			call.This.Set("bubbles", v.ToBoolean())
		}
		if v := init.Get("cancelable"); v != nil {
			call.This.Set("cancelable", v.ToBoolean())
		}
		if custom {
			if v := init.Get("detail"); v != nil {
				ev.Detail = v
			}
		}
	}
	r.hide(call.This, goEvent, ev)
	return call.This
}

func (r *realm) thisEvent(call goja.FunctionCall) *dom.Event {
	ev, ok := hidden[*dom.Event](call.This, goEvent)
	if !ok {
		r.typeError("Illegal invocation")
	}
	return ev
}

// eventValue returns the script object for ev. Events dispatched from script
// keep their original object.
func (r *realm) eventValue(ev *dom.Event) goja.Value {
	if obj, ok := r.dispatching[ev]; ok {
		return obj
	}
	obj := r.vm.NewObject()
	obj.SetPrototype(r.protos.event)
	r.hide(obj, goEvent, ev)
	return obj
}

// anyValue converts event payloads. Values that came from script are passed
// through unchanged.
func (r *realm) anyValue(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return v
	case *dom.Node:
		return r.wrap(v)
	case *dom.Element:
		return r.wrapElement(v)
	}
	return r.vm.ToValue(v)
}

// thisTarget resolves the receiver of an EventTarget method. Calls without a
// receiver target the realm's window.
func (r *realm) thisTarget(call goja.FunctionCall) target {
	t := r.targetOf(call.This)
	if t == nil {
		r.typeError("Illegal invocation")
	}
	return t
}

func (r *realm) targetOf(v goja.Value) target {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return r.w
	}
	if n := r.nodeOf(v); n != nil {
		return n
	}
	if obj, ok := v.(*goja.Object); ok {
		if w, ok := r.windowObjs[obj]; ok {
			return w
		}
	}
	return nil
}

func (r *realm) targetValue(t dom.EventTarget) goja.Value {
	switch t := t.(type) {
	case *dom.Node:
		return r.wrap(t)
	case *dom.Element:
		return r.wrapElement(t)
	case *dom.Document:
		return r.wrap(t.AsNode())
	case *dom.Window:
		return r.windowValue(t)
	}
	return goja.Null()
}

// listenerFunc accepts a function or an object with handleEvent.
func (r *realm) listenerFunc(v goja.Value) (*goja.Object, goja.Callable, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, nil, false
	}
	if fn, ok := goja.AssertFunction(obj); ok {
		return obj, fn, true
	}
	handle, ok := goja.AssertFunction(obj.Get("handleEvent"))
	if !ok {
		return nil, nil, false
	}
	return obj, func(_ goja.Value, args ...goja.Value) (goja.Value, error) {
		return handle(obj, args...)
	}, true
}

func (r *realm) addEventListener(t target, call goja.FunctionCall) {
	typ := call.Argument(0).String()
	obj, fn, ok := r.listenerFunc(call.Argument(1))
	if !ok {
		return
	}
	key := listenerKey{target: t, typ: typ, fn: obj}
	if _, dup := r.listeners[key]; dup {
		return
	}
	once := false
	if opts, ok := call.Argument(2).(*goja.Object); ok {
		if v := opts.Get("once"); v != nil {
			once = v.ToBoolean()
		}
	}
	listener := func(ev *dom.Event) {
		if once {
			delete(r.listeners, key)
		}
		r.call(fn, r.targetValue(ev.CurrentTarget), r.eventValue(ev))
	}
	if once {
		r.listeners[key] = t.Once(typ, listener)
		return
	}
	r.listeners[key] = t.On(typ, listener)
}

func (r *realm) removeEventListener(t target, call goja.FunctionCall) {
	obj, ok := call.Argument(1).(*goja.Object)
	if !ok {
		return
	}
	key := listenerKey{target: t, typ: call.Argument(0).String(), fn: obj}
	if id, ok := r.listeners[key]; ok {
		t.Off(key.typ, id)
		delete(r.listeners, key)
	}
}

func (r *realm) dispatchEvent(t target, v goja.Value) bool {
	ev, ok := hidden[*dom.Event](v, goEvent)
	if !ok {
		r.typeError("Failed to execute 'dispatchEvent': parameter 1 is not of type 'Event'")
	}
	obj := v.(*goja.Object)
	ev.Target = nil
	r.dispatching[ev] = obj
	defer delete(r.dispatching, ev)
	return t.DispatchEvent(ev)
}

// handlerProperty defines an on<type> property on obj. Assigning a function
// replaces the previous handler; anything else removes it.
func (r *realm) handlerProperty(obj *goja.Object, typ string) {
	r.accessor(obj, "on"+typ, func(call goja.FunctionCall) goja.Value {
		t := r.targetOf(call.This)
		if h, ok := r.handlers[handlerKey{t, typ}]; ok && t != nil {
			return h.fn
		}
		return goja.Null()
	}, func(call goja.FunctionCall) {
		t := r.targetOf(call.This)
		if t == nil {
			return
		}
		key := handlerKey{t, typ}
		if h, ok := r.handlers[key]; ok {
			t.Off(typ, h.id)
			delete(r.handlers, key)
		}
		fnObj, fn, ok := r.listenerFunc(call.Argument(0))
		if !ok {
			return
		}
		id := t.On(typ, func(ev *dom.Event) {
			r.call(fn, r.targetValue(ev.CurrentTarget), r.eventValue(ev))
		})
		r.handlers[key] = handler{fn: fnObj, id: id}
	})
}
