package js

import (
	"github.com/dop251/goja"
)

func (r *realm) installHistory() {
	vm := r.vm
	h := r.w.History()
	obj := vm.NewObject()
	r.accessor(obj, "length", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(h.Length())
	}, nil)
	r.accessor(obj, "state", func(goja.FunctionCall) goja.Value {
		return r.anyValue(h.State())
	}, nil)
	obj.Set("back", func(goja.FunctionCall) goja.Value {
		h.Back(1)
		return goja.Undefined()
	})
	obj.Set("forward", func(goja.FunctionCall) goja.Value {
		h.Forward(1)
		return goja.Undefined()
	})
	obj.Set("go", func(call goja.FunctionCall) goja.Value {
		h.Go(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	// States are exported to plain Go values so every realm, and Go callers,
	// read the same data.
	obj.Set("pushState", func(call goja.FunctionCall) goja.Value {
		title, _ := optionalString(call.Argument(1))
		url, _ := optionalString(call.Argument(2))
		r.check(h.PushState(exportValue(call.Argument(0)), title, url))
		return goja.Undefined()
	})
	obj.Set("replaceState", func(call goja.FunctionCall) goja.Value {
		title, _ := optionalString(call.Argument(1))
		url, _ := optionalString(call.Argument(2))
		r.check(h.ReplaceState(exportValue(call.Argument(0)), title, url))
		return goja.Undefined()
	})
	vm.Set("history", obj)
}
