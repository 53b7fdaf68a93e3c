package js

import (
	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/dom"
)

// installStorage defines localStorage. The store is opened on first access;
// a window without storage throws when scripts touch it.
func (r *realm) installStorage() {
	var obj *goja.Object
	r.accessor(r.vm.GlobalObject(), "localStorage", func(goja.FunctionCall) goja.Value {
		if obj != nil {
			return obj
		}
		s, err := r.w.LocalStorage()
		if err != nil {
			r.throw(&dom.DOMError{Name: "SecurityError", Message: err.Error()})
		}
		obj = r.storageObject(s)
		return obj
	}, nil)
}

func (r *realm) storageObject(s dom.Storage) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	obj.Set("getItem", func(call goja.FunctionCall) goja.Value {
		v, ok, err := s.GetItem(call.Argument(0).String())
		r.check(err)
		return r.nullableString(v, ok)
	})
	obj.Set("setItem", func(call goja.FunctionCall) goja.Value {
		r.check(s.SetItem(call.Argument(0).String(), call.Argument(1).String()))
		return goja.Undefined()
	})
	obj.Set("removeItem", func(call goja.FunctionCall) goja.Value {
		r.check(s.RemoveItem(call.Argument(0).String()))
		return goja.Undefined()
	})
	obj.Set("clear", func(goja.FunctionCall) goja.Value {
		r.check(s.Clear())
		return goja.Undefined()
	})
	obj.Set("key", func(call goja.FunctionCall) goja.Value {
		k, ok, err := s.Key(int(call.Argument(0).ToInteger()))
		r.check(err)
		return r.nullableString(k, ok)
	})
	r.accessor(obj, "length", func(goja.FunctionCall) goja.Value {
		n, err := s.Len()
		r.check(err)
		return vm.ToValue(n)
	}, nil)
	return obj
}
