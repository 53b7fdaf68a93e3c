package js

import (
	"errors"

	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/network"
)

// installFetch defines fetch(url). Responses with a non-2xx status resolve
// with ok set to false; transport failures reject with a TypeError.
func (r *realm) installFetch() {
	r.vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		if goja.IsUndefined(call.Argument(0)) {
			return r.rejectedPromise(r.vm.NewTypeError("Failed to execute 'fetch': 1 argument required"))
		}
		promise, resolve, reject := r.newPromise()
		r.w.Fetch(call.Argument(0).String(), func(resp *network.Response, err error) {
			if r.released {
				return
			}
			var status *network.StatusError
			switch {
			case err == nil, errors.As(err, &status) && resp != nil:
				resolve(r.responseObject(resp))
			default:
				reject(r.vm.NewTypeError("Failed to fetch: " + err.Error()))
			}
		})
		return promise
	})
}

func (r *realm) responseObject(resp *network.Response) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	obj.Set("ok", resp.OK())
	obj.Set("status", resp.Status)
	obj.Set("statusText", resp.StatusText)
	obj.Set("url", resp.URL)
	headers := vm.NewObject()
	headers.Set("get", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if resp.Headers == nil || len(resp.Headers.Values(name)) == 0 {
			if name == "content-type" || name == "Content-Type" {
				return vm.ToValue(resp.ContentType)
			}
			return goja.Null()
		}
		return vm.ToValue(resp.Headers.Get(name))
	})
	headers.Set("has", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(resp.Headers != nil && len(resp.Headers.Values(call.Argument(0).String())) > 0)
	})
	obj.Set("headers", headers)

	used := false
	body := func(decode func() (goja.Value, error)) goja.Value {
		if used {
			return r.rejectedPromise(vm.NewTypeError("Body has already been consumed"))
		}
		used = true
		v, err := decode()
		if err != nil {
			return r.rejectedPromise(r.errorValue(err))
		}
		return r.resolvedPromise(v)
	}
	obj.Set("text", func(goja.FunctionCall) goja.Value {
		return body(func() (goja.Value, error) {
			s, err := resp.Text()
			return vm.ToValue(s), err
		})
	})
	obj.Set("json", func(goja.FunctionCall) goja.Value {
		return body(func() (goja.Value, error) {
			s, err := resp.Text()
			if err != nil {
				return nil, err
			}
			parse, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
			return parse(goja.Undefined(), vm.ToValue(s))
		})
	})
	obj.Set("arrayBuffer", func(goja.FunctionCall) goja.Value {
		return body(func() (goja.Value, error) {
			return vm.ToValue(vm.NewArrayBuffer(resp.ArrayBuffer())), nil
		})
	})
	return obj
}

// newPromise creates a pending promise. The returned functions settle it
// from Go; promise jobs run once control returns to the loop.
func (r *realm) newPromise() (goja.Value, func(goja.Value), func(goja.Value)) {
	var resolveFn, rejectFn goja.Callable
	ctor, _ := goja.AssertConstructor(r.vm.Get("Promise"))
	executor := r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		resolveFn, _ = goja.AssertFunction(call.Argument(0))
		rejectFn, _ = goja.AssertFunction(call.Argument(1))
		return goja.Undefined()
	})
	promise, err := ctor(nil, executor)
	if err != nil {
		panic(err)
	}
	resolve := func(v goja.Value) { r.call(resolveFn, goja.Undefined(), v) }
	reject := func(v goja.Value) { r.call(rejectFn, goja.Undefined(), v) }
	return promise, resolve, reject
}

func (r *realm) resolvedPromise(v goja.Value) goja.Value {
	promise := r.vm.Get("Promise").ToObject(r.vm)
	resolve, _ := goja.AssertFunction(promise.Get("resolve"))
	out, _ := resolve(promise, v)
	return out
}

func (r *realm) rejectedPromise(v goja.Value) goja.Value {
	promise := r.vm.Get("Promise").ToObject(r.vm)
	reject, _ := goja.AssertFunction(promise.Get("reject"))
	out, _ := reject(promise, v)
	return out
}
