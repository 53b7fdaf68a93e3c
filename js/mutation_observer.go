package js

import (
	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/dom"
)

const goObserver = "_goObserver"

func (r *realm) installMutationObserver() {
	vm := r.vm
	proto := r.class("MutationObserver", nil, func(call goja.ConstructorCall) *goja.Object {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			r.typeError("Failed to construct 'MutationObserver': parameter 1 is not a function")
		}
		this := call.This
		o := r.w.NewMutationObserver(func(records []*dom.MutationRecord, _ *dom.MutationObserver) {
			r.call(fn, this, r.recordsValue(records), this)
		})
		r.hide(this, goObserver, o)
		return this
	})
	proto.Set("observe", func(call goja.FunctionCall) goja.Value {
		o := r.thisObserver(call)
		root := r.nodeArg(call, 0, false)
		opts := &dom.ObserveOptions{}
		if init, ok := call.Argument(1).(*goja.Object); ok {
			opts.ChildList = boolOption(init, "childList")
			opts.Attributes = boolOption(init, "attributes")
			opts.AttributeOldValue = boolOption(init, "attributeOldValue")
			if v := init.Get("attributeFilter"); v != nil && !goja.IsUndefined(v) {
				if err := vm.ExportTo(v, &opts.AttributeFilter); err != nil {
					r.typeError("Failed to execute 'observe': attributeFilter is not a sequence")
				}
				opts.Attributes = true
			}
			if opts.AttributeOldValue {
				opts.Attributes = true
			}
		}
		if !opts.ChildList && !opts.Attributes {
			r.typeError("Failed to execute 'observe': The options object must set at least one of 'attributes' or 'childList' to true.")
		}
		o.Observe(root, opts)
		r.observers[o] = struct{}{}
		return goja.Undefined()
	})
	proto.Set("takeRecords", func(call goja.FunctionCall) goja.Value {
		return r.recordsValue(r.thisObserver(call).TakeRecords())
	})
	proto.Set("disconnect", func(call goja.FunctionCall) goja.Value {
		o := r.thisObserver(call)
		o.Disconnect()
		delete(r.observers, o)
		return goja.Undefined()
	})
}

func (r *realm) thisObserver(call goja.FunctionCall) *dom.MutationObserver {
	o, ok := hidden[*dom.MutationObserver](call.This, goObserver)
	if !ok {
		r.typeError("Illegal invocation")
	}
	return o
}

func boolOption(obj *goja.Object, name string) bool {
	v := obj.Get(name)
	return v != nil && v.ToBoolean()
}

func (r *realm) recordsValue(records []*dom.MutationRecord) goja.Value {
	items := make([]any, len(records))
	for i, rec := range records {
		obj := r.vm.NewObject()
		obj.Set("type", rec.Type)
		obj.Set("target", r.wrap(rec.Target))
		obj.Set("addedNodes", r.wrapNodes(rec.AddedNodes))
		obj.Set("removedNodes", r.wrapNodes(rec.RemovedNodes))
		obj.Set("previousSibling", r.wrap(rec.PreviousSibling))
		obj.Set("nextSibling", r.wrap(rec.NextSibling))
		if rec.Type == dom.MutationAttributes {
			obj.Set("attributeName", rec.AttributeName)
		} else {
			obj.Set("attributeName", goja.Null())
		}
		if rec.OldValue != nil {
			obj.Set("oldValue", *rec.OldValue)
		} else {
			obj.Set("oldValue", goja.Null())
		}
		items[i] = obj
	}
	return r.vm.NewArray(items...)
}
