package js

import (
	"github.com/dop251/goja"

	"github.com/chrisuehlinger/vibedom/dom"
)

func (r *realm) installLocation() {
	global := r.vm.GlobalObject()
	r.accessor(global, "location", func(goja.FunctionCall) goja.Value {
		return r.locationObject(r.w)
	}, func(call goja.FunctionCall) {
		r.check(r.w.Location().SetHref(call.Argument(0).String()))
	})
}

// locationObject returns the script view of w's location. Reads always see
// the current URL; writes go through dom.Location so they navigate or update
// state exactly as Go callers would.
func (r *realm) locationObject(w *dom.Window) goja.Value {
	if obj, ok := r.locations[w]; ok {
		return obj
	}
	vm := r.vm
	loc := w.Location()
	obj := vm.NewObject()
	r.locations[w] = obj

	field := func(name string, get func() string, set func(string)) {
		var setter func(goja.FunctionCall)
		if set != nil {
			setter = func(call goja.FunctionCall) { set(call.Argument(0).String()) }
		}
		r.accessor(obj, name, func(goja.FunctionCall) goja.Value {
			return vm.ToValue(get())
		}, setter)
	}
	field("href", loc.Href, func(s string) { r.check(loc.SetHref(s)) })
	field("protocol", loc.Protocol, loc.SetProtocol)
	field("host", loc.Host, loc.SetHost)
	field("hostname", loc.Hostname, loc.SetHostname)
	field("port", loc.Port, loc.SetPort)
	field("pathname", loc.Pathname, loc.SetPathname)
	field("search", loc.Search, loc.SetSearch)
	field("hash", loc.Hash, loc.SetHash)
	field("username", loc.Username, loc.SetUsername)
	field("password", loc.Password, loc.SetPassword)
	field("origin", loc.Origin, nil)

	obj.Set("assign", func(call goja.FunctionCall) goja.Value {
		r.check(loc.Assign(call.Argument(0).String()))
		return goja.Undefined()
	})
	obj.Set("replace", func(call goja.FunctionCall) goja.Value {
		r.check(loc.Replace(call.Argument(0).String()))
		return goja.Undefined()
	})
	obj.Set("reload", func(goja.FunctionCall) goja.Value {
		loc.Reload()
		return goja.Undefined()
	})
	obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(loc.Href())
	})
	return obj
}
