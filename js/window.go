package js

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/dom"
	"github.com/chrisuehlinger/vibedom/network"
)

var windowEvents = []string{
	"load", "error", "message", "popstate", "hashchange",
}

// installWindow turns the global object into the realm's window.
func (r *realm) installWindow() {
	vm, w := r.vm, r.w
	global := vm.GlobalObject()
	r.windows[w] = global
	r.windowObjs[global] = w

	vm.Set("window", global)
	vm.Set("self", global)
	vm.Set("globalThis", global)
	for _, name := range []string{"addEventListener", "removeEventListener", "dispatchEvent"} {
		global.Set(name, r.protos.eventTarget.Get(name))
	}
	for _, typ := range windowEvents {
		r.handlerProperty(global, typ)
	}

	r.accessor(global, "document", func(goja.FunctionCall) goja.Value {
		return r.wrap(w.Document().AsNode())
	}, nil)
	global.Set("innerWidth", dom.InnerWidth)
	global.Set("innerHeight", dom.InnerHeight)
	global.Set("devicePixelRatio", dom.DevicePixelRatio)
	r.defineFrameTree(global, w)

	global.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		w.PostMessage(exportValue(call.Argument(0)))
		return goja.Undefined()
	})
	global.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			r.typeError("Failed to execute 'requestAnimationFrame': parameter 1 is not a function")
		}
		var id int
		id = w.RequestAnimationFrame(func(ts float64) {
			delete(r.frames, id)
			r.call(fn, global, vm.ToValue(ts))
		})
		r.frames[id] = struct{}{}
		return vm.ToValue(id)
	})
	global.Set("cancelAnimationFrame", func(call goja.FunctionCall) goja.Value {
		id := int(call.Argument(0).ToInteger())
		w.CancelAnimationFrame(id)
		delete(r.frames, id)
		return goja.Undefined()
	})

	navigator := vm.NewObject()
	navigator.Set("userAgent", network.DefaultUserAgent)
	navigator.Set("language", "en-US")
	navigator.Set("languages", vm.NewArray("en-US", "en"))
	navigator.Set("platform", "")
	navigator.Set("onLine", true)
	navigator.Set("cookieEnabled", true)
	vm.Set("navigator", navigator)

	performance := vm.NewObject()
	performance.Set("now", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(float64(time.Since(r.started).Microseconds()) / 1000)
	})
	performance.Set("timeOrigin", float64(r.started.UnixMicro())/1000)
	vm.Set("performance", performance)
}

// defineFrameTree adds parent, top, frames and length to a window object.
func (r *realm) defineFrameTree(obj *goja.Object, w *dom.Window) {
	r.accessor(obj, "parent", func(goja.FunctionCall) goja.Value {
		return r.windowValue(w.Parent())
	}, nil)
	r.accessor(obj, "top", func(goja.FunctionCall) goja.Value {
		return r.windowValue(w.Top())
	}, nil)
	r.accessor(obj, "frames", func(goja.FunctionCall) goja.Value {
		frames := w.Frames()
		items := make([]any, len(frames))
		for i, f := range frames {
			items[i] = r.windowValue(f)
		}
		return r.vm.NewArray(items...)
	}, nil)
	r.accessor(obj, "length", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(len(w.Frames()))
	}, nil)
}

// windowValue returns the object standing for w in this realm: the global
// object for the realm's own window, a proxy for any other window. Proxies
// reach the other window's document, location and message port.
func (r *realm) windowValue(w *dom.Window) goja.Value {
	if w == nil {
		return goja.Null()
	}
	if obj, ok := r.windows[w]; ok {
		return obj
	}
	vm := r.vm
	obj := vm.NewObject()
	r.windows[w] = obj
	r.windowObjs[obj] = w
	obj.Set("window", obj)
	obj.Set("self", obj)
	for _, name := range []string{"addEventListener", "removeEventListener", "dispatchEvent"} {
		obj.Set(name, r.protos.eventTarget.Get(name))
	}
	r.accessor(obj, "document", func(goja.FunctionCall) goja.Value {
		return r.wrap(w.Document().AsNode())
	}, nil)
	r.accessor(obj, "location", func(goja.FunctionCall) goja.Value {
		return r.locationObject(w)
	}, func(call goja.FunctionCall) {
		r.check(w.Location().SetHref(call.Argument(0).String()))
	})
	r.defineFrameTree(obj, w)
	obj.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		w.PostMessage(exportValue(call.Argument(0)))
		return goja.Undefined()
	})
	return obj
}

// exportValue converts a script value into a realm-independent Go value.
func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func (r *realm) installConsole() {
	vm := r.vm
	console := vm.NewObject()
	level := map[string]func(string, ...zap.Field){
		"log":   r.console.Info,
		"info":  r.console.Info,
		"debug": r.console.Debug,
		"trace": r.console.Debug,
		"warn":  r.console.Warn,
		"error": r.console.Error,
	}
	for name, logf := range level {
		logf := logf
		console.Set(name, func(call goja.FunctionCall) goja.Value {
			logf(formatArgs(call.Arguments))
			return goja.Undefined()
		})
	}
	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if call.Argument(0).ToBoolean() {
			return goja.Undefined()
		}
		msg := "Assertion failed"
		if len(call.Arguments) > 1 {
			msg += ": " + formatArgs(call.Arguments[1:])
		}
		r.console.Error(msg)
		return goja.Undefined()
	})

	counts := make(map[string]int)
	console.Set("count", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		counts[label]++
		r.console.Info(label, zap.Int("count", counts[label]))
		return goja.Undefined()
	})
	console.Set("countReset", func(call goja.FunctionCall) goja.Value {
		delete(counts, labelArg(call))
		return goja.Undefined()
	})
	times := make(map[string]time.Time)
	console.Set("time", func(call goja.FunctionCall) goja.Value {
		times[labelArg(call)] = time.Now()
		return goja.Undefined()
	})
	console.Set("timeLog", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		if start, ok := times[label]; ok {
			r.console.Info(label, zap.Duration("elapsed", time.Since(start)))
		}
		return goja.Undefined()
	})
	console.Set("timeEnd", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		if start, ok := times[label]; ok {
			r.console.Info(label, zap.Duration("elapsed", time.Since(start)))
			delete(times, label)
		}
		return goja.Undefined()
	})
	vm.Set("console", console)
}

func labelArg(call goja.FunctionCall) string {
	if s, ok := optionalString(call.Argument(0)); ok {
		return s
	}
	return "default"
}

// formatArgs renders console arguments separated by spaces. Plain objects
// and arrays are shown as JSON.
func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

func formatValue(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return v.String()
	}
	switch obj.ClassName() {
	case "Object", "Array":
		if b, err := json.Marshal(obj.Export()); err == nil {
			return string(b)
		}
	}
	return v.String()
}

func (r *realm) installTimers() {
	vm := r.vm
	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return r.setTimer(call, false)
	})
	vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return r.setTimer(call, true)
	})
	clearTimer := func(call goja.FunctionCall) goja.Value {
		id := int(call.Argument(0).ToInteger())
		if _, ok := r.timers[id]; ok {
			r.w.Loop().ClearTimer(id)
			delete(r.timers, id)
		}
		return goja.Undefined()
	}
	vm.Set("clearTimeout", clearTimer)
	vm.Set("clearInterval", clearTimer)
	vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			r.typeError("Failed to execute 'queueMicrotask': parameter 1 is not a function")
		}
		r.w.Loop().QueueMicrotask(func() { r.call(fn, goja.Undefined()) })
		return goja.Undefined()
	})
}

// setTimer schedules a function or a string of code. Intervals are clamped
// to 4ms.
func (r *realm) setTimer(call goja.FunctionCall, repeat bool) goja.Value {
	handler := call.Argument(0)
	fn, ok := goja.AssertFunction(handler)
	if !ok {
		if goja.IsUndefined(handler) {
			return goja.Undefined()
		}
		code := handler.String()
		fn = func(goja.Value, ...goja.Value) (goja.Value, error) {
			return r.vm.RunString(code)
		}
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = call.Arguments[2:]
	}
	global := r.vm.GlobalObject()
	loop := r.w.Loop()
	var id int
	if repeat {
		id = loop.SetInterval(func() { r.call(fn, global, args...) }, max(delay, 4*time.Millisecond))
	} else {
		id = loop.SetTimeout(func() {
			delete(r.timers, id)
			r.call(fn, global, args...)
		}, delay)
	}
	r.timers[id] = struct{}{}
	return r.vm.ToValue(id)
}
