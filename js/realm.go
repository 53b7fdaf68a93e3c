package js

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibedom/dom"
)

// target is anything script can add listeners to.
type target interface {
	dom.EventTarget
	On(typ string, fn dom.Listener) dom.ListenerID
	Once(typ string, fn dom.Listener) dom.ListenerID
	Off(typ string, id dom.ListenerID)
}

type prototypes struct {
	eventTarget   *goja.Object
	node          *goja.Object
	element       *goja.Object
	document      *goja.Object
	characterData *goja.Object
	text          *goja.Object
	comment       *goja.Object
	event         *goja.Object
	customEvent   *goja.Object
	domException  *goja.Object
}

type listenerKey struct {
	target target
	typ    string
	fn     *goja.Object
}

type handlerKey struct {
	target target
	typ    string
}

type handler struct {
	fn *goja.Object
	id dom.ListenerID
}

// realm is the script world of one window. It is only touched from the
// window's loop goroutine.
type realm struct {
	ev      *Evaluator
	vm      *goja.Runtime
	w       *dom.Window
	logger  *zap.Logger
	console *zap.Logger
	started time.Time
	protos  prototypes

	nodes       map[*dom.Node]*goja.Object
	windows     map[*dom.Window]*goja.Object
	windowObjs  map[*goja.Object]*dom.Window
	locations   map[*dom.Window]*goja.Object
	listeners   map[listenerKey]dom.ListenerID
	handlers    map[handlerKey]handler
	dispatching map[*dom.Event]*goja.Object
	timers      map[int]struct{}
	frames      map[int]struct{}
	observers   map[*dom.MutationObserver]struct{}

	reporting bool
	released  bool
}

func newRealm(ev *Evaluator, w *dom.Window) *realm {
	logger := ev.logger.With(zap.String("window", w.ID()))
	r := &realm{
		ev:          ev,
		vm:          goja.New(),
		w:           w,
		logger:      logger,
		console:     logger.Named("console"),
		started:     time.Now(),
		nodes:       make(map[*dom.Node]*goja.Object),
		windows:     make(map[*dom.Window]*goja.Object),
		windowObjs:  make(map[*goja.Object]*dom.Window),
		locations:   make(map[*dom.Window]*goja.Object),
		listeners:   make(map[listenerKey]dom.ListenerID),
		handlers:    make(map[handlerKey]handler),
		dispatching: make(map[*dom.Event]*goja.Object),
		timers:      make(map[int]struct{}),
		frames:      make(map[int]struct{}),
		observers:   make(map[*dom.MutationObserver]struct{}),
	}
	r.installErrors()
	r.installEvents()
	r.installNodes()
	r.installWindow()
	r.installConsole()
	r.installTimers()
	r.installLocation()
	r.installHistory()
	r.installStorage()
	r.installFetch()
	r.installMutationObserver()
	return r
}

// release detaches everything the realm registered on the dom side and stops
// the runtime.
func (r *realm) release() {
	if r.released {
		return
	}
	r.released = true
	for key, id := range r.listeners {
		key.target.Off(key.typ, id)
	}
	for key, h := range r.handlers {
		key.target.Off(key.typ, h.id)
	}
	clear(r.listeners)
	clear(r.handlers)
	loop := r.w.Loop()
	for id := range r.timers {
		loop.ClearTimer(id)
	}
	for id := range r.frames {
		r.w.CancelAnimationFrame(id)
	}
	for o := range r.observers {
		o.Disconnect()
	}
	r.vm.Interrupt("realm released")
	r.ev.metrics.realms.Dec()
}

// call invokes a script callback from Go. Exceptions are reported, never
// returned: a throwing listener must not stop the dispatch it is part of.
func (r *realm) call(fn goja.Callable, this goja.Value, args ...goja.Value) goja.Value {
	if r.released {
		return goja.Undefined()
	}
	v, err := fn(this, args...)
	if err != nil {
		r.report(err)
		return goja.Undefined()
	}
	return v
}

// report logs an uncaught exception and fires error on the window.
func (r *realm) report(err error) {
	var interrupted *goja.InterruptedError
	if r.released || errors.As(err, &interrupted) {
		return
	}
	r.logger.Warn("uncaught exception", zap.Error(err))
	if r.reporting {
		return
	}
	r.reporting = true
	defer func() { r.reporting = false }()
	r.w.DispatchEvent(&dom.Event{Type: "error", Error: err})
}

// throw raises err as a script exception. DOM errors become DOMExceptions.
func (r *realm) throw(err error) {
	panic(r.errorValue(err))
}

func (r *realm) errorValue(err error) goja.Value {
	var de *dom.DOMError
	if errors.As(err, &de) {
		return r.domException(de.Name, de.Message)
	}
	return r.vm.NewGoError(err)
}

func (r *realm) typeError(format string, args ...any) {
	panic(r.vm.NewTypeError(fmt.Sprintf(format, args...)))
}

// class defines a global interface object whose prototype inherits from
// parent. A nil ctor makes the interface abstract.
func (r *realm) class(name string, parent *goja.Object, ctor func(goja.ConstructorCall) *goja.Object) *goja.Object {
	proto := r.vm.NewObject()
	if parent != nil {
		proto.SetPrototype(parent)
	}
	if ctor == nil {
		ctor = func(goja.ConstructorCall) *goja.Object {
			panic(r.vm.NewTypeError("Illegal constructor"))
		}
	}
	c := r.vm.ToValue(ctor).ToObject(r.vm)
	c.Set("prototype", proto)
	proto.DefineDataProperty("constructor", c, goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	r.vm.Set(name, c)
	return proto
}

// accessor defines a property backed by Go functions. A nil set makes it
// read-only.
func (r *realm) accessor(obj *goja.Object, name string, get func(call goja.FunctionCall) goja.Value, set func(call goja.FunctionCall)) {
	var setter goja.Value
	if set != nil {
		setter = r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call)
			return goja.Undefined()
		})
	}
	obj.DefineAccessorProperty(name, r.vm.ToValue(get), setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// hide stores a Go value on obj under a non-enumerable, read-only name.
func (r *realm) hide(obj *goja.Object, name string, v any) {
	obj.DefineDataProperty(name, r.vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
}

func hidden[T any](v goja.Value, name string) (T, bool) {
	var zero T
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return zero, false
	}
	h := obj.Get(name)
	if h == nil {
		return zero, false
	}
	out, ok := h.Export().(T)
	return out, ok
}

func optionalString(v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	return v.String(), true
}

func (r *realm) nullableString(s string, ok bool) goja.Value {
	if !ok {
		return goja.Null()
	}
	return r.vm.ToValue(s)
}
