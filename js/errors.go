package js

import "github.com/dop251/goja"

// legacyCodes maps DOMException names to their historical numeric codes.
var legacyCodes = map[string]int{
	"IndexSizeError":             1,
	"HierarchyRequestError":      3,
	"WrongDocumentError":         4,
	"InvalidCharacterError":      5,
	"NoModificationAllowedError": 7,
	"NotFoundError":              8,
	"NotSupportedError":          9,
	"InvalidStateError":          11,
	"SyntaxError":                12,
	"InvalidModificationError":   13,
	"NamespaceError":             14,
	"InvalidAccessError":         15,
	"SecurityError":              18,
	"NetworkError":               19,
	"AbortError":                 20,
	"QuotaExceededError":         22,
	"TimeoutError":               23,
	"DataCloneError":             25,
}

func (r *realm) installErrors() {
	errorProto := r.vm.Get("Error").ToObject(r.vm).Get("prototype").ToObject(r.vm)
	r.protos.domException = r.class("DOMException", errorProto, func(call goja.ConstructorCall) *goja.Object {
		message, name := "", "Error"
		if s, ok := optionalString(call.Argument(0)); ok {
			message = s
		}
		if s, ok := optionalString(call.Argument(1)); ok {
			name = s
		}
		call.This.Set("message", message)
		call.This.Set("name", name)
		call.This.Set("code", legacyCodes[name])
		return call.This
	})
}

// domException builds new DOMException(message, name).
func (r *realm) domException(name, message string) goja.Value {
	exc := r.vm.NewObject()
	exc.SetPrototype(r.protos.domException)
	exc.Set("message", message)
	exc.Set("name", name)
	exc.Set("code", legacyCodes[name])
	return exc
}
