package dom

// Internal notification names. They are emitted directly on the node that
// changed and never bubble.
const (
	attributeNotification = "attribute"
	childrenNotification  = "children"
)

// EventTarget is anything events can be dispatched to: nodes and windows.
type EventTarget interface {
	DispatchEvent(ev *Event) bool
}

// Event is a DOM event. The same value is handed to every listener along the
// bubble path, so listeners can stop it or prevent its default.
type Event struct {
	Type          string
	Target        EventTarget
	CurrentTarget EventTarget

	// Detail carries the payload of internal notifications (*AttributeChange,
	// *ChildListChange) and of custom events.
	Detail any
	// Error is set on error events.
	Error error
	// Data is the payload of message events.
	Data any
	// URL and State describe popstate, hashchange and navigate events.
	URL   string
	State any

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// PreventDefault marks the event as canceled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from reaching further ancestors. Listeners
// already registered on the current target still run.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// Listener handles an event.
type Listener func(ev *Event)

// ListenerID identifies a subscription for Off.
type ListenerID uint64

type subscription struct {
	id   ListenerID
	fn   Listener
	once bool
}

// Emitter is the event capability shared by every node and window. The zero
// value is ready to use.
type Emitter struct {
	listeners map[string][]subscription
	nextID    ListenerID
}

// On subscribes fn to events of type typ.
func (e *Emitter) On(typ string, fn Listener) ListenerID {
	return e.add(typ, fn, false)
}

// Once subscribes fn for a single event of type typ.
func (e *Emitter) Once(typ string, fn Listener) ListenerID {
	return e.add(typ, fn, true)
}

func (e *Emitter) add(typ string, fn Listener, once bool) ListenerID {
	if e.listeners == nil {
		e.listeners = make(map[string][]subscription)
	}
	e.nextID++
	e.listeners[typ] = append(e.listeners[typ], subscription{id: e.nextID, fn: fn, once: once})
	return e.nextID
}

// Off removes the subscription id from typ. Unknown ids are ignored.
func (e *Emitter) Off(typ string, id ListenerID) {
	subs := e.listeners[typ]
	for i, s := range subs {
		if s.id == id {
			e.listeners[typ] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.listeners[typ]) == 0 {
		delete(e.listeners, typ)
	}
}

// ListenerCount returns the number of subscriptions for typ.
func (e *Emitter) ListenerCount(typ string) int {
	return len(e.listeners[typ])
}

// Emit runs the listeners registered for ev.Type, in registration order.
// Listeners added while emitting do not see this event.
func (e *Emitter) Emit(ev *Event) {
	subs := e.listeners[ev.Type]
	if len(subs) == 0 {
		return
	}
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		if s.once {
			e.Off(ev.Type, s.id)
		}
		s.fn(ev)
	}
}
