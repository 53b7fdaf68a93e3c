package dom

import "slices"

// Mutation record types.
const (
	MutationChildList  = "childList"
	MutationAttributes = "attributes"
)

// MutationRecord describes one observed change.
type MutationRecord struct {
	Type            string
	Target          *Node
	AddedNodes      []*Node
	RemovedNodes    []*Node
	PreviousSibling *Node
	NextSibling     *Node
	AttributeName   string
	// OldValue is the attribute's previous value, nil when it did not exist or
	// when old values were not requested.
	OldValue *string
}

// ObserveOptions selects what an observer records. Observation always covers
// the whole subtree under the root.
type ObserveOptions struct {
	ChildList         bool
	Attributes        bool
	AttributeOldValue bool
	// AttributeFilter limits attribute records to these names when non-empty.
	AttributeFilter []string
}

// MutationCallback receives each delivered batch of records.
type MutationCallback func(records []*MutationRecord, observer *MutationObserver)

type observation struct {
	attribute ListenerID
	children  ListenerID
}

// MutationObserver batches attribute and child list changes under its roots
// and delivers them in a microtask.
type MutationObserver struct {
	w         *Window
	cb        MutationCallback
	opts      ObserveOptions
	roots     []*Node
	bound     map[*Node]observation
	records   []*MutationRecord
	scheduled bool
}

// NewMutationObserver creates an observer that delivers on the window's loop.
func (w *Window) NewMutationObserver(cb MutationCallback) *MutationObserver {
	return &MutationObserver{w: w, cb: cb, bound: make(map[*Node]observation)}
}

// Observe starts recording changes under root. nil opts records child list and
// attribute changes. Observing another root extends the set of watched nodes;
// the last options win.
func (o *MutationObserver) Observe(root *Node, opts *ObserveOptions) {
	if root == nil {
		return
	}
	if opts == nil {
		opts = &ObserveOptions{ChildList: true, Attributes: true}
	}
	o.opts = *opts
	if !slices.Contains(o.roots, root) {
		o.roots = append(o.roots, root)
	}
	o.bind(root)
}

// TakeRecords returns and clears the records not yet delivered.
func (o *MutationObserver) TakeRecords() []*MutationRecord {
	out := o.records
	o.records = nil
	return out
}

// Disconnect stops observation and drops undelivered records.
func (o *MutationObserver) Disconnect() {
	for n, obs := range o.bound {
		n.Off(attributeNotification, obs.attribute)
		n.Off(childrenNotification, obs.children)
	}
	clear(o.bound)
	o.roots = nil
	o.records = nil
}

func (o *MutationObserver) bind(root *Node) {
	root.Walk(func(n *Node) bool {
		if n.nodeType != ElementNode && n.nodeType != DocumentNode {
			return true
		}
		if _, ok := o.bound[n]; ok {
			return true
		}
		o.bound[n] = observation{
			attribute: n.On(attributeNotification, o.onAttribute),
			children:  n.On(childrenNotification, o.onChildren),
		}
		return true
	})
}

// unbind drops the bindings under n. Explicitly observed roots, and everything
// under them, stay bound.
func (o *MutationObserver) unbind(n *Node) {
	if slices.Contains(o.roots, n) {
		return
	}
	if obs, ok := o.bound[n]; ok {
		n.Off(attributeNotification, obs.attribute)
		n.Off(childrenNotification, obs.children)
		delete(o.bound, n)
	}
	for _, c := range n.ChildNodes() {
		o.unbind(c)
	}
}

func (o *MutationObserver) onAttribute(ev *Event) {
	change, ok := ev.Detail.(*AttributeChange)
	if !ok || !o.opts.Attributes {
		return
	}
	if len(o.opts.AttributeFilter) > 0 && !slices.Contains(o.opts.AttributeFilter, change.Name) {
		return
	}
	rec := &MutationRecord{
		Type:          MutationAttributes,
		Target:        ev.Target.(*Node),
		AttributeName: change.Name,
	}
	if o.opts.AttributeOldValue && change.OldValue != nil {
		old := *change.OldValue
		rec.OldValue = &old
	}
	o.enqueue(rec)
}

func (o *MutationObserver) onChildren(ev *Event) {
	change, ok := ev.Detail.(*ChildListChange)
	if !ok {
		return
	}
	for _, n := range change.Removed {
		o.unbind(n)
	}
	for _, n := range change.Added {
		o.bind(n)
	}
	if !o.opts.ChildList {
		return
	}
	o.enqueue(&MutationRecord{
		Type:            MutationChildList,
		Target:          ev.Target.(*Node),
		AddedNodes:      change.Added,
		RemovedNodes:    change.Removed,
		PreviousSibling: change.PreviousSibling,
		NextSibling:     change.NextSibling,
	})
}

func (o *MutationObserver) enqueue(rec *MutationRecord) {
	o.records = append(o.records, rec)
	if o.scheduled {
		return
	}
	o.scheduled = true
	o.w.loop.QueueMicrotask(o.deliver)
}

func (o *MutationObserver) deliver() {
	o.scheduled = false
	records := o.TakeRecords()
	if len(records) == 0 {
		return
	}
	o.cb(records, o)
}
