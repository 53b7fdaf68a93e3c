package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	batches [][]*MutationRecord
}

func (o *observed) callback(records []*MutationRecord, _ *MutationObserver) {
	o.batches = append(o.batches, records)
}

func (o *observed) all() []*MutationRecord {
	var out []*MutationRecord
	for _, b := range o.batches {
		out = append(out, b...)
	}
	return out
}

func TestMutationObserver_BatchesInOneMicrotask(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="root"></div>`)
	root := doc.GetElementById("root")

	var got observed
	mo := w.NewMutationObserver(got.callback)
	mo.Observe(root.AsNode(), &ObserveOptions{ChildList: true, Attributes: true, AttributeOldValue: true})

	root.SetAttribute("class", "a")
	root.SetAttribute("class", "b")
	child := doc.CreateElement("p")
	_, err := root.AsNode().AppendChild(child.AsNode())
	require.NoError(t, err)
	assert.Empty(t, got.batches, "delivery waits for a microtask")

	drain(t, w)
	require.Len(t, got.batches, 1)
	recs := got.batches[0]
	require.Len(t, recs, 3)

	assert.Equal(t, MutationAttributes, recs[0].Type)
	assert.Equal(t, "class", recs[0].AttributeName)
	assert.Nil(t, recs[0].OldValue)
	require.NotNil(t, recs[1].OldValue)
	assert.Equal(t, "a", *recs[1].OldValue)

	assert.Equal(t, MutationChildList, recs[2].Type)
	assert.Same(t, root.AsNode(), recs[2].Target)
	assert.Equal(t, []*Node{child.AsNode()}, recs[2].AddedNodes)
}

func TestMutationObserver_RebindsAddedSubtrees(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="root"></div>`)
	root := doc.GetElementById("root").AsNode()

	var got observed
	w.NewMutationObserver(got.callback).Observe(root, nil)

	child := doc.CreateElement("section").AsNode()
	_, err := root.AppendChild(child)
	require.NoError(t, err)
	grandchild := doc.CreateElement("article").AsNode()
	_, err = child.AppendChild(grandchild)
	require.NoError(t, err)
	leaf := doc.CreateElement("span").AsNode()
	_, err = grandchild.AppendChild(leaf)
	require.NoError(t, err)
	grandchild.AsElement().SetAttribute("data-x", "1")
	drain(t, w)

	recs := got.all()
	require.Len(t, recs, 4)
	assert.Same(t, grandchild, recs[2].Target)
	assert.Equal(t, []*Node{leaf}, recs[2].AddedNodes)
	assert.Same(t, grandchild, recs[3].Target)
	assert.Equal(t, "data-x", recs[3].AttributeName)
}

func TestMutationObserver_DetachedSubtreesStopReporting(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="root"><p id="p"></p></div>`)
	root := doc.GetElementById("root").AsNode()
	p := doc.GetElementById("p")

	var got observed
	w.NewMutationObserver(got.callback).Observe(root, nil)

	_, err := root.RemoveChild(p.AsNode())
	require.NoError(t, err)
	p.SetAttribute("title", "gone")
	drain(t, w)

	recs := got.all()
	require.Len(t, recs, 1)
	assert.Equal(t, MutationChildList, recs[0].Type)
	assert.Equal(t, []*Node{p.AsNode()}, recs[0].RemovedNodes)
}

func TestMutationObserver_NestedRootSurvivesDetach(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="r"><div id="c"><p id="i"><span id="s"></span></p></div></div>`)
	r := doc.GetElementById("r").AsNode()
	c := doc.GetElementById("c")
	i := doc.GetElementById("i")
	span := doc.GetElementById("s")

	var got observed
	mo := w.NewMutationObserver(got.callback)
	mo.Observe(r, nil)
	mo.Observe(i.AsNode(), nil)

	_, err := r.RemoveChild(c.AsNode())
	require.NoError(t, err)
	c.SetAttribute("x", "1")
	i.SetAttribute("x", "1")
	span.SetAttribute("x", "1")
	drain(t, w)

	recs := got.all()
	require.Len(t, recs, 3)
	assert.Equal(t, MutationChildList, recs[0].Type)
	assert.Equal(t, []*Node{c.AsNode()}, recs[0].RemovedNodes)
	assert.Same(t, i.AsNode(), recs[1].Target)
	assert.Equal(t, "x", recs[1].AttributeName)
	assert.Same(t, span.AsNode(), recs[2].Target)
}

func TestMutationObserver_AttributeFilter(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="root"></div>`)
	root := doc.GetElementById("root")

	var got observed
	w.NewMutationObserver(got.callback).Observe(root.AsNode(), &ObserveOptions{
		Attributes:      true,
		AttributeFilter: []string{"title"},
	})

	root.SetAttribute("class", "ignored")
	root.SetAttribute("title", "kept")
	_, err := root.AsNode().AppendChild(doc.CreateTextNode("no child list"))
	require.NoError(t, err)
	drain(t, w)

	recs := got.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "title", recs[0].AttributeName)
	assert.Nil(t, recs[0].OldValue)
}

func TestMutationObserver_TakeRecordsAndDisconnect(t *testing.T) {
	w, _ := newTestWindow(t, nil)
	doc := load(t, w, `<div id="root"></div>`)
	root := doc.GetElementById("root")

	var got observed
	mo := w.NewMutationObserver(got.callback)
	mo.Observe(root.AsNode(), nil)

	root.SetAttribute("a", "1")
	taken := mo.TakeRecords()
	require.Len(t, taken, 1)
	assert.Empty(t, mo.TakeRecords())

	root.SetAttribute("a", "2")
	mo.Disconnect()
	root.SetAttribute("a", "3")
	drain(t, w)

	assert.Empty(t, got.batches)
	assert.Zero(t, root.AsNode().ListenerCount(attributeNotification))
	assert.Zero(t, root.AsNode().ListenerCount(childrenNotification))
}
