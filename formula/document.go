package formula

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Observer is notified synchronously about structural changes. WillVanish is
// called before element (and with it the whole subtree) is detached from the
// tree, Shifted after positions inside host moved by delta starting at index.
type Observer interface {
	WillVanish(id ID)
	Shifted(host ID, index, delta int)
}

// Document owns element arena and formula root. It is not safe for
// concurrent use.
type Document struct {
	UUID     uuid.UUID
	ReadOnly bool
	// Annotations keeps raw markup of semantics annotations so writer can
	// re-wrap formula on save.
	Annotations []string

	log       *zap.Logger
	elems     []*Element
	root      ID
	observers []Observer
	journal   *journal
	dirty     bool
}

// NewDocument creates document with formula root holding single empty
// placeholder.
func NewDocument(log *zap.Logger) *Document {
	d := NewBlankDocument(log)
	d.AppendChild(d.root, d.newElement(KindEmpty))
	return d
}

// NewBlankDocument creates document with formula root and no content. It is
// used by readers which build the tree themselves.
func NewBlankDocument(log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Document{
		UUID: uuid.New(),
		log:  log.Named("formula"),
	}
	d.root = d.newElement(KindFormula)
	d.dirty = true
	return d
}

func (d *Document) Log() *zap.Logger { return d.log }

// Root returns formula root element id.
func (d *Document) Root() ID { return d.root }

// Dirty reports whether tree was mutated since last layout.
func (d *Document) Dirty() bool { return d.dirty }

// Element returns element by id or nil if id does not address live element.
func (d *Document) Element(id ID) *Element {
	if id < 0 || int(id) >= len(d.elems) {
		return nil
	}
	return d.elems[id]
}

func (d *Document) el(id ID) *Element {
	return d.Element(id)
}

// Kind returns element kind, KindUnknown for invalid ids.
func (d *Document) Kind(id ID) Kind {
	if e := d.el(id); e != nil {
		return e.kind
	}
	return KindUnknown
}

// Parent returns parent id or NoID.
func (d *Document) Parent(id ID) ID {
	if e := d.el(id); e != nil {
		return e.parent
	}
	return NoID
}

// ChildElements returns direct children in variant order.
func (d *Document) ChildElements(id ID) []ID {
	if e := d.el(id); e != nil {
		return e.Children()
	}
	return nil
}

// IndexOf returns position of element among its parent's children, -1 for
// root and detached elements.
func (d *Document) IndexOf(id ID) int {
	e := d.el(id)
	if e == nil || e.parent == NoID {
		return -1
	}
	return d.elems[e.parent].indexOf(id)
}

// Length returns number of internal cursor stops minus one: rune count for
// tokens, child count for variable content and 0 for everything else.
func (d *Document) Length(id ID) int {
	e := d.el(id)
	if e == nil {
		return 0
	}
	switch {
	case e.kind.IsToken():
		return len(e.text)
	case e.kind.IsVariable():
		return len(e.children)
	}
	return 0
}

// IsAncestor reports whether a is ancestor of b or b itself.
func (d *Document) IsAncestor(a, b ID) bool {
	for id := b; id != NoID; id = d.Parent(id) {
		if id == a {
			return true
		}
	}
	return false
}

// Attached reports whether element is reachable from the formula root.
func (d *Document) Attached(id ID) bool {
	return d.el(id) != nil && d.IsAncestor(d.root, id)
}

// Depth returns number of ancestors of element.
func (d *Document) Depth(id ID) int {
	n := 0
	for p := d.Parent(id); p != NoID; p = d.Parent(p) {
		n++
	}
	return n
}

// Register adds observer to be notified about structural changes.
func (d *Document) Register(o Observer) {
	if !slices.Contains(d.observers, o) {
		d.observers = append(d.observers, o)
	}
}

// Unregister removes observer.
func (d *Document) Unregister(o Observer) {
	d.observers = slices.DeleteFunc(d.observers, func(x Observer) bool { return x == o })
}

func (d *Document) willVanish(id ID) {
	for _, o := range d.observers {
		o.WillVanish(id)
	}
}

func (d *Document) shifted(host ID, index, delta int) {
	for _, o := range d.observers {
		o.Shifted(host, index, delta)
	}
}

func (d *Document) newElement(kind Kind) ID {
	id := ID(len(d.elems))
	d.elems = append(d.elems, &Element{
		id:          id,
		kind:        kind,
		parent:      NoID,
		baseline:    NoBaseline,
		scaleFactor: 1,
	})
	return id
}

// accepts reports whether element of kind child may be placed directly
// under element of kind parent.
func accepts(parent, child Kind) bool {
	switch child {
	case KindFormula:
		return false
	case KindTablerow:
		return parent == KindTable
	case KindTableentry:
		return parent == KindTablerow
	}
	switch parent {
	case KindTable, KindTablerow:
		return false
	}
	return !parent.IsToken() && parent.Arity() != 0
}

func (d *Document) canAdopt(parent, child ID) bool {
	p, c := d.el(parent), d.el(child)
	if p == nil || c == nil || c.parent != NoID || child == d.root {
		return false
	}
	if d.IsAncestor(child, parent) {
		return false
	}
	return accepts(p.kind, c.kind)
}

// InsertChild inserts detached element at position. Only inferred rows,
// tables and table rows accept insertion.
func (d *Document) InsertChild(parent ID, pos int, child ID) bool {
	p := d.el(parent)
	if p == nil || !p.kind.IsVariable() {
		return false
	}
	if pos < 0 || pos > len(p.children) || !d.canAdopt(parent, child) {
		return false
	}
	d.attach(parent, pos, child)
	return true
}

// AppendChild adds detached element as the last child. Fixed arity elements
// accept children until all slots are taken, this is used while building
// tree from external representation.
func (d *Document) AppendChild(parent ID, child ID) bool {
	p := d.el(parent)
	if p == nil {
		return false
	}
	if p.kind.IsFixed() && len(p.children) >= p.kind.Arity() {
		return false
	}
	if !d.canAdopt(parent, child) {
		return false
	}
	d.attach(parent, len(p.children), child)
	return true
}

// ReplaceChild puts detached element new in place of direct child old. Old
// element becomes detached, observers are told before that.
func (d *Document) ReplaceChild(old, new ID) bool {
	o := d.el(old)
	if o == nil || o.parent == NoID || old == new {
		return false
	}
	if !d.canAdopt(o.parent, new) {
		return false
	}
	d.replace(o.parent, d.elems[o.parent].indexOf(old), new)
	return true
}

// RemoveChild detaches direct child of variable arity element.
func (d *Document) RemoveChild(parent, child ID) bool {
	p := d.el(parent)
	if p == nil || !p.kind.IsVariable() {
		return false
	}
	i := p.indexOf(child)
	if i < 0 {
		return false
	}
	d.detach(parent, i)
	return true
}

// InsertText inserts characters into token at rune position.
func (d *Document) InsertText(id ID, pos int, text string) bool {
	e := d.el(id)
	if e == nil || !e.kind.IsToken() || text == "" {
		return false
	}
	if pos < 0 || pos > len(e.text) {
		return false
	}
	d.insertText(id, pos, []rune(text))
	return true
}

// RemoveText removes n characters from token starting at rune position and
// returns removed text.
func (d *Document) RemoveText(id ID, pos, n int) (string, bool) {
	e := d.el(id)
	if e == nil || !e.kind.IsToken() || n <= 0 {
		return "", false
	}
	if pos < 0 || pos+n > len(e.text) {
		return "", false
	}
	removed := slices.Clone(e.text[pos : pos+n])
	d.removeText(id, pos, removed)
	return string(removed), true
}

// SetText replaces whole token text.
func (d *Document) SetText(id ID, text string) bool {
	e := d.el(id)
	if e == nil || !e.kind.IsToken() {
		return false
	}
	if string(e.text) == text {
		return false
	}
	if len(e.text) > 0 {
		d.removeText(id, 0, slices.Clone(e.text))
	}
	if text != "" {
		d.insertText(id, 0, []rune(text))
	}
	return true
}

// SetAttribute stores attribute on element. It reports false when nothing
// has changed.
func (d *Document) SetAttribute(id ID, name, value string) bool {
	e := d.el(id)
	if e == nil || name == "" {
		return false
	}
	old, had := e.attrs[name]
	if had && old == value {
		return false
	}
	d.setAttr(id, name, old, had, value, true)
	return true
}

// RemoveAttribute deletes attribute from element.
func (d *Document) RemoveAttribute(id ID, name string) bool {
	e := d.el(id)
	if e == nil {
		return false
	}
	old, had := e.attrs[name]
	if !had {
		return false
	}
	d.setAttr(id, name, old, true, "", false)
	return true
}

// Destroy frees detached subtree. The ids become invalid.
func (d *Document) Destroy(id ID) bool {
	e := d.el(id)
	if e == nil || e.parent != NoID || id == d.root {
		return false
	}
	d.free(id)
	return true
}

func (d *Document) free(id ID) {
	e := d.elems[id]
	for _, c := range e.children {
		d.free(c)
	}
	d.elems[id] = nil
}

// Sweep frees every element which is not reachable from the root. Must not
// be called while undo history holds commands referencing detached
// elements.
func (d *Document) Sweep() int {
	live := make([]bool, len(d.elems))
	var mark func(ID)
	mark = func(id ID) {
		live[id] = true
		for _, c := range d.elems[id].children {
			mark(c)
		}
	}
	mark(d.root)
	n := 0
	for i, e := range d.elems {
		if e != nil && !live[i] {
			d.elems[i] = nil
			n++
		}
	}
	return n
}

// Clone makes detached deep copy of element subtree, layout state is not
// copied.
func (d *Document) Clone(id ID) ID {
	e := d.el(id)
	if e == nil {
		return NoID
	}
	nid := d.newElement(e.kind)
	n := d.elems[nid]
	n.attrs = e.Attrs()
	n.text = slices.Clone(e.text)
	n.raw, n.tag = e.raw, e.tag
	n.carrier = maps.Clone(e.carrier)
	for _, c := range e.children {
		cc := d.Clone(c)
		d.elems[cc].parent = nid
		n.children = append(n.children, cc)
	}
	return nid
}

// Walk visits subtree in pre-order. Returning false from fn skips element's
// children.
func (d *Document) Walk(id ID, fn func(e *Element, depth int) bool) {
	d.walk(id, 0, fn)
}

func (d *Document) walk(id ID, depth int, fn func(e *Element, depth int) bool) {
	e := d.el(id)
	if e == nil || !fn(e, depth) {
		return
	}
	for _, c := range e.children {
		d.walk(c, depth+1, fn)
	}
}

// layout epsilon used when comparing boxes
const eps = 1e-6

// Check walks tree verifying structural invariants: parent back references,
// fixed arity, allowed nesting and, if layout is current, that children fit
// into parent box. All problems are reported together.
func (d *Document) Check() error {
	var err error
	root := d.el(d.root)
	if root == nil {
		return fmt.Errorf("document has no root")
	}
	if root.parent != NoID {
		err = multierr.Append(err, fmt.Errorf("root %d has parent %d", d.root, root.parent))
	}
	d.Walk(d.root, func(e *Element, _ int) bool {
		if a := e.kind.Arity(); a > 0 && len(e.children) != a {
			err = multierr.Append(err, fmt.Errorf("%s %d has %d children, expected %d", e.kind, e.id, len(e.children), a))
		}
		if (e.kind.IsToken() || e.kind.Arity() == 0) && len(e.children) > 0 {
			err = multierr.Append(err, fmt.Errorf("%s %d must not have children", e.kind, e.id))
		}
		for _, c := range e.children {
			ce := d.el(c)
			if ce == nil {
				err = multierr.Append(err, fmt.Errorf("%s %d refers to freed child %d", e.kind, e.id, c))
				continue
			}
			if ce.parent != e.id {
				err = multierr.Append(err, fmt.Errorf("%s %d has parent %d, owned by %d", ce.kind, c, ce.parent, e.id))
			}
			if !accepts(e.kind, ce.kind) {
				err = multierr.Append(err, fmt.Errorf("%s %d is not allowed inside %s %d", ce.kind, c, e.kind, e.id))
			}
		}
		if !d.dirty && len(e.children) > 0 {
			cb := e.childrenBox
			if cb.Bottom() > e.height+eps || cb.Right() > e.width+eps {
				err = multierr.Append(err, fmt.Errorf("%s %d children box %.3fx%.3f exceeds %.3fx%.3f",
					e.kind, e.id, cb.Right(), cb.Bottom(), e.width, e.height))
			}
		}
		return true
	})
	return err
}
