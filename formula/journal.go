package formula

import "slices"

type opKind int

const (
	opAttach opKind = iota
	opDetach
	opReplace
	opInsertText
	opRemoveText
	opAttr
)

// op is a single primitive tree mutation. Every op carries enough state to
// be applied again and to be inverted.
type op struct {
	kind   opKind
	target ID // parent for structural ops, element for text and attributes
	index  int
	child  ID // attached, detached or replaced element
	other  ID // replacement
	text   []rune
	name   string
	old    string
	value  string
	had    bool
	has    bool
}

func (o op) invert() op {
	switch o.kind {
	case opAttach:
		o.kind = opDetach
	case opDetach:
		o.kind = opAttach
	case opReplace:
		o.child, o.other = o.other, o.child
	case opInsertText:
		o.kind = opRemoveText
	case opRemoveText:
		o.kind = opInsertText
	case opAttr:
		o.old, o.value = o.value, o.old
		o.had, o.has = o.has, o.had
	}
	return o
}

// journal accumulates ops while command is executed for the first time.
type journal struct {
	ops []op
}

func (d *Document) record(o op) {
	d.dirty = true
	if d.journal != nil {
		d.journal.ops = append(d.journal.ops, o)
	}
}

// beginJournal starts recording, previous journal (if any) is returned so
// nested recording could be restored by the caller.
func (d *Document) beginJournal() *journal {
	prev := d.journal
	d.journal = &journal{}
	return prev
}

func (d *Document) endJournal(prev *journal) []op {
	j := d.journal
	d.journal = prev
	if j == nil {
		return nil
	}
	return j.ops
}

// replay applies ops in order, or their inverses in reverse order when undo
// is set. Replay is never recorded.
func (d *Document) replay(ops []op, undo bool) {
	saved := d.journal
	d.journal = nil
	defer func() { d.journal = saved }()

	if undo {
		for i := len(ops) - 1; i >= 0; i-- {
			d.apply(ops[i].invert())
		}
		return
	}
	for _, o := range ops {
		d.apply(o)
	}
}

func (d *Document) apply(o op) {
	switch o.kind {
	case opAttach:
		d.attach(o.target, o.index, o.child)
	case opDetach:
		d.detach(o.target, o.index)
	case opReplace:
		d.replace(o.target, o.index, o.other)
	case opInsertText:
		d.insertText(o.target, o.index, o.text)
	case opRemoveText:
		d.removeText(o.target, o.index, o.text)
	case opAttr:
		d.setAttr(o.target, o.name, o.old, o.had, o.value, o.has)
	}
}

// Primitive mutations, arguments are expected to be validated by callers.

func (d *Document) attach(parent ID, index int, child ID) {
	p := d.elems[parent]
	p.children = slices.Insert(p.children, index, child)
	d.elems[child].parent = parent
	d.record(op{kind: opAttach, target: parent, index: index, child: child})
	d.shifted(parent, index, 1)
}

func (d *Document) detach(parent ID, index int) {
	p := d.elems[parent]
	child := p.children[index]
	d.willVanish(child)
	p.children = slices.Delete(p.children, index, index+1)
	d.elems[child].parent = NoID
	d.record(op{kind: opDetach, target: parent, index: index, child: child})
	d.shifted(parent, index, -1)
}

func (d *Document) replace(parent ID, index int, new ID) {
	p := d.elems[parent]
	old := p.children[index]
	d.willVanish(old)
	p.children[index] = new
	d.elems[old].parent = NoID
	d.elems[new].parent = parent
	d.record(op{kind: opReplace, target: parent, index: index, child: old, other: new})
}

func (d *Document) insertText(id ID, pos int, text []rune) {
	e := d.elems[id]
	e.text = slices.Insert(e.text, pos, text...)
	d.record(op{kind: opInsertText, target: id, index: pos, text: slices.Clone(text)})
	d.shifted(id, pos, len(text))
}

func (d *Document) removeText(id ID, pos int, text []rune) {
	e := d.elems[id]
	e.text = slices.Delete(e.text, pos, pos+len(text))
	d.record(op{kind: opRemoveText, target: id, index: pos, text: slices.Clone(text)})
	d.shifted(id, pos, -len(text))
}

func (d *Document) setAttr(id ID, name, old string, had bool, value string, has bool) {
	e := d.elems[id]
	if has {
		if e.attrs == nil {
			e.attrs = make(map[string]string)
		}
		e.attrs[name] = value
	} else {
		delete(e.attrs, name)
	}
	d.record(op{kind: opAttr, target: id, name: name, old: old, had: had, value: value, has: has})
}
