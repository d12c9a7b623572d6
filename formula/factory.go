package formula

import "maps"

// NewElement creates detached element of requested kind. Every fixed slot is
// filled with fresh empty placeholder, table gets single row with single
// entry, square roots, styles, fences and entries hold one placeholder too.
func (d *Document) NewElement(kind Kind) ID {
	id := d.newElement(kind)
	switch {
	case kind.IsFixed():
		for range kind.Arity() {
			d.adopt(id, d.newElement(KindEmpty))
		}
	case kind == KindTable:
		d.adopt(id, d.NewElement(KindTablerow))
	case kind == KindTablerow:
		d.adopt(id, d.NewElement(KindTableentry))
	case kind == KindSqrt, kind == KindStyle, kind == KindFenced, kind == KindTableentry:
		d.adopt(id, d.newElement(KindEmpty))
	}
	return id
}

// NewToken creates detached token with text.
func (d *Document) NewToken(kind Kind, text string) ID {
	if !kind.IsToken() {
		return NoID
	}
	id := d.newElement(kind)
	d.elems[id].text = []rune(text)
	return id
}

// NewUnknown creates detached element which keeps original markup of things
// engine does not understand.
func (d *Document) NewUnknown(tag, raw string) ID {
	id := d.newElement(KindUnknown)
	e := d.elems[id]
	e.tag, e.raw = tag, raw
	return id
}

// CarryGlyph makes detached token the carrier of detached glyph: token tag
// and attributes are kept with the glyph. Token itself is destroyed unless
// a command is being recorded, then it is left detached for undo.
func (d *Document) CarryGlyph(glyph, token ID) bool {
	g, t := d.el(glyph), d.el(token)
	if g == nil || t == nil || g.kind != KindGlyph || !t.kind.IsToken() || g.parent != NoID || t.parent != NoID {
		return false
	}
	g.tag, g.carrier = t.kind.Tag(), maps.Clone(t.attrs)
	if d.journal == nil {
		d.free(token)
	}
	return true
}

// NewBare creates detached element of kind without any children, readers
// fill it themselves.
func (d *Document) NewBare(kind Kind) ID {
	return d.newElement(kind)
}

// NewTable creates detached table with rows x cols empty entries.
func (d *Document) NewTable(rows, cols int) ID {
	rows, cols = max(rows, 1), max(cols, 1)
	t := d.newElement(KindTable)
	for range rows {
		r := d.newElement(KindTablerow)
		for range cols {
			d.adopt(r, d.NewElement(KindTableentry))
		}
		d.adopt(t, r)
	}
	return t
}

// adopt links freshly created elements, nothing is recorded or notified
// since subtree is not attached yet.
func (d *Document) adopt(parent, child ID) {
	d.elems[parent].children = append(d.elems[parent].children, child)
	d.elems[child].parent = parent
}
