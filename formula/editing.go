package formula

import (
	"slices"
	"strings"
	"unicode"
)

// characters typed as operators
const operatorChars = "*+-=<>!./?,:"

// classify picks token kind for typed text by its first non space
// character.
func classify(text string) Kind {
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsDigit(r):
			return KindNumber
		case strings.ContainsRune(operatorChars, r):
			return KindOperator
		case unicode.IsLetter(r):
			return KindIdentifier
		}
		return KindOperator
	}
	return KindUnknown
}

func (c *Cursor) writable() bool {
	return !c.doc.ReadOnly && c.IsValid()
}

// InsertText types text at cursor. Text goes into the token cursor is in
// when its kind matches, otherwise new token is created. Selection is
// replaced.
func (c *Cursor) InsertText(text string) bool {
	if !c.writable() || strings.TrimSpace(text) == "" {
		return false
	}
	d := c.doc
	if d.Kind(c.host) != KindText {
		// only text tokens keep surrounding spaces
		text = strings.TrimSpace(text)
	}
	kind := classify(text)
	if c.HasSelection() {
		c.RemoveSelection()
	}
	c.selecting = false
	n := len([]rune(text))

	switch hk := d.Kind(c.host); {
	case hk.IsToken():
		if hk == KindText || hk == kind {
			if !d.InsertText(c.host, c.pos, text) {
				return false
			}
			c.set(c.host, c.pos+n)
			return true
		}
		tok := d.NewToken(kind, text)
		if !c.InsertElements([]ID{tok}) {
			return false
		}
		c.set(tok, n)
		return true

	case hk == KindEmpty:
		tok := d.NewToken(kind, text)
		if !d.ReplaceChild(c.host, tok) {
			return false
		}
		c.set(tok, n)
		return true

	case hk.IsInferredRow():
		c.dropPlaceholders()
		children := d.elems[c.host].children
		if c.pos > 0 {
			if prev := children[c.pos-1]; d.Kind(prev) == kind {
				at := d.Length(prev)
				d.InsertText(prev, at, text)
				c.set(prev, at+n)
				return true
			}
		}
		if c.pos < len(children) {
			if next := children[c.pos]; d.Kind(next) == kind {
				d.InsertText(next, 0, text)
				c.set(next, n)
				return true
			}
		}
		tok := d.NewToken(kind, text)
		if !d.InsertChild(c.host, c.pos, tok) {
			return false
		}
		c.set(tok, n)
		return true
	}
	return false
}

// dropPlaceholders removes placeholders on both sides of the cursor gap in
// a row, content put into the gap takes their place.
func (c *Cursor) dropPlaceholders() {
	d := c.doc
	for _, at := range []int{c.pos, c.pos - 1} {
		children := d.elems[c.host].children
		if at >= 0 && at < len(children) && d.Kind(children[at]) == KindEmpty {
			d.RemoveChild(c.host, children[at])
		}
	}
}

func (c *Cursor) set(host ID, pos int) {
	c.host, c.pos, c.selStart = host, pos, pos
	c.selecting = false
}

// InsertElement inserts detached element at cursor.
func (c *Cursor) InsertElement(id ID) bool {
	return c.InsertElements([]ID{id})
}

// InsertElements inserts list of detached siblings at cursor. Placeholder
// under cursor is replaced, tokens are split. Afterwards cursor goes into
// the first placeholder of inserted content or after it.
func (c *Cursor) InsertElements(ids []ID) bool {
	if !c.writable() || len(ids) == 0 {
		return false
	}
	d := c.doc
	for _, id := range ids {
		e := d.el(id)
		if e == nil || e.parent != NoID || id == d.root || e.kind == KindTablerow || e.kind == KindTableentry {
			return false
		}
	}
	if c.HasSelection() {
		c.RemoveSelection()
	}
	c.selecting = false

	host, pos := c.host, c.pos
	switch hk := d.Kind(host); {
	case hk == KindEmpty:
		parent := d.Parent(host)
		if d.Kind(parent).IsInferredRow() {
			idx := d.IndexOf(host)
			d.ReplaceChild(host, ids[0])
			for i, id := range ids[1:] {
				d.InsertChild(parent, idx+1+i, id)
			}
		} else {
			target := ids[0]
			if len(ids) > 1 {
				target = d.NewBare(KindRow)
				for _, id := range ids {
					d.AppendChild(target, id)
				}
			}
			d.ReplaceChild(host, target)
		}
	case hk.IsToken():
		h, p, ok := c.splitAt(host, pos)
		if !ok {
			return false
		}
		for i, id := range ids {
			d.InsertChild(h, p+i, id)
		}
	case hk.IsInferredRow():
		c.dropPlaceholders()
		pos = c.pos
		for i, id := range ids {
			if !d.InsertChild(host, pos+i, id) {
				return false
			}
		}
	default:
		return false
	}
	c.placeAfterInsert(ids)
	return true
}

// placeAfterInsert puts cursor into the first placeholder of inserted
// elements, or right after the last of them.
func (c *Cursor) placeAfterInsert(ids []ID) {
	d := c.doc
	for _, id := range ids {
		var found ID = NoID
		d.Walk(id, func(e *Element, _ int) bool {
			if found != NoID {
				return false
			}
			if e.kind == KindEmpty {
				found = e.id
				return false
			}
			return true
		})
		if found != NoID {
			c.set(found, 0)
			return
		}
	}
	last := ids[len(ids)-1]
	if p := d.Parent(last); d.Kind(p).IsInferredRow() {
		c.set(p, d.IndexOf(last)+1)
		return
	}
	if h, p, ok := d.enter(last, DirectionLeft); ok {
		c.set(h, p)
		return
	}
	c.WillVanish(last)
}

// SplitToken splits token cursor is in at cursor offset and places cursor
// between the halves.
func (c *Cursor) SplitToken() bool {
	if !c.writable() || !c.InsideToken() {
		return false
	}
	n := c.doc.Length(c.host)
	if c.pos <= 0 || c.pos >= n {
		return false
	}
	h, p, ok := c.splitAt(c.host, c.pos)
	if !ok {
		return false
	}
	c.set(h, p)
	return true
}

// splitAt turns position inside token into row position, splitting token
// into two siblings of the same kind and attributes. Token which is not
// inside of row is wrapped into new row first.
func (c *Cursor) splitAt(tok ID, pos int) (ID, int, bool) {
	d := c.doc
	parent := d.Parent(tok)
	if parent == NoID {
		return NoID, 0, false
	}
	if !d.Kind(parent).IsInferredRow() {
		row := d.NewBare(KindRow)
		if !d.ReplaceChild(tok, row) {
			return NoID, 0, false
		}
		d.AppendChild(row, tok)
		parent = row
	}
	idx := d.IndexOf(tok)
	n := d.Length(tok)
	switch {
	case pos <= 0:
		return parent, idx, true
	case pos >= n:
		return parent, idx + 1, true
	}
	right := d.Clone(tok)
	d.SetText(right, string(d.elems[tok].text[pos:]))
	d.RemoveText(tok, pos, n-pos)
	d.InsertChild(parent, idx+1, right)
	return parent, idx + 1, true
}

// InsertData inserts new element named by MathML tag. "mtd" adds table
// column and "mtr" adds table row next to the cursor entry.
func (c *Cursor) InsertData(keyword string) bool {
	if !c.writable() {
		return false
	}
	keyword = strings.TrimSpace(keyword)
	switch keyword {
	case "mtd":
		return c.addTableColumn()
	case "mtr":
		return c.addTableRow()
	}
	kind, ok := KindFromTag(keyword)
	if !ok || kind == KindFormula {
		return false
	}
	d := c.doc
	var id ID
	switch {
	case kind.IsToken():
		// empty token takes typed characters
		id = d.NewToken(kind, "")
		if !c.InsertElements([]ID{id}) {
			return false
		}
		c.set(id, 0)
		return true
	case kind == KindTable:
		id = d.NewTable(2, 2)
	default:
		id = d.NewElement(kind)
	}
	return c.InsertElements([]ID{id})
}

// enclosingEntry returns table entry cursor is in, its row and table.
func (c *Cursor) enclosingEntry() (entry, row, table ID) {
	d := c.doc
	for id := c.host; id != NoID; id = d.Parent(id) {
		if d.Kind(id) == KindTableentry {
			row = d.Parent(id)
			table = d.Parent(row)
			if d.Kind(row) == KindTablerow && d.Kind(table) == KindTable {
				return id, row, table
			}
		}
	}
	return NoID, NoID, NoID
}

func (c *Cursor) addTableColumn() bool {
	d := c.doc
	entry, row, table := c.enclosingEntry()
	if entry == NoID {
		return false
	}
	col := d.IndexOf(entry) + 1
	var target ID = NoID
	for _, r := range d.elems[table].children {
		ne := d.NewElement(KindTableentry)
		d.InsertChild(r, min(col, d.Length(r)), ne)
		if r == row {
			target = ne
		}
	}
	c.set(d.elems[target].children[0], 0)
	return true
}

func (c *Cursor) addTableRow() bool {
	d := c.doc
	_, row, table := c.enclosingEntry()
	if row == NoID {
		return false
	}
	cols := 0
	for _, r := range d.elems[table].children {
		cols = max(cols, d.Length(r))
	}
	nr := d.NewBare(KindTablerow)
	for range max(cols, 1) {
		d.AppendChild(nr, d.NewElement(KindTableentry))
	}
	d.InsertChild(table, d.IndexOf(row)+1, nr)
	first := d.elems[nr].children[0]
	c.set(d.elems[first].children[0], 0)
	return true
}

// RemoveSelection removes selected content.
func (c *Cursor) RemoveSelection() bool {
	if !c.writable() || !c.HasSelection() {
		return false
	}
	d := c.doc
	host, from, to := c.Selection()
	c.selecting = false
	switch {
	case d.Kind(host).IsToken():
		d.RemoveText(host, from, to-from)
		c.set(host, from)
	case d.Kind(host).IsInferredRow():
		for range to - from {
			d.RemoveChild(host, d.elems[host].children[from])
		}
		c.set(host, from)
	default:
		return false
	}
	c.cleanup()
	return true
}

// Remove deletes character or element before (backspace) or after the
// cursor and restores structure afterwards.
func (c *Cursor) Remove(backspace bool) bool {
	if !c.writable() {
		return false
	}
	if c.HasSelection() {
		return c.RemoveSelection()
	}
	c.selecting = false
	d := c.doc

	host, pos := c.host, c.pos
	switch hk := d.Kind(host); {
	case hk.IsToken():
		n := d.Length(host)
		switch {
		case backspace && pos > 0:
			d.RemoveText(host, pos-1, 1)
			c.set(host, pos-1)
		case !backspace && pos < n:
			d.RemoveText(host, pos, 1)
			c.set(host, pos)
		default:
			parent := d.Parent(host)
			if !d.Kind(parent).IsInferredRow() {
				return false
			}
			h, p := d.normalize(host, pos)
			c.set(h, p)
			return c.Remove(backspace)
		}
		c.cleanup()
		return true

	case hk == KindEmpty:
		return c.removePlaceholder()

	case hk.IsInferredRow():
		children := d.elems[host].children
		var target ID
		switch {
		case backspace && pos > 0:
			target = children[pos-1]
		case !backspace && pos < len(children):
			target = children[pos]
		case len(children) == 0 && host != d.root:
			return c.removeContainer(host)
		default:
			return false
		}
		if d.Kind(target).IsToken() && d.Length(target) > 1 {
			// eat one character of adjacent token
			if backspace {
				d.RemoveText(target, d.Length(target)-1, 1)
				c.set(host, d.IndexOf(target)+1)
			} else {
				d.RemoveText(target, 0, 1)
				c.set(host, d.IndexOf(target))
			}
			return true
		}
		idx := d.IndexOf(target)
		d.RemoveChild(host, target)
		c.set(host, idx)
		c.cleanup()
		return true
	}
	return false
}

// enclosingKind reports kinds which could be removed keeping their main
// content.
func enclosingKind(k Kind) bool {
	return k.IsFixed() || k == KindSqrt || k == KindFenced || k == KindStyle
}

// detachContent takes children out of variable element, placeholders are
// dropped.
func (d *Document) detachContent(id ID) []ID {
	var items []ID
	for _, child := range slices.Clone(d.elems[id].children) {
		d.RemoveChild(id, child)
		if d.Kind(child) != KindEmpty {
			items = append(items, child)
		}
	}
	return items
}

// RemoveEnclosing replaces the closest element enclosing cursor (fraction,
// root, scripts, fence or style) with its main content: numerator,
// radicand, base or children. Content of other slots is lost. Cursor goes
// right after the kept content.
func (c *Cursor) RemoveEnclosing() bool {
	if !c.writable() || c.HasSelection() {
		return false
	}
	d := c.doc
	enc := d.Parent(c.host)
	if d.Kind(c.host).IsInferredRow() && enclosingKind(d.Kind(c.host)) {
		enc = c.host
	}
	for enc != NoID && !enclosingKind(d.Kind(enc)) {
		enc = d.Parent(enc)
	}
	if enc == NoID || d.Parent(enc) == NoID {
		return false
	}

	var items []ID
	if d.Kind(enc).IsFixed() {
		// main child always takes the first slot
		main := d.elems[enc].children[0]
		if d.Kind(main) != KindEmpty {
			d.ReplaceChild(main, d.newElement(KindEmpty))
			items = []ID{main}
			if d.Kind(main) == KindRow {
				items = d.detachContent(main)
			}
		}
	} else {
		items = d.detachContent(enc)
	}

	parent := d.Parent(enc)
	if d.Kind(parent).IsInferredRow() {
		idx := d.IndexOf(enc)
		d.RemoveChild(parent, enc)
		for i, id := range items {
			d.InsertChild(parent, idx+i, id)
		}
		c.set(parent, idx+len(items))
		c.cleanup()
		return true
	}

	var target ID
	switch len(items) {
	case 0:
		target = d.newElement(KindEmpty)
	case 1:
		target = items[0]
	default:
		target = d.NewBare(KindRow)
		for _, id := range items {
			d.AppendChild(target, id)
		}
	}
	d.ReplaceChild(enc, target)
	switch {
	case d.Kind(target) == KindEmpty:
		c.set(target, 0)
	case isHost(d, target):
		c.set(target, d.Length(target))
	default:
		if h, p, ok := d.enter(target, DirectionLeft); ok {
			c.set(h, p)
		}
	}
	return true
}

// removePlaceholder handles removal at empty placeholder: when all its
// siblings are placeholders too, the parent goes away, placeholder inside
// row is simply removed.
func (c *Cursor) removePlaceholder() bool {
	d := c.doc
	host := c.host
	parent := d.Parent(host)
	if parent == NoID {
		return false
	}
	allEmpty := true
	for _, s := range d.elems[parent].children {
		if d.Kind(s) != KindEmpty {
			allEmpty = false
		}
	}
	if allEmpty && parent != d.root {
		return c.removeContainer(parent)
	}
	if d.Kind(parent).IsInferredRow() {
		idx := d.IndexOf(host)
		d.RemoveChild(parent, host)
		c.set(parent, idx)
		c.cleanup()
		return true
	}
	return false
}

// removeContainer removes element whose content is gone.
func (c *Cursor) removeContainer(id ID) bool {
	d := c.doc
	parent := d.Parent(id)
	if parent == NoID {
		return false
	}
	switch {
	case d.Kind(id) == KindTableentry:
		// entries are removed with table only
		_, _, table := c.enclosingEntry()
		if table == NoID {
			return false
		}
		return c.removeContainer(table)
	case d.Kind(parent).IsInferredRow():
		idx := d.IndexOf(id)
		d.RemoveChild(parent, id)
		c.set(parent, idx)
		c.cleanup()
	default:
		ph := d.newElement(KindEmpty)
		d.ReplaceChild(id, ph)
		c.set(ph, 0)
	}
	return true
}

// cleanup restores structural invariants around cursor after removal:
// empty tokens are removed, empty fixed slots get placeholder, redundant
// rows are collapsed.
func (c *Cursor) cleanup() {
	d := c.doc
	for {
		host := c.host
		parent := d.Parent(host)
		if parent == NoID {
			return
		}
		hk, pk := d.Kind(host), d.Kind(parent)
		n := d.Length(host)
		switch {
		case hk.IsToken() && n == 0:
			if pk.IsInferredRow() {
				idx := d.IndexOf(host)
				d.RemoveChild(parent, host)
				c.set(parent, idx)
				continue
			}
			ph := d.newElement(KindEmpty)
			d.ReplaceChild(host, ph)
			c.set(ph, 0)
			return

		case hk == KindRow && n == 0:
			if pk.IsInferredRow() {
				idx := d.IndexOf(host)
				d.RemoveChild(parent, host)
				c.set(parent, idx)
				continue
			}
			ph := d.newElement(KindEmpty)
			d.ReplaceChild(host, ph)
			c.set(ph, 0)
			return

		case hk == KindRow && n == 1 && pk.IsInferredRow():
			child := d.elems[host].children[0]
			idx := d.IndexOf(host)
			pos := c.pos
			d.RemoveChild(host, child)
			d.ReplaceChild(host, child)
			c.set(parent, idx+pos)
			continue

		case hk == KindRow && n == 1 && d.Kind(d.elems[host].children[0]).IsToken():
			child := d.elems[host].children[0]
			pos := c.pos
			d.RemoveChild(host, child)
			d.ReplaceChild(host, child)
			if pos == 0 {
				c.set(child, 0)
			} else {
				c.set(child, d.Length(child))
			}
			return
		}
		return
	}
}
