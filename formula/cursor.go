package formula

import (
	"math"
)

// Cursor is an editing position inside document: host element and offset
// in it. Hosts are inferred rows (offset between children), tokens (offset
// between characters) and empty placeholders (offset 0). While selecting,
// selection spans offsets between anchor and position of the same host.
type Cursor struct {
	doc       *Document
	host      ID
	pos       int
	selStart  int
	selecting bool
	direction Direction
}

// NewCursor creates cursor at the beginning of formula root and registers
// it with document. Leading placeholder takes the cursor.
func NewCursor(doc *Document) *Cursor {
	c := &Cursor{doc: doc, host: doc.root}
	if first := doc.elems[doc.root].children; len(first) > 0 && doc.Kind(first[0]) == KindEmpty {
		c.host = first[0]
	}
	doc.Register(c)
	return c
}

// Close unregisters cursor from document.
func (c *Cursor) Close() {
	c.doc.Unregister(c)
}

func (c *Cursor) Document() *Document { return c.doc }

// Current returns host element of the cursor.
func (c *Cursor) Current() ID { return c.host }

// Position returns offset inside host element.
func (c *Cursor) Position() int { return c.pos }

// SelectionStart returns selection anchor offset.
func (c *Cursor) SelectionStart() int { return c.selStart }

func (c *Cursor) Selecting() bool { return c.selecting }

// Direction returns direction of move in progress, DirectionNone outside of
// Move.
func (c *Cursor) Direction() Direction { return c.direction }

// HasSelection reports whether cursor selects non empty range.
func (c *Cursor) HasSelection() bool {
	return c.selecting && c.selStart != c.pos
}

// Selection returns selected host and range.
func (c *Cursor) Selection() (ID, int, int) {
	return c.host, min(c.pos, c.selStart), max(c.pos, c.selStart)
}

// SetSelecting switches selection mode, anchor is set to the current
// position when selection starts.
func (c *Cursor) SetSelecting(on bool) {
	if on && !c.selecting {
		c.selStart = c.pos
	}
	c.selecting = on
}

// SelectElement selects whole content of element. Elements which cannot
// host cursor are selected inside of their parent.
func (c *Cursor) SelectElement(id ID) bool {
	d := c.doc
	if !d.Attached(id) {
		return false
	}
	if isHost(d, id) && d.Kind(id) != KindEmpty {
		c.host, c.selStart, c.pos = id, 0, d.Length(id)
		c.selecting = true
		return true
	}
	for child, p := id, d.Parent(id); p != NoID; child, p = p, d.Parent(p) {
		if isHost(d, p) {
			i := d.IndexOf(child)
			c.host, c.selStart, c.pos = p, i, i+1
			c.selecting = true
			return true
		}
	}
	return false
}

// isHost reports whether element can hold cursor position.
func isHost(d *Document, id ID) bool {
	k := d.Kind(id)
	return k.IsInferredRow() || k.IsToken() || k == KindEmpty
}

// MoveTo places cursor at host position, selection is cleared. Invalid
// positions are rejected.
func (c *Cursor) MoveTo(host ID, pos int) bool {
	if !c.valid(host, pos) {
		return false
	}
	c.host, c.pos, c.selStart = host, pos, pos
	c.selecting = false
	return true
}

func (c *Cursor) valid(host ID, pos int) bool {
	d := c.doc
	if !d.Attached(host) || !isHost(d, host) {
		return false
	}
	return pos >= 0 && pos <= d.Length(host)
}

// IsValid reports whether cursor points to live position.
func (c *Cursor) IsValid() bool {
	return c.valid(c.host, c.pos)
}

func (c *Cursor) IsHome() bool { return c.pos == 0 }
func (c *Cursor) IsEnd() bool  { return c.pos == c.doc.Length(c.host) }

// InsideToken reports whether cursor is inside token element.
func (c *Cursor) InsideToken() bool { return c.doc.Kind(c.host).IsToken() }

// InsideInferredRow reports whether cursor sits between children of an
// element which behaves as row.
func (c *Cursor) InsideInferredRow() bool { return c.doc.Kind(c.host).IsInferredRow() }

// cursorState captures everything needed to restore cursor exactly.
type cursorState struct {
	host      ID
	pos       int
	selStart  int
	selecting bool
}

func (c *Cursor) state() cursorState {
	return cursorState{host: c.host, pos: c.pos, selStart: c.selStart, selecting: c.selecting}
}

func (c *Cursor) restore(s cursorState) {
	c.host, c.pos, c.selStart, c.selecting = s.host, s.pos, s.selStart, s.selecting
}

// WillVanish relocates cursor to the position the vanishing element
// occupied if cursor is inside of it.
func (c *Cursor) WillVanish(id ID) {
	d := c.doc
	if !d.IsAncestor(id, c.host) {
		return
	}
	child := id
	p := d.Parent(id)
	for p != NoID && !isHost(d, p) {
		child, p = p, d.Parent(p)
	}
	if p == NoID {
		c.host, c.pos = d.root, 0
	} else {
		c.host, c.pos = p, d.IndexOf(child)
	}
	c.selStart = c.pos
	c.selecting = false
}

// Shifted keeps cursor offsets in place when content is inserted or removed
// in front of them.
func (c *Cursor) Shifted(host ID, index, delta int) {
	if host != c.host {
		return
	}
	shift := func(p int) int {
		if p <= index {
			return p
		}
		if delta < 0 {
			return max(index, p+delta)
		}
		return p + delta
	}
	c.pos = shift(c.pos)
	c.selStart = shift(c.selStart)
}

// normalize replaces token boundary positions with equivalent position in
// the enclosing row.
func (d *Document) normalize(host ID, pos int) (ID, int) {
	if !d.Kind(host).IsToken() {
		return host, pos
	}
	p := d.Parent(host)
	if p == NoID || !d.Kind(p).IsInferredRow() {
		return host, pos
	}
	switch pos {
	case 0:
		return p, d.IndexOf(host)
	case d.Length(host):
		return p, d.IndexOf(host) + 1
	}
	return host, pos
}

// Move moves cursor in direction. Cursor stays unchanged and false is
// returned when there is no place to move to.
func (c *Cursor) Move(dir Direction) bool {
	d := c.doc
	if !d.Attached(c.host) {
		return false
	}
	switch dir {
	case DirectionHome:
		c.pos = 0
		if !c.selecting {
			c.selStart = 0
		}
		return true
	case DirectionEnd:
		c.pos = d.Length(c.host)
		if !c.selecting {
			c.selStart = c.pos
		}
		return true
	case DirectionNone:
		return false
	}

	old := c.state()
	c.direction = dir
	defer func() { c.direction = DirectionNone }()

	if c.selecting {
		if c.moveSelecting(dir) {
			return true
		}
		c.restore(old)
		return false
	}

	host, pos := d.normalize(c.host, c.pos)
	if h, p, ok := d.within(host, pos, dir, c.caretX()); ok {
		c.host, c.pos, c.selStart = h, p, p
		return true
	}
	x := c.caretX()
	for child, parent := host, d.Parent(host); parent != NoID; child, parent = parent, d.Parent(parent) {
		if h, p, ok := d.leave(parent, child, dir, x); ok {
			c.host, c.pos, c.selStart = h, p, p
			return true
		}
	}
	c.restore(old)
	return false
}

// moveSelecting extends selection. When the edge of host is reached the
// selection is promoted to the parent so that the whole child is
// selected. Anchor goes to whichever side of the child keeps already
// selected part inside selection.
func (c *Cursor) moveSelecting(dir Direction) bool {
	d := c.doc
	switch dir {
	case DirectionLeft:
		if c.pos > 0 {
			c.pos--
			return true
		}
	case DirectionRight:
		if c.pos < d.Length(c.host) {
			c.pos++
			return true
		}
	}
	for {
		parent := d.Parent(c.host)
		if parent == NoID {
			return false
		}
		ltr := c.selStart <= c.pos
		idx := d.IndexOf(c.host)
		c.selStart, c.pos = idx, idx
		c.host = parent
		if ltr {
			c.pos++
		} else {
			c.selStart++
		}
		if isHost(d, parent) {
			return true
		}
	}
}

// within moves inside host without leaving it.
func (d *Document) within(host ID, pos int, dir Direction, x float64) (ID, int, bool) {
	k := d.Kind(host)
	switch {
	case k.IsToken():
		switch dir {
		case DirectionLeft:
			if pos > 0 {
				h, p := d.normalize(host, pos-1)
				return h, p, true
			}
		case DirectionRight:
			if pos < d.Length(host) {
				h, p := d.normalize(host, pos+1)
				return h, p, true
			}
		}
	case k.IsInferredRow():
		children := d.elems[host].children
		switch dir {
		case DirectionLeft:
			if pos > 0 {
				if h, p, ok := d.enter(children[pos-1], DirectionLeft); ok {
					return h, p, true
				}
				return host, pos - 1, true
			}
		case DirectionRight:
			if pos < len(children) {
				if h, p, ok := d.enter(children[pos], DirectionRight); ok {
					return h, p, true
				}
				return host, pos + 1, true
			}
		}
	}
	return NoID, 0, false
}

// enter finds position inside element when cursor comes into it moving in
// direction: moving right enters at the left edge, moving left at the right
// edge.
func (d *Document) enter(id ID, dir Direction) (ID, int, bool) {
	e := d.el(id)
	if e == nil {
		return NoID, 0, false
	}
	fromLeft := dir != DirectionLeft
	switch {
	case e.kind.IsToken():
		n := len(e.text)
		if p := d.Parent(id); p != NoID && d.Kind(p).IsInferredRow() {
			// boundaries belong to the row, only inner stops are entered
			if n < 2 {
				return NoID, 0, false
			}
			if fromLeft {
				return id, 1, true
			}
			return id, n - 1, true
		}
		if fromLeft {
			return id, 0, true
		}
		return id, n, true
	case e.kind == KindEmpty:
		return id, 0, true
	case e.kind.IsInferredRow():
		if fromLeft {
			return id, 0, true
		}
		return id, len(e.children), true
	}
	switch e.kind {
	case KindFraction:
		return d.enter(e.children[SlotNumerator], dir)
	case KindRoot:
		if fromLeft {
			return d.enter(e.children[SlotIndex], dir)
		}
		return d.enter(e.children[SlotRadicand], dir)
	case KindSub, KindSup, KindSubsup:
		if fromLeft {
			return d.enter(e.children[SlotBase], dir)
		}
		_, sub, sup := d.scriptSlots(e)
		if sup != NoID {
			return d.enter(sup, dir)
		}
		return d.enter(sub, dir)
	case KindUnder, KindOver, KindUnderover:
		return d.enter(e.children[SlotBase], dir)
	case KindTable:
		if len(e.children) == 0 {
			return NoID, 0, false
		}
		row := e.children[0]
		if !fromLeft {
			row = e.children[len(e.children)-1]
		}
		entries := d.elems[row].children
		if len(entries) == 0 {
			return NoID, 0, false
		}
		if fromLeft {
			return d.enter(entries[0], dir)
		}
		return d.enter(entries[len(entries)-1], dir)
	}
	return NoID, 0, false
}

// enterAt finds position inside element closest to absolute x coordinate,
// used for vertical moves. Without current layout element is entered at
// its left edge.
func (d *Document) enterAt(id ID, x float64) (ID, int, bool) {
	if !d.dirty {
		e := d.elems[id]
		o := d.AbsoluteOrigin(id)
		pt := Point{X: x, Y: o.Y + e.height/2}
		if h, p, ok := d.hitTest(id, pt.Sub(o)); ok {
			return h, p, true
		}
	}
	return d.enter(id, DirectionRight)
}

// leave decides where cursor goes when it leaves child of parent moving in
// direction. False means parent has no position for it either.
func (d *Document) leave(parent, child ID, dir Direction, x float64) (ID, int, bool) {
	p := d.elems[parent]
	slot := p.indexOf(child)
	horizontal := dir == DirectionLeft || dir == DirectionRight
	switch {
	case p.kind.IsInferredRow():
		switch dir {
		case DirectionLeft:
			return parent, slot, true
		case DirectionRight:
			return parent, slot + 1, true
		}
		return NoID, 0, false
	}
	switch p.kind {
	case KindFraction:
		switch {
		case slot == SlotNumerator && dir == DirectionDown:
			return d.enterAt(p.children[SlotDenominator], x)
		case slot == SlotDenominator && dir == DirectionUp:
			return d.enterAt(p.children[SlotNumerator], x)
		}
	case KindRoot:
		switch {
		case slot == SlotIndex && (dir == DirectionRight || dir == DirectionDown):
			return d.enter(p.children[SlotRadicand], DirectionRight)
		case slot == SlotRadicand && (dir == DirectionLeft || dir == DirectionUp):
			return d.enter(p.children[SlotIndex], DirectionLeft)
		}
	case KindSub, KindSup, KindSubsup:
		_, sub, sup := d.scriptSlots(p)
		switch {
		case slot == SlotBase && dir == DirectionRight:
			if sup != NoID {
				return d.enter(sup, dir)
			}
			return d.enter(sub, dir)
		case slot == SlotBase && dir == DirectionUp && sup != NoID:
			return d.enter(sup, DirectionRight)
		case slot == SlotBase && dir == DirectionDown && sub != NoID:
			return d.enter(sub, DirectionRight)
		case slot > 0 && dir == DirectionLeft:
			return d.enter(p.children[SlotBase], dir)
		case child == sub && dir == DirectionUp && sup != NoID:
			return d.enterAt(sup, x)
		case child == sup && dir == DirectionDown && sub != NoID:
			return d.enterAt(sub, x)
		}
	case KindUnder, KindOver, KindUnderover:
		if horizontal {
			break
		}
		base, under, over := d.scriptSlots(p)
		switch {
		case child == base && dir == DirectionUp && over != NoID:
			return d.enterAt(over, x)
		case child == base && dir == DirectionDown && under != NoID:
			return d.enterAt(under, x)
		case child == over && dir == DirectionDown:
			return d.enterAt(base, x)
		case child == under && dir == DirectionUp:
			return d.enterAt(base, x)
		}
	case KindTablerow:
		return d.leaveEntry(parent, slot, dir, x)
	}
	return NoID, 0, false
}

// leaveEntry moves between table entries: left and right walk entries row
// by row, up and down keep the column.
func (d *Document) leaveEntry(row ID, col int, dir Direction, x float64) (ID, int, bool) {
	table := d.Parent(row)
	if table == NoID || d.Kind(table) != KindTable {
		return NoID, 0, false
	}
	rows := d.elems[table].children
	ri := d.elems[table].indexOf(row)
	entries := d.elems[row].children
	switch dir {
	case DirectionRight:
		if col+1 < len(entries) {
			return d.enter(entries[col+1], dir)
		}
		for ri++; ri < len(rows); ri++ {
			if next := d.elems[rows[ri]].children; len(next) > 0 {
				return d.enter(next[0], dir)
			}
		}
	case DirectionLeft:
		if col > 0 {
			return d.enter(entries[col-1], dir)
		}
		for ri--; ri >= 0; ri-- {
			if prev := d.elems[rows[ri]].children; len(prev) > 0 {
				return d.enter(prev[len(prev)-1], dir)
			}
		}
	case DirectionUp, DirectionDown:
		step := 1
		if dir == DirectionUp {
			step = -1
		}
		for ri += step; ri >= 0 && ri < len(rows); ri += step {
			if other := d.elems[rows[ri]].children; len(other) > 0 {
				return d.enterAt(other[min(col, len(other)-1)], x)
			}
		}
	}
	return NoID, 0, false
}

// SetCursorTo places cursor at point given in formula coordinates. When
// selecting, anchor is kept and selection host is widened until it
// contains the point.
func (c *Cursor) SetCursorTo(pt Point) bool {
	d := c.doc
	if d.dirty {
		return false
	}
	if c.selecting {
		return c.selectTo(pt)
	}
	h, p, ok := d.hitTest(d.root, pt)
	if !ok {
		// formula root accepts everything
		h, p = d.root, d.gapAt(d.root, pt)
	}
	c.host, c.pos, c.selStart = h, p, p
	return true
}

func (c *Cursor) selectTo(pt Point) bool {
	d := c.doc
	host, anchor := c.host, c.selStart
	for {
		box := d.elems[host].Box()
		o := d.AbsoluteOrigin(host)
		box.X, box.Y = o.X, o.Y
		if isHost(d, host) && d.Kind(host) != KindEmpty && box.Contains(pt) {
			break
		}
		parent := d.Parent(host)
		if parent == NoID {
			break
		}
		idx := d.IndexOf(host)
		if pt.X < d.caretAt(host, anchor) {
			anchor = idx + 1
		} else {
			anchor = idx
		}
		host = parent
	}
	if !isHost(d, host) || d.Kind(host) == KindEmpty {
		return false
	}
	c.host, c.selStart = host, anchor
	c.pos = d.gapAt(host, pt.Sub(d.AbsoluteOrigin(host)))
	return true
}

// gapAt returns offset inside host closest to point in host coordinates.
func (d *Document) gapAt(host ID, pt Point) int {
	e := d.elems[host]
	switch {
	case e.kind.IsToken():
		best, bestD := 0, math.Inf(1)
		for i := 0; i <= len(e.text); i++ {
			if dist := math.Abs(e.Stop(i) - pt.X); dist < bestD {
				best, bestD = i, dist
			}
		}
		return best
	case e.kind.IsInferredRow():
		for i, c := range e.children {
			ce := d.elems[c]
			if pt.X < ce.origin.X+ce.width/2 {
				return i
			}
		}
		return len(e.children)
	}
	return 0
}

// hitTest maps point (element coordinates) to cursor position inside
// element subtree.
func (d *Document) hitTest(id ID, pt Point) (ID, int, bool) {
	e := d.elems[id]
	switch {
	case e.kind.IsToken():
		h, p := d.normalize(id, d.gapAt(id, pt))
		return h, p, true
	case e.kind == KindEmpty:
		return id, 0, true
	case e.kind.IsInferredRow():
		for i, c := range e.children {
			ce := d.elems[c]
			if pt.X < ce.origin.X || pt.X > ce.origin.X+ce.width {
				continue
			}
			local := pt.Sub(ce.origin)
			if ce.kind.IsToken() || ce.Box().Contains(pt) {
				if h, p, ok := d.hitTest(c, local); ok {
					return h, p, true
				}
			}
			if pt.X < ce.origin.X+ce.width/2 {
				return id, i, true
			}
			return id, i + 1, true
		}
		return id, d.gapAt(id, pt), true
	case e.kind == KindTable:
		for _, row := range e.children {
			re := d.elems[row]
			if pt.Y <= re.origin.Y+re.height || row == e.children[len(e.children)-1] {
				return d.hitChildren(row, pt.Sub(re.origin))
			}
		}
		return NoID, 0, false
	case len(e.children) > 0:
		return d.hitChildren(id, pt)
	}
	return NoID, 0, false
}

// hitChildren tries children of element from the closest to point.
func (d *Document) hitChildren(id ID, pt Point) (ID, int, bool) {
	e := d.elems[id]
	best, bestD := NoID, math.Inf(1)
	for _, c := range e.children {
		if dist := distance(d.elems[c].Box(), pt); dist < bestD {
			best, bestD = c, dist
		}
	}
	if best == NoID {
		return NoID, 0, false
	}
	return d.hitTest(best, pt.Sub(d.elems[best].origin))
}

func distance(r Rect, pt Point) float64 {
	dx := math.Max(math.Max(r.X-pt.X, 0), pt.X-r.Right())
	dy := math.Max(math.Max(r.Y-pt.Y, 0), pt.Y-r.Bottom())
	return math.Hypot(dx, dy)
}

// caretAt returns absolute x of offset inside host.
func (d *Document) caretAt(host ID, pos int) float64 {
	e := d.elems[host]
	o := d.AbsoluteOrigin(host)
	switch {
	case e.kind.IsToken():
		return o.X + e.Stop(pos)
	case e.kind.IsInferredRow():
		if len(e.children) == 0 {
			return o.X + e.width/2
		}
		if pos < len(e.children) {
			return o.X + d.elems[e.children[pos]].origin.X
		}
		last := d.elems[e.children[len(e.children)-1]]
		return o.X + last.origin.X + last.width
	}
	return o.X
}

func (c *Cursor) caretX() float64 {
	if c.doc.dirty || !c.doc.Attached(c.host) {
		return 0
	}
	return c.doc.caretAt(c.host, c.pos)
}

// Caret returns caret line in formula coordinates. Layout must be current.
func (c *Cursor) Caret() (x, y1, y2 float64) {
	d := c.doc
	if !d.Attached(c.host) {
		return 0, 0, 0
	}
	e := d.elems[c.host]
	o := d.AbsoluteOrigin(c.host)
	return d.caretAt(c.host, c.pos), o.Y, o.Y + e.height
}

// SelectionBox returns rectangle covering selection in formula coordinates.
func (c *Cursor) SelectionBox() (Rect, bool) {
	if !c.HasSelection() || !c.doc.Attached(c.host) {
		return Rect{}, false
	}
	d := c.doc
	_, from, to := c.Selection()
	o := d.AbsoluteOrigin(c.host)
	x1, x2 := d.caretAt(c.host, from), d.caretAt(c.host, to)
	return Rect{X: x1, Y: o.Y, W: x2 - x1, H: d.elems[c.host].height}, true
}
