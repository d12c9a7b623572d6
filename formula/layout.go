package formula

import (
	"math"
)

// Layout recalculates sizes and positions of the whole tree. First pass
// computes sizes and baselines bottom-up, second assigns child origins
// top-down. Running it twice on the same tree gives identical results.
func Layout(doc *Document, r *Resolver) {
	doc.calculateSize(doc.root, r)
	root := doc.elems[doc.root]
	root.origin = Point{}
	doc.layoutChildren(doc.root, r)
	doc.dirty = false
}

// EnsureLayout recalculates layout if tree was mutated since the last time,
// it reports whether anything was done.
func EnsureLayout(doc *Document, r *Resolver) bool {
	if !doc.dirty {
		return false
	}
	Layout(doc, r)
	return true
}

// AbsoluteOrigin returns element origin in formula coordinates.
func (d *Document) AbsoluteOrigin(id ID) Point {
	var p Point
	for e := d.el(id); e != nil; e = d.el(e.parent) {
		p = p.Add(e.origin)
	}
	return p
}

// arrangement is geometry of element derived from sizes of its children.
type arrangement struct {
	width    float64
	height   float64
	baseline float64
	origins  []Point
	deco     decoration
}

func (d *Document) calculateSize(id ID, r *Resolver) {
	e := d.elems[id]
	for _, c := range e.children {
		d.calculateSize(c, r)
	}
	e.scaleLevel = r.ScriptLevel(d, id)
	e.scaleFactor = ScaleFactor(e.scaleLevel)
	e.stops = nil
	e.columns = nil

	if e.kind.IsToken() || e.kind == KindGlyph {
		d.sizeToken(e, r)
		return
	}
	if e.kind == KindTable {
		d.sizeTable(e, r)
		return
	}
	a := d.arrange(id, r)
	e.width, e.height, e.baseline, e.deco = a.width, a.height, a.baseline, a.deco
}

func (d *Document) layoutChildren(id ID, r *Resolver) {
	e := d.elems[id]
	if len(e.children) == 0 {
		e.childrenBox = Rect{}
		return
	}
	var origins []Point
	switch e.kind {
	case KindTable:
		origins = d.placeTable(e)
	case KindTablerow:
		origins = d.placeTablerow(e)
	default:
		origins = d.arrange(id, r).origins
	}
	var box Rect
	for i, c := range e.children {
		ce := d.elems[c]
		ce.origin = origins[i]
		box = box.Union(ce.Box())
	}
	e.childrenBox = box
	for _, c := range e.children {
		d.layoutChildren(c, r)
	}
}

// extents returns distances above and below baseline. Elements without
// baseline are centered on math axis.
func (d *Document) extents(id ID, axis float64) (float64, float64) {
	e := d.elems[id]
	if e.baseline >= 0 {
		return e.baseline, e.height - e.baseline
	}
	return e.height/2 + axis, e.height/2 - axis
}

func (d *Document) arrange(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	switch e.kind {
	case KindFormula, KindRow, KindStyle, KindTableentry:
		return d.arrangeRow(id, r, e.children, 0, 0)
	case KindFenced:
		return d.arrangeFenced(id, r)
	case KindSqrt, KindRoot:
		return d.arrangeRoot(id, r)
	case KindFraction:
		return d.arrangeFraction(id, r)
	case KindSub, KindSup, KindSubsup:
		return d.arrangeScripts(id, r)
	case KindUnder, KindOver, KindUnderover:
		if d.limitsAsScripts(id, r) {
			return d.arrangeScripts(id, r)
		}
		return d.arrangeUnderOver(id, r)
	case KindTablerow:
		return d.arrangeRow(id, r, e.children, 0, 0)
	case KindSpace:
		return d.arrangeSpace(id, r)
	case KindEmpty:
		f := r.Font(d, id)
		m, cv := r.metrics(), r.converter()
		asc, desc := cv.PointsToUnits(m.Ascent(f)), cv.PointsToUnits(m.Descent(f))
		return arrangement{width: r.Em(d, id) * 0.5, height: asc + desc, baseline: asc}
	}
	// unknown elements take no space
	return arrangement{baseline: 0}
}

// arrangeRow lays children left to right aligning baselines, x0 and pad
// add room before and after the sequence.
func (d *Document) arrangeRow(id ID, r *Resolver, children []ID, x0, pad float64) arrangement {
	axis := r.Axis(d, id)
	if len(children) == 0 {
		f := r.Font(d, id)
		m, cv := r.metrics(), r.converter()
		asc, desc := cv.PointsToUnits(m.Ascent(f)), cv.PointsToUnits(m.Descent(f))
		return arrangement{width: x0 + pad, height: asc + desc, baseline: asc}
	}
	var toBaseline, fromBaseline float64
	for _, c := range children {
		asc, desc := d.extents(c, axis)
		toBaseline = math.Max(toBaseline, asc)
		fromBaseline = math.Max(fromBaseline, desc)
	}
	a := arrangement{origins: make([]Point, len(children)), baseline: toBaseline}
	x := x0
	for i, c := range children {
		asc, _ := d.extents(c, axis)
		a.origins[i] = Point{X: x, Y: toBaseline - asc}
		x += d.elems[c].width
	}
	a.width = x + pad
	a.height = toBaseline + fromBaseline
	return a
}

func (d *Document) sizeToken(e *Element, r *Resolver) {
	f := r.Font(d, e.id)
	text := e.text
	if e.kind == KindGlyph {
		text = []rune(r.String(d, e.id, "alt", ""))
		if fam, ok := e.attrs["fontfamily"]; ok && fam != "" {
			f.Family = fam
		}
	}
	var lspace, rspace float64
	if e.kind == KindOperator {
		entry := r.Operator(d, e.id)
		em := r.Em(d, e.id)
		if entry.LargeOp && r.DisplayStyle(d, e.id) {
			f.Size *= 1.41
		}
		lspace, _ = r.Length(d, e.id, entry.LSpace, em)
		rspace, _ = r.Length(d, e.id, entry.RSpace, em)
		lspace, rspace = math.Max(lspace, 0), math.Max(rspace, 0)
	}
	m, cv := r.metrics(), r.converter()
	asc, desc := cv.PointsToUnits(m.Ascent(f)), cv.PointsToUnits(m.Descent(f))

	e.stops = make([]float64, len(text)+1)
	for i := range text {
		e.stops[i+1] = cv.PointsToUnits(m.Advance(f, string(text[:i+1])))
	}
	natural := e.stops[len(text)]
	for i := range e.stops {
		e.stops[i] += lspace
	}
	e.width = lspace + natural + rspace
	e.height = asc + desc
	e.baseline = asc

	uf := f
	uf.Size = cv.PointsToUnits(f.Size)
	e.deco = decoration{font: uf, lspace: lspace, natural: natural, stretch: 1}
}

// stretchToken widens operator glyph so that token occupies width w.
func (d *Document) stretchToken(id ID, w float64) {
	e := d.elems[id]
	if e.kind != KindOperator || e.deco.natural <= 0 {
		return
	}
	spaces := e.width - e.deco.natural
	if w <= e.width {
		return
	}
	e.deco.stretch = (w - spaces) / e.deco.natural
	for i := range e.stops {
		e.stops[i] = e.deco.lspace + (e.stops[i]-e.deco.lspace)*e.deco.stretch
	}
	e.width = w
}

func (d *Document) arrangeSpace(id ID, r *Resolver) arrangement {
	em := r.Em(d, id)
	w := math.Max(r.LengthAttr(d, id, "width", em, 0), 0)
	h := math.Max(r.LengthAttr(d, id, "height", em, 0), 0)
	dp := math.Max(r.LengthAttr(d, id, "depth", em, 0), 0)
	return arrangement{width: w, height: h + dp, baseline: h}
}

func (d *Document) arrangeFraction(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	num, den := d.elems[e.children[SlotNumerator]], d.elems[e.children[SlotDenominator]]
	thin := r.ThinSpace(d, id)
	lt := r.LineThickness(d, id)

	if r.Bool(d, id, "bevelled", false) {
		h := math.Max(num.height, den.height) + math.Min(num.height, den.height)/2
		slant := h / 3
		a := arrangement{
			width:   num.width + slant + den.width,
			height:  h,
			origins: []Point{{0, 0}, {num.width + slant, h - den.height}},
			deco: decoration{
				bevelled:  true,
				thickness: lt,
				radical:   []Point{{num.width + slant, 0}, {num.width, h}},
			},
		}
		a.baseline = h / 2
		if den.baseline >= 0 {
			a.baseline = h - den.height + den.baseline
		}
		return a
	}

	w := math.Max(num.width, den.width)
	align := func(name string, cw float64) float64 {
		switch r.Align(d, id, name, AlignCenter) {
		case AlignLeft:
			return 0
		case AlignRight:
			return w - cw
		}
		return (w - cw) / 2
	}
	return arrangement{
		width:    w,
		height:   num.height + den.height + lt + 2*thin,
		baseline: num.height + thin + 0.5*lt,
		origins: []Point{
			{align("numalign", num.width), 0},
			{align("denomalign", den.width), num.height + 2*thin + lt},
		},
		deco: decoration{lineY: num.height + thin + 0.5*lt, thickness: lt},
	}
}

func (d *Document) arrangeRoot(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	thin := r.ThinSpace(d, id)
	distX, distY := thin, thin

	// radicand box
	var content arrangement
	var indexID ID = NoID
	if e.kind == KindRoot {
		c := d.elems[e.children[SlotRadicand]]
		content = arrangement{width: c.width, height: c.height, baseline: c.baseline, origins: []Point{{}}}
		indexID = e.children[SlotIndex]
	} else {
		content = d.arrangeRow(id, r, e.children, 0, 0)
	}
	if content.baseline < 0 {
		content.baseline = content.height / 2
	}

	unit := (content.height + distY) / 3
	var rootOffset, indexPos Point
	if indexID != NoID {
		ix := d.elems[indexID]
		if ix.width > unit {
			rootOffset.X = ix.width - unit
		} else {
			indexPos.X = (unit - ix.width) / 2
		}
		if ix.height > unit {
			rootOffset.Y = ix.height - unit
		} else {
			indexPos.Y = unit - ix.height
		}
	}
	a := arrangement{
		width:  content.width + unit + unit/3 + rootOffset.X + distX/2,
		height: content.height + distY*2 + rootOffset.Y,
	}
	cx, cy := rootOffset.X+unit+unit/3, rootOffset.Y+distY
	a.baseline = content.baseline + cy
	for _, o := range content.origins {
		a.origins = append(a.origins, Point{X: o.X + cx, Y: o.Y + cy})
	}
	if indexID != NoID {
		a.origins = append(a.origins, indexPos)
	}
	x, y := rootOffset.X, rootOffset.Y
	a.deco = decoration{
		thickness: r.LineThickness(d, id),
		radical: []Point{
			{x, y + unit + unit/2},
			{x + unit/3, y + unit + distY/2},
			{x + unit/2 + unit/3, a.height},
			{x + unit + unit/3, y + distY/3},
			{x + unit + unit/3 + content.width, y + distY/3},
		},
	}
	return a
}

// scriptSlots returns base, sub and sup slot elements, NoID when absent.
func (d *Document) scriptSlots(e *Element) (base, sub, sup ID) {
	base, sub, sup = e.children[SlotBase], NoID, NoID
	if i := e.kind.subSlot(); i > 0 {
		sub = e.children[i]
	}
	if i := e.kind.supSlot(); i > 0 {
		sup = e.children[i]
	}
	return
}

func (d *Document) arrangeScripts(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	axis := r.Axis(d, id)
	em := r.Em(d, id)
	thin := r.ThinSpace(d, id)
	space := r.converter().PointsToUnits(0.5)

	base, sub, sup := d.scriptSlots(e)
	bAsc, bDesc := d.extents(base, axis)
	bw := d.elems[base].width

	var supUp, subDown, sAsc, sDesc, pAsc, pDesc, sw, pw float64
	if sup != NoID {
		pAsc, pDesc = d.extents(sup, axis)
		pw = d.elems[sup].width
		supUp = math.Max(em*0.4, bAsc-pAsc/2)
	}
	if sub != NoID {
		sAsc, sDesc = d.extents(sub, axis)
		sw = d.elems[sub].width
		subDown = math.Max(em*0.25, bDesc-sAsc/2)
	}
	if sub != NoID && sup != NoID {
		if gap := (subDown - sAsc) + (supUp - pDesc); gap < thin {
			subDown += thin - gap
		}
	}

	asc, desc := bAsc, bDesc
	if sup != NoID {
		asc = math.Max(asc, supUp+pAsc)
		desc = math.Max(desc, pDesc-supUp)
	}
	if sub != NoID {
		asc = math.Max(asc, sAsc-subDown)
		desc = math.Max(desc, subDown+sDesc)
	}
	a := arrangement{
		width:    bw + math.Max(sw, pw) + space,
		height:   asc + desc,
		baseline: asc,
		origins:  make([]Point, len(e.children)),
	}
	a.origins[SlotBase] = Point{0, asc - bAsc}
	if i := e.kind.subSlot(); i > 0 {
		a.origins[i] = Point{bw, asc + subDown - sAsc}
	}
	if i := e.kind.supSlot(); i > 0 {
		a.origins[i] = Point{bw, asc - supUp - pAsc}
	}
	return a
}

// limitsAsScripts reports whether under/over limits of movable operator are
// placed as sub/superscripts (inline style).
func (d *Document) limitsAsScripts(id ID, r *Resolver) bool {
	e := d.elems[id]
	op := d.CoreOperator(e.children[SlotBase])
	if op == NoID || r.DisplayStyle(d, id) {
		return false
	}
	return r.Operator(d, op).MovableLimits
}

func (d *Document) arrangeUnderOver(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	thin := r.ThinSpace(d, id)
	base, under, over := d.scriptSlots(e)

	// stretchy scripts do not take part in width computation
	var w, all float64
	for _, c := range e.children {
		cw := d.elems[c].width
		all = math.Max(all, cw)
		if op := d.CoreOperator(c); op == c && r.Operator(d, op).Stretchy {
			continue
		}
		w = math.Max(w, cw)
	}
	if w == 0 {
		w = all
	}
	for _, c := range e.children {
		if op := d.CoreOperator(c); op == c && r.Operator(d, op).Stretchy {
			d.stretchToken(c, w)
		}
	}

	a := arrangement{width: w, origins: make([]Point, len(e.children))}
	y := 0.0
	if over != NoID {
		oe := d.elems[over]
		a.origins[e.kind.supSlot()] = Point{(w - oe.width) / 2, 0}
		y = oe.height
		if !r.IsAccent(d, id, e.kind.supSlot()) {
			y += thin
		}
	}
	be := d.elems[base]
	a.origins[SlotBase] = Point{(w - be.width) / 2, y}
	if be.baseline >= 0 {
		a.baseline = y + be.baseline
	} else {
		a.baseline = y + be.height/2
	}
	y += be.height
	if under != NoID {
		if !r.IsAccent(d, id, e.kind.subSlot()) {
			y += thin
		}
		ue := d.elems[under]
		a.origins[e.kind.subSlot()] = Point{(w - ue.width) / 2, y}
		y += ue.height
	}
	a.height = y
	return a
}

func (d *Document) arrangeFenced(id ID, r *Resolver) arrangement {
	e := d.elems[id]
	open := r.String(d, id, "open", "(")
	closing := r.String(d, id, "close", ")")
	seps := []rune(stripSpaces(r.String(d, id, "separators", ",")))

	m, cv := r.metrics(), r.converter()
	f := r.Font(d, id)
	f.Italic = false
	sepW := func(s string) float64 { return cv.PointsToUnits(m.Advance(f, s)) }

	// measure content with separators between children
	inner := d.arrangeRow(id, r, e.children, 0, 0)
	ascF, descF := cv.PointsToUnits(m.Ascent(f)), cv.PointsToUnits(m.Descent(f))
	fenceF := f
	if need := inner.height; need > ascF+descF && ascF+descF > 0 {
		fenceF.Size *= need / (ascF + descF)
	}
	openW := 0.0
	if open != "" {
		openW = cv.PointsToUnits(m.Advance(fenceF, open))
	}
	closeW := 0.0
	if closing != "" {
		closeW = cv.PointsToUnits(m.Advance(fenceF, closing))
	}

	a := arrangement{height: inner.height, baseline: inner.baseline, origins: make([]Point, len(e.children))}
	var sepX []float64
	var sepT []string
	x := openW
	for i, c := range e.children {
		a.origins[i] = Point{X: x, Y: inner.origins[i].Y}
		x += d.elems[c].width
		if i < len(e.children)-1 && len(seps) > 0 {
			s := string(seps[min(i, len(seps)-1)])
			sepX = append(sepX, x)
			sepT = append(sepT, s)
			x += sepW(s)
		}
	}
	a.width = x + closeW

	// fence glyphs are scaled to cover the content and share its top
	fenceY := inner.baseline
	if fenceF.Size != f.Size {
		fenceY = cv.PointsToUnits(m.Ascent(fenceF))
	}
	uf, ufence := f, fenceF
	uf.Size, ufence.Size = cv.PointsToUnits(f.Size), cv.PointsToUnits(fenceF.Size)
	a.deco = decoration{
		lineY: fenceY,
		openW: openW, closeW: closeW, fenceSize: ufence.Size,
		open: open, close: closing,
		seps: sepX, sepsText: sepT, font: uf,
	}
	return a
}

func stripSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			out = append(out, c)
		}
	}
	return string(out)
}

// table geometry: size of rows is computed by the table itself since it
// depends on the whole column.
func (d *Document) tableSpacing(e *Element, r *Resolver) (distX, distY float64) {
	em := r.Em(d, e.id)
	thin := r.ThinSpace(d, e.id)
	distX = r.LengthAttr(d, e.id, "columnspacing", em, thin)
	distY = r.LengthAttr(d, e.id, "rowspacing", em, thin)
	return math.Max(distX, 0), math.Max(distY, 0)
}

func (d *Document) sizeTable(e *Element, r *Resolver) {
	axis := r.Axis(d, e.id)
	distX, distY := d.tableSpacing(e, r)

	cols := 0
	for _, row := range e.children {
		cols = max(cols, len(d.elems[row].children))
	}
	widths := make([]float64, cols)
	height := 0.0
	for ri, row := range e.children {
		re := d.elems[row]
		var toMid, fromMid float64
		for ci, c := range re.children {
			ce := d.elems[c]
			mid := entryMidline(ce, axis)
			toMid = math.Max(toMid, mid)
			fromMid = math.Max(fromMid, ce.height-mid)
			widths[ci] = math.Max(widths[ci], ce.width)
		}
		re.height = toMid + fromMid
		re.baseline = toMid + axis
		re.deco = decoration{midline: toMid}
		if ri > 0 {
			height += distY
		}
		height += re.height
	}
	width := 0.0
	for ci, w := range widths {
		if ci > 0 {
			width += distX
		}
		width += w
	}
	for _, row := range e.children {
		d.elems[row].width = width
	}
	e.columns = widths
	e.width = width
	e.height = height
	e.baseline = height/2 + axis
	e.deco = decoration{
		colSpacing: distX,
		rowSpacing: distY,
		axis:       axis,
		aligns:     r.AlignList(d, e.id, "columnalign", AlignCenter),
	}
}

// entryMidline returns distance from entry top to the line entries of a row
// are aligned on.
func entryMidline(ce *Element, axis float64) float64 {
	if ce.baseline >= 0 {
		return math.Max(ce.baseline-axis, 0)
	}
	return ce.height / 2
}

func (d *Document) placeTable(e *Element) []Point {
	origins := make([]Point, len(e.children))
	y := 0.0
	for i, row := range e.children {
		origins[i] = Point{0, y}
		y += d.elems[row].height + e.deco.rowSpacing
	}
	return origins
}

func (d *Document) placeTablerow(e *Element) []Point {
	origins := make([]Point, len(e.children))
	t := d.el(e.parent)
	if t == nil || t.kind != KindTable {
		x := 0.0
		for i, c := range e.children {
			origins[i] = Point{x, 0}
			x += d.elems[c].width
		}
		return origins
	}
	aligns := t.deco.aligns
	x := 0.0
	for i, c := range e.children {
		ce := d.elems[c]
		cw := 0.0
		if i < len(t.columns) {
			cw = t.columns[i]
		}
		ox := (cw - ce.width) / 2
		if len(aligns) > 0 {
			switch aligns[min(i, len(aligns)-1)] {
			case AlignLeft:
				ox = 0
			case AlignRight:
				ox = cw - ce.width
			}
		}
		origins[i] = Point{x + ox, e.deco.midline - entryMidline(ce, t.deco.axis)}
		x += cw + t.deco.colSpacing
	}
	return origins
}
