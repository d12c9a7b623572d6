package formula

import (
	"image/color"
)

// Pen is used to stroke lines.
type Pen struct {
	Color  color.RGBA
	Width  float64
	Dashed bool
}

// Painter is drawing surface formula is rendered onto. Coordinates are
// layout units, font sizes are in layout units as well.
type Painter interface {
	Save()
	Restore()
	Translate(dx, dy float64)
	Scale(sx, sy float64)
	SetPen(p Pen)
	// SetBrush sets fill color, transparent color disables filling.
	SetBrush(c color.RGBA)
	DrawLine(a, b Point)
	DrawRect(r Rect)
	// DrawPath strokes open polyline.
	DrawPath(points []Point)
	// DrawText draws text with origin at the left end of baseline.
	DrawText(at Point, f Font, text string)
}

type PaintOptions struct {
	// HidePlaceholders suppresses drawing of empty slot boxes.
	HidePlaceholders bool
}

// Paint lays formula out if necessary and draws it. The driver recurses into
// children translating by their origins, every element draws only its own
// decoration.
func Paint(doc *Document, r *Resolver, p Painter, opts PaintOptions) {
	EnsureLayout(doc, r)
	doc.paint(doc.root, r, p, opts)
}

func (d *Document) paint(id ID, r *Resolver, p Painter, opts PaintOptions) {
	e := d.elems[id]
	p.Save()
	defer p.Restore()
	p.Translate(e.origin.X, e.origin.Y)

	if bg, ok := e.attrs["mathbackground"]; ok {
		if c, ok := ParseColor(bg); ok && c.A > 0 {
			p.SetPen(Pen{Color: c})
			p.SetBrush(c)
			p.DrawRect(Rect{W: e.width, H: e.height})
		}
	}
	d.paintElement(e, r, p, opts)
	for _, c := range e.children {
		d.paint(c, r, p, opts)
	}
}

func (d *Document) paintElement(e *Element, r *Resolver, p Painter, opts PaintOptions) {
	fg := r.ForegroundColor(d, e.id)
	switch e.kind {
	case KindIdentifier, KindNumber, KindOperator, KindText, KindGlyph:
		text := string(e.text)
		if e.kind == KindGlyph {
			text = r.String(d, e.id, "alt", "")
		}
		if text == "" {
			return
		}
		p.SetPen(Pen{Color: fg})
		p.SetBrush(fg)
		if e.deco.stretch != 0 && e.deco.stretch != 1 {
			p.Save()
			p.Translate(e.deco.lspace, 0)
			p.Scale(e.deco.stretch, 1)
			p.DrawText(Point{0, e.baseline}, e.deco.font, text)
			p.Restore()
			return
		}
		p.DrawText(Point{e.deco.lspace, e.baseline}, e.deco.font, text)

	case KindFraction:
		if e.deco.thickness <= 0 {
			return
		}
		p.SetPen(Pen{Color: fg, Width: e.deco.thickness})
		if e.deco.bevelled {
			p.DrawLine(e.deco.radical[0], e.deco.radical[1])
			return
		}
		p.DrawLine(Point{0, e.deco.lineY}, Point{e.width, e.deco.lineY})

	case KindSqrt, KindRoot:
		p.SetPen(Pen{Color: fg, Width: max(e.deco.thickness, 0.5)})
		p.DrawPath(e.deco.radical)

	case KindFenced:
		p.SetPen(Pen{Color: fg})
		p.SetBrush(fg)
		fence := e.deco.font
		fence.Size = e.deco.fenceSize
		if e.deco.open != "" {
			p.DrawText(Point{0, e.deco.lineY}, fence, e.deco.open)
		}
		if e.deco.close != "" {
			p.DrawText(Point{e.width - e.deco.closeW, e.deco.lineY}, fence, e.deco.close)
		}
		for i, x := range e.deco.seps {
			p.DrawText(Point{x, e.baseline}, e.deco.font, e.deco.sepsText[i])
		}

	case KindEmpty:
		if opts.HidePlaceholders {
			return
		}
		c := fg
		c.A = 0x80
		p.SetPen(Pen{Color: c, Width: 0.5, Dashed: true})
		p.SetBrush(color.RGBA{})
		p.DrawRect(Rect{X: 1, Y: 1, W: max(e.width-2, 0), H: max(e.height-2, 0)})
	}
}

// selection highlight color
var selectionColor = color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0x50}

// PaintCursor draws selection highlight and caret of cursor.
func PaintCursor(c *Cursor, r *Resolver, p Painter) {
	doc := c.doc
	EnsureLayout(doc, r)
	if box, ok := c.SelectionBox(); ok {
		p.SetPen(Pen{Color: selectionColor})
		p.SetBrush(selectionColor)
		p.DrawRect(box)
	}
	x, y1, y2 := c.Caret()
	p.SetPen(Pen{Color: r.Foreground, Width: 1})
	p.DrawLine(Point{x, y1}, Point{x, y2})
}
