package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"kfm/formula"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// transform keeps accumulated translation and scale, only these two are
// ever applied by formula painting.
type transform struct {
	tx, ty float64
	sx, sy float64
}

func (t transform) apply(p formula.Point) formula.Point {
	return formula.Point{X: t.tx + p.X*t.sx, Y: t.ty + p.Y*t.sy}
}

type paintState struct {
	transform
	pen   formula.Pen
	brush color.RGBA
}

// stateStack implements Save/Restore part of painter shared by painters.
type stateStack struct {
	cur   paintState
	saved []paintState
}

func newStateStack() stateStack {
	return stateStack{cur: paintState{transform: transform{sx: 1, sy: 1}, pen: formula.Pen{Width: 1}}}
}

func (s *stateStack) Save() { s.saved = append(s.saved, s.cur) }

func (s *stateStack) Restore() {
	if n := len(s.saved); n > 0 {
		s.cur = s.saved[n-1]
		s.saved = s.saved[:n-1]
	}
}

func (s *stateStack) Translate(dx, dy float64) {
	s.cur.tx += dx * s.cur.sx
	s.cur.ty += dy * s.cur.sy
}

func (s *stateStack) Scale(sx, sy float64) {
	s.cur.sx *= sx
	s.cur.sy *= sy
}

func (s *stateStack) SetPen(p formula.Pen) { s.cur.pen = p }
func (s *stateStack) SetBrush(c color.RGBA) { s.cur.brush = c }
func (s *stateStack) penWidth() float64 { return max(s.cur.pen.Width, 0.5) * (s.cur.sx + s.cur.sy) / 2 }
func (s *stateStack) fontSize(f formula.Font) float64 { return f.Size * s.cur.sy }

// SVGPainter records drawing as SVG elements.
type SVGPainter struct {
	stateStack
	root *etree.Element
}

// NewSVGPainter creates painter which appends shapes to group element.
func NewSVGPainter(group *etree.Element) *SVGPainter {
	return &SVGPainter{stateStack: newStateStack(), root: group}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

func coord(v float64) string {
	return num(round(v))
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func setPaint(el *etree.Element, attr string, c color.RGBA) {
	if c.A == 0 {
		el.CreateAttr(attr, "none")
		return
	}
	el.CreateAttr(attr, hexColor(c))
	if c.A != 0xff {
		el.CreateAttr(attr+"-opacity", num(round(float64(c.A)/0xff)))
	}
}

func (p *SVGPainter) stroke(el *etree.Element) {
	setPaint(el, "stroke", p.cur.pen.Color)
	el.CreateAttr("stroke-width", coord(p.penWidth()))
	if p.cur.pen.Dashed {
		d := coord(p.penWidth() * 2)
		el.CreateAttr("stroke-dasharray", d+" "+d)
	}
}

func (p *SVGPainter) DrawLine(a, b formula.Point) {
	a, b = p.cur.apply(a), p.cur.apply(b)
	el := p.root.CreateElement("line")
	el.CreateAttr("x1", coord(a.X))
	el.CreateAttr("y1", coord(a.Y))
	el.CreateAttr("x2", coord(b.X))
	el.CreateAttr("y2", coord(b.Y))
	p.stroke(el)
}

func (p *SVGPainter) DrawRect(r formula.Rect) {
	tl := p.cur.apply(formula.Point{X: r.X, Y: r.Y})
	el := p.root.CreateElement("rect")
	el.CreateAttr("x", coord(tl.X))
	el.CreateAttr("y", coord(tl.Y))
	el.CreateAttr("width", coord(r.W*p.cur.sx))
	el.CreateAttr("height", coord(r.H*p.cur.sy))
	setPaint(el, "fill", p.cur.brush)
	p.stroke(el)
}

func (p *SVGPainter) DrawPath(points []formula.Point) {
	if len(points) < 2 {
		return
	}
	var sb strings.Builder
	for i, pt := range points {
		pt = p.cur.apply(pt)
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(coord(pt.X))
		sb.WriteByte(',')
		sb.WriteString(coord(pt.Y))
	}
	el := p.root.CreateElement("polyline")
	el.CreateAttr("points", sb.String())
	el.CreateAttr("fill", "none")
	p.stroke(el)
}

// genericFamily maps family to SVG font-family list.
func genericFamily(family string) string {
	switch strings.ToLower(family) {
	case "", "serif":
		return "serif"
	case "sans-serif", "go":
		return "sans-serif"
	case "monospace", "mono":
		return "monospace"
	}
	return family + ", serif"
}

func (p *SVGPainter) DrawText(at formula.Point, f formula.Font, text string) {
	at = p.cur.apply(at)
	el := p.root.CreateElement("text")
	if ratio := p.cur.sx / p.cur.sy; round(ratio) != 1 {
		// horizontally stretched operators
		el.CreateAttr("transform", fmt.Sprintf("translate(%s,%s) scale(%s,1)", coord(at.X), coord(at.Y), coord(ratio)))
	} else {
		el.CreateAttr("x", coord(at.X))
		el.CreateAttr("y", coord(at.Y))
	}
	el.CreateAttr("font-family", genericFamily(f.Family))
	el.CreateAttr("font-size", coord(p.fontSize(f)))
	if f.Bold {
		el.CreateAttr("font-weight", "bold")
	}
	if f.Italic {
		el.CreateAttr("font-style", "italic")
	}
	setPaint(el, "fill", p.cur.brush)
	el.CreateAttr("xml:space", "preserve")
	el.SetText(text)
}
