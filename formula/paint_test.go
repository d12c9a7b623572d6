package formula

import (
	"image/color"
	"strings"
	"testing"
)

type recordingPainter struct {
	depth int
	ops   []string
	texts []string
}

func (p *recordingPainter) Save() { p.depth++ }
func (p *recordingPainter) Restore() { p.depth-- }
func (p *recordingPainter) Translate(dx, dy float64) {}
func (p *recordingPainter) Scale(sx, sy float64) { p.ops = append(p.ops, "scale") }
func (p *recordingPainter) SetPen(Pen) {}
func (p *recordingPainter) SetBrush(color.RGBA) {}
func (p *recordingPainter) DrawLine(a, b Point) { p.ops = append(p.ops, "line") }
func (p *recordingPainter) DrawRect(r Rect) { p.ops = append(p.ops, "rect") }
func (p *recordingPainter) DrawPath(points []Point) { p.ops = append(p.ops, "path") }
func (p *recordingPainter) DrawText(at Point, f Font, text string) {
	p.ops = append(p.ops, "text")
	p.texts = append(p.texts, text)
}

func TestPaint(t *testing.T) {
	doc := newTestDocument(t)
	typeFormula(t, doc)
	p := &recordingPainter{}

	Paint(doc, NewResolver(nil), p, PaintOptions{})

	if p.depth != 0 {
		t.Errorf("unbalanced Save/Restore: %d", p.depth)
	}
	if got := strings.Join(p.texts, " "); got != "1 2 + x 2" {
		t.Errorf("texts = %q", got)
	}
	ops := strings.Join(p.ops, ",")
	if !strings.Contains(ops, "line") || !strings.Contains(ops, "path") {
		t.Errorf("fraction rule or radical missing: %s", ops)
	}
	if doc.Dirty() {
		t.Error("Paint() must leave layout current")
	}
}

func TestPaintPlaceholders(t *testing.T) {
	doc := newTestDocument(t)
	r := NewResolver(nil)

	p := &recordingPainter{}
	Paint(doc, r, p, PaintOptions{})
	if len(p.ops) != 1 || p.ops[0] != "rect" {
		t.Errorf("placeholder ops = %v", p.ops)
	}

	p = &recordingPainter{}
	Paint(doc, r, p, PaintOptions{HidePlaceholders: true})
	if len(p.ops) != 0 {
		t.Errorf("hidden placeholder ops = %v", p.ops)
	}
}

func TestPaintCursor(t *testing.T) {
	doc := newTestDocument(t)
	typeFormula(t, doc)
	c := NewCursor(doc)
	c.MoveTo(doc.Root(), 0)
	c.SetSelecting(true)
	c.Move(DirectionEnd)

	p := &recordingPainter{}
	PaintCursor(c, NewResolver(nil), p)
	if strings.Join(p.ops, ",") != "rect,line" {
		t.Errorf("cursor ops = %v", p.ops)
	}
}
