package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"

	"kfm/formula"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestAdvance(t *testing.T) {
	p := newProvider(t)
	f := formula.Font{Family: "serif", Size: 12}

	a, ab := p.Advance(f, "a"), p.Advance(f, "ab")
	if a <= 0 || ab <= a {
		t.Fatalf("Advance(a) = %v, Advance(ab) = %v", a, ab)
	}
	if again := p.Advance(f, "ab"); again != ab {
		t.Errorf("memoized advance %v differs from %v", again, ab)
	}
	big := p.Advance(formula.Font{Family: "serif", Size: 24}, "ab")
	if big < ab*1.9 || big > ab*2.1 {
		t.Errorf("advance must scale with size: %v vs %v", big, ab)
	}
	if p.Advance(f, "") != 0 {
		t.Error("empty text must have no advance")
	}
}

func TestMonospace(t *testing.T) {
	p := newProvider(t)
	f := formula.Font{Family: "monospace", Size: 10}
	if i, m := p.Advance(f, "i"), p.Advance(f, "m"); i != m {
		t.Errorf("monospace advances differ: %v vs %v", i, m)
	}
	f.Family = "Mono"
	if p.Advance(f, "i") != p.Advance(f, "m") {
		t.Error("alias must resolve to monospace family")
	}
}

func TestVerticalMetrics(t *testing.T) {
	p := newProvider(t)
	f := formula.Font{Size: 20, Bold: true, Italic: true}
	asc, desc := p.Ascent(f), p.Descent(f)
	if asc <= 0 || desc <= 0 || asc+desc < 20 {
		t.Errorf("ascent %v descent %v for 20pt font", asc, desc)
	}
	if p.Ascent(formula.Font{}) != 0 {
		t.Error("zero size must have no ascent")
	}
}

func TestWithFace(t *testing.T) {
	p := newProvider(t)
	var called bool
	err := p.WithFace(formula.Font{Family: "unknown family", Size: 8}, func(face font.Face) {
		called = face != nil
	})
	if err != nil || !called {
		t.Errorf("WithFace() error = %v, called = %t", err, called)
	}
	p.Flush()
}

func TestRegisterInvalid(t *testing.T) {
	p := newProvider(t)
	if err := p.Register("broken", Regular, []byte("not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestMetricsInLayout(t *testing.T) {
	p := newProvider(t)
	var _ formula.Metrics = p

	doc := formula.NewDocument(nil)
	c := formula.NewCursor(doc)
	defer c.Close()
	c.InsertText("x")
	r := formula.NewResolver(p)
	formula.EnsureLayout(doc, r)
	if w := doc.Element(doc.Root()).Width(); w <= 0 {
		t.Errorf("root width = %v", w)
	}
}

func TestFamilyFromFile(t *testing.T) {
	tests := []struct {
		name   string
		family string
		style  Style
	}{
		{"/fonts/STIX-BoldItalic.otf", "stix", BoldItalic},
		{"Latin Modern-Bold.ttf", "latin modern", Bold},
		{"cmr-oblique.TTF", "cmr", Italic},
		{"plain.ttf", "plain", Regular},
		{"-bold.ttf", "-bold", Regular},
	}
	for _, tt := range tests {
		if family, style := FamilyFromFile(tt.name); family != tt.family || style != tt.style {
			t.Errorf("FamilyFromFile(%q) = %q, %d; want %q, %d", tt.name, family, style, tt.family, tt.style)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Code-Bold.ttf"), gomonobold.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	p := newProvider(t)
	n, err := p.LoadDir(dir)
	if err != nil || n != 1 {
		t.Fatalf("LoadDir() = %d, %v", n, err)
	}
	f := formula.Font{Family: "Code", Size: 12, Bold: true}
	if i, m := p.Advance(f, "i"), p.Advance(f, "m"); i != m {
		t.Errorf("registered monospace font is not used: %v != %v", i, m)
	}
	if _, err := p.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
