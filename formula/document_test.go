package formula

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	return NewDocument(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func TestNewDocument(t *testing.T) {
	doc := newTestDocument(t)

	root := doc.Element(doc.Root())
	if root == nil || root.Kind() != KindFormula {
		t.Fatalf("expected formula root, got %v", root)
	}
	if root.NumChildren() != 1 || doc.Kind(root.Child(0)) != KindEmpty {
		t.Fatalf("expected single placeholder in root, got %v", root.Children())
	}
	if !doc.Dirty() {
		t.Error("new document must need layout")
	}
	if err := doc.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestNewElementPlaceholders(t *testing.T) {
	doc := newTestDocument(t)

	tests := []struct {
		kind     Kind
		children int
	}{
		{KindFraction, 2},
		{KindRoot, 2},
		{KindSub, 2},
		{KindSup, 2},
		{KindSubsup, 3},
		{KindUnder, 2},
		{KindOver, 2},
		{KindUnderover, 3},
		{KindSqrt, 1},
		{KindFenced, 1},
		{KindRow, 0},
		{KindTable, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			id := doc.NewElement(tt.kind)
			e := doc.Element(id)
			if e.NumChildren() != tt.children {
				t.Fatalf("%s has %d children, want %d", tt.kind, e.NumChildren(), tt.children)
			}
			if tt.kind.IsFixed() {
				for _, c := range e.Children() {
					if doc.Kind(c) != KindEmpty {
						t.Errorf("slot %d is %s, want empty", c, doc.Kind(c))
					}
				}
			}
			if e.Parent() != NoID {
				t.Error("new element must be detached")
			}
		})
	}
}

func TestArity(t *testing.T) {
	doc := newTestDocument(t)
	frac := doc.NewElement(KindFraction)

	if doc.InsertChild(frac, 0, doc.NewToken(KindNumber, "1")) {
		t.Error("fraction must not accept insertion")
	}
	if doc.AppendChild(frac, doc.NewToken(KindNumber, "1")) {
		t.Error("full fraction must not accept more children")
	}
	if doc.RemoveChild(frac, doc.Element(frac).Child(0)) {
		t.Error("fraction slot must not be removable")
	}
	tok := doc.NewToken(KindNumber, "1")
	if !doc.ReplaceChild(doc.Element(frac).Child(0), tok) {
		t.Fatal("slot replacement failed")
	}
	if doc.Element(frac).Child(SlotNumerator) != tok || doc.Parent(tok) != frac {
		t.Error("replaced slot is not linked")
	}
}

func TestNesting(t *testing.T) {
	doc := newTestDocument(t)
	root := doc.Root()

	if doc.InsertChild(root, 0, doc.NewBare(KindTablerow)) {
		t.Error("table row accepted outside of table")
	}
	if doc.InsertChild(root, 0, doc.NewBare(KindTableentry)) {
		t.Error("table entry accepted outside of table row")
	}
	if doc.InsertChild(root, 0, doc.NewBare(KindFormula)) {
		t.Error("nested formula accepted")
	}
	tok := doc.NewToken(KindIdentifier, "x")
	if doc.AppendChild(tok, doc.NewToken(KindIdentifier, "y")) {
		t.Error("token accepted child")
	}
	row := doc.NewBare(KindRow)
	if !doc.InsertChild(root, 1, row) {
		t.Fatal("row rejected")
	}
	if doc.InsertChild(row, 0, row) {
		t.Error("element inserted into itself")
	}
	if doc.InsertChild(row, 0, root) {
		t.Error("root inserted into its descendant")
	}
	if err := doc.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestTextOperations(t *testing.T) {
	doc := newTestDocument(t)
	tok := doc.NewToken(KindIdentifier, "sin")

	if !doc.InsertText(tok, 3, "h") {
		t.Fatal("InsertText failed")
	}
	if got := doc.Element(tok).Text(); got != "sinh" {
		t.Errorf("text = %q, want %q", got, "sinh")
	}
	removed, ok := doc.RemoveText(tok, 0, 2)
	if !ok || removed != "si" {
		t.Errorf("RemoveText = %q, %t", removed, ok)
	}
	if _, ok := doc.RemoveText(tok, 1, 5); ok {
		t.Error("RemoveText past the end succeeded")
	}
	if doc.InsertText(doc.NewBare(KindRow), 0, "x") {
		t.Error("text inserted into row")
	}
	if !doc.SetText(tok, "αβ") || doc.Length(tok) != 2 {
		t.Errorf("SetText: length %d", doc.Length(tok))
	}
}

func TestAttributes(t *testing.T) {
	doc := newTestDocument(t)
	id := doc.NewElement(KindFraction)

	if !doc.SetAttribute(id, "linethickness", "2") {
		t.Fatal("SetAttribute failed")
	}
	if doc.SetAttribute(id, "linethickness", "2") {
		t.Error("SetAttribute with the same value reported change")
	}
	if v, ok := doc.Element(id).Attr("linethickness"); !ok || v != "2" {
		t.Errorf("attribute = %q, %t", v, ok)
	}
	if !doc.RemoveAttribute(id, "linethickness") || doc.RemoveAttribute(id, "linethickness") {
		t.Error("RemoveAttribute reported wrong status")
	}
}

type recorder struct {
	vanished []ID
	shifts   []string
}

func (r *recorder) WillVanish(id ID) { r.vanished = append(r.vanished, id) }
func (r *recorder) Shifted(host ID, index, delta int) {
	r.shifts = append(r.shifts, strings.Repeat("+", max(delta, 0))+strings.Repeat("-", max(-delta, 0)))
}

func TestObservers(t *testing.T) {
	doc := newTestDocument(t)
	rec := &recorder{}
	doc.Register(rec)

	placeholder := doc.Element(doc.Root()).Child(0)
	tok := doc.NewToken(KindNumber, "12")
	doc.InsertChild(doc.Root(), 1, tok)
	doc.RemoveChild(doc.Root(), placeholder)
	doc.InsertText(tok, 2, "3")

	if len(rec.vanished) != 1 || rec.vanished[0] != placeholder {
		t.Errorf("vanished = %v, want [%d]", rec.vanished, placeholder)
	}
	if got := strings.Join(rec.shifts, ","); got != "+,-,+" {
		t.Errorf("shifts = %q", got)
	}

	doc.Unregister(rec)
	doc.RemoveChild(doc.Root(), tok)
	if len(rec.vanished) != 1 {
		t.Error("unregistered observer was notified")
	}
}

func TestCloneAndEqual(t *testing.T) {
	doc := newTestDocument(t)
	frac := doc.NewElement(KindFraction)
	doc.SetAttribute(frac, "bevelled", "true")
	doc.ReplaceChild(doc.Element(frac).Child(0), doc.NewToken(KindNumber, "1"))

	clone := doc.Clone(frac)
	if clone == frac || doc.Parent(clone) != NoID {
		t.Fatal("clone must be a new detached element")
	}
	if !Equal(doc, frac, doc, clone) {
		t.Fatalf("clone differs: %s", Diff(doc, frac, doc, clone))
	}
	doc.SetText(doc.Element(clone).Child(0), "2")
	if Equal(doc, frac, doc, clone) {
		t.Error("modified clone reported equal")
	}
	if d := Diff(doc, frac, doc, clone); !strings.Contains(d, "text") {
		t.Errorf("Diff() = %q", d)
	}
}

func TestSweep(t *testing.T) {
	doc := newTestDocument(t)
	frac := doc.NewElement(KindFraction)
	placeholder := doc.Element(doc.Root()).Child(0)
	doc.ReplaceChild(placeholder, frac)

	// replaced placeholder and stray token go away
	doc.NewToken(KindIdentifier, "lost")
	if n := doc.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if doc.Element(placeholder) != nil {
		t.Error("detached placeholder survived")
	}
	if doc.Element(frac) == nil || doc.Kind(doc.Element(frac).Child(0)) != KindEmpty {
		t.Error("attached elements were freed")
	}
}

func TestDump(t *testing.T) {
	doc := newTestDocument(t)
	doc.ReplaceChild(doc.Element(doc.Root()).Child(0), doc.NewToken(KindIdentifier, "x"))

	out := Dump(doc)
	for _, want := range []string{"formula <math>", "identifier <mi>", `text: "x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q:\n%s", want, out)
		}
	}
}
