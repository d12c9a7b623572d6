package mathml

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"kfm/formula"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func read(t *testing.T, markup string) (*formula.Document, error) {
	t.Helper()
	doc, err := ReadBytes([]byte(markup), testLogger(t))
	if doc == nil {
		t.Fatalf("Read() returned no document: %v", err)
	}
	if cerr := doc.Check(); cerr != nil {
		t.Fatalf("inconsistent document: %v", cerr)
	}
	return doc, err
}

func kinds(doc *formula.Document, id formula.ID) []formula.Kind {
	var res []formula.Kind
	for _, cid := range doc.ChildElements(id) {
		res = append(res, doc.Kind(cid))
	}
	return res
}

func sameKinds(a, b []formula.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRead(t *testing.T) {
	doc, err := read(t, `<math xmlns="http://www.w3.org/1998/Math/MathML"><mi>x</mi><mo>+</mo><mfrac><mn>1</mn><mn>2</mn></mfrac></math>`)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	root := doc.Root()
	want := []formula.Kind{formula.KindIdentifier, formula.KindOperator, formula.KindFraction}
	if got := kinds(doc, root); !sameKinds(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	frac := doc.ChildElements(root)[2]
	if got := doc.Element(doc.ChildElements(frac)[1]).Text(); got != "2" {
		t.Errorf("denominator = %q, want %q", got, "2")
	}
	if _, ok := doc.Element(root).Attr("xmlns"); ok {
		t.Error("namespace declaration must not become attribute")
	}
}

func TestReadMalformedGlyph(t *testing.T) {
	doc, err := read(t, `<math><mi>a</mi><mrow><mglyph fontfamily="f" alt="x"/><mi>b</mi></mrow><mi>c</mi></math>`)
	if err == nil || !strings.Contains(err.Error(), `"index"`) {
		t.Fatalf("expected missing index error, got %v", err)
	}
	root := doc.Root()
	want := []formula.Kind{formula.KindIdentifier, formula.KindRow, formula.KindIdentifier}
	if got := kinds(doc, root); !sameKinds(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	row := doc.ChildElements(root)[1]
	want = []formula.Kind{formula.KindUnknown, formula.KindIdentifier}
	if got := kinds(doc, row); !sameKinds(got, want) {
		t.Fatalf("row children = %v, want %v", got, want)
	}
	unknown := doc.Element(doc.ChildElements(row)[0])
	if unknown.Tag() != "mglyph" || !strings.Contains(unknown.Raw(), `alt="x"`) {
		t.Errorf("unknown element keeps %q: %q", unknown.Tag(), unknown.Raw())
	}
}

func TestReadInvalidStructure(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []formula.Kind
	}{
		{"wrong arity", `<math><mfrac><mn>1</mn></mfrac><mi>x</mi></math>`, []formula.Kind{formula.KindUnknown, formula.KindIdentifier}},
		{"entry outside of table", `<math><mtd><mn>1</mn></mtd></math>`, []formula.Kind{formula.KindUnknown}},
		{"row outside of table", `<math><mi>y</mi><mtr><mtd/></mtr></math>`, []formula.Kind{formula.KindIdentifier, formula.KindUnknown}},
		{"foreign table content", `<math><mtable><mi>z</mi></mtable></math>`, []formula.Kind{formula.KindUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := read(t, tt.markup)
			if err == nil {
				t.Error("expected error")
			}
			if got := kinds(doc, doc.Root()); !sameKinds(got, tt.want) {
				t.Errorf("root children = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadUnknownTag(t *testing.T) {
	doc, err := read(t, `<math><maction actiontype="toggle"><mi>x</mi></maction></math>`)
	if err != nil {
		t.Fatalf("unsupported tags are not errors: %v", err)
	}
	e := doc.Element(doc.ChildElements(doc.Root())[0])
	if e.Kind() != formula.KindUnknown || e.Tag() != "maction" {
		t.Fatalf("got %v <%s>", e.Kind(), e.Tag())
	}
}

func TestReadNotMathML(t *testing.T) {
	_, err := ReadBytes([]byte(`<html><body/></html>`), testLogger(t))
	if !errors.Is(err, ErrNotMathML) {
		t.Errorf("error = %v, want ErrNotMathML", err)
	}
	if _, err := ReadBytes([]byte(`not markup at all`), testLogger(t)); err == nil {
		t.Error("expected error for text input")
	}
}

func TestReadPlaceholders(t *testing.T) {
	doc, err := read(t, `<math><msqrt/><mfrac><mrow/><mn>2</mn></mfrac></math>`)
	if err != nil {
		t.Fatal(err)
	}
	sqrt, frac := doc.ChildElements(doc.Root())[0], doc.ChildElements(doc.Root())[1]
	if got := kinds(doc, sqrt); !sameKinds(got, []formula.Kind{formula.KindEmpty}) {
		t.Errorf("sqrt children = %v", got)
	}
	if got := kinds(doc, frac); !sameKinds(got, []formula.Kind{formula.KindEmpty, formula.KindNumber}) {
		t.Errorf("fraction children = %v", got)
	}

	empty, err := read(t, `<math/>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := kinds(empty, empty.Root()); !sameKinds(got, []formula.Kind{formula.KindEmpty}) {
		t.Errorf("empty formula children = %v", got)
	}
}

func TestReadTokenText(t *testing.T) {
	doc, err := read(t, "<math><mi> x \n y </mi><mi>e\u0301</mi><mtext>  a  b </mtext></math>")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x y", "\u00e9", "a  b"}
	for i, id := range doc.ChildElements(doc.Root()) {
		if got := doc.Element(id).Text(); got != want[i] {
			t.Errorf("token %d text = %q, want %q", i, got, want[i])
		}
	}
}

func TestReadAttributes(t *testing.T) {
	doc, err := read(t, `<math><mi MathVariant="bold" style="color: red; font-weight: 700; font-family: 'Latin Modern', serif" mathcolor="blue">x</mi></math>`)
	if err != nil {
		t.Fatal(err)
	}
	e := doc.Element(doc.ChildElements(doc.Root())[0])
	tests := []struct {
		name, want string
	}{
		{"mathvariant", "bold"},
		{"mathcolor", "blue"},
		{"fontweight", "bold"},
		{"fontfamily", "Latin Modern"},
	}
	for _, tt := range tests {
		if got, _ := e.Attr(tt.name); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
	if _, ok := e.Attr("style"); ok {
		t.Error("style must be translated, not kept")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"placeholder slot", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mfrac><mrow/><mn>2</mn></mfrac></math>`},
		{"attributes sorted", `<math xmlns="http://www.w3.org/1998/Math/MathML" display="block"><mo fence="true" stretchy="false">(</mo><mi>x</mi></math>`},
		{"table", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mtable><mtr><mtd><mn>1</mn></mtd><mtd><mn>2</mn></mtd></mtr></mtable></math>`},
		{"unknown preserved", `<math xmlns="http://www.w3.org/1998/Math/MathML"><maction actiontype="toggle"><mi>x</mi></maction></math>`},
		{"semantics", `<math xmlns="http://www.w3.org/1998/Math/MathML"><semantics><mrow><mi>x</mi></mrow><annotation encoding="TeX">x</annotation></semantics></math>`},
		{"sqrt", `<math xmlns="http://www.w3.org/1998/Math/MathML"><msqrt><mi>x</mi><mo>+</mo><mn>1</mn></msqrt></math>`},
		{"root", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mroot><mi>x</mi><mn>3</mn></mroot></math>`},
		{"subsup", `<math xmlns="http://www.w3.org/1998/Math/MathML"><msubsup><mi>x</mi><mi>i</mi><mn>2</mn></msubsup></math>`},
		{"underover", `<math xmlns="http://www.w3.org/1998/Math/MathML"><munderover><mo>∑</mo><mrow><mi>i</mi><mo>=</mo><mn>1</mn></mrow><mi>n</mi></munderover></math>`},
		{"fenced", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mfenced close="]" open="["><mi>a</mi><mi>b</mi></mfenced></math>`},
		{"space", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mi>a</mi><mspace width="1em"/><mi>b</mi></math>`},
		{"style", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mstyle mathcolor="red" scriptlevel="1"><mi>x</mi></mstyle></math>`},
		{"text", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mtext>if and only if</mtext></math>`},
		{"glyph", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mglyph alt="x" fontfamily="f" index="3"/></math>`},
		{"glyph in token", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mi><mglyph alt="x" fontfamily="f" index="3"/></mi></math>`},
		{"glyph in styled token", `<math xmlns="http://www.w3.org/1998/Math/MathML"><mo mathcolor="blue" stretchy="false"><mglyph alt="*" fontfamily="f" index="7"/></mo><mi>y</mi></math>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := read(t, tt.markup)
			if err != nil {
				t.Fatal(err)
			}
			out, err := Marshal(doc, WriteOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if string(out) != tt.markup {
				t.Errorf("Marshal() =\n%s\nwant\n%s", out, tt.markup)
			}
		})
	}
}

func TestWriteOptions(t *testing.T) {
	doc := formula.NewDocument(testLogger(t))
	out, err := Marshal(doc, WriteOptions{Declaration: true, NoNamespace: true, Indent: 2})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing declaration: %s", s)
	}
	if !strings.Contains(s, "<math/>") {
		t.Errorf("empty formula must be written as empty math: %s", s)
	}
}

func TestCopyPaste(t *testing.T) {
	src, err := read(t, `<math><mi>a</mi><mo>+</mo><mi>b</mi></math>`)
	if err != nil {
		t.Fatal(err)
	}
	c := formula.NewCursor(src)
	defer c.Close()

	if _, err := Copy(c); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("Copy() without selection error = %v", err)
	}
	c.MoveTo(src.Root(), 0)
	c.SetSelecting(true)
	c.Move(formula.DirectionRight)
	c.Move(formula.DirectionRight)

	data, err := Copy(c)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<kformula><mi>a</mi><mo>+</mo></kformula>`; string(data) != want {
		t.Fatalf("Copy() = %s, want %s", data, want)
	}

	dst := formula.NewDocument(testLogger(t))
	dc := formula.NewCursor(dst)
	defer dc.Close()
	cmd, err := PasteCommand(dc, data, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if !cmd.Execute() {
		t.Fatal("paste did nothing")
	}
	want := []formula.Kind{formula.KindIdentifier, formula.KindOperator}
	if got := kinds(dst, dst.Root()); !sameKinds(got, want) {
		t.Fatalf("pasted children = %v, want %v", got, want)
	}
	cmd.Unexecute()
	if got := kinds(dst, dst.Root()); !sameKinds(got, []formula.Kind{formula.KindEmpty}) {
		t.Errorf("after undo children = %v", got)
	}

	if !CutCommand(c).Execute() {
		t.Fatal("cut did nothing")
	}
	if got := kinds(src, src.Root()); !sameKinds(got, []formula.Kind{formula.KindIdentifier}) {
		t.Errorf("after cut children = %v", got)
	}
}

func TestCopyInsideToken(t *testing.T) {
	doc, err := read(t, `<math><mi mathvariant="bold">abc</mi></math>`)
	if err != nil {
		t.Fatal(err)
	}
	tok := doc.ChildElements(doc.Root())[0]
	c := formula.NewCursor(doc)
	defer c.Close()
	c.MoveTo(tok, 1)
	c.SetSelecting(true)
	c.Move(formula.DirectionEnd)

	data, err := Copy(c)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<kformula><mi mathvariant="bold">bc</mi></kformula>`; string(data) != want {
		t.Errorf("Copy() = %s, want %s", data, want)
	}
}

func TestPasteSingleElement(t *testing.T) {
	doc := formula.NewDocument(testLogger(t))
	c := formula.NewCursor(doc)
	defer c.Close()

	cmd, err := PasteCommand(c, []byte(`<msqrt><mi>x</mi></msqrt>`), testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if !cmd.Execute() {
		t.Fatal("paste did nothing")
	}
	if got := kinds(doc, doc.Root()); !sameKinds(got, []formula.Kind{formula.KindSqrt}) {
		t.Errorf("children = %v", got)
	}

	if _, err := PasteCommand(c, []byte(`<kformula/>`), testLogger(t)); err == nil {
		t.Error("expected error for empty fragment")
	}
}

func TestReadGlyphCarrier(t *testing.T) {
	doc, err := read(t, `<math><mi mathcolor="red"><mglyph alt="x" fontfamily="f" index="3"/></mi></math>`)
	if err != nil {
		t.Fatal(err)
	}
	children := doc.ChildElements(doc.Root())
	if len(children) != 1 || doc.Kind(children[0]) != formula.KindGlyph {
		t.Fatalf("root children = %v, want single glyph", kinds(doc, doc.Root()))
	}
	g := doc.Element(children[0])
	tag, attrs := g.Carrier()
	if tag != "mi" || attrs["mathcolor"] != "red" {
		t.Errorf("Carrier() = %q %v", tag, attrs)
	}
	if _, ok := g.Attr("mathcolor"); ok {
		t.Error("carrier attributes must not be merged into glyph")
	}
	res := formula.NewResolver(nil)
	if v, ok := res.Attribute(doc, g.ID(), "mathcolor"); !ok || v != "red" {
		t.Errorf("resolved mathcolor = %q, %t", v, ok)
	}

	// copy keeps the carrier too
	c := formula.NewCursor(doc)
	defer c.Close()
	if !c.SelectElement(g.ID()) {
		t.Fatal("glyph could not be selected")
	}
	data, err := Copy(c)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<kformula><mi mathcolor="red"><mglyph alt="x" fontfamily="f" index="3"/></mi></kformula>`; string(data) != want {
		t.Errorf("Copy() = %s, want %s", data, want)
	}
}
