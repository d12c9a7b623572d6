package formula

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertFractionIntoEmptyFormula(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	defer c.Close()

	placeholder := doc.Element(doc.Root()).Child(0)
	require.Equal(t, placeholder, c.Current())
	require.Equal(t, 0, c.Position())

	require.True(t, AddElementCommand(c, KindFraction).Execute())

	root := doc.Element(doc.Root())
	require.Equal(t, 1, root.NumChildren())
	frac := doc.Element(root.Child(0))
	require.Equal(t, KindFraction, frac.Kind())
	require.Equal(t, 2, frac.NumChildren())
	assert.Equal(t, KindEmpty, doc.Kind(frac.Child(SlotNumerator)))
	assert.Equal(t, KindEmpty, doc.Kind(frac.Child(SlotDenominator)))

	assert.Equal(t, frac.Child(SlotNumerator), c.Current())
	assert.Equal(t, 0, c.Position())
	assert.False(t, doc.Attached(placeholder))
	require.NoError(t, doc.Check())
}

func TestTypeAndBackspace(t *testing.T) {
	doc := newTestDocument(t)
	row := doc.NewBare(KindRow)
	require.True(t, doc.ReplaceChild(doc.Element(doc.Root()).Child(0), row))

	c := NewCursor(doc)
	defer c.Close()
	require.True(t, c.MoveTo(row, 0))

	require.True(t, c.InsertText("1"))
	tok := c.Current()
	require.Equal(t, KindNumber, doc.Kind(tok))
	require.Equal(t, "1", doc.Element(tok).Text())
	require.Equal(t, 1, c.Position())
	require.Equal(t, row, doc.Parent(tok))

	require.True(t, c.InsertText("2"))
	require.Equal(t, tok, c.Current())
	require.Equal(t, "12", doc.Element(tok).Text())
	require.Equal(t, 2, c.Position())

	require.True(t, c.Remove(true))
	require.Equal(t, tok, c.Current())
	require.Equal(t, "1", doc.Element(tok).Text())
	require.Equal(t, 1, c.Position())
	require.NoError(t, doc.Check())
}

func TestInsertTextClassification(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"7", KindNumber},
		{"x", KindIdentifier},
		{"α", KindIdentifier},
		{"+", KindOperator},
		{"=", KindOperator},
		{"?", KindOperator},
		{"∑", KindOperator},
		{" a", KindIdentifier},
		{"\t12 ", KindNumber},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			doc := newTestDocument(t)
			c := NewCursor(doc)
			require.True(t, c.InsertText(tt.text))
			assert.Equal(t, tt.kind, doc.Kind(c.Current()))
			assert.Equal(t, strings.TrimSpace(tt.text), doc.Element(c.Current()).Text())
		})
	}
}

func TestTextTokenKeepsSpaces(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	defer c.Close()
	require.True(t, c.InsertData("mtext"))
	require.True(t, c.InsertText("if "))
	require.True(t, c.InsertText(" and"))
	assert.Equal(t, KindText, doc.Kind(c.Current()))
	assert.Equal(t, "if  and", doc.Element(c.Current()).Text())
}

func TestInsertNextToPlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		gap    int
		insert func(c *Cursor) bool
		kind   Kind
	}{
		{"type after placeholder", 1, func(c *Cursor) bool { return c.InsertText("1") }, KindNumber},
		{"type before placeholder", 0, func(c *Cursor) bool { return c.InsertText("x") }, KindIdentifier},
		{"fraction before placeholder", 0, func(c *Cursor) bool { return c.InsertData("mfrac") }, KindFraction},
		{"fraction after placeholder", 1, func(c *Cursor) bool { return c.InsertData("mfrac") }, KindFraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument(t)
			c := NewCursor(doc)
			defer c.Close()
			root := doc.Root()
			require.Equal(t, KindEmpty, doc.Kind(c.Current()))

			// gap of the root next to the placeholder
			require.True(t, c.MoveTo(root, tt.gap))
			h := NewHistory(doc, 0)
			require.True(t, h.Execute(NewCommand("insert", c, tt.insert)))

			children := doc.ChildElements(root)
			require.Len(t, children, 1, "placeholder must give way to content")
			assert.Equal(t, tt.kind, doc.Kind(children[0]))
			require.NoError(t, doc.Check())

			require.True(t, h.Undo())
			children = doc.ChildElements(root)
			require.Len(t, children, 1)
			assert.Equal(t, KindEmpty, doc.Kind(children[0]))
			require.NoError(t, doc.Check())
		})
	}
}

func TestTypingBuildsTokens(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)

	for _, s := range []string{"x", "+", "1", "2"} {
		require.True(t, c.InsertText(s), "typing %q", s)
	}
	root := doc.Element(doc.Root())
	require.Equal(t, 3, root.NumChildren())
	assert.Equal(t, "x", doc.Element(root.Child(0)).Text())
	assert.Equal(t, "+", doc.Element(root.Child(1)).Text())
	assert.Equal(t, "12", doc.Element(root.Child(2)).Text())
	assert.Equal(t, root.Child(2), c.Current())
	assert.Equal(t, 2, c.Position())

	assert.False(t, c.InsertText(" "), "whitespace must be ignored")
	require.NoError(t, doc.Check())
}

func TestReadOnlyIsNoop(t *testing.T) {
	doc := newTestDocument(t)
	doc.ReadOnly = true
	c := NewCursor(doc)
	before := c.state()

	assert.False(t, c.InsertText("1"))
	assert.False(t, c.InsertData("mfrac"))
	assert.False(t, c.Remove(true))
	assert.False(t, AddElementCommand(c, KindSqrt).Execute())
	assert.Equal(t, before, c.state())
	assert.Equal(t, KindEmpty, doc.Kind(doc.Element(doc.Root()).Child(0)))
}

func TestSplitToken(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertText("abc"))
	tok := c.Current()
	doc.SetAttribute(tok, "mathvariant", "bold")
	require.True(t, c.MoveTo(tok, 1))

	require.True(t, c.SplitToken())

	root := doc.Element(doc.Root())
	require.Equal(t, 2, root.NumChildren())
	left, right := doc.Element(root.Child(0)), doc.Element(root.Child(1))
	assert.Equal(t, "a", left.Text())
	assert.Equal(t, "bc", right.Text())
	assert.Equal(t, KindIdentifier, right.Kind())
	v, _ := right.Attr("mathvariant")
	assert.Equal(t, "bold", v)
	assert.Equal(t, doc.Root(), c.Current())
	assert.Equal(t, 1, c.Position())

	require.True(t, c.MoveTo(root.Child(1), 2))
	assert.False(t, c.SplitToken(), "split at token end")
}

func TestInsertElementInsideToken(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertText("ab"))
	require.True(t, c.MoveTo(c.Current(), 1))

	require.True(t, c.InsertData("msqrt"))

	root := doc.Element(doc.Root())
	require.Equal(t, 3, root.NumChildren())
	assert.Equal(t, "a", doc.Element(root.Child(0)).Text())
	assert.Equal(t, KindSqrt, doc.Kind(root.Child(1)))
	assert.Equal(t, "b", doc.Element(root.Child(2)).Text())
	sqrt := doc.Element(root.Child(1))
	assert.Equal(t, sqrt.Child(0), c.Current(), "cursor goes into new placeholder")
	require.NoError(t, doc.Check())
}

func TestSplitTokenInFixedSlot(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertData("mfrac"))
	require.True(t, c.InsertText("xy"))
	tok := c.Current()
	frac := doc.Parent(tok)
	require.Equal(t, KindFraction, doc.Kind(frac))
	require.True(t, c.MoveTo(tok, 1))

	require.True(t, c.SplitToken())

	num := doc.Element(frac).Child(SlotNumerator)
	require.Equal(t, KindRow, doc.Kind(num), "slot is wrapped into row")
	require.Equal(t, 2, doc.Length(num))
	assert.Equal(t, num, c.Current())
	assert.Equal(t, 1, c.Position())
	require.NoError(t, doc.Check())
}

func TestRemovePlaceholderRemovesParent(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertText("a"))
	require.True(t, c.InsertData("mfrac"))
	root := doc.Element(doc.Root())
	require.Equal(t, 2, root.NumChildren())

	require.True(t, c.Remove(true))

	require.Equal(t, 1, root.NumChildren())
	assert.Equal(t, "a", doc.Element(root.Child(0)).Text())
	assert.Equal(t, doc.Root(), c.Current())
	assert.Equal(t, 1, c.Position())
	require.NoError(t, doc.Check())
}

func TestRemoveRefillsFixedSlot(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertData("mfrac"))
	require.True(t, c.InsertText("x"))
	frac := doc.Parent(c.Current())

	require.True(t, c.Remove(true))

	num := doc.Element(frac).Child(SlotNumerator)
	assert.Equal(t, KindEmpty, doc.Kind(num))
	assert.Equal(t, num, c.Current())
	require.NoError(t, doc.Check())
}

func TestRemoveCollapsesRow(t *testing.T) {
	doc := newTestDocument(t)
	row := doc.NewBare(KindRow)
	doc.AppendChild(row, doc.NewToken(KindIdentifier, "a"))
	doc.AppendChild(row, doc.NewToken(KindOperator, "+"))
	require.True(t, doc.ReplaceChild(doc.Element(doc.Root()).Child(0), row))

	c := NewCursor(doc)
	require.True(t, c.MoveTo(row, 2))
	require.True(t, c.Remove(true))

	root := doc.Element(doc.Root())
	require.Equal(t, 1, root.NumChildren())
	assert.Equal(t, KindIdentifier, doc.Kind(root.Child(0)), "single child row is replaced by its child")
	assert.False(t, doc.Attached(row))
	assert.Equal(t, doc.Root(), c.Current())
	assert.Equal(t, 1, c.Position())
	require.NoError(t, doc.Check())
}

func TestRemoveSelection(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertText("abcd"))
	tok := c.Current()
	require.True(t, c.MoveTo(tok, 1))
	c.SetSelecting(true)
	require.True(t, c.Move(DirectionRight))
	require.True(t, c.Move(DirectionRight))
	require.True(t, c.HasSelection())

	require.True(t, c.InsertText("x"), "typing replaces selection")
	assert.Equal(t, "axd", doc.Element(tok).Text())
	assert.False(t, c.HasSelection())
}

func TestTableKeywords(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	require.True(t, c.InsertData("mtable"))
	table := doc.Element(doc.Root()).Child(0)
	require.Equal(t, KindTable, doc.Kind(table))
	require.Equal(t, 2, doc.Length(table))

	require.True(t, c.InsertData("mtd"))
	for _, r := range doc.Element(table).Children() {
		assert.Equal(t, 3, doc.Length(r))
	}
	require.True(t, c.InsertData("mtr"))
	assert.Equal(t, 3, doc.Length(table))
	require.NoError(t, doc.Check())

	assert.False(t, c.InsertData("nonsense"))
}

func TestRemoveEnclosingFraction(t *testing.T) {
	doc := newTestDocument(t)
	frac := buildFraction(t, doc)
	before := doc.Clone(doc.Root())
	c := NewCursor(doc)
	defer c.Close()
	h := NewHistory(doc, 0)

	num := doc.Element(frac).Child(SlotNumerator)
	require.True(t, c.MoveTo(doc.Element(frac).Child(SlotDenominator), 1))
	require.True(t, h.Execute(RemoveEnclosingCommand(c)))

	root := doc.Root()
	require.Equal(t, []Kind{KindIdentifier, KindNumber}, childKinds(doc, root))
	assert.Equal(t, num, doc.Element(root).Child(1), "numerator is kept as is")
	assert.Equal(t, root, c.Current())
	assert.Equal(t, 2, c.Position())
	require.NoError(t, doc.Check())

	require.True(t, h.Undo())
	assert.True(t, Equal(doc, root, doc, before), Diff(doc, root, doc, before))
	require.NoError(t, doc.Check())
}

func TestRemoveEnclosingSqrt(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	defer c.Close()
	require.True(t, c.InsertData("msqrt"))
	for _, s := range []string{"x", "+", "1"} {
		require.True(t, c.InsertText(s))
	}
	require.True(t, c.RemoveEnclosing())

	root := doc.Root()
	assert.Equal(t, []Kind{KindIdentifier, KindOperator, KindNumber}, childKinds(doc, root))
	assert.Equal(t, root, c.Current())
	assert.Equal(t, 3, c.Position())
	require.NoError(t, doc.Check())
}

func TestRemoveEnclosingInFixedSlot(t *testing.T) {
	doc := newTestDocument(t)
	sup := doc.NewElement(KindSup)
	frac := doc.NewElement(KindFraction)
	require.True(t, doc.ReplaceChild(doc.Element(frac).Child(SlotNumerator), doc.NewToken(KindNumber, "1")))
	require.True(t, doc.ReplaceChild(doc.Element(sup).Child(SlotBase), frac))
	require.True(t, doc.ReplaceChild(doc.Element(doc.Root()).Child(0), sup))

	c := NewCursor(doc)
	defer c.Close()
	require.True(t, c.MoveTo(doc.Element(frac).Child(SlotDenominator), 0))
	require.True(t, c.RemoveEnclosing())

	base := doc.Element(sup).Child(SlotBase)
	assert.Equal(t, KindNumber, doc.Kind(base))
	assert.Equal(t, base, c.Current())
	assert.Equal(t, 1, c.Position())
	assert.Equal(t, KindSup, doc.Kind(doc.Element(doc.Root()).Child(0)), "only the closest element goes")
	require.NoError(t, doc.Check())
}

func TestRemoveEnclosingNothing(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	defer c.Close()
	require.True(t, c.InsertText("x"))
	assert.False(t, c.RemoveEnclosing())

	require.True(t, AddElementCommand(c, KindFraction).Execute())
	require.True(t, c.RemoveEnclosing(), "empty fraction is simply removed")
	assert.Equal(t, []Kind{KindIdentifier}, childKinds(doc, doc.Root()))
	require.NoError(t, doc.Check())
}

func childKinds(doc *Document, id ID) []Kind {
	var kinds []Kind
	for _, child := range doc.Element(id).Children() {
		kinds = append(kinds, doc.Kind(child))
	}
	return kinds
}
