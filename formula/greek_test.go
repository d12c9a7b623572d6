package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreek(t *testing.T) {
	for in, want := range map[rune]rune{'a': 'α', 'p': 'π', 'q': 'θ', 'W': 'Ω', 'G': 'Γ'} {
		got, ok := Greek(in)
		assert.True(t, ok)
		assert.Equal(t, string(want), string(got))
	}
	_, ok := Greek('1')
	assert.False(t, ok)
	_, ok = Greek('α')
	assert.False(t, ok)
}

func TestMakeGreek(t *testing.T) {
	doc := newTestDocument(t)
	c := NewCursor(doc)
	defer c.Close()
	h := NewHistory(doc, 0)

	require.True(t, h.Execute(InsertTextCommand(c, "ab")))
	tok := c.Current()
	require.True(t, h.Execute(MakeGreekCommand(c)))
	assert.Equal(t, "aβ", doc.Element(tok).Text())
	assert.Equal(t, tok, c.Current())
	assert.Equal(t, 2, c.Position())

	// already greek
	assert.False(t, h.Execute(MakeGreekCommand(c)))

	require.True(t, c.MoveTo(tok, 1))
	require.True(t, h.Execute(MakeGreekCommand(c)))
	assert.Equal(t, "αβ", doc.Element(tok).Text())
	assert.Equal(t, 1, c.Position())

	require.True(t, h.Undo())
	assert.Equal(t, "aβ", doc.Element(tok).Text())
	require.True(t, h.Undo())
	assert.Equal(t, "ab", doc.Element(tok).Text())
	require.NoError(t, doc.Check())
}

func TestMakeGreekFromRow(t *testing.T) {
	doc := newTestDocument(t)
	buildFraction(t, doc)
	c := NewCursor(doc)
	defer c.Close()

	// gap right after "a"
	require.True(t, c.MoveTo(doc.Root(), 1))
	require.True(t, c.MakeGreek())
	assert.Equal(t, "α", doc.Element(doc.Element(doc.Root()).Child(0)).Text())
	assert.Equal(t, doc.Root(), c.Current())
	assert.Equal(t, 1, c.Position())

	// numbers and fractions are left alone
	require.True(t, c.MoveTo(doc.Root(), 2))
	assert.False(t, c.MakeGreek())
	require.True(t, c.MoveTo(doc.Root(), 0))
	assert.False(t, c.MakeGreek())
}
