package formula

// greekLetters maps Latin letters onto Greek ones the way classic Symbol
// font lays them out.
var greekLetters = map[rune]rune{
	'a': 'α', 'b': 'β', 'c': 'χ', 'd': 'δ', 'e': 'ε', 'f': 'φ', 'g': 'γ', 'h': 'η',
	'i': 'ι', 'j': 'ϕ', 'k': 'κ', 'l': 'λ', 'm': 'μ', 'n': 'ν', 'o': 'ο', 'p': 'π',
	'q': 'θ', 'r': 'ρ', 's': 'σ', 't': 'τ', 'u': 'υ', 'v': 'ϖ', 'w': 'ω', 'x': 'ξ',
	'y': 'ψ', 'z': 'ζ',
	'A': 'Α', 'B': 'Β', 'C': 'Χ', 'D': 'Δ', 'E': 'Ε', 'F': 'Φ', 'G': 'Γ', 'H': 'Η',
	'I': 'Ι', 'J': 'ϑ', 'K': 'Κ', 'L': 'Λ', 'M': 'Μ', 'N': 'Ν', 'O': 'Ο', 'P': 'Π',
	'Q': 'Θ', 'R': 'Ρ', 'S': 'Σ', 'T': 'Τ', 'U': 'Υ', 'V': 'ς', 'W': 'Ω', 'X': 'Ξ',
	'Y': 'Ψ', 'Z': 'Ζ',
}

// Greek returns Greek counterpart of Latin letter.
func Greek(r rune) (rune, bool) {
	g, ok := greekLetters[r]
	return g, ok
}

// letterBefore returns identifier token and offset of the character right
// before the cursor.
func (c *Cursor) letterBefore() (ID, int, bool) {
	d := c.doc
	switch hk := d.Kind(c.host); {
	case hk == KindIdentifier && c.pos > 0:
		return c.host, c.pos - 1, true
	case hk.IsInferredRow() && c.pos > 0:
		prev := d.elems[c.host].children[c.pos-1]
		if n := d.Length(prev); d.Kind(prev) == KindIdentifier && n > 0 {
			return prev, n - 1, true
		}
	}
	return NoID, 0, false
}

// MakeGreek turns Latin letter before the cursor into Greek one. Only
// identifiers are changed.
func (c *Cursor) MakeGreek() bool {
	if !c.writable() || c.HasSelection() {
		return false
	}
	tok, at, ok := c.letterBefore()
	if !ok {
		return false
	}
	d := c.doc
	g, ok := Greek(d.elems[tok].text[at])
	if !ok {
		return false
	}
	host, pos := c.host, c.pos
	d.RemoveText(tok, at, 1)
	d.InsertText(tok, at, string(g))
	c.set(host, pos)
	return true
}
