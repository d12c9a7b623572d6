package formula

import (
	"strings"
)

var texSymbols = map[rune]string{
	'α': `\alpha`, 'β': `\beta`, 'γ': `\gamma`, 'δ': `\delta`, 'ε': `\epsilon`, 'ζ': `\zeta`,
	'η': `\eta`, 'θ': `\theta`, 'ι': `\iota`, 'κ': `\kappa`, 'λ': `\lambda`, 'μ': `\mu`,
	'ν': `\nu`, 'ξ': `\xi`, 'π': `\pi`, 'ρ': `\rho`, 'σ': `\sigma`, 'τ': `\tau`,
	'υ': `\upsilon`, 'φ': `\phi`, 'χ': `\chi`, 'ψ': `\psi`, 'ω': `\omega`,
	'Γ': `\Gamma`, 'Δ': `\Delta`, 'Θ': `\Theta`, 'Λ': `\Lambda`, 'Ξ': `\Xi`, 'Π': `\Pi`,
	'Σ': `\Sigma`, 'Φ': `\Phi`, 'Ψ': `\Psi`, 'Ω': `\Omega`,
	'∑': `\sum`, '∏': `\prod`, '∫': `\int`, '∮': `\oint`, '∞': `\infty`, '∂': `\partial`,
	'∇': `\nabla`, '≤': `\leq`, '≥': `\geq`, '≠': `\neq`, '≈': `\approx`, '≡': `\equiv`,
	'±': `\pm`, '∓': `\mp`, '×': `\times`, '÷': `\div`, '⋅': `\cdot`, '∘': `\circ`,
	'→': `\to`, '←': `\leftarrow`, '⇒': `\Rightarrow`, '⇔': `\Leftrightarrow`,
	'∈': `\in`, '∉': `\notin`, '⊂': `\subset`, '⊆': `\subseteq`, '∪': `\cup`, '∩': `\cap`,
	'∀': `\forall`, '∃': `\exists`, '¬': `\neg`, '∧': `\wedge`, '∨': `\vee`, '…': `\ldots`,
}

var texAccents = map[string]string{
	"^": `\hat`, "ˆ": `\hat`, "~": `\tilde`, "˜": `\tilde`, "¯": `\bar`, "‾": `\overline`,
	"→": `\vec`, "˙": `\dot`, "¨": `\ddot`,
}

// ToLatex converts formula to LaTeX math source.
func ToLatex(doc *Document) string {
	var b strings.Builder
	doc.tex(&b, doc.root)
	return strings.TrimSpace(b.String())
}

func texEscape(b *strings.Builder, text string) {
	for _, r := range text {
		if s, ok := texSymbols[r]; ok {
			b.WriteString(s)
			b.WriteByte(' ')
			continue
		}
		switch r {
		case '#', '$', '%', '&', '_', '{', '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '~':
			b.WriteString(`\sim `)
		case '^':
			b.WriteString(`\wedge `)
		case '\\':
			b.WriteString(`\backslash `)
		default:
			b.WriteRune(r)
		}
	}
}

func (d *Document) texGroup(b *strings.Builder, id ID) {
	b.WriteByte('{')
	d.tex(b, id)
	b.WriteByte('}')
}

func (d *Document) texChild(b *strings.Builder, e *Element, i int) {
	if i < len(e.children) {
		d.texGroup(b, e.children[i])
		return
	}
	b.WriteString("{}")
}

func (d *Document) tex(b *strings.Builder, id ID) {
	e := d.el(id)
	if e == nil {
		return
	}
	switch e.kind {
	case KindFormula, KindRow, KindStyle, KindTableentry:
		for _, c := range e.children {
			d.tex(b, c)
		}

	case KindIdentifier:
		if len(e.text) > 1 {
			b.WriteString(`\mathrm{`)
			texEscape(b, string(e.text))
			b.WriteByte('}')
			return
		}
		texEscape(b, string(e.text))

	case KindNumber, KindOperator:
		texEscape(b, string(e.text))

	case KindText:
		b.WriteString(`\text{`)
		texEscape(b, string(e.text))
		b.WriteByte('}')

	case KindSpace:
		b.WriteString(`\,`)

	case KindGlyph:
		texEscape(b, e.attrs["alt"])

	case KindFraction:
		b.WriteString(`\frac`)
		d.texChild(b, e, SlotNumerator)
		d.texChild(b, e, SlotDenominator)

	case KindSqrt:
		b.WriteString(`\sqrt{`)
		for _, c := range e.children {
			d.tex(b, c)
		}
		b.WriteByte('}')

	case KindRoot:
		b.WriteString(`\sqrt[`)
		if len(e.children) > SlotIndex {
			d.tex(b, e.children[SlotIndex])
		}
		b.WriteByte(']')
		d.texChild(b, e, SlotRadicand)

	case KindSub, KindSup, KindSubsup:
		d.texChild(b, e, SlotBase)
		if i := e.kind.subSlot(); i > 0 {
			b.WriteByte('_')
			d.texChild(b, e, i)
		}
		if i := e.kind.supSlot(); i > 0 {
			b.WriteByte('^')
			d.texChild(b, e, i)
		}

	case KindUnder, KindOver, KindUnderover:
		d.texUnderOver(b, e)

	case KindFenced:
		open, close := "(", ")"
		if v, ok := e.attrs["open"]; ok {
			open = v
		}
		if v, ok := e.attrs["close"]; ok {
			close = v
		}
		seps := []rune(",")
		if v, ok := e.attrs["separators"]; ok {
			seps = []rune(strings.Join(strings.Fields(v), ""))
		}
		b.WriteString(`\left` + texFence(open) + " ")
		for i, c := range e.children {
			if i > 0 && len(seps) > 0 {
				b.WriteRune(seps[min(i-1, len(seps)-1)])
				b.WriteByte(' ')
			}
			d.tex(b, c)
		}
		b.WriteString(` \right` + texFence(close))

	case KindTable:
		b.WriteString(`\begin{matrix}`)
		for i, row := range e.children {
			if i > 0 {
				b.WriteString(` \\ `)
			}
			for j, entry := range d.elems[row].children {
				if j > 0 {
					b.WriteString(" & ")
				}
				d.tex(b, entry)
			}
		}
		b.WriteString(`\end{matrix}`)

	case KindEmpty:
		b.WriteString("{}")
	}
}

func texFence(s string) string {
	switch s {
	case "":
		return "."
	case "{":
		return `\{`
	case "}":
		return `\}`
	case "⟨", "〈":
		return `\langle`
	case "⟩", "〉":
		return `\rangle`
	case "|", "(", ")", "[", "]":
		return s
	case "‖":
		return `\|`
	}
	return "."
}

func (d *Document) texUnderOver(b *strings.Builder, e *Element) {
	under, over := e.kind.subSlot(), e.kind.supSlot()
	if len(e.children) == 0 {
		return
	}
	base := d.elems[e.children[SlotBase]]

	// large operators take plain limits
	if base.kind == KindOperator && len(base.text) == 1 && texLimits(base.text[0]) {
		d.tex(b, base.id)
		if under > 0 {
			b.WriteByte('_')
			d.texChild(b, e, under)
		}
		if over > 0 {
			b.WriteByte('^')
			d.texChild(b, e, over)
		}
		return
	}

	if over > 0 && under < 0 && len(e.children) > over {
		if acc := d.elems[e.children[over]]; acc.kind == KindOperator {
			if cmd, ok := texAccents[string(acc.text)]; ok {
				b.WriteString(cmd)
				d.texGroup(b, base.id)
				return
			}
		}
	}

	if over > 0 {
		b.WriteString(`\overset`)
		d.texChild(b, e, over)
		b.WriteByte('{')
	}
	if under > 0 {
		b.WriteString(`\underset`)
		d.texChild(b, e, under)
	}
	d.texGroup(b, base.id)
	if over > 0 {
		b.WriteByte('}')
	}
}

func texLimits(r rune) bool {
	switch r {
	case '∑', '∏', '∫', '∮', '∪', '∩':
		return true
	}
	return false
}
