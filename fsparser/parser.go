// Package fsparser reads formulas typed as plain strings, e.g.
// "a = b + c/d^2" or "sum(k, k=1, n)", and builds formula trees out of
// them.
package fsparser

import (
	"fmt"
	"slices"

	parse "github.com/tdewolff/parse/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"kfm/formula"
)

// Error describes problem found at position of formula string.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d", e.Msg, e.Pos)
}

type token struct {
	tt   TokenType
	text string
	pos  int
}

// Parser is recursive descent parser of formula strings. Problems do not stop
// parsing, best effort tree is always produced.
type Parser struct {
	log *zap.Logger
	lex *Lexer
	cur token
	err error
}

// Parse builds new document from formula string. Errors are returned
// together with the document.
func Parse(s string, log *zap.Logger) (*formula.Document, error) {
	doc := formula.NewBlankDocument(log)
	ids, err := ParseInto(doc, s, log)
	for _, id := range ids {
		doc.AppendChild(doc.Root(), id)
	}
	if len(ids) == 0 {
		doc.AppendChild(doc.Root(), doc.NewBare(formula.KindEmpty))
	}
	return doc, err
}

// ParseInto creates detached elements of doc for formula string so they
// could be inserted at cursor.
func ParseInto(doc *formula.Document, s string, log *zap.Logger) ([]formula.ID, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{
		log: log.Named("fsparser"),
		lex: NewLexer(parse.NewInputString(s)),
	}
	p.next()
	if p.cur.tt == ErrorToken {
		return nil, nil
	}
	n := &listNode{items: []node{p.assign()}}
	for p.cur.tt != ErrorToken {
		// stray token, keep it as operator and go on
		p.fail("unexpected %s", p.cur.tt)
		n.items = append(n.items, &tokenNode{kind: formula.KindOperator, text: p.cur.text})
		p.next()
		if p.cur.tt != ErrorToken {
			n.items = append(n.items, p.assign())
		}
	}
	b := &builder{doc: doc}
	ids := n.build(b)
	if p.err != nil {
		p.log.Debug("Formula string has errors", zap.String("formula", s), zap.Error(p.err))
	}
	return ids, p.err
}

func (p *Parser) next() {
	tt, text, pos := p.lex.Next()
	p.cur = token{tt: tt, text: string(text), pos: pos}
}

func (p *Parser) fail(format string, args ...any) {
	p.err = multierr.Append(p.err, &Error{Pos: p.cur.pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(tt TokenType) {
	if p.cur.tt == tt {
		p.next()
		return
	}
	p.fail("%s expected", tt)
}

// assign := expr (('='|OTHER) expr)*, unknown symbols between expressions
// are relations.
func (p *Parser) assign() node {
	lhs := p.expr()
	for p.cur.tt == AssignToken || p.cur.tt == OtherToken {
		op := p.cur.text
		p.next()
		lhs = &binaryNode{op: op, lhs: lhs, rhs: p.expr()}
	}
	return lhs
}

// expr := term (('+'|'-') term)*
func (p *Parser) expr() node {
	lhs := p.term()
	for p.cur.tt == PlusToken || p.cur.tt == MinusToken {
		op := p.cur.text
		p.next()
		lhs = &binaryNode{op: op, lhs: lhs, rhs: p.term()}
	}
	return lhs
}

// term := power (('*'|'/') power)*
func (p *Parser) term() node {
	lhs := p.power()
	for {
		switch p.cur.tt {
		case MulToken:
			p.next()
			lhs = &binaryNode{op: "⋅", lhs: lhs, rhs: p.power()}
		case DivToken:
			p.next()
			lhs = &fractionNode{num: lhs, den: p.power()}
		default:
			return lhs
		}
	}
}

// power := primary ('^' primary)*
func (p *Parser) power() node {
	lhs := p.primary()
	for p.cur.tt == PowToken {
		p.next()
		lhs = &powerNode{base: lhs, exp: p.primary()}
	}
	return lhs
}

// args reads comma separated expressions up to closing token.
func (p *Parser) args(closing TokenType) []node {
	var list []node
	for p.cur.tt != ErrorToken && p.cur.tt != closing {
		list = append(list, p.assign())
		if p.cur.tt == CommaToken {
			p.next()
		} else if p.cur.tt != closing && p.cur.tt != ErrorToken {
			p.fail("',' expected")
		}
	}
	p.expect(closing)
	return list
}

func (p *Parser) primary() node {
	t := p.cur
	switch t.tt {
	case NumberToken:
		p.next()
		return &tokenNode{kind: formula.KindNumber, text: t.text}
	case NameToken:
		p.next()
		if p.cur.tt == LeftParenToken {
			p.next()
			return &functionNode{name: t.text, args: p.args(RightParenToken)}
		}
		return nameNode(t.text)
	case MinusToken:
		p.next()
		return &unaryNode{op: "-", arg: p.primary()}
	case LeftParenToken:
		p.next()
		n := p.expr()
		p.expect(RightParenToken)
		return &parenNode{inner: n}
	case LeftBracketToken:
		p.next()
		return p.matrix()
	case OtherToken:
		p.next()
		return &tokenNode{kind: formula.KindOperator, text: t.text}
	}
	p.fail("unexpected %s", t.tt)
	if t.tt != ErrorToken {
		p.next()
		return &tokenNode{kind: formula.KindOperator, text: t.text}
	}
	return &listNode{}
}

// matrix := '[' '[' row ']' (',' '[' row ']')* ']', the opening bracket is
// already consumed.
func (p *Parser) matrix() node {
	m := &matrixNode{}
	for p.cur.tt == LeftBracketToken {
		p.next()
		m.rows = append(m.rows, p.args(RightBracketToken))
		if p.cur.tt == CommaToken {
			p.next()
		}
	}
	p.expect(RightBracketToken)
	switch {
	case len(m.rows) == 0:
		p.fail("matrix without rows")
	case m.columns() == 0:
		p.fail("matrix without columns")
	}
	return m
}

// greek letters and other named symbols
var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "omicron": "ο",
	"pi": "π", "rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ",
	"phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ",
	"Omega": "Ω", "inf": "∞", "infinity": "∞",
}

func nameNode(name string) node {
	if sym, ok := symbols[name]; ok {
		return &tokenNode{kind: formula.KindIdentifier, text: sym}
	}
	// every letter of plain name is separate variable
	l := &listNode{}
	for _, r := range name {
		l.items = append(l.items, &tokenNode{kind: formula.KindIdentifier, text: string(r)})
	}
	return l
}

// Symbols returns sorted names recognized as symbols.
func Symbols() []string {
	names := make([]string, 0, len(symbols))
	for k := range symbols {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
