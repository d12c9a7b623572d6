package fsparser

import (
	"unicode"

	parse "github.com/tdewolff/parse/v2"
)

// TokenType is lexical class of formula string token.
type TokenType int

const (
	ErrorToken TokenType = iota // end of input
	NumberToken
	NameToken
	PlusToken
	MinusToken
	MulToken
	DivToken
	PowToken
	LeftParenToken
	RightParenToken
	LeftBracketToken
	RightBracketToken
	CommaToken
	AssignToken
	OtherToken
)

var tokenNames = map[TokenType]string{
	ErrorToken:        "end of input",
	NumberToken:       "number",
	NameToken:         "name",
	PlusToken:         "'+'",
	MinusToken:        "'-'",
	MulToken:          "'*'",
	DivToken:          "'/'",
	PowToken:          "'^'",
	LeftParenToken:    "'('",
	RightParenToken:   "')'",
	LeftBracketToken:  "'['",
	RightBracketToken: "']'",
	CommaToken:        "','",
	AssignToken:       "'='",
	OtherToken:        "symbol",
}

func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return "invalid"
}

// Lexer splits formula string into tokens. Quotes are skipped so string
// literals could be typed.
type Lexer struct {
	r *parse.Input
}

// NewLexer returns lexer over formula string.
func NewLexer(r *parse.Input) *Lexer {
	return &Lexer{r: r}
}

// Pos returns offset of the next unread byte.
func (l *Lexer) Pos() int {
	return l.r.Offset()
}

// peek returns n-th rune ahead, 0 past the end of input.
func (l *Lexer) peek(n int) rune {
	pos := 0
	for i := 0; ; i++ {
		if l.r.PeekErr(pos) != nil {
			return 0
		}
		r, size := l.r.PeekRune(pos)
		if i == n {
			return r
		}
		pos += size
	}
}

func (l *Lexer) move() {
	_, size := l.r.PeekRune(0)
	l.r.Move(size)
}

// Next returns next token type, token text and its offset.
func (l *Lexer) Next() (TokenType, []byte, int) {
	for {
		if l.r.Err() != nil {
			return ErrorToken, nil, l.Pos()
		}
		c := l.peek(0)
		if !unicode.IsSpace(c) && c != '"' && c != '\'' {
			break
		}
		l.move()
	}
	l.r.Skip()
	start := l.Pos()

	c := l.peek(0)
	tt := OtherToken
	switch {
	case unicode.IsDigit(c):
		l.number()
		tt = NumberToken
	case unicode.IsLetter(c):
		for unicode.IsLetter(l.peek(0)) {
			l.move()
		}
		tt = NameToken
	default:
		l.move()
		switch c {
		case '+':
			tt = PlusToken
		case '-':
			tt = MinusToken
		case '*':
			tt = MulToken
			if l.peek(0) == '*' {
				l.move()
				tt = PowToken
			}
		case '/':
			tt = DivToken
		case '^':
			tt = PowToken
		case '(':
			tt = LeftParenToken
		case ')':
			tt = RightParenToken
		case '[':
			tt = LeftBracketToken
		case ']':
			tt = RightBracketToken
		case ',':
			tt = CommaToken
		case '=':
			tt = AssignToken
		}
	}
	return tt, l.r.Shift(), start
}

func (l *Lexer) digits() {
	for unicode.IsDigit(l.peek(0)) {
		l.move()
	}
}

// number reads digits with optional fraction and exponent. Dot or exponent
// not followed by digits is not part of the number.
func (l *Lexer) number() {
	l.digits()
	if l.peek(0) == '.' && unicode.IsDigit(l.peek(1)) {
		l.move()
		l.digits()
	}
	if c := l.peek(0); c == 'e' || c == 'E' {
		switch next := l.peek(1); {
		case unicode.IsDigit(next):
			l.move()
			l.digits()
		case (next == '+' || next == '-') && unicode.IsDigit(l.peek(2)):
			l.move()
			l.move()
			l.digits()
		}
	}
}
