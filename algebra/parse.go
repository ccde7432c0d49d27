package algebra

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ============================================================
// Parser
// ============================================================
//
// Grammar:
//
//	sum     := product (('+' | '-') product)*
//	product := unary (('*' | '/') unary | power)*   juxtaposition multiplies
//	unary   := ('-' | '+') unary | power
//	power   := primary (('^' | '**') unary)?         right associative
//	primary := number | letter | '(' sum ')'
//
// Every letter is its own symbol, so "xy" reads as x*y and "2x" as 2*x.
// The tree is returned exactly as written; call Simplify to normalize it.

// SyntaxError reports where an expression failed to parse.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Input, e.Msg)
}

type parser struct {
	input string
	pos   int
}

// Parse reads a single expression.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	p.skipWhitespace()
	if p.atEnd() {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if !p.atEnd() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return e, nil
}

// ParseEquation reads "lhs = rhs"; exactly one '=' is allowed.
func ParseEquation(input string) (*Equation, error) {
	if n := strings.Count(input, "="); n != 1 {
		return nil, &SyntaxError{Input: input, Msg: fmt.Sprintf("expected exactly one '=', found %d", n)}
	}
	i := strings.Index(input, "=")
	lhs, err := Parse(input[:i])
	if err != nil {
		return nil, rebase(err, input, 0)
	}
	rhs, err := Parse(input[i+1:])
	if err != nil {
		return nil, rebase(err, input, i+1)
	}
	return Eq(lhs, rhs), nil
}

// rebase reports a side's syntax error against the whole equation.
func rebase(err error, input string, offset int) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Input: input, Pos: se.Pos + offset, Msg: se.Msg}
	}
	return err
}

func (p *parser) parseSum() (Expr, error) {
	first, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for {
		p.skipWhitespace()
		switch p.peek() {
		case '+':
			p.advance()
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case '-':
			p.advance()
			t, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			terms = append(terms, subtrahend(t))
		default:
			if len(terms) == 1 {
				return first, nil
			}
			return &Add{terms: terms}, nil
		}
	}
}

func (p *parser) parseProduct() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := appendFactor(nil, first)
	for {
		p.skipWhitespace()
		c := p.peek()
		switch {
		case c == '*':
			p.advance()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = appendFactor(factors, f)
		case c == '/':
			p.advance()
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, &Pow{base: f, exp: N(-1)})
		case isDigit(c) || isLetter(c) || c == '(':
			f, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = appendFactor(factors, f)
		default:
			if len(factors) == 1 {
				return factors[0], nil
			}
			return &Mul{factors: factors}, nil
		}
	}
}

func appendFactor(factors []Expr, f Expr) []Expr {
	if m, ok := f.(*Mul); ok {
		return append(factors, m.factors...)
	}
	return append(factors, f)
}

func (p *parser) parseUnary() (Expr, error) {
	p.skipWhitespace()
	switch p.peek() {
	case '-':
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if n, ok := operand.(*Num); ok {
			return numNeg(n), nil
		}
		return &Mul{factors: []Expr{N(-1), operand}}, nil
	case '+':
		p.advance()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	switch {
	case p.peek() == '^':
		p.advance()
	case p.peek() == '*' && p.peekAt(1) == '*':
		p.pos += 2
	default:
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Pow{base: base, exp: exp}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	p.skipWhitespace()
	if p.atEnd() {
		return nil, p.errorf("unexpected end of expression")
	}
	c := p.peek()
	switch {
	case c == '(':
		p.advance()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.advance()
		return e, nil
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case isLetter(c):
		p.advance()
		return S(string(c)), nil
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	seenDot := false
	for !p.atEnd() {
		c := p.peek()
		if c == '.' && !seenDot {
			seenDot = true
		} else if !isDigit(c) {
			break
		}
		p.advance()
	}
	lit := p.input[start:p.pos]
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		p.pos = start
		return nil, p.errorf("invalid number %q", lit)
	}
	return &Num{val: r}, nil
}

// subtrahend returns -t for a binary minus. Non-negative literals fold into
// the literal; anything else keeps its own layout behind a -1 factor.
func subtrahend(t Expr) Expr {
	if n, ok := t.(*Num); ok {
		if !n.IsNegative() {
			return numNeg(n)
		}
		// A one-term group prints with its parentheses: 1 - (-1).
		return &Mul{factors: []Expr{N(-1), &Add{terms: []Expr{n}}}}
	}
	if m, ok := t.(*Mul); ok {
		if c, ok := m.factors[0].(*Num); ok && c.IsPositive() {
			return &Mul{factors: append([]Expr{numNeg(c)}, m.factors[1:]...)}
		}
		return &Mul{factors: append([]Expr{N(-1)}, m.factors...)}
	}
	return &Mul{factors: []Expr{N(-1), t}}
}

func (p *parser) peek() byte {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.input) {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *parser) advance() { p.pos++ }

func (p *parser) atEnd() bool { return p.pos >= len(p.input) }

func (p *parser) skipWhitespace() {
	for !p.atEnd() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
