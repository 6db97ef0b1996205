package term

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
)

// Parse reads a single term in the text syntax:
//
//	Likes($X, cake)
//	And(Parent($A, $B), Parent($B, $C))
//	Says(bob, "hello world")
//
// Variables start with '$'. Atoms are identifiers or double-quoted strings.
func Parse(text string) (*Term, error) {
	p := &parser{src: text}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q after term", p.src[p.pos:])
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(text string) *Term {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseList reads a comma-separated list of terms.
func ParseList(text string) ([]*Term, error) {
	p := &parser{src: text}
	var out []*Term
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		out = append(out, t)

		p.skipSpace()
		if p.pos == len(p.src) {
			return out, nil
		}
		if p.src[p.pos] != ',' {
			return nil, p.errorf("expected ',' got %q", p.src[p.pos:])
		}
		p.pos++
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse %q at offset %d: %s: %w", p.src, p.pos, fmt.Sprintf(format, args...), internalerr.ErrInvalidInput)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) term() (*Term, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch c := p.src[p.pos]; {
	case c == '$':
		p.pos++
		name := p.ident()
		if name == "" {
			return nil, p.errorf("empty variable name")
		}
		return Var(name), nil
	case c == '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return Atom(s), nil
	default:
		name := p.ident()
		if name == "" {
			return nil, p.errorf("unexpected %q", p.src[p.pos:])
		}
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '(' {
			p.pos++
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			return Compound(name, args...), nil
		}
		return Atom(name), nil
	}
}

func (p *parser) args() ([]*Term, error) {
	var args []*Term
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return args, nil
	}
	for {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		args = append(args, t)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("missing ')'")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf("expected ',' or ')' got %q", p.src[p.pos:])
		}
	}
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return "", p.errorf("bad string literal: %v", err)
			}
			return s, nil
		default:
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}
