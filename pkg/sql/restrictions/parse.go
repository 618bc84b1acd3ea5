// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package restrictions

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ringdb/ringdb/pkg/sql/types"
)

// ErrSyntax is returned by ParseConjunction.
var ErrSyntax = errors.New("syntax error")

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPlaceholder
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	in  string
	pos int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.in) && (l.in[l.pos] == ' ' || l.in[l.pos] == '\t' || l.in[l.pos] == '\n') {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.in) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.in[l.pos]
	switch {
	case isIdentStart(c):
		for l.pos < len(l.in) && (isIdentStart(l.in[l.pos]) || isDigit(l.in[l.pos])) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.in[start:l.pos], pos: start}, nil
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.in) && isDigit(l.in[l.pos+1])):
		l.pos++
		for l.pos < len(l.in) && (isDigit(l.in[l.pos]) || l.in[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokNumber, text: l.in[start:l.pos], pos: start}, nil
	case c == '$':
		l.pos++
		for l.pos < len(l.in) && isDigit(l.in[l.pos]) {
			l.pos++
		}
		return token{kind: tokPlaceholder, text: l.in[start+1 : l.pos], pos: start}, nil
	case c == '\'':
		var b strings.Builder
		l.pos++
		for {
			if l.pos >= len(l.in) {
				return token{}, syntaxErrorf(start, "unterminated string")
			}
			if l.in[l.pos] == '\'' {
				if l.pos+1 < len(l.in) && l.in[l.pos+1] == '\'' {
					b.WriteByte('\'')
					l.pos += 2
					continue
				}
				l.pos++
				return token{kind: tokString, text: b.String(), pos: start}, nil
			}
			b.WriteByte(l.in[l.pos])
			l.pos++
		}
	case c == '<' || c == '>':
		l.pos++
		if l.pos < len(l.in) && l.in[l.pos] == '=' {
			l.pos++
		}
		return token{kind: tokOp, text: l.in[start:l.pos], pos: start}, nil
	case c == '=':
		l.pos++
		return token{kind: tokOp, text: "=", pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokLParen, pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, pos: start}, nil
	}
	return token{}, syntaxErrorf(start, "unexpected character %q", c)
}

func syntaxErrorf(pos int, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(errors.Newf(format, args...), "at offset %d", pos), ErrSyntax)
}

type parser struct {
	lex lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) keyword(kw string) bool {
	return p.tok.kind == tokIdent && strings.EqualFold(p.tok.text, kw)
}

var opsByText = map[string]Op{"=": EQ, "<": LT, "<=": LE, ">": GT, ">=": GE}

// ParseConjunction parses predicates of the form
//
//	pk IN (1, 2) AND ck >= $1 AND v = 'x'
//
// It accepts integer, float, string, boolean and NULL literals and 1-based
// placeholders. It is meant for tools and tests describing restrictions,
// not as a query language.
func ParseConjunction(s string) (Restrictions, error) {
	p := &parser{lex: lexer{in: s}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var rs Restrictions
	for p.tok.kind != tokEOF {
		if len(rs) > 0 {
			if !p.keyword("AND") {
				return nil, syntaxErrorf(p.tok.pos, "expected AND")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		r, err := p.restriction()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (p *parser) restriction() (Restriction, error) {
	if p.tok.kind != tokIdent {
		return Restriction{}, syntaxErrorf(p.tok.pos, "expected a column name")
	}
	r := Restriction{Column: p.tok.text}
	if err := p.advance(); err != nil {
		return Restriction{}, err
	}
	if p.keyword("IN") {
		r.Op = IN
		if err := p.advance(); err != nil {
			return Restriction{}, err
		}
		if p.tok.kind != tokLParen {
			return Restriction{}, syntaxErrorf(p.tok.pos, "expected (")
		}
		for {
			if err := p.advance(); err != nil {
				return Restriction{}, err
			}
			if p.tok.kind == tokRParen && len(r.Values) == 0 {
				break
			}
			v, err := p.term()
			if err != nil {
				return Restriction{}, err
			}
			r.Values = append(r.Values, v)
			if p.tok.kind == tokRParen {
				break
			}
			if p.tok.kind != tokComma {
				return Restriction{}, syntaxErrorf(p.tok.pos, "expected , or )")
			}
		}
		return r, p.advance()
	}
	op, ok := opsByText[p.tok.text]
	if p.tok.kind != tokOp || !ok {
		return Restriction{}, syntaxErrorf(p.tok.pos, "expected an operator")
	}
	r.Op = op
	if err := p.advance(); err != nil {
		return Restriction{}, err
	}
	v, err := p.term()
	if err != nil {
		return Restriction{}, err
	}
	r.Values = []Term{v}
	return r, nil
}

// term parses a literal or placeholder and advances past it.
func (p *parser) term() (Term, error) {
	t := p.tok
	var term Term
	switch t.kind {
	case tokNumber:
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, syntaxErrorf(t.pos, "invalid number %s", t.text)
			}
			term = Const(types.DFloat(f))
		} else {
			i, err := strconv.ParseInt(t.text, 10, 64)
			if err != nil {
				return nil, syntaxErrorf(t.pos, "invalid number %s", t.text)
			}
			term = Const(types.DInt(i))
		}
	case tokString:
		term = Const(types.DString(t.text))
	case tokPlaceholder:
		n, err := strconv.Atoi(t.text)
		if err != nil || n < 1 {
			return nil, syntaxErrorf(t.pos, "invalid placeholder $%s", t.text)
		}
		term = Param(n - 1)
	case tokIdent:
		switch {
		case strings.EqualFold(t.text, "true"):
			term = Const(types.DBool(true))
		case strings.EqualFold(t.text, "false"):
			term = Const(types.DBool(false))
		case strings.EqualFold(t.text, "null"):
			term = Const(types.DNull)
		default:
			return nil, syntaxErrorf(t.pos, "expected a value, found %s", t.text)
		}
	default:
		return nil, syntaxErrorf(t.pos, "expected a value")
	}
	return term, p.advance()
}

// ParseTerm parses a single literal or placeholder, as used in LIMIT
// clauses.
func ParseTerm(s string) (Term, error) {
	p := &parser{lex: lexer{in: s}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, syntaxErrorf(p.tok.pos, "unexpected input after value")
	}
	return t, nil
}
