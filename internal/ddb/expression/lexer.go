//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package expression

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tName  // #placeholder
	tValue // :placeholder
	tNumber
	tComma
	tDot
	tLParen
	tRParen
	tLBracket
	tRBracket
	tEq
	tNe
	tLt
	tLe
	tGt
	tGe
	tPlus
	tMinus
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tEOF {
		return "<EOF>"
	}
	return t.text
}

// keyword reports case-insensitive reserved-word matches; attribute names
// stay case-sensitive.
func (t token) keyword(word string) bool {
	return t.kind == tIdent && strings.EqualFold(t.text, word)
}

type lexer struct {
	input string
	pos   int
}

func (lx *lexer) errSyntax(pos int, near string) error {
	if near == "" {
		near = "<EOF>"
	}
	return fmt.Errorf("Syntax error; token: %q, near: %q", near, tail(lx.input, pos))
}

func tail(s string, pos int) string {
	if pos > len(s) {
		pos = len(s)
	}
	end := pos + 12
	if end > len(s) {
		end = len(s)
	}
	return s[pos:end]
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.input) && isSpace(lx.input[lx.pos]) {
		lx.pos++
	}
	start := lx.pos
	if lx.pos >= len(lx.input) {
		return token{kind: tEOF, pos: start}, nil
	}

	c := lx.input[lx.pos]
	switch c {
	case ',':
		lx.pos++
		return token{tComma, ",", start}, nil
	case '.':
		lx.pos++
		return token{tDot, ".", start}, nil
	case '(':
		lx.pos++
		return token{tLParen, "(", start}, nil
	case ')':
		lx.pos++
		return token{tRParen, ")", start}, nil
	case '[':
		lx.pos++
		return token{tLBracket, "[", start}, nil
	case ']':
		lx.pos++
		return token{tRBracket, "]", start}, nil
	case '+':
		lx.pos++
		return token{tPlus, "+", start}, nil
	case '-':
		lx.pos++
		return token{tMinus, "-", start}, nil
	case '=':
		lx.pos++
		return token{tEq, "=", start}, nil
	case '<':
		lx.pos++
		if lx.pos < len(lx.input) {
			switch lx.input[lx.pos] {
			case '=':
				lx.pos++
				return token{tLe, "<=", start}, nil
			case '>':
				lx.pos++
				return token{tNe, "<>", start}, nil
			}
		}
		return token{tLt, "<", start}, nil
	case '>':
		lx.pos++
		if lx.pos < len(lx.input) && lx.input[lx.pos] == '=' {
			lx.pos++
			return token{tGe, ">=", start}, nil
		}
		return token{tGt, ">", start}, nil
	case '#', ':':
		lx.pos++
		for lx.pos < len(lx.input) && isIdent(lx.input[lx.pos]) {
			lx.pos++
		}
		if lx.pos == start+1 {
			return token{}, lx.errSyntax(start, string(c))
		}
		kind := tName
		if c == ':' {
			kind = tValue
		}
		return token{kind, lx.input[start:lx.pos], start}, nil
	}

	if c >= '0' && c <= '9' {
		for lx.pos < len(lx.input) && lx.input[lx.pos] >= '0' && lx.input[lx.pos] <= '9' {
			lx.pos++
		}
		return token{tNumber, lx.input[start:lx.pos], start}, nil
	}

	if isIdentStart(c) {
		for lx.pos < len(lx.input) && isIdent(lx.input[lx.pos]) {
			lx.pos++
		}
		return token{tIdent, lx.input[start:lx.pos], start}, nil
	}

	return token{}, lx.errSyntax(start, string(c))
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
