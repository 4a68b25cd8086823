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
	"strconv"
	"strings"
)

// condition functions of the expression language, by argument count
var conditionFns = map[string]int{
	"attribute_exists":     1,
	"attribute_not_exists": 1,
	"attribute_type":       2,
	"begins_with":          2,
	"contains":             2,
}

var reservedWords = []string{
	"AND", "OR", "NOT", "BETWEEN", "IN", "SET", "ADD", "REMOVE", "DELETE",
}

type parser struct {
	lx  lexer
	tok token
}

func newParser(input string) (*parser, error) {
	p := &parser{lx: lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.errSyntax()
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

func (p *parser) errSyntax() error {
	return p.lx.errSyntax(p.tok.pos, p.tok.String())
}

func (p *parser) reserved() bool {
	for _, w := range reservedWords {
		if p.tok.keyword(w) {
			return true
		}
	}
	return false
}

// ParseCondition parses a condition, filter or key-condition expression.
func ParseCondition(input string) (Condition, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tEOF {
		return nil, p.errSyntax()
	}
	return cond, nil
}

// ParseProjection parses a projection expression into document paths.
func ParseProjection(input string) ([]Path, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	paths := []Path{}
	for {
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if p.tok.kind != tComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.kind != tEOF {
		return nil, p.errSyntax()
	}
	return paths, nil
}

// ParseUpdate parses an update expression: SET, REMOVE, ADD and DELETE
// clauses in any order, each at most once.
func ParseUpdate(input string) (Update, error) {
	p, err := newParser(input)
	if err != nil {
		return Update{}, err
	}

	update := Update{}
	seen := map[string]bool{}
	for p.tok.kind != tEOF {
		var clause string
		switch {
		case p.tok.keyword("SET"):
			clause = "SET"
		case p.tok.keyword("REMOVE"):
			clause = "REMOVE"
		case p.tok.keyword("ADD"):
			clause = "ADD"
		case p.tok.keyword("DELETE"):
			clause = "DELETE"
		default:
			return Update{}, p.errSyntax()
		}
		if seen[clause] {
			return Update{}, fmt.Errorf("The %q section can only be used once in an update expression", clause)
		}
		seen[clause] = true
		if err := p.advance(); err != nil {
			return Update{}, err
		}
		if err := p.parseUpdateClause(clause, &update); err != nil {
			return Update{}, err
		}
	}
	return update, nil
}

func (p *parser) parseUpdateClause(clause string, update *Update) error {
	for {
		switch clause {
		case "SET":
			action, err := p.parseSetAction()
			if err != nil {
				return err
			}
			update.Set = append(update.Set, action)
		case "REMOVE":
			path, err := p.parsePath()
			if err != nil {
				return err
			}
			update.Remove = append(update.Remove, path)
		case "ADD":
			path, op, err := p.parsePathOperandPair()
			if err != nil {
				return err
			}
			update.Add = append(update.Add, AddAction{Path: path, Operand: op})
		case "DELETE":
			path, op, err := p.parsePathOperandPair()
			if err != nil {
				return err
			}
			update.Delete = append(update.Delete, DeleteAction{Path: path, Operand: op})
		}

		if p.tok.kind != tComma {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *parser) parseSetAction() (SetAction, error) {
	path, err := p.parsePath()
	if err != nil {
		return SetAction{}, err
	}
	if _, err := p.expect(tEq); err != nil {
		return SetAction{}, err
	}
	value, err := p.parseSetValue()
	if err != nil {
		return SetAction{}, err
	}
	return SetAction{Path: path, Value: value}, nil
}

func (p *parser) parseSetValue() (SetValue, error) {
	if p.tok.kind == tIdent {
		switch {
		case strings.EqualFold(p.tok.text, "if_not_exists") && p.peekLParen():
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(tLParen); err != nil {
				return nil, err
			}
			path, err := p.parsePath()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tComma); err != nil {
				return nil, err
			}
			def, err := p.parsePlainOperand()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tRParen); err != nil {
				return nil, err
			}
			return SetIfNotExists{Path: path, Default: def}, nil

		case strings.EqualFold(p.tok.text, "list_append") && p.peekLParen():
			if err := p.advance(); err != nil {
				return nil, err
			}
			if _, err := p.expect(tLParen); err != nil {
				return nil, err
			}
			left, err := p.parsePlainOperand()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tComma); err != nil {
				return nil, err
			}
			right, err := p.parsePlainOperand()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tRParen); err != nil {
				return nil, err
			}
			return SetListAppend{Left: left, Right: right}, nil
		}
	}

	left, err := p.parsePlainOperand()
	if err != nil {
		return nil, err
	}
	switch p.tok.kind {
	case tPlus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePlainOperand()
		if err != nil {
			return nil, err
		}
		return SetPlus{Left: left, Right: right}, nil
	case tMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePlainOperand()
		if err != nil {
			return nil, err
		}
		return SetMinus{Left: left, Right: right}, nil
	}
	return SetOperand{Operand: left}, nil
}

func (p *parser) parsePathOperandPair() (Path, Operand, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, Operand{}, err
	}
	op, err := p.parsePlainOperand()
	if err != nil {
		return nil, Operand{}, err
	}
	return path, op, nil
}

func (p *parser) peekLParen() bool {
	lx := p.lx
	tok, err := lx.next()
	return err == nil && tok.kind == tLParen
}

// parsePath parses attr, #attr, nested .attr access and [idx] indexing.
func (p *parser) parsePath() (Path, error) {
	if p.tok.kind != tIdent && p.tok.kind != tName {
		return nil, p.errSyntax()
	}
	if p.reserved() {
		return nil, fmt.Errorf("Attribute name is a reserved keyword; reserved keyword: %s", p.tok.text)
	}

	path := Path{{Name: p.tok.text}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tIdent && p.tok.kind != tName {
				return nil, p.errSyntax()
			}
			path = append(path, PathElement{Name: p.tok.text})
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			num, err := p.expect(tNumber)
			if err != nil {
				return nil, err
			}
			idx, err := strconv.Atoi(num.text)
			if err != nil {
				return nil, p.errSyntax()
			}
			if _, err := p.expect(tRBracket); err != nil {
				return nil, err
			}
			path = append(path, PathElement{Index: idx, IsIndex: true})
		default:
			return path, nil
		}
	}
}

// parsePlainOperand parses a path or :value, never size().
func (p *parser) parsePlainOperand() (Operand, error) {
	if p.tok.kind == tValue {
		op := Operand{Kind: OperandValue, Value: p.tok.text}
		if err := p.advance(); err != nil {
			return Operand{}, err
		}
		return op, nil
	}
	path, err := p.parsePath()
	if err != nil {
		return Operand{}, err
	}
	return Operand{Kind: OperandPath, Path: path}, nil
}

// parseOperand parses a comparison operand: path, :value or size(path).
func (p *parser) parseOperand() (Operand, error) {
	if p.tok.kind == tIdent && strings.EqualFold(p.tok.text, "size") && p.peekLParen() {
		if err := p.advance(); err != nil {
			return Operand{}, err
		}
		if _, err := p.expect(tLParen); err != nil {
			return Operand{}, err
		}
		path, err := p.parsePath()
		if err != nil {
			return Operand{}, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandSize, Path: path}, nil
	}
	return p.parsePlainOperand()
}

func (p *parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.keyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: LogicOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.keyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: LogicAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Condition, error) {
	if p.tok.keyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Condition, error) {
	if p.tok.kind == tLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return cond, nil
	}

	// condition function in condition position
	if p.tok.kind == tIdent && p.peekLParen() {
		name := strings.ToLower(p.tok.text)
		if arity, ok := conditionFns[name]; ok {
			call, err := p.parseCall(name, arity)
			if err != nil {
				return nil, err
			}
			return call, nil
		}
		if name != "size" {
			return nil, fmt.Errorf("Invalid function name; function: %s", p.tok.text)
		}
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch {
	case p.tok.kind == tEq || p.tok.kind == tNe || p.tok.kind == tLt ||
		p.tok.kind == tLe || p.tok.kind == tGt || p.tok.kind == tGe:
		op := CmpOp(p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Compare{Left: left, Op: op, Right: right}, nil

	case p.tok.keyword("BETWEEN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		low, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if !p.tok.keyword("AND") {
			return nil, p.errSyntax()
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		high, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Between{Value: left, Low: low, High: high}, nil

	case p.tok.keyword("IN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tLParen); err != nil {
			return nil, err
		}
		list := []Operand{}
		for {
			op, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, op)
			if p.tok.kind != tComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return In{Value: left, List: list}, nil
	}

	if left.Kind == OperandSize {
		return nil, fmt.Errorf("Invalid operand; operand: size")
	}
	return nil, p.errSyntax()
}

func (p *parser) parseCall(name string, arity int) (Call, error) {
	if err := p.advance(); err != nil {
		return Call{}, err
	}
	if _, err := p.expect(tLParen); err != nil {
		return Call{}, err
	}
	args := []Operand{}
	for {
		op, err := p.parseOperand()
		if err != nil {
			return Call{}, err
		}
		args = append(args, op)
		if p.tok.kind != tComma {
			break
		}
		if err := p.advance(); err != nil {
			return Call{}, err
		}
	}
	if _, err := p.expect(tRParen); err != nil {
		return Call{}, err
	}
	if len(args) != arity {
		return Call{}, fmt.Errorf("Incorrect number of operands for operator or function; operator or function: %s, number of operands: %d", name, len(args))
	}
	return Call{Name: name, Args: args}, nil
}
