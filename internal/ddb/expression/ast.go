//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package expression implements DynamoDB's expression languages: the
// condition, key-condition, filter, update and projection grammars share
// one AST, one parser and one evaluator. Legacy request parameters
// (Expected, KeyConditions, AttributeUpdates, ...) are converted to
// synthesized expression text and fed through the same parser, so a single
// evaluator serves modern and legacy inputs alike.
package expression

import "strconv"

// PathElement is one step of a document path: either a named attribute or
// a list index.
type PathElement struct {
	Name    string
	Index   int
	IsIndex bool
}

// Path is an ordered document path, e.g. address.lines[2].
type Path []PathElement

// Root is the top-level attribute name of the path, possibly a #placeholder.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Name
}

func (p Path) String() string {
	out := ""
	for i, e := range p {
		if e.IsIndex {
			out += "[" + strconv.Itoa(e.Index) + "]"
			continue
		}
		if i > 0 {
			out += "."
		}
		out += e.Name
	}
	return out
}

// HasPrefix reports whether q is a (non-strict) prefix of p, with dot
// versus index mismatches at the same depth reported separately.
func (p Path) HasPrefix(q Path) (prefix bool, conflict bool) {
	if len(q) > len(p) {
		return false, false
	}
	for i := range q {
		if p[i].IsIndex != q[i].IsIndex {
			return false, true
		}
		if p[i].IsIndex {
			if p[i].Index != q[i].Index {
				return false, false
			}
			continue
		}
		if p[i].Name != q[i].Name {
			return false, false
		}
	}
	return true, false
}

// OperandKind discriminates Operand.
type OperandKind int

const (
	OperandPath OperandKind = iota
	OperandValue
	OperandSize
)

// Operand is a leaf of the condition grammar: a document path, a :value
// placeholder, or size(path).
type Operand struct {
	Kind  OperandKind
	Path  Path   // OperandPath, OperandSize
	Value string // OperandValue, the ":name" spelling
}

// CmpOp is a comparison operator.
type CmpOp string

const (
	CmpEq CmpOp = "="
	CmpNe CmpOp = "<>"
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

// Flip mirrors the operator for reversed operand order.
func (op CmpOp) Flip() CmpOp {
	switch op {
	case CmpLt:
		return CmpGt
	case CmpLe:
		return CmpGe
	case CmpGt:
		return CmpLt
	case CmpGe:
		return CmpLe
	}
	return op
}

// Condition is a boolean expression node.
type Condition interface{ condition() }

// Compare is left <op> right.
type Compare struct {
	Left  Operand
	Op    CmpOp
	Right Operand
}

// Between is value BETWEEN low AND high.
type Between struct {
	Value Operand
	Low   Operand
	High  Operand
}

// In is value IN (list...).
type In struct {
	Value Operand
	List  []Operand
}

// LogicOp joins two conditions.
type LogicOp string

const (
	LogicAnd LogicOp = "AND"
	LogicOr  LogicOp = "OR"
)

// Logical is left AND|OR right.
type Logical struct {
	Op    LogicOp
	Left  Condition
	Right Condition
}

// Not negates a condition.
type Not struct{ Inner Condition }

// Call is a condition function: attribute_exists, attribute_not_exists,
// attribute_type, begins_with, contains.
type Call struct {
	Name string
	Args []Operand
}

func (Compare) condition() {}
func (Between) condition() {}
func (In) condition()      {}
func (Logical) condition() {}
func (Not) condition()     {}
func (Call) condition()    {}

// SetValue is the right-hand side of a SET action.
type SetValue interface{ setValue() }

// SetOperand assigns a plain operand.
type SetOperand struct{ Operand Operand }

// SetPlus is a + b over two number operands.
type SetPlus struct{ Left, Right Operand }

// SetMinus is a - b over two number operands.
type SetMinus struct{ Left, Right Operand }

// SetIfNotExists is if_not_exists(path, default).
type SetIfNotExists struct {
	Path    Path
	Default Operand
}

// SetListAppend is list_append(a, b).
type SetListAppend struct{ Left, Right Operand }

func (SetOperand) setValue()     {}
func (SetPlus) setValue()        {}
func (SetMinus) setValue()       {}
func (SetIfNotExists) setValue() {}
func (SetListAppend) setValue()  {}

// SetAction is one SET path = value.
type SetAction struct {
	Path  Path
	Value SetValue
}

// AddAction is one ADD path operand.
type AddAction struct {
	Path    Path
	Operand Operand
}

// DeleteAction is one DELETE path operand.
type DeleteAction struct {
	Path    Path
	Operand Operand
}

// Update is a parsed update expression: four disjoint action lists applied
// in SET, REMOVE, ADD, DELETE order.
type Update struct {
	Set    []SetAction
	Remove []Path
	Add    []AddAction
	Delete []DeleteAction
}

// Paths enumerates every path targeted by the update, in clause order.
func (u Update) Paths() []Path {
	out := make([]Path, 0, len(u.Set)+len(u.Remove)+len(u.Add)+len(u.Delete))
	for _, a := range u.Set {
		out = append(out, a.Path)
	}
	out = append(out, u.Remove...)
	for _, a := range u.Add {
		out = append(out, a.Path)
	}
	for _, a := range u.Delete {
		out = append(out, a.Path)
	}
	return out
}
