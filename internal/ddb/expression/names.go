//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package expression

import "strings"

// Refs is the set of #name and :value placeholders referenced by parsed
// expressions. It drives the unused/undefined placeholder validation.
type Refs struct {
	Names  map[string]bool
	Values map[string]bool
}

func NewRefs() *Refs {
	return &Refs{Names: map[string]bool{}, Values: map[string]bool{}}
}

func (r *Refs) path(p Path) {
	for _, e := range p {
		if !e.IsIndex && strings.HasPrefix(e.Name, "#") {
			r.Names[e.Name] = true
		}
	}
}

func (r *Refs) operand(op Operand) {
	switch op.Kind {
	case OperandPath, OperandSize:
		r.path(op.Path)
	case OperandValue:
		r.Values[op.Value] = true
	}
}

// Condition collects placeholders referenced by a condition expression.
func (r *Refs) Condition(c Condition) {
	switch v := c.(type) {
	case Compare:
		r.operand(v.Left)
		r.operand(v.Right)
	case Between:
		r.operand(v.Value)
		r.operand(v.Low)
		r.operand(v.High)
	case In:
		r.operand(v.Value)
		for _, op := range v.List {
			r.operand(op)
		}
	case Logical:
		r.Condition(v.Left)
		r.Condition(v.Right)
	case Not:
		r.Condition(v.Inner)
	case Call:
		for _, op := range v.Args {
			r.operand(op)
		}
	}
}

// Update collects placeholders referenced by an update expression.
func (r *Refs) Update(u Update) {
	for _, a := range u.Set {
		r.path(a.Path)
		switch v := a.Value.(type) {
		case SetOperand:
			r.operand(v.Operand)
		case SetPlus:
			r.operand(v.Left)
			r.operand(v.Right)
		case SetMinus:
			r.operand(v.Left)
			r.operand(v.Right)
		case SetIfNotExists:
			r.path(v.Path)
			r.operand(v.Default)
		case SetListAppend:
			r.operand(v.Left)
			r.operand(v.Right)
		}
	}
	for _, p := range u.Remove {
		r.path(p)
	}
	for _, a := range u.Add {
		r.path(a.Path)
		r.operand(a.Operand)
	}
	for _, a := range u.Delete {
		r.path(a.Path)
		r.operand(a.Operand)
	}
}

// Projection collects placeholders referenced by projection paths.
func (r *Refs) Projection(paths []Path) {
	for _, p := range paths {
		r.path(p)
	}
}
