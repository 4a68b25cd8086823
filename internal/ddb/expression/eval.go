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

	"github.com/fogfish/nimbus/internal/ddb/value"
)

// Context is the evaluation context: the item under test plus the
// client-supplied placeholder maps.
type Context struct {
	Item   value.Item
	Names  map[string]string
	Values map[string]value.Value
}

// ResolveName maps a #placeholder to the real attribute name.
func (ctx *Context) ResolveName(name string) (string, error) {
	if !strings.HasPrefix(name, "#") {
		return name, nil
	}
	real, has := ctx.Names[name]
	if !has {
		return "", fmt.Errorf("An expression attribute name used in the document path is not defined; attribute name: %s", name)
	}
	return real, nil
}

// ResolvePath walks the document path over the item. A missing attribute,
// index out of range, or a non-container in the middle yields the absent
// value; an undefined #placeholder is an error.
func (ctx *Context) ResolvePath(path Path) (value.Value, error) {
	var cur value.Value
	for i, e := range path {
		if e.IsIndex {
			if cur.Kind() != value.KindL {
				return value.Value{}, nil
			}
			list := cur.List()
			if e.Index < 0 || e.Index >= len(list) {
				return value.Value{}, nil
			}
			cur = list[e.Index]
			continue
		}

		name, err := ctx.ResolveName(e.Name)
		if err != nil {
			return value.Value{}, err
		}
		if i == 0 {
			v, has := ctx.Item[name]
			if !has {
				return value.Value{}, nil
			}
			cur = v
			continue
		}
		if cur.Kind() != value.KindM {
			return value.Value{}, nil
		}
		v, has := cur.Attrs()[name]
		if !has {
			return value.Value{}, nil
		}
		cur = v
	}
	return cur, nil
}

// ResolveValue maps a :placeholder to its attribute value.
func (ctx *Context) ResolveValue(name string) (value.Value, error) {
	v, has := ctx.Values[name]
	if !has {
		return value.Value{}, fmt.Errorf("An expression attribute value used in expression is not defined; attribute value: %s", name)
	}
	return v, nil
}

// Operand resolves an operand; the zero value means absent.
func (ctx *Context) Operand(op Operand) (value.Value, error) {
	switch op.Kind {
	case OperandValue:
		return ctx.ResolveValue(op.Value)
	case OperandPath:
		return ctx.ResolvePath(op.Path)
	case OperandSize:
		v, err := ctx.ResolvePath(op.Path)
		if err != nil || v.IsZero() {
			return value.Value{}, err
		}
		return value.N(strconv.Itoa(v.Size())), nil
	}
	return value.Value{}, nil
}

// Eval evaluates a condition to a boolean.
func (ctx *Context) Eval(cond Condition) (bool, error) {
	switch v := cond.(type) {
	case Compare:
		return ctx.evalCompare(v)
	case Between:
		return ctx.evalBetween(v)
	case In:
		return ctx.evalIn(v)
	case Logical:
		left, err := ctx.Eval(v.Left)
		if err != nil {
			return false, err
		}
		if v.Op == LogicAnd && !left {
			return false, nil
		}
		if v.Op == LogicOr && left {
			return true, nil
		}
		return ctx.Eval(v.Right)
	case Not:
		inner, err := ctx.Eval(v.Inner)
		if err != nil {
			return false, err
		}
		return !inner, nil
	case Call:
		return ctx.evalCall(v)
	}
	return false, fmt.Errorf("Unsupported condition")
}

func (ctx *Context) evalCompare(cmp Compare) (bool, error) {
	left, err := ctx.Operand(cmp.Left)
	if err != nil {
		return false, err
	}
	right, err := ctx.Operand(cmp.Right)
	if err != nil {
		return false, err
	}
	if left.IsZero() || right.IsZero() {
		return false, nil
	}

	switch cmp.Op {
	case CmpEq:
		return left.Equal(right), nil
	case CmpNe:
		return !left.Equal(right), nil
	}

	ord, ok := left.TryCompare(right)
	if !ok {
		return false, nil
	}
	switch cmp.Op {
	case CmpLt:
		return ord < 0, nil
	case CmpLe:
		return ord <= 0, nil
	case CmpGt:
		return ord > 0, nil
	case CmpGe:
		return ord >= 0, nil
	}
	return false, nil
}

func (ctx *Context) evalBetween(btw Between) (bool, error) {
	v, err := ctx.Operand(btw.Value)
	if err != nil {
		return false, err
	}
	low, err := ctx.Operand(btw.Low)
	if err != nil {
		return false, err
	}
	high, err := ctx.Operand(btw.High)
	if err != nil {
		return false, err
	}
	if v.IsZero() || low.IsZero() || high.IsZero() {
		return false, nil
	}

	lo, ok := v.TryCompare(low)
	if !ok || lo < 0 {
		return false, nil
	}
	hi, ok := v.TryCompare(high)
	if !ok || hi > 0 {
		return false, nil
	}
	return true, nil
}

func (ctx *Context) evalIn(in In) (bool, error) {
	v, err := ctx.Operand(in.Value)
	if err != nil {
		return false, err
	}
	for _, op := range in.List {
		x, err := ctx.Operand(op)
		if err != nil {
			return false, err
		}
		if v.IsZero() || x.IsZero() {
			continue
		}
		if v.Equal(x) {
			return true, nil
		}
	}
	return false, nil
}

func (ctx *Context) evalCall(call Call) (bool, error) {
	switch call.Name {
	case "attribute_exists", "attribute_not_exists":
		v, err := ctx.Operand(call.Args[0])
		if err != nil {
			return false, err
		}
		if call.Name == "attribute_exists" {
			return !v.IsZero(), nil
		}
		return v.IsZero(), nil

	case "attribute_type":
		v, err := ctx.Operand(call.Args[0])
		if err != nil {
			return false, err
		}
		t, err := ctx.Operand(call.Args[1])
		if err != nil {
			return false, err
		}
		if t.Kind() != value.KindS {
			return false, fmt.Errorf("Incorrect operand type for operator or function; operator or function: attribute_type, operand type: %s", t.Kind())
		}
		return !v.IsZero() && string(v.Kind()) == t.Text(), nil

	case "begins_with":
		v, err := ctx.Operand(call.Args[0])
		if err != nil {
			return false, err
		}
		prefix, err := ctx.Operand(call.Args[1])
		if err != nil {
			return false, err
		}
		if prefix.IsZero() || prefix.Kind() != value.KindS {
			return false, fmt.Errorf("Incorrect operand type for operator or function; operator or function: begins_with, operand type: %s", prefix.Kind())
		}
		if v.Kind() != value.KindS {
			return false, nil
		}
		return strings.HasPrefix(v.Text(), prefix.Text()), nil

	case "contains":
		v, err := ctx.Operand(call.Args[0])
		if err != nil {
			return false, err
		}
		x, err := ctx.Operand(call.Args[1])
		if err != nil {
			return false, err
		}
		return contains(v, x), nil
	}
	return false, fmt.Errorf("Invalid function name; function: %s", call.Name)
}

// contains implements the wire semantics: substring for S in S, membership
// for sets, element equality for lists, false for everything else.
func contains(v, x value.Value) bool {
	switch v.Kind() {
	case value.KindS:
		return x.Kind() == value.KindS && strings.Contains(v.Text(), x.Text())
	case value.KindSS:
		if x.Kind() != value.KindS {
			return false
		}
		for _, s := range v.Strings() {
			if s == x.Text() {
				return true
			}
		}
	case value.KindNS:
		if x.Kind() != value.KindN {
			return false
		}
		for _, n := range v.Numbers() {
			if value.N(n).Equal(x) {
				return true
			}
		}
	case value.KindBS:
		if x.Kind() != value.KindB {
			return false
		}
		for _, b := range v.Binaries() {
			if value.B(b).Equal(x) {
				return true
			}
		}
	case value.KindL:
		for _, e := range v.List() {
			if e.Equal(x) {
				return true
			}
		}
	}
	return false
}
