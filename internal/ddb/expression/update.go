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

	"github.com/fogfish/nimbus/internal/ddb/value"
)

const msgWrongOperandType = "An operand in the update expression has an incorrect data type"

// ConcretePath resolves every #placeholder element of the path.
func (ctx *Context) ConcretePath(path Path) (Path, error) {
	out := make(Path, len(path))
	for i, e := range path {
		if e.IsIndex {
			out[i] = e
			continue
		}
		name, err := ctx.ResolveName(e.Name)
		if err != nil {
			return nil, err
		}
		out[i] = PathElement{Name: name}
	}
	return out, nil
}

// Apply executes the update against the context item and returns the new
// item. Actions run in SET, REMOVE, ADD, DELETE order. The context item is
// never modified.
func (ctx *Context) Apply(update Update) (value.Item, error) {
	item := value.CloneItem(ctx.Item)

	for _, action := range update.Set {
		path, err := ctx.ConcretePath(action.Path)
		if err != nil {
			return nil, err
		}
		v, err := ctx.setValue(action.Value)
		if err != nil {
			return nil, err
		}
		setPath(item, path, v)
	}

	for _, target := range update.Remove {
		path, err := ctx.ConcretePath(target)
		if err != nil {
			return nil, err
		}
		removePath(item, path)
	}

	for _, action := range update.Add {
		path, err := ctx.ConcretePath(action.Path)
		if err != nil {
			return nil, err
		}
		operand, err := ctx.Operand(action.Operand)
		if err != nil {
			return nil, err
		}
		if operand.IsZero() {
			return nil, fmt.Errorf(msgWrongOperandType)
		}
		old := getPath(item, path)
		v, err := addValues(old, operand)
		if err != nil {
			return nil, err
		}
		setPath(item, path, v)
	}

	for _, action := range update.Delete {
		path, err := ctx.ConcretePath(action.Path)
		if err != nil {
			return nil, err
		}
		operand, err := ctx.Operand(action.Operand)
		if err != nil {
			return nil, err
		}
		old := getPath(item, path)
		if old.IsZero() {
			continue
		}
		v, empty, err := deleteValues(old, operand)
		if err != nil {
			return nil, err
		}
		if empty {
			removePath(item, path)
			continue
		}
		setPath(item, path, v)
	}

	return item, nil
}

func (ctx *Context) setValue(sv SetValue) (value.Value, error) {
	switch v := sv.(type) {
	case SetOperand:
		x, err := ctx.Operand(v.Operand)
		if err != nil {
			return value.Value{}, err
		}
		if x.IsZero() {
			return value.Value{}, fmt.Errorf("The provided expression refers to an attribute that does not exist in the item")
		}
		return x, nil

	case SetPlus:
		return ctx.arith(v.Left, v.Right, "+")

	case SetMinus:
		return ctx.arith(v.Left, v.Right, "-")

	case SetIfNotExists:
		path, err := ctx.ConcretePath(v.Path)
		if err != nil {
			return value.Value{}, err
		}
		existing := getPath(ctx.Item, path)
		if !existing.IsZero() {
			return existing, nil
		}
		def, err := ctx.Operand(v.Default)
		if err != nil {
			return value.Value{}, err
		}
		if def.IsZero() {
			return value.Value{}, fmt.Errorf("The provided expression refers to an attribute that does not exist in the item")
		}
		return def, nil

	case SetListAppend:
		left, err := ctx.Operand(v.Left)
		if err != nil {
			return value.Value{}, err
		}
		right, err := ctx.Operand(v.Right)
		if err != nil {
			return value.Value{}, err
		}
		if left.Kind() != value.KindL || right.Kind() != value.KindL {
			return value.Value{}, fmt.Errorf(msgWrongOperandType)
		}
		list := append(append([]value.Value{}, left.List()...), right.List()...)
		return value.L(list...), nil
	}
	return value.Value{}, fmt.Errorf(msgWrongOperandType)
}

func (ctx *Context) arith(leftOp, rightOp Operand, op string) (value.Value, error) {
	left, err := ctx.Operand(leftOp)
	if err != nil {
		return value.Value{}, err
	}
	right, err := ctx.Operand(rightOp)
	if err != nil {
		return value.Value{}, err
	}
	if left.Kind() != value.KindN || right.Kind() != value.KindN {
		return value.Value{}, fmt.Errorf("Incorrect operand type for operator or function; operator or function: %s, operand type: %s", op, orKind(left, right))
	}
	a, err := value.ParseNumber(left.Number())
	if err != nil {
		return value.Value{}, err
	}
	b, err := value.ParseNumber(right.Number())
	if err != nil {
		return value.Value{}, err
	}
	if op == "-" {
		return value.N(a.Sub(b).String()), nil
	}
	return value.N(a.Add(b).String()), nil
}

func orKind(a, b value.Value) value.Kind {
	if a.Kind() != value.KindN {
		return a.Kind()
	}
	return b.Kind()
}

// getPath reads a concrete path from an item; absent yields the zero value.
func getPath(item value.Item, path Path) value.Value {
	ctx := Context{Item: item}
	v, _ := ctx.ResolvePath(path)
	return v
}

// setPath writes through a concrete path, materializing intermediate maps.
// A list index writes in place when in bounds and is otherwise a no-op.
func setPath(item value.Item, path Path, v value.Value) {
	if len(path) == 1 && !path[0].IsIndex {
		item[path[0].Name] = v
		return
	}

	head := path[0]
	rest := path[1:]
	cur, has := item[head.Name]
	if !has {
		cur = value.M(value.Item{})
	}
	item[head.Name] = setNested(cur, rest, v)
}

func setNested(cur value.Value, path Path, v value.Value) value.Value {
	if len(path) == 0 {
		return v
	}
	head := path[0]
	rest := path[1:]

	if head.IsIndex {
		if cur.Kind() != value.KindL {
			return cur
		}
		list := cur.List()
		if head.Index < 0 || head.Index >= len(list) {
			return cur
		}
		out := append([]value.Value{}, list...)
		out[head.Index] = setNested(out[head.Index], rest, v)
		return value.L(out...)
	}

	attrs := value.Item{}
	if cur.Kind() == value.KindM {
		attrs = value.CloneItem(cur.Attrs())
	}
	child, has := attrs[head.Name]
	if !has {
		child = value.M(value.Item{})
	}
	attrs[head.Name] = setNested(child, rest, v)
	return value.M(attrs)
}

// removePath deletes the leaf of a concrete path; missing segments no-op.
func removePath(item value.Item, path Path) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		if !path[0].IsIndex {
			delete(item, path[0].Name)
		}
		return
	}
	head := path[0]
	if head.IsIndex {
		return
	}
	cur, has := item[head.Name]
	if !has {
		return
	}
	item[head.Name] = removeNested(cur, path[1:])
}

func removeNested(cur value.Value, path Path) value.Value {
	head := path[0]

	if head.IsIndex {
		if cur.Kind() != value.KindL {
			return cur
		}
		list := cur.List()
		if head.Index < 0 || head.Index >= len(list) {
			return cur
		}
		if len(path) == 1 {
			out := append([]value.Value{}, list[:head.Index]...)
			out = append(out, list[head.Index+1:]...)
			return value.L(out...)
		}
		out := append([]value.Value{}, list...)
		out[head.Index] = removeNested(out[head.Index], path[1:])
		return value.L(out...)
	}

	if cur.Kind() != value.KindM {
		return cur
	}
	attrs := value.CloneItem(cur.Attrs())
	if len(path) == 1 {
		delete(attrs, head.Name)
		return value.M(attrs)
	}
	child, has := attrs[head.Name]
	if !has {
		return value.M(attrs)
	}
	attrs[head.Name] = removeNested(child, path[1:])
	return value.M(attrs)
}

// addValues implements ADD: numeric addition or set union, creating the
// attribute when absent.
func addValues(old, operand value.Value) (value.Value, error) {
	if old.IsZero() {
		switch operand.Kind() {
		case value.KindN, value.KindSS, value.KindNS, value.KindBS:
			return operand, nil
		}
		return value.Value{}, fmt.Errorf(msgWrongOperandType)
	}

	if old.Kind() != operand.Kind() {
		return value.Value{}, fmt.Errorf(msgWrongOperandType)
	}

	switch old.Kind() {
	case value.KindN:
		a, err := value.ParseNumber(old.Number())
		if err != nil {
			return value.Value{}, err
		}
		b, err := value.ParseNumber(operand.Number())
		if err != nil {
			return value.Value{}, err
		}
		return value.N(a.Add(b).String()), nil

	case value.KindSS:
		return value.SS(unionSet(old.Strings(), operand.Strings(), func(a, b string) bool { return a == b })...), nil
	case value.KindNS:
		return value.NS(unionSet(old.Numbers(), operand.Numbers(), func(a, b string) bool { return value.N(a).Equal(value.N(b)) })...), nil
	case value.KindBS:
		set := unionSet(old.Binaries(), operand.Binaries(), func(a, b []byte) bool { return value.B(a).Equal(value.B(b)) })
		return value.BS(set...), nil
	}
	return value.Value{}, fmt.Errorf(msgWrongOperandType)
}

func unionSet[T any](a, b []T, eq func(T, T) bool) []T {
	out := append([]T{}, a...)
	for _, x := range b {
		dup := false
		for _, y := range out {
			if eq(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}

// deleteValues implements DELETE: subtract same-kind set elements; the
// second result reports the set became empty and must be removed.
func deleteValues(old, operand value.Value) (value.Value, bool, error) {
	if old.Kind() != operand.Kind() || !old.IsSet() {
		return value.Value{}, false, fmt.Errorf(msgWrongOperandType)
	}

	switch old.Kind() {
	case value.KindSS:
		out := diffSet(old.Strings(), operand.Strings(), func(a, b string) bool { return a == b })
		return value.SS(out...), len(out) == 0, nil
	case value.KindNS:
		out := diffSet(old.Numbers(), operand.Numbers(), func(a, b string) bool { return value.N(a).Equal(value.N(b)) })
		return value.NS(out...), len(out) == 0, nil
	case value.KindBS:
		out := diffSet(old.Binaries(), operand.Binaries(), func(a, b []byte) bool { return value.B(a).Equal(value.B(b)) })
		return value.BS(out...), len(out) == 0, nil
	}
	return value.Value{}, false, fmt.Errorf(msgWrongOperandType)
}

func diffSet[T any](a, b []T, eq func(T, T) bool) []T {
	out := []T{}
	for _, x := range a {
		drop := false
		for _, y := range b {
			if eq(x, y) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, x)
		}
	}
	return out
}
