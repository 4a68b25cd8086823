//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"github.com/fogfish/nimbus/internal/ddb/expression"
	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

// keyCondition is the lowered form of a key condition expression: an
// equality bound partition value plus an optional sort-key range.
type keyCondition struct {
	hash value.SortKey
	sort *storage.SortCondition
}

// keyPredicate is one recognized predicate of the key condition grammar.
type keyPredicate struct {
	attr string
	op   string
	low  value.Value
	high value.Value
}

// extractKeyCondition validates the shape of a key condition against the
// restricted grammar: a partition equality, optionally AND one range
// predicate on the sort key. Anything else is rejected.
func extractKeyCondition(cond expression.Condition, schema storage.Schema, ctx *expression.Context) (keyCondition, *Error) {
	preds, err := flattenKeyCondition(cond, ctx)
	if err != nil {
		return keyCondition{}, err
	}

	var hashPred, sortPred *keyPredicate
	for i := range preds {
		p := &preds[i]
		switch {
		case p.attr == schema.Partition.Name:
			if hashPred != nil {
				return keyCondition{}, errValidation(msgOneCondPerKey)
			}
			hashPred = p
		case schema.Sort != nil && p.attr == schema.Sort.Name:
			if sortPred != nil {
				return keyCondition{}, errValidation(msgOneCondPerKey)
			}
			sortPred = p
		default:
			return keyCondition{}, errValidation(msgQueryCondMissedKey, schema.Partition.Name)
		}
	}

	if hashPred == nil {
		return keyCondition{}, errValidation(msgQueryCondMissedKey, schema.Partition.Name)
	}
	if hashPred.op != "=" {
		return keyCondition{}, errValidation(msgQueryCondUnsupported)
	}
	if hashPred.low.Kind() != schema.Partition.Kind {
		return keyCondition{}, errValidation(msgCondParamType)
	}
	hash, serr := value.Sortable(hashPred.low)
	if serr != nil {
		return keyCondition{}, errValidation(msgCondParamType)
	}

	out := keyCondition{hash: hash}
	if sortPred != nil {
		kind := schema.Sort.Kind
		if sortPred.low.Kind() != kind {
			return keyCondition{}, errValidation(msgCondParamType)
		}
		if sortPred.op == "begins_with" && kind == value.KindN {
			return keyCondition{}, errValidation(msgQueryCondUnsupported)
		}
		low, serr := value.Sortable(sortPred.low)
		if serr != nil {
			return keyCondition{}, errValidation(msgCondParamType)
		}
		sc := &storage.SortCondition{Op: sortPred.op, Value: low}
		if sortPred.op == "BETWEEN" {
			if sortPred.high.Kind() != kind {
				return keyCondition{}, errValidation(msgCondParamType)
			}
			high, serr := value.Sortable(sortPred.high)
			if serr != nil {
				return keyCondition{}, errValidation(msgCondParamType)
			}
			sc.High = high
		}
		out.sort = sc
	}
	return out, nil
}

// flattenKeyCondition lowers the condition tree into predicates, allowing
// only AND composition.
func flattenKeyCondition(cond expression.Condition, ctx *expression.Context) ([]keyPredicate, *Error) {
	switch v := cond.(type) {
	case expression.Logical:
		if v.Op != expression.LogicAnd {
			return nil, errValidation(msgQueryCondUnsupported)
		}
		left, err := flattenKeyCondition(v.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := flattenKeyCondition(v.Right, ctx)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	case expression.Compare:
		attr, op, val, err := comparePredicate(v, ctx)
		if err != nil {
			return nil, err
		}
		return []keyPredicate{{attr: attr, op: op, low: val}}, nil

	case expression.Between:
		attr, err := keyAttr(v.Value, ctx)
		if err != nil {
			return nil, err
		}
		low, verr := keyValue(v.Low, ctx)
		if verr != nil {
			return nil, verr
		}
		high, verr := keyValue(v.High, ctx)
		if verr != nil {
			return nil, verr
		}
		return []keyPredicate{{attr: attr, op: "BETWEEN", low: low, high: high}}, nil

	case expression.Call:
		if v.Name != "begins_with" || len(v.Args) != 2 {
			return nil, errValidation(msgQueryCondUnsupported)
		}
		attr, err := keyAttr(v.Args[0], ctx)
		if err != nil {
			return nil, err
		}
		prefix, verr := keyValue(v.Args[1], ctx)
		if verr != nil {
			return nil, verr
		}
		return []keyPredicate{{attr: attr, op: "begins_with", low: prefix}}, nil
	}
	return nil, errValidation(msgQueryCondUnsupported)
}

// comparePredicate recognizes path-to-value comparisons in either operand
// order, flipping the operator when the path is on the right.
func comparePredicate(cmp expression.Compare, ctx *expression.Context) (string, string, value.Value, *Error) {
	left, right, op := cmp.Left, cmp.Right, cmp.Op
	if left.Kind == expression.OperandValue && right.Kind == expression.OperandPath {
		left, right, op = right, left, op.Flip()
	}
	if op == "<>" {
		return "", "", value.Value{}, errValidation(msgQueryCondUnsupported)
	}
	attr, err := keyAttr(left, ctx)
	if err != nil {
		return "", "", value.Value{}, err
	}
	val, verr := keyValue(right, ctx)
	if verr != nil {
		return "", "", value.Value{}, verr
	}
	return attr, string(op), val, nil
}

func keyAttr(op expression.Operand, ctx *expression.Context) (string, *Error) {
	if op.Kind != expression.OperandPath || len(op.Path) != 1 || op.Path[0].IsIndex {
		return "", errValidation(msgQueryCondUnsupported)
	}
	name, err := ctx.ResolveName(op.Path[0].Name)
	if err != nil {
		return "", errValidation("%s", err.Error())
	}
	return name, nil
}

func keyValue(op expression.Operand, ctx *expression.Context) (value.Value, *Error) {
	if op.Kind != expression.OperandValue {
		return value.Value{}, errValidation(msgQueryCondUnsupported)
	}
	v, err := ctx.ResolveValue(op.Value)
	if err != nil {
		return value.Value{}, errValidation("%s", err.Error())
	}
	return v, nil
}
