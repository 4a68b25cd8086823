//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"strings"

	"github.com/fogfish/nimbus/internal/ddb/expression"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

// conditionPlan is a parsed condition with the placeholder maps it
// evaluates under, either client-supplied or synthesized from legacy
// parameters.
type conditionPlan struct {
	cond   expression.Condition
	names  map[string]string
	values map[string]value.Value
}

func toLegacyExpected(wire map[string]expectedAttributeValue) map[string]expression.LegacyExpected {
	out := make(map[string]expression.LegacyExpected, len(wire))
	for attr, e := range wire {
		out[attr] = expression.LegacyExpected{
			Exists:   e.Exists,
			Value:    e.Value,
			Operator: e.ComparisonOperator,
			Values:   e.AttributeValueList,
		}
	}
	return out
}

func toLegacyConditions(wire map[string]legacyCondition) map[string]expression.LegacyCondition {
	out := make(map[string]expression.LegacyCondition, len(wire))
	for attr, c := range wire {
		out[attr] = expression.LegacyCondition{
			Operator: c.ComparisonOperator,
			Values:   c.AttributeValueList,
		}
	}
	return out
}

// buildCondition assembles the condition plan of a write operation from
// ConditionExpression or the legacy Expected parameter. Mutual-exclusion
// and placeholder checks are the caller's, it knows the parameter names
// and holds the refs accumulated over every expression of the request.
func buildCondition(
	exprText string,
	expected map[string]expectedAttributeValue,
	condOp string,
	names map[string]string,
	values value.Item,
	refs *expression.Refs,
) (conditionPlan, *Error) {
	if exprText != "" {
		if strings.TrimSpace(exprText) == "" {
			return conditionPlan{}, errValidation(msgEmptyExpression, "ConditionExpression")
		}
		cond, err := expression.ParseCondition(exprText)
		if err != nil {
			return conditionPlan{}, errValidation("%s", err.Error())
		}
		refs.Condition(cond)
		return conditionPlan{cond: cond, names: names, values: values}, nil
	}

	if len(expected) == 0 {
		if err := validateConditionalOperator(condOp, 0); err != nil {
			return conditionPlan{}, err
		}
		return conditionPlan{}, nil
	}
	if err := validateConditionalOperator(condOp, len(expected)); err != nil {
		return conditionPlan{}, err
	}

	syn, err := expression.ConvertExpected(toLegacyExpected(expected), logicOp(condOp))
	if err != nil {
		return conditionPlan{}, errValidation("%s", err.Error())
	}
	cond, err := expression.ParseCondition(syn.Expression)
	if err != nil {
		return conditionPlan{}, errInternal(err)
	}
	return conditionPlan{cond: cond, names: syn.Names, values: syn.Values}, nil
}

// check evaluates the plan against the stored item. A false verdict is
// ConditionalCheckFailedException, carrying the old item when the
// request opted into ALL_OLD on failure.
func (p conditionPlan) check(stored value.Item, rvoccf string) *Error {
	if p.cond == nil {
		return nil
	}
	item := stored
	if item == nil {
		item = value.Item{}
	}
	ctx := &expression.Context{Item: item, Names: p.names, Values: p.values}
	ok, err := ctx.Eval(p.cond)
	if err != nil {
		return errValidation("%s", err.Error())
	}
	if !ok {
		if rvoccf == "ALL_OLD" && stored != nil {
			return errConditionalCheckFailed(value.CloneItem(stored))
		}
		return errConditionalCheckFailed(nil)
	}
	return nil
}

// buildFilter assembles the filter plan of a read operation from
// FilterExpression or the legacy QueryFilter and ScanFilter parameters.
func buildFilter(
	exprText string,
	legacy map[string]legacyCondition,
	condOp string,
	names map[string]string,
	values value.Item,
	refs *expression.Refs,
) (conditionPlan, *Error) {
	if exprText != "" {
		if strings.TrimSpace(exprText) == "" {
			return conditionPlan{}, errValidation(msgEmptyExpression, "FilterExpression")
		}
		cond, err := expression.ParseCondition(exprText)
		if err != nil {
			return conditionPlan{}, errValidation("%s", err.Error())
		}
		refs.Condition(cond)
		return conditionPlan{cond: cond, names: names, values: values}, nil
	}

	if len(legacy) == 0 {
		return conditionPlan{}, nil
	}
	if err := validateConditionalOperator(condOp, len(legacy)); err != nil {
		return conditionPlan{}, err
	}
	syn, err := expression.ConvertConditions(toLegacyConditions(legacy), logicOp(condOp))
	if err != nil {
		return conditionPlan{}, errValidation("%s", err.Error())
	}
	cond, err := expression.ParseCondition(syn.Expression)
	if err != nil {
		return conditionPlan{}, errInternal(err)
	}
	return conditionPlan{cond: cond, names: syn.Names, values: syn.Values}, nil
}

// match evaluates the filter against one item snapshot.
func (p conditionPlan) match(item value.Item) (bool, *Error) {
	if p.cond == nil {
		return true, nil
	}
	ctx := &expression.Context{Item: item, Names: p.names, Values: p.values}
	ok, err := ctx.Eval(p.cond)
	if err != nil {
		return false, errValidation("%s", err.Error())
	}
	return ok, nil
}

// projectionPlan is a parsed projection with its name placeholders.
type projectionPlan struct {
	paths []expression.Path
	names map[string]string
}

// buildProjection assembles the projection plan from ProjectionExpression
// or the legacy AttributesToGet parameter.
func buildProjection(exprText string, attrsToGet []string, names map[string]string, refs *expression.Refs) (projectionPlan, *Error) {
	if exprText != "" {
		paths, err := expression.ParseProjection(exprText)
		if err != nil {
			return projectionPlan{}, errValidation("%s", err.Error())
		}
		refs.Projection(paths)
		if err := checkProjectionOverlap(paths); err != nil {
			return projectionPlan{}, err
		}
		return projectionPlan{paths: paths, names: names}, nil
	}

	if len(attrsToGet) == 0 {
		return projectionPlan{}, nil
	}
	seen := map[string]bool{}
	for _, attr := range attrsToGet {
		if seen[attr] {
			return projectionPlan{}, errValidation("One or more parameter values were invalid: Duplicate value in attribute name: %s", attr)
		}
		seen[attr] = true
	}
	syn := expression.ConvertProjection(attrsToGet)
	paths, err := expression.ParseProjection(syn.Expression)
	if err != nil {
		return projectionPlan{}, errInternal(err)
	}
	return projectionPlan{paths: paths, names: syn.Names}, nil
}

func checkProjectionOverlap(paths []expression.Path) *Error {
	for i := 0; i < len(paths); i++ {
		for j := i + 1; j < len(paths); j++ {
			a, b := paths[i], paths[j]
			prefix, conflict := a.HasPrefix(b)
			if !prefix && !conflict {
				prefix, conflict = b.HasPrefix(a)
			}
			if conflict {
				return errValidation(msgPathConflict, pathErrString(a, nil), pathErrString(b, nil))
			}
			if prefix {
				return errValidation(msgPathOverlap, pathErrString(a, nil), pathErrString(b, nil))
			}
		}
	}
	return nil
}

// empty reports a plan that projects the whole item.
func (p projectionPlan) empty() bool { return len(p.paths) == 0 }

// apply projects the item, returning a full clone when no paths are set.
func (p projectionPlan) apply(item value.Item) (value.Item, *Error) {
	if item == nil {
		return nil, nil
	}
	if p.empty() {
		return value.CloneItem(item), nil
	}
	ctx := &expression.Context{Item: item, Names: p.names}
	out, err := ctx.Project(p.paths)
	if err != nil {
		return nil, errValidation("%s", err.Error())
	}
	return out, nil
}
