//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import "github.com/fogfish/nimbus/internal/ddb/expression"

func (s *Service) deleteItem(in *deleteItemInput) (*deleteItemOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	if err := validateReturnValues(in.ReturnValues, "NONE", "ALL_OLD"); err != nil {
		return nil, err
	}
	if err := validateReturnValuesOnConditionCheckFailure(in.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}

	var legacy, expr []string
	if len(in.Expected) > 0 {
		legacy = append(legacy, "Expected")
	}
	if in.ConditionExpression != "" {
		expr = append(expr, "ConditionExpression")
	}
	if in.ExpressionAttributeNames != nil {
		expr = append(expr, "ExpressionAttributeNames")
	}
	if in.ExpressionAttributeValues != nil {
		expr = append(expr, "ExpressionAttributeValues")
	}
	if err := checkExprConflict(legacy, expr); err != nil {
		return nil, err
	}

	if in.Key == nil {
		return nil, errValidation(msgMemberNull, "key")
	}
	key, err := extractKey(t.store.Schema(), in.Key)
	if err != nil {
		return nil, err
	}

	refs := expression.NewRefs()
	plan, err := buildCondition(in.ConditionExpression, in.Expected, in.ConditionalOperator,
		in.ExpressionAttributeNames, in.ExpressionAttributeValues, refs)
	if err != nil {
		return nil, err
	}
	hasExpr := in.ConditionExpression != ""
	if err := checkPlaceholders(refs, in.ExpressionAttributeNames, in.ExpressionAttributeValues, hasExpr); err != nil {
		return nil, err
	}
	if hasExpr {
		if err := validateItem(in.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	stored := t.store.Get(key)
	if err := plan.check(stored, in.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}
	old := t.store.Delete(key)

	out := &deleteItemOutput{ConsumedCapacity: capacityFor(in.ReturnConsumedCapacity, t.name)}
	if in.ReturnValues == "ALL_OLD" && old != nil {
		out.Attributes = old
	}
	return out, nil
}
