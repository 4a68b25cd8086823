//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import "github.com/fogfish/nimbus/internal/ddb/expression"

func (s *Service) getItem(in *getItemInput) (*getItemOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}

	var legacy, expr []string
	if len(in.AttributesToGet) > 0 {
		legacy = append(legacy, "AttributesToGet")
	}
	if in.ProjectionExpression != "" {
		expr = append(expr, "ProjectionExpression")
	}
	if in.ExpressionAttributeNames != nil {
		expr = append(expr, "ExpressionAttributeNames")
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
	plan, err := buildProjection(in.ProjectionExpression, in.AttributesToGet, in.ExpressionAttributeNames, refs)
	if err != nil {
		return nil, err
	}
	if err := checkPlaceholders(refs, in.ExpressionAttributeNames, nil, in.ProjectionExpression != ""); err != nil {
		return nil, err
	}

	item, perr := plan.apply(t.store.Get(key))
	if perr != nil {
		return nil, perr
	}
	return &getItemOutput{
		Item:             item,
		ConsumedCapacity: capacityFor(in.ReturnConsumedCapacity, t.name),
	}, nil
}
