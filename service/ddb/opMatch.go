//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"bytes"

	"github.com/fogfish/nimbus/internal/ddb/expression"
	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

func validateSelect(sel string, hasProjection bool) *Error {
	switch sel {
	case "":
	case "SPECIFIC_ATTRIBUTES":
		if !hasProjection {
			return errValidation(msgSelectSpecific)
		}
	case "COUNT":
		if hasProjection {
			return errValidation(msgSelectCount)
		}
	case "ALL_ATTRIBUTES":
		if hasProjection {
			return errValidation(msgSelectProjection)
		}
	case "ALL_PROJECTED_ATTRIBUTES":
		return errValidation("ALL_PROJECTED_ATTRIBUTES can be specified only when querying an index")
	default:
		return errValidation("Value '%s' at 'select' failed to satisfy constraint: Member must satisfy enum value set: [ALL_ATTRIBUTES, ALL_PROJECTED_ATTRIBUTES, SPECIFIC_ATTRIBUTES, COUNT]", sel)
	}
	return nil
}

func (s *Service) query(in *queryInput) (*queryOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	if in.IndexName != "" {
		return nil, errValidation(msgNoIndex, in.IndexName)
	}

	var legacy, expr []string
	if len(in.KeyConditions) > 0 {
		legacy = append(legacy, "KeyConditions")
	}
	if len(in.QueryFilter) > 0 {
		legacy = append(legacy, "QueryFilter")
	}
	if len(in.AttributesToGet) > 0 {
		legacy = append(legacy, "AttributesToGet")
	}
	if in.KeyConditionExpression != "" {
		expr = append(expr, "KeyConditionExpression")
	}
	if in.FilterExpression != "" {
		expr = append(expr, "FilterExpression")
	}
	if in.ProjectionExpression != "" {
		expr = append(expr, "ProjectionExpression")
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

	if err := validateLimit(in.Limit); err != nil {
		return nil, err
	}
	hasProjection := in.ProjectionExpression != "" || len(in.AttributesToGet) > 0
	if err := validateSelect(in.Select, hasProjection); err != nil {
		return nil, err
	}

	schema := t.store.Schema()
	refs := expression.NewRefs()

	keyCondAST, keyCtx, err := buildKeyCondition(in, refs)
	if err != nil {
		return nil, err
	}
	filter, err := buildFilter(in.FilterExpression, in.QueryFilter, in.ConditionalOperator,
		in.ExpressionAttributeNames, in.ExpressionAttributeValues, refs)
	if err != nil {
		return nil, err
	}
	if filter.cond != nil {
		if err := checkFilterKeys(filter.cond, schema, filter.names); err != nil {
			return nil, err
		}
	}
	projection, err := buildProjection(in.ProjectionExpression, in.AttributesToGet,
		in.ExpressionAttributeNames, refs)
	if err != nil {
		return nil, err
	}

	hasExpr := in.KeyConditionExpression != "" || in.FilterExpression != "" || in.ProjectionExpression != ""
	if err := checkPlaceholders(refs, in.ExpressionAttributeNames, in.ExpressionAttributeValues, hasExpr); err != nil {
		return nil, err
	}
	if hasExpr {
		if err := validateItem(in.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}

	kc, err := extractKeyCondition(keyCondAST, schema, keyCtx)
	if err != nil {
		return nil, err
	}

	var startAfter value.SortKey
	if in.ExclusiveStartKey != nil {
		k, serr := schema.ExtractKey(in.ExclusiveStartKey)
		if serr != nil {
			return nil, errValidation(msgStartKeyInvalid)
		}
		if !bytes.Equal(k.Hash.Canonical(), kc.hash.Canonical()) {
			return nil, errValidation(msgStartKeyInvalid)
		}
		if schema.Sort == nil {
			// the single item of the partition was already delivered
			return &queryOutput{
				ConsumedCapacity: capacityFor(in.ReturnConsumedCapacity, t.name),
			}, nil
		}
		startAfter = k.Sort
	}

	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	limit := 0
	if in.Limit != nil {
		limit = *in.Limit
	}

	page := t.store.Query(kc.hash, kc.sort, forward, limit, startAfter)

	out := &queryOutput{
		ScannedCount:     len(page.Items),
		ConsumedCapacity: capacityFor(in.ReturnConsumedCapacity, t.name),
	}
	for _, item := range page.Items {
		ok, merr := filter.match(item)
		if merr != nil {
			return nil, merr
		}
		if !ok {
			continue
		}
		out.Count++
		if in.Select == "COUNT" {
			continue
		}
		projected, perr := projection.apply(item)
		if perr != nil {
			return nil, perr
		}
		out.Items = append(out.Items, projected)
	}
	if page.More {
		out.LastEvaluatedKey = storage.Key{Hash: kc.hash, Sort: page.LastSort}.Item(schema)
	}
	return out, nil
}

// buildKeyCondition parses KeyConditionExpression or synthesizes one from
// the legacy KeyConditions parameter, returning the AST with the context
// it resolves under.
func buildKeyCondition(in *queryInput, refs *expression.Refs) (expression.Condition, *expression.Context, *Error) {
	if in.KeyConditionExpression != "" {
		cond, err := expression.ParseCondition(in.KeyConditionExpression)
		if err != nil {
			return nil, nil, errValidation("%s", err.Error())
		}
		refs.Condition(cond)
		ctx := &expression.Context{
			Names:  in.ExpressionAttributeNames,
			Values: in.ExpressionAttributeValues,
		}
		return cond, ctx, nil
	}

	if len(in.KeyConditions) == 0 {
		return nil, nil, errValidation(msgKeyCondRequired)
	}
	syn, err := expression.ConvertConditions(toLegacyConditions(in.KeyConditions), expression.LogicAnd)
	if err != nil {
		return nil, nil, errValidation("%s", err.Error())
	}
	cond, perr := expression.ParseCondition(syn.Expression)
	if perr != nil {
		return nil, nil, errInternal(perr)
	}
	ctx := &expression.Context{Names: syn.Names, Values: syn.Values}
	return cond, ctx, nil
}
