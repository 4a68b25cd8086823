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
)

const maxTotalSegments = 1000000

func (s *Service) scan(in *scanInput) (*queryOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	if in.IndexName != "" {
		return nil, errValidation(msgNoIndex, in.IndexName)
	}

	var legacy, expr []string
	if len(in.ScanFilter) > 0 {
		legacy = append(legacy, "ScanFilter")
	}
	if len(in.AttributesToGet) > 0 {
		legacy = append(legacy, "AttributesToGet")
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

	segment, total, err := scanSegments(in.Segment, in.TotalSegments)
	if err != nil {
		return nil, err
	}

	refs := expression.NewRefs()
	filter, err := buildFilter(in.FilterExpression, in.ScanFilter, in.ConditionalOperator,
		in.ExpressionAttributeNames, in.ExpressionAttributeValues, refs)
	if err != nil {
		return nil, err
	}
	projection, err := buildProjection(in.ProjectionExpression, in.AttributesToGet,
		in.ExpressionAttributeNames, refs)
	if err != nil {
		return nil, err
	}

	hasExpr := in.FilterExpression != "" || in.ProjectionExpression != ""
	if err := checkPlaceholders(refs, in.ExpressionAttributeNames, in.ExpressionAttributeValues, hasExpr); err != nil {
		return nil, err
	}
	if hasExpr {
		if err := validateItem(in.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}

	schema := t.store.Schema()
	var startAfter *storage.Key
	if in.ExclusiveStartKey != nil {
		k, serr := schema.ExtractKey(in.ExclusiveStartKey)
		if serr != nil {
			return nil, errValidation(msgStartKeyInvalid)
		}
		if total > 0 && storage.Segment(k.Hash, total) != segment {
			return nil, errValidation(msgScanStartKeySegment)
		}
		startAfter = &k
	}

	limit := 0
	if in.Limit != nil {
		limit = *in.Limit
	}

	page := t.store.Scan(limit, startAfter, segment, total)

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
	if page.LastKey != nil {
		out.LastEvaluatedKey = page.LastKey.Item(schema)
	}
	return out, nil
}

// scanSegments validates the parallel-scan pair: both present or both
// absent, total in [1, 1000000], segment in [0, total).
func scanSegments(segment, total *int) (int, int, *Error) {
	if segment == nil && total == nil {
		return 0, 0, nil
	}
	if total == nil {
		return 0, 0, errValidation(msgScanTotalRequired)
	}
	if segment == nil {
		return 0, 0, errValidation(msgScanSegmentRequired)
	}
	if *total < 1 || *total > maxTotalSegments {
		return 0, 0, errValidation(msgScanTotalRange, *total)
	}
	if *segment < 0 || *segment >= *total {
		return 0, 0, errValidation(msgScanSegmentRange, *segment, *total-1)
	}
	return *segment, *total, nil
}
