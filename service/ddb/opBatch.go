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

const (
	maxBatchGetKeys      = 100
	maxBatchWriteRequest = 25
)

func (s *Service) batchGetItem(in *batchGetItemInput) (*batchGetItemOutput, *Error) {
	if len(in.RequestItems) == 0 {
		return nil, errValidation(msgMemberNull, "requestItems")
	}

	keys := 0
	for _, req := range in.RequestItems {
		keys += len(req.Keys)
	}
	if keys > maxBatchGetKeys {
		return nil, errValidation(msgBatchGetTooMany)
	}

	out := &batchGetItemOutput{
		Responses:       map[string][]value.Item{},
		UnprocessedKeys: map[string]keysAndAttributes{},
	}
	for name, req := range in.RequestItems {
		t, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		if len(req.Keys) == 0 {
			return nil, errValidation(msgMemberNull, "keys")
		}

		var legacy, expr []string
		if len(req.AttributesToGet) > 0 {
			legacy = append(legacy, "AttributesToGet")
		}
		if req.ProjectionExpression != "" {
			expr = append(expr, "ProjectionExpression")
		}
		if req.ExpressionAttributeNames != nil {
			expr = append(expr, "ExpressionAttributeNames")
		}
		if err := checkExprConflict(legacy, expr); err != nil {
			return nil, err
		}

		refs := expression.NewRefs()
		plan, err := buildProjection(req.ProjectionExpression, req.AttributesToGet, req.ExpressionAttributeNames, refs)
		if err != nil {
			return nil, err
		}
		if err := checkPlaceholders(refs, req.ExpressionAttributeNames, nil, req.ProjectionExpression != ""); err != nil {
			return nil, err
		}

		schema := t.store.Schema()
		seen := map[string]bool{}
		items := []value.Item{}
		for _, wireKey := range req.Keys {
			key, err := extractKey(schema, wireKey)
			if err != nil {
				return nil, err
			}
			id := string(key.Hash.Canonical()) + "\x00" + string(key.Sort.Canonical())
			if seen[id] {
				return nil, errValidation(msgBatchDuplicateKeys)
			}
			seen[id] = true

			item := t.store.Get(key)
			if item == nil {
				continue
			}
			projected, perr := plan.apply(item)
			if perr != nil {
				return nil, perr
			}
			items = append(items, projected)
		}
		out.Responses[name] = items
	}
	return out, nil
}

// batchWrite is one validated write of a BatchWriteItem request.
type batchWrite struct {
	table *table
	item  value.Item
	key   storage.Key
	del   bool
}

func (s *Service) batchWriteItem(in *batchWriteItemInput) (*batchWriteItemOutput, *Error) {
	if len(in.RequestItems) == 0 {
		return nil, errValidation(msgMemberNull, "requestItems")
	}

	total := 0
	for _, reqs := range in.RequestItems {
		total += len(reqs)
	}
	if total > maxBatchWriteRequest {
		return nil, errValidation(msgBatchWriteTooMany)
	}

	// validate everything before touching any table, the batch applies
	// all-or-nothing on validation failures
	var writes []batchWrite
	for name, reqs := range in.RequestItems {
		t, err := s.lookup(name)
		if err != nil {
			return nil, err
		}
		schema := t.store.Schema()
		seen := map[string]bool{}

		for _, req := range reqs {
			set := 0
			if req.PutRequest != nil {
				set++
			}
			if req.DeleteRequest != nil {
				set++
			}
			if set != 1 {
				return nil, errValidation(msgBatchWriteRequest, set)
			}

			w := batchWrite{table: t}
			if req.PutRequest != nil {
				item := req.PutRequest.Item
				if item == nil {
					return nil, errValidation(msgMemberNull, "item")
				}
				if err := validateItem(item); err != nil {
					return nil, err
				}
				if _, has := item[schema.Partition.Name]; !has {
					return nil, errValidation(msgAttributesRequired, schema.Partition.Name)
				}
				if schema.Sort != nil {
					if _, has := item[schema.Sort.Name]; !has {
						return nil, errValidation(msgAttributesRequired, schema.Sort.Name)
					}
				}
				key, kerr := extractKey(schema, keyOf(schema, item))
				if kerr != nil {
					return nil, kerr
				}
				if err := validateItemSize(item); err != nil {
					return nil, err
				}
				w.item, w.key = item, key
			} else {
				key, kerr := extractKey(schema, req.DeleteRequest.Key)
				if kerr != nil {
					return nil, kerr
				}
				w.key, w.del = key, true
			}

			id := string(w.key.Hash.Canonical()) + "\x00" + string(w.key.Sort.Canonical())
			if seen[id] {
				return nil, errValidation(msgBatchDuplicateKeys)
			}
			seen[id] = true
			writes = append(writes, w)
		}
	}

	for _, w := range writes {
		if w.del {
			w.table.store.Delete(w.key)
			continue
		}
		if _, err := w.table.store.Put(w.item); err != nil {
			return nil, errValidation(msgKeySchemaMismatch)
		}
	}
	return &batchWriteItemOutput{UnprocessedItems: map[string][]writeRequest{}}, nil
}
