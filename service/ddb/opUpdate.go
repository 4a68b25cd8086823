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

// updatePlan is a parsed update with the placeholder maps it applies
// under plus the legacy list-append attributes handled outside the
// expression path.
type updatePlan struct {
	update  expression.Update
	names   map[string]string
	values  map[string]value.Value
	appends map[string]value.Value
}

func (p updatePlan) isEmpty() bool {
	u := p.update
	return len(u.Set) == 0 && len(u.Add) == 0 && len(u.Remove) == 0 && len(u.Delete) == 0 &&
		len(p.appends) == 0
}

// destructiveOnly reports an update of only REMOVE and DELETE actions.
// Such an update against a missing item must not materialize it.
func (p updatePlan) destructiveOnly() bool {
	u := p.update
	return len(u.Set) == 0 && len(u.Add) == 0 && len(p.appends) == 0 &&
		len(u.Remove)+len(u.Delete) > 0
}

func (s *Service) updateItem(in *updateItemInput) (*updateItemOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	if err := validateReturnValues(in.ReturnValues,
		"NONE", "ALL_OLD", "UPDATED_OLD", "ALL_NEW", "UPDATED_NEW"); err != nil {
		return nil, err
	}
	if err := validateReturnValuesOnConditionCheckFailure(in.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}

	var legacy, expr []string
	if len(in.AttributeUpdates) > 0 {
		legacy = append(legacy, "AttributeUpdates")
	}
	if len(in.Expected) > 0 {
		legacy = append(legacy, "Expected")
	}
	if in.UpdateExpression != "" {
		expr = append(expr, "UpdateExpression")
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
	schema := t.store.Schema()
	key, err := extractKey(schema, in.Key)
	if err != nil {
		return nil, err
	}

	refs := expression.NewRefs()
	upd, err := buildUpdate(in, refs)
	if err != nil {
		return nil, err
	}
	cond, err := buildCondition(in.ConditionExpression, in.Expected, in.ConditionalOperator,
		in.ExpressionAttributeNames, in.ExpressionAttributeValues, refs)
	if err != nil {
		return nil, err
	}
	hasExpr := in.UpdateExpression != "" || in.ConditionExpression != ""
	if err := checkPlaceholders(refs, in.ExpressionAttributeNames, in.ExpressionAttributeValues, hasExpr); err != nil {
		return nil, err
	}
	if hasExpr {
		if err := validateItem(in.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}

	// reject updates touching key attributes and overlapping paths
	pathCtx := &expression.Context{Names: upd.names}
	if err := checkUpdatePaths(upd.update, schema, pathCtx); err != nil {
		return nil, err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	stored := t.store.Get(key)
	if err := cond.check(stored, in.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}

	// a missing item starts from its key attributes, CloneItem of a nil
	// item is an empty map and would lose the key
	var base value.Item
	if stored != nil {
		base = value.CloneItem(stored)
	} else {
		base = value.CloneItem(in.Key)
	}
	if err := applyLegacyAppends(base, upd.appends); err != nil {
		return nil, err
	}

	ctx := &expression.Context{Item: base, Names: upd.names, Values: upd.values}
	next, aerr := ctx.Apply(upd.update)
	if aerr != nil {
		return nil, errValidation("%s", aerr.Error())
	}
	if err := validateItemSize(next); err != nil {
		return nil, err
	}

	materialize := stored != nil || !upd.destructiveOnly()
	if materialize {
		if _, serr := t.store.Put(next); serr != nil {
			return nil, errValidation(msgKeySchemaMismatch)
		}
	}

	out := &updateItemOutput{ConsumedCapacity: capacityFor(in.ReturnConsumedCapacity, t.name)}
	attrs, rerr := updateReturn(in.ReturnValues, upd, stored, next, materialize)
	if rerr != nil {
		return nil, rerr
	}
	if len(attrs) > 0 {
		out.Attributes = attrs
	}
	return out, nil
}

// buildUpdate assembles the update plan from UpdateExpression or the
// legacy AttributeUpdates parameter. A legacy ADD of a list value is
// peeled off into the direct-append set, the expression language has no
// equivalent action.
func buildUpdate(in *updateItemInput, refs *expression.Refs) (updatePlan, *Error) {
	if in.UpdateExpression != "" {
		if strings.TrimSpace(in.UpdateExpression) == "" {
			return updatePlan{}, errValidation(msgEmptyExpression, "UpdateExpression")
		}
		update, err := expression.ParseUpdate(in.UpdateExpression)
		if err != nil {
			return updatePlan{}, errValidation("%s", err.Error())
		}
		refs.Update(update)
		return updatePlan{
			update: update,
			names:  in.ExpressionAttributeNames,
			values: in.ExpressionAttributeValues,
		}, nil
	}

	if len(in.AttributeUpdates) == 0 {
		return updatePlan{}, nil
	}

	appends := map[string]value.Value{}
	rest := map[string]expression.LegacyUpdate{}
	for attr, u := range in.AttributeUpdates {
		if u.Value != nil {
			if err := validateAttribute(*u.Value); err != nil {
				return updatePlan{}, err
			}
		}
		if u.Action == "ADD" && u.Value != nil && u.Value.Kind() == value.KindL {
			appends[attr] = *u.Value
			continue
		}
		rest[attr] = expression.LegacyUpdate{Action: u.Action, Value: u.Value}
	}

	syn, err := expression.ConvertUpdates(rest)
	if err != nil {
		return updatePlan{}, errValidation("%s", err.Error())
	}
	plan := updatePlan{names: syn.Names, values: syn.Values, appends: appends}
	if syn.Expression != "" {
		update, perr := expression.ParseUpdate(syn.Expression)
		if perr != nil {
			return updatePlan{}, errInternal(perr)
		}
		plan.update = update
	}
	return plan, nil
}

// applyLegacyAppends mutates the base item with legacy ADD-of-list
// actions: absent attributes are created, lists are appended, anything
// else is a type mismatch.
func applyLegacyAppends(base value.Item, appends map[string]value.Value) *Error {
	for attr, v := range appends {
		old, has := base[attr]
		if !has {
			base[attr] = v.Clone()
			continue
		}
		if old.Kind() != value.KindL {
			return errValidation(msgAddWrongType)
		}
		list := append([]value.Value{}, old.List()...)
		list = append(list, v.List()...)
		base[attr] = value.L(list...)
	}
	return nil
}

// updateReturn renders the Attributes member for the requested
// ReturnValues mode.
func updateReturn(mode string, upd updatePlan, old, next value.Item, materialized bool) (value.Item, *Error) {
	switch mode {
	case "", "NONE":
		return nil, nil

	case "ALL_OLD":
		return value.CloneItem(old), nil

	case "ALL_NEW":
		if !materialized {
			return nil, nil
		}
		return value.CloneItem(next), nil

	case "UPDATED_OLD":
		return projectUpdated(upd, old)

	case "UPDATED_NEW":
		if !materialized && old == nil {
			return nil, nil
		}
		return projectUpdated(upd, next)
	}
	return nil, nil
}

// projectUpdated projects the update target paths over an item snapshot.
func projectUpdated(upd updatePlan, item value.Item) (value.Item, *Error) {
	if item == nil {
		return nil, nil
	}
	ctx := &expression.Context{Item: item, Names: upd.names}
	paths := upd.update.Paths()
	for attr := range upd.appends {
		paths = append(paths, expression.Path{{Name: attr}})
	}
	out, err := ctx.Project(paths)
	if err != nil {
		return nil, errValidation("%s", err.Error())
	}
	return out, nil
}
