//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/fogfish/nimbus/internal/ddb/expression"
	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

// maxItemSize is the 400 KiB per-item cap.
const maxItemSize = 400 * 1024

func validateTableName(name string) *Error {
	if len(name) < 3 || len(name) > 255 {
		return errValidation(msgTableNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '_' || c == '.' || c == '-') {
			return errValidation(msgTableNamePattern, name)
		}
	}
	return nil
}

func validateReturnValues(rv string, allowed ...string) *Error {
	if rv == "" {
		return nil
	}
	for _, a := range allowed {
		if rv == a {
			return nil
		}
	}
	return errValidation(msgReturnValues)
}

func validateReturnValuesOnConditionCheckFailure(rv string) *Error {
	if rv == "" || rv == "NONE" || rv == "ALL_OLD" {
		return nil
	}
	return errValidation(msgReturnValues)
}

// extractKey validates a client-supplied primary key map against the table
// schema and lowers it into sortable form.
func extractKey(schema storage.Schema, key value.Item) (storage.Key, *Error) {
	if len(key) == 0 {
		return storage.Key{}, errValidation(msgKeySchemaMismatch)
	}
	for name, v := range key {
		if !schema.IsKeyAttribute(name) {
			return storage.Key{}, errValidation(msgKeySchemaMismatch)
		}
		if (v.Kind() == value.KindS && v.Text() == "") ||
			(v.Kind() == value.KindB && len(v.Bytes()) == 0) {
			return storage.Key{}, errValidation(msgEmptyKeyValue, name)
		}
	}
	k, err := schema.ExtractKey(key)
	if err != nil {
		return storage.Key{}, errValidation(msgKeySchemaMismatch)
	}
	return k, nil
}

// validateItem checks attribute value shape: well-formed numbers anywhere
// in the document and no empty sets.
func validateItem(item value.Item) *Error {
	for _, v := range item {
		if err := validateAttribute(v); err != nil {
			return err
		}
	}
	return nil
}

func validateAttribute(v value.Value) *Error {
	switch v.Kind() {
	case value.KindN:
		if err := value.CheckNumber(v.Text()); err != nil {
			return errValidation("%s", capitalize(err.Error()))
		}
	case value.KindSS:
		if len(v.Strings()) == 0 {
			return errValidation(msgEmptySet, "string")
		}
	case value.KindNS:
		nums := v.Numbers()
		if len(nums) == 0 {
			return errValidation(msgEmptySet, "number")
		}
		for _, n := range nums {
			if err := value.CheckNumber(n); err != nil {
				return errValidation("%s", capitalize(err.Error()))
			}
		}
	case value.KindBS:
		if len(v.Binaries()) == 0 {
			return errValidation(msgEmptySet, "binary")
		}
	case value.KindL:
		for _, e := range v.List() {
			if err := validateAttribute(e); err != nil {
				return err
			}
		}
	case value.KindM:
		for _, e := range v.Attrs() {
			if err := validateAttribute(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateItemSize(item value.Item) *Error {
	if value.SizeOf(item) > maxItemSize {
		return errValidation(msgItemTooLarge)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// checkExprConflict rejects requests mixing legacy and expression
// parameters. Arguments name the parameters actually present.
func checkExprConflict(legacy, expr []string) *Error {
	if len(legacy) == 0 || len(expr) == 0 {
		return nil
	}
	return errValidation(msgExpressionConflict,
		strings.Join(legacy, ", "), strings.Join(expr, ", "))
}

// checkPlaceholders validates the client placeholder maps against the
// references the parsed expressions actually make: no unused entries, no
// undefined references, no maps without any expression.
func checkPlaceholders(refs *expression.Refs, names map[string]string, values value.Item, hasExpr bool) *Error {
	if !hasExpr {
		if names != nil {
			return errValidation(msgEmptyNames)
		}
		if values != nil {
			return errValidation(msgEmptyValues)
		}
		return nil
	}

	var unused []string
	for k := range names {
		if !refs.Names[k] {
			unused = append(unused, k)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return errValidation(msgUnusedNames, strings.Join(unused, ", "))
	}
	for k := range refs.Names {
		if _, has := names[k]; !has {
			return errValidation("An expression attribute name used in the document path is not defined; attribute name: %s", k)
		}
	}

	unused = nil
	for k := range values {
		if !refs.Values[k] {
			unused = append(unused, k)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return errValidation(msgUnusedValues, strings.Join(unused, ", "))
	}
	for k := range refs.Values {
		if _, has := values[k]; !has {
			return errValidation("An expression attribute value used in expression is not defined; attribute value: %s", k)
		}
	}
	return nil
}

func validateConditionalOperator(op string, legacyElems int) *Error {
	switch op {
	case "":
		return nil
	case "AND", "OR":
		if legacyElems == 0 {
			return errValidation(msgConditionalOperator)
		}
		return nil
	}
	return errValidation("Value '%s' at 'conditionalOperator' failed to satisfy constraint: Member must satisfy enum value set: [OR, AND]", op)
}

func logicOp(op string) expression.LogicOp {
	if op == "OR" {
		return expression.LogicOr
	}
	return expression.LogicAnd
}

// pathErrString renders a document path the way overlap diagnostics do.
func pathErrString(p expression.Path, names map[string]string) string {
	parts := make([]string, 0, len(p))
	for _, e := range p {
		if e.IsIndex {
			parts = append(parts, "["+strconv.Itoa(e.Index)+"]")
			continue
		}
		name := e.Name
		if real, has := names[name]; has {
			name = real
		}
		parts = append(parts, name)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// checkUpdatePaths rejects updates that target key attributes or whose
// document paths overlap or conflict with each other.
func checkUpdatePaths(update expression.Update, schema storage.Schema, ctx *expression.Context) *Error {
	paths := update.Paths()
	concrete := make([]expression.Path, 0, len(paths))
	for _, p := range paths {
		c, err := ctx.ConcretePath(p)
		if err != nil {
			return errValidation("%s", err.Error())
		}
		if schema.IsKeyAttribute(c.Root()) {
			return errValidation(msgUpdateKeyAttribute, c.Root())
		}
		concrete = append(concrete, c)
	}

	for i := 0; i < len(concrete); i++ {
		for j := i + 1; j < len(concrete); j++ {
			a, b := concrete[i], concrete[j]
			prefix, conflict := a.HasPrefix(b)
			if !prefix && !conflict {
				prefix, conflict = b.HasPrefix(a)
			}
			if conflict {
				return errValidation(msgPathConflict,
					pathErrString(a, nil), pathErrString(b, nil))
			}
			if prefix {
				return errValidation(msgPathOverlap,
					pathErrString(a, nil), pathErrString(b, nil))
			}
		}
	}
	return nil
}

// condPaths collects every document path referenced by a condition.
func condPaths(c expression.Condition) []expression.Path {
	var out []expression.Path
	operand := func(op expression.Operand) {
		if op.Kind == expression.OperandPath || op.Kind == expression.OperandSize {
			out = append(out, op.Path)
		}
	}
	switch v := c.(type) {
	case expression.Compare:
		operand(v.Left)
		operand(v.Right)
	case expression.Between:
		operand(v.Value)
		operand(v.Low)
		operand(v.High)
	case expression.In:
		operand(v.Value)
		for _, e := range v.List {
			operand(e)
		}
	case expression.Logical:
		out = append(out, condPaths(v.Left)...)
		out = append(out, condPaths(v.Right)...)
	case expression.Not:
		out = append(out, condPaths(v.Inner)...)
	case expression.Call:
		for _, a := range v.Args {
			operand(a)
		}
	}
	return out
}

// checkFilterKeys rejects filter expressions referencing key attributes.
func checkFilterKeys(cond expression.Condition, schema storage.Schema, names map[string]string) *Error {
	for _, p := range condPaths(cond) {
		root := p.Root()
		if real, has := names[root]; has {
			root = real
		}
		if schema.IsKeyAttribute(root) {
			return errValidation(msgFilterOnKey, root)
		}
	}
	return nil
}

func validateLimit(limit *int) *Error {
	if limit != nil && *limit < 1 {
		return errValidation(msgLimitPositive)
	}
	return nil
}
