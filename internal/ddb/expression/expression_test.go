//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package expression_test

import (
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/nimbus/internal/ddb/expression"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

func fixture() value.Item {
	return value.Item{
		"id":    value.S("thing"),
		"count": value.N("5"),
		"name":  value.S("hello world"),
		"tags":  value.SS("red", "green"),
		"list":  value.L(value.N("1"), value.N("2")),
		"doc":   value.M(value.Item{"inner": value.S("deep")}),
	}
}

func evalCondition(t *testing.T, expr string, values map[string]value.Value, names map[string]string) bool {
	t.Helper()
	cond, err := expression.ParseCondition(expr)
	it.Then(t).Should(it.Nil(err))

	ctx := &expression.Context{Item: fixture(), Names: names, Values: values}
	truth, err := ctx.Eval(cond)
	it.Then(t).Should(it.Nil(err))
	return truth
}

func TestEvalCompare(t *testing.T) {
	values := map[string]value.Value{
		":three": value.N("3"),
		":ten":   value.N("10"),
		":name":  value.S("hello world"),
	}
	it.Then(t).Should(
		it.True(evalCondition(t, "count > :three", values, nil)),
		it.True(evalCondition(t, "count < :ten", values, nil)),
		it.True(evalCondition(t, "count BETWEEN :three AND :ten", values, nil)),
		it.True(evalCondition(t, "#n = :name", values, map[string]string{"#n": "name"})),
		it.True(evalCondition(t, "count <> :ten", values, nil)),
		it.True(evalCondition(t, "count IN (:three, :ten) OR count = count", values, nil)),
	)
	it.Then(t).ShouldNot(
		it.True(evalCondition(t, "count >= :ten", values, nil)),
		it.True(evalCondition(t, "NOT count > :three", values, nil)),
	)
}

func TestEvalFunctions(t *testing.T) {
	values := map[string]value.Value{
		":he":  value.S("hello"),
		":red": value.S("red"),
		":s":   value.S("S"),
	}
	it.Then(t).Should(
		it.True(evalCondition(t, "attribute_exists(count)", values, nil)),
		it.True(evalCondition(t, "attribute_not_exists(missing)", values, nil)),
		it.True(evalCondition(t, "begins_with(name, :he)", values, nil)),
		it.True(evalCondition(t, "contains(tags, :red)", values, nil)),
		it.True(evalCondition(t, "contains(name, :he)", values, nil)),
		it.True(evalCondition(t, "attribute_type(id, :s)", values, nil)),
		it.True(evalCondition(t, "attribute_exists(doc.inner)", values, nil)),
	)
	it.Then(t).ShouldNot(
		it.True(evalCondition(t, "begins_with(name, :red)", values, nil)),
	)
}

func TestEvalMissingIsFalse(t *testing.T) {
	values := map[string]value.Value{":x": value.S("x")}
	it.Then(t).ShouldNot(
		it.True(evalCondition(t, "missing = :x", values, nil)),
	)
}

func TestParseConditionRejectsGarbage(t *testing.T) {
	for _, expr := range []string{"", "count >", "count = = :v", "begins_with(name)", "count BETWEEN :a"} {
		_, err := expression.ParseCondition(expr)
		it.Then(t).ShouldNot(it.Nil(err))
	}
}

func applyUpdate(t *testing.T, expr string, values map[string]value.Value) value.Item {
	t.Helper()
	update, err := expression.ParseUpdate(expr)
	it.Then(t).Should(it.Nil(err))

	ctx := &expression.Context{Item: fixture(), Values: values}
	next, err := ctx.Apply(update)
	it.Then(t).Should(it.Nil(err))
	return next
}

func TestApplySet(t *testing.T) {
	next := applyUpdate(t, "SET name = :v, fresh = :v", map[string]value.Value{":v": value.S("new")})
	it.Then(t).Should(
		it.Equal(next["name"].Text(), "new"),
		it.Equal(next["fresh"].Text(), "new"),
	)
}

func TestApplyArithmetic(t *testing.T) {
	next := applyUpdate(t, "SET count = count + :one", map[string]value.Value{":one": value.N("1")})
	it.Then(t).Should(it.Equal(next["count"].Number(), "6"))

	next = applyUpdate(t, "SET count = count - :one", map[string]value.Value{":one": value.N("1")})
	it.Then(t).Should(it.Equal(next["count"].Number(), "4"))
}

func TestApplyIfNotExists(t *testing.T) {
	values := map[string]value.Value{":d": value.S("default")}
	next := applyUpdate(t, "SET name = if_not_exists(name, :d)", values)
	it.Then(t).Should(it.Equal(next["name"].Text(), "hello world"))

	next = applyUpdate(t, "SET other = if_not_exists(other, :d)", values)
	it.Then(t).Should(it.Equal(next["other"].Text(), "default"))
}

func TestApplyListAppend(t *testing.T) {
	values := map[string]value.Value{":more": value.L(value.N("3"))}
	next := applyUpdate(t, "SET list = list_append(list, :more)", values)
	it.Then(t).Should(it.Equal(len(next["list"].List()), 3))
}

func TestApplyRemove(t *testing.T) {
	next := applyUpdate(t, "REMOVE name, doc.inner", nil)
	_, hasName := next["name"]
	it.Then(t).ShouldNot(
		it.True(hasName),
		it.True(len(next["doc"].Attrs()) > 0),
	)
}

func TestApplyAdd(t *testing.T) {
	values := map[string]value.Value{
		":one":  value.N("1"),
		":blue": value.SS("blue"),
	}
	next := applyUpdate(t, "ADD count :one, tags :blue", values)
	it.Then(t).Should(
		it.Equal(next["count"].Number(), "6"),
		it.Equal(len(next["tags"].Strings()), 3),
	)

	// ADD on a missing attribute starts from zero
	next = applyUpdate(t, "ADD missing :one", values)
	it.Then(t).Should(it.Equal(next["missing"].Number(), "1"))
}

func TestApplyDelete(t *testing.T) {
	values := map[string]value.Value{":red": value.SS("red")}
	next := applyUpdate(t, "DELETE tags :red", values)
	it.Then(t).Should(
		it.Seq(next["tags"].Strings()).Equal("green"),
	)
}

func TestProjection(t *testing.T) {
	paths, err := expression.ParseProjection("id, doc.inner")
	it.Then(t).Should(it.Nil(err), it.Equal(len(paths), 2))

	ctx := &expression.Context{Item: fixture()}
	out, err := ctx.Project(paths)
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(len(out), 2),
		it.Equal(out["id"].Text(), "thing"),
		it.Equal(out["doc"].Attrs()["inner"].Text(), "deep"),
	)
}

func TestConvertExpected(t *testing.T) {
	exists := false
	syn, err := expression.ConvertExpected(map[string]expression.LegacyExpected{
		"id": {Exists: &exists},
	}, expression.LogicAnd)
	it.Then(t).Should(it.Nil(err))

	cond, err := expression.ParseCondition(syn.Expression)
	it.Then(t).Should(it.Nil(err))

	ctx := &expression.Context{Item: fixture(), Names: syn.Names, Values: syn.Values}
	truth, err := ctx.Eval(cond)
	it.Then(t).Should(it.Nil(err))
	it.Then(t).ShouldNot(it.True(truth))

	ctx = &expression.Context{Item: nil, Names: syn.Names, Values: syn.Values}
	truth, err = ctx.Eval(cond)
	it.Then(t).Should(it.Nil(err), it.True(truth))
}

func TestConvertConditions(t *testing.T) {
	syn, err := expression.ConvertConditions(map[string]expression.LegacyCondition{
		"count": {Operator: "GT", Values: []value.Value{value.N("3")}},
		"name":  {Operator: "BEGINS_WITH", Values: []value.Value{value.S("hello")}},
	}, expression.LogicAnd)
	it.Then(t).Should(it.Nil(err))

	cond, err := expression.ParseCondition(syn.Expression)
	it.Then(t).Should(it.Nil(err))

	ctx := &expression.Context{Item: fixture(), Names: syn.Names, Values: syn.Values}
	truth, err := ctx.Eval(cond)
	it.Then(t).Should(it.Nil(err), it.True(truth))
}

func TestConvertUpdates(t *testing.T) {
	put := value.S("replaced")
	syn, err := expression.ConvertUpdates(map[string]expression.LegacyUpdate{
		"name":  {Action: "PUT", Value: &put},
		"count": {Action: "DELETE"},
	})
	it.Then(t).Should(it.Nil(err))

	update, err := expression.ParseUpdate(syn.Expression)
	it.Then(t).Should(it.Nil(err))

	ctx := &expression.Context{Item: fixture(), Names: syn.Names, Values: syn.Values}
	next, err := ctx.Apply(update)
	it.Then(t).Should(it.Nil(err), it.Equal(next["name"].Text(), "replaced"))

	_, has := next["count"]
	it.Then(t).ShouldNot(it.True(has))
}

func TestPathOverlap(t *testing.T) {
	a, err := expression.ParseProjection("doc.inner")
	it.Then(t).Should(it.Nil(err))
	b, err := expression.ParseProjection("doc")
	it.Then(t).Should(it.Nil(err))

	prefix, conflict := a[0].HasPrefix(b[0])
	it.Then(t).Should(it.True(prefix))
	it.Then(t).ShouldNot(it.True(conflict))
}
