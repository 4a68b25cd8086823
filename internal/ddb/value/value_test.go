//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package value_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

func TestNumberDomain(t *testing.T) {
	for _, s := range []string{"0", "1", "-1", "3.14", "-0.5", "1e125", "9.9e125", "1e-130", strings.Repeat("9", 38)} {
		it.Then(t).Should(it.Nil(value.CheckNumber(s)))
	}
	for _, s := range []string{"", "abc", "1.2.3", "1e", "--1", " 1", "Infinity", "NaN", "1e126", "1e-131", strings.Repeat("9", 39)} {
		it.Then(t).ShouldNot(it.Nil(value.CheckNumber(s)))
	}
}

func TestValueEqual(t *testing.T) {
	it.Then(t).Should(
		it.True(value.S("abc").Equal(value.S("abc"))),
		it.True(value.N("1.0").Equal(value.N("1"))),
		it.True(value.Bool(true).Equal(value.Bool(true))),
		it.True(value.SS("a", "b").Equal(value.SS("b", "a"))),
		it.True(value.L(value.N("1"), value.S("x")).Equal(value.L(value.N("1"), value.S("x")))),
		it.True(value.M(value.Item{"k": value.S("v")}).Equal(value.M(value.Item{"k": value.S("v")}))),
	)
	it.Then(t).ShouldNot(
		it.True(value.S("abc").Equal(value.S("abd"))),
		it.True(value.S("1").Equal(value.N("1"))),
		it.True(value.SS("a").Equal(value.SS("a", "b"))),
	)
}

func TestTryCompare(t *testing.T) {
	cmp, ok := value.N("2").TryCompare(value.N("10"))
	it.Then(t).Should(it.True(ok), it.True(cmp < 0))

	cmp, ok = value.S("b").TryCompare(value.S("a"))
	it.Then(t).Should(it.True(ok), it.True(cmp > 0))

	cmp, ok = value.B([]byte{0x01}).TryCompare(value.B([]byte{0x01}))
	it.Then(t).Should(it.True(ok), it.Equal(cmp, 0))

	_, ok = value.S("1").TryCompare(value.N("1"))
	it.Then(t).ShouldNot(it.True(ok))
}

func TestSortKeyOrdering(t *testing.T) {
	lo, err := value.Sortable(value.N("9"))
	it.Then(t).Should(it.Nil(err))
	hi, err := value.Sortable(value.N("10"))
	it.Then(t).Should(it.Nil(err))

	cmp, err := lo.Compare(hi)
	it.Then(t).Should(it.Nil(err), it.True(cmp < 0))

	s, err := value.Sortable(value.S("hello"))
	it.Then(t).Should(it.Nil(err))
	p, err := value.Sortable(value.S("he"))
	it.Then(t).Should(
		it.Nil(err),
		it.True(s.HasPrefix(p)),
	)
	it.Then(t).ShouldNot(it.True(p.HasPrefix(s)))

	_, err = value.Sortable(value.Bool(true))
	it.Then(t).ShouldNot(it.Nil(err))
}

func TestItemSize(t *testing.T) {
	item := value.Item{
		"id":   value.S("abc"),
		"n":    value.N("100"),
		"flag": value.Bool(true),
		"doc":  value.M(value.Item{"k": value.S("vv")}),
	}
	// 2+3 + 1+3 + 4+1 + 3+(1+2)
	it.Then(t).Should(it.Equal(value.SizeOf(item), 20))
}

func TestCloneIsolation(t *testing.T) {
	item := value.Item{"m": value.M(value.Item{"k": value.S("v")})}
	copied := value.CloneItem(item)
	copied["m"].Attrs()["k"] = value.S("changed")

	it.Then(t).Should(
		it.Equal(item["m"].Attrs()["k"].Text(), "v"),
	)
}

func TestJSONRoundTrip(t *testing.T) {
	for _, wire := range []string{
		`{"S":"hello"}`,
		`{"N":"3.14"}`,
		`{"B":"aGVsbG8="}`,
		`{"BOOL":true}`,
		`{"NULL":true}`,
		`{"SS":["a","b"]}`,
		`{"NS":["1","2"]}`,
		`{"L":[{"S":"x"},{"N":"1"}]}`,
		`{"M":{"k":{"S":"v"}}}`,
	} {
		var v value.Value
		it.Then(t).Should(it.Nil(json.Unmarshal([]byte(wire), &v)))

		encoded, err := json.Marshal(v)
		it.Then(t).Should(it.Nil(err))

		var again value.Value
		it.Then(t).Should(
			it.Nil(json.Unmarshal(encoded, &again)),
			it.True(v.Equal(again)),
		)
	}
}

func TestJSONRejectsGarbage(t *testing.T) {
	for _, wire := range []string{`{}`, `{"S":1}`, `{"X":"y"}`, `"str"`} {
		var v value.Value
		it.Then(t).ShouldNot(it.Nil(json.Unmarshal([]byte(wire), &v)))
	}
}

func TestSortedKeys(t *testing.T) {
	item := value.Item{"b": value.S("2"), "a": value.S("1"), "c": value.S("3")}
	it.Then(t).Should(
		it.Seq(value.SortedKeys(item)).Equal("a", "b", "c"),
	)
}
