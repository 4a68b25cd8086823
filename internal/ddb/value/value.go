//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package value implements the DynamoDB attribute value model: a tagged
// scalar/collection type carried on the wire as tagged JSON objects
// ({"S": ...}, {"N": ...}, ...). Numbers are kept as decimal strings
// end-to-end, the package never converts them to floats.
package value

import (
	"bytes"
	"sort"
)

// Kind is the wire-format type descriptor of an attribute value.
type Kind string

const (
	KindS    Kind = "S"
	KindN    Kind = "N"
	KindB    Kind = "B"
	KindBool Kind = "BOOL"
	KindNull Kind = "NULL"
	KindSS   Kind = "SS"
	KindNS   Kind = "NS"
	KindBS   Kind = "BS"
	KindL    Kind = "L"
	KindM    Kind = "M"
)

// Value is a single DynamoDB attribute value. The zero Value is "absent",
// distinct from every well-formed value including NULL.
type Value struct {
	kind  Kind
	str   string
	bin   []byte
	truth bool
	set   []string
	bset  [][]byte
	list  []Value
	attrs map[string]Value
}

// Item is an attribute-name to attribute-value mapping.
type Item = map[string]Value

func S(v string) Value     { return Value{kind: KindS, str: v} }
func N(v string) Value     { return Value{kind: KindN, str: v} }
func B(v []byte) Value     { return Value{kind: KindB, bin: v} }
func Bool(v bool) Value    { return Value{kind: KindBool, truth: v} }
func Null() Value          { return Value{kind: KindNull, truth: true} }
func SS(v ...string) Value { return Value{kind: KindSS, set: v} }
func NS(v ...string) Value { return Value{kind: KindNS, set: v} }
func BS(v ...[]byte) Value { return Value{kind: KindBS, bset: v} }
func L(v ...Value) Value   { return Value{kind: KindL, list: v} }
func M(v Item) Value       { return Value{kind: KindM, attrs: v} }

func (v Value) Kind() Kind { return v.kind }

// IsZero reports the absent value.
func (v Value) IsZero() bool { return v.kind == "" }

func (v Value) Text() string       { return v.str }
func (v Value) Number() string     { return v.str }
func (v Value) Bytes() []byte      { return v.bin }
func (v Value) Truth() bool        { return v.truth }
func (v Value) Strings() []string  { return v.set }
func (v Value) Numbers() []string  { return v.set }
func (v Value) Binaries() [][]byte { return v.bset }
func (v Value) List() []Value      { return v.list }
func (v Value) Attrs() Item        { return v.attrs }

// IsSet reports the set-typed kinds.
func (v Value) IsSet() bool {
	return v.kind == KindSS || v.kind == KindNS || v.kind == KindBS
}

// IsEmptySet reports a set with no elements, which is illegal on write.
func (v Value) IsEmptySet() bool {
	switch v.kind {
	case KindSS, KindNS:
		return len(v.set) == 0
	case KindBS:
		return len(v.bset) == 0
	}
	return false
}

// Size is the item-size contribution of the value: S/N/B byte length,
// BOOL/NULL one byte, collections the sum over their elements, maps
// additionally the length of each attribute name.
func (v Value) Size() int {
	switch v.kind {
	case KindS, KindN:
		return len(v.str)
	case KindB:
		return len(v.bin)
	case KindBool, KindNull:
		return 1
	case KindSS, KindNS:
		size := 0
		for _, x := range v.set {
			size += len(x)
		}
		return size
	case KindBS:
		size := 0
		for _, x := range v.bset {
			size += len(x)
		}
		return size
	case KindL:
		size := 0
		for _, x := range v.list {
			size += x.Size()
		}
		return size
	case KindM:
		size := 0
		for k, x := range v.attrs {
			size += len(k) + x.Size()
		}
		return size
	}
	return 0
}

// SizeOf is the size of an entire item.
func SizeOf(item Item) int {
	size := 0
	for k, v := range item {
		size += len(k) + v.Size()
	}
	return size
}

// Equal is deep equality in DynamoDB terms: numbers compare by magnitude
// ("1.0" equals "1"), sets compare as unordered collections, everything
// else compares structurally.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindS:
		return v.str == other.str
	case KindN:
		return numEqual(v.str, other.str)
	case KindB:
		return bytes.Equal(v.bin, other.bin)
	case KindBool:
		return v.truth == other.truth
	case KindNull:
		return true
	case KindSS:
		return setEqual(v.set, other.set, func(a, b string) bool { return a == b })
	case KindNS:
		return setEqual(v.set, other.set, numEqual)
	case KindBS:
		return setEqual(v.bset, other.bset, bytes.Equal)
	case KindL:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindM:
		if len(v.attrs) != len(other.attrs) {
			return false
		}
		for k, x := range v.attrs {
			y, has := other.attrs[k]
			if !has || !x.Equal(y) {
				return false
			}
		}
		return true
	}
	return false
}

func setEqual[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if eq(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func numEqual(a, b string) bool {
	da, err := ParseNumber(a)
	if err != nil {
		return a == b
	}
	db, err := ParseNumber(b)
	if err != nil {
		return a == b
	}
	return da.Equal(db)
}

// TryCompare orders two values of the same type: S and B lexicographically,
// N by decimal magnitude, BOOL with false before true. Values of different
// or unordered types report false.
func (v Value) TryCompare(other Value) (int, bool) {
	if v.kind != other.kind {
		return 0, false
	}
	switch v.kind {
	case KindS:
		return bytes.Compare([]byte(v.str), []byte(other.str)), true
	case KindB:
		return bytes.Compare(v.bin, other.bin), true
	case KindN:
		da, err := ParseNumber(v.str)
		if err != nil {
			return 0, false
		}
		db, err := ParseNumber(other.str)
		if err != nil {
			return 0, false
		}
		return da.Cmp(db), true
	case KindBool:
		switch {
		case v.truth == other.truth:
			return 0, true
		case other.truth:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// Clone makes a deep copy, so update application never aliases stored state.
func (v Value) Clone() Value {
	out := v
	if v.bin != nil {
		out.bin = append([]byte(nil), v.bin...)
	}
	if v.set != nil {
		out.set = append([]string(nil), v.set...)
	}
	if v.bset != nil {
		out.bset = make([][]byte, len(v.bset))
		for i, b := range v.bset {
			out.bset[i] = append([]byte(nil), b...)
		}
	}
	if v.list != nil {
		out.list = make([]Value, len(v.list))
		for i, x := range v.list {
			out.list[i] = x.Clone()
		}
	}
	if v.attrs != nil {
		out.attrs = CloneItem(v.attrs)
	}
	return out
}

// CloneItem deep-copies an item.
func CloneItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v.Clone()
	}
	return out
}

// SortedKeys returns attribute names of an item in lexicographic order.
func SortedKeys(item Item) []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
