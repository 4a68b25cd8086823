//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package value

import (
	"bytes"
	"strings"

	"github.com/fogfish/faults"
	"github.com/shopspring/decimal"
)

const (
	errNotSortable  = faults.Safe1[Kind]("attribute value of type %s cannot be used as a key")
	errIncomparable = faults.Type("key values of different types are not comparable")
)

// SortKey is the sortable projection of an S, N or B attribute value.
// The ordering is total within one kind: N by decimal magnitude, S and B
// as lexicographic bytes. Mixed kinds are incomparable.
type SortKey struct {
	kind Kind
	str  string
	bin  []byte
	num  decimal.Decimal
}

// Sortable lowers a scalar attribute value into its sortable projection.
func Sortable(v Value) (SortKey, error) {
	switch v.kind {
	case KindS:
		return SortKey{kind: KindS, str: v.str}, nil
	case KindB:
		return SortKey{kind: KindB, bin: v.bin}, nil
	case KindN:
		d, err := ParseNumber(v.str)
		if err != nil {
			return SortKey{}, err
		}
		return SortKey{kind: KindN, num: d}, nil
	}
	return SortKey{}, errNotSortable.New(nil, v.kind)
}

func (k SortKey) Kind() Kind   { return k.kind }
func (k SortKey) IsZero() bool { return k.kind == "" }

// Value lifts the projection back into an attribute value.
func (k SortKey) Value() Value {
	switch k.kind {
	case KindS:
		return S(k.str)
	case KindB:
		return B(k.bin)
	case KindN:
		return N(k.num.String())
	}
	return Value{}
}

// Compare orders two sort keys of the same kind.
func (k SortKey) Compare(other SortKey) (int, error) {
	if k.kind != other.kind {
		return 0, errIncomparable.New(nil)
	}
	switch k.kind {
	case KindS:
		return bytes.Compare([]byte(k.str), []byte(other.str)), nil
	case KindB:
		return bytes.Compare(k.bin, other.bin), nil
	case KindN:
		return k.num.Cmp(other.num), nil
	}
	return 0, errIncomparable.New(nil)
}

// HasPrefix implements begins_with over S and B sort keys.
func (k SortKey) HasPrefix(prefix SortKey) bool {
	if k.kind != prefix.kind {
		return false
	}
	switch k.kind {
	case KindS:
		return strings.HasPrefix(k.str, prefix.str)
	case KindB:
		return bytes.HasPrefix(k.bin, prefix.bin)
	}
	return false
}

// Canonical is a stable byte encoding of the key: one kind byte followed
// by the payload, numbers in normalized decimal spelling. It addresses
// partitions and feeds the parallel-scan segment hash.
func (k SortKey) Canonical() []byte {
	switch k.kind {
	case KindS:
		return append([]byte{'S'}, k.str...)
	case KindB:
		return append([]byte{'B'}, k.bin...)
	case KindN:
		return append([]byte{'N'}, k.num.String()...)
	}
	return nil
}
