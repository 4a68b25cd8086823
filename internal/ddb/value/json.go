//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package value

import (
	"encoding/json"

	"github.com/fogfish/faults"
)

const (
	errMalformedValue = faults.Type("malformed attribute value")
)

// MarshalJSON renders the tagged wire encoding, one member per value.
// Empty lists and maps are preserved as [] and {}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindS:
		return json.Marshal(struct {
			S string `json:"S"`
		}{v.str})
	case KindN:
		return json.Marshal(struct {
			N string `json:"N"`
		}{v.str})
	case KindB:
		return json.Marshal(struct {
			B []byte `json:"B"`
		}{v.bin})
	case KindBool:
		return json.Marshal(struct {
			BOOL bool `json:"BOOL"`
		}{v.truth})
	case KindNull:
		return json.Marshal(struct {
			NULL bool `json:"NULL"`
		}{true})
	case KindSS:
		return json.Marshal(struct {
			SS []string `json:"SS"`
		}{nonNil(v.set)})
	case KindNS:
		return json.Marshal(struct {
			NS []string `json:"NS"`
		}{nonNil(v.set)})
	case KindBS:
		return json.Marshal(struct {
			BS [][]byte `json:"BS"`
		}{nonNil(v.bset)})
	case KindL:
		return json.Marshal(struct {
			L []Value `json:"L"`
		}{nonNil(v.list)})
	case KindM:
		attrs := v.attrs
		if attrs == nil {
			attrs = Item{}
		}
		return json.Marshal(struct {
			M Item `json:"M"`
		}{attrs})
	}
	return nil, errMalformedValue.New(nil)
}

func nonNil[T any](seq []T) []T {
	if seq == nil {
		return []T{}
	}
	return seq
}

// UnmarshalJSON accepts the tagged wire encoding. Exactly one type member
// must be present.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errMalformedValue.New(err)
	}
	if len(raw) != 1 {
		return errMalformedValue.New(nil)
	}

	for tag, body := range raw {
		switch Kind(tag) {
		case KindS:
			return decodeAs(body, func(x string) Value { return S(x) }, v)
		case KindN:
			return decodeAs(body, func(x string) Value { return N(x) }, v)
		case KindB:
			return decodeAs(body, func(x []byte) Value { return B(x) }, v)
		case KindBool:
			return decodeAs(body, func(x bool) Value { return Bool(x) }, v)
		case KindNull:
			return decodeAs(body, func(bool) Value { return Null() }, v)
		case KindSS:
			return decodeAs(body, func(x []string) Value { return SS(x...) }, v)
		case KindNS:
			return decodeAs(body, func(x []string) Value { return NS(x...) }, v)
		case KindBS:
			return decodeAs(body, func(x [][]byte) Value { return BS(x...) }, v)
		case KindL:
			return decodeAs(body, func(x []Value) Value { return L(x...) }, v)
		case KindM:
			return decodeAs(body, func(x Item) Value {
				if x == nil {
					x = Item{}
				}
				return M(x)
			}, v)
		default:
			return errMalformedValue.New(nil)
		}
	}
	return errMalformedValue.New(nil)
}

func decodeAs[T any](body json.RawMessage, lift func(T) Value, v *Value) error {
	var x T
	if err := json.Unmarshal(body, &x); err != nil {
		return errMalformedValue.New(err)
	}
	*v = lift(x)
	return nil
}
