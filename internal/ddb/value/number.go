//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package value

import (
	"strings"

	"github.com/fogfish/faults"
	"github.com/shopspring/decimal"
)

const (
	errNotNumber    = faults.Safe1[string]("the parameter cannot be converted to a numeric value: %s")
	errNumDigits    = faults.Safe1[string]("attempting to store more than 38 significant digits in a number: %s")
	errNumOverflow  = faults.Safe1[string]("number overflow, attempting to store a number with magnitude larger than supported range: %s")
	errNumUnderflow = faults.Safe1[string]("number underflow, attempting to store a number with magnitude smaller than supported range: %s")
)

// ParseNumber parses the decimal payload of an N value without range checks.
func ParseNumber(s string) (decimal.Decimal, error) {
	if !wellFormedNumber(s) {
		return decimal.Decimal{}, errNotNumber.New(nil, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errNotNumber.New(err, s)
	}
	return d, nil
}

// CheckNumber validates an N payload against the DynamoDB numeric domain:
// strict decimal syntax, at most 38 significant digits, decimal magnitude
// within [1e-130, 1e126). Zero is always valid.
func CheckNumber(s string) error {
	d, err := ParseNumber(s)
	if err != nil {
		return err
	}
	if d.IsZero() {
		return nil
	}

	digits := strings.TrimRight(strings.TrimLeft(d.Coefficient().String(), "-"), "0")
	if len(digits) > 38 {
		return errNumDigits.New(nil, s)
	}

	// adjusted exponent of the scientific form d.dddEexp
	coeff := strings.TrimLeft(d.Coefficient().String(), "-")
	adjusted := int(d.Exponent()) + len(coeff) - 1
	if adjusted > 125 {
		return errNumOverflow.New(nil, s)
	}
	if adjusted < -130 {
		return errNumUnderflow.New(nil, s)
	}
	return nil
}

// wellFormedNumber accepts [+-]?digits[.digits][(e|E)[+-]?digits] with no
// surrounding whitespace. Infinity and NaN spellings are rejected by
// construction.
func wellFormedNumber(s string) bool {
	i, n := 0, len(s)
	if n == 0 {
		return false
	}
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	mantissa := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		mantissa++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == n
}
