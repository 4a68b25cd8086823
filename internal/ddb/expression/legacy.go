//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package expression

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fogfish/nimbus/internal/ddb/value"
)

// Legacy request parameters are converted to synthesized expression text
// with fresh placeholder maps, then fed back through the parser, so the
// evaluator stays the single execution path. Synthesized placeholders use
// the #__nN__ / :__vN_M__ scheme; attribute names are visited in
// lexicographic order so output is reproducible.

// LegacyCondition is one entry of KeyConditions, QueryFilter or ScanFilter.
type LegacyCondition struct {
	Operator string
	Values   []value.Value
}

// LegacyExpected is one entry of the Expected parameter.
type LegacyExpected struct {
	Exists   *bool
	Value    *value.Value
	Operator string
	Values   []value.Value
}

// LegacyUpdate is one entry of AttributeUpdates.
type LegacyUpdate struct {
	Action string
	Value  *value.Value
}

// Synthesized is the output of a legacy conversion: expression text plus
// the placeholder maps it references.
type Synthesized struct {
	Expression string
	Names      map[string]string
	Values     value.Item
}

// ConvertConditions synthesizes a condition expression from KeyConditions,
// QueryFilter or ScanFilter entries joined by the conditional operator.
func ConvertConditions(conds map[string]LegacyCondition, operator LogicOp) (Synthesized, error) {
	out := Synthesized{Names: map[string]string{}, Values: value.Item{}}

	attrs := sortedNames(conds)
	fragments := make([]string, 0, len(attrs))
	for i, attr := range attrs {
		cond := conds[attr]
		namePh := legacyName(&out, i, attr)
		fragment, err := comparisonFragment(&out, namePh, attr, i, cond.Operator, cond.Values)
		if err != nil {
			return Synthesized{}, err
		}
		fragments = append(fragments, fragment)
	}
	out.Expression = strings.Join(fragments, " "+string(operator)+" ")
	return out, nil
}

// ConvertExpected synthesizes a condition expression from Expected entries.
func ConvertExpected(expected map[string]LegacyExpected, operator LogicOp) (Synthesized, error) {
	out := Synthesized{Names: map[string]string{}, Values: value.Item{}}

	attrs := sortedNames(expected)
	fragments := make([]string, 0, len(attrs))
	for i, attr := range attrs {
		e := expected[attr]
		namePh := legacyName(&out, i, attr)

		switch {
		case e.Operator != "":
			if e.Value != nil || e.Exists != nil {
				return Synthesized{}, fmt.Errorf("One or more parameter values were invalid: Value and Exists cannot be used with ComparisonOperator for Attribute: %s", attr)
			}
			fragment, err := comparisonFragment(&out, namePh, attr, i, e.Operator, e.Values)
			if err != nil {
				return Synthesized{}, err
			}
			fragments = append(fragments, fragment)

		case e.Exists != nil && !*e.Exists:
			if e.Value != nil {
				return Synthesized{}, fmt.Errorf("One or more parameter values were invalid: Value cannot be used when Exists is false for Attribute: %s", attr)
			}
			fragments = append(fragments, "attribute_not_exists("+namePh+")")

		case e.Value == nil:
			return Synthesized{}, fmt.Errorf("One or more parameter values were invalid: Value must be provided when Exists is true for Attribute: %s", attr)

		default:
			valuePh := legacyValue(&out, i, 0, *e.Value)
			fragments = append(fragments, namePh+" = "+valuePh)
		}
	}
	out.Expression = strings.Join(fragments, " "+string(operator)+" ")
	return out, nil
}

// ConvertUpdates synthesizes an update expression from AttributeUpdates.
// PUT with no value is a no-op; DELETE with no value becomes REMOVE.
// Legacy ADD of a list is applied by the caller before conversion and must
// not reach this function.
func ConvertUpdates(updates map[string]LegacyUpdate) (Synthesized, error) {
	out := Synthesized{Names: map[string]string{}, Values: value.Item{}}

	var set, remove, add, del []string
	for i, attr := range sortedNames(updates) {
		u := updates[attr]
		namePh := legacyName(&out, i, attr)

		action := u.Action
		if action == "" {
			action = "PUT"
		}
		switch action {
		case "PUT":
			if u.Value == nil {
				continue
			}
			set = append(set, namePh+" = "+legacyValue(&out, i, 0, *u.Value))
		case "ADD":
			if u.Value == nil {
				return Synthesized{}, fmt.Errorf("One or more parameter values were invalid: Only DELETE action is allowed when no attribute value is specified")
			}
			add = append(add, namePh+" "+legacyValue(&out, i, 0, *u.Value))
		case "DELETE":
			if u.Value == nil {
				remove = append(remove, namePh)
				continue
			}
			del = append(del, namePh+" "+legacyValue(&out, i, 0, *u.Value))
		default:
			return Synthesized{}, fmt.Errorf("Member must satisfy enum value set: [ADD, PUT, DELETE]")
		}
	}

	clauses := []string{}
	if len(set) > 0 {
		clauses = append(clauses, "SET "+strings.Join(set, ", "))
	}
	if len(remove) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(remove, ", "))
	}
	if len(add) > 0 {
		clauses = append(clauses, "ADD "+strings.Join(add, ", "))
	}
	if len(del) > 0 {
		clauses = append(clauses, "DELETE "+strings.Join(del, ", "))
	}
	out.Expression = strings.Join(clauses, " ")
	return out, nil
}

// ConvertProjection synthesizes a projection expression from
// AttributesToGet.
func ConvertProjection(attrs []string) Synthesized {
	out := Synthesized{Names: map[string]string{}, Values: value.Item{}}

	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = legacyName(&out, i, attr)
	}
	out.Expression = strings.Join(names, ", ")
	return out
}

// comparisonFragment renders one legacy ComparisonOperator. The legacy
// semantics that differ from their modern equivalents are reproduced
// literally: NULL means absent, NOT_NULL means present, NOT_CONTAINS
// requires the attribute to exist.
func comparisonFragment(out *Synthesized, namePh, attr string, i int, operator string, values []value.Value) (string, error) {
	argc := func(n int) error {
		if len(values) != n {
			return fmt.Errorf("One or more parameter values were invalid: Invalid number of argument(s) for the %s ComparisonOperator", operator)
		}
		return nil
	}

	switch operator {
	case "EQ", "NE", "LT", "LE", "GT", "GE":
		if err := argc(1); err != nil {
			return "", err
		}
		ops := map[string]string{"EQ": "=", "NE": "<>", "LT": "<", "LE": "<=", "GT": ">", "GE": ">="}
		return namePh + " " + ops[operator] + " " + legacyValue(out, i, 0, values[0]), nil

	case "BETWEEN":
		if err := argc(2); err != nil {
			return "", err
		}
		return namePh + " BETWEEN " + legacyValue(out, i, 0, values[0]) + " AND " + legacyValue(out, i, 1, values[1]), nil

	case "BEGINS_WITH":
		if err := argc(1); err != nil {
			return "", err
		}
		return "begins_with(" + namePh + ", " + legacyValue(out, i, 0, values[0]) + ")", nil

	case "CONTAINS":
		if err := argc(1); err != nil {
			return "", err
		}
		return "contains(" + namePh + ", " + legacyValue(out, i, 0, values[0]) + ")", nil

	case "NOT_CONTAINS":
		if err := argc(1); err != nil {
			return "", err
		}
		return "(attribute_exists(" + namePh + ") AND NOT contains(" + namePh + ", " + legacyValue(out, i, 0, values[0]) + "))", nil

	case "NULL":
		if err := argc(0); err != nil {
			return "", err
		}
		return "attribute_not_exists(" + namePh + ")", nil

	case "NOT_NULL":
		if err := argc(0); err != nil {
			return "", err
		}
		return "attribute_exists(" + namePh + ")", nil

	case "IN":
		if len(values) == 0 {
			return "", fmt.Errorf("One or more parameter values were invalid: Invalid number of argument(s) for the IN ComparisonOperator")
		}
		phs := make([]string, len(values))
		for j, v := range values {
			phs[j] = legacyValue(out, i, j, v)
		}
		return namePh + " IN (" + strings.Join(phs, ", ") + ")", nil
	}

	return "", fmt.Errorf("Unsupported ComparisonOperator: %s", operator)
}

func legacyName(out *Synthesized, i int, attr string) string {
	ph := "#__n" + strconv.Itoa(i) + "__"
	out.Names[ph] = attr
	return ph
}

func legacyValue(out *Synthesized, i, j int, v value.Value) string {
	ph := ":__v" + strconv.Itoa(i) + "_" + strconv.Itoa(j) + "__"
	out.Values[ph] = v
	return ph
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
