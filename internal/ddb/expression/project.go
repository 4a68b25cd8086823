//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package expression

import "github.com/fogfish/nimbus/internal/ddb/value"

// Project applies projection paths to the context item. Paths that do not
// resolve are skipped; nested paths reconstruct a minimal sub-structure,
// deep-merged when paths share a prefix. A list-index target projects as a
// single-element list holding the affected element.
func (ctx *Context) Project(paths []Path) (value.Item, error) {
	out := value.Item{}
	for _, path := range paths {
		concrete, err := ctx.ConcretePath(path)
		if err != nil {
			return nil, err
		}
		v, err := ctx.ResolvePath(concrete)
		if err != nil {
			return nil, err
		}
		if v.IsZero() {
			continue
		}
		mergeProjected(out, concrete, v)
	}
	return out, nil
}

func mergeProjected(out value.Item, path Path, v value.Value) {
	name := path[0].Name
	if len(path) == 1 {
		out[name] = v.Clone()
		return
	}
	existing, has := out[name]
	if !has {
		out[name] = buildNested(path[1:], v)
		return
	}
	out[name] = mergeNested(existing, path[1:], v)
}

// buildNested wraps the leaf into the minimal structure the path implies.
func buildNested(path Path, v value.Value) value.Value {
	if len(path) == 0 {
		return v.Clone()
	}
	head := path[0]
	inner := buildNested(path[1:], v)
	if head.IsIndex {
		return value.L(inner)
	}
	return value.M(value.Item{head.Name: inner})
}

func mergeNested(existing value.Value, path Path, v value.Value) value.Value {
	if len(path) == 0 {
		return v.Clone()
	}
	head := path[0]

	if head.IsIndex {
		if existing.Kind() != value.KindL {
			return buildNested(path, v)
		}
		list := append([]value.Value{}, existing.List()...)
		list = append(list, buildNested(path[1:], v))
		return value.L(list...)
	}

	if existing.Kind() != value.KindM {
		return buildNested(path, v)
	}
	attrs := value.CloneItem(existing.Attrs())
	child, has := attrs[head.Name]
	if !has {
		attrs[head.Name] = buildNested(path[1:], v)
	} else {
		attrs[head.Name] = mergeNested(child, path[1:], v)
	}
	return value.M(attrs)
}
