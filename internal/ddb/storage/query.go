//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package storage

import (
	"hash/fnv"

	"github.com/fogfish/nimbus/internal/ddb/value"
)

// SortCondition bounds the sort-key traversal of a query.
type SortCondition struct {
	Op    string // "=", "<", "<=", ">", ">=", "BETWEEN", "begins_with"
	Value value.SortKey
	High  value.SortKey // BETWEEN upper bound
}

func (c *SortCondition) match(key value.SortKey) bool {
	if c == nil {
		return true
	}
	if c.Op == "begins_with" {
		return key.HasPrefix(c.Value)
	}
	ord, err := key.Compare(c.Value)
	if err != nil {
		return false
	}
	switch c.Op {
	case "=":
		return ord == 0
	case "<":
		return ord < 0
	case "<=":
		return ord <= 0
	case ">":
		return ord > 0
	case ">=":
		return ord >= 0
	case "BETWEEN":
		if ord < 0 {
			return false
		}
		hi, err := key.Compare(c.High)
		return err == nil && hi <= 0
	}
	return false
}

// QueryResult is one page of a partition traversal.
type QueryResult struct {
	Items    []value.Item
	LastSort value.SortKey
	More     bool
}

// Query traverses one partition in sort order, forward or backward,
// starting strictly after the cursor, bounded by the sort condition,
// yielding at most limit items. The result is a consistent snapshot.
func (s *Store) Query(hash value.SortKey, cond *SortCondition, forward bool, limit int, startAfter value.SortKey) QueryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := QueryResult{Items: []value.Item{}}
	part, has := s.parts[string(hash.Canonical())]
	if !has {
		return out
	}

	passed := startAfter.IsZero()
	for i := 0; i < len(part.entries); i++ {
		at := i
		if !forward {
			at = len(part.entries) - 1 - i
		}
		e := part.entries[at]

		if !passed {
			ord, err := e.sort.Compare(startAfter)
			if err != nil {
				continue
			}
			if (forward && ord <= 0) || (!forward && ord >= 0) {
				continue
			}
			passed = true
		}
		if !cond.match(e.sort) {
			continue
		}
		if limit > 0 && len(out.Items) == limit {
			out.More = true
			out.LastSort = part.entries[prev(at, forward)].sort
			return out
		}
		out.Items = append(out.Items, value.CloneItem(e.item))
	}
	return out
}

func prev(at int, forward bool) int {
	if forward {
		return at - 1
	}
	return at + 1
}

// ScanResult is one page of a table scan.
type ScanResult struct {
	Items   []value.Item
	LastKey *Key
}

// Scan iterates all items in deterministic partition order. When
// totalSegments is positive only partitions hashing to the requested
// segment are yielded. Pagination resumes strictly after the cursor.
func (s *Store) Scan(limit int, startAfter *Key, segment, totalSegments int) ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := ScanResult{Items: []value.Item{}}
	cursorHash := ""
	if startAfter != nil {
		cursorHash = string(startAfter.Hash.Canonical())
	}
	var last Key

	for _, hashKey := range s.order {
		part := s.parts[hashKey]
		if totalSegments > 0 && Segment(part.hash, totalSegments) != segment {
			continue
		}
		if startAfter != nil && hashKey < cursorHash {
			continue
		}
		for _, e := range part.entries {
			if startAfter != nil && hashKey == cursorHash && !after(e.sort, startAfter.Sort) {
				continue
			}
			if limit > 0 && len(out.Items) == limit {
				out.LastKey = &last
				return out
			}
			out.Items = append(out.Items, value.CloneItem(e.item))
			last = Key{Hash: part.hash, Sort: e.sort}
		}
	}
	return out
}

// after reports the sort key strictly following the cursor position.
func after(key, cursor value.SortKey) bool {
	if cursor.IsZero() {
		return false
	}
	ord, err := key.Compare(cursor)
	return err == nil && ord > 0
}

// Segment maps a partition value onto a parallel-scan segment: a stable
// hash of the canonical key encoding modulo the segment count.
func Segment(hash value.SortKey, total int) int {
	h := fnv.New64a()
	h.Write(hash.Canonical())
	return int(h.Sum64() % uint64(total))
}
