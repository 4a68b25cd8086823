//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package storage implements the in-memory table store: items addressed by
// partition key plus optional sort key, with ordered sort-key traversal,
// cursor pagination and parallel-scan segmentation.
package storage

import (
	"sort"
	"sync"

	"github.com/fogfish/faults"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

const (
	errKeyType    = faults.Safe1[string]("key attribute %s does not match the schema type")
	errKeyMissing = faults.Safe1[string]("key attribute %s is missing")
	errKeyEmpty   = faults.Safe1[string]("key attribute %s must not be empty")
)

// KeyAttribute is one component of the key schema.
type KeyAttribute struct {
	Name string
	Kind value.Kind
}

// Schema is a partition key plus an optional sort key.
type Schema struct {
	Partition KeyAttribute
	Sort      *KeyAttribute
}

// IsKeyAttribute reports schema membership of an attribute name.
func (s Schema) IsKeyAttribute(name string) bool {
	return name == s.Partition.Name || (s.Sort != nil && name == s.Sort.Name)
}

// Key is an extracted primary key in sortable form.
type Key struct {
	Hash value.SortKey
	Sort value.SortKey
}

// Item lifts the key back into wire attribute values.
func (k Key) Item(schema Schema) value.Item {
	item := value.Item{schema.Partition.Name: k.Hash.Value()}
	if schema.Sort != nil && !k.Sort.IsZero() {
		item[schema.Sort.Name] = k.Sort.Value()
	}
	return item
}

// ExtractKey pulls the primary key out of an item, checking declared types
// and the no-empty-key rule.
func (s Schema) ExtractKey(item value.Item) (Key, error) {
	hash, err := s.keyValue(item, s.Partition)
	if err != nil {
		return Key{}, err
	}
	key := Key{Hash: hash}
	if s.Sort != nil {
		sortKey, err := s.keyValue(item, *s.Sort)
		if err != nil {
			return Key{}, err
		}
		key.Sort = sortKey
	}
	return key, nil
}

func (s Schema) keyValue(item value.Item, attr KeyAttribute) (value.SortKey, error) {
	v, has := item[attr.Name]
	if !has {
		return value.SortKey{}, errKeyMissing.New(nil, attr.Name)
	}
	if v.Kind() != attr.Kind {
		return value.SortKey{}, errKeyType.New(nil, attr.Name)
	}
	if (v.Kind() == value.KindS && v.Text() == "") ||
		(v.Kind() == value.KindB && len(v.Bytes()) == 0) {
		return value.SortKey{}, errKeyEmpty.New(nil, attr.Name)
	}
	return value.Sortable(v)
}

type entry struct {
	sort value.SortKey
	item value.Item
}

type partition struct {
	hash    value.SortKey
	entries []entry
}

// Store is the in-memory item store of one table. Writers hold the write
// lock; Query and Scan copy their result set under the read lock so
// concurrent writers never observe partial iteration.
type Store struct {
	mu     sync.RWMutex
	schema Schema
	parts  map[string]*partition
	order  []string
	size   int64
	count  int64
}

func New(schema Schema) *Store {
	return &Store{schema: schema, parts: map[string]*partition{}}
}

func (s *Store) Schema() Schema { return s.schema }

// Size is the byte size of all stored items.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Count is the number of stored items.
func (s *Store) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Put inserts or replaces an item, returning the previous one if any.
func (s *Store) Put(item value.Item) (value.Item, error) {
	key, err := s.schema.ExtractKey(item)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hashKey := string(key.Hash.Canonical())
	part, has := s.parts[hashKey]
	if !has {
		part = &partition{hash: key.Hash}
		s.parts[hashKey] = part
		at := sort.SearchStrings(s.order, hashKey)
		s.order = append(s.order, "")
		copy(s.order[at+1:], s.order[at:])
		s.order[at] = hashKey
	}

	at, exact := part.search(key.Sort)
	if exact {
		old := part.entries[at].item
		part.entries[at] = entry{sort: key.Sort, item: item}
		s.size += int64(value.SizeOf(item) - value.SizeOf(old))
		return old, nil
	}

	part.entries = append(part.entries, entry{})
	copy(part.entries[at+1:], part.entries[at:])
	part.entries[at] = entry{sort: key.Sort, item: item}
	s.size += int64(value.SizeOf(item))
	s.count++
	return nil, nil
}

// Get looks an item up by exact primary key.
func (s *Store) Get(key Key) value.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, has := s.parts[string(key.Hash.Canonical())]
	if !has {
		return nil
	}
	at, exact := part.search(key.Sort)
	if !exact {
		return nil
	}
	return part.entries[at].item
}

// Delete removes an item, returning the previous one if any.
func (s *Store) Delete(key Key) value.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	hashKey := string(key.Hash.Canonical())
	part, has := s.parts[hashKey]
	if !has {
		return nil
	}
	at, exact := part.search(key.Sort)
	if !exact {
		return nil
	}

	old := part.entries[at].item
	part.entries = append(part.entries[:at], part.entries[at+1:]...)
	s.size -= int64(value.SizeOf(old))
	s.count--

	if len(part.entries) == 0 {
		delete(s.parts, hashKey)
		orderAt := sort.SearchStrings(s.order, hashKey)
		s.order = append(s.order[:orderAt], s.order[orderAt+1:]...)
	}
	return old
}

// search locates a sort key within the ordered entries. For tables without
// a sort key every partition holds exactly one entry under the zero key.
func (p *partition) search(key value.SortKey) (int, bool) {
	if key.IsZero() {
		if len(p.entries) > 0 {
			return 0, true
		}
		return 0, false
	}
	at := sort.Search(len(p.entries), func(i int) bool {
		ord, err := p.entries[i].sort.Compare(key)
		return err == nil && ord >= 0
	})
	if at < len(p.entries) {
		if ord, err := p.entries[at].sort.Compare(key); err == nil && ord == 0 {
			return at, true
		}
	}
	return at, false
}
