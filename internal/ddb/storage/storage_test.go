//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package storage_test

import (
	"strconv"
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

func schemaWithSort() storage.Schema {
	return storage.Schema{
		Partition: storage.KeyAttribute{Name: "pk", Kind: value.KindS},
		Sort:      &storage.KeyAttribute{Name: "sk", Kind: value.KindN},
	}
}

func entry(pk string, sk int, payload string) value.Item {
	return value.Item{
		"pk":      value.S(pk),
		"sk":      value.N(strconv.Itoa(sk)),
		"payload": value.S(payload),
	}
}

func sortKey(t *testing.T, v value.Value) value.SortKey {
	t.Helper()
	k, err := value.Sortable(v)
	it.Then(t).Should(it.Nil(err))
	return k
}

func TestPutGetDelete(t *testing.T) {
	store := storage.New(schemaWithSort())

	item := entry("a", 1, "one")
	key, err := store.Schema().ExtractKey(item)
	it.Then(t).Should(it.Nil(err))

	old, err := store.Put(item)
	it.Then(t).Should(it.Nil(err), it.Equal(len(old), 0))

	got := store.Get(key)
	it.Then(t).Should(it.Equal(got["payload"].Text(), "one"))

	old, err = store.Put(entry("a", 1, "two"))
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(old["payload"].Text(), "one"),
		it.Equal(store.Count(), int64(1)),
	)

	gone := store.Delete(key)
	it.Then(t).Should(
		it.Equal(gone["payload"].Text(), "two"),
		it.Equal(store.Count(), int64(0)),
	)
	it.Then(t).Should(it.Equal(len(store.Get(key)), 0))
}

func TestQueryOrdering(t *testing.T) {
	store := storage.New(schemaWithSort())
	for _, sk := range []int{9, 2, 100, 30} {
		_, err := store.Put(entry("a", sk, "x"))
		it.Then(t).Should(it.Nil(err))
	}
	_, err := store.Put(entry("b", 1, "x"))
	it.Then(t).Should(it.Nil(err))

	hash := sortKey(t, value.S("a"))
	page := store.Query(hash, nil, true, 0, value.SortKey{})
	it.Then(t).Should(it.Equal(len(page.Items), 4))

	got := make([]string, 0, 4)
	for _, item := range page.Items {
		got = append(got, item["sk"].Number())
	}
	it.Then(t).Should(it.Seq(got).Equal("2", "9", "30", "100"))

	// reverse traversal
	page = store.Query(hash, nil, false, 0, value.SortKey{})
	got = got[:0]
	for _, item := range page.Items {
		got = append(got, item["sk"].Number())
	}
	it.Then(t).Should(it.Seq(got).Equal("100", "30", "9", "2"))
}

func TestQuerySortCondition(t *testing.T) {
	store := storage.New(schemaWithSort())
	for sk := 1; sk <= 5; sk++ {
		_, err := store.Put(entry("a", sk*10, "x"))
		it.Then(t).Should(it.Nil(err))
	}

	hash := sortKey(t, value.S("a"))
	page := store.Query(hash, &storage.SortCondition{
		Op:    "BETWEEN",
		Value: sortKey(t, value.N("20")),
		High:  sortKey(t, value.N("40")),
	}, true, 0, value.SortKey{})
	it.Then(t).Should(it.Equal(len(page.Items), 3))

	page = store.Query(hash, &storage.SortCondition{
		Op:    ">",
		Value: sortKey(t, value.N("30")),
	}, true, 0, value.SortKey{})
	it.Then(t).Should(it.Equal(len(page.Items), 2))
}

func TestQueryPagination(t *testing.T) {
	store := storage.New(schemaWithSort())
	for sk := 1; sk <= 5; sk++ {
		_, err := store.Put(entry("a", sk, "x"))
		it.Then(t).Should(it.Nil(err))
	}
	hash := sortKey(t, value.S("a"))

	page := store.Query(hash, nil, true, 2, value.SortKey{})
	it.Then(t).Should(
		it.Equal(len(page.Items), 2),
		it.True(page.More),
	)

	page = store.Query(hash, nil, true, 10, page.LastSort)
	it.Then(t).Should(it.Equal(len(page.Items), 3))
	it.Then(t).ShouldNot(it.True(page.More))
}

func TestScanPaginationCoversAll(t *testing.T) {
	store := storage.New(schemaWithSort())
	total := 0
	for _, pk := range []string{"a", "b", "c"} {
		for sk := 1; sk <= 4; sk++ {
			_, err := store.Put(entry(pk, sk, "x"))
			it.Then(t).Should(it.Nil(err))
			total++
		}
	}

	seen := 0
	var cursor *storage.Key
	for {
		page := store.Scan(5, cursor, 0, 1)
		seen += len(page.Items)
		if page.LastKey == nil {
			break
		}
		cursor = page.LastKey
	}
	it.Then(t).Should(it.Equal(seen, total))
}

func TestScanSegmentsPartition(t *testing.T) {
	store := storage.New(schemaWithSort())
	total := 0
	for _, pk := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := store.Put(entry(pk, 1, "x"))
		it.Then(t).Should(it.Nil(err))
		total++
	}

	const segments = 3
	seen := 0
	for seg := 0; seg < segments; seg++ {
		page := store.Scan(0, nil, seg, segments)
		seen += len(page.Items)
		for _, item := range page.Items {
			hash := sortKey(t, item["pk"])
			it.Then(t).Should(it.Equal(storage.Segment(hash, segments), seg))
		}
	}
	it.Then(t).Should(it.Equal(seen, total))
}

func TestSchemaRejectsBadKeys(t *testing.T) {
	store := storage.New(schemaWithSort())

	_, err := store.Schema().ExtractKey(value.Item{"pk": value.S("a")})
	it.Then(t).ShouldNot(it.Nil(err))

	_, err = store.Schema().ExtractKey(value.Item{"pk": value.S("a"), "sk": value.S("nan")})
	it.Then(t).ShouldNot(it.Nil(err))

	_, err = store.Schema().ExtractKey(value.Item{"pk": value.S(""), "sk": value.N("1")})
	it.Then(t).ShouldNot(it.Nil(err))
}
