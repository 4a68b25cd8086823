//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/nimbus/service/ddb"
)

// invoke drives one JSON 1.0 operation through the HTTP handler.
func invoke(t *testing.T, svc *ddb.Service, op, body string) (int, map[string]any) {
	t.Helper()
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-amz-json-1.0")
	r.Header.Set("X-Amz-Target", "DynamoDB_20120810."+op)
	w := httptest.NewRecorder()
	svc.ServeHTTP(w, r)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		it.Then(t).Should(it.Nil(json.Unmarshal(w.Body.Bytes(), &out)))
	}
	return w.Code, out
}

func errCode(out map[string]any) string {
	typ, _ := out["__type"].(string)
	return typ[strings.LastIndexByte(typ, '#')+1:]
}

func newService(t *testing.T) *ddb.Service {
	t.Helper()
	svc, err := ddb.New()
	it.Then(t).Should(it.Nil(err))
	return svc
}

func createSongs(t *testing.T, svc *ddb.Service) {
	t.Helper()
	status, _ := invoke(t, svc, "CreateTable", `{
		"TableName": "songs",
		"AttributeDefinitions": [
			{"AttributeName": "artist", "AttributeType": "S"},
			{"AttributeName": "title", "AttributeType": "S"}
		],
		"KeySchema": [
			{"AttributeName": "artist", "KeyType": "HASH"},
			{"AttributeName": "title", "KeyType": "RANGE"}
		],
		"BillingMode": "PAY_PER_REQUEST"
	}`)
	it.Then(t).Should(it.Equal(status, 200))
}

func putSong(t *testing.T, svc *ddb.Service, artist, title, rating string) {
	t.Helper()
	status, _ := invoke(t, svc, "PutItem", `{
		"TableName": "songs",
		"Item": {
			"artist": {"S": "`+artist+`"},
			"title": {"S": "`+title+`"},
			"rating": {"N": "`+rating+`"}
		}
	}`)
	it.Then(t).Should(it.Equal(status, 200))
}

func TestPutGetRoundTrip(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	status, out := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "adele"}, "title": {"S": "hello"}}
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	item := out["Item"].(map[string]any)
	rating := item["rating"].(map[string]any)
	it.Then(t).Should(it.Equal(rating["N"].(string), "5"))
}

func TestGetMissingItem(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "nobody"}, "title": {"S": "nothing"}}
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	_, has := out["Item"]
	it.Then(t).ShouldNot(it.True(has))
}

func TestTableNotFound(t *testing.T) {
	svc := newService(t)
	status, out := invoke(t, svc, "GetItem", `{
		"TableName": "ghost",
		"Key": {"artist": {"S": "x"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ResourceNotFoundException"),
	)
}

func TestKeySchemaMismatch(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "adele"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
}

func TestConditionalPut(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	status, out := invoke(t, svc, "PutItem", `{
		"TableName": "songs",
		"Item": {"artist": {"S": "adele"}, "title": {"S": "hello"}},
		"ConditionExpression": "attribute_not_exists(artist)"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ConditionalCheckFailedException"),
	)

	// the stored item survives the failed write
	_, got := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "adele"}, "title": {"S": "hello"}}
	}`)
	item := got["Item"].(map[string]any)
	_, has := item["rating"]
	it.Then(t).Should(it.True(has))
}

func TestConditionalCheckFailureReturnsItem(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	_, out := invoke(t, svc, "PutItem", `{
		"TableName": "songs",
		"Item": {"artist": {"S": "adele"}, "title": {"S": "hello"}},
		"ConditionExpression": "attribute_not_exists(artist)",
		"ReturnValuesOnConditionCheckFailure": "ALL_OLD"
	}`)
	it.Then(t).Should(it.Equal(errCode(out), "ConditionalCheckFailedException"))

	item, has := out["Item"].(map[string]any)
	it.Then(t).Should(it.True(has))
	rating := item["rating"].(map[string]any)
	it.Then(t).Should(it.Equal(rating["N"].(string), "5"))
}

func TestExpressionAndLegacyConflict(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "PutItem", `{
		"TableName": "songs",
		"Item": {"artist": {"S": "a"}, "title": {"S": "b"}},
		"ConditionExpression": "attribute_not_exists(artist)",
		"Expected": {"artist": {"Exists": false}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
	msg := out["message"].(string)
	it.Then(t).Should(it.True(strings.Contains(msg, "Non-expression parameters")))
}

func TestUnusedPlaceholderRejected(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "PutItem", `{
		"TableName": "songs",
		"Item": {"artist": {"S": "a"}, "title": {"S": "b"}},
		"ConditionExpression": "attribute_not_exists(artist)",
		"ExpressionAttributeValues": {":unused": {"S": "x"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
	msg := out["message"].(string)
	it.Then(t).Should(it.True(strings.Contains(msg, ":unused")))
}

func TestUpdateItemExpression(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	status, out := invoke(t, svc, "UpdateItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "adele"}, "title": {"S": "hello"}},
		"UpdateExpression": "SET rating = rating + :one, genre = :g",
		"ExpressionAttributeValues": {":one": {"N": "1"}, ":g": {"S": "pop"}},
		"ReturnValues": "ALL_NEW"
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	attrs := out["Attributes"].(map[string]any)
	rating := attrs["rating"].(map[string]any)
	genre := attrs["genre"].(map[string]any)
	it.Then(t).Should(
		it.Equal(rating["N"].(string), "6"),
		it.Equal(genre["S"].(string), "pop"),
	)
}

func TestUpdateCreatesItem(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, upd := invoke(t, svc, "UpdateItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "new"}, "title": {"S": "song"}},
		"UpdateExpression": "SET plays = :zero",
		"ExpressionAttributeValues": {":zero": {"N": "0"}},
		"ReturnValues": "ALL_NEW"
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	// the created item carries its key attributes and the SET value
	attrs := upd["Attributes"].(map[string]any)
	it.Then(t).Should(
		it.Equal(attrs["artist"].(map[string]any)["S"].(string), "new"),
		it.Equal(attrs["title"].(map[string]any)["S"].(string), "song"),
		it.Equal(attrs["plays"].(map[string]any)["N"].(string), "0"),
	)

	_, out := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "new"}, "title": {"S": "song"}}
	}`)
	_, has := out["Item"]
	it.Then(t).Should(it.True(has))
}

func TestUpdateRemoveOnMissingKeyStoresNothing(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, _ := invoke(t, svc, "UpdateItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "ghost"}, "title": {"S": "track"}},
		"UpdateExpression": "REMOVE plays"
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	_, out := invoke(t, svc, "GetItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "ghost"}, "title": {"S": "track"}}
	}`)
	_, has := out["Item"]
	it.Then(t).ShouldNot(it.True(has))
}

func TestUpdateRejectsKeyAttribute(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "UpdateItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "a"}, "title": {"S": "b"}},
		"UpdateExpression": "SET artist = :v",
		"ExpressionAttributeValues": {":v": {"S": "x"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
}

func TestQueryPartition(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")
	putSong(t, svc, "adele", "skyfall", "4")
	putSong(t, svc, "sting", "shape", "3")

	status, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 200),
		it.Equal(out["Count"].(float64), float64(2)),
	)
}

func TestQuerySortRange(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")
	putSong(t, svc, "adele", "skyfall", "4")
	putSong(t, svc, "adele", "someone", "4")

	status, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a AND begins_with(title, :p)",
		"ExpressionAttributeValues": {":a": {"S": "adele"}, ":p": {"S": "s"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 200),
		it.Equal(out["Count"].(float64), float64(2)),
	)
}

func TestQueryPagination(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "a", "1")
	putSong(t, svc, "adele", "b", "2")
	putSong(t, svc, "adele", "c", "3")

	_, page := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"Limit": 2
	}`)
	it.Then(t).Should(it.Equal(page["Count"].(float64), float64(2)))

	cursor, has := page["LastEvaluatedKey"].(map[string]any)
	it.Then(t).Should(it.True(has))
	key, err := json.Marshal(cursor)
	it.Then(t).Should(it.Nil(err))

	_, rest := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"ExclusiveStartKey": `+string(key)+`
	}`)
	it.Then(t).Should(it.Equal(rest["Count"].(float64), float64(1)))

	_, hasMore := rest["LastEvaluatedKey"]
	it.Then(t).ShouldNot(it.True(hasMore))
}

func TestQueryBackward(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "a", "1")
	putSong(t, svc, "adele", "b", "2")

	_, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"ScanIndexForward": false
	}`)
	items := out["Items"].([]any)
	first := items[0].(map[string]any)["title"].(map[string]any)
	it.Then(t).Should(it.Equal(first["S"].(string), "b"))
}

func TestQueryFilterOnKeyRejected(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"FilterExpression": "title > :t",
		"ExpressionAttributeValues": {":a": {"S": "x"}, ":t": {"S": "y"}}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
}

func TestSelectValidation(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	// COUNT rejects projection parameters
	status, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"Select": "COUNT",
		"ProjectionExpression": "rating"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)

	// SPECIFIC_ATTRIBUTES demands a projection
	status, out = invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"Select": "SPECIFIC_ATTRIBUTES"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)

	// ALL_ATTRIBUTES rejects projection parameters, on Scan as well
	status, out = invoke(t, svc, "Scan", `{
		"TableName": "songs",
		"Select": "ALL_ATTRIBUTES",
		"ProjectionExpression": "rating"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)

	// SPECIFIC_ATTRIBUTES with a projection passes
	status, _ = invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditionExpression": "artist = :a",
		"ExpressionAttributeValues": {":a": {"S": "adele"}},
		"Select": "SPECIFIC_ATTRIBUTES",
		"ProjectionExpression": "rating"
	}`)
	it.Then(t).Should(it.Equal(status, 200))
}

func TestScanWithFilter(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")
	putSong(t, svc, "sting", "shape", "3")

	_, out := invoke(t, svc, "Scan", `{
		"TableName": "songs",
		"FilterExpression": "rating > :r",
		"ExpressionAttributeValues": {":r": {"N": "4"}}
	}`)
	it.Then(t).Should(
		it.Equal(out["Count"].(float64), float64(1)),
		it.Equal(out["ScannedCount"].(float64), float64(2)),
	)
}

func TestScanSegments(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	for _, artist := range []string{"a", "b", "c", "d", "e"} {
		putSong(t, svc, artist, "t", "1")
	}

	total := 0
	for seg := 0; seg < 3; seg++ {
		_, out := invoke(t, svc, "Scan", `{
			"TableName": "songs",
			"Segment": `+string(rune('0'+seg))+`,
			"TotalSegments": 3
		}`)
		total += int(out["Count"].(float64))
	}
	it.Then(t).Should(it.Equal(total, 5))
}

func TestBatchWriteAndGet(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, _ := invoke(t, svc, "BatchWriteItem", `{
		"RequestItems": {
			"songs": [
				{"PutRequest": {"Item": {"artist": {"S": "a"}, "title": {"S": "1"}}}},
				{"PutRequest": {"Item": {"artist": {"S": "a"}, "title": {"S": "2"}}}}
			]
		}
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	status, out := invoke(t, svc, "BatchGetItem", `{
		"RequestItems": {
			"songs": {"Keys": [
				{"artist": {"S": "a"}, "title": {"S": "1"}},
				{"artist": {"S": "a"}, "title": {"S": "2"}},
				{"artist": {"S": "a"}, "title": {"S": "3"}}
			]}
		}
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	responses := out["Responses"].(map[string]any)
	it.Then(t).Should(it.Equal(len(responses["songs"].([]any)), 2))
}

func TestBatchWriteRejectsDuplicates(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "BatchWriteItem", `{
		"RequestItems": {
			"songs": [
				{"PutRequest": {"Item": {"artist": {"S": "a"}, "title": {"S": "1"}}}},
				{"DeleteRequest": {"Key": {"artist": {"S": "a"}, "title": {"S": "1"}}}}
			]
		}
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
}

func TestTableLifecycle(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)

	status, out := invoke(t, svc, "DescribeTable", `{"TableName": "songs"}`)
	it.Then(t).Should(it.Equal(status, 200))
	desc := out["Table"].(map[string]any)
	it.Then(t).Should(it.Equal(desc["TableStatus"].(string), "ACTIVE"))

	status, out = invoke(t, svc, "CreateTable", `{
		"TableName": "songs",
		"AttributeDefinitions": [{"AttributeName": "artist", "AttributeType": "S"}],
		"KeySchema": [{"AttributeName": "artist", "KeyType": "HASH"}],
		"BillingMode": "PAY_PER_REQUEST"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ResourceInUseException"),
	)

	status, _ = invoke(t, svc, "DeleteTable", `{"TableName": "songs"}`)
	it.Then(t).Should(it.Equal(status, 200))

	status, out = invoke(t, svc, "DescribeTable", `{"TableName": "songs"}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ResourceNotFoundException"),
	)
}

func TestListTablesPagination(t *testing.T) {
	svc := newService(t)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		status, _ := invoke(t, svc, "CreateTable", `{
			"TableName": "`+name+`",
			"AttributeDefinitions": [{"AttributeName": "id", "AttributeType": "S"}],
			"KeySchema": [{"AttributeName": "id", "KeyType": "HASH"}],
			"BillingMode": "PAY_PER_REQUEST"
		}`)
		it.Then(t).Should(it.Equal(status, 200))
	}

	_, out := invoke(t, svc, "ListTables", `{"Limit": 2}`)
	names := out["TableNames"].([]any)
	it.Then(t).Should(
		it.Equal(len(names), 2),
		it.Equal(out["LastEvaluatedTableName"].(string), "beta"),
	)

	_, out = invoke(t, svc, "ListTables", `{"ExclusiveStartTableName": "beta"}`)
	names = out["TableNames"].([]any)
	it.Then(t).Should(
		it.Equal(len(names), 1),
		it.Equal(names[0].(string), "gamma"),
	)
}

func TestCreateTableValidation(t *testing.T) {
	svc := newService(t)

	// undefined key attribute
	status, out := invoke(t, svc, "CreateTable", `{
		"TableName": "broken",
		"AttributeDefinitions": [{"AttributeName": "id", "AttributeType": "S"}],
		"KeySchema": [{"AttributeName": "other", "KeyType": "HASH"}],
		"BillingMode": "PAY_PER_REQUEST"
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)

	// provisioned billing requires capacity
	status, out = invoke(t, svc, "CreateTable", `{
		"TableName": "broken",
		"AttributeDefinitions": [{"AttributeName": "id", "AttributeType": "S"}],
		"KeySchema": [{"AttributeName": "id", "KeyType": "HASH"}]
	}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "ValidationException"),
	)
}

func TestUnknownOperation(t *testing.T) {
	svc := newService(t)
	status, out := invoke(t, svc, "Teleport", `{}`)
	it.Then(t).Should(
		it.Equal(status, 400),
		it.Equal(errCode(out), "UnknownOperationException"),
	)
}

func TestLegacyAttributeUpdates(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")

	status, out := invoke(t, svc, "UpdateItem", `{
		"TableName": "songs",
		"Key": {"artist": {"S": "adele"}, "title": {"S": "hello"}},
		"AttributeUpdates": {
			"rating": {"Action": "ADD", "Value": {"N": "2"}},
			"genre": {"Action": "PUT", "Value": {"S": "pop"}}
		},
		"ReturnValues": "ALL_NEW"
	}`)
	it.Then(t).Should(it.Equal(status, 200))

	attrs := out["Attributes"].(map[string]any)
	rating := attrs["rating"].(map[string]any)
	it.Then(t).Should(it.Equal(rating["N"].(string), "7"))
}

func TestLegacyKeyConditions(t *testing.T) {
	svc := newService(t)
	createSongs(t, svc)
	putSong(t, svc, "adele", "hello", "5")
	putSong(t, svc, "adele", "skyfall", "4")

	status, out := invoke(t, svc, "Query", `{
		"TableName": "songs",
		"KeyConditions": {
			"artist": {"ComparisonOperator": "EQ", "AttributeValueList": [{"S": "adele"}]},
			"title": {"ComparisonOperator": "BEGINS_WITH", "AttributeValueList": [{"S": "sky"}]}
		}
	}`)
	it.Then(t).Should(
		it.Equal(status, 200),
		it.Equal(out["Count"].(float64), float64(1)),
	)
}
