//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fogfish/nimbus/internal/ddb/value"
	"github.com/google/uuid"
)

const (
	contentType = "application/x-amz-json-1.0"
	wirePrefix  = "com.amazonaws.dynamodb.v20120810#"
)

// ServeHTTP dispatches one JSON 1.0 request by its X-Amz-Target header.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("x-amzn-RequestId", uuid.New().String())

	body, rerr := io.ReadAll(r.Body)
	if rerr != nil {
		writeError(w, errSerialization(rerr))
		return
	}

	target := r.Header.Get("X-Amz-Target")
	op := target[strings.LastIndexByte(target, '.')+1:]

	out, err := s.dispatch(op, body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}

func (s *Service) dispatch(op string, body []byte) (any, *Error) {
	switch op {
	case "PutItem":
		return call(body, s.putItem)
	case "GetItem":
		return call(body, s.getItem)
	case "DeleteItem":
		return call(body, s.deleteItem)
	case "UpdateItem":
		return call(body, s.updateItem)
	case "Query":
		return call(body, s.query)
	case "Scan":
		return call(body, s.scan)
	case "BatchGetItem":
		return call(body, s.batchGetItem)
	case "BatchWriteItem":
		return call(body, s.batchWriteItem)
	case "CreateTable":
		return call(body, s.createTable)
	case "DeleteTable":
		return call(body, s.deleteTable)
	case "DescribeTable":
		return call(body, s.describeTable)
	case "ListTables":
		return call(body, s.listTables)
	case "UpdateTable":
		return call(body, s.updateTable)
	}
	return nil, errUnknownOperation()
}

func call[I, O any](body []byte, f func(*I) (*O, *Error)) (any, *Error) {
	in := new(I)
	if len(body) > 0 {
		if err := json.Unmarshal(body, in); err != nil {
			return nil, errSerialization(err)
		}
	}
	out, err := f(in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// wireError is the JSON error shape, the old item rides along on
// conditional check failures when requested.
type wireError struct {
	Type    string     `json:"__type"`
	Message string     `json:"message"`
	Item    value.Item `json:"Item,omitempty"`
}

func writeError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(wireError{
		Type:    wirePrefix + err.Code,
		Message: err.Message,
		Item:    err.Item,
	})
}
