//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"fmt"
	"net/http"

	"github.com/fogfish/nimbus/internal/ddb/value"
)

// Error is a typed protocol error: wire code, HTTP status and message.
// Validation messages follow the canonical service spelling, client SDKs
// and their retry policies key off them.
type Error struct {
	Code    string
	Status  int
	Message string

	// old item attached to ConditionalCheckFailedException when the
	// request asked for ReturnValuesOnConditionCheckFailure=ALL_OLD
	Item value.Item
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

const (
	codeValidation             = "ValidationException"
	codeResourceNotFound       = "ResourceNotFoundException"
	codeResourceInUse          = "ResourceInUseException"
	codeConditionalCheckFailed = "ConditionalCheckFailedException"
	codeInternalServerError    = "InternalServerError"
	codeUnknownOperation       = "UnknownOperationException"
	codeSerialization          = "SerializationException"
)

func errValidation(format string, args ...any) *Error {
	return &Error{
		Code:    codeValidation,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func errResourceNotFound() *Error {
	return &Error{
		Code:    codeResourceNotFound,
		Status:  http.StatusBadRequest,
		Message: "Requested resource not found",
	}
}

func errTableNotFound(table string) *Error {
	return &Error{
		Code:    codeResourceNotFound,
		Status:  http.StatusBadRequest,
		Message: "Requested resource not found: Table: " + table + " not found",
	}
}

func errTableExists(table string) *Error {
	return &Error{
		Code:    codeResourceInUse,
		Status:  http.StatusBadRequest,
		Message: "Table already exists: " + table,
	}
}

func errConditionalCheckFailed(item value.Item) *Error {
	return &Error{
		Code:    codeConditionalCheckFailed,
		Status:  http.StatusBadRequest,
		Message: "The conditional request failed",
		Item:    item,
	}
}

func errSerialization(err error) *Error {
	return &Error{
		Code:    codeSerialization,
		Status:  http.StatusBadRequest,
		Message: err.Error(),
	}
}

func errUnknownOperation() *Error {
	return &Error{
		Code:    codeUnknownOperation,
		Status:  http.StatusBadRequest,
		Message: "UnknownOperationException",
	}
}

func errInternal(err error) *Error {
	return &Error{
		Code:    codeInternalServerError,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	}
}
