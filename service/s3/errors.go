//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import "net/http"

// Error is a typed S3 protocol error: wire code, HTTP status, message and
// the resource it refers to. It renders as the standard XML error body,
// except for 304 which carries no body at all.
type Error struct {
	Code     string
	Status   int
	Message  string
	Resource string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func errNoSuchBucket(bucket string) *Error {
	return &Error{
		Code:     "NoSuchBucket",
		Status:   http.StatusNotFound,
		Message:  "The specified bucket does not exist",
		Resource: "/" + bucket,
	}
}

func errNoSuchKey(bucket, key string) *Error {
	return &Error{
		Code:     "NoSuchKey",
		Status:   http.StatusNotFound,
		Message:  "The specified key does not exist.",
		Resource: "/" + bucket + "/" + key,
	}
}

func errNoSuchVersion(bucket, key string) *Error {
	return &Error{
		Code:     "NoSuchVersion",
		Status:   http.StatusNotFound,
		Message:  "The specified version does not exist.",
		Resource: "/" + bucket + "/" + key,
	}
}

func errNoSuchUpload(bucket string) *Error {
	return &Error{
		Code:     "NoSuchUpload",
		Status:   http.StatusNotFound,
		Message:  "The specified multipart upload does not exist. The upload ID may be invalid, or the upload may have been aborted or completed.",
		Resource: "/" + bucket,
	}
}

func errBucketAlreadyOwnedByYou(bucket string) *Error {
	return &Error{
		Code:     "BucketAlreadyOwnedByYou",
		Status:   http.StatusConflict,
		Message:  "Your previous request to create the named bucket succeeded and you already own it.",
		Resource: "/" + bucket,
	}
}

func errBucketNotEmpty(bucket string) *Error {
	return &Error{
		Code:     "BucketNotEmpty",
		Status:   http.StatusConflict,
		Message:  "The bucket you tried to delete is not empty",
		Resource: "/" + bucket,
	}
}

func errInvalidRequest(message string) *Error {
	return &Error{
		Code:    "InvalidRequest",
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

func errInvalidArgument(message string) *Error {
	return &Error{
		Code:    "InvalidArgument",
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

func errMalformedXML() *Error {
	return &Error{
		Code:    "MalformedXML",
		Status:  http.StatusBadRequest,
		Message: "The XML you provided was not well-formed or did not validate against our published schema",
	}
}

func errInvalidPart() *Error {
	return &Error{
		Code:    "InvalidPart",
		Status:  http.StatusBadRequest,
		Message: "One or more of the specified parts could not be found. The part may not have been uploaded, or the specified entity tag may not match the part's entity tag.",
	}
}

func errInvalidPartOrder() *Error {
	return &Error{
		Code:    "InvalidPartOrder",
		Status:  http.StatusBadRequest,
		Message: "The list of parts was not in ascending order. Parts must be ordered by part number.",
	}
}

func errPreconditionFailed() *Error {
	return &Error{
		Code:    "PreconditionFailed",
		Status:  http.StatusPreconditionFailed,
		Message: "At least one of the pre-conditions you specified did not hold",
	}
}

// errNotModified is a status-only response, the HTTP layer renders no body.
func errNotModified() *Error {
	return &Error{
		Code:   "NotModified",
		Status: http.StatusNotModified,
	}
}

func errNoSuchConfig(code, bucket string) *Error {
	return &Error{
		Code:     code,
		Status:   http.StatusNotFound,
		Message:  "The specified configuration does not exist.",
		Resource: "/" + bucket,
	}
}

func errNoSuchTagSet(bucket string) *Error {
	return &Error{
		Code:     "NoSuchTagSet",
		Status:   http.StatusNotFound,
		Message:  "The TagSet does not exist",
		Resource: "/" + bucket,
	}
}

func errNotImplemented(what string) *Error {
	return &Error{
		Code:    "NotImplemented",
		Status:  http.StatusNotImplemented,
		Message: "A header or query you provided implies functionality that is not implemented: " + what,
	}
}

func errInternal(err error) *Error {
	return &Error{
		Code:    "InternalError",
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
	}
}
