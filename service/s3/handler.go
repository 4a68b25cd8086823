//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// call is one resolved request: path pieces, the buffered body and the
// response writer the handler renders into.
type call struct {
	w      http.ResponseWriter
	r      *http.Request
	bucket string
	key    string
	body   []byte
}

// ServeHTTP resolves and dispatches one path-style REST request.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	w.Header().Set("x-amz-request-id", requestID)

	bucket, key := splitPath(r.URL.Path)
	body, rerr := io.ReadAll(r.Body)
	if rerr != nil {
		s.writeError(w, r, errInternal(rerr), requestID)
		return
	}

	c := &call{w: w, r: r, bucket: bucket, key: key, body: body}
	if err := s.dispatch(resolve(r, bucket, key), c); err != nil {
		s.writeError(w, r, err, requestID)
	}
}

func splitPath(path string) (bucket, key string) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", ""
	}
	if at := strings.IndexByte(path, '/'); at >= 0 {
		return path[:at], path[at+1:]
	}
	return path, ""
}

func (s *Service) dispatch(op operation, c *call) *Error {
	switch op {
	case opListBuckets:
		return s.listBuckets(c)
	case opCreateBucket:
		return s.createBucket(c)
	case opDeleteBucket:
		return s.deleteBucket(c)
	case opHeadBucket:
		return s.headBucket(c)
	case opGetBucketLocation:
		return s.getBucketLocation(c)

	case opPutObject:
		return s.putObject(c)
	case opGetObject:
		return s.getObject(c, true)
	case opHeadObject:
		return s.getObject(c, false)
	case opDeleteObject:
		return s.deleteObject(c)
	case opDeleteObjects:
		return s.deleteObjects(c)
	case opCopyObject:
		return s.copyObject(c)
	case opPostObject:
		return s.postObject(c)

	case opListObjects:
		return s.listObjects(c)
	case opListObjectsV2:
		return s.listObjectsV2(c)
	case opListObjectVersions:
		return s.listObjectVersions(c)

	case opCreateMultipartUpload:
		return s.createMultipartUpload(c)
	case opUploadPart:
		return s.uploadPart(c)
	case opCompleteMultipartUpload:
		return s.completeMultipartUpload(c)
	case opAbortMultipartUpload:
		return s.abortMultipartUpload(c)
	case opListParts:
		return s.listParts(c)
	case opListMultipartUploads:
		return s.listMultipartUploads(c)

	case opGetBucketVersioning:
		return s.getBucketVersioning(c)
	case opPutBucketVersioning:
		return s.putBucketVersioning(c)
	case opGetBucketTagging:
		return s.getBucketTagging(c)
	case opPutBucketTagging:
		return s.putBucketTagging(c)
	case opDeleteBucketTagging:
		return s.deleteBucketTagging(c)
	case opGetObjectTagging:
		return s.getObjectTagging(c)
	case opPutObjectTagging:
		return s.putObjectTagging(c)
	case opDeleteObjectTagging:
		return s.deleteObjectTagging(c)
	case opGetBucketCors:
		return s.getBucketCors(c)
	case opPutBucketCors:
		return s.putBucketCors(c)
	case opDeleteBucketCors:
		return s.deleteBucketCors(c)
	case opGetBucketAcl:
		return s.getBucketAcl(c)
	case opPutBucketAcl:
		return s.putBucketAcl(c)
	case opGetObjectAcl:
		return s.getObjectAcl(c)
	case opPutObjectAcl:
		return s.putObjectAcl(c)

	case opGetBucketConfig:
		return s.getBucketConfig(c)
	case opPutBucketConfig:
		return s.putBucketConfig(c)
	case opDeleteBucketConfig:
		return s.deleteBucketConfig(c)
	}
	return &Error{
		Code:    "MethodNotAllowed",
		Status:  http.StatusMethodNotAllowed,
		Message: "The specified method is not allowed against this resource.",
	}
}

// writeError renders the XML error body. 304 and HEAD responses carry
// status only.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err *Error, requestID string) {
	if err.Status == http.StatusNotModified || r.Method == http.MethodHead {
		w.WriteHeader(err.Status)
		return
	}
	writeXML(w, err.Status, errorResult{
		Code:      err.Code,
		Message:   err.Message,
		Resource:  err.Resource,
		RequestId: requestID,
	})
}
