//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// object is one stored object version: body bytes plus the attributes
// rendered into response headers.
type object struct {
	key          string
	body         []byte
	etag         string
	modified     time.Time
	contentType  string
	meta         map[string]string
	tags         []wireTag
	storageClass string
	acl          *accessControlPolicy

	sse           string
	lockMode      string
	lockRetain    time.Time
	legalHold     string
	checksumAlgos []string
}

func newObject(key string, body []byte, now time.Time) *object {
	return &object{
		key:          key,
		body:         body,
		etag:         etagOf(body),
		modified:     now,
		storageClass: "STANDARD",
		meta:         map[string]string{},
	}
}

// etagOf is the MD5 hex digest of the body.
func etagOf(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

// quoteETag renders an etag the way headers and XML carry it.
func quoteETag(etag string) string {
	return `"` + etag + `"`
}

// upload is one in-progress multipart upload. Parts upload out of order
// and replace by part number.
type upload struct {
	id           string
	key          string
	initiated    time.Time
	contentType  string
	meta         map[string]string
	tags         []wireTag
	storageClass string
	sse          string

	mu    sync.Mutex
	parts map[int]uploadPart
}

type uploadPart struct {
	num      int
	body     []byte
	digest   [md5.Size]byte
	modified time.Time
}

func (p uploadPart) etag() string {
	return hex.EncodeToString(p.digest[:])
}

// assemble concatenates the selected parts in request order and computes
// the composite etag, the MD5 of the concatenated part digests suffixed
// with the part count.
func assemble(parts []uploadPart) ([]byte, string) {
	size := 0
	for _, p := range parts {
		size += len(p.body)
	}
	body := make([]byte, 0, size)
	digests := make([]byte, 0, len(parts)*md5.Size)
	for _, p := range parts {
		body = append(body, p.body...)
		digests = append(digests, p.digest[:]...)
	}
	sum := md5.Sum(digests)
	return body, hex.EncodeToString(sum[:]) + "-" + strconv.Itoa(len(parts))
}
