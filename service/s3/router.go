//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import "net/http"

// operation tags one resolved S3 request. Dispatch is a closed switch,
// there is no extension surface.
type operation int

const (
	opUnknown operation = iota

	opListBuckets
	opCreateBucket
	opDeleteBucket
	opHeadBucket
	opGetBucketLocation

	opPutObject
	opGetObject
	opHeadObject
	opDeleteObject
	opDeleteObjects
	opCopyObject
	opPostObject

	opListObjects
	opListObjectsV2
	opListObjectVersions

	opCreateMultipartUpload
	opUploadPart
	opCompleteMultipartUpload
	opAbortMultipartUpload
	opListParts
	opListMultipartUploads

	opGetBucketVersioning
	opPutBucketVersioning
	opGetBucketTagging
	opPutBucketTagging
	opDeleteBucketTagging
	opGetObjectTagging
	opPutObjectTagging
	opDeleteObjectTagging
	opGetBucketCors
	opPutBucketCors
	opDeleteBucketCors
	opGetBucketAcl
	opPutBucketAcl
	opGetObjectAcl
	opPutObjectAcl

	opGetBucketConfig
	opPutBucketConfig
	opDeleteBucketConfig
)

// rawSlot is one opaque bucket configuration slot: the body is stored
// verbatim and echoed back. Slots without an absent-code render their
// default document instead of erroring.
type rawSlot struct {
	query      string
	absentCode string
	defaultDoc string
	json       bool
}

var rawSlots = []rawSlot{
	{query: "encryption", absentCode: "ServerSideEncryptionConfigurationNotFoundError"},
	{query: "lifecycle", absentCode: "NoSuchLifecycleConfiguration"},
	{query: "policy", absentCode: "NoSuchBucketPolicy", json: true},
	{query: "website", absentCode: "NoSuchWebsiteConfiguration"},
	{query: "ownershipControls", absentCode: "OwnershipControlsNotFoundError"},
	{query: "publicAccessBlock", absentCode: "NoSuchPublicAccessBlockConfiguration"},
	{query: "object-lock", absentCode: "ObjectLockConfigurationNotFoundError"},
	{query: "accelerate", defaultDoc: `<AccelerateConfiguration xmlns="` + xmlnsS3 + `"/>`},
	{query: "requestPayment", defaultDoc: `<RequestPaymentConfiguration xmlns="` + xmlnsS3 + `"><Payer>BucketOwner</Payer></RequestPaymentConfiguration>`},
	{query: "logging", defaultDoc: `<BucketLoggingStatus xmlns="` + xmlnsS3 + `"/>`},
	{query: "notification", defaultDoc: `<NotificationConfiguration xmlns="` + xmlnsS3 + `"/>`},
}

func rawSlotOf(r *http.Request) *rawSlot {
	q := r.URL.Query()
	for i := range rawSlots {
		if q.Has(rawSlots[i].query) {
			return &rawSlots[i]
		}
	}
	return nil
}

// resolve maps (method, path shape, query presence) onto an operation.
func resolve(r *http.Request, bucket, key string) operation {
	q := r.URL.Query()

	if bucket == "" {
		if r.Method == http.MethodGet {
			return opListBuckets
		}
		return opUnknown
	}

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			return opHeadBucket
		case http.MethodGet:
			switch {
			case q.Has("location"):
				return opGetBucketLocation
			case q.Has("versioning"):
				return opGetBucketVersioning
			case q.Has("tagging"):
				return opGetBucketTagging
			case q.Has("cors"):
				return opGetBucketCors
			case q.Has("acl"):
				return opGetBucketAcl
			case rawSlotOf(r) != nil:
				return opGetBucketConfig
			case q.Has("uploads"):
				return opListMultipartUploads
			case q.Has("versions"):
				return opListObjectVersions
			case q.Get("list-type") == "2":
				return opListObjectsV2
			default:
				return opListObjects
			}
		case http.MethodPut:
			switch {
			case q.Has("versioning"):
				return opPutBucketVersioning
			case q.Has("tagging"):
				return opPutBucketTagging
			case q.Has("cors"):
				return opPutBucketCors
			case q.Has("acl"):
				return opPutBucketAcl
			case rawSlotOf(r) != nil:
				return opPutBucketConfig
			default:
				return opCreateBucket
			}
		case http.MethodDelete:
			switch {
			case q.Has("tagging"):
				return opDeleteBucketTagging
			case q.Has("cors"):
				return opDeleteBucketCors
			case rawSlotOf(r) != nil:
				return opDeleteBucketConfig
			default:
				return opDeleteBucket
			}
		case http.MethodPost:
			if q.Has("delete") {
				return opDeleteObjects
			}
			return opPostObject
		}
		return opUnknown
	}

	switch r.Method {
	case http.MethodHead:
		return opHeadObject
	case http.MethodGet:
		switch {
		case q.Has("tagging"):
			return opGetObjectTagging
		case q.Has("acl"):
			return opGetObjectAcl
		case q.Has("uploadId"):
			return opListParts
		default:
			return opGetObject
		}
	case http.MethodPut:
		switch {
		case q.Has("tagging"):
			return opPutObjectTagging
		case q.Has("acl"):
			return opPutObjectAcl
		case q.Has("partNumber") && q.Has("uploadId"):
			return opUploadPart
		case r.Header.Get("x-amz-copy-source") != "":
			return opCopyObject
		default:
			return opPutObject
		}
	case http.MethodDelete:
		switch {
		case q.Has("tagging"):
			return opDeleteObjectTagging
		case q.Has("uploadId"):
			return opAbortMultipartUpload
		default:
			return opDeleteObject
		}
	case http.MethodPost:
		switch {
		case q.Has("uploads"):
			return opCreateMultipartUpload
		case q.Has("uploadId"):
			return opCompleteMultipartUpload
		}
	}
	return opUnknown
}
