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
	"net/http"
	"sort"
	"strings"
)

const (
	maxPartNumber     = 10000
	defaultMaxParts   = 1000
	defaultMaxUploads = 1000
)

func (b *bucket) findUpload(id string) *upload {
	b.upMu.Lock()
	defer b.upMu.Unlock()
	return b.uploads[id]
}

func (s *Service) createMultipartUpload(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	tags, err := parseTaggingHeader(c.r.Header.Get("x-amz-tagging"))
	if err != nil {
		return err
	}

	up := &upload{
		id:          newVersionID(),
		key:         c.key,
		initiated:   s.clock(),
		contentType: c.r.Header.Get("Content-Type"),
		meta:        collectMeta(c.r.Header),
		tags:        tags,
		sse:         c.r.Header.Get("x-amz-server-side-encryption"),
		parts:       map[int]uploadPart{},
	}
	if up.contentType == "" {
		up.contentType = "binary/octet-stream"
	}
	up.storageClass = c.r.Header.Get("x-amz-storage-class")
	if up.storageClass == "" {
		up.storageClass = "STANDARD"
	}

	b.upMu.Lock()
	b.uploads[up.id] = up
	b.upMu.Unlock()

	writeXML(c.w, http.StatusOK, initiateMultipartUploadResult{
		Xmlns:    xmlnsS3,
		Bucket:   c.bucket,
		Key:      c.key,
		UploadId: up.id,
	})
	return nil
}

func (s *Service) uploadPart(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	num, err := queryInt(c.r, "partNumber", 0)
	if err != nil {
		return err
	}
	if num < 1 || num > maxPartNumber {
		return errInvalidArgument("Part number must be an integer between 1 and 10000, inclusive")
	}
	up := b.findUpload(c.r.URL.Query().Get("uploadId"))
	if up == nil {
		return errNoSuchUpload(c.bucket)
	}

	part := uploadPart{
		num:      num,
		body:     c.body,
		digest:   md5.Sum(c.body),
		modified: s.clock(),
	}
	up.mu.Lock()
	up.parts[num] = part
	up.mu.Unlock()

	c.w.Header().Set("ETag", quoteETag(part.etag()))
	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) completeMultipartUpload(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	id := c.r.URL.Query().Get("uploadId")
	up := b.findUpload(id)
	if up == nil {
		return errNoSuchUpload(c.bucket)
	}
	req, err := decodeXML[completeMultipartUpload](c.body)
	if err != nil {
		return err
	}
	if len(req.Parts) == 0 {
		return errMalformedXML()
	}

	up.mu.Lock()
	selected := make([]uploadPart, 0, len(req.Parts))
	for i, p := range req.Parts {
		if i > 0 && p.PartNumber <= req.Parts[i-1].PartNumber {
			up.mu.Unlock()
			return errInvalidPartOrder()
		}
		stored, has := up.parts[p.PartNumber]
		if !has || strings.Trim(p.ETag, `"`) != stored.etag() {
			up.mu.Unlock()
			return errInvalidPart()
		}
		selected = append(selected, stored)
	}
	up.mu.Unlock()

	body, etag := assemble(selected)
	obj := newObject(c.key, body, s.clock())
	obj.etag = etag
	obj.contentType = up.contentType
	obj.meta = up.meta
	obj.tags = up.tags
	obj.storageClass = up.storageClass
	obj.sse = up.sse

	enabled := b.versioningStatus() == versioningEnabled
	v := &version{id: newVersionID(), obj: obj, modified: obj.modified}
	b.objMu.Lock()
	b.putVersion(c.key, v, enabled)
	b.objMu.Unlock()

	b.upMu.Lock()
	delete(b.uploads, id)
	b.upMu.Unlock()

	if enabled {
		c.w.Header().Set("x-amz-version-id", v.id)
	}
	writeXML(c.w, http.StatusOK, completeMultipartUploadResult{
		Xmlns:    xmlnsS3,
		Location: "/" + c.bucket + "/" + c.key,
		Bucket:   c.bucket,
		Key:      c.key,
		ETag:     quoteETag(etag),
	})
	return nil
}

func (s *Service) abortMultipartUpload(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	id := c.r.URL.Query().Get("uploadId")

	b.upMu.Lock()
	_, has := b.uploads[id]
	delete(b.uploads, id)
	b.upMu.Unlock()

	if !has {
		return errNoSuchUpload(c.bucket)
	}
	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) listParts(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	id := c.r.URL.Query().Get("uploadId")
	up := b.findUpload(id)
	if up == nil {
		return errNoSuchUpload(c.bucket)
	}
	marker, err := queryInt(c.r, "part-number-marker", 0)
	if err != nil {
		return err
	}
	maxParts, err := queryInt(c.r, "max-parts", defaultMaxParts)
	if err != nil {
		return err
	}

	up.mu.Lock()
	nums := make([]int, 0, len(up.parts))
	for num := range up.parts {
		if num > marker {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)

	out := listPartsResult{
		Xmlns:            xmlnsS3,
		Bucket:           c.bucket,
		Key:              up.key,
		UploadId:         id,
		StorageClass:     up.storageClass,
		PartNumberMarker: marker,
		MaxParts:         maxParts,
		Parts:            []partEntry{},
	}
	for _, num := range nums {
		if len(out.Parts) >= maxParts {
			out.IsTruncated = true
			out.NextPartNumberMarker = out.Parts[len(out.Parts)-1].PartNumber
			break
		}
		p := up.parts[num]
		out.Parts = append(out.Parts, partEntry{
			PartNumber:   num,
			LastModified: newContentTime(p.modified),
			ETag:         quoteETag(p.etag()),
			Size:         int64(len(p.body)),
		})
	}
	up.mu.Unlock()

	writeXML(c.w, http.StatusOK, out)
	return nil
}

func (s *Service) listMultipartUploads(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	q := c.r.URL.Query()
	prefix := q.Get("prefix")
	keyMarker := q.Get("key-marker")
	idMarker := q.Get("upload-id-marker")
	maxUploads, err := queryInt(c.r, "max-uploads", defaultMaxUploads)
	if err != nil {
		return err
	}

	b.upMu.Lock()
	all := make([]*upload, 0, len(b.uploads))
	for _, up := range b.uploads {
		all = append(all, up)
	}
	b.upMu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].key != all[j].key {
			return all[i].key < all[j].key
		}
		return all[i].id < all[j].id
	})

	out := listMultipartUploadsResult{
		Xmlns:          xmlnsS3,
		Bucket:         c.bucket,
		KeyMarker:      keyMarker,
		UploadIdMarker: idMarker,
		Prefix:         prefix,
		MaxUploads:     maxUploads,
		Uploads:        []uploadEntry{},
	}
	for _, up := range all {
		if !strings.HasPrefix(up.key, prefix) {
			continue
		}
		if up.key < keyMarker || (up.key == keyMarker && up.id <= idMarker) {
			continue
		}
		if len(out.Uploads) >= maxUploads {
			out.IsTruncated = true
			last := out.Uploads[len(out.Uploads)-1]
			out.NextKeyMarker = last.Key
			out.NextUploadIdMarker = last.UploadId
			break
		}
		out.Uploads = append(out.Uploads, uploadEntry{
			Key:          up.key,
			UploadId:     up.id,
			StorageClass: up.storageClass,
			Initiated:    newContentTime(up.initiated),
		})
	}
	writeXML(c.w, http.StatusOK, out)
	return nil
}
