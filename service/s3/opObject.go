//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// parseTaggingHeader decodes the x-amz-tagging header, a url-encoded
// key=value list.
func parseTaggingHeader(raw string) ([]wireTag, *Error) {
	if raw == "" {
		return nil, nil
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errInvalidArgument("The header 'x-amz-tagging' shall be encoded as UTF-8 then URLEncoded URL query parameters without tag name duplicates.")
	}
	tags := make([]wireTag, 0, len(values))
	for key, vals := range values {
		tags = append(tags, wireTag{Key: key, Value: vals[0]})
	}
	return tags, nil
}

func (s *Service) putObject(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	tags, err := parseTaggingHeader(c.r.Header.Get("x-amz-tagging"))
	if err != nil {
		return err
	}

	obj := newObject(c.key, c.body, s.clock())
	obj.contentType = c.r.Header.Get("Content-Type")
	if obj.contentType == "" {
		obj.contentType = "binary/octet-stream"
	}
	obj.meta = collectMeta(c.r.Header)
	obj.tags = tags
	if sc := c.r.Header.Get("x-amz-storage-class"); sc != "" {
		obj.storageClass = sc
	}
	obj.sse = c.r.Header.Get("x-amz-server-side-encryption")

	enabled := b.versioningStatus() == versioningEnabled
	v := &version{id: newVersionID(), obj: obj, modified: obj.modified}

	b.objMu.Lock()
	b.putVersion(c.key, v, enabled)
	b.objMu.Unlock()

	c.w.Header().Set("ETag", quoteETag(obj.etag))
	if enabled {
		c.w.Header().Set("x-amz-version-id", v.id)
	}
	if obj.sse != "" {
		c.w.Header().Set("x-amz-server-side-encryption", obj.sse)
	}
	c.w.WriteHeader(http.StatusOK)
	return nil
}

// getObject serves both GET and HEAD, withBody selects whether the body
// is written.
func (s *Service) getObject(c *call, withBody bool) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	versionID := c.r.URL.Query().Get("versionId")

	// the read lock spans the response build, tagging and ACL writers
	// mutate the resolved version in place
	b.objMu.RLock()
	defer b.objMu.RUnlock()

	var v *version
	if versionID != "" {
		v, _ = b.findVersion(c.key, versionID)
	} else {
		v = b.latest(c.key)
	}
	if v == nil {
		if versionID != "" {
			return errNoSuchVersion(c.bucket, c.key)
		}
		return errNoSuchKey(c.bucket, c.key)
	}
	if v.marker {
		c.w.Header().Set("x-amz-delete-marker", "true")
		if versionID != "" {
			// a delete marker addressed by version id is not retrievable
			return &Error{
				Code:     "MethodNotAllowed",
				Status:   http.StatusMethodNotAllowed,
				Message:  "The specified method is not allowed against this resource.",
				Resource: "/" + c.bucket + "/" + c.key,
			}
		}
		return errNoSuchKey(c.bucket, c.key)
	}

	obj := v.obj
	if err := matchConditions(c.r, obj.etag, obj.modified); err != nil {
		return err
	}

	h := c.w.Header()
	h.Set("ETag", quoteETag(obj.etag))
	h.Set("Last-Modified", obj.modified.UTC().Format(http.TimeFormat))
	h.Set("Content-Type", obj.contentType)
	h.Set("Content-Length", strconv.Itoa(len(obj.body)))
	h.Set("Accept-Ranges", "bytes")
	if v.id != nullVersion {
		h.Set("x-amz-version-id", v.id)
	}
	if obj.storageClass != "" && obj.storageClass != "STANDARD" {
		h.Set("x-amz-storage-class", obj.storageClass)
	}
	if obj.sse != "" {
		h.Set("x-amz-server-side-encryption", obj.sse)
	}
	if len(obj.tags) > 0 {
		h.Set("x-amz-tagging-count", strconv.Itoa(len(obj.tags)))
	}
	for name, value := range obj.meta {
		h.Set(metaPrefix+name, value)
	}

	c.w.WriteHeader(http.StatusOK)
	if withBody {
		c.w.Write(obj.body)
	}
	return nil
}

// removeObject applies one delete step: an explicit version removal, or
// the versioning-aware delete of the latest. Enabled buckets append a
// delete marker, suspended buckets overwrite the null version with a
// null marker, unversioned buckets drop the key.
func (b *bucket) removeObject(key, versionID, status string, now time.Time) deletedObject {
	b.objMu.Lock()
	defer b.objMu.Unlock()

	out := deletedObject{Key: key}
	if versionID != "" {
		v := b.dropVersion(key, versionID)
		out.VersionId = versionID
		if v != nil && v.marker {
			out.DeleteMarker = true
			out.DeleteMarkerVersionId = versionID
		}
		return out
	}

	switch status {
	case versioningEnabled:
		v := &version{id: newVersionID(), marker: true, modified: now}
		b.putVersion(key, v, true)
		out.DeleteMarker = true
		out.DeleteMarkerVersionId = v.id
	case versioningSuspended:
		v := &version{id: nullVersion, marker: true, modified: now}
		b.putVersion(key, v, false)
		out.DeleteMarker = true
		out.DeleteMarkerVersionId = nullVersion
	default:
		b.dropKey(key)
	}
	return out
}

func (s *Service) deleteObject(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	versionID := c.r.URL.Query().Get("versionId")
	out := b.removeObject(c.key, versionID, b.versioningStatus(), s.clock())

	if out.DeleteMarker {
		c.w.Header().Set("x-amz-delete-marker", "true")
	}
	switch {
	case out.DeleteMarkerVersionId != "":
		c.w.Header().Set("x-amz-version-id", out.DeleteMarkerVersionId)
	case out.VersionId != "":
		c.w.Header().Set("x-amz-version-id", out.VersionId)
	}
	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) deleteObjects(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	req, err := decodeXML[deleteRequest](c.body)
	if err != nil {
		return err
	}

	status := b.versioningStatus()
	now := s.clock()
	result := deleteResult{Xmlns: xmlnsS3}
	for _, id := range req.Objects {
		out := b.removeObject(id.Key, id.VersionId, status, now)
		if !req.Quiet {
			result.Deleted = append(result.Deleted, out)
		}
	}
	writeXML(c.w, http.StatusOK, result)
	return nil
}

func (s *Service) copyObject(c *call) *Error {
	srcBucket, srcKey, srcVersion, err := parseCopySource(c.r.Header.Get("x-amz-copy-source"))
	if err != nil {
		return err
	}
	src, err := s.lookup(srcBucket)
	if err != nil {
		return err
	}
	dst, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}

	src.objMu.RLock()
	var v *version
	if srcVersion != "" {
		v, _ = src.findVersion(srcKey, srcVersion)
	} else {
		v = src.latest(srcKey)
	}
	// tags are snapshotted under the lock, tagging writers mutate the
	// version in place
	var srcTags []wireTag
	if v != nil && !v.marker {
		srcTags = append([]wireTag(nil), v.obj.tags...)
	}
	src.objMu.RUnlock()

	if v == nil {
		if srcVersion != "" {
			return errNoSuchVersion(srcBucket, srcKey)
		}
		return errNoSuchKey(srcBucket, srcKey)
	}
	if v.marker {
		return errNoSuchKey(srcBucket, srcKey)
	}

	directive := c.r.Header.Get("x-amz-metadata-directive")
	if srcBucket == c.bucket && srcKey == c.key && srcVersion == "" && directive != "REPLACE" {
		return errInvalidRequest("This copy request is illegal because it is being performed on the same object without changing the object's metadata, storage class, website redirect location or encryption attributes.")
	}

	origin := v.obj
	obj := newObject(c.key, origin.body, s.clock())
	if directive == "REPLACE" {
		obj.contentType = c.r.Header.Get("Content-Type")
		if obj.contentType == "" {
			obj.contentType = "binary/octet-stream"
		}
		obj.meta = collectMeta(c.r.Header)
	} else {
		obj.contentType = origin.contentType
		for name, value := range origin.meta {
			obj.meta[name] = value
		}
	}
	obj.tags = srcTags
	obj.storageClass = origin.storageClass
	if sc := c.r.Header.Get("x-amz-storage-class"); sc != "" {
		obj.storageClass = sc
	}

	enabled := dst.versioningStatus() == versioningEnabled
	nv := &version{id: newVersionID(), obj: obj, modified: obj.modified}
	dst.objMu.Lock()
	dst.putVersion(c.key, nv, enabled)
	dst.objMu.Unlock()

	if enabled {
		c.w.Header().Set("x-amz-version-id", nv.id)
	}
	if srcVersion != "" {
		c.w.Header().Set("x-amz-copy-source-version-id", srcVersion)
	}
	writeXML(c.w, http.StatusOK, copyObjectResult{
		Xmlns:        xmlnsS3,
		ETag:         quoteETag(obj.etag),
		LastModified: newContentTime(obj.modified),
	})
	return nil
}
