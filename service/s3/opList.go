//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const defaultMaxKeys = 1000

// groupKey folds a key under the delimiter: the common prefix when the
// key continues past a delimiter after the listing prefix, otherwise the
// key itself.
func groupKey(key, prefix, delimiter string) (string, bool) {
	if delimiter == "" {
		return key, false
	}
	rest := key[len(prefix):]
	at := strings.Index(rest, delimiter)
	if at < 0 {
		return key, false
	}
	return prefix + rest[:at+len(delimiter)], true
}

func (s *Service) listObjects(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	q := c.r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")
	marker := q.Get("marker")
	maxKeys, err := queryInt(c.r, "max-keys", defaultMaxKeys)
	if err != nil {
		return err
	}

	out := listBucketResult{
		Xmlns:     xmlnsS3,
		Name:      c.bucket,
		Prefix:    prefix,
		Marker:    marker,
		MaxKeys:   maxKeys,
		Delimiter: delimiter,
		Contents:  []objectContent{},
	}

	b.objMu.RLock()
	defer b.objMu.RUnlock()

	count := 0
	lastPrefix := ""
	for _, key := range b.sortedKeys() {
		if !strings.HasPrefix(key, prefix) || key <= marker {
			continue
		}
		v := b.latest(key)
		if v == nil || v.marker {
			continue
		}
		group, grouped := groupKey(key, prefix, delimiter)
		if grouped {
			if group == lastPrefix {
				continue
			}
			if count >= maxKeys {
				out.IsTruncated = true
				break
			}
			out.CommonPrefixes = append(out.CommonPrefixes, commonPrefix{Prefix: group})
			out.NextMarker = group
			lastPrefix = group
			count++
			continue
		}
		if count >= maxKeys {
			out.IsTruncated = true
			break
		}
		out.Contents = append(out.Contents, objectContent{
			Key:          key,
			LastModified: newContentTime(v.obj.modified),
			ETag:         quoteETag(v.obj.etag),
			Size:         int64(len(v.obj.body)),
			StorageClass: v.obj.storageClass,
		})
		out.NextMarker = key
		count++
	}
	if !out.IsTruncated {
		out.NextMarker = ""
	}
	writeXML(c.w, http.StatusOK, out)
	return nil
}

func (s *Service) listObjectsV2(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	q := c.r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")
	maxKeys, err := queryInt(c.r, "max-keys", defaultMaxKeys)
	if err != nil {
		return err
	}

	// resume point is the continuation token when present, start-after
	// otherwise; the token is the opaque spelling of the last seen key
	after := q.Get("start-after")
	token := q.Get("continuation-token")
	if token != "" {
		decoded, derr := base64.StdEncoding.DecodeString(token)
		if derr != nil {
			return errInvalidArgument("The continuation token provided is incorrect")
		}
		after = string(decoded)
	}

	out := listBucketResultV2{
		Xmlns:             xmlnsS3,
		Name:              c.bucket,
		Prefix:            prefix,
		StartAfter:        q.Get("start-after"),
		ContinuationToken: token,
		MaxKeys:           maxKeys,
		Delimiter:         delimiter,
		EncodingType:      q.Get("encoding-type"),
		Contents:          []objectContent{},
	}

	b.objMu.RLock()
	defer b.objMu.RUnlock()

	lastSeen := ""
	lastPrefix := ""
	for _, key := range b.sortedKeys() {
		if !strings.HasPrefix(key, prefix) || key <= after {
			continue
		}
		v := b.latest(key)
		if v == nil || v.marker {
			continue
		}
		group, grouped := groupKey(key, prefix, delimiter)
		if grouped {
			if group == lastPrefix {
				continue
			}
			if out.KeyCount >= maxKeys {
				out.IsTruncated = true
				break
			}
			out.CommonPrefixes = append(out.CommonPrefixes, commonPrefix{Prefix: group})
			lastPrefix = group
			lastSeen = group
			out.KeyCount++
			continue
		}
		if out.KeyCount >= maxKeys {
			out.IsTruncated = true
			break
		}
		out.Contents = append(out.Contents, objectContent{
			Key:          key,
			LastModified: newContentTime(v.obj.modified),
			ETag:         quoteETag(v.obj.etag),
			Size:         int64(len(v.obj.body)),
			StorageClass: v.obj.storageClass,
		})
		lastSeen = key
		out.KeyCount++
	}
	if out.IsTruncated {
		out.NextContinuationToken = base64.StdEncoding.EncodeToString([]byte(lastSeen))
	}
	writeXML(c.w, http.StatusOK, out)
	return nil
}

func (s *Service) listObjectVersions(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	q := c.r.URL.Query()
	prefix := q.Get("prefix")
	delimiter := q.Get("delimiter")
	keyMarker := q.Get("key-marker")
	versionMarker := q.Get("version-id-marker")
	maxKeys, err := queryInt(c.r, "max-keys", defaultMaxKeys)
	if err != nil {
		return err
	}

	out := listVersionsResult{
		Xmlns:           xmlnsS3,
		Name:            c.bucket,
		Prefix:          prefix,
		KeyMarker:       keyMarker,
		VersionIdMarker: versionMarker,
		MaxKeys:         maxKeys,
		Delimiter:       delimiter,
		Versions:        []versionEntry{},
		DeleteMarkers:   []deleteMarkerEntry{},
	}

	b.objMu.RLock()
	defer b.objMu.RUnlock()

	count := 0
	lastPrefix := ""
	lastKey, lastVersion := "", ""
walk:
	for _, key := range b.sortedKeys() {
		if !strings.HasPrefix(key, prefix) || key < keyMarker {
			continue
		}
		group, grouped := groupKey(key, prefix, delimiter)
		if grouped {
			if group == lastPrefix {
				continue
			}
			if count >= maxKeys {
				out.IsTruncated = true
				break
			}
			out.CommonPrefixes = append(out.CommonPrefixes, commonPrefix{Prefix: group})
			lastPrefix = group
			count++
			continue
		}

		// newest first, skipping past the version marker on the marker key
		versions := b.objects[key].versions
		skipping := key == keyMarker && versionMarker != ""
		for i := len(versions) - 1; i >= 0; i-- {
			v := versions[i]
			if skipping {
				if v.id == versionMarker {
					skipping = false
				}
				continue
			}
			if key == keyMarker && versionMarker == "" {
				continue
			}
			if count >= maxKeys {
				out.IsTruncated = true
				out.NextKeyMarker = lastKey
				out.NextVersionIdMarker = lastVersion
				break walk
			}
			isLatest := i == len(versions)-1
			if v.marker {
				out.DeleteMarkers = append(out.DeleteMarkers, deleteMarkerEntry{
					Key:          key,
					VersionId:    v.id,
					IsLatest:     isLatest,
					LastModified: newContentTime(v.modified),
				})
			} else {
				out.Versions = append(out.Versions, versionEntry{
					Key:          key,
					VersionId:    v.id,
					IsLatest:     isLatest,
					LastModified: newContentTime(v.obj.modified),
					ETag:         quoteETag(v.obj.etag),
					Size:         int64(len(v.obj.body)),
					StorageClass: v.obj.storageClass,
				})
			}
			lastKey, lastVersion = key, v.id
			count++
		}
	}
	writeXML(c.w, http.StatusOK, out)
	return nil
}
