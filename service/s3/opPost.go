//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// postObject handles the browser form upload: a multipart/form-data body
// whose fields carry the key, metadata and the file content.
func (s *Service) postObject(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}

	mediaType, params, merr := mime.ParseMediaType(c.r.Header.Get("Content-Type"))
	if merr != nil || mediaType != "multipart/form-data" {
		return errInvalidRequest("The body of your POST request is not well-formed multipart/form-data.")
	}

	var (
		key         string
		body        []byte
		hasFile     bool
		contentType string
		status      string
		meta        = map[string]string{}
	)
	reader := multipart.NewReader(bytes.NewReader(c.body), params["boundary"])
	for {
		part, perr := reader.NextPart()
		if perr == io.EOF {
			break
		}
		if perr != nil {
			return errInvalidRequest("The body of your POST request is not well-formed multipart/form-data.")
		}
		data, rerr := io.ReadAll(part)
		if rerr != nil {
			return errInternal(rerr)
		}
		name := part.FormName()
		switch {
		case name == "file":
			body = data
			hasFile = true
			if ct := part.Header.Get("Content-Type"); ct != "" {
				contentType = ct
			}
		case name == "key":
			key = string(data)
		case name == "Content-Type":
			contentType = string(data)
		case name == "success_action_status":
			status = string(data)
		case strings.HasPrefix(strings.ToLower(name), "x-amz-meta-"):
			// form field names are not canonicalized, keep the case
			meta[name[len("x-amz-meta-"):]] = string(data)
		}
	}

	if key == "" {
		return errInvalidArgument("Bucket POST must contain a field named 'key'. If it is specified, please check the order of the fields.")
	}
	if !hasFile {
		return errInvalidArgument("POST requires exactly one file upload per request.")
	}
	// ${filename} substitution is not supported, the key is taken verbatim

	obj := newObject(key, body, s.clock())
	obj.contentType = contentType
	if obj.contentType == "" {
		obj.contentType = "binary/octet-stream"
	}
	obj.meta = meta

	enabled := b.versioningStatus() == versioningEnabled
	v := &version{id: newVersionID(), obj: obj, modified: obj.modified}
	b.objMu.Lock()
	b.putVersion(key, v, enabled)
	b.objMu.Unlock()

	c.w.Header().Set("ETag", quoteETag(obj.etag))
	if enabled {
		c.w.Header().Set("x-amz-version-id", v.id)
	}
	location := "/" + c.bucket + "/" + key
	c.w.Header().Set("Location", location)

	switch status {
	case "200", "201":
		code := http.StatusOK
		if status == "201" {
			code = http.StatusCreated
		}
		writeXML(c.w, code, postResponse{
			Location: location,
			Bucket:   c.bucket,
			Key:      key,
			ETag:     quoteETag(obj.etag),
		})
	default:
		c.w.WriteHeader(http.StatusNoContent)
	}
	return nil
}
