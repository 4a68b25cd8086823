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
	"strings"
	"time"
)

// headerBool accepts true in any case, everything else is false.
func headerBool(r *http.Request, name string) bool {
	return strings.EqualFold(r.Header.Get(name), "true")
}

var timeFormats = []string{
	http.TimeFormat,
	time.RFC3339,
	time.RFC1123Z,
}

// headerTime parses a timestamp header in the accepted wire spellings.
func headerTime(r *http.Request, name string) (time.Time, bool) {
	raw := r.Header.Get(name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// queryInt parses an integer query parameter, falling back to the
// default on absence and failing on garbage.
func queryInt(r *http.Request, name string, def int) (int, *Error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidArgument("Provided " + name + " not an integer or within integer range")
	}
	return n, nil
}

const metaPrefix = "X-Amz-Meta-"

// collectMeta gathers x-amz-meta-* headers into the user metadata map,
// prefix stripped and the remaining name kept as it stands in the
// header map. net/http canonicalizes incoming header names, so the
// preserved form is the canonical MIME spelling.
func collectMeta(h http.Header) map[string]string {
	meta := map[string]string{}
	for name, values := range h {
		if len(name) > len(metaPrefix) &&
			strings.EqualFold(name[:len(metaPrefix)], metaPrefix) && len(values) > 0 {
			meta[name[len(metaPrefix):]] = values[0]
		}
	}
	return meta
}

// parseCopySource splits x-amz-copy-source into bucket, key and optional
// version id.
func parseCopySource(raw string) (bucket, key, versionID string, err *Error) {
	unescaped, uerr := url.QueryUnescape(raw)
	if uerr != nil {
		return "", "", "", errInvalidArgument("Copy Source must mention the source bucket and key: sourcebucket/sourcekey")
	}
	if at := strings.Index(unescaped, "?versionId="); at >= 0 {
		versionID = unescaped[at+len("?versionId="):]
		unescaped = unescaped[:at]
	}
	unescaped = strings.TrimPrefix(unescaped, "/")
	slash := strings.Index(unescaped, "/")
	if slash <= 0 || slash == len(unescaped)-1 {
		return "", "", "", errInvalidArgument("Copy Source must mention the source bucket and key: sourcebucket/sourcekey")
	}
	return unescaped[:slash], unescaped[slash+1:], versionID, nil
}

// matchConditions evaluates the conditional read headers against the
// object, first the etag conditions then the time conditions.
func matchConditions(r *http.Request, etag string, modified time.Time) *Error {
	modified = modified.Truncate(time.Second)

	if raw := r.Header.Get("If-Match"); raw != "" {
		if !etagListMatch(raw, etag) {
			return errPreconditionFailed()
		}
	}
	if raw := r.Header.Get("If-None-Match"); raw != "" {
		if etagListMatch(raw, etag) {
			return errNotModified()
		}
	}
	if t, ok := headerTime(r, "If-Unmodified-Since"); ok && modified.After(t) {
		if r.Header.Get("If-Match") == "" {
			return errPreconditionFailed()
		}
	}
	if t, ok := headerTime(r, "If-Modified-Since"); ok && !modified.After(t) {
		return errNotModified()
	}
	return nil
}

func etagListMatch(raw, etag string) bool {
	for _, candidate := range strings.Split(raw, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.Trim(candidate, `"`) == etag {
			return true
		}
	}
	return false
}
