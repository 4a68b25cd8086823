//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"encoding/xml"
	"io"
	"net/http"
)

// writeXML renders one response document: XML declaration, then the value
// with its xmlns attribute already set on the wire type.
func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	io.WriteString(w, xml.Header)
	xml.NewEncoder(w).Encode(v)
}

// decodeXML parses a request body into a wire type, any failure is
// MalformedXML.
func decodeXML[T any](body []byte) (*T, *Error) {
	v := new(T)
	if err := xml.Unmarshal(body, v); err != nil {
		return nil, errMalformedXML()
	}
	return v, nil
}
