//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package nimbus_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/nimbus"
)

func TestRoutingByProtocol(t *testing.T) {
	emu, err := nimbus.New()
	it.Then(t).Should(it.Nil(err))

	// JSON protocol requests land on the DynamoDB emulator
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	r.Header.Set("X-Amz-Target", "DynamoDB_20120810.ListTables")
	r.Header.Set("Content-Type", "application/x-amz-json-1.0")
	w := httptest.NewRecorder()
	emu.ServeHTTP(w, r)
	it.Then(t).Should(
		it.Equal(w.Code, 200),
		it.Equal(w.Header().Get("Content-Type"), "application/x-amz-json-1.0"),
	)

	// everything else lands on the S3 emulator
	r = httptest.NewRequest("GET", "/", nil)
	w = httptest.NewRecorder()
	emu.ServeHTTP(w, r)
	it.Then(t).Should(
		it.Equal(w.Code, 200),
		it.True(strings.Contains(w.Body.String(), "ListAllMyBucketsResult")),
	)
}

func TestSharedConfiguration(t *testing.T) {
	emu, err := nimbus.New(
		nimbus.WithRegion("eu-west-1"),
		nimbus.WithAccount("123456789012"),
	)
	it.Then(t).Should(it.Nil(err))

	r := httptest.NewRequest("PUT", "/media", nil)
	w := httptest.NewRecorder()
	emu.ServeHTTP(w, r)
	it.Then(t).Should(it.Equal(w.Code, 200))

	r = httptest.NewRequest("GET", "/media?location", nil)
	w = httptest.NewRecorder()
	emu.ServeHTTP(w, r)
	it.Then(t).Should(
		it.True(strings.Contains(w.Body.String(), "eu-west-1")),
	)
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		it.Then(t).ShouldNot(it.Nil(recover()))
	}()
	nimbus.Must(nil, errors.New("boom"))
}
