//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package nimbus

import (
	"net/http"
	"time"

	"github.com/fogfish/opts"

	"github.com/fogfish/nimbus/service/ddb"
	"github.com/fogfish/nimbus/service/s3"
)

// Service is the combined emulator endpoint, both services behind one
// HTTP handler.
type Service struct {
	ddb *ddb.Service
	s3  *s3.Service
}

// Option type to configure the service
type Option = opts.Option[Options]

// Config Options
type Options struct {
	region  string
	account string
	clock   func() time.Time
}

var (
	// Configure the region of the emulated account
	WithRegion = opts.FMap(optsRegion)

	// Configure the emulated account id
	WithAccount = opts.FMap(optsAccount)

	// Configure the time source, used for all object and table timestamps
	WithClock = opts.FMap(optsClock)
)

func optsDefault() Options {
	return Options{
		region:  "us-east-1",
		account: "000000000000",
		clock:   time.Now,
	}
}

func optsRegion(c *Options, region string) error {
	c.region = region
	return nil
}

func optsAccount(c *Options, account string) error {
	c.account = account
	return nil
}

func optsClock(c *Options, clock func() time.Time) error {
	c.clock = clock
	return nil
}

// Must constraint for api factory
func Must(service *Service, err error) *Service {
	if err != nil {
		panic(err)
	}
	return service
}

// New creates instance of the emulator
func New(opt ...Option) (*Service, error) {
	c := optsDefault()
	if err := opts.Apply(&c, opt); err != nil {
		return nil, err
	}

	keyval, err := ddb.New(
		ddb.WithRegion(c.region),
		ddb.WithAccount(c.account),
		ddb.WithClock(c.clock),
	)
	if err != nil {
		return nil, err
	}
	blob, err := s3.New(
		s3.WithRegion(c.region),
		s3.WithAccount(c.account),
		s3.WithClock(c.clock),
	)
	if err != nil {
		return nil, err
	}
	return &Service{ddb: keyval, s3: blob}, nil
}

// DynamoDB exposes the DynamoDB emulator, usable as a handler on its own.
func (s *Service) DynamoDB() *ddb.Service { return s.ddb }

// S3 exposes the S3 emulator, usable as a handler on its own.
func (s *Service) S3() *s3.Service { return s.s3 }

// ServeHTTP routes by protocol: the JSON protocol carries X-Amz-Target,
// path-style REST does not.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Amz-Target") != "" {
		s.ddb.ServeHTTP(w, r)
		return
	}
	s.s3.ServeHTTP(w, r)
}
