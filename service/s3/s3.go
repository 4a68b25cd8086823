//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package s3 emulates the S3 service: path-style REST XML protocol over
// an in-memory bucket store with versioning and multipart uploads.
// Unmodified AWS SDK clients pointed at the HTTP handler behave as
// against the real service.
package s3

import (
	"sync"
	"time"

	"github.com/fogfish/opts"
)

// Service is one emulated S3 endpoint: a registry of named buckets.
type Service struct {
	region  string
	account string
	clock   func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket
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
	// Configure the region reported by GetBucketLocation
	WithRegion = opts.FMap(optsRegion)

	// Configure the account id reported as bucket owner
	WithAccount = opts.FMap(optsAccount)

	// Configure the time source, used for object timestamps
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

// New creates instance of the S3 emulator
func New(opt ...Option) (*Service, error) {
	c := optsDefault()
	if err := opts.Apply(&c, opt); err != nil {
		return nil, err
	}
	return &Service{
		region:  c.region,
		account: c.account,
		clock:   c.clock,
		buckets: map[string]*bucket{},
	}, nil
}

func (s *Service) lookup(name string) (*bucket, *Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, has := s.buckets[name]
	if !has {
		return nil, errNoSuchBucket(name)
	}
	return b, nil
}
