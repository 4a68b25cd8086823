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
	"sort"
)

func (s *Service) owner() ownerInfo {
	return ownerInfo{ID: s.account, DisplayName: s.account}
}

func (s *Service) listBuckets(c *call) *Error {
	s.mu.RLock()
	infos := make([]bucketInfo, 0, len(s.buckets))
	for _, b := range s.buckets {
		infos = append(infos, bucketInfo{Name: b.name, CreationDate: newContentTime(b.created)})
	}
	s.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	writeXML(c.w, http.StatusOK, listAllMyBucketsResult{
		Xmlns:   xmlnsS3,
		Owner:   s.owner(),
		Buckets: infos,
	})
	return nil
}

func (s *Service) createBucket(c *call) *Error {
	if err := validateBucketName(c.bucket); err != nil {
		return err
	}

	region := s.region
	if len(c.body) > 0 {
		cfg, err := decodeXML[createBucketConfiguration](c.body)
		if err != nil {
			return err
		}
		if cfg.LocationConstraint != "" {
			region = cfg.LocationConstraint
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, has := s.buckets[c.bucket]; has {
		return errBucketAlreadyOwnedByYou(c.bucket)
	}
	s.buckets[c.bucket] = newBucket(c.bucket, region, s.clock())

	c.w.Header().Set("Location", "/"+c.bucket)
	c.w.WriteHeader(http.StatusOK)
	return nil
}

func validateBucketName(name string) *Error {
	invalid := &Error{
		Code:     "InvalidBucketName",
		Status:   http.StatusBadRequest,
		Message:  "The specified bucket is not valid.",
		Resource: "/" + name,
	}
	if len(name) < 3 || len(name) > 63 {
		return invalid
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '.') {
			return invalid
		}
	}
	if name[0] == '-' || name[0] == '.' || name[len(name)-1] == '-' || name[len(name)-1] == '.' {
		return invalid
	}
	return nil
}

func (s *Service) deleteBucket(c *call) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, has := s.buckets[c.bucket]
	if !has {
		return errNoSuchBucket(c.bucket)
	}
	if !b.isEmpty() {
		return errBucketNotEmpty(c.bucket)
	}
	delete(s.buckets, c.bucket)

	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) headBucket(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	c.w.Header().Set("x-amz-bucket-region", b.region)
	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) getBucketLocation(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	// us-east-1 is spelled as the empty constraint on the wire
	location := b.region
	if location == "us-east-1" {
		location = ""
	}
	writeXML(c.w, http.StatusOK, locationConstraint{Xmlns: xmlnsS3, Location: location})
	return nil
}
