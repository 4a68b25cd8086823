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
	"encoding/xml"
	"io"
	"net/http"
)

func (s *Service) getBucketVersioning(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	writeXML(c.w, http.StatusOK, versioningConfiguration{
		Xmlns:  xmlnsS3,
		Status: b.versioningStatus(),
	})
	return nil
}

func (s *Service) putBucketVersioning(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	cfg, err := decodeXML[versioningConfiguration](c.body)
	if err != nil {
		return err
	}
	if cfg.Status != versioningEnabled && cfg.Status != versioningSuspended {
		return &Error{
			Code:     "IllegalVersioningConfigurationException",
			Status:   http.StatusBadRequest,
			Message:  "The Versioning element must be specified",
			Resource: "/" + c.bucket,
		}
	}
	b.cfgMu.Lock()
	b.versioning = cfg.Status
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) getBucketTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.cfgMu.RLock()
	has, tags := b.hasTags, b.tagging
	b.cfgMu.RUnlock()
	if !has {
		return errNoSuchTagSet(c.bucket)
	}
	writeXML(c.w, http.StatusOK, tagging{Xmlns: xmlnsS3, TagSet: tagSet{Tags: tags}})
	return nil
}

func (s *Service) putBucketTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	cfg, err := decodeXML[tagging](c.body)
	if err != nil {
		return err
	}
	b.cfgMu.Lock()
	b.tagging = cfg.TagSet.Tags
	b.hasTags = true
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) deleteBucketTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.cfgMu.Lock()
	b.tagging = nil
	b.hasTags = false
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

// taggedVersion resolves the object version an object-tagging call
// addresses, by version id or the latest. Callers hold b.objMu in the
// mode their access needs.
func (s *Service) taggedVersion(c *call, b *bucket) (*version, *Error) {
	versionID := c.r.URL.Query().Get("versionId")

	var v *version
	if versionID != "" {
		v, _ = b.findVersion(c.key, versionID)
	} else {
		v = b.latest(c.key)
	}
	if v == nil {
		if versionID != "" {
			return nil, errNoSuchVersion(c.bucket, c.key)
		}
		return nil, errNoSuchKey(c.bucket, c.key)
	}
	if v.marker {
		return nil, errNoSuchKey(c.bucket, c.key)
	}
	return v, nil
}

func (s *Service) getObjectTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.objMu.RLock()
	v, err := s.taggedVersion(c, b)
	if err != nil {
		b.objMu.RUnlock()
		return err
	}
	id := v.id
	tags := append([]wireTag{}, v.obj.tags...)
	b.objMu.RUnlock()

	if id != nullVersion {
		c.w.Header().Set("x-amz-version-id", id)
	}
	writeXML(c.w, http.StatusOK, tagging{Xmlns: xmlnsS3, TagSet: tagSet{Tags: tags}})
	return nil
}

func (s *Service) putObjectTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	cfg, err := decodeXML[tagging](c.body)
	if err != nil {
		return err
	}
	b.objMu.Lock()
	v, err := s.taggedVersion(c, b)
	if err != nil {
		b.objMu.Unlock()
		return err
	}
	v.obj.tags = cfg.TagSet.Tags
	id := v.id
	b.objMu.Unlock()

	if id != nullVersion {
		c.w.Header().Set("x-amz-version-id", id)
	}
	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) deleteObjectTagging(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.objMu.Lock()
	v, err := s.taggedVersion(c, b)
	if err != nil {
		b.objMu.Unlock()
		return err
	}
	v.obj.tags = nil
	id := v.id
	b.objMu.Unlock()

	if id != nullVersion {
		c.w.Header().Set("x-amz-version-id", id)
	}
	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) getBucketCors(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.cfgMu.RLock()
	cors := b.cors
	b.cfgMu.RUnlock()
	if cors == nil {
		return errNoSuchConfig("NoSuchCORSConfiguration", c.bucket)
	}
	writeXML(c.w, http.StatusOK, *cors)
	return nil
}

func (s *Service) putBucketCors(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	cfg, err := decodeXML[corsConfiguration](c.body)
	if err != nil {
		return err
	}
	cfg.Xmlns = xmlnsS3
	b.cfgMu.Lock()
	b.cors = cfg
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) deleteBucketCors(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.cfgMu.Lock()
	b.cors = nil
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusNoContent)
	return nil
}

// defaultACL is the canned private policy: the owner holds FULL_CONTROL.
func (s *Service) defaultACL() *accessControlPolicy {
	owner := s.owner()
	return &accessControlPolicy{
		Xmlns: xmlnsS3,
		Owner: owner,
		Grants: []grant{{
			Grantee: grantee{
				XmlnsXsi:    xmlnsXsi,
				XsiType:     "CanonicalUser",
				ID:          owner.ID,
				DisplayName: owner.DisplayName,
			},
			Permission: "FULL_CONTROL",
		}},
	}
}

func (s *Service) getBucketAcl(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.cfgMu.RLock()
	acl := b.acl
	b.cfgMu.RUnlock()
	if acl == nil {
		acl = s.defaultACL()
	}
	writeXML(c.w, http.StatusOK, *acl)
	return nil
}

func (s *Service) putBucketAcl(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	if len(c.body) > 0 {
		cfg, err := decodeXML[accessControlPolicy](c.body)
		if err != nil {
			return err
		}
		cfg.Xmlns = xmlnsS3
		b.cfgMu.Lock()
		b.acl = cfg
		b.cfgMu.Unlock()
	}
	c.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Service) getObjectAcl(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	b.objMu.RLock()
	v, err := s.taggedVersion(c, b)
	if err != nil {
		b.objMu.RUnlock()
		return err
	}
	id := v.id
	acl := v.obj.acl
	b.objMu.RUnlock()

	if acl == nil {
		acl = s.defaultACL()
	}
	if id != nullVersion {
		c.w.Header().Set("x-amz-version-id", id)
	}
	writeXML(c.w, http.StatusOK, *acl)
	return nil
}

func (s *Service) putObjectAcl(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	var cfg *accessControlPolicy
	if len(c.body) > 0 {
		cfg, err = decodeXML[accessControlPolicy](c.body)
		if err != nil {
			return err
		}
		cfg.Xmlns = xmlnsS3
	}

	b.objMu.Lock()
	v, err := s.taggedVersion(c, b)
	if err != nil {
		b.objMu.Unlock()
		return err
	}
	if cfg != nil {
		v.obj.acl = cfg
	}
	b.objMu.Unlock()

	c.w.WriteHeader(http.StatusOK)
	return nil
}

// Opaque configuration slots store the request document verbatim and echo
// it back, validated only as XML or JSON shape by the SDK itself.

func (s *Service) getBucketConfig(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	slot := rawSlotOf(c.r)

	b.cfgMu.RLock()
	doc, has := b.configs[slot.query]
	b.cfgMu.RUnlock()

	if !has {
		if slot.absentCode != "" {
			return errNoSuchConfig(slot.absentCode, c.bucket)
		}
		doc = []byte(slot.defaultDoc)
	}
	if slot.json {
		c.w.Header().Set("Content-Type", "application/json")
		c.w.WriteHeader(http.StatusOK)
		c.w.Write(doc)
		return nil
	}
	c.w.Header().Set("Content-Type", "application/xml")
	c.w.WriteHeader(http.StatusOK)
	if !bytes.HasPrefix(doc, []byte("<?xml")) {
		io.WriteString(c.w, xml.Header)
	}
	c.w.Write(doc)
	return nil
}

func (s *Service) putBucketConfig(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	slot := rawSlotOf(c.r)
	if !slot.json {
		if _, err := decodeXML[struct{}](c.body); err != nil {
			return err
		}
	}

	b.cfgMu.Lock()
	b.configs[slot.query] = c.body
	b.cfgMu.Unlock()

	if slot.json {
		c.w.WriteHeader(http.StatusNoContent)
	} else {
		c.w.WriteHeader(http.StatusOK)
	}
	return nil
}

func (s *Service) deleteBucketConfig(c *call) *Error {
	b, err := s.lookup(c.bucket)
	if err != nil {
		return err
	}
	slot := rawSlotOf(c.r)

	b.cfgMu.Lock()
	delete(b.configs, slot.query)
	b.cfgMu.Unlock()

	c.w.WriteHeader(http.StatusNoContent)
	return nil
}
