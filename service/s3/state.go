//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	versioningEnabled   = "Enabled"
	versioningSuspended = "Suspended"

	// nullVersion is the version id of writes into an unversioned or
	// suspended bucket.
	nullVersion = "null"
)

// bucket owns a versioned key store, the configuration slots and the
// in-progress multipart uploads. The object store serializes through
// objMu across read-modify-write steps; configuration has its own lock
// so reading, e.g., versioning status never blocks object writes.
type bucket struct {
	name    string
	created time.Time
	region  string

	objMu   sync.RWMutex
	objects map[string]*keyVersions

	cfgMu      sync.RWMutex
	versioning string
	tagging    []wireTag
	hasTags    bool
	cors       *corsConfiguration
	acl        *accessControlPolicy
	configs    map[string][]byte

	upMu    sync.Mutex
	uploads map[string]*upload
}

func newBucket(name, region string, created time.Time) *bucket {
	return &bucket{
		name:    name,
		created: created,
		region:  region,
		objects: map[string]*keyVersions{},
		configs: map[string][]byte{},
		uploads: map[string]*upload{},
	}
}

// keyVersions is the ordered version list of one key, oldest first. The
// last entry is the latest.
type keyVersions struct {
	versions []*version
}

// version is one entry of the versioned key store: an object or a delete
// marker tombstone.
type version struct {
	id       string
	marker   bool
	obj      *object
	modified time.Time
}

func newVersionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// versioningStatus reads the versioning slot under the config lock.
func (b *bucket) versioningStatus() string {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.versioning
}

// latest returns the newest version of a key, nil when the key has none.
// Caller holds objMu.
func (b *bucket) latest(key string) *version {
	kv, has := b.objects[key]
	if !has || len(kv.versions) == 0 {
		return nil
	}
	return kv.versions[len(kv.versions)-1]
}

// findVersion locates a specific version of a key. Caller holds objMu.
func (b *bucket) findVersion(key, id string) (*version, int) {
	kv, has := b.objects[key]
	if !has {
		return nil, -1
	}
	for i, v := range kv.versions {
		if v.id == id {
			return v, i
		}
	}
	return nil, -1
}

// putVersion appends a version as the new latest. When the bucket is not
// in Enabled versioning the write collapses onto the null version.
// Caller holds objMu.
func (b *bucket) putVersion(key string, v *version, enabled bool) {
	kv, has := b.objects[key]
	if !has {
		kv = &keyVersions{}
		b.objects[key] = kv
	}
	if !enabled {
		v.id = nullVersion
		b.dropVersion(key, nullVersion)
		kv = b.objects[key]
		if kv == nil {
			kv = &keyVersions{}
			b.objects[key] = kv
		}
	}
	kv.versions = append(kv.versions, v)
}

// dropVersion removes one version of a key, pruning empty entries.
// Caller holds objMu.
func (b *bucket) dropVersion(key, id string) *version {
	kv, has := b.objects[key]
	if !has {
		return nil
	}
	for i, v := range kv.versions {
		if v.id == id {
			kv.versions = append(kv.versions[:i], kv.versions[i+1:]...)
			if len(kv.versions) == 0 {
				delete(b.objects, key)
			}
			return v
		}
	}
	return nil
}

// dropKey removes every version of a key. Caller holds objMu.
func (b *bucket) dropKey(key string) {
	delete(b.objects, key)
}

// sortedKeys lists keys in lexicographic order. Caller holds objMu.
func (b *bucket) sortedKeys() []string {
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// isEmpty reports a bucket with no object versions and no in-progress
// uploads, the precondition of DeleteBucket.
func (b *bucket) isEmpty() bool {
	b.objMu.RLock()
	empty := len(b.objects) == 0
	b.objMu.RUnlock()
	if !empty {
		return false
	}
	b.upMu.Lock()
	defer b.upMu.Unlock()
	return len(b.uploads) == 0
}
