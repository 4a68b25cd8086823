//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

// Package ddb emulates the DynamoDB service: the JSON 1.0 wire protocol,
// the expression language and an in-memory table store. Unmodified AWS
// SDK clients pointed at the HTTP handler behave as against the real
// service, single-table operations only.
package ddb

import (
	"sync"
	"time"

	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

// Service is one emulated DynamoDB endpoint: a registry of named tables.
type Service struct {
	region  string
	account string
	clock   func() time.Time

	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	// writeMu serializes conditional read-modify-write sequences, the
	// store's own lock only covers individual operations.
	writeMu sync.Mutex

	name      string
	arn       string
	id        string
	created   time.Time
	billing   string
	capacity  *provisionedThroughput
	attrDefs  []attributeDefinition
	keySchema []keySchemaElement
	gsi       []globalSecondaryIndex
	lsi       []localSecondaryIndex
	stream    *streamSpecification
	tags      []resourceTag
	protected bool
	store     *storage.Store
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
	// Configure the region spliced into table ARNs
	WithRegion = opts.FMap(optsRegion)

	// Configure the account id spliced into table ARNs
	WithAccount = opts.FMap(optsAccount)

	// Configure the time source, used by table descriptions
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

// New creates instance of the DynamoDB emulator
func New(opt ...Option) (*Service, error) {
	c := optsDefault()
	if err := opts.Apply(&c, opt); err != nil {
		return nil, err
	}
	return &Service{
		region:  c.region,
		account: c.account,
		clock:   c.clock,
		tables:  map[string]*table{},
	}, nil
}

func (s *Service) lookup(name string) (*table, *Error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, has := s.tables[name]
	if !has {
		return nil, errTableNotFound(name)
	}
	return t, nil
}

func (s *Service) newTableID() string { return uuid.New().String() }

func (s *Service) tableArn(name string) string {
	return "arn:aws:dynamodb:" + s.region + ":" + s.account + ":table/" + name
}

// describe renders the wire description of a table in the given status.
func (t *table) describe(status string) tableDescription {
	desc := tableDescription{
		TableName:                 t.name,
		TableStatus:               status,
		TableArn:                  t.arn,
		TableId:                   t.id,
		CreationDateTime:          float64(t.created.UnixMilli()) / 1e3,
		AttributeDefinitions:      t.attrDefs,
		KeySchema:                 t.keySchema,
		ItemCount:                 t.store.Count(),
		TableSizeBytes:            t.store.Size(),
		StreamSpecification:       t.stream,
		DeletionProtectionEnabled: t.protected,
	}
	if t.billing == billingOnDemand {
		desc.BillingModeSummary = &billingModeSummary{BillingMode: billingOnDemand}
		desc.ProvisionedThroughput = &provisionedThroughputDescription{}
	} else {
		desc.BillingModeSummary = &billingModeSummary{BillingMode: billingProvisioned}
		desc.ProvisionedThroughput = &provisionedThroughputDescription{
			ReadCapacityUnits:  t.capacity.ReadCapacityUnits,
			WriteCapacityUnits: t.capacity.WriteCapacityUnits,
		}
	}
	for _, ix := range t.gsi {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, secondaryIndexDescription{
			IndexName:   ix.IndexName,
			KeySchema:   ix.KeySchema,
			Projection:  ix.Projection,
			IndexStatus: statusActive,
			IndexArn:    t.arn + "/index/" + ix.IndexName,
		})
	}
	for _, ix := range t.lsi {
		desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, secondaryIndexDescription{
			IndexName:  ix.IndexName,
			KeySchema:  ix.KeySchema,
			Projection: ix.Projection,
			IndexArn:   t.arn + "/index/" + ix.IndexName,
		})
	}
	return desc
}

const (
	billingProvisioned = "PROVISIONED"
	billingOnDemand    = "PAY_PER_REQUEST"
	statusActive       = "ACTIVE"
	statusDeleting     = "DELETING"
)

// capacityFor renders the flat-rate consumed capacity stub when the
// request asked for it.
func capacityFor(mode, tableName string) *consumedCapacity {
	if mode == "TOTAL" || mode == "INDEXES" {
		return &consumedCapacity{TableName: tableName, CapacityUnits: 1}
	}
	return nil
}
