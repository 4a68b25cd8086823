//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import (
	"sort"
	"strings"

	"github.com/fogfish/nimbus/internal/ddb/storage"
	"github.com/fogfish/nimbus/internal/ddb/value"
)

func (s *Service) createTable(in *createTableInput) (*createTableOutput, *Error) {
	if err := validateTableName(in.TableName); err != nil {
		return nil, err
	}
	schema, err := buildSchema(in)
	if err != nil {
		return nil, err
	}
	billing, capacity, err := validateBilling(in.BillingMode, in.ProvisionedThroughput)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, has := s.tables[in.TableName]; has {
		return nil, errTableExists(in.TableName)
	}

	t := &table{
		name:      in.TableName,
		arn:       s.tableArn(in.TableName),
		id:        s.newTableID(),
		created:   s.clock(),
		billing:   billing,
		capacity:  capacity,
		attrDefs:  in.AttributeDefinitions,
		keySchema: in.KeySchema,
		gsi:       in.GlobalSecondaryIndexes,
		lsi:       in.LocalSecondaryIndexes,
		stream:    in.StreamSpecification,
		tags:      in.Tags,
		store:     storage.New(schema),
	}
	if in.DeletionProtectionEnabled != nil {
		t.protected = *in.DeletionProtectionEnabled
	}
	s.tables[in.TableName] = t

	return &createTableOutput{TableDescription: t.describe(statusActive)}, nil
}

// buildSchema validates AttributeDefinitions against KeySchema and lowers
// them into the storage schema.
func buildSchema(in *createTableInput) (storage.Schema, *Error) {
	if len(in.AttributeDefinitions) == 0 {
		return storage.Schema{}, errValidation(msgAttrDefsMissing)
	}
	kinds := map[string]value.Kind{}
	for _, def := range in.AttributeDefinitions {
		switch def.AttributeType {
		case "S", "N", "B":
		default:
			return storage.Schema{}, errValidation(msgKeyAttrType, def.AttributeType)
		}
		if _, has := kinds[def.AttributeName]; has {
			return storage.Schema{}, errValidation(msgDuplicateAttrDef, def.AttributeName)
		}
		kinds[def.AttributeName] = value.Kind(def.AttributeType)
	}

	if len(in.KeySchema) == 0 {
		return storage.Schema{}, errValidation(msgMemberNull, "keySchema")
	}
	if len(in.KeySchema) > 2 {
		return storage.Schema{}, errValidation(msgKeySchemaSize)
	}
	if in.KeySchema[0].KeyType != "HASH" {
		return storage.Schema{}, errValidation(msgKeySchemaHash)
	}
	if len(in.KeySchema) == 2 && in.KeySchema[1].KeyType != "RANGE" {
		return storage.Schema{}, errValidation(msgKeySchemaRange)
	}

	used := map[string]bool{}
	var keyNames []string
	for _, elem := range in.KeySchema {
		keyNames = append(keyNames, elem.AttributeName)
		used[elem.AttributeName] = true
	}
	for _, ix := range in.GlobalSecondaryIndexes {
		for _, elem := range ix.KeySchema {
			keyNames = append(keyNames, elem.AttributeName)
			used[elem.AttributeName] = true
		}
	}
	for _, ix := range in.LocalSecondaryIndexes {
		for _, elem := range ix.KeySchema {
			keyNames = append(keyNames, elem.AttributeName)
			used[elem.AttributeName] = true
		}
	}

	var defNames []string
	for _, def := range in.AttributeDefinitions {
		defNames = append(defNames, def.AttributeName)
	}
	for _, name := range keyNames {
		if _, has := kinds[name]; !has {
			return storage.Schema{}, errValidation(msgKeyAttrUndefined,
				strings.Join(keyNames, ", "), strings.Join(defNames, ", "))
		}
	}
	for _, name := range defNames {
		if !used[name] {
			return storage.Schema{}, errValidation(msgKeyAttrCount)
		}
	}

	schema := storage.Schema{
		Partition: storage.KeyAttribute{
			Name: in.KeySchema[0].AttributeName,
			Kind: kinds[in.KeySchema[0].AttributeName],
		},
	}
	if len(in.KeySchema) == 2 {
		schema.Sort = &storage.KeyAttribute{
			Name: in.KeySchema[1].AttributeName,
			Kind: kinds[in.KeySchema[1].AttributeName],
		}
	}
	return schema, nil
}

func validateBilling(mode string, capacity *provisionedThroughput) (string, *provisionedThroughput, *Error) {
	switch mode {
	case "", billingProvisioned:
		if capacity == nil || capacity.ReadCapacityUnits < 1 || capacity.WriteCapacityUnits < 1 {
			return "", nil, errValidation(msgBillingProvisioned)
		}
		return billingProvisioned, capacity, nil
	case billingOnDemand:
		if capacity != nil {
			return "", nil, errValidation(msgBillingOnDemand)
		}
		return billingOnDemand, nil, nil
	}
	return "", nil, errValidation(msgBillingMode, mode)
}

func (s *Service) deleteTable(in *deleteTableInput) (*deleteTableOutput, *Error) {
	if err := validateTableName(in.TableName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, has := s.tables[in.TableName]
	if !has {
		return nil, errTableNotFound(in.TableName)
	}
	if t.protected {
		return nil, errValidation("Table '%s' can't be deleted while DeletionProtectionEnabled is set to True", in.TableName)
	}
	delete(s.tables, in.TableName)

	return &deleteTableOutput{TableDescription: t.describe(statusDeleting)}, nil
}

func (s *Service) describeTable(in *describeTableInput) (*describeTableOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	return &describeTableOutput{Table: t.describe(statusActive)}, nil
}

func (s *Service) listTables(in *listTablesInput) (*listTablesOutput, *Error) {
	limit := 100
	if in.Limit != nil {
		if *in.Limit < 1 || *in.Limit > 100 {
			return nil, errValidation("Value '%d' at 'limit' failed to satisfy constraint: Member must have value less than or equal to 100", *in.Limit)
		}
		limit = *in.Limit
	}

	s.mu.RLock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	out := &listTablesOutput{TableNames: []string{}}
	for _, name := range names {
		if in.ExclusiveStartTableName != "" && name <= in.ExclusiveStartTableName {
			continue
		}
		if len(out.TableNames) == limit {
			out.LastEvaluatedTableName = out.TableNames[limit-1]
			return out, nil
		}
		out.TableNames = append(out.TableNames, name)
	}
	return out, nil
}

// updateTable applies the mutable table settings and echoes the
// description, capacity bookkeeping is not emulated.
func (s *Service) updateTable(in *updateTableInput) (*updateTableOutput, *Error) {
	t, err := s.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if in.BillingMode != "" {
		switch in.BillingMode {
		case billingProvisioned:
			if in.ProvisionedThroughput == nil {
				return nil, errValidation(msgBillingProvisioned)
			}
		case billingOnDemand:
		default:
			return nil, errValidation(msgBillingMode, in.BillingMode)
		}
		t.billing = in.BillingMode
	}
	if in.ProvisionedThroughput != nil {
		if in.ProvisionedThroughput.ReadCapacityUnits < 1 || in.ProvisionedThroughput.WriteCapacityUnits < 1 {
			return nil, errValidation(msgBillingProvisioned)
		}
		t.capacity = in.ProvisionedThroughput
		if t.billing == "" {
			t.billing = billingProvisioned
		}
	}
	if in.StreamSpecification != nil {
		t.stream = in.StreamSpecification
	}
	if in.DeletionProtectionEnabled != nil {
		t.protected = *in.DeletionProtectionEnabled
	}
	if len(in.AttributeDefinitions) > 0 {
		t.attrDefs = in.AttributeDefinitions
	}

	return &updateTableOutput{TableDescription: t.describe(statusActive)}, nil
}
