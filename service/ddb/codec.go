//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

import "github.com/fogfish/nimbus/internal/ddb/value"

// Wire types of the JSON 1.0 protocol. Attribute values decode through
// value.Item so tagged objects round-trip byte-compatible with the SDKs.

type attributeDefinition struct {
	AttributeName string `json:"AttributeName"`
	AttributeType string `json:"AttributeType"`
}

type keySchemaElement struct {
	AttributeName string `json:"AttributeName"`
	KeyType       string `json:"KeyType"`
}

type provisionedThroughput struct {
	ReadCapacityUnits  int64 `json:"ReadCapacityUnits"`
	WriteCapacityUnits int64 `json:"WriteCapacityUnits"`
}

type provisionedThroughputDescription struct {
	ReadCapacityUnits      int64 `json:"ReadCapacityUnits"`
	WriteCapacityUnits     int64 `json:"WriteCapacityUnits"`
	NumberOfDecreasesToday int64 `json:"NumberOfDecreasesToday"`
}

type billingModeSummary struct {
	BillingMode                       string  `json:"BillingMode"`
	LastUpdateToPayPerRequestDateTime float64 `json:"LastUpdateToPayPerRequestDateTime,omitempty"`
}

type projectionSchema struct {
	ProjectionType   string   `json:"ProjectionType,omitempty"`
	NonKeyAttributes []string `json:"NonKeyAttributes,omitempty"`
}

type globalSecondaryIndex struct {
	IndexName             string                 `json:"IndexName"`
	KeySchema             []keySchemaElement     `json:"KeySchema"`
	Projection            projectionSchema       `json:"Projection"`
	ProvisionedThroughput *provisionedThroughput `json:"ProvisionedThroughput,omitempty"`
}

type localSecondaryIndex struct {
	IndexName  string             `json:"IndexName"`
	KeySchema  []keySchemaElement `json:"KeySchema"`
	Projection projectionSchema   `json:"Projection"`
}

type secondaryIndexDescription struct {
	IndexName      string             `json:"IndexName"`
	KeySchema      []keySchemaElement `json:"KeySchema"`
	Projection     projectionSchema   `json:"Projection"`
	IndexStatus    string             `json:"IndexStatus,omitempty"`
	IndexSizeBytes int64              `json:"IndexSizeBytes"`
	ItemCount      int64              `json:"ItemCount"`
	IndexArn       string             `json:"IndexArn,omitempty"`
}

type streamSpecification struct {
	StreamEnabled  *bool  `json:"StreamEnabled,omitempty"`
	StreamViewType string `json:"StreamViewType,omitempty"`
}

type resourceTag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type tableDescription struct {
	TableName                 string                            `json:"TableName"`
	TableStatus               string                            `json:"TableStatus"`
	TableArn                  string                            `json:"TableArn"`
	TableId                   string                            `json:"TableId"`
	CreationDateTime          float64                           `json:"CreationDateTime"`
	AttributeDefinitions      []attributeDefinition             `json:"AttributeDefinitions"`
	KeySchema                 []keySchemaElement                `json:"KeySchema"`
	ItemCount                 int64                             `json:"ItemCount"`
	TableSizeBytes            int64                             `json:"TableSizeBytes"`
	BillingModeSummary        *billingModeSummary               `json:"BillingModeSummary,omitempty"`
	ProvisionedThroughput     *provisionedThroughputDescription `json:"ProvisionedThroughput,omitempty"`
	GlobalSecondaryIndexes    []secondaryIndexDescription       `json:"GlobalSecondaryIndexes,omitempty"`
	LocalSecondaryIndexes     []secondaryIndexDescription       `json:"LocalSecondaryIndexes,omitempty"`
	StreamSpecification       *streamSpecification              `json:"StreamSpecification,omitempty"`
	DeletionProtectionEnabled bool                              `json:"DeletionProtectionEnabled"`
}

type consumedCapacity struct {
	TableName     string  `json:"TableName"`
	CapacityUnits float64 `json:"CapacityUnits"`
}

type expectedAttributeValue struct {
	Value              *value.Value  `json:"Value,omitempty"`
	Exists             *bool         `json:"Exists,omitempty"`
	ComparisonOperator string        `json:"ComparisonOperator,omitempty"`
	AttributeValueList []value.Value `json:"AttributeValueList,omitempty"`
}

type legacyCondition struct {
	ComparisonOperator string        `json:"ComparisonOperator"`
	AttributeValueList []value.Value `json:"AttributeValueList,omitempty"`
}

type attributeValueUpdate struct {
	Value  *value.Value `json:"Value,omitempty"`
	Action string       `json:"Action,omitempty"`
}

type putItemInput struct {
	TableName                           string                            `json:"TableName"`
	Item                                value.Item                        `json:"Item"`
	ConditionExpression                 string                            `json:"ConditionExpression,omitempty"`
	Expected                            map[string]expectedAttributeValue `json:"Expected,omitempty"`
	ConditionalOperator                 string                            `json:"ConditionalOperator,omitempty"`
	ExpressionAttributeNames            map[string]string                 `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues           value.Item                        `json:"ExpressionAttributeValues,omitempty"`
	ReturnValues                        string                            `json:"ReturnValues,omitempty"`
	ReturnConsumedCapacity              string                            `json:"ReturnConsumedCapacity,omitempty"`
	ReturnItemCollectionMetrics         string                            `json:"ReturnItemCollectionMetrics,omitempty"`
	ReturnValuesOnConditionCheckFailure string                            `json:"ReturnValuesOnConditionCheckFailure,omitempty"`
}

type putItemOutput struct {
	Attributes       value.Item        `json:"Attributes,omitempty"`
	ConsumedCapacity *consumedCapacity `json:"ConsumedCapacity,omitempty"`
}

type getItemInput struct {
	TableName                string            `json:"TableName"`
	Key                      value.Item        `json:"Key"`
	ProjectionExpression     string            `json:"ProjectionExpression,omitempty"`
	AttributesToGet          []string          `json:"AttributesToGet,omitempty"`
	ExpressionAttributeNames map[string]string `json:"ExpressionAttributeNames,omitempty"`
	ConsistentRead           *bool             `json:"ConsistentRead,omitempty"`
	ReturnConsumedCapacity   string            `json:"ReturnConsumedCapacity,omitempty"`
}

type getItemOutput struct {
	Item             value.Item        `json:"Item,omitempty"`
	ConsumedCapacity *consumedCapacity `json:"ConsumedCapacity,omitempty"`
}

type deleteItemInput struct {
	TableName                           string                            `json:"TableName"`
	Key                                 value.Item                        `json:"Key"`
	ConditionExpression                 string                            `json:"ConditionExpression,omitempty"`
	Expected                            map[string]expectedAttributeValue `json:"Expected,omitempty"`
	ConditionalOperator                 string                            `json:"ConditionalOperator,omitempty"`
	ExpressionAttributeNames            map[string]string                 `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues           value.Item                        `json:"ExpressionAttributeValues,omitempty"`
	ReturnValues                        string                            `json:"ReturnValues,omitempty"`
	ReturnConsumedCapacity              string                            `json:"ReturnConsumedCapacity,omitempty"`
	ReturnItemCollectionMetrics         string                            `json:"ReturnItemCollectionMetrics,omitempty"`
	ReturnValuesOnConditionCheckFailure string                            `json:"ReturnValuesOnConditionCheckFailure,omitempty"`
}

type deleteItemOutput struct {
	Attributes       value.Item        `json:"Attributes,omitempty"`
	ConsumedCapacity *consumedCapacity `json:"ConsumedCapacity,omitempty"`
}

type updateItemInput struct {
	TableName                           string                            `json:"TableName"`
	Key                                 value.Item                        `json:"Key"`
	UpdateExpression                    string                            `json:"UpdateExpression,omitempty"`
	AttributeUpdates                    map[string]attributeValueUpdate   `json:"AttributeUpdates,omitempty"`
	ConditionExpression                 string                            `json:"ConditionExpression,omitempty"`
	Expected                            map[string]expectedAttributeValue `json:"Expected,omitempty"`
	ConditionalOperator                 string                            `json:"ConditionalOperator,omitempty"`
	ExpressionAttributeNames            map[string]string                 `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues           value.Item                        `json:"ExpressionAttributeValues,omitempty"`
	ReturnValues                        string                            `json:"ReturnValues,omitempty"`
	ReturnConsumedCapacity              string                            `json:"ReturnConsumedCapacity,omitempty"`
	ReturnItemCollectionMetrics         string                            `json:"ReturnItemCollectionMetrics,omitempty"`
	ReturnValuesOnConditionCheckFailure string                            `json:"ReturnValuesOnConditionCheckFailure,omitempty"`
}

type updateItemOutput struct {
	Attributes       value.Item        `json:"Attributes,omitempty"`
	ConsumedCapacity *consumedCapacity `json:"ConsumedCapacity,omitempty"`
}

type queryInput struct {
	TableName                 string                     `json:"TableName"`
	IndexName                 string                     `json:"IndexName,omitempty"`
	KeyConditionExpression    string                     `json:"KeyConditionExpression,omitempty"`
	KeyConditions             map[string]legacyCondition `json:"KeyConditions,omitempty"`
	FilterExpression          string                     `json:"FilterExpression,omitempty"`
	QueryFilter               map[string]legacyCondition `json:"QueryFilter,omitempty"`
	ProjectionExpression      string                     `json:"ProjectionExpression,omitempty"`
	AttributesToGet           []string                   `json:"AttributesToGet,omitempty"`
	Select                    string                     `json:"Select,omitempty"`
	Limit                     *int                       `json:"Limit,omitempty"`
	ConsistentRead            *bool                      `json:"ConsistentRead,omitempty"`
	ScanIndexForward          *bool                      `json:"ScanIndexForward,omitempty"`
	ExclusiveStartKey         value.Item                 `json:"ExclusiveStartKey,omitempty"`
	ConditionalOperator       string                     `json:"ConditionalOperator,omitempty"`
	ExpressionAttributeNames  map[string]string          `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues value.Item                 `json:"ExpressionAttributeValues,omitempty"`
	ReturnConsumedCapacity    string                     `json:"ReturnConsumedCapacity,omitempty"`
}

type queryOutput struct {
	Items            []value.Item      `json:"Items,omitempty"`
	Count            int               `json:"Count"`
	ScannedCount     int               `json:"ScannedCount"`
	LastEvaluatedKey value.Item        `json:"LastEvaluatedKey,omitempty"`
	ConsumedCapacity *consumedCapacity `json:"ConsumedCapacity,omitempty"`
}

type scanInput struct {
	TableName                 string                     `json:"TableName"`
	IndexName                 string                     `json:"IndexName,omitempty"`
	FilterExpression          string                     `json:"FilterExpression,omitempty"`
	ScanFilter                map[string]legacyCondition `json:"ScanFilter,omitempty"`
	ProjectionExpression      string                     `json:"ProjectionExpression,omitempty"`
	AttributesToGet           []string                   `json:"AttributesToGet,omitempty"`
	Select                    string                     `json:"Select,omitempty"`
	Limit                     *int                       `json:"Limit,omitempty"`
	ConsistentRead            *bool                      `json:"ConsistentRead,omitempty"`
	ExclusiveStartKey         value.Item                 `json:"ExclusiveStartKey,omitempty"`
	Segment                   *int                       `json:"Segment,omitempty"`
	TotalSegments             *int                       `json:"TotalSegments,omitempty"`
	ConditionalOperator       string                     `json:"ConditionalOperator,omitempty"`
	ExpressionAttributeNames  map[string]string          `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues value.Item                 `json:"ExpressionAttributeValues,omitempty"`
	ReturnConsumedCapacity    string                     `json:"ReturnConsumedCapacity,omitempty"`
}

type keysAndAttributes struct {
	Keys                     []value.Item      `json:"Keys"`
	ProjectionExpression     string            `json:"ProjectionExpression,omitempty"`
	AttributesToGet          []string          `json:"AttributesToGet,omitempty"`
	ExpressionAttributeNames map[string]string `json:"ExpressionAttributeNames,omitempty"`
	ConsistentRead           *bool             `json:"ConsistentRead,omitempty"`
}

type batchGetItemInput struct {
	RequestItems           map[string]keysAndAttributes `json:"RequestItems"`
	ReturnConsumedCapacity string                       `json:"ReturnConsumedCapacity,omitempty"`
}

type batchGetItemOutput struct {
	Responses        map[string][]value.Item      `json:"Responses"`
	UnprocessedKeys  map[string]keysAndAttributes `json:"UnprocessedKeys"`
	ConsumedCapacity []consumedCapacity           `json:"ConsumedCapacity,omitempty"`
}

type putRequest struct {
	Item value.Item `json:"Item"`
}

type deleteRequest struct {
	Key value.Item `json:"Key"`
}

type writeRequest struct {
	PutRequest    *putRequest    `json:"PutRequest,omitempty"`
	DeleteRequest *deleteRequest `json:"DeleteRequest,omitempty"`
}

type batchWriteItemInput struct {
	RequestItems                map[string][]writeRequest `json:"RequestItems"`
	ReturnConsumedCapacity      string                    `json:"ReturnConsumedCapacity,omitempty"`
	ReturnItemCollectionMetrics string                    `json:"ReturnItemCollectionMetrics,omitempty"`
}

type batchWriteItemOutput struct {
	UnprocessedItems map[string][]writeRequest `json:"UnprocessedItems"`
	ConsumedCapacity []consumedCapacity        `json:"ConsumedCapacity,omitempty"`
}

type createTableInput struct {
	TableName                 string                 `json:"TableName"`
	AttributeDefinitions      []attributeDefinition  `json:"AttributeDefinitions"`
	KeySchema                 []keySchemaElement     `json:"KeySchema"`
	BillingMode               string                 `json:"BillingMode,omitempty"`
	ProvisionedThroughput     *provisionedThroughput `json:"ProvisionedThroughput,omitempty"`
	GlobalSecondaryIndexes    []globalSecondaryIndex `json:"GlobalSecondaryIndexes,omitempty"`
	LocalSecondaryIndexes     []localSecondaryIndex  `json:"LocalSecondaryIndexes,omitempty"`
	StreamSpecification       *streamSpecification   `json:"StreamSpecification,omitempty"`
	Tags                      []resourceTag          `json:"Tags,omitempty"`
	TableClass                string                 `json:"TableClass,omitempty"`
	DeletionProtectionEnabled *bool                  `json:"DeletionProtectionEnabled,omitempty"`
}

type createTableOutput struct {
	TableDescription tableDescription `json:"TableDescription"`
}

type deleteTableInput struct {
	TableName string `json:"TableName"`
}

type deleteTableOutput struct {
	TableDescription tableDescription `json:"TableDescription"`
}

type describeTableInput struct {
	TableName string `json:"TableName"`
}

type describeTableOutput struct {
	Table tableDescription `json:"Table"`
}

type listTablesInput struct {
	ExclusiveStartTableName string `json:"ExclusiveStartTableName,omitempty"`
	Limit                   *int   `json:"Limit,omitempty"`
}

type listTablesOutput struct {
	TableNames             []string `json:"TableNames"`
	LastEvaluatedTableName string   `json:"LastEvaluatedTableName,omitempty"`
}

type updateTableInput struct {
	TableName                 string                 `json:"TableName"`
	AttributeDefinitions      []attributeDefinition  `json:"AttributeDefinitions,omitempty"`
	BillingMode               string                 `json:"BillingMode,omitempty"`
	ProvisionedThroughput     *provisionedThroughput `json:"ProvisionedThroughput,omitempty"`
	StreamSpecification       *streamSpecification   `json:"StreamSpecification,omitempty"`
	DeletionProtectionEnabled *bool                  `json:"DeletionProtectionEnabled,omitempty"`
}

type updateTableOutput struct {
	TableDescription tableDescription `json:"TableDescription"`
}
