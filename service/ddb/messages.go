//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb

// Canonical validation messages, kept in one place so operations never
// drift in spelling. Placeholders are filled by errValidation.
const (
	msgEmptyExpression      = "Invalid %s: The expression can not be empty;"
	msgExpressionConflict   = "Can not use both expression and non-expression parameters in the same request: Non-expression parameters: {%s} Expression parameters: {%s}"
	msgUnusedNames          = "Value provided in ExpressionAttributeNames unused in expressions: keys: {%s}"
	msgUnusedValues         = "Value provided in ExpressionAttributeValues unused in expressions: keys: {%s}"
	msgEmptyNames           = "ExpressionAttributeNames can only be specified when using expressions"
	msgEmptyValues          = "ExpressionAttributeValues can only be specified when using expressions"
	msgConditionalOperator  = "ConditionalOperator can only be used when Filter or Expected has two or more elements"
	msgKeySchemaMismatch    = "The provided key element does not match the schema"
	msgEmptyKeyValue        = "One or more parameter values are not valid. The AttributeValue for a key attribute cannot contain an empty string value. Key: %s"
	msgReturnValues         = "Return values set to invalid value"
	msgUpdateKeyAttribute   = "One or more parameter values were invalid: Cannot update attribute (%s). This attribute is part of the key"
	msgPathOverlap          = "Two document paths overlap with each other; must remove or rewrite one of these paths; path one: %s, path two: %s"
	msgPathConflict         = "Two document paths conflict with each other; must remove or rewrite one of these paths; path one: %s, path two: %s"
	msgEmptySet             = "One or more parameter values were invalid: An %s set may not be empty"
	msgItemTooLarge         = "Item size has exceeded the maximum allowed size"
	msgFilterOnKey          = "Filter Expression can only contain non-primary key attributes: Primary key attribute: %s"
	msgQueryCondMissedKey   = "Query condition missed key schema element: %s"
	msgQueryCondUnsupported = "Query key condition not supported"
	msgCondParamType        = "One or more parameter values were invalid: Condition parameter type does not match schema type"
	msgSelectProjection     = "Cannot specify the AttributesToGet when choosing to get ALL_ITEM_ATTRIBUTES"
	msgSelectCount          = "Cannot specify the AttributesToGet when choosing to get only the Count"
	msgSelectSpecific       = "Must specify the AttributesToGet when choosing to get SPECIFIC_ATTRIBUTES"
	msgLimitPositive        = "Limit must be greater than or equal to 1"
	msgBatchGetTooMany      = "Too many items requested for the BatchGetItem call"
	msgBatchWriteTooMany    = "Too many items requested for the BatchWriteItem call"
	msgBatchDuplicateKeys   = "Provided list of item keys contains duplicates"
	msgBatchWriteRequest    = "One or more parameter values were invalid: Supplied WriteRequest has %d request types, must have exactly one"
	msgScanSegmentRange     = "Value '%d' at 'segment' failed to satisfy constraint: Member must have value less than or equal to %d"
	msgScanTotalRange       = "Value '%d' at 'totalSegments' failed to satisfy constraint: Member must have value between 1 and 1000000"
	msgScanSegmentRequired  = "The Segment parameter is required but was not present in the request when parameter TotalSegments is present"
	msgScanTotalRequired    = "The TotalSegments parameter is required but was not present in the request when Segment parameter is present"
	msgScanStartKeySegment  = "The provided starting key is invalid: Invalid ExclusiveStartKey. Please use ExclusiveStartKey with correct Segment"
	msgStartKeyInvalid      = "The provided starting key is invalid"
	msgTableNameLength      = "TableName must be at least 3 characters long and at most 255 characters long"
	msgTableNamePattern     = "Value '%s' at 'tableName' failed to satisfy constraint: Member must satisfy regular expression pattern: [a-zA-Z0-9_.-]+"
	msgAttrDefsMissing      = "One or more parameter values were invalid: AttributeDefinitions must not be empty"
	msgDuplicateAttrDef     = "Cannot have two attributes with the same name: %s"
	msgKeySchemaHash        = "Invalid KeySchema: The first KeySchemaElement is not a HASH key type"
	msgKeySchemaSize        = "Key Schema too big.  Key Schema must at most consist of the hash and range key of a table"
	msgKeySchemaRange       = "Invalid KeySchema: The second KeySchemaElement is not a RANGE key type"
	msgKeyAttrUndefined     = "One or more parameter values were invalid: Some index key attributes are not defined in AttributeDefinitions. Keys: [%s], AttributeDefinitions: [%s]"
	msgKeyAttrCount         = "One or more parameter values were invalid: Number of attributes in KeySchema does not exactly match number of attributes defined in AttributeDefinitions"
	msgKeyAttrType          = "Invalid attribute type for the key schema: %s; must be one of: [B, N, S]"
	msgBillingProvisioned   = "One or more parameter values were invalid: ReadCapacityUnits and WriteCapacityUnits must both be specified when BillingMode is PROVISIONED"
	msgBillingOnDemand      = "One or more parameter values were invalid: Neither ReadCapacityUnits nor WriteCapacityUnits can be specified when BillingMode is PAY_PER_REQUEST"
	msgBillingMode          = "Value '%s' at 'billingMode' failed to satisfy constraint: Member must satisfy enum value set: [PROVISIONED, PAY_PER_REQUEST]"
	msgAttributesRequired   = "One or more parameter values were invalid: Missing the key %s in the item"
	msgAddWrongType         = "Type mismatch for attribute to update"
	msgMemberNull           = "Value null at '%s' failed to satisfy constraint: Member must not be null"
	msgKeyCondRequired      = "Either the KeyConditions or KeyConditionExpression parameter must be specified in the request."
	msgOneCondPerKey        = "KeyConditionExpressions must only contain one condition per key"
	msgNoIndex              = "The table does not have the specified index: %s"
)
