//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package ddb_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/fogfish/nimbus/service/ddb"
)

type song struct {
	Artist string `dynamodbav:"artist"`
	Title  string `dynamodbav:"title"`
	Rating int    `dynamodbav:"rating"`
}

// sdkClient points an unmodified AWS SDK client at the emulator.
func sdkClient(t *testing.T) *dynamodb.Client {
	t.Helper()
	svc, err := ddb.New()
	require.NoError(t, err)
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		),
	)
	require.NoError(t, err)

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
	})
}

func sdkCreateSongs(t *testing.T, api *dynamodb.Client) {
	t.Helper()
	_, err := api.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: aws.String("songs"),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("artist"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("title"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("artist"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("title"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	require.NoError(t, err)
}

func TestSDKPutGet(t *testing.T) {
	api := sdkClient(t)
	sdkCreateSongs(t, api)

	item, err := attributevalue.MarshalMap(song{Artist: "adele", Title: "hello", Rating: 5})
	require.NoError(t, err)

	_, err = api.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String("songs"),
		Item:      item,
	})
	require.NoError(t, err)

	got, err := api.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String("songs"),
		Key: map[string]types.AttributeValue{
			"artist": &types.AttributeValueMemberS{Value: "adele"},
			"title":  &types.AttributeValueMemberS{Value: "hello"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Item)

	var loaded song
	require.NoError(t, attributevalue.UnmarshalMap(got.Item, &loaded))
	require.Equal(t, song{Artist: "adele", Title: "hello", Rating: 5}, loaded)
}

func TestSDKConditionalCheckFailed(t *testing.T) {
	api := sdkClient(t)
	sdkCreateSongs(t, api)

	item, err := attributevalue.MarshalMap(song{Artist: "adele", Title: "hello", Rating: 5})
	require.NoError(t, err)
	_, err = api.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String("songs"),
		Item:      item,
	})
	require.NoError(t, err)

	_, err = api.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName:           aws.String("songs"),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(artist)"),
	})
	require.Error(t, err)

	var conditional *types.ConditionalCheckFailedException
	require.True(t, errors.As(err, &conditional))
}

func TestSDKUpdateQuery(t *testing.T) {
	api := sdkClient(t)
	sdkCreateSongs(t, api)

	for _, s := range []song{
		{Artist: "adele", Title: "hello", Rating: 5},
		{Artist: "adele", Title: "skyfall", Rating: 4},
		{Artist: "sting", Title: "shape", Rating: 3},
	} {
		item, err := attributevalue.MarshalMap(s)
		require.NoError(t, err)
		_, err = api.PutItem(context.Background(), &dynamodb.PutItemInput{
			TableName: aws.String("songs"),
			Item:      item,
		})
		require.NoError(t, err)
	}

	updated, err := api.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName: aws.String("songs"),
		Key: map[string]types.AttributeValue{
			"artist": &types.AttributeValueMemberS{Value: "adele"},
			"title":  &types.AttributeValueMemberS{Value: "hello"},
		},
		UpdateExpression: aws.String("SET rating = rating + :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	require.NoError(t, err)

	var after song
	require.NoError(t, attributevalue.UnmarshalMap(updated.Attributes, &after))
	require.Equal(t, 6, after.Rating)

	page, err := api.Query(context.Background(), &dynamodb.QueryInput{
		TableName:              aws.String("songs"),
		KeyConditionExpression: aws.String("artist = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: "adele"},
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Count)
}

func TestSDKTableNotFound(t *testing.T) {
	api := sdkClient(t)

	_, err := api.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String("ghost"),
		Key: map[string]types.AttributeValue{
			"artist": &types.AttributeValueMemberS{Value: "x"},
		},
	})
	require.Error(t, err)

	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "ResourceNotFoundException", apiErr.ErrorCode())
}
