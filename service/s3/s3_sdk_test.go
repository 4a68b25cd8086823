//
// Copyright (C) 2025 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/nimbus
//

package s3_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/fogfish/nimbus/service/s3"
)

// sdkClient points an unmodified AWS SDK client at the emulator,
// path-style addressing keeps the bucket out of the host name.
func sdkClient(t *testing.T) *awss3.Client {
	t.Helper()
	svc, err := s3.New()
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

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
		o.UsePathStyle = true
	})
}

func TestSDKObjectRoundTrip(t *testing.T) {
	api := sdkClient(t)

	_, err := api.CreateBucket(context.Background(), &awss3.CreateBucketInput{
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)

	put, err := api.PutObject(context.Background(), &awss3.PutObjectInput{
		Bucket:      aws.String("media"),
		Key:         aws.String("docs/a.txt"),
		Body:        strings.NewReader("hello world"),
		ContentType: aws.String("text/plain"),
	})
	require.NoError(t, err)
	require.NotNil(t, put.ETag)

	got, err := api.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("docs/a.txt"),
	})
	require.NoError(t, err)
	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(body))
	require.Equal(t, *put.ETag, *got.ETag)

	_, err = api.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("missing.txt"),
	})
	require.Error(t, err)
	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "NoSuchKey", apiErr.ErrorCode())
}

func TestSDKListObjectsV2(t *testing.T) {
	api := sdkClient(t)
	_, err := api.CreateBucket(context.Background(), &awss3.CreateBucketInput{
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)

	for _, key := range []string{"docs/a", "docs/b", "img/c"} {
		_, err := api.PutObject(context.Background(), &awss3.PutObjectInput{
			Bucket: aws.String("media"),
			Key:    aws.String(key),
			Body:   strings.NewReader("x"),
		})
		require.NoError(t, err)
	}

	page, err := api.ListObjectsV2(context.Background(), &awss3.ListObjectsV2Input{
		Bucket:    aws.String("media"),
		Delimiter: aws.String("/"),
	})
	require.NoError(t, err)
	require.Len(t, page.CommonPrefixes, 2)
	require.Empty(t, page.Contents)

	page, err = api.ListObjectsV2(context.Background(), &awss3.ListObjectsV2Input{
		Bucket: aws.String("media"),
		Prefix: aws.String("docs/"),
	})
	require.NoError(t, err)
	require.Len(t, page.Contents, 2)
}

func TestSDKVersioning(t *testing.T) {
	api := sdkClient(t)
	_, err := api.CreateBucket(context.Background(), &awss3.CreateBucketInput{
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)

	_, err = api.PutBucketVersioning(context.Background(), &awss3.PutBucketVersioningInput{
		Bucket: aws.String("media"),
		VersioningConfiguration: &types.VersioningConfiguration{
			Status: types.BucketVersioningStatusEnabled,
		},
	})
	require.NoError(t, err)

	first, err := api.PutObject(context.Background(), &awss3.PutObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("a.txt"),
		Body:   strings.NewReader("one"),
	})
	require.NoError(t, err)
	require.NotNil(t, first.VersionId)

	_, err = api.PutObject(context.Background(), &awss3.PutObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("a.txt"),
		Body:   strings.NewReader("two"),
	})
	require.NoError(t, err)

	old, err := api.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket:    aws.String("media"),
		Key:       aws.String("a.txt"),
		VersionId: first.VersionId,
	})
	require.NoError(t, err)
	body, err := io.ReadAll(old.Body)
	require.NoError(t, err)
	require.Equal(t, "one", string(body))

	versions, err := api.ListObjectVersions(context.Background(), &awss3.ListObjectVersionsInput{
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)
	require.Len(t, versions.Versions, 2)
}

func TestSDKMultipart(t *testing.T) {
	api := sdkClient(t)
	_, err := api.CreateBucket(context.Background(), &awss3.CreateBucketInput{
		Bucket: aws.String("media"),
	})
	require.NoError(t, err)

	started, err := api.CreateMultipartUpload(context.Background(), &awss3.CreateMultipartUploadInput{
		Bucket: aws.String("media"),
		Key:    aws.String("big.bin"),
	})
	require.NoError(t, err)

	var parts []types.CompletedPart
	for i, chunk := range []string{"hello ", "world"} {
		num := int32(i + 1)
		part, err := api.UploadPart(context.Background(), &awss3.UploadPartInput{
			Bucket:     aws.String("media"),
			Key:        aws.String("big.bin"),
			UploadId:   started.UploadId,
			PartNumber: aws.Int32(num),
			Body:       strings.NewReader(chunk),
		})
		require.NoError(t, err)
		parts = append(parts, types.CompletedPart{
			PartNumber: aws.Int32(num),
			ETag:       part.ETag,
		})
	}

	done, err := api.CompleteMultipartUpload(context.Background(), &awss3.CompleteMultipartUploadInput{
		Bucket:   aws.String("media"),
		Key:      aws.String("big.bin"),
		UploadId: started.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: parts,
		},
	})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(*done.ETag, `-2"`))

	got, err := api.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("big.bin"),
	})
	require.NoError(t, err)
	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(body))
}
