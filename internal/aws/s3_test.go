// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"errors"
	"io"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3v2.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3v2.PutObjectOutput{}, f.err
}

func TestPutJSON(t *testing.T) {
	fp := &fakePutter{}
	err := PutJSON(context.Background(), fp, "bucket", "exports/courses.json", []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, "bucket", awsv2.ToString(fp.input.Bucket))
	assert.Equal(t, "exports/courses.json", awsv2.ToString(fp.input.Key))
	assert.Equal(t, "application/json", awsv2.ToString(fp.input.ContentType))
	assert.Equal(t, []byte(`[]`), fp.body)
}

func TestPutJSON_Errors(t *testing.T) {
	err := PutJSON(context.Background(), &fakePutter{}, "", "k", nil)
	assert.Error(t, err)

	fp := &fakePutter{err: errors.New("access denied")}
	err = PutJSON(context.Background(), fp, "b", "k", []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/k")
	assert.Contains(t, err.Error(), "access denied")
}

func TestWithS3Endpoint(t *testing.T) {
	var o s3v2.Options
	WithS3Endpoint("http://localhost:9000", true)(&o)
	assert.Equal(t, "http://localhost:9000", awsv2.ToString(o.BaseEndpoint))
	assert.True(t, o.UsePathStyle)

	var o2 s3v2.Options
	WithS3Endpoint("", false)(&o2)
	assert.Nil(t, o2.BaseEndpoint)
}
