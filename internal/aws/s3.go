// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"bytes"
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile string
	region  string
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile. Empty keeps the env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Empty keeps the env/profile chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// LoadAWSConfig loads AWS SDK v2 config, applying any overrides.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// NewS3 constructs a v2 S3 client from the provided config.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	return s3v2.NewFromConfig(cfg, optFns...)
}

// WithS3Endpoint points the client at an S3-compatible endpoint such as
// MinIO. Path-style addressing is usually needed there.
func WithS3Endpoint(endpoint string, pathStyle bool) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		if endpoint != "" {
			o.BaseEndpoint = awsv2.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	}
}

// PutObjectAPI is the slice of the S3 client needed to upload an object.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// PutJSON uploads data to bucket/key with a JSON content type.
func PutJSON(ctx context.Context, api PutObjectAPI, bucket, key string, data []byte) error {
	if bucket == "" || key == "" {
		return fmt.Errorf("s3: bucket and key are required (bucket=%q key=%q)", bucket, key)
	}
	_, err := api.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(bucket),
		Key:           awsv2.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   awsv2.String("application/json"),
		ContentLength: awsv2.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("s3: put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
