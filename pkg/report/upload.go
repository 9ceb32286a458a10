// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package report

//go:generate go tool mockgen -source=upload.go -destination=mock_upload.go -package=report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores an encoded report under key.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// S3API is the part of the S3 client the uploader needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts reports into an S3 bucket.
type S3Uploader struct {
	Client S3API
	Bucket string
}

// NewS3Uploader builds a client from the standard AWS configuration
// chain (environment, shared config, instance role). An empty region
// keeps whatever the chain resolves.
func NewS3Uploader(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &S3Uploader{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", u.Bucket, key, err)
	}
	return nil
}

// DirUploader writes reports into a local directory.
type DirUploader struct {
	Dir string
}

func (u DirUploader) Upload(_ context.Context, key string, body []byte, _ string) error {
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(u.Dir, filepath.Base(key))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Publish encodes r and hands it to every uploader. It returns the key
// used and the first upload error; later uploaders still run.
func Publish(ctx context.Context, r Report, f Format, uploaders ...Uploader) (string, error) {
	body, err := Encode(r, f)
	if err != nil {
		return "", err
	}
	key := Key(r, f)

	var firstErr error
	for _, u := range uploaders {
		if err := u.Upload(ctx, key, body, f.ContentType()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return key, firstErr
}
