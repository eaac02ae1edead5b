// Copyright (c) 2026 Vistream. All rights reserved.

// Package storage uploads media files to S3-compatible object storage.
//
// # Architecture
//
// This package is part of the Infrastructure layer. Domain services hand it
// locally staged files (see the upload package) and receive back the public
// URL that is persisted on the owning record. It works against AWS S3 as
// well as MinIO-style deployments via a custom base endpoint.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vistream/vistream/pkg/uuid"
)

const uploadTimeout = 60 * time.Second

// Config carries the object storage settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional custom base endpoint (MinIO, R2, ...)
	AccessKey string
	SecretKey string
	// PublicBaseURL is the URL prefix under which uploaded objects are
	// reachable. When empty, the standard AWS virtual-hosted URL is used.
	PublicBaseURL string
}

// Uploader stores media files in an S3 bucket.
type Uploader struct {
	client *s3.Client
	config Config
}

// NewUploader builds an S3 client with static credentials and an optional
// custom endpoint, then returns an Uploader bound to the configured bucket.
func NewUploader(ctx context.Context, config Config) (*Uploader, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKey,
			config.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			// Custom endpoints are typically MinIO-style and need path addressing.
			o.UsePathStyle = true
		}
	})

	return &Uploader{client: client, config: config}, nil
}

// Upload sends the file at localPath to the bucket and returns its public URL.
// The local staging file is NOT removed; callers own its lifecycle.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("storage: failed to open staged file: %w", err)
	}
	defer file.Close()

	key := objectKey(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = u.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(u.config.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload failed: %w", err)
	}

	return u.publicURL(key), nil
}

// objectKey partitions uploads by date so buckets stay listable.
func objectKey(localPath string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("media/%04d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(), uuid.Must(), filepath.Ext(localPath))
}

func (u *Uploader) publicURL(key string) string {
	if u.config.PublicBaseURL != "" {
		return strings.TrimSuffix(u.config.PublicBaseURL, "/") + "/" + key
	}
	if u.config.Endpoint != "" {
		return strings.TrimSuffix(u.config.Endpoint, "/") + "/" + u.config.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.Bucket, u.config.Region, key)
}
