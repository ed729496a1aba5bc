// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package s3 provides access to S3-compatible storage: AWS S3, MinIO,
// or Google Cloud Storage through its XML interoperability API.
package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config has the parameters used to connect to S3.
type Config struct {
	AccessKey    string // AWS Access Key
	Endpoint     string // Alternative server to use, for other S3 providers.
	Insecure     bool   // For testing against self hosted S3 providers.
	Region       string // Optional bucket region.
	SecretKey    string // Secret associated to the Access Key
	SessionToken string // Optional, for temporary credentials.
}

// s3Access defines the functions we are using to interact with the minio SDK.
// Mainly used for testing to implement a mock component.
type s3Access interface {
	// GetObject returns the content of the named object.
	GetObject(ctx context.Context, bucketName string, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	// ListObjects scans the entries in the bucket.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	// PutObject creates or replaces an object.
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// RemoveObject deletes an object.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	// StatObject returns an object's metadata.
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// NewClient returns a minio client for the configured endpoint.
func NewClient(config *Config) (*minio.Client, error) {
	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			config.AccessKey, config.SecretKey, config.SessionToken),
		Region: config.Region,
		Secure: !config.Insecure,
	})
	return minioClient, errors.WithStack(err)
}

// New returns a store backed by a S3 provider.
func New(config *Config) (bucket.Store, error) {
	minioClient, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &s3Store{client: &client{ref: minioClient}}, nil
}

type s3Store struct {
	client s3Access
}

var _ bucket.Store = &s3Store{}

// Stat implements bucket.Store.
func (s *s3Store) Stat(ctx context.Context, container, key string) (*types.ObjectRef, error) {
	info, err := s.client.StatObject(ctx, container, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, classify(err, container, key)
	}
	return &types.ObjectRef{
		Container:   container,
		Key:         key,
		Size:        info.Size,
		ContentType: info.ContentType,
		Generation:  info.ETag,
	}, nil
}

// Open implements bucket.Store. The read is conditional on the ETag
// recorded in the reference, if any.
func (s *s3Store) Open(ctx context.Context, ref *types.ObjectRef) (io.ReadCloser, error) {
	log.Tracef("Open: %q", ref)
	opts := minio.GetObjectOptions{}
	if ref.Generation != "" {
		if err := opts.SetMatchETag(ref.Generation); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	r, err := s.client.GetObject(ctx, ref.Container, ref.Key, opts)
	if err != nil {
		return nil, classify(err, ref.Container, ref.Key)
	}
	return r, nil
}

// Put implements bucket.Store.
func (s *s3Store) Put(
	ctx context.Context, container, key string, data []byte, contentType string,
) error {
	log.Tracef("Put: %s/%s (%d bytes)", container, key, len(data))
	_, err := s.client.PutObject(ctx, container, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return classify(err, container, key)
}

// Remove implements bucket.Store. S3 reports success when deleting an
// absent key, so ErrNoSuchKey is only returned for a missing bucket.
func (s *s3Store) Remove(ctx context.Context, container, key string) error {
	log.Tracef("Remove: %s/%s", container, key)
	err := s.client.RemoveObject(ctx, container, key, minio.RemoveObjectOptions{})
	return classify(err, container, key)
}

// Walk implements bucket.Store.
func (s *s3Store) Walk(
	ctx context.Context, container, prefix string, f func(string) error,
) error {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	// Cancel the listing goroutine if we exit early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for object := range s.client.ListObjects(ctx, container, opts) {
		if object.Err != nil {
			return classify(object.Err, container, prefix)
		}
		if object.Key == "" {
			continue
		}
		if err := f(object.Key); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// classify maps the minio error codes for absent objects onto
// bucket.ErrNoSuchKey.
func classify(err error, container, key string) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return errors.Wrapf(bucket.ErrNoSuchKey, "%s/%s: %v", container, key, err)
	default:
		return errors.Wrapf(err, "%s/%s", container, key)
	}
}
