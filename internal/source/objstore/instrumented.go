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

package objstore

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
)

// instrumented decorates a bucket.Store with metrics.
type instrumented struct {
	delegate bucket.Store
	provider string
}

var _ bucket.Store = (*instrumented)(nil)

func (s *instrumented) observe(op string, start time.Time, err error) {
	opDuration.WithLabelValues(s.provider, op).Observe(time.Since(start).Seconds())
	if err != nil && !bucket.IsNotFound(err) {
		opErrors.WithLabelValues(s.provider, op).Inc()
	}
}

// Stat implements bucket.Store.
func (s *instrumented) Stat(
	ctx context.Context, container, key string,
) (_ *types.ObjectRef, err error) {
	defer func(start time.Time) { s.observe("stat", start, err) }(time.Now())
	return s.delegate.Stat(ctx, container, key)
}

// Open implements bucket.Store.
func (s *instrumented) Open(
	ctx context.Context, ref *types.ObjectRef,
) (_ io.ReadCloser, err error) {
	defer func(start time.Time) { s.observe("open", start, err) }(time.Now())
	return s.delegate.Open(ctx, ref)
}

// Put implements bucket.Store.
func (s *instrumented) Put(
	ctx context.Context, container, key string, data []byte, contentType string,
) (err error) {
	defer func(start time.Time) { s.observe("put", start, err) }(time.Now())
	err = s.delegate.Put(ctx, container, key, data, contentType)
	if err == nil {
		putBytes.WithLabelValues(s.provider).Add(float64(len(data)))
	}
	return err
}

// Remove implements bucket.Store.
func (s *instrumented) Remove(ctx context.Context, container, key string) (err error) {
	defer func(start time.Time) { s.observe("remove", start, err) }(time.Now())
	return s.delegate.Remove(ctx, container, key)
}

// Walk implements bucket.Store.
func (s *instrumented) Walk(
	ctx context.Context, container, prefix string, f func(string) error,
) (err error) {
	defer func(start time.Time) { s.observe("walk", start, err) }(time.Now())
	return s.delegate.Walk(ctx, container, prefix, f)
}
