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

// Package memory provides an in-process object store, for testing and
// for dry runs.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
)

type object struct {
	contentType string
	data        []byte
	generation  int64
}

// Store is an in-memory bucket.Store.
type Store struct {
	mu struct {
		sync.Mutex
		containers map[string]map[string]*object
		generation int64
	}
}

var _ bucket.Store = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	ret := &Store{}
	ret.mu.containers = make(map[string]map[string]*object)
	return ret
}

// Get returns a copy of the object's content, for use by tests.
func (s *Store) Get(container, key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.mu.containers[container][key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.data), obj.contentType, true
}

// Stat implements bucket.Store.
func (s *Store) Stat(ctx context.Context, container, key string) (*types.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.mu.containers[container][key]
	if !ok {
		return nil, errors.Wrapf(bucket.ErrNoSuchKey, "%s/%s", container, key)
	}
	return &types.ObjectRef{
		Container:   container,
		Key:         key,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		Generation:  strconv.FormatInt(obj.generation, 10),
	}, nil
}

// Open implements bucket.Store.
func (s *Store) Open(ctx context.Context, ref *types.ObjectRef) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.mu.containers[ref.Container][ref.Key]
	if !ok {
		return nil, errors.Wrapf(bucket.ErrNoSuchKey, "%s", ref)
	}
	if ref.Generation != "" && ref.Generation != strconv.FormatInt(obj.generation, 10) {
		return nil, errors.Errorf("%s changed: generation %d, expected %s",
			ref, obj.generation, ref.Generation)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Put implements bucket.Store.
func (s *Store) Put(
	ctx context.Context, container, key string, data []byte, contentType string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if container == "" || key == "" {
		return errors.New("container and key are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.mu.containers[container]
	if !ok {
		objects = make(map[string]*object)
		s.mu.containers[container] = objects
	}
	s.mu.generation++
	objects[key] = &object{
		contentType: contentType,
		data:        bytes.Clone(data),
		generation:  s.mu.generation,
	}
	return nil
}

// Remove implements bucket.Store.
func (s *Store) Remove(ctx context.Context, container, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mu.containers[container][key]; !ok {
		return errors.Wrapf(bucket.ErrNoSuchKey, "%s/%s", container, key)
	}
	delete(s.mu.containers[container], key)
	return nil
}

// Walk implements bucket.Store. The callback is invoked without
// holding the lock, so it may call back into the Store.
func (s *Store) Walk(
	ctx context.Context, container, prefix string, f func(string) error,
) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.mu.containers[container]))
	for key := range s.mu.containers[container] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()
	sort.Strings(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f(key); err != nil {
			return err
		}
	}
	return nil
}
