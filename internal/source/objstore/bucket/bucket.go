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

// Package bucket defines the interface that the providers must implement
// to access cloud storage.
package bucket

import (
	"context"
	"io"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
)

// ErrNoSuchKey is returned, possibly wrapped, when an object or a
// container does not exist.
var ErrNoSuchKey = errors.New("no such key")

// Store provides access to objects held in named containers.
// Implementations must be safe for concurrent use.
type Store interface {
	// Stat returns the store's metadata for the object.
	Stat(ctx context.Context, container, key string) (*types.ObjectRef, error)

	// Open returns the content of the object. If the reference carries
	// a generation, implementations should refuse to return a
	// different version of the object.
	Open(ctx context.Context, ref *types.ObjectRef) (io.ReadCloser, error)

	// Put creates or replaces the object.
	Put(ctx context.Context, container, key string, data []byte, contentType string) error

	// Remove deletes the object. Stores that can detect an absent
	// object return ErrNoSuchKey; others return nil.
	Remove(ctx context.Context, container, key string) error

	// Walk calls f for each object in the container whose key begins
	// with prefix, in lexical order.
	Walk(ctx context.Context, container, prefix string, f func(key string) error) error
}

// IsNotFound returns true if the error indicates an absent object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoSuchKey)
}
