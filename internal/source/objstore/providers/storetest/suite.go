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

// Package storetest defines the tests that the providers must pass.
package storetest

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Suite verifies that a bucket.Store can read, write, list and
// delete objects.
type Suite struct {
	Container string       // The container to operate on.
	Store     bucket.Store // The interface we are testing.

	// Set if the store reports ErrNoSuchKey when removing an absent
	// object.
	DetectsAbsentRemove bool
}

// Run executes all the tests in the suite.
func (v *Suite) Run(t *testing.T) {
	t.Run("open", v.Open)
	t.Run("overwrite", v.Overwrite)
	t.Run("remove", v.Remove)
	t.Run("walk", v.Walk)
}

// Open validates bucket.Store.Stat and bucket.Store.Open.
func (v *Suite) Open(t *testing.T) {
	r := require.New(t)
	tests := []struct {
		name    string
		file    string
		want    string
		wantErr error
	}{
		{"found", "open/test.txt", "test", nil},
		{"notfound", "open/nothere.txt", "", bucket.ErrNoSuchKey},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.NoError(v.Store.Put(ctx, v.Container, "open/test.txt", []byte("test"), "text/plain"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			got, err := v.read(ctx, tt.file)
			if tt.wantErr != nil {
				a.ErrorIs(err, tt.wantErr)
				return
			}
			r.NoError(err)
			a.Equal(tt.want, got)
		})
	}
}

// Overwrite validates that the latest version of an object is read,
// and that a stale reference is not silently served new content.
func (v *Suite) Overwrite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := require.New(t)
	a := assert.New(t)
	path := "overwrite/test.csv"
	for _, s := range []string{"v0", "v1", "v2", "version3"} {
		r.NoError(v.Store.Put(ctx, v.Container, path, []byte(s), "text/csv"))
		got, err := v.read(ctx, path)
		r.NoError(err)
		a.Equal(s, got)
	}

	ref, err := v.Store.Stat(ctx, v.Container, path)
	r.NoError(err)
	a.Equal(int64(len("version3")), ref.Size)
	a.Equal("text/csv", ref.ContentType)
	// Let filesystem mtimes advance.
	time.Sleep(10 * time.Millisecond)
	r.NoError(v.Store.Put(ctx, v.Container, path, []byte("version4"), "text/csv"))
	if ref.Generation != "" {
		rc, err := v.Store.Open(ctx, ref)
		if err == nil {
			_ = rc.Close()
		}
		a.Error(err)
	}
}

// Remove validates bucket.Store.Remove.
func (v *Suite) Remove(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := require.New(t)
	a := assert.New(t)
	path := "remove/test.txt"
	r.NoError(v.Store.Put(ctx, v.Container, path, []byte("test"), "text/plain"))
	r.NoError(v.Store.Remove(ctx, v.Container, path))
	_, err := v.Store.Stat(ctx, v.Container, path)
	a.ErrorIs(err, bucket.ErrNoSuchKey)

	err = v.Store.Remove(ctx, v.Container, path)
	if v.DetectsAbsentRemove {
		a.ErrorIs(err, bucket.ErrNoSuchKey)
	} else {
		a.NoError(err)
	}
}

// Walk validates bucket.Store.Walk.
func (v *Suite) Walk(t *testing.T) {
	r := require.New(t)
	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"all", "walk/", []string{
			"walk/000/000.txt",
			"walk/000/001.txt",
			"walk/001/000.txt",
			"walk/001/001.txt",
		}},
		{"prefix", "walk/001", []string{
			"walk/001/000.txt",
			"walk/001/001.txt",
		}},
		{"none", "walk/002", []string{}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, path := range tests[0].want {
		r.NoError(v.createDummy(ctx, path))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			res := make([]string, 0)
			err := v.Store.Walk(ctx, v.Container, tt.prefix, func(s string) error {
				res = append(res, s)
				return nil
			})
			r.NoError(err)
			a.Equal(tt.want, res)
		})
	}
}

// createDummy creates a new object at the named path. The content of the object
// is the path itself.
func (v *Suite) createDummy(ctx context.Context, path string) error {
	return v.Store.Put(ctx, v.Container, path, []byte(path), "text/plain")
}

// read returns a string with the content of the object at named path.
func (v *Suite) read(ctx context.Context, path string) (string, error) {
	ref, err := v.Store.Stat(ctx, v.Container, path)
	if err != nil {
		return "", err
	}
	r, err := v.Store.Open(ctx, ref)
	if err != nil {
		return "", err
	}
	defer r.Close()
	buf := new(strings.Builder)
	_, err = io.Copy(buf, r)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
