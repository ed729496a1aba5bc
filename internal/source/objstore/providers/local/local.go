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

// Package local provide access to local storage. Each container is a
// directory below a root directory.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
)

const defaultContentType = "application/octet-stream"

// knownTypes are checked before the system mime tables, which may not
// be installed.
var knownTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".txt":  "text/plain",
}

// Config specifies the parameters required to create a local store.
type Config struct {
	Directory string // Root directory
}

// New creates a store backed by a local filesystem.
func New(config *Config) (bucket.Store, error) {
	if config.Directory == "" {
		return nil, errors.New("no directory specified")
	}
	return &localStore{root: config.Directory}, nil
}

// localStore is a bucket.Store backed by a filesystem.
type localStore struct {
	root string
}

var _ bucket.Store = &localStore{}

// Stat implements bucket.Store.
func (s *localStore) Stat(ctx context.Context, container, key string) (*types.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.path(container, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(name)
	if err != nil {
		return nil, notFound(err, container, key)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(bucket.ErrNoSuchKey, "%s/%s is a directory", container, key)
	}
	return &types.ObjectRef{
		Container:   container,
		Key:         key,
		Size:        info.Size(),
		ContentType: contentType(key),
		Generation:  generation(info),
	}, nil
}

// Open implements bucket.Store.
func (s *localStore) Open(ctx context.Context, ref *types.ObjectRef) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.path(ref.Container, ref.Key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, notFound(err, ref.Container, ref.Key)
	}
	if ref.Generation != "" {
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, errors.WithStack(err)
		}
		if gen := generation(info); gen != ref.Generation {
			_ = f.Close()
			return nil, errors.Errorf("%s changed: generation %s, expected %s", ref, gen, ref.Generation)
		}
	}
	return f, nil
}

// Put implements bucket.Store. The content is written to a temporary
// file which is then renamed over the destination, so readers never
// observe a partial object.
func (s *localStore) Put(
	ctx context.Context, container, key string, data []byte, _ string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.path(container, key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), name))
}

// Remove implements bucket.Store.
func (s *localStore) Remove(ctx context.Context, container, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.path(container, key)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil {
		return notFound(err, container, key)
	}
	return nil
}

// Walk implements bucket.Store.
func (s *localStore) Walk(
	ctx context.Context, container, prefix string, f func(string) error,
) error {
	root, err := s.path(container, "")
	if err != nil {
		return err
	}
	var keys []string
	err = filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "walk %s", container)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := f(key); err != nil {
			return err
		}
	}
	return nil
}

// path returns the filesystem location of the object, refusing any
// name that would escape the root directory.
func (s *localStore) path(container, key string) (string, error) {
	if container == "" || !filepath.IsLocal(container) {
		return "", errors.Errorf("invalid container name %q", container)
	}
	if key == "" {
		return filepath.Join(s.root, container), nil
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", errors.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, container, rel), nil
}

// contentType infers the declared content-type from the key's
// extension, since a filesystem does not store one.
func contentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return defaultContentType
	}
	if known, ok := knownTypes[ext]; ok {
		return known
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return defaultContentType
	}
	return mediaType
}

func generation(info fs.FileInfo) string {
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}

func notFound(err error, container, key string) error {
	if os.IsNotExist(err) {
		return errors.Wrapf(bucket.ErrNoSuchKey, "%s/%s", container, key)
	}
	return errors.WithStack(err)
}
