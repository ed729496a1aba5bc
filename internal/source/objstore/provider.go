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
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/local"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/memory"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/s3"
	"github.com/google/wire"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideStore,
)

// ProvideStore is called by Wire to construct the bucket.Store
// described by the configuration.
func ProvideStore(config *Config) (bucket.Store, error) {
	if err := config.Preflight(); err != nil {
		return nil, err
	}
	store, err := newStore(config)
	if err != nil {
		return nil, err
	}
	log.WithField("storage", config.String()).Infof("using %s object store", config.provider)
	return &instrumented{delegate: store, provider: config.provider.String()}, nil
}

func newStore(config *Config) (bucket.Store, error) {
	switch config.provider {
	case LocalStorage:
		return local.New(config.local)
	case MemoryStorage:
		return memory.New(), nil
	case S3Storage:
		return s3.New(config.s3)
	default:
		return nil, errors.Errorf("invalid configuration. Missing bucket specification")
	}
}
