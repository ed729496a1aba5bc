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

package listen

import (
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/s3"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideListener,
	ProvideNotifier,
)

// ProvideNotifier is called by Wire to connect to the bucket's
// notification API. Only S3-compatible storage has one.
func ProvideNotifier(config *Config) (Notifier, error) {
	if err := config.Preflight(); err != nil {
		return nil, err
	}
	s3Config := config.Storage.S3()
	if s3Config == nil {
		return nil, errors.New("bucket notifications require an s3:// storageURL")
	}
	return s3.NewClient(s3Config)
}

// ProvideListener is called by Wire to construct and start the
// subscription loop.
func ProvideListener(
	ctx *stopper.Context,
	config *Config,
	notifier Notifier,
	processor types.Processor,
	store bucket.Store,
) *Listener {
	ret := &Listener{
		config:    config,
		notifier:  notifier,
		processor: processor,
		store:     store,
		retry:     newRetry,
	}
	ret.Start(ctx)
	return ret
}
