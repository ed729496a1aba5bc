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

package pipeline

import (
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/google/wire"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvidePipeline,
	wire.Bind(new(types.Processor), new(*Pipeline)),
)

// ProvidePipeline is called by Wire.
func ProvidePipeline(cfg *Config, store bucket.Store, diags *diag.Diagnostics) (*Pipeline, error) {
	if err := cfg.Preflight(); err != nil {
		return nil, err
	}
	ret := New(cfg, store)
	if err := diags.Register("pipeline", ret); err != nil {
		return nil, err
	}
	return ret, nil
}
