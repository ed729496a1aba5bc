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

//go:build wireinject
// +build wireinject

package listen

import (
	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
)

// Start creates a bucket notification subscriber using the provided
// configuration.
func Start(ctx *stopper.Context, config *Config) (*Listen, error) {
	panic(wire.Build(
		wire.Struct(new(Listen), "*"),
		wire.FieldsOf(new(*Config), "Pipeline", "Storage"),
		Set,
		diag.New,
		objstore.Set,
		pipeline.Set,
	))
}
