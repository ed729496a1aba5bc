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

package webhook

import (
	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/util/stdserver"
	"github.com/spf13/pflag"
)

// Config contains the user-visible configuration for running the
// notification server.
type Config struct {
	HTTP     stdserver.Config
	Pipeline pipeline.Config
	Storage  objstore.Config
}

// Bind registers flags.
func (c *Config) Bind(flags *pflag.FlagSet) {
	c.HTTP.Bind(flags)
	c.Pipeline.Bind(flags)
	c.Storage.Bind(flags)
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if err := c.HTTP.Preflight(); err != nil {
		return err
	}
	if err := c.Pipeline.Preflight(); err != nil {
		return err
	}
	return c.Storage.Preflight()
}
