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
	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Defaults for flags.
const (
	DefaultRetries = 5
	DefaultWorkers = 4
)

// DefaultEvents selects the notifications that describe new objects.
var DefaultEvents = []string{"s3:ObjectCreated:*"}

// Config contains the user-visible configuration for subscribing to a
// bucket's notification stream.
type Config struct {
	Pipeline pipeline.Config
	Storage  objstore.Config

	Container string   // The bucket to subscribe to.
	Events    []string // The S3 event types to request.
	Prefix    string   // Only objects whose key has this prefix.
	Retries   int      // Attempts for a Failed run, after the first.
	Suffix    string   // Only objects whose key has this suffix.
	Sweep     bool     // Process objects already present at startup.
	Workers   int      // The number of concurrent runs.
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Pipeline.Bind(f)
	c.Storage.Bind(f)

	f.StringVar(&c.Container, "container", "", "the bucket whose notifications are processed")
	f.StringSliceVar(&c.Events, "event", DefaultEvents, "the notification types to subscribe to")
	f.StringVar(&c.Prefix, "prefix", "", "only process objects whose key begins with this prefix")
	f.IntVar(&c.Retries, "retries", DefaultRetries,
		"the number of times a failed run is retried before it is reported")
	f.StringVar(&c.Suffix, "suffix", "", "only process objects whose key ends with this suffix")
	f.BoolVar(&c.Sweep, "sweep", false,
		"process the objects already present in the container before listening")
	f.IntVar(&c.Workers, "workers", DefaultWorkers, "the number of objects processed concurrently")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if err := c.Pipeline.Preflight(); err != nil {
		return err
	}
	if err := c.Storage.Preflight(); err != nil {
		return err
	}
	if c.Container == "" {
		return errors.New("no container specified")
	}
	if c.Container == c.Pipeline.Destination {
		return errors.New("container and destination must differ")
	}
	if len(c.Events) == 0 {
		c.Events = DefaultEvents
	}
	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < 0 {
		return errors.New("workers must be positive")
	}
	return nil
}
