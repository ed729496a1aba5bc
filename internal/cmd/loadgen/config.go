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

package loadgen

import (
	"time"

	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	defaultConcurrency = 16
	defaultExperiment  = "experiment.json"
	defaultSeed        = 1
	defaultTimeout     = 10 * time.Minute
	defaultWatchMax    = 5 * time.Second
	defaultWatchMin    = 100 * time.Millisecond
)

// RowsPerMB is the number of generated rows that make up roughly one
// megabyte of CSV.
const RowsPerMB = 28_500

// Config holds the flags for all loadgen subcommands. Each subcommand
// binds only the flags it uses.
type Config struct {
	Storage objstore.Config

	Concurrency int           // Parallel uploads or deletes.
	Container   string        // The upload container.
	Destination string        // The container written by the pipeline.
	Dir         string        // Where generated files are written.
	Experiment  string        // Path of the experiment record.
	Files       int           // The number of files to generate.
	Rate        float64       // Uploads per second; zero is unlimited.
	Seed        uint64        // Seed for the generated values.
	SizeMB      int           // The approximate size of each file.
	Timeout     time.Duration // How long to watch for completion.
	WatchMax    time.Duration // Upper bound on the polling interval.
	WatchMin    time.Duration // Initial polling interval.
	Want        int           // The number of objects to watch for.
}

func (c *Config) bindGenerate(f *pflag.FlagSet) {
	f.StringVar(&c.Dir, "dir", "", "the directory that holds generated files")
	f.IntVar(&c.Files, "files", 10, "the number of files to generate")
	f.Uint64Var(&c.Seed, "seed", defaultSeed, "the seed for generated values")
	f.IntVar(&c.SizeMB, "size", 1, "the approximate size of each file, in MB")
}

func (c *Config) bindStorage(f *pflag.FlagSet) {
	c.Storage.Bind(f)
	f.IntVar(&c.Concurrency, "concurrency", defaultConcurrency,
		"the number of concurrent storage requests")
}

func (c *Config) bindDestination(f *pflag.FlagSet) {
	f.StringVar(&c.Destination, "destination", "", "the container written by the pipeline")
}

func (c *Config) bindUpload(f *pflag.FlagSet) {
	f.StringVar(&c.Container, "container", "", "the container to upload to")
	f.Float64Var(&c.Rate, "rate", 0, "the maximum number of uploads per second; 0 is unlimited")
}

func (c *Config) bindWatch(f *pflag.FlagSet) {
	f.DurationVar(&c.Timeout, "timeout", defaultTimeout, "how long to wait for completion")
	f.DurationVar(&c.WatchMax, "watchMax", defaultWatchMax, "the maximum delay between polls")
	f.DurationVar(&c.WatchMin, "watchMin", defaultWatchMin, "the initial delay between polls")
}

// preflightGenerate validates the generation flags.
func (c *Config) preflightGenerate() error {
	if c.Dir == "" {
		return errors.New("no dir specified")
	}
	if c.Files <= 0 {
		return errors.New("files must be positive")
	}
	if c.SizeMB <= 0 {
		return errors.New("size must be positive")
	}
	return nil
}

// preflightStorage validates the storage flags.
func (c *Config) preflightStorage() error {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	return c.Storage.Preflight()
}

// preflightWatch validates the polling flags.
func (c *Config) preflightWatch() error {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WatchMin <= 0 {
		c.WatchMin = defaultWatchMin
	}
	if c.WatchMax < c.WatchMin {
		c.WatchMax = c.WatchMin
	}
	return nil
}
