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

// Package process contains a command that runs the pipeline once, for
// a single object or for the objects named by a notification read from
// stdin.
package process

import (
	"encoding/json"
	"io"
	"time"

	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/notify"
	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// KindManual is the event type of objects named on the command line.
const KindManual = "csvpipe:Manual"

// Config contains the flags for the process command.
type Config struct {
	Pipeline pipeline.Config
	Storage  objstore.Config

	Container string
	Key       string
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Pipeline.Bind(f)
	c.Storage.Bind(f)
	f.StringVar(&c.Container, "container", "",
		"the container of the object to process; if unset, a notification is read from stdin")
	f.StringVar(&c.Key, "key", "", "the key of the object to process")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if err := c.Pipeline.Preflight(); err != nil {
		return err
	}
	if (c.Container == "") != (c.Key == "") {
		return errors.New("container and key must be specified together")
	}
	return nil
}

// result is written to stdout for each run.
type result struct {
	Container string `json:"container"`
	Key       string `json:"key"`
	Outcome   string `json:"outcome"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Command returns the process subcommand. The command exits with an
// error only if a run Failed; Aborted and Skipped runs are reported
// on stdout. Usage and error text are never written to stdout, which
// carries only result lines.
func Command() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:          cobra.NoArgs,
		Short:         "run the pipeline once for an object or a notification on stdin",
		SilenceErrors: true,
		SilenceUsage:  true,
		Use:           "process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Preflight(); err != nil {
				return err
			}
			events, err := cfg.events(cmd.InOrStdin())
			if err != nil {
				return err
			}
			store, err := objstore.ProvideStore(&cfg.Storage)
			if err != nil {
				return err
			}
			p := pipeline.New(&cfg.Pipeline, store)

			ctx := cmd.Context()
			enc := json.NewEncoder(cmd.OutOrStdout())
			var failed error
			for _, evt := range events {
				out, err := p.Process(ctx, evt)
				res := &result{
					Container: evt.Container,
					Key:       evt.Key,
					Outcome:   out.Kind.String(),
					Stage:     out.Stage.String(),
					Reason:    out.Reason,
				}
				if err != nil {
					res.Error = err.Error()
					if failed == nil {
						failed = err
					}
				}
				if err := enc.Encode(res); err != nil {
					return errors.WithStack(err)
				}
			}
			return failed
		},
	}
	cfg.Bind(cmd.Flags())
	return cmd
}

// events returns the event named by the flags, or decodes a
// notification from the reader.
func (c *Config) events(in io.Reader) ([]*types.Event, error) {
	if c.Container != "" {
		return []*types.Event{{
			ID:        uuid.NewString(),
			Kind:      KindManual,
			Time:      time.Now().UTC(),
			Container: c.Container,
			Key:       c.Key,
		}}, nil
	}
	buf, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "could not read notification")
	}
	return notify.Decode(buf)
}
