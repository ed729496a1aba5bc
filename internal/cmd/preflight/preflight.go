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

// Package preflight contains a command to test access to the object
// store before starting a long-running source.
package preflight

import (
	"context"

	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errStop ends a Walk after the first key.
var errStop = errors.New("stop")

// Command returns a command that checks that the containers can be
// listed and, optionally, that the destination can be written to.
func Command() *cobra.Command {
	var cfg objstore.Config
	var container, destination string
	var write bool

	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "test access to the object store",
		Use:   "preflight",
		// Ignore unknown flags so that you can pass all the arguments in from a start command.
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := objstore.ProvideStore(&cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if container == "" && destination == "" {
				log.Info("no container or destination specified, no containers to test")
			}
			for _, name := range []string{container, destination} {
				if name == "" {
					continue
				}
				if err := testList(ctx, store, name); err != nil {
					return errors.Wrapf(err, "unable to list %s", name)
				}
			}
			if write && destination != "" {
				if err := testWrite(ctx, store, destination); err != nil {
					return errors.Wrapf(err, "unable to write to %s", destination)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	cfg.Bind(f)
	f.StringVar(&container, "container", "", "the container that receives uploads")
	f.StringVar(&destination, "destination", "", "the container that receives processed objects")
	f.BoolVar(&write, "write", false, "also write and delete a probe object in the destination")
	return cmd
}

func testList(ctx context.Context, store bucket.Store, container string) error {
	log.Infof("Testing container %s", container)
	var first string
	err := store.Walk(ctx, container, "", func(key string) error {
		first = key
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	if first == "" {
		log.Infof("Succeeded; %s is empty", container)
	} else {
		log.Infof("Succeeded; %s contains %s", container, first)
	}
	return nil
}

func testWrite(ctx context.Context, store bucket.Store, container string) error {
	key := ".csvpipe-preflight-" + uuid.NewString()
	log.Infof("Testing write of %s/%s", container, key)
	if err := store.Put(ctx, container, key, []byte("ok"), "text/plain"); err != nil {
		return err
	}
	if _, err := store.Stat(ctx, container, key); err != nil {
		return err
	}
	if err := store.Remove(ctx, container, key); err != nil {
		return err
	}
	log.Info("Succeeded")
	return nil
}
