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
	"fmt"
	"os"

	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Command returns the top-level loadgen command.
func Command() *cobra.Command {
	top := &cobra.Command{
		Short: "synthetic workloads for measuring the pipeline",
		Use:   "loadgen",
	}
	top.AddCommand(
		countCmd(),
		generateCmd(),
		runCmd(),
		uploadCmd(),
		watchCmd(),
		wipeCmd(),
	)
	return top
}

// openStore validates the storage flags and connects.
func openStore(cfg *Config) (bucket.Store, error) {
	if err := cfg.preflightStorage(); err != nil {
		return nil, err
	}
	return objstore.ProvideStore(&cfg.Storage)
}

func countCmd() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "print the number of objects in a container",
		Use:   "count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Container == "" {
				return errors.New("no container specified")
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			keys, err := List(cmd.Context(), store, cfg.Container)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), len(keys))
			return errors.WithStack(err)
		},
	}
	cfg.bindStorage(cmd.Flags())
	cmd.Flags().StringVar(&cfg.Container, "container", "", "the container to count")
	return cmd
}

func generateCmd() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "write synthetic CSV files to a local directory",
		Use:   "generate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.preflightGenerate(); err != nil {
				return err
			}
			_, err := Generate(cfg.Dir, cfg.Files, cfg.SizeMB, cfg.Seed)
			return err
		},
	}
	cfg.bindGenerate(cmd.Flags())
	return cmd
}

func uploadCmd() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "upload the CSV files in a local directory",
		Use:   "upload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Dir == "" || cfg.Container == "" {
				return errors.New("dir and container must be specified")
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			_, err = Upload(cmd.Context(), store, cfg.Dir, cfg.Container, cfg.Concurrency, cfg.Rate)
			return err
		},
	}
	cfg.bindStorage(cmd.Flags())
	cfg.bindUpload(cmd.Flags())
	cmd.Flags().StringVar(&cfg.Dir, "dir", "", "the directory holding the files")
	return cmd
}

func watchCmd() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "wait until a container holds a number of objects",
		Use:   "watch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Container == "" {
				return errors.New("no container specified")
			}
			if err := cfg.preflightWatch(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			_, err = Watch(cmd.Context(), store, cfg.Container, cfg.Want,
				cfg.Timeout, cfg.WatchMin, cfg.WatchMax)
			return err
		},
	}
	cfg.bindStorage(cmd.Flags())
	cfg.bindWatch(cmd.Flags())
	cmd.Flags().StringVar(&cfg.Container, "container", "", "the container to watch")
	cmd.Flags().IntVar(&cfg.Want, "want", 0, "the number of objects to wait for")
	return cmd
}

func wipeCmd() *cobra.Command {
	cfg := &Config{}
	var containers []string
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "delete every object in one or more containers",
		Use:   "wipe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(containers) == 0 {
				return errors.New("no container specified")
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			_, err = Wipe(cmd.Context(), store, cfg.Concurrency, containers...)
			return err
		},
	}
	cfg.bindStorage(cmd.Flags())
	cmd.Flags().StringArrayVar(&containers, "container", nil, "a container to empty; may be repeated")
	return cmd
}

func runCmd() *cobra.Command {
	cfg := &Config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "wipe, generate, upload, and wait for the pipeline to finish",
		Use:   "run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Dir == "" {
				dir, err := os.MkdirTemp("", "csvpipe-loadgen-")
				if err != nil {
					return errors.WithStack(err)
				}
				defer func() { _ = os.RemoveAll(dir) }()
				cfg.Dir = dir
			}
			if err := cfg.preflightGenerate(); err != nil {
				return err
			}
			if err := cfg.preflightWatch(); err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			_, err = Run(cmd.Context(), store, cfg)
			return err
		},
	}
	f := cmd.Flags()
	cfg.bindDestination(f)
	cfg.bindGenerate(f)
	cfg.bindStorage(f)
	cfg.bindUpload(f)
	cfg.bindWatch(f)
	f.StringVar(&cfg.Experiment, "experiment", defaultExperiment,
		"where to record the experiment parameters; empty to disable")
	return cmd
}
