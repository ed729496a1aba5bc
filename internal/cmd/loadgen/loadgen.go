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

// Package loadgen contains commands that drive a csvpipe deployment
// with synthetic uploads and measure how long the pipeline takes to
// drain them.
package loadgen

import (
	"bufio"
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/csvrec"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Experiment is written at the start of a run so that its logs and
// metrics can be located afterwards.
type Experiment struct {
	Container   string    `json:"container"`
	Destination string    `json:"destination"`
	Files       int       `json:"n_files"`
	SizeMB      int       `json:"f_size"`
	Start       time.Time `json:"experiment_start_time"`
}

// Generate writes files named file__<id>.csv to dir, each holding
// sizeMB*RowsPerMB rows of random values in [1, 1000) along with the
// file's id. The values depend only on the seed.
func Generate(dir string, files, sizeMB int, seed uint64) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	rng := rand.New(rand.NewPCG(seed, 0))
	ret := make([]string, 0, files)
	for range files {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")
		records := &types.RecordSet{
			Columns: []string{"value", "data_id"},
			Rows:    make([]types.Row, sizeMB*RowsPerMB),
		}
		for idx := range records.Rows {
			records.Rows[idx] = types.Row{
				"value":   strconv.Itoa(1 + rng.IntN(999)),
				"data_id": id,
			}
		}
		name := filepath.Join(dir, "file__"+id+".csv")
		if err := writeFile(name, records); err != nil {
			return nil, err
		}
		ret = append(ret, name)
	}
	log.Infof("generated %d files in %s", len(ret), dir)
	return ret, nil
}

func writeFile(name string, records *types.RecordSet) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.WithStack(err)
	}
	w := bufio.NewWriter(f)
	if err := csvrec.Encode(w, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}

// Upload copies every .csv file in dir into the container, with
// bounded parallelism. A non-zero perSecond limits the upload rate.
func Upload(
	ctx context.Context,
	store bucket.Store,
	dir, container string,
	concurrency int,
	perSecond float64,
) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	var uploaded atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		if err := limiter.Wait(egCtx); err != nil {
			break
		}
		name := entry.Name()
		eg.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return errors.WithStack(err)
			}
			if err := store.Put(egCtx, container, name, data, "text/csv"); err != nil {
				return err
			}
			uploaded.Add(1)
			log.Tracef("uploaded %s/%s", container, name)
			return nil
		})
	}
	err = eg.Wait()
	if err == nil {
		err = ctx.Err()
	}
	log.Infof("uploaded %d files to %s", uploaded.Load(), container)
	return int(uploaded.Load()), err
}

// List returns the keys in the container, sorted.
func List(ctx context.Context, store bucket.Store, container string) ([]string, error) {
	var keys []string
	err := store.Walk(ctx, container, "", func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil && !bucket.IsNotFound(err) {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Wipe deletes every object in the containers. Objects that vanish
// concurrently, for example because the pipeline consumed them, are
// not an error.
func Wipe(
	ctx context.Context, store bucket.Store, concurrency int, containers ...string,
) (int, error) {
	var removed atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for _, container := range containers {
		keys, err := List(egCtx, store, container)
		if err != nil {
			_ = eg.Wait()
			return int(removed.Load()), err
		}
		for _, key := range keys {
			eg.Go(func() error {
				err := store.Remove(egCtx, container, key)
				switch {
				case err == nil:
					removed.Add(1)
					return nil
				case bucket.IsNotFound(err):
					log.WithField("key", key).Debug("already deleted")
					return nil
				default:
					return err
				}
			})
		}
	}
	err := eg.Wait()
	log.Infof("deleted %d objects from %s", removed.Load(), strings.Join(containers, ", "))
	return int(removed.Load()), err
}

// Watch polls the container until it holds at least want objects,
// returning the elapsed time.
func Watch(
	ctx context.Context,
	store bucket.Store,
	container string,
	want int,
	timeout, minDelay, maxDelay time.Duration,
) (time.Duration, error) {
	start := time.Now()
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = minDelay
	policy.MaxInterval = maxDelay
	policy.MaxElapsedTime = timeout

	last := -1
	err := backoff.Retry(func() error {
		keys, err := List(ctx, store, container)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(keys) != last {
			last = len(keys)
			log.Infof("%s holds %d of %d objects after %s",
				container, last, want, time.Since(start).Round(time.Millisecond))
		}
		if last < want {
			return errors.Errorf("%s holds %d of %d objects", container, last, want)
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	log.Infof("%d objects arrived in %s after %s", want, container, elapsed)
	return elapsed, nil
}

// WriteExperiment records the experiment's parameters as JSON.
func WriteExperiment(path string, exp *Experiment) error {
	buf, err := json.MarshalIndent(exp, "", "    ")
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, buf, 0644))
}

// Run performs a complete experiment: clear both containers, record
// the parameters, generate and upload the files, then wait for the
// pipeline to write every file to the destination.
func Run(ctx context.Context, store bucket.Store, cfg *Config) (time.Duration, error) {
	if cfg.Container == "" || cfg.Destination == "" {
		return 0, errors.New("container and destination must be specified")
	}
	if _, err := Wipe(ctx, store, cfg.Concurrency, cfg.Container, cfg.Destination); err != nil {
		return 0, err
	}
	exp := &Experiment{
		Container:   cfg.Container,
		Destination: cfg.Destination,
		Files:       cfg.Files,
		SizeMB:      cfg.SizeMB,
		Start:       time.Now().UTC(),
	}
	if cfg.Experiment != "" {
		if err := WriteExperiment(cfg.Experiment, exp); err != nil {
			return 0, err
		}
	}
	log.WithFields(log.Fields{
		"files": exp.Files,
		"size":  exp.SizeMB,
		"start": exp.Start,
	}).Info("starting experiment")

	if _, err := Generate(cfg.Dir, cfg.Files, cfg.SizeMB, cfg.Seed); err != nil {
		return 0, err
	}
	if _, err := Upload(ctx, store, cfg.Dir, cfg.Container, cfg.Concurrency, cfg.Rate); err != nil {
		return 0, err
	}
	if _, err := Watch(ctx, store, cfg.Destination, cfg.Files,
		cfg.Timeout, cfg.WatchMin, cfg.WatchMax); err != nil {
		return 0, err
	}
	elapsed := time.Since(exp.Start)
	log.Infof("experiment finished in %s", elapsed)
	return elapsed, nil
}
