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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/memory"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// values returns the value column of a generated file.
func values(t *testing.T, name string) []string {
	t.Helper()
	buf, err := os.ReadFile(name)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	require.Equal(t, "value,data_id", lines[0])
	ret := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		value, _, ok := strings.Cut(line, ",")
		require.True(t, ok)
		ret = append(ret, value)
	}
	return ret
}

func TestGenerate(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	dir := t.TempDir()
	names, err := Generate(dir, 2, 1, 1)
	r.NoError(err)
	r.Len(names, 2)
	a.NotEqual(names[0], names[1])

	for _, name := range names {
		base := filepath.Base(name)
		a.True(strings.HasPrefix(base, "file__"), base)
		a.Equal(".csv", filepath.Ext(base))
		id := strings.TrimSuffix(strings.TrimPrefix(base, "file__"), ".csv")
		a.Len(id, 32)

		buf, err := os.ReadFile(name)
		r.NoError(err)
		lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
		a.Len(lines, RowsPerMB+1)
		a.True(strings.HasSuffix(lines[1], ","+id))
		// Roughly one megabyte.
		a.InDelta(1.0, float64(len(buf))/types.BytesPerMB, 0.5)
	}

	// The same seed produces the same values.
	again, err := Generate(t.TempDir(), 1, 1, 1)
	r.NoError(err)
	a.Equal(values(t, names[0]), values(t, again[0]))
}

func TestUploadWipe(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	dir := t.TempDir()
	r.NoError(os.WriteFile(filepath.Join(dir, "a.csv"), []byte("value,data_id\n1,a\n"), 0644))
	r.NoError(os.WriteFile(filepath.Join(dir, "b.csv"), []byte("value,data_id\n2,b\n"), 0644))
	r.NoError(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := memory.New()
	count, err := Upload(ctx, store, dir, "incoming", 4, 100)
	r.NoError(err)
	a.Equal(2, count)

	keys, err := List(ctx, store, "incoming")
	r.NoError(err)
	a.Equal([]string{"a.csv", "b.csv"}, keys)
	_, contentType, ok := store.Get("incoming", "a.csv")
	a.True(ok)
	a.Equal("text/csv", contentType)

	r.NoError(store.Put(ctx, "processed", "c.csv", []byte("x"), "text/csv"))
	removed, err := Wipe(ctx, store, 4, "incoming", "processed", "absent")
	r.NoError(err)
	a.Equal(3, removed)

	keys, err = List(ctx, store, "incoming")
	r.NoError(err)
	a.Empty(keys)
}

func TestWatch(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	store := memory.New()

	go func() {
		for _, key := range []string{"a", "b", "c"} {
			time.Sleep(20 * time.Millisecond)
			_ = store.Put(ctx, "processed", key, []byte("x"), "text/csv")
		}
	}()
	elapsed, err := Watch(ctx, store, "processed", 3,
		10*time.Second, time.Millisecond, 10*time.Millisecond)
	r.NoError(err)
	r.Greater(elapsed, time.Duration(0))
}

func TestWatchTimeout(t *testing.T) {
	_, err := Watch(context.Background(), memory.New(), "processed", 1,
		50*time.Millisecond, time.Millisecond, 5*time.Millisecond)
	assert.ErrorContains(t, err, "holds 0 of 1 objects")
}

// TestRun drives a complete experiment against a pipeline that is
// polling the upload container.
func TestRun(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	pcfg := &pipeline.Config{Destination: "processed", MaxSizeMB: pipeline.DefaultMaxSizeMB}
	r.NoError(pcfg.Preflight())
	p := pipeline.New(pcfg, store)

	// Leftovers from a previous experiment.
	r.NoError(store.Put(ctx, "processed", "stale.csv", []byte("x"), "text/csv"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			_ = store.Walk(ctx, "incoming", "", func(key string) error {
				_, _ = p.Process(ctx, &types.Event{Container: "incoming", Key: key})
				return nil
			})
			time.Sleep(5 * time.Millisecond)
		}
	}()

	expFile := filepath.Join(t.TempDir(), "experiment.json")
	cfg := &Config{
		Concurrency: 4,
		Container:   "incoming",
		Destination: "processed",
		Dir:         t.TempDir(),
		Experiment:  expFile,
		Files:       3,
		Seed:        1,
		SizeMB:      1,
		Timeout:     time.Minute,
		WatchMax:    50 * time.Millisecond,
		WatchMin:    time.Millisecond,
	}
	_, err := Run(ctx, store, cfg)
	r.NoError(err)
	cancel()
	<-done

	keys, err := List(context.Background(), store, "processed")
	r.NoError(err)
	a.Len(keys, 3)
	a.NotContains(keys, "stale.csv")

	buf, err := os.ReadFile(expFile)
	r.NoError(err)
	var exp Experiment
	r.NoError(json.Unmarshal(buf, &exp))
	a.Equal(3, exp.Files)
	a.Equal(1, exp.SizeMB)
	a.False(exp.Start.IsZero())
}

// TestCommands exercises the subcommands against a local directory.
func TestCommands(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	dir := t.TempDir()
	storageURL := "file://" + t.TempDir()

	exec := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := Command()
		cmd.SetArgs(args)
		cmd.SetOut(&out)
		r.NoError(cmd.ExecuteContext(context.Background()))
		return out.String()
	}

	exec("generate", "--dir", dir, "--files", "2", "--size", "1")
	exec("upload", "--dir", dir, "--container", "incoming", "--storageURL", storageURL)
	a.Equal("2\n", exec("count", "--container", "incoming", "--storageURL", storageURL))
	exec("watch", "--container", "incoming", "--want", "2", "--storageURL", storageURL)
	exec("wipe", "--container", "incoming", "--storageURL", storageURL)
	a.Equal("0\n", exec("count", "--container", "incoming", "--storageURL", storageURL))
}
