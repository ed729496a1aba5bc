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
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/memory"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/csvrec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	source = "incoming"
	dest   = "processed"
)

type fixture struct {
	pipeline *Pipeline
	store    *memory.Store
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Destination = dest
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	require.NoError(t, cfg.Preflight())
	store := memory.New()
	return &fixture{pipeline: New(cfg, store), store: store}
}

func (f *fixture) put(t *testing.T, key, contentType string, data []byte) *types.Event {
	t.Helper()
	require.NoError(t, f.store.Put(context.Background(), source, key, data, contentType))
	return &types.Event{
		ID:        "evt-" + key,
		Kind:      "OBJECT_FINALIZE",
		Container: source,
		Key:       key,
	}
}

// csvOfSize returns a document with the given columns that is at least
// minBytes long.
func csvOfSize(columns []string, minBytes int) []byte {
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, ","))
	sb.WriteByte('\n')
	for row := 0; sb.Len() < minBytes; row++ {
		for idx := range columns {
			if idx > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%s-%d", columns[idx], row)
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// Scenario: a one-megabyte object is rewritten with the marker column
// and removed from the source container.
func TestProcessCompleted(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	f := newFixture(t, nil)
	input := csvOfSize([]string{"data_id", "value"}, types.BytesPerMB)
	evt := f.put(t, "a.csv", "text/csv", input)

	out, err := f.pipeline.Process(ctx, evt)
	r.NoError(err)
	a.Equal(types.Completed, out.Kind)
	a.Equal(types.SourceDeleted, out.Stage)

	_, _, found := f.store.Get(source, "a.csv")
	a.False(found, "source should be deleted")

	data, contentType, found := f.store.Get(dest, "a.csv")
	r.True(found)
	a.Equal("text/csv", contentType)

	parser := &csvrec.Parser{}
	before, err := parser.Parse(input)
	r.NoError(err)
	after, err := parser.Parse(data)
	r.NoError(err)

	a.Equal([]string{"data_id", "value", "processed"}, after.Columns)
	r.Equal(before.Len(), after.Len())
	for idx := range after.Rows {
		a.Equal("true", after.Rows[idx]["processed"])
		a.Equal(before.Rows[idx]["data_id"], after.Rows[idx]["data_id"])
		a.Equal(before.Rows[idx]["value"], after.Rows[idx]["value"])
	}
}

// Output objects are written with the source's delimiter.
func TestProcessDelimiter(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, &Config{Delimiter: ";"})
	evt := f.put(t, "semi.csv", "text/csv", []byte("data_id;value\n1;a,b\n"))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Completed, out.Kind)

	data, _, found := f.store.Get(dest, "semi.csv")
	r.True(found)
	a.Equal("data_id;value;processed\n1;a,b;true\n", string(data))
}

// Scenario: an object larger than the limit is left in place.
func TestProcessTooLarge(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, &Config{MaxSizeMB: 5})
	evt := f.put(t, "b.csv", "text/csv", csvOfSize([]string{"data_id", "value"}, 6*types.BytesPerMB))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	a.Equal(types.Received, out.Stage)
	a.Contains(out.Reason, "exceeds size limit")

	_, _, found := f.store.Get(source, "b.csv")
	a.True(found, "source should be untouched")
	_, _, found = f.store.Get(dest, "b.csv")
	a.False(found, "no output expected")
}

func TestProcessWrongContentType(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, nil)
	evt := f.put(t, "e.csv", "application/octet-stream", []byte("data_id,value\n1,2\n"))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	a.Contains(out.Reason, `"application/octet-stream"`)
	a.Contains(out.Reason, `"text/csv"`)

	_, _, found := f.store.Get(source, "e.csv")
	a.True(found)
}

// Scenario: a schema mismatch is reported to the caller.
func TestProcessSchemaMismatch(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, nil)
	evt := f.put(t, "c.csv", "text/csv", []byte("data_id,other\n1,2\n"))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.Error(err)
	var schemaErr *SchemaError
	r.True(errors.As(err, &schemaErr))
	a.Equal([]string{"data_id", "other"}, schemaErr.Actual)
	a.Equal(types.Failed, out.Kind)
	a.Equal(types.Loaded, out.Stage)
	a.Same(err, out.Err)

	_, _, found := f.store.Get(source, "c.csv")
	a.True(found, "source should be untouched")
	_, _, found = f.store.Get(dest, "c.csv")
	a.False(found, "no output expected")
}

func TestProcessSchemaMismatchAbort(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, &Config{SchemaErrors: SchemaAbort})
	evt := f.put(t, "c.csv", "text/csv", []byte("data_id,other\n1,2\n"))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	a.Contains(out.Reason, "unexpected columns")

	_, _, found := f.store.Get(source, "c.csv")
	a.True(found)
}

// Scenario: unparsable content is logged and swallowed.
func TestProcessUnparsable(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, nil)
	evt := f.put(t, "d.csv", "text/csv", []byte("\x89PNG\r\n\x1a\n\x00\x00\xff"))

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	a.Equal(types.Validated, out.Stage)

	_, _, found := f.store.Get(source, "d.csv")
	a.True(found, "source should be untouched")
	_, _, found = f.store.Get(dest, "d.csv")
	a.False(found, "no output expected")
}

func TestProcessEmpty(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := newFixture(t, nil)
	evt := f.put(t, "empty.csv", "text/csv", nil)

	out, err := f.pipeline.Process(context.Background(), evt)
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	a.Contains(out.Reason, "no columns")
}

// Redelivery of a completed event must be harmless.
func TestProcessIdempotent(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	f := newFixture(t, nil)
	evt := f.put(t, "a.csv", "text/csv", []byte("data_id,value\n1,2\n"))

	out, err := f.pipeline.Process(ctx, evt)
	r.NoError(err)
	r.Equal(types.Completed, out.Kind)
	first, _, found := f.store.Get(dest, "a.csv")
	r.True(found)

	out, err = f.pipeline.Process(ctx, evt)
	r.NoError(err)
	a.Equal(types.Skipped, out.Kind)

	second, _, found := f.store.Get(dest, "a.csv")
	r.True(found)
	a.Equal(first, second)
}

// Interrupting a run between the write and the delete leaves a state
// from which a redelivered event completes.
func TestProcessRecoversAfterCleanupFailure(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	f := newFixture(t, nil)
	evt := f.put(t, "a.csv", "text/csv", []byte("data_id,value\n1,2\n"))

	boom := errors.New("connection reset")
	faulty := New(f.pipeline.cfg, &faultyStore{Store: f.store, removeErr: boom})
	out, err := faulty.Process(ctx, evt)
	r.ErrorIs(err, boom)
	var cleanupErr *CleanupError
	a.True(errors.As(err, &cleanupErr))
	a.Equal(types.Failed, out.Kind)
	a.Equal(types.Written, out.Stage)

	_, _, found := f.store.Get(source, "a.csv")
	a.True(found)
	first, _, found := f.store.Get(dest, "a.csv")
	a.True(found)

	out, err = f.pipeline.Process(ctx, evt)
	r.NoError(err)
	a.Equal(types.Completed, out.Kind)
	second, _, _ := f.store.Get(dest, "a.csv")
	a.Equal(first, second)
	_, _, found = f.store.Get(source, "a.csv")
	a.False(found)
}

func TestProcessFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		store func(*faultyStore)
		stage types.Stage
	}{
		{"stat", func(s *faultyStore) { s.statErr = boom }, types.Received},
		{"open", func(s *faultyStore) { s.openErr = boom }, types.Validated},
		{"put", func(s *faultyStore) { s.putErr = boom }, types.Transformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			f := newFixture(t, nil)
			evt := f.put(t, "a.csv", "text/csv", []byte("data_id,value\n1,2\n"))

			faulty := &faultyStore{Store: f.store}
			tt.store(faulty)
			out, err := New(f.pipeline.cfg, faulty).Process(context.Background(), evt)
			a.ErrorIs(err, boom)
			a.Equal(types.Failed, out.Kind)
			a.Equal(tt.stage, out.Stage)

			_, _, found := f.store.Get(source, "a.csv")
			a.True(found)
		})
	}
}

func TestProcessMissing(t *testing.T) {
	a := assert.New(t)

	f := newFixture(t, nil)
	out, err := f.pipeline.Process(context.Background(),
		&types.Event{Container: source, Key: "never.csv"})
	a.NoError(err)
	a.Equal(types.Skipped, out.Kind)
}

func TestProcessDestinationEvent(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	ctx := context.Background()

	f := newFixture(t, nil)
	r.NoError(f.store.Put(ctx, dest, "a.csv", []byte("data_id,value\n1,2\n"), "text/csv"))

	out, err := f.pipeline.Process(ctx, &types.Event{Container: dest, Key: "a.csv"})
	r.NoError(err)
	a.Equal(types.Aborted, out.Kind)
	_, _, found := f.store.Get(dest, "a.csv")
	a.True(found)
}

func TestProcessConcurrent(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, nil)
	const count = 32
	events := make([]*types.Event, count)
	for idx := range events {
		events[idx] = f.put(t, fmt.Sprintf("f%02d.csv", idx), "text/csv",
			[]byte(fmt.Sprintf("data_id,value\n%d,x\n", idx)))
	}

	errs := make(chan error, count)
	for _, evt := range events {
		evt := evt
		go func() {
			_, err := f.pipeline.Process(ctx, evt)
			errs <- err
		}()
	}
	for range events {
		a.NoError(<-errs)
	}
	for _, evt := range events {
		_, _, found := f.store.Get(dest, evt.Key)
		a.True(found)
	}
}

func TestDiagnostic(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	diag, ok := f.pipeline.Diagnostic(context.Background()).(map[string]any)
	a.True(ok)
	a.Equal(dest, diag["destination"])
	a.Equal([]string{"data_id", "value"}, diag["expect"])
}
