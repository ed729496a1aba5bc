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

// Package pipeline contains the per-event processing state machine. An
// arrival event for a delimited-text object is validated against the
// object's metadata, parsed, checked against the expected schema,
// marked as processed, written to a destination container, and finally
// deleted from its source container.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Pipeline implements types.Processor.
type Pipeline struct {
	cfg         *Config
	cleanup     *Cleanup
	loader      *Loader
	store       bucket.Store
	transformer *Transformer
	validator   *Validator
	writer      *Writer
}

var _ types.Processor = (*Pipeline)(nil)

// New constructs a Pipeline. The configuration must have passed
// Preflight.
func New(cfg *Config, store bucket.Store) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		cleanup: NewCleanup(store),
		loader:  NewLoader(cfg.comma),
		store:   store,
		transformer: &Transformer{
			Column: cfg.MarkerColumn,
			Value:  cfg.MarkerValue,
		},
		validator: NewValidator(
			MaxSize(cfg.MaxSizeMB),
			ContentType(cfg.ContentType),
		),
		writer: NewWriter(store, cfg.comma),
	}
}

// Diagnostic implements diag.Diagnostic.
func (p *Pipeline) Diagnostic(_ context.Context) any {
	return map[string]any{
		"contentType":  p.cfg.ContentType,
		"delimiter":    p.cfg.Delimiter,
		"destination":  p.cfg.Destination,
		"expect":       p.cfg.schema.Columns(),
		"markerColumn": p.cfg.MarkerColumn,
		"maxSizeMB":    p.cfg.MaxSizeMB,
		"schemaErrors": p.cfg.SchemaErrors,
	}
}

// Process runs the pipeline for a single event. Exactly one Outcome is
// returned. The error is non-nil only for a Failed outcome.
func (p *Pipeline) Process(ctx context.Context, evt *types.Event) (*types.Outcome, error) {
	entry := log.WithFields(log.Fields{
		"container": evt.Container,
		"event":     evt.ID,
		"key":       evt.Key,
	})
	entry.Infof("Start processing %s", evt.Key)
	start := time.Now()

	run := &run{Pipeline: p, entry: entry, evt: evt, start: start}
	out := run.execute(ctx)

	outcomeCount.WithLabelValues(out.Kind.String()).Inc()
	runDuration.WithLabelValues(out.Kind.String()).Observe(time.Since(start).Seconds())

	entry = entry.WithFields(log.Fields{
		"outcome": out.Kind.String(),
		"stage":   out.Stage.String(),
	})
	switch out.Kind {
	case types.Completed:
		entry.Infof("Finished processing %s", evt.Key)
	case types.Skipped:
		entry.Infof("Finished processing %s: %s", evt.Key, out.Reason)
	case types.Aborted:
		// Logged by the stage which aborted.
		entry.Infof("Finished processing %s", evt.Key)
	case types.Failed:
		entry.WithError(out.Err).Errorf("Failed processing %s", evt.Key)
		return out, out.Err
	}
	return out, nil
}

// run holds the state of a single execution.
type run struct {
	*Pipeline
	entry *log.Entry
	evt   *types.Event
	stage types.Stage
	start time.Time
}

// advance records that the run has reached the next stage.
func (r *run) advance(stage types.Stage) {
	r.stage = stage
	stageDuration.WithLabelValues(stage.String()).Observe(time.Since(r.start).Seconds())
	r.entry.Tracef("reached %s", stage)
}

func (r *run) aborted(reason string) *types.Outcome {
	return &types.Outcome{Kind: types.Aborted, Stage: r.stage, Reason: reason}
}

func (r *run) failed(err error) *types.Outcome {
	return &types.Outcome{Kind: types.Failed, Stage: r.stage, Err: err}
}

func (r *run) skipped(reason string) *types.Outcome {
	return &types.Outcome{Kind: types.Skipped, Stage: r.stage, Reason: reason}
}

func (r *run) execute(ctx context.Context) *types.Outcome {
	r.advance(types.Received)

	if r.evt.Container == "" || r.evt.Key == "" {
		r.entry.Warn("event does not name an object")
		return r.aborted("event does not name an object")
	}
	// Writing into the watched container would trigger another event
	// for the output object.
	if r.evt.Container == r.cfg.Destination {
		r.entry.Warnf("ignoring object in destination container %s", r.cfg.Destination)
		return r.aborted("source container is the destination container")
	}

	src, err := r.store.Stat(ctx, r.evt.Container, r.evt.Key)
	if err != nil {
		if bucket.IsNotFound(err) {
			return r.skipped("source object not found")
		}
		return r.failed(errors.Wrapf(err, "could not stat %s", r.evt))
	}

	if err := r.validator.Validate(src); err != nil {
		r.entry.WithError(err).Warn("validation failed")
		return r.aborted(err.Error())
	}
	sourceBytes.Observe(float64(src.Size))
	r.advance(types.Validated)

	buf, err := r.read(ctx, src)
	if err != nil {
		if bucket.IsNotFound(err) {
			return r.skipped("source object not found")
		}
		return r.failed(err)
	}

	records, err := r.loader.Load(src.Key, buf)
	if err != nil {
		r.entry.WithError(err).Error("could not load object")
		return r.aborted(err.Error())
	}
	r.advance(types.Loaded)

	if err := CheckSchema(src.Key, records, r.cfg.schema); err != nil {
		if r.cfg.abortOnSchema {
			r.entry.WithError(err).Error("schema check failed")
			return r.aborted(err.Error())
		}
		return r.failed(err)
	}
	r.advance(types.SchemaChecked)

	out := r.transformer.Transform(records)
	r.advance(types.Transformed)

	dest := &types.ObjectRef{
		Container:   r.cfg.Destination,
		Key:         src.Key,
		ContentType: r.cfg.ContentType,
	}
	if err := r.writer.Write(ctx, out, dest); err != nil {
		return r.failed(err)
	}
	rowCount.Add(float64(out.Len()))
	r.advance(types.Written)
	r.entry.Debugf("wrote %d rows to %s", out.Len(), dest)

	if err := r.cleanup.Delete(ctx, src); err != nil {
		return r.failed(err)
	}
	r.advance(types.SourceDeleted)
	return &types.Outcome{Kind: types.Completed, Stage: r.stage}
}

// read returns the entire content of the object, as long as it has
// not changed since it was validated.
func (r *run) read(ctx context.Context, src *types.ObjectRef) ([]byte, error) {
	rd, err := r.store.Open(ctx, src)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", src)
	}
	defer func() { _ = rd.Close() }()
	buf, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", src)
	}
	return buf, nil
}
