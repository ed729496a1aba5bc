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

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/csvrec"
)

// A Writer serializes record sets to the destination container, using
// the same delimiter as the source objects.
type Writer struct {
	encoder csvrec.Encoder
	store   bucket.Store
}

// NewWriter constructs a Writer. A zero comma selects ','.
func NewWriter(store bucket.Store, comma rune) *Writer {
	return &Writer{encoder: csvrec.Encoder{Comma: comma}, store: store}
}

// Write replaces any existing object at the destination with the
// encoded records, declaring the destination's content-type. Errors
// are reported as a *WriteError.
func (w *Writer) Write(ctx context.Context, records *types.RecordSet, dest *types.ObjectRef) error {
	buf, err := w.encoder.Marshal(records)
	if err != nil {
		return &WriteError{Container: dest.Container, Key: dest.Key, Err: err}
	}
	if err := w.store.Put(ctx, dest.Container, dest.Key, buf, dest.ContentType); err != nil {
		return &WriteError{Container: dest.Container, Key: dest.Key, Err: err}
	}
	return nil
}
