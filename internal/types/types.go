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

// Package types contains data types and interfaces that define the
// major functional blocks of code within csvpipe. The goal of placing
// the types into this package is to make it easy to compose
// functionality without import cycles between the storage providers,
// the event sources, and the pipeline.
package types

import (
	"context"
	"fmt"
	"time"
)

// BytesPerMB is the divisor used to express object sizes in megabytes.
const BytesPerMB = 1_000_000

// An ObjectRef identifies a stored object and carries the metadata
// reported by the store. Values are immutable once read.
type ObjectRef struct {
	Container   string // The bucket holding the object.
	Key         string // The object name within the container.
	Size        int64  // Size in bytes.
	ContentType string // The declared content-type.
	Generation  string // Opaque version token, e.g. an ETag.
}

// SizeMB returns the object size in (decimal) megabytes.
func (r *ObjectRef) SizeMB() float64 {
	return float64(r.Size) / BytesPerMB
}

// String is for debugging use only.
func (r *ObjectRef) String() string {
	return fmt.Sprintf("%s/%s", r.Container, r.Key)
}

// An Event is an arrival notification for a single object. One Event
// triggers exactly one pipeline run. Sources deliver events
// at-least-once.
type Event struct {
	ID        string    // A source-specific identifier, may be empty.
	Kind      string    // The source-specific event type.
	Time      time.Time // When the notification was generated.
	Container string
	Key       string

	// Optional metadata carried by the notification itself. The
	// pipeline always re-reads the store's view of the object.
	ContentType string
	Generation  string
	Size        int64
}

// String is for debugging use only.
func (e *Event) String() string {
	return fmt.Sprintf("%s/%s", e.Container, e.Key)
}

// A Processor runs the pipeline for a single event. The returned error
// is non-nil if and only if the outcome is Failed, in which case the
// caller should arrange for the event to be redelivered.
type Processor interface {
	Process(ctx context.Context, evt *Event) (*Outcome, error)
}
