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

package types

import "fmt"

// Stage identifies a step of the per-event state machine.
type Stage int

// The stages, in the order in which a run passes through them.
const (
	Received Stage = iota
	Validated
	Loaded
	SchemaChecked
	Transformed
	Written
	SourceDeleted
)

var stageNames = [...]string{
	Received:      "received",
	Validated:     "validated",
	Loaded:        "loaded",
	SchemaChecked: "schema_checked",
	Transformed:   "transformed",
	Written:       "written",
	SourceDeleted: "source_deleted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// OutcomeKind is the terminal state of a run.
type OutcomeKind int

// The terminal states.
const (
	// Completed runs reached SourceDeleted.
	Completed OutcomeKind = iota
	// Aborted runs stopped on input that will never become valid.
	// The source object is left in place and no retry is requested.
	Aborted
	// Failed runs stopped on an error that is reported to the caller,
	// which is expected to redeliver the event.
	Failed
	// Skipped runs found no source object. This is the expected result
	// of a redelivered event whose first run completed.
	Skipped
)

var outcomeNames = [...]string{
	Completed: "completed",
	Aborted:   "aborted",
	Failed:    "failed",
	Skipped:   "skipped",
}

// OutcomeKinds lists every terminal state, for metric initialization.
var OutcomeKinds = []OutcomeKind{Completed, Aborted, Failed, Skipped}

func (k OutcomeKind) String() string {
	if k < 0 || int(k) >= len(outcomeNames) {
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
	return outcomeNames[k]
}

// Outcome is the terminal result of one run.
type Outcome struct {
	Kind   OutcomeKind
	Stage  Stage  // The last stage successfully reached.
	Reason string // Populated for Aborted and Skipped runs.
	Err    error  // Populated for Failed runs.
}

// String is for debugging use only.
func (o *Outcome) String() string {
	switch o.Kind {
	case Aborted, Skipped:
		return fmt.Sprintf("%s at %s: %s", o.Kind, o.Stage, o.Reason)
	case Failed:
		return fmt.Sprintf("%s at %s: %v", o.Kind, o.Stage, o.Err)
	default:
		return fmt.Sprintf("%s at %s", o.Kind, o.Stage)
	}
}
