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
	"fmt"
	"strings"
)

// A ValidationError reports the first validation rule that an object's
// metadata failed. The run is aborted and will not be retried.
type ValidationError struct {
	Key    string // The object key.
	Rule   string // The name of the failing rule.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("object %s failed %s validation: %s", e.Key, e.Rule, e.Reason)
}

// A LoadError reports that an object's content could not be parsed.
// Unparsable input will not become parsable on redelivery, so the run
// is aborted and the error is not returned to the caller.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load %s: %v", e.Key, e.Err)
}

// Unwrap returns the parse error.
func (e *LoadError) Unwrap() error { return e.Err }

// A SchemaError reports that the parsed columns do not match the
// expected schema.
type SchemaError struct {
	Key      string
	Actual   []string // Sorted.
	Expected []string // Sorted.
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected columns in %s: have [%s], expected [%s]",
		e.Key, strings.Join(e.Actual, ", "), strings.Join(e.Expected, ", "))
}

// A WriteError reports a failure to persist the transformed records.
type WriteError struct {
	Container string
	Key       string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("could not write %s/%s: %v", e.Container, e.Key, e.Err)
}

// Unwrap returns the storage error.
func (e *WriteError) Unwrap() error { return e.Err }

// A CleanupError reports a failure to delete the source object, other
// than the object already being absent.
type CleanupError struct {
	Container string
	Key       string
	Err       error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("could not delete %s/%s: %v", e.Container, e.Key, e.Err)
}

// Unwrap returns the storage error.
func (e *CleanupError) Unwrap() error { return e.Err }
