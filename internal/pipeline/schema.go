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

import "github.com/cockroachdb/csvpipe/internal/types"

// CheckSchema returns a *SchemaError if the record set's columns are
// not set-equal to the expected schema. Row content is not inspected.
func CheckSchema(key string, records *types.RecordSet, expected types.Schema) error {
	if expected.Matches(records.Columns) {
		return nil
	}
	return &SchemaError{
		Key:      key,
		Actual:   types.SortedColumns(records.Columns),
		Expected: expected.Columns(),
	}
}
