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

import (
	"slices"
	"sort"
)

// A Row maps a column name to its value.
type Row map[string]string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	ret := make(Row, len(r)+1)
	for k, v := range r {
		ret[k] = v
	}
	return ret
}

// A RecordSet is an in-memory table. Stages that change a RecordSet
// return a new value rather than mutating their input.
type RecordSet struct {
	Columns []string // Column names, in file order.
	Rows    []Row    // Rows, in file order.
}

// Len returns the number of rows.
func (s *RecordSet) Len() int {
	return len(s.Rows)
}

// Values returns the row's values, ordered by Columns.
func (s *RecordSet) Values(idx int) []string {
	row := s.Rows[idx]
	ret := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		ret[i] = row[col]
	}
	return ret
}

// A Schema is the unordered set of column names that a RecordSet must
// have, no more and no less.
type Schema map[string]struct{}

// NewSchema constructs a Schema from the given names.
func NewSchema(columns ...string) Schema {
	ret := make(Schema, len(columns))
	for _, col := range columns {
		ret[col] = struct{}{}
	}
	return ret
}

// Columns returns the names in the schema, sorted.
func (s Schema) Columns() []string {
	ret := make([]string, 0, len(s))
	for col := range s {
		ret = append(ret, col)
	}
	sort.Strings(ret)
	return ret
}

// Matches returns true if the columns are set-equal to the schema.
// Column order is ignored.
func (s Schema) Matches(columns []string) bool {
	seen := NewSchema(columns...)
	if len(seen) != len(s) {
		return false
	}
	for col := range seen {
		if _, ok := s[col]; !ok {
			return false
		}
	}
	return true
}

// SortedColumns returns a sorted copy of the given names.
func SortedColumns(columns []string) []string {
	ret := slices.Clone(columns)
	sort.Strings(ret)
	return ret
}
