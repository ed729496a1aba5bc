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
	"slices"

	"github.com/cockroachdb/csvpipe/internal/types"
)

// A Transformer marks every row as processed.
type Transformer struct {
	Column string // The marker column, appended if not already present.
	Value  string // The marker value.
}

// Transform returns a new RecordSet with the marker column set on every
// row. The input is not modified and the original columns and rows
// keep their order. If the input already has the marker column, its
// values are replaced in place.
func (t *Transformer) Transform(records *types.RecordSet) *types.RecordSet {
	columns := slices.Clone(records.Columns)
	if !slices.Contains(columns, t.Column) {
		columns = append(columns, t.Column)
	}
	rows := make([]types.Row, len(records.Rows))
	for idx, row := range records.Rows {
		next := row.Clone()
		next[t.Column] = t.Value
		rows[idx] = next
	}
	return &types.RecordSet{Columns: columns, Rows: rows}
}
