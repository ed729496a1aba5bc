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
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/csvrec"
)

// A Loader parses an object's content into a RecordSet.
type Loader struct {
	parser csvrec.Parser
}

// NewLoader constructs a Loader for the given field delimiter. A zero
// delimiter selects a comma.
func NewLoader(comma rune) *Loader {
	return &Loader{parser: csvrec.Parser{Comma: comma}}
}

// Load returns a *LoadError if the content is empty or is not
// well-formed delimited text.
func (l *Loader) Load(key string, buf []byte) (*types.RecordSet, error) {
	records, err := l.parser.Parse(buf)
	if err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	return records, nil
}
