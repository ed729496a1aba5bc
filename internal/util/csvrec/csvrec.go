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

// Package csvrec converts between delimited text and record sets.
package csvrec

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
)

var bom = []byte("\xef\xbb\xbf")

// ErrEmpty is returned when the input contains no header row.
var ErrEmpty = errors.New("no columns to parse from input")

// Parser reads delimited text whose first row names the columns.
type Parser struct {
	Comma rune // Field delimiter; defaults to ','.
}

// Parse reads the entire input into a RecordSet. Every row must have
// as many fields as the header, and the header names must be unique
// and non-empty.
func (p *Parser) Parse(buf []byte) (*types.RecordSet, error) {
	buf = bytes.TrimPrefix(buf, bom)
	if !utf8.Valid(buf) {
		return nil, errors.New("input is not valid UTF-8")
	}
	reader := csv.NewReader(bytes.NewReader(buf))
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}
	// Require each row to have as many fields as the header.
	reader.FieldsPerRecord = 0
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.WithStack(ErrEmpty)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not read header")
	}
	seen := make(map[string]struct{}, len(header))
	for idx, col := range header {
		if col == "" {
			return nil, errors.Errorf("column %d has an empty name", idx+1)
		}
		if _, dup := seen[col]; dup {
			return nil, errors.Errorf("duplicate column %q", col)
		}
		seen[col] = struct{}{}
	}

	ret := &types.RecordSet{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return ret, nil
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		row := make(types.Row, len(header))
		for idx, col := range header {
			row[col] = record[idx]
		}
		ret.Rows = append(ret.Rows, row)
	}
}

// Encoder writes record sets as delimited text.
type Encoder struct {
	Comma rune // Field delimiter; defaults to ','.
}

// Encode writes a header row followed by the data rows, with columns in
// the RecordSet's order.
func (e *Encoder) Encode(w io.Writer, records *types.RecordSet) error {
	out := csv.NewWriter(w)
	if e.Comma != 0 {
		out.Comma = e.Comma
	}
	if err := out.Write(records.Columns); err != nil {
		return errors.WithStack(err)
	}
	for idx := range records.Rows {
		if err := out.Write(records.Values(idx)); err != nil {
			return errors.WithStack(err)
		}
	}
	out.Flush()
	return errors.WithStack(out.Error())
}

// Marshal returns the encoded form of the RecordSet.
func (e *Encoder) Marshal(records *types.RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes comma-delimited records.
func Encode(w io.Writer, records *types.RecordSet) error {
	return (&Encoder{}).Encode(w, records)
}

// Marshal returns the comma-delimited form of the RecordSet.
func Marshal(records *types.RecordSet) ([]byte, error) {
	return (&Encoder{}).Marshal(records)
}
