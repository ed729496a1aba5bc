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
	"unicode/utf8"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Defaults for the recognized options.
const (
	DefaultContentType  = "text/csv"
	DefaultMarkerColumn = "processed"
	DefaultMarkerValue  = "true"
	DefaultMaxSizeMB    = 5
)

// DefaultColumns is the default expected schema.
var DefaultColumns = []string{"data_id", "value"}

// Policies for schema mismatches.
const (
	// SchemaPropagate returns a SchemaError to the caller, which will
	// usually cause the event to be redelivered.
	SchemaPropagate = "propagate"
	// SchemaAbort treats a SchemaError like a LoadError.
	SchemaAbort = "abort"
)

// Config contains the user-visible configuration for a Pipeline.
type Config struct {
	ContentType   string   // The exact content-type required of sources.
	Delimiter     string   // A single-character field delimiter.
	Destination   string   // The container to write output objects to.
	ExpectColumns []string // The required set of column names.
	MarkerColumn  string   // The column appended by the transformation.
	MarkerValue   string   // The value written to the marker column.
	MaxSizeMB     float64  // The largest acceptable source object.
	SchemaErrors  string   // One of SchemaPropagate or SchemaAbort.

	// The following are computed.
	abortOnSchema bool
	comma         rune
	schema        types.Schema
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.ContentType, "contentType", DefaultContentType,
		"the exact content-type that source objects must declare; also used for output objects")
	f.StringVar(&c.Delimiter, "delimiter", ",",
		"the field delimiter of source objects; processed objects use the same delimiter")
	f.StringVar(&c.Destination, "destination", "",
		"the container to write processed objects to")
	f.StringSliceVar(&c.ExpectColumns, "expectColumn", DefaultColumns,
		"the set of columns that source objects must have; may be repeated or comma-separated")
	f.StringVar(&c.MarkerColumn, "markerColumn", DefaultMarkerColumn,
		"the column added to every row of a processed object")
	f.StringVar(&c.MarkerValue, "markerValue", DefaultMarkerValue,
		"the value of the marker column")
	f.Float64Var(&c.MaxSizeMB, "maxSizeMB", DefaultMaxSizeMB,
		"the largest source object to accept, in megabytes (10^6 bytes)")
	f.StringVar(&c.SchemaErrors, "schemaErrors", SchemaPropagate,
		"how to handle objects with unexpected columns: propagate (report failure, "+
			"the event may be redelivered) or abort (log and leave the object in place)")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if c.ContentType == "" {
		c.ContentType = DefaultContentType
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if len(c.ExpectColumns) == 0 {
		c.ExpectColumns = DefaultColumns
	}
	if c.MarkerColumn == "" {
		c.MarkerColumn = DefaultMarkerColumn
	}
	if c.MarkerValue == "" {
		c.MarkerValue = DefaultMarkerValue
	}
	if c.SchemaErrors == "" {
		c.SchemaErrors = SchemaPropagate
	}

	if c.Destination == "" {
		return errors.New("no destination container specified")
	}
	if c.MaxSizeMB <= 0 {
		return errors.Errorf("maxSizeMB must be positive, got %g", c.MaxSizeMB)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return errors.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	c.comma, _ = utf8.DecodeRuneInString(c.Delimiter)
	if c.comma == '"' || c.comma == '\r' || c.comma == '\n' || c.comma == utf8.RuneError {
		return errors.Errorf("invalid delimiter %q", c.Delimiter)
	}
	c.schema = types.NewSchema(c.ExpectColumns...)
	if len(c.schema) != len(c.ExpectColumns) {
		return errors.Errorf("duplicate names in expected columns %q", c.ExpectColumns)
	}
	if _, empty := c.schema[""]; empty {
		return errors.New("expected columns must have non-empty names")
	}
	switch c.SchemaErrors {
	case SchemaPropagate:
		c.abortOnSchema = false
	case SchemaAbort:
		c.abortOnSchema = true
	default:
		return errors.Errorf("unknown schemaErrors policy %q", c.SchemaErrors)
	}
	return nil
}
