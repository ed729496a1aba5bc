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

// Package logfmt contains helpers for configuring the log output.
package logfmt

import (
	"fmt"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	log "github.com/sirupsen/logrus"
)

const (
	detailKey   = "detail"
	notFoundKey = "notFound"
)

// Wrap adds a workaround for there being no support for automatically
// printing the details of an error to expose the stack trace. This
// formatter adds an extra detail field to log entries that contain an
// ErrorKey. Errors that indicate an absent object are also flagged, to
// make them easy to filter out of an aggregated log stream.
//
// https://github.com/sirupsen/logrus/issues/895
func Wrap(f log.Formatter) log.Formatter {
	return &detailer{f}
}

type detailer struct {
	log.Formatter
}

// Format implements log.Formatter.
func (d *detailer) Format(e *log.Entry) ([]byte, error) {
	messageCount.WithLabelValues(e.Level.String()).Inc()
	if e.Data != nil {
		if err, ok := e.Data[log.ErrorKey].(error); ok {
			// Don't overwrite anywhere there may already be a detail key.
			if _, existing := e.Data[detailKey]; !existing {
				e.Data[detailKey] = fmt.Sprintf("%+v", err)
			}
			if bucket.IsNotFound(err) {
				e.Data[notFoundKey] = true
				notFoundCount.Inc()
			}
		}
	}
	return d.Formatter.Format(e)
}
