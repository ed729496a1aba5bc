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

package logfmt

import (
	"testing"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetail(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	f := Wrap(&log.JSONFormatter{})
	logger := log.New()

	entry := logger.WithError(errors.Wrap(bucket.ErrNoSuchKey, "in/a.csv"))
	entry.Level = log.WarnLevel
	out, err := f.Format(entry)
	r.NoError(err)
	a.Contains(string(out), `"detail":"no such key`)
	a.Contains(string(out), "in/a.csv")
	a.Contains(string(out), `"notFound":true`)

	entry = logger.WithError(errors.New("boom")).WithField(detailKey, "custom")
	out, err = f.Format(entry)
	r.NoError(err)
	a.Contains(string(out), `"detail":"custom"`)
	a.NotContains(string(out), notFoundKey)

	entry = logger.WithField("key", "a.csv")
	out, err = f.Format(entry)
	r.NoError(err)
	a.NotContains(string(out), detailKey)
}
