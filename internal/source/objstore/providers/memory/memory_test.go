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

package memory

import (
	"context"
	"testing"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuite(t *testing.T) {
	(&storetest.Suite{
		Container:           "bucket",
		DetectsAbsentRemove: true,
		Store:               New(),
	}).Run(t)
}

func TestGetCopies(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	s := New()
	data := []byte("hello")
	r.NoError(s.Put(context.Background(), "c", "k", data, "text/plain"))
	data[0] = 'j'

	got, contentType, ok := s.Get("c", "k")
	r.True(ok)
	a.Equal("hello", string(got))
	a.Equal("text/plain", contentType)

	_, _, ok = s.Get("c", "missing")
	a.False(ok)
}
