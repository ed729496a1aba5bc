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

package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics(t *testing.T) {
	r := require.New(t)

	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(0)

	d := New(ctx)

	var didCall atomic.Bool
	r.NoError(d.Register("foo", DiagnosticFn(func(context.Context) any {
		didCall.Store(true)
		return "XYZZY"
	})))
	r.ErrorContains(d.Register("foo", nil), "foo already registered")

	var buf strings.Builder
	r.NoError(d.Write(context.Background(), &buf, false))
	r.True(didCall.Load())
	// The exact contents are sensitive to the build.
	r.Contains(buf.String(), "XYZZY")

	d.Unregister("foo")
	buf.Reset()
	r.NoError(d.Write(context.Background(), &buf, false))
	r.NotContains(buf.String(), "XYZZY")
}

func TestHandler(t *testing.T) {
	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(0)

	d := New(ctx)

	tcs := []struct {
		name   string
		token  string
		header string
		expect int
	}{
		{name: "open", expect: http.StatusOK},
		{name: "good token", token: "s3cret", header: "Bearer s3cret", expect: http.StatusOK},
		{name: "bad token", token: "s3cret", header: "Bearer nope", expect: http.StatusForbidden},
		{name: "no token", token: "s3cret", expect: http.StatusForbidden},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			// The path is irrelevant here.
			req := httptest.NewRequest(http.MethodGet, "/_/diag", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			d.Handler(tc.token).ServeHTTP(w, req)
			a.Equal(tc.expect, w.Code)
			if w.Code == http.StatusOK {
				var payload map[string]any
				a.NoError(json.Unmarshal(w.Body.Bytes(), &payload))
				a.Contains(payload, "cmd")
				a.Contains(payload, "started")
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tcs := []struct {
		args   []string
		expect []string
	}{
		{
			args:   []string{"csvpipe", "start", "--webhookToken", "s3cret", "-v"},
			expect: []string{"csvpipe", "start", "--webhookToken", redacted, "-v"},
		},
		{
			args:   []string{"csvpipe", "--storageURL=s3://b?AWS_SECRET_ACCESS_KEY=x", "--destination", "out"},
			expect: []string{"csvpipe", "--storageURL=" + redacted, "--destination", "out"},
		},
		{
			args:   []string{"csvpipe", "kafka", "--saslPassword"},
			expect: []string{"csvpipe", "kafka", "--saslPassword"},
		},
		{
			args:   []string{"csvpipe", "process", "storageURL", "--key", "a.csv"},
			expect: []string{"csvpipe", "process", "storageURL", "--key", "a.csv"},
		},
	}
	for _, tc := range tcs {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			a := assert.New(t)
			in := append([]string(nil), tc.args...)
			a.Equal(tc.expect, Redact(in))
			a.Equal(tc.args, in, "input must not be modified")
		})
	}
}
