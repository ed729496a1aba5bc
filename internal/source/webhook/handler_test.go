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

package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProcessor returns a canned outcome for each key.
type mockProcessor struct {
	mu       sync.Mutex
	outcomes map[string]*types.Outcome
	seen     []string
}

var _ types.Processor = &mockProcessor{}

func (m *mockProcessor) Process(_ context.Context, evt *types.Event) (*types.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, evt.Key)
	out, ok := m.outcomes[evt.Key]
	if !ok {
		out = &types.Outcome{Kind: types.Completed, Stage: types.SourceDeleted}
	}
	return out, out.Err
}

func object(key string) string {
	return `{"kind":"storage#object","bucket":"in","name":"` + key + `","size":"10","contentType":"text/csv"}`
}

func TestHandler(t *testing.T) {
	boom := errors.New("write failed")
	proc := &mockProcessor{outcomes: map[string]*types.Outcome{
		"aborted.csv": {Kind: types.Aborted, Stage: types.Received, Reason: "too big"},
		"failed.csv":  {Kind: types.Failed, Stage: types.Transformed, Err: boom},
		"skipped.csv": {Kind: types.Skipped, Stage: types.Received, Reason: "source object not found"},
	}}
	h := &Handler{Processor: proc, Token: "s3cret"}

	tcs := []struct {
		name    string
		method  string
		auth    string
		header  map[string]string
		body    string
		status  int
		outcome string
	}{
		{name: "completed", body: object("a.csv"), status: http.StatusOK, outcome: "completed"},
		{name: "aborted", body: object("aborted.csv"), status: http.StatusOK, outcome: "aborted"},
		{name: "skipped", body: object("skipped.csv"), status: http.StatusOK, outcome: "skipped"},
		{name: "failed", body: object("failed.csv"), status: http.StatusInternalServerError, outcome: "failed"},
		{name: "bad json", body: "{", status: http.StatusBadRequest},
		{name: "unknown", body: `{"hello":"world"}`, status: http.StatusBadRequest},
		{name: "no token", auth: "-", body: object("a.csv"), status: http.StatusUnauthorized},
		{name: "wrong token", auth: "Bearer nope", body: object("a.csv"), status: http.StatusUnauthorized},
		{name: "get", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{
			name:   "ignored cloudevent",
			header: map[string]string{CloudEventTypeHeader: "google.cloud.storage.object.v1.deleted"},
			body:   object("a.csv"),
			status: http.StatusOK,
		},
		{
			name:    "finalized cloudevent",
			header:  map[string]string{CloudEventTypeHeader: "google.cloud.storage.object.v1.finalized"},
			body:    object("a.csv"),
			status:  http.StatusOK,
			outcome: "completed",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			method := tc.method
			if method == "" {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, "/", strings.NewReader(tc.body))
			switch tc.auth {
			case "":
				req.Header.Set("Authorization", "Bearer s3cret")
			case "-":
			default:
				req.Header.Set("Authorization", tc.auth)
			}
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			a.Equal(tc.status, w.Code)

			if tc.outcome == "" {
				return
			}
			var results []*result
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
			require.Len(t, results, 1)
			a.Equal(tc.outcome, results[0].Outcome)
			a.Equal("in", results[0].Container)
			if tc.outcome == "failed" {
				a.Contains(results[0].Error, "write failed")
			}
		})
	}
}

func TestHandlerMultipleRecords(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	boom := errors.New("boom")
	proc := &mockProcessor{outcomes: map[string]*types.Outcome{
		"b.csv": {Kind: types.Failed, Stage: types.Written, Err: boom},
	}}
	h := &Handler{Processor: proc}

	body := `{"Records":[
	  {"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"in"},"object":{"key":"a.csv"}}},
	  {"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"in"},"object":{"key":"b.csv"}}},
	  {"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"in"},"object":{"key":"c.csv"}}}
	]}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	// Every event is attempted, but the failure is reported.
	a.Equal(http.StatusInternalServerError, w.Code)
	a.Equal([]string{"a.csv", "b.csv", "c.csv"}, proc.seen)

	var results []*result
	r.NoError(json.Unmarshal(w.Body.Bytes(), &results))
	r.Len(results, 3)
	a.Equal("failed", results[1].Outcome)
	a.Equal("completed", results[2].Outcome)
}
