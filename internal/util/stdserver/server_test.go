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

package stdserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflight(t *testing.T) {
	tcs := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "ok", cfg: Config{BindAddr: ":0"}},
		{name: "no addr", cfg: Config{}, wantErr: "bindAddr unset"},
		{name: "half tls", cfg: Config{BindAddr: ":0", TLSCertFile: "x"}, wantErr: "both"},
		{
			name:    "conflict",
			cfg:     Config{BindAddr: ":0", TLSCertFile: "x", TLSPrivateKey: "y", GenerateSelfSigned: true},
			wantErr: "self-signed",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Preflight()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestSelfSigned(t *testing.T) {
	r := require.New(t)
	cfg, err := TLSConfig(&Config{GenerateSelfSigned: true})
	r.NoError(err)
	r.NotNil(cfg)
	r.Len(cfg.Certificates, 1)

	cfg, err = TLSConfig(&Config{})
	r.NoError(err)
	r.Nil(cfg)
}

func TestWrapper(t *testing.T) {
	tcs := []struct {
		name    string
		handler http.HandlerFunc
		expect  int
	}{
		{
			name:    "implicit ok",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("hi")) },
			expect:  http.StatusOK,
		},
		{
			name:    "explicit",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) },
			expect:  http.StatusTeapot,
		},
		{
			name:    "panic",
			handler: func(http.ResponseWriter, *http.Request) { panic("boom") },
			expect:  http.StatusInternalServerError,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			logWrapper(tc.handler).ServeHTTP(w, req)
			assert.Equal(t, tc.expect, w.Code)
		})
	}
}

func TestServer(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	ctx := stopper.WithContext(context.Background())
	cfg := &Config{BindAddr: "127.0.0.1:0", Token: "s3cret"}
	diags := diag.New(ctx)

	l, err := Listener(ctx, cfg, diags)
	r.NoError(err)
	mux := Mux(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	srv := New(ctx, cfg, diags, l, mux, nil)
	a.Equal("s3cret", srv.GetToken())
	a.Same(mux, srv.GetServeMux())

	base := "http://" + srv.Addr().String()
	resp, err := http.Get(base + "/_/healthz")
	r.NoError(err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	a.Equal(http.StatusOK, resp.StatusCode)
	a.Contains(string(body), "OK")

	resp, err = http.Post(base+"/", "application/json", nil)
	r.NoError(err)
	_ = resp.Body.Close()
	a.Equal(http.StatusAccepted, resp.StatusCode)

	ctx.Stop(time.Second)
	r.NoError(ctx.Wait())
}
