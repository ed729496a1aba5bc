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
	"crypto/tls"
	"net"
	"net/http"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/csvpipe/internal/util/stdserver"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideHandler,
	ProvideListener,
	ProvideMux,
	ProvideServer,
	ProvideTLSConfig,
)

// ProvideHandler is called by Wire.
func ProvideHandler(config *Config, processor types.Processor) *Handler {
	return &Handler{Processor: processor, Token: config.HTTP.Token}
}

// ProvideListener is called by Wire to construct the incoming network
// socket for the server.
func ProvideListener(
	ctx *stopper.Context, config *Config, diags *diag.Diagnostics,
) (net.Listener, error) {
	if err := config.HTTP.Preflight(); err != nil {
		return nil, err
	}
	return stdserver.Listener(ctx, &config.HTTP, diags)
}

// ProvideMux is called by Wire to construct the http.ServeMux that
// routes requests.
func ProvideMux(handler *Handler) *http.ServeMux {
	return stdserver.Mux(handler)
}

// ProvideServer is called by Wire to construct the top-level network
// server. The server runs on a background goroutine and drains once
// the context begins to stop.
func ProvideServer(
	ctx *stopper.Context,
	config *Config,
	diags *diag.Diagnostics,
	listener net.Listener,
	mux *http.ServeMux,
	tlsConfig *tls.Config,
) *stdserver.Server {
	return stdserver.New(ctx, &config.HTTP, diags, listener, mux, tlsConfig)
}

// ProvideTLSConfig is called by Wire to load the certificate and key
// from disk, to generate a self-signed localhost certificate, or to
// return nil if TLS has not been requested.
func ProvideTLSConfig(config *Config) (*tls.Config, error) {
	return stdserver.TLSConfig(&config.HTTP)
}
