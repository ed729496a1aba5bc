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

// Package stdserver contains a generic HTTP server that can be used by
// sources that receive notifications over HTTP.
package stdserver

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/csvpipe/internal/util/stdlogical"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// drainTime bounds the graceful shutdown of in-flight requests.
const drainTime = 30 * time.Second

// A Server receives incoming notifications.
type Server struct {
	addr  net.Addr
	diags *diag.Diagnostics
	mux   *http.ServeMux
	token string
}

var (
	_ stdlogical.HasDiagnostics = (*Server)(nil)
	_ stdlogical.HasServeMux    = (*Server)(nil)
	_ stdlogical.HasToken       = (*Server)(nil)
)

// Addr returns the address that the server is bound to.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// GetDiagnostics implements [stdlogical.HasDiagnostics].
func (s *Server) GetDiagnostics() *diag.Diagnostics {
	return s.diags
}

// GetServeMux implements [stdlogical.HasServeMux].
func (s *Server) GetServeMux() *http.ServeMux {
	return s.mux
}

// GetToken implements [stdlogical.HasToken].
func (s *Server) GetToken() string {
	return s.token
}

// New constructs the top-level network server. The server will
// execute on a background goroutine and will gracefully drain once the
// context begins to stop.
func New(
	ctx *stopper.Context,
	config *Config,
	diags *diag.Diagnostics,
	listener net.Listener,
	mux *http.ServeMux,
	tlsConfig *tls.Config,
) *Server {
	srv := &http.Server{
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConfig,
	}

	ctx.Go(func(ctx *stopper.Context) error {
		var err error
		if srv.TLSConfig != nil {
			err = srv.ServeTLS(listener, "", "")
		} else {
			err = srv.Serve(listener)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "unable to serve requests")
	})
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		// The stopper's own context may already be canceled.
		drain, cancel := context.WithTimeout(context.Background(), drainTime)
		defer cancel()
		if err := srv.Shutdown(drain); err != nil {
			log.WithError(err).Error("did not shut down cleanly")
		} else {
			log.Info("Server shutdown complete")
		}
		return nil
	})

	return &Server{
		addr:  listener.Addr(),
		diags: diags,
		mux:   mux,
		token: config.Token,
	}
}

// Mux constructs the http.ServeMux that routes requests.
func Mux(handler http.Handler) *http.ServeMux {
	mux := &http.ServeMux{}
	mux.HandleFunc("/_/healthz", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "OK", http.StatusOK)
	})
	mux.Handle("/", logWrapper(handler))
	return mux
}
