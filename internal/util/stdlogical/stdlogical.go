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

// Package stdlogical contains a template for building a standard
// long-running csvpipe command.
package stdlogical

import (
	"net"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers.
	"runtime"
	"runtime/debug"

	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Since we're installing the pprof handlers, we also want to enable
// profiling for blocking calls and mutex locking. This is a reasonable
// rate that's also used by CockroachDB proper.
func init() {
	runtime.SetBlockProfileRate(1000)
	runtime.SetMutexProfileFraction(1000)
}

// MetricsAddrFlag is a global flag that will start an HTTP server.
const MetricsAddrFlag = "metricsAddr"

// Config is our standard protocol for configuration objects.
type Config interface {
	Bind(set *pflag.FlagSet)
}

// HasDiagnostics allows the object to supply a [diag.Diagnostics].
type HasDiagnostics interface {
	GetDiagnostics() *diag.Diagnostics
}

// HasServeMux allows the object to provide a [http.ServeMux] to bind
// the endpoints to, if the [MetricsAddrFlag] is not set.
type HasServeMux interface {
	GetServeMux() *http.ServeMux
}

// HasToken allows the object to supply a bearer token that protects
// the diagnostic endpoint.
type HasToken interface {
	GetToken() string
}

// A Template contains the input for [New].
type Template struct {
	// An optional object for CLI flag registration.
	Config Config
	// An optional default value for [MetricsAddrFlag].
	Metrics string
	// Passed to [cobra.Command.Short].
	Short string
	// Start should return an object that implements zero or more of the
	// capability interfaces in this package.
	Start func(ctx *stopper.Context, cmd *cobra.Command) (started any, err error)
	// Passed to [cobra.Command.Use].
	Use string
	// Called once all setup has been completed.
	testCallback func()
}

// New constructs a standard long-running command.
func New(t *Template) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: t.Short,
		Use:   t.Use,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Print build info on startup so we always have a place
			// to start debugging from.
			if bi, ok := debug.ReadBuildInfo(); ok {
				info := make(log.Fields, len(bi.Settings))
				for _, s := range bi.Settings {
					info[s.Key] = s.Value
				}
				log.WithFields(info).Info("csvpipe starting")
			}

			// main.go provides a stopper.
			ctx := stopper.From(cmd.Context())

			started, err := t.Start(ctx, cmd)
			if err != nil {
				return err
			}

			var token string
			if x, ok := started.(HasToken); ok {
				token = x.GetToken()
			}

			// Find or create a Diagnostics instance.
			var diags *diag.Diagnostics
			if x, ok := started.(HasDiagnostics); ok {
				diags = x.GetDiagnostics()
			} else {
				diags = diag.New(ctx)
			}

			// Start metrics on a separate port or bind to an existing mux.
			if metricsAddr != "" {
				if err := MetricsServer(ctx, token, metricsAddr, diags); err != nil {
					return err
				}
			} else if x, ok := started.(HasServeMux); ok {
				AddHandlers(token, x.GetServeMux(), diags)
			}

			if t.testCallback != nil {
				t.testCallback()
			}
			// Wait for shutdown, then for background work to drain.
			<-ctx.Stopping()
			return ctx.Wait()
		},
	}
	if t.Config != nil {
		t.Config.Bind(cmd.Flags())
	}
	cmd.Flags().StringVar(&metricsAddr, MetricsAddrFlag, t.Metrics,
		"a host:port on which to serve metrics and diagnostics")
	return cmd
}

// AddHandlers populates the ServeMux with diagnostic endpoints.
func AddHandlers(token string, mux *http.ServeMux, diags *diag.Diagnostics) {
	// The pprof handlers attach themselves to the system-default mux.
	// The index page also assumes that the handlers are reachable from
	// this specific prefix.
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/_/diag", diags.Handler(token))
	mux.Handle("/_/varz", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				ErrorLog:          log.StandardLogger().WithField("promhttp", "true"),
			})))
	mux.Handle("/_/", http.NotFoundHandler()) // Reserve all under /_/
}

// MetricsServer starts a trivial HTTP server which runs until the
// context is stopped.
func MetricsServer(
	ctx *stopper.Context, token string, bindAddr string, diags *diag.Diagnostics,
) error {
	mux := &http.ServeMux{}
	mux.HandleFunc("/_/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	AddHandlers(token, mux, diags)
	mux.Handle("/", http.NotFoundHandler())

	l, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return errors.WithStack(err)
	}
	srv := &http.Server{
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}
	log.Infof("metrics server bound to %s", l.Addr())
	ctx.Go(func(ctx *stopper.Context) error {
		if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics server exited")
		}
		return nil
	})
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		_ = srv.Close()
		return nil
	})
	return nil
}
