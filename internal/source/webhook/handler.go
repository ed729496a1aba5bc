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

// Package webhook contains an HTTP endpoint that receives storage
// notifications and runs the pipeline for each object they describe.
package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/csvpipe/internal/source/notify"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/httpauth"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CloudEventTypeHeader is set by Eventarc and other CloudEvents
// binary-mode senders.
const CloudEventTypeHeader = "Ce-Type"

// maxBody bounds the size of a notification payload.
const maxBody = 1 << 20

// Handler is an http.Handler for processing notification requests.
type Handler struct {
	Processor types.Processor // Runs the pipeline.
	Token     string          // If set, required of every request.
}

// result is reported to the caller for each event.
type result struct {
	Container string `json:"container"`
	Key       string `json:"key"`
	Outcome   string `json:"outcome"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ServeHTTP responds with a 500 status if any run Failed, so that the
// notification will be redelivered. Aborted and Skipped runs are
// reported as successful deliveries.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !httpauth.Check(r, h.Token) {
		http.Error(w, "missing or invalid access token", http.StatusUnauthorized)
		return
	}

	if kind := r.Header.Get(CloudEventTypeHeader); kind != "" && !notify.IsCreate(kind) {
		ignoredCount.Inc()
		log.WithField("kind", kind).Debug("ignoring notification")
		http.Error(w, "OK", http.StatusOK)
		return
	}

	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		sendBadRequest(w, r, errors.Wrap(err, "could not read request"))
		return
	}
	events, err := notify.Decode(buf)
	if err != nil {
		sendBadRequest(w, r, err)
		return
	}
	if len(events) == 0 {
		ignoredCount.Inc()
	}

	ctx := r.Context()
	status := http.StatusOK
	results := make([]*result, 0, len(events))
	for _, evt := range events {
		eventCount.Inc()
		out, err := h.Processor.Process(ctx, evt)
		res := &result{
			Container: evt.Container,
			Key:       evt.Key,
		}
		if out != nil {
			res.Outcome = out.Kind.String()
			res.Stage = out.Stage.String()
			res.Reason = out.Reason
		}
		if err != nil {
			// The pipeline has already logged the failure.
			res.Error = err.Error()
			status = http.StatusInternalServerError
		}
		results = append(results, res)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.WithError(err).Debug("could not write response")
	}
}

func sendBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
	log.WithError(err).WithField("uri", r.URL.Path).Warn("bad notification")
}
