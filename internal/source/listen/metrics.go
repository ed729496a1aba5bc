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

package listen

import (
	"github.com/cockroachdb/csvpipe/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exhaustedCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listen_retries_exhausted_total",
		Help: "the number of objects whose runs kept failing after every retry",
	})
	notificationCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listen_notifications_total",
		Help: "the number of notifications received from the bucket",
	}, metrics.ContainerLabels)
	reconnectCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listen_reconnects_total",
		Help: "the number of times the notification stream was resubscribed",
	})
	retryCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listen_retries_total",
		Help: "the number of times a failed run was retried",
	})
	sweptCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listen_swept_objects_total",
		Help: "the number of existing objects submitted by a startup sweep",
	}, metrics.ContainerLabels)
)
