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

package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_events_total",
		Help: "the number of object events decoded from kafka messages",
	}, []string{"topic", "partition"})
	messagesDiscardedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_discarded_total",
		Help: "the number of messages dropped because they could not be decoded",
	}, []string{"topic", "partition"})
	messagesErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_error_total",
		Help: "the number of messages left unmarked because a run failed",
	}, []string{"topic", "partition"})
	messagesReceivedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_received_total",
		Help: "the number of messages received from the brokers",
	}, []string{"topic", "partition"})
	messagesSuccessCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_success_total",
		Help: "the number of messages whose events were all processed",
	}, []string{"topic", "partition"})
)
