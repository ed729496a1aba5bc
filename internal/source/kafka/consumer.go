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
	"context"
	"strconv"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/csvpipe/internal/source/notify"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Handler represents a Sarama consumer group consumer. Each message is
// expected to carry one storage notification, which may describe
// several objects. A message's offset is marked only after every run
// it triggered has reached a terminal state other than Failed.
type Handler struct {
	processor types.Processor

	// Set when a claim stopped on a Failed run.
	failed atomic.Bool
}

var _ sarama.ConsumerGroupHandler = (*Handler)(nil)

// NewHandler constructs a Handler that runs the processor for each
// object named by a message.
func NewHandler(processor types.Processor) *Handler {
	return &Handler{processor: processor}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	log.WithFields(log.Fields{
		"claims":     session.Claims(),
		"generation": session.GenerationID(),
		"member":     session.MemberID(),
	}).Debug("consumer group session starting")
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (h *Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	log.WithField("member", session.MemberID()).Debug("consumer group session ended")
	return nil
}

// ConsumeClaim processes new messages for the topic/partition specified
// in the claim. Returning an error ends the session without marking
// the current message, so that it will be redelivered once the group
// reconnects.
func (h *Handler) ConsumeClaim(
	session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim,
) error {
	log.Debugf("ConsumeClaim topic=%s partition=%d offset=%d",
		claim.Topic(), claim.Partition(), claim.InitialOffset())
	ctx := session.Context()
	// ConsumeClaim is already called on its own goroutine.
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				log.Debugf("message channel for topic=%s partition=%d was closed",
					claim.Topic(), claim.Partition())
				return nil
			}
			if err := h.consume(ctx, msg); err != nil {
				h.failed.Store(true)
				return err
			}
			session.MarkMessage(msg, "")
		case <-ctx.Done():
			return nil
		}
	}
}

// consume runs the pipeline for each event in the message. Messages
// that cannot be decoded will never succeed, so they are logged and
// dropped rather than blocking the partition.
func (h *Handler) consume(ctx context.Context, msg *sarama.ConsumerMessage) error {
	labels := []string{msg.Topic, strconv.Itoa(int(msg.Partition))}
	messagesReceivedCount.WithLabelValues(labels...).Inc()

	events, err := notify.Decode(msg.Value)
	if err != nil {
		messagesDiscardedCount.WithLabelValues(labels...).Inc()
		log.WithError(err).WithFields(log.Fields{
			"offset":    msg.Offset,
			"partition": msg.Partition,
			"topic":     msg.Topic,
		}).Warn("discarding malformed notification")
		return nil
	}
	for _, evt := range events {
		eventsCount.WithLabelValues(labels...).Inc()
		if _, err := h.processor.Process(ctx, evt); err != nil {
			messagesErrorCount.WithLabelValues(labels...).Inc()
			return errors.Wrapf(err, "%s@%d offset %d", msg.Topic, msg.Partition, msg.Offset)
		}
	}
	messagesSuccessCount.WithLabelValues(labels...).Inc()
	return nil
}
