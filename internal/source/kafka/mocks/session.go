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

// Package mocks implements a consumer group session and claim for
// testing purposes. The main use case is to drive a
// sarama.ConsumerGroupHandler with a predefined set of messages.
package mocks

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
)

// Session implements sarama.ConsumerGroupSession, recording the
// messages that were marked.
type Session struct {
	ctx context.Context

	mu struct {
		sync.Mutex
		marked []*sarama.ConsumerMessage
	}
}

var _ sarama.ConsumerGroupSession = (*Session)(nil)

// NewSession returns a Session bound to the context.
func NewSession(ctx context.Context) *Session {
	return &Session{ctx: ctx}
}

// Marked returns the messages that were marked, in order.
func (s *Session) Marked() []*sarama.ConsumerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sarama.ConsumerMessage(nil), s.mu.marked...)
}

// Claims implements sarama.ConsumerGroupSession.
func (s *Session) Claims() map[string][]int32 {
	return nil
}

// Commit implements sarama.ConsumerGroupSession.
func (s *Session) Commit() {}

// Context implements sarama.ConsumerGroupSession.
func (s *Session) Context() context.Context {
	return s.ctx
}

// GenerationID implements sarama.ConsumerGroupSession.
func (s *Session) GenerationID() int32 {
	return 1
}

// MarkMessage implements sarama.ConsumerGroupSession.
func (s *Session) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.marked = append(s.mu.marked, msg)
}

// MarkOffset implements sarama.ConsumerGroupSession.
func (s *Session) MarkOffset(string, int32, int64, string) {
	panic("unimplemented")
}

// MemberID implements sarama.ConsumerGroupSession.
func (s *Session) MemberID() string {
	return "mock"
}

// ResetOffset implements sarama.ConsumerGroupSession.
func (s *Session) ResetOffset(string, int32, int64, string) {
	panic("unimplemented")
}
