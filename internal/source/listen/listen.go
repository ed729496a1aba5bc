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

// Package listen subscribes to the notification stream of an
// S3-compatible bucket, such as MinIO's ListenBucketNotification API,
// and runs the pipeline for each object that arrives.
package listen

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/csvpipe/internal/source/notify"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/diag"
	"github.com/cockroachdb/csvpipe/internal/util/stdlogical"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/minio/minio-go/v7/pkg/notification"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// KindSweep is the event type of objects found by a startup sweep.
const KindSweep = "csvpipe:Sweep"

// reconnectDelay is the pause before resubscribing after the
// notification stream reports an error.
const reconnectDelay = time.Second

// A Notifier delivers bucket notifications until the context is
// canceled. It is implemented by *minio.Client.
type Notifier interface {
	ListenBucketNotification(
		ctx context.Context, bucketName, prefix, suffix string, events []string,
	) <-chan notification.Info
}

// Listener runs the pipeline for each object announced by a
// Notifier. Notifications are not redelivered by the server, so Failed
// runs are retried in-process.
type Listener struct {
	config    *Config
	notifier  Notifier
	processor types.Processor
	store     bucket.Store

	// Bounds the number of concurrent runs.
	workers errgroup.Group
	// Constructs the retry policy for a Failed run.
	retry func() backoff.BackOff
}

func newRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Start runs the subscription loop in the background. In-flight runs
// are allowed to finish once the context begins to stop.
func (l *Listener) Start(ctx *stopper.Context) {
	l.workers.SetLimit(l.config.Workers)

	// The stopper's Done channel only closes once every goroutine has
	// exited, so the subscription needs its own cancellation.
	listenCtx, cancel := context.WithCancel(ctx)
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		cancel()
		return nil
	})

	ctx.Go(func(ctx *stopper.Context) error {
		defer cancel()
		if l.config.Sweep {
			if err := l.sweep(ctx); err != nil {
				log.WithError(err).Warn("could not sweep container")
			}
		}
		for !ctx.IsStopping() {
			l.listen(ctx, listenCtx)
			select {
			case <-ctx.Stopping():
			case <-time.After(reconnectDelay):
				reconnectCount.Inc()
			}
		}
		return l.workers.Wait()
	})
}

// listen consumes a single subscription, until the server reports an
// error or the subscription is canceled.
func (l *Listener) listen(ctx *stopper.Context, listenCtx context.Context) {
	log.WithFields(log.Fields{
		"container": l.config.Container,
		"prefix":    l.config.Prefix,
		"suffix":    l.config.Suffix,
	}).Info("subscribing to bucket notifications")
	ch := l.notifier.ListenBucketNotification(listenCtx,
		l.config.Container, l.config.Prefix, l.config.Suffix, l.config.Events)
	for info := range ch {
		if info.Err != nil {
			log.WithError(info.Err).Warn("notification stream error; will resubscribe")
			return
		}
		notificationCount.WithLabelValues(l.config.Container).Inc()
		events, err := notify.FromS3(info.Records)
		if err != nil {
			log.WithError(err).Warn("discarding malformed notification")
			continue
		}
		for _, evt := range events {
			l.submit(ctx, evt)
		}
	}
}

// sweep processes the objects that are already in the container,
// which may have arrived while no listener was running.
func (l *Listener) sweep(ctx *stopper.Context) error {
	count := 0
	err := l.store.Walk(ctx, l.config.Container, l.config.Prefix, func(key string) error {
		if ctx.IsStopping() {
			return context.Canceled
		}
		if !strings.HasSuffix(key, l.config.Suffix) {
			return nil
		}
		count++
		sweptCount.WithLabelValues(l.config.Container).Inc()
		l.submit(ctx, &types.Event{
			ID:        l.config.Container + "/" + key + "/sweep",
			Kind:      KindSweep,
			Time:      time.Now().UTC(),
			Container: l.config.Container,
			Key:       key,
		})
		return nil
	})
	log.WithField("container", l.config.Container).Infof("sweep found %d objects", count)
	return err
}

// submit blocks until a worker is available.
func (l *Listener) submit(ctx context.Context, evt *types.Event) {
	l.workers.Go(func() error {
		l.process(ctx, evt)
		return nil
	})
}

// process runs the pipeline until the run reaches an outcome other
// than Failed or the retries are exhausted.
func (l *Listener) process(ctx context.Context, evt *types.Event) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(l.retry(), uint64(l.config.Retries)), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			retryCount.Inc()
		}
		_, err := l.processor.Process(ctx, evt)
		return err
	}, policy)
	if err != nil {
		exhaustedCount.Inc()
		log.WithError(err).WithFields(log.Fields{
			"attempts":  attempt,
			"container": evt.Container,
			"key":       evt.Key,
		}).Error("giving up on object")
	}
}

// Listen is a running notification subscriber.
type Listen struct {
	Diagnostics *diag.Diagnostics
	Listener    *Listener
}

var _ stdlogical.HasDiagnostics = (*Listen)(nil)

// GetDiagnostics implements [stdlogical.HasDiagnostics].
func (l *Listen) GetDiagnostics() *diag.Diagnostics {
	return l.Diagnostics
}
