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

// Package notify decodes storage notification payloads into pipeline
// events. Google Cloud Storage object resources, Pub/Sub push
// envelopes that carry them, and S3 or MinIO event records are
// recognized.
package notify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Event kinds that describe a newly-written object.
const (
	// KindFinalize is reported by Cloud Functions storage triggers.
	KindFinalize = "google.storage.object.finalize"
	// KindFinalized is the CloudEvents type used by Eventarc.
	KindFinalized = "google.cloud.storage.object.v1.finalized"
	// KindObjectFinalize is the Pub/Sub notification eventType.
	KindObjectFinalize = "OBJECT_FINALIZE"
	// KindObjectCreatedPrefix prefixes every S3 creation event name.
	KindObjectCreatedPrefix = "s3:ObjectCreated:"
)

// ErrUnknownFormat is returned for payloads which are well-formed JSON
// but are not a recognized notification.
var ErrUnknownFormat = errors.New("unrecognized notification payload")

// IsCreate returns true if the kind describes the arrival of a new
// object or a new version of an object.
func IsCreate(kind string) bool {
	switch kind {
	case KindFinalize, KindFinalized, KindObjectFinalize:
		return true
	default:
		return strings.HasPrefix(kind, KindObjectCreatedPrefix)
	}
}

// Object is the subset of the Cloud Storage object resource that we
// care about. Numeric fields are encoded as strings.
type Object struct {
	Bucket      string `json:"bucket"`
	ContentType string `json:"contentType"`
	Generation  string `json:"generation"`
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	TimeCreated string `json:"timeCreated"`
	Updated     string `json:"updated"`
}

// pushEnvelope is the body of a Pub/Sub push subscription request.
type pushEnvelope struct {
	Message struct {
		Attributes  map[string]string `json:"attributes"`
		Data        string            `json:"data"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// probe is used to sniff the payload format.
type probe struct {
	Bucket  string            `json:"bucket"`
	Message json.RawMessage   `json:"message"`
	Name    string            `json:"name"`
	Records []json.RawMessage `json:"Records"`
}

// Decode returns the object-creation events described by the payload.
// Notifications of other kinds are dropped, so the result may be empty.
func Decode(buf []byte) ([]*types.Event, error) {
	buf = bytes.TrimSpace(buf)
	var p probe
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, errors.Wrap(err, "could not decode notification")
	}
	switch {
	case p.Records != nil:
		var info notification.Info
		if err := json.Unmarshal(buf, &info); err != nil {
			return nil, errors.Wrap(err, "could not decode event records")
		}
		return FromS3(info.Records)
	case p.Message != nil:
		var env pushEnvelope
		if err := json.Unmarshal(buf, &env); err != nil {
			return nil, errors.Wrap(err, "could not decode push envelope")
		}
		return fromPush(&env)
	case p.Bucket != "" && p.Name != "":
		var obj Object
		if err := json.Unmarshal(buf, &obj); err != nil {
			return nil, errors.Wrap(err, "could not decode object resource")
		}
		evt, err := FromObject(&obj, KindFinalize, obj.ID)
		if err != nil {
			return nil, err
		}
		return []*types.Event{evt}, nil
	default:
		return nil, errors.WithStack(ErrUnknownFormat)
	}
}

// FromObject converts a Cloud Storage object resource.
func FromObject(obj *Object, kind, id string) (*types.Event, error) {
	if obj.Bucket == "" || obj.Name == "" {
		return nil, errors.New("object resource must contain bucket and name")
	}
	evt := &types.Event{
		ID:          id,
		Kind:        kind,
		Container:   obj.Bucket,
		Key:         obj.Name,
		ContentType: obj.ContentType,
		Generation:  obj.Generation,
	}
	if obj.Size != "" {
		size, err := strconv.ParseInt(obj.Size, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid size %q", obj.Size)
		}
		evt.Size = size
	}
	evt.Time = parseTime(obj.Updated, obj.TimeCreated)
	ensureID(evt)
	return evt, nil
}

// FromS3 converts S3 or MinIO event records. Keys are URL-decoded.
func FromS3(records []notification.Event) ([]*types.Event, error) {
	ret := make([]*types.Event, 0, len(records))
	for _, rec := range records {
		if !IsCreate(rec.EventName) {
			log.WithField("kind", rec.EventName).Trace("ignoring event")
			continue
		}
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid object key %q", rec.S3.Object.Key)
		}
		if rec.S3.Bucket.Name == "" || key == "" {
			return nil, errors.New("event record must contain bucket and key")
		}
		evt := &types.Event{
			Kind:        rec.EventName,
			Time:        parseTime(rec.EventTime),
			Container:   rec.S3.Bucket.Name,
			Key:         key,
			ContentType: rec.S3.Object.ContentType,
			Generation:  rec.S3.Object.ETag,
			Size:        rec.S3.Object.Size,
		}
		if rec.S3.Object.Sequencer != "" {
			evt.ID = evt.Container + "/" + evt.Key + "/" + rec.S3.Object.Sequencer
		}
		ensureID(evt)
		ret = append(ret, evt)
	}
	return ret, nil
}

func fromPush(env *pushEnvelope) ([]*types.Event, error) {
	attrs := env.Message.Attributes
	kind := attrs["eventType"]
	if kind != "" && !IsCreate(kind) {
		log.WithField("kind", kind).Trace("ignoring event")
		return nil, nil
	}
	if kind == "" {
		kind = KindObjectFinalize
	}

	var obj Object
	if env.Message.Data != "" {
		data, err := base64.StdEncoding.DecodeString(env.Message.Data)
		if err != nil {
			return nil, errors.Wrap(err, "could not decode message data")
		}
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &obj); err != nil {
				return nil, errors.Wrap(err, "could not decode message data")
			}
		}
	}
	// Attributes are always present, even if the payload format is NONE.
	if obj.Bucket == "" {
		obj.Bucket = attrs["bucketId"]
	}
	if obj.Name == "" {
		obj.Name = attrs["objectId"]
	}
	if obj.Generation == "" {
		obj.Generation = attrs["objectGeneration"]
	}
	if obj.Updated == "" {
		obj.Updated = attrs["eventTime"]
	}
	evt, err := FromObject(&obj, kind, env.Message.MessageID)
	if err != nil {
		return nil, err
	}
	return []*types.Event{evt}, nil
}

func ensureID(evt *types.Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
}

// parseTime returns the first non-empty, valid RFC 3339 value.
func parseTime(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
