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

package objstore

import (
	"net/url"
	"os"
	"strconv"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/local"
	"github.com/cockroachdb/csvpipe/internal/source/objstore/providers/s3"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Provider identifies the type of providers.
type Provider int

const (
	// UnknownStorage identifies other storage not currently supported.
	UnknownStorage Provider = iota
	// LocalStorage identifies a object store backed by local storage.
	LocalStorage
	// MemoryStorage identifies an in-process object store.
	MemoryStorage
	// S3Storage identifies a object store backed by AWS S3 or a
	// compatible service.
	S3Storage
)

// Providers maps a URL scheme to a Provider.
var Providers = map[string]Provider{
	"file": LocalStorage,
	"mem":  MemoryStorage,
	"s3":   S3Storage,
}

const defaultEndpoint = "https://s3.amazonaws.com"

// Config contains the configuration necessary for creating a
// connection to an object store.
type Config struct {
	// A URL such as file:///data, mem://, or
	// s3://?AWS_ENDPOINT=http://localhost:9000. Containers are
	// subdirectories of a file URL and buckets of an s3 URL.
	StorageURL string

	// The following are computed
	provider Provider
	local    *local.Config
	s3       *s3.Config
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.StorageURL, "storageURL", "",
		"the URL to access the storage: file:///path, mem://, or "+
			"s3://?AWS_ENDPOINT=https://host; s3 credentials are read from "+
			"the AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, and AWS_SESSION_TOKEN "+
			"query parameters or environment variables")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if c.StorageURL == "" {
		return errors.New("no storageURL specified")
	}
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return errors.Wrap(err, "could not parse storageURL")
	}
	c.provider = Providers[u.Scheme]
	switch c.provider {
	case LocalStorage:
		if u.Path == "" {
			return errors.New("missing directory in URL. Must be file:///path")
		}
		c.local = &local.Config{Directory: u.Path}
	case MemoryStorage:
	case S3Storage:
		params := u.Query()
		endpointURL := paramValue(params, "AWS_ENDPOINT")
		// The minio API require a endpoint to be set.
		// We will be using AWS S3 as the default.
		if endpointURL == "" {
			endpointURL = defaultEndpoint
		}
		endpointParsed, err := url.Parse(endpointURL)
		if err != nil {
			return errors.Wrap(err, "could not parse AWS_ENDPOINT")
		}
		if endpointParsed.Host == "" {
			return errors.Errorf("AWS_ENDPOINT %q must be an absolute URL", endpointURL)
		}
		c.s3 = &s3.Config{
			AccessKey:    paramValue(params, "AWS_ACCESS_KEY_ID"),
			Endpoint:     endpointParsed.Host,
			Insecure:     endpointParsed.Scheme == "http",
			Region:       paramValue(params, "AWS_REGION"),
			SecretKey:    paramValue(params, "AWS_SECRET_ACCESS_KEY"),
			SessionToken: paramValue(params, "AWS_SESSION_TOKEN"),
		}
	default:
		return errors.Errorf("unknown scheme %q", u.Scheme)
	}
	return nil
}

// S3 returns the S3 connection parameters, or nil if the storage is
// not S3. Preflight must have been called.
func (c *Config) S3() *s3.Config {
	return c.s3
}

// String returns the storage URL with any credentials redacted.
func (c *Config) String() string {
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return "<invalid>"
	}
	params := u.Query()
	for _, key := range []string{"AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN"} {
		if params.Has(key) {
			params.Set(key, "redacted")
		}
	}
	u.RawQuery = params.Encode()
	return u.String()
}

// paramValue gets the value for the specified parameter from the URL.
// If not present in the URL, it retrieves a value from the environment.
func paramValue(params url.Values, key string) string {
	value := params.Get(key)
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	switch p {
	case LocalStorage:
		return "local"
	case MemoryStorage:
		return "memory"
	case S3Storage:
		return "s3"
	default:
		return "Provider(" + strconv.Itoa(int(p)) + ")"
	}
}
