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

package pipeline

import (
	"fmt"

	"github.com/cockroachdb/csvpipe/internal/types"
)

// Result is the outcome of a single validation rule.
type Result struct {
	Passed bool
	Reason string // Set when the rule failed.
}

// Pass returns a passing Result.
func Pass() Result { return Result{Passed: true} }

// Fail returns a failing Result with a formatted reason.
func Fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// A Rule is a single predicate over an object's metadata. Rules must
// not read the object's content.
type Rule interface {
	// Name identifies the rule in errors and metrics.
	Name() string
	// Check evaluates the rule.
	Check(ref *types.ObjectRef) Result
}

// NewRule adapts a function to the Rule interface.
func NewRule(name string, check func(ref *types.ObjectRef) Result) Rule {
	return &funcRule{name: name, check: check}
}

type funcRule struct {
	name  string
	check func(ref *types.ObjectRef) Result
}

func (r *funcRule) Name() string                      { return r.name }
func (r *funcRule) Check(ref *types.ObjectRef) Result { return r.check(ref) }

// MaxSize requires the object to be no larger than the given number of
// megabytes. An object exactly at the limit passes.
func MaxSize(limitMB float64) Rule {
	return NewRule("size", func(ref *types.ObjectRef) Result {
		if size := ref.SizeMB(); size > limitMB {
			return Fail("object %s with size %g MB exceeds size limit of %g MB",
				ref.Key, size, limitMB)
		}
		return Pass()
	})
}

// ContentType requires the object's declared content-type to be
// exactly equal to the expected value.
func ContentType(expected string) Rule {
	return NewRule("content_type", func(ref *types.ObjectRef) Result {
		if ref.ContentType != expected {
			return Fail("content type %q for %s is not the expected %q",
				ref.ContentType, ref.Key, expected)
		}
		return Pass()
	})
}

// A Validator evaluates an ordered list of rules, stopping at the first
// failure.
type Validator struct {
	rules []Rule
}

// NewValidator constructs a Validator that evaluates the rules in the
// order given.
func NewValidator(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// With returns a new Validator that evaluates additional rules after
// the existing ones.
func (v *Validator) With(rules ...Rule) *Validator {
	next := make([]Rule, 0, len(v.rules)+len(rules))
	next = append(next, v.rules...)
	next = append(next, rules...)
	return &Validator{rules: next}
}

// Validate returns a *ValidationError describing the first rule that
// the object fails.
func (v *Validator) Validate(ref *types.ObjectRef) error {
	for _, rule := range v.rules {
		if res := rule.Check(ref); !res.Passed {
			validationFailures.WithLabelValues(rule.Name()).Inc()
			return &ValidationError{Key: ref.Key, Rule: rule.Name(), Reason: res.Reason}
		}
	}
	return nil
}
