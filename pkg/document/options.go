/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package document

import (
	gotime "time"

	"github.com/yorkie-team/cotext/pkg/logging"
	"github.com/yorkie-team/cotext/pkg/profiling/prometheus"
)

// Option configures a Document.
type Option func(*options)

type options struct {
	config  *Config
	logger  logging.Logger
	metrics *prometheus.Metrics
	now     func() gotime.Time
}

// WithConfig sets the configuration of the document.
func WithConfig(config *Config) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithLogger sets the logger of the document.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics the document records to.
func WithMetrics(metrics *prometheus.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithNow sets the wall clock the document uses for grace periods and retry
// windows.
func WithNow(now func() gotime.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
