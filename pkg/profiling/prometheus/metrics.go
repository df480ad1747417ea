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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace      = "cotext"
	originLabel    = "origin"
	directionLabel = "direction"

	// OriginLocal labels operations created by the local replica.
	OriginLocal = "local"
	// OriginRemote labels operations received from peers.
	OriginRemote = "remote"

	// DirectionInbound labels payloads received from peers.
	DirectionInbound = "inbound"
	// DirectionOutbound labels payloads sent to peers.
	DirectionOutbound = "outbound"
)

// Metrics manages the metric information that the engine is trying to
// measure. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	operationsAppliedTotal    *prometheus.CounterVec
	operationsDuplicatedTotal prometheus.Counter
	operationsDeferredTotal   prometheus.Counter
	causalGapsTotal           prometheus.Counter
	dataLossTotal             prometheus.Counter
	payloadBytesTotal         *prometheus.CounterVec

	compactionSeconds        prometheus.Histogram
	compactionCollectedTotal prometheus.Counter
	compactionBytesTotal     prometheus.Counter
	compactionConflictsTotal prometheus.Counter
	opLogTruncatedTotal      prometheus.Counter
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		operationsAppliedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "applied_total",
			Help:      "The total count of operations applied to documents.",
		}, []string{originLabel}),
		operationsDuplicatedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "duplicated_total",
			Help:      "The total count of received operations that were already applied.",
		}),
		operationsDeferredTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "deferred_total",
			Help:      "The total count of operations deferred until their dependencies arrive.",
		}),
		causalGapsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "causal_gaps_total",
			Help:      "The total count of operations whose dependencies never arrived.",
		}),
		dataLossTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operations",
			Name:      "data_loss_total",
			Help:      "The total count of operations referring to collected text.",
		}),
		payloadBytesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "payload_bytes_total",
			Help:      "The total bytes of encoded operation payloads.",
		}, []string{directionLabel}),
		compactionSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compaction",
			Name:      "duration_seconds",
			Help:      "The time taken by a compaction pass.",
		}),
		compactionCollectedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compaction",
			Name:      "collected_fragments_total",
			Help:      "The total count of tombstones removed by compaction.",
		}),
		compactionBytesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compaction",
			Name:      "collected_bytes_total",
			Help:      "The total bytes of tombstones removed by compaction.",
		}),
		compactionConflictsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compaction",
			Name:      "conflicts_total",
			Help:      "The total count of tombstones kept because pending operations refer to them.",
		}),
		opLogTruncatedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "log_truncated_total",
			Help:      "The total count of operations truncated from operation logs.",
		}),
	}

	return metrics, nil
}

// AddOperationsApplied adds the number of applied operations.
func (m *Metrics) AddOperationsApplied(origin string, count int) {
	if m == nil {
		return
	}
	m.operationsAppliedTotal.With(prometheus.Labels{originLabel: origin}).Add(float64(count))
}

// AddOperationsDuplicated adds the number of duplicated operations.
func (m *Metrics) AddOperationsDuplicated(count int) {
	if m == nil {
		return
	}
	m.operationsDuplicatedTotal.Add(float64(count))
}

// AddOperationsDeferred adds the number of deferred operations.
func (m *Metrics) AddOperationsDeferred(count int) {
	if m == nil {
		return
	}
	m.operationsDeferredTotal.Add(float64(count))
}

// AddCausalGaps adds the number of operations that stalled.
func (m *Metrics) AddCausalGaps(count int) {
	if m == nil {
		return
	}
	m.causalGapsTotal.Add(float64(count))
}

// AddDataLoss adds the number of operations that referred to collected text.
func (m *Metrics) AddDataLoss(count int) {
	if m == nil {
		return
	}
	m.dataLossTotal.Add(float64(count))
}

// AddPayloadBytes adds the size of an encoded payload.
func (m *Metrics) AddPayloadBytes(direction string, bytes int) {
	if m == nil {
		return
	}
	m.payloadBytesTotal.With(prometheus.Labels{directionLabel: direction}).Add(float64(bytes))
}

// ObserveCompaction records the result of a compaction pass.
func (m *Metrics) ObserveCompaction(seconds float64, collected, bytes, conflicts int) {
	if m == nil {
		return
	}
	m.compactionSeconds.Observe(seconds)
	m.compactionCollectedTotal.Add(float64(collected))
	m.compactionBytesTotal.Add(float64(bytes))
	m.compactionConflictsTotal.Add(float64(conflicts))
}

// AddOpLogTruncated adds the number of operations truncated from a log.
func (m *Metrics) AddOpLogTruncated(count int) {
	if m == nil {
		return
	}
	m.opLogTruncatedTotal.Add(float64(count))
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
