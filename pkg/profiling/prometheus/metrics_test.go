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

package prometheus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	t.Run("nil metrics test", func(t *testing.T) {
		var metrics *prometheus.Metrics
		metrics.AddOperationsApplied(prometheus.OriginLocal, 1)
		metrics.ObserveCompaction(0.1, 1, 1, 0)
	})

	t.Run("record test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		require.NoError(t, err)

		metrics.AddOperationsApplied(prometheus.OriginRemote, 3)
		metrics.AddOperationsDeferred(2)
		metrics.ObserveCompaction(0.01, 4, 10, 1)

		count, err := testutil.GatherAndCount(
			metrics.Registry(),
			"cotext_operations_applied_total",
			"cotext_compaction_collected_fragments_total",
		)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
