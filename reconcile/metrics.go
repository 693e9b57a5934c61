// Copyright 2025 Blink Labs Software
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

package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type reconcileMetrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	membersProcessed *prometheus.CounterVec
}

// NewMetrics registers the reflection metrics. Pass nil to run without
// metrics.
func NewMetrics(promRegistry prometheus.Registerer) *reconcileMetrics {
	if promRegistry == nil {
		return nil
	}
	promFactory := promauto.With(promRegistry)
	return &reconcileMetrics{
		runsTotal: promFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_runs_total",
				Help: "reflection runs by result",
			},
			[]string{"result"},
		),
		runDuration: promFactory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reconcile_run_duration_seconds",
				Help:    "reflection run duration",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		membersProcessed: promFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_members_processed_total",
				Help: "members processed by action",
			},
			[]string{"action"},
		),
	}
}
