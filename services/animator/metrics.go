// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package animator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sceneforge_animator_runs_total",
		Help: "Animation runs by terminal outcome",
	}, []string{"outcome"})

	patchAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sceneforge_animator_patch_attempts_total",
		Help: "Patch cycles consumed across all runs",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sceneforge_animator_run_duration_seconds",
		Help:    "End to end latency of one animation run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
