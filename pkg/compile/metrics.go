/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package compile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Compilation pipeline metrics
	compileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "commodore_compile_duration_seconds",
			Help:    "Duration of full catalog compilations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	compileErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commodore_compile_errors_total",
			Help: "Total number of failed catalog compilations",
		},
	)
	componentRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "commodore_component_render_duration_seconds",
			Help:    "Duration of single component renders in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// Catalog publication metrics
	catalogPushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commodore_catalog_pushes_total",
			Help: "Total number of catalog commits pushed",
		},
	)
	catalogNoops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commodore_catalog_unchanged_total",
			Help: "Total number of compilations that left the catalog unchanged",
		},
	)
)
