// Package metrics defines the Prometheus instrumentation for gspkit.
// Everything is registered through promauto, so importing the package is
// enough to expose the series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts processed HTTP requests, labeled by
	// method, path and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gspkit_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures server response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gspkit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// GraphBuildsTotal counts graph constructions by search mode.
	GraphBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gspkit_graph_builds_total",
			Help: "Total number of nearest-neighbor graphs built",
		},
		[]string{"mode"},
	)

	// GraphBuildDuration measures graph construction time. Buckets lean
	// long: large clouds with the exhaustive search take seconds.
	GraphBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gspkit_graph_build_duration_seconds",
			Help:    "Duration of nearest-neighbor graph builds in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"mode"},
	)

	// DatasetPoints tracks the number of points stored per dataset.
	DatasetPoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gspkit_dataset_points_total",
			Help: "Number of points held in each stored dataset",
		},
		[]string{"dataset"},
	)
)
