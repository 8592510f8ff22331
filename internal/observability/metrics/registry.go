// Package metrics provides centralized Prometheus metrics for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track run outcomes and per-item processing
var (
	// RunsTotal counts pipeline runs by final status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posterfeed_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// RunDuration measures full pipeline run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "posterfeed_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// ItemsProcessedTotal counts feed items by processing result
	ItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posterfeed_items_processed_total",
			Help: "Total number of feed items processed",
		},
		[]string{"result"},
	)

	// PostersResolvedTotal counts poster resolution outcomes
	PostersResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posterfeed_posters_resolved_total",
			Help: "Total number of poster resolution attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ImageDownloadsTotal counts full-size image downloads by status
	ImageDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posterfeed_image_downloads_total",
			Help: "Total number of full-size image downloads",
		},
		[]string{"status"},
	)

	// ThumbnailsGeneratedTotal counts thumbnail generations by status
	ThumbnailsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posterfeed_thumbnails_generated_total",
			Help: "Total number of thumbnails generated",
		},
		[]string{"status"},
	)

	// FeedFetchDuration measures the feed download in seconds
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "posterfeed_feed_fetch_duration_seconds",
			Help:    "Feed fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
