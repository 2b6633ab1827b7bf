package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Job lifecycle metrics
	jobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarjim_jobs_processed_total",
			Help: "Total number of jobs finished, by terminal status",
		},
		[]string{"status"}, // status: completed, failed
	)

	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tarjim_job_duration_seconds",
			Help:    "End-to-end job processing duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tarjim_stage_duration_seconds",
			Help:    "Per-stage processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"stage"}, // stage: extraction, ocr, translation
	)

	// Document metrics
	blocksProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tarjim_document_blocks",
			Help:    "Number of blocks per processed document",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	charactersTranslatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tarjim_characters_translated_total",
			Help: "Total characters of source text handed to translation",
		},
	)
)
