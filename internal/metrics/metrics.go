package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishdetect_scans_total",
		Help: "Total number of analyzed emails by verdict",
	}, []string{"verdict"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phishdetect_scan_duration_seconds",
		Help:    "Time taken to analyze emails",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"type"})

	URLResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishdetect_url_resolutions_total",
		Help: "Redirect-chain resolutions by outcome",
	}, []string{"outcome"})

	APIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phishdetect_api_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
	}, []string{"path", "method", "status"})

	StoredVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishdetect_stored_verdicts_total",
		Help: "Verdicts persisted to storage",
	}, []string{"success"})
)
