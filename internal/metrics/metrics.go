package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExchangesTotal counts completed pipeline invocations, labeled by outcome.
	ExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_exchanges_total",
		Help: "The total number of processed chat exchanges",
	}, []string{"outcome"}) // outcome: replied, flagged, empty, error

	// ModerationChecks counts moderation classifier calls, labeled by result.
	ModerationChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_moderation_checks_total",
		Help: "The total number of moderation classifier calls",
	}, []string{"result"}) // result: flagged, unflagged, error

	// GenerationRequests counts generation calls per backend.
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_generation_requests_total",
		Help: "The total number of text generation calls",
	}, []string{"backend", "status"}) // status: success, error

	// ExchangeDuration measures the time taken to process one exchange (end-to-end).
	ExchangeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_exchange_duration_seconds",
		Help:    "Time taken to process a chat exchange",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"}) // result: success, error

	// WebRequests counts incoming web-form submissions, labeled by status.
	WebRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_web_requests_total",
		Help: "The total number of received web form submissions",
	}, []string{"status"}) // status: accepted, invalid, error
)
