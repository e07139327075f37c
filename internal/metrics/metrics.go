// Package metrics exposes prometheus counters for the scrape pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests tracks the number of HTTP requests dispatched.
	TotalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novelbind_requests_total",
		Help: "The total number of HTTP requests sent.",
	})
	// TotalRequestErrors tracks requests that resulted in an error.
	TotalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novelbind_request_errors_total",
		Help: "The total number of failed HTTP requests.",
	})
	// TotalChapters tracks chapters successfully fetched and normalized.
	TotalChapters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novelbind_chapters_total",
		Help: "The total number of chapters successfully normalized.",
	})
	// TotalPlaceholders tracks placeholder substitutions for failed fetches.
	TotalPlaceholders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novelbind_placeholders_total",
		Help: "The total number of placeholder chapters substituted after fetch failures.",
	})
)
