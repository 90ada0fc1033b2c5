package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// totalRequests tracks HTTP fetch attempts dispatched by the fetcher.
	totalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_fetch_requests_total",
		Help: "The total number of HTTP fetch attempts sent.",
	})
	// totalRequestErrors tracks attempts that resulted in an error.
	totalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_fetch_request_errors_total",
		Help: "The total number of failed fetch attempts.",
	})
	// totalRetries tracks sleeps taken after transient failures.
	totalRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_fetch_retries_total",
		Help: "The total number of retry attempts after transient failures.",
	})
	// totalNonHTML tracks responses discarded for their content type.
	totalNonHTML = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_fetch_non_html_total",
		Help: "The total number of responses discarded for non-HTML content types.",
	})
)
