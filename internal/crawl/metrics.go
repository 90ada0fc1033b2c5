package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesCrawled tracks pages fetched, parsed, and accepted into results.
	pagesCrawled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_pages_crawled_total",
		Help: "The total number of pages accepted into crawl results.",
	})
	// pagesDropped tracks claimed URLs abandoned without a result.
	pagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_pages_dropped_total",
		Help: "The total number of claimed URLs dropped after fetch or parse failures, or refused at the page cap.",
	})
	// linksEnqueued tracks outbound links accepted into the frontier.
	linksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spider_links_enqueued_total",
		Help: "The total number of discovered links accepted into the frontier.",
	})
	// frontierDepth exposes the pending queue length of the active run.
	frontierDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spider_frontier_queue_depth",
		Help: "The current number of pending URLs in the frontier.",
	})
	// crawlDuration observes wall time per completed run.
	crawlDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spider_crawl_duration_seconds",
		Help:    "Wall time of completed crawl runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)
