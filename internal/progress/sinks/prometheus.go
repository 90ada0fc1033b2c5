package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadspider/spider/internal/progress"
)

// PrometheusSink exports crawl progress metrics via Prometheus. It owns all
// collectors for runs started/completed/active and per-status page counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsActive    prometheus.Gauge
	runRuntime    prometheus.Histogram

	pagesCompleted *prometheus.CounterVec
	pagesDropped   prometheus.Counter
	pageBytes      prometheus.Counter
	fetchDuration  *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spider_runs_started_total",
			Help: "Total crawl runs that have started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spider_runs_completed_total",
			Help: "Total crawl runs that have finished.",
		}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spider_runs_active",
			Help: "Current number of in-flight crawl runs.",
		}),
		runRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spider_run_duration_seconds",
			Help:    "Wall time per completed crawl run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		pagesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spider_run_pages_completed_total",
			Help: "Pages accepted into results partitioned by status class.",
		}, []string{"status_class"}),
		pagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spider_run_pages_dropped_total",
			Help: "Claimed URLs abandoned without a result.",
		}),
		pageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spider_run_page_bytes_total",
			Help: "Bytes downloaded across completed pages.",
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spider_run_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by status class.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"status_class"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsActive,
		s.runRuntime,
		s.pagesCompleted,
		s.pagesDropped,
		s.pageBytes,
		s.fetchDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsActive.Inc()
		}
	case progress.StageRunDone:
		s.runsCompleted.Inc()
		if evt.Dur > 0 {
			s.runRuntime.Observe(evt.Dur.Seconds())
		}
		if s.tracker.complete(evt.RunID) {
			s.runsActive.Dec()
		}
	case progress.StagePageDone:
		s.handlePageDone(evt)
	case progress.StagePageDrop:
		s.pagesDropped.Inc()
	}
}

func (s *PrometheusSink) handlePageDone(evt progress.Event) {
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	s.pagesCompleted.WithLabelValues(statusClass).Inc()
	if evt.Bytes > 0 {
		s.pageBytes.Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(statusClass).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu     sync.Mutex
	active map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{active: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[id]; ok {
		return false
	}
	t.active[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.active[id]; !ok {
		return false
	}
	delete(t.active, id)
	return true
}
