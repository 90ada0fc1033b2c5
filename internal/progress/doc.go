// Package progress defines the event primitives, the non-blocking hub, and
// the emitter interface crawl workers use to report run milestones. The hub
// batches events on a background goroutine and fans them out to pluggable
// sinks such as Prometheus collectors or the structured log, without ever
// blocking the crawl path.
package progress
