// Package api hosts the HTTP query surface over a finished crawl. Notable
// routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/search for ranked multi-term queries against the index.
//   - GET /v1/lookup for the postings of a single token.
//   - GET /v1/stats for index size and the last run summary.
package api
