package crawl

import "time"

// Page is the parser's view of one fetched document.
type Page struct {
	Title string
	Text  string
	Links []string
}

// FetchResult is the raw outcome returned by a Fetcher implementation.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Document is one accepted page in the crawl results. Instances are
// immutable once recorded; downstream consumers only read them.
type Document struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	Links      []string  `json:"outbound_links"`
	Depth      int       `json:"depth"`
	StatusCode int       `json:"status_code"`
	Bytes      int64     `json:"bytes"`
	DurationMs int64     `json:"duration_ms"`
	FetchedAt  time.Time `json:"fetched_at"`
	BlobURI    string    `json:"blob_uri,omitempty"`
}

// Lease is a claim on a single URL handed to exactly one worker.
type Lease struct {
	URL   string
	Depth int
}

// Stats is a point-in-time snapshot of frontier counters.
type Stats struct {
	Pending   int   `json:"pending"`
	Inflight  int   `json:"inflight"`
	Visited   int   `json:"visited"`
	Claimed   int64 `json:"claimed"`
	Completed int64 `json:"completed"`
}

// Summary describes a finished crawl run; it is published to the notifier
// and written alongside the exported results.
type Summary struct {
	RunID      string    `json:"run_id"`
	Seeds      int       `json:"seeds"`
	Pages      int       `json:"pages"`
	Dropped    int       `json:"dropped"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
