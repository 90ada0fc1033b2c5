package crawl

import (
	"context"
	"time"
)

// Fetcher retrieves a page over HTTP. Implementations own the timeout,
// retry count, and retry delay policy; an error means the URL was abandoned
// after that policy was exhausted.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Parser turns a fetched HTML body into a Page. Implementations must be
// total over arbitrary input: malformed markup yields whatever partial
// title, text, and links were recovered, never an error for bad HTML.
type Parser interface {
	Parse(pageURL string, body []byte) (*Page, error)
}

// BlobStore archives raw page bodies and returns a URI for the stored
// object.
type BlobStore interface {
	Save(ctx context.Context, key string, body []byte) (string, error)
}

// Hasher produces stable hex digests used to name archived objects.
type Hasher interface {
	Hash(data []byte) string
}

// Clock abstracts wall time so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}
