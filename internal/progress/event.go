package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart Stage = "RUN_START"
	StageRunDone  Stage = "RUN_DONE"
	StagePageDone Stage = "PAGE_DONE"
	StagePageDrop Stage = "PAGE_DROP"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for page completions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of a crawl run.
type Event struct {
	// RunID identifies the crawl run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run or page milestone occurred.
	Stage Stage
	// URL is the page URL for page-level events.
	URL string
	// Depth is the link distance from the nearest seed for page-level events.
	Depth int
	// Bytes carries the fetched body size for completed pages.
	Bytes int64
	// Pages carries the cumulative accepted-page count for run-level events.
	Pages int64
	// StatusClass groups the HTTP response code for completed pages.
	StatusClass StatusClass
	// Dur captures fetch latency for pages and wall time for finished runs.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. a drop reason).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StagePageDone:
		if e.URL == "" {
			return errors.New("page completion requires url")
		}
		if e.StatusClass == "" {
			return errors.New("page completion requires status class")
		}
	case StagePageDrop:
		if e.URL == "" {
			return errors.New("page drop requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Depth < 0 {
		return errors.New("depth must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for sinks and handlers.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

// ClassifyStatus groups HTTP status codes for page events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
