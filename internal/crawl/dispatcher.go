package crawl

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadspider/spider/internal/progress"
)

const defaultWorkers = 5

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Options configures a Dispatcher beyond its core collaborators. Archive,
// Hasher, and Emitter are optional; leaving them nil disables page
// archiving and progress reporting respectively.
type Options struct {
	Workers       int
	RunID         uuid.UUID
	Emitter       progress.Emitter
	Archive       BlobStore
	ArchivePrefix string
	Hasher        Hasher
	Clock         Clock
}

// Dispatcher drives a fixed-size worker pool over a Frontier until the run
// is quiescent, saturated, or canceled. Workers never communicate with each
// other; the Frontier mediates all coordination.
type Dispatcher struct {
	frontier *Frontier
	fetcher  Fetcher
	parser   Parser
	opts     Options
	runID    [16]byte
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher. A zero worker count falls back to the
// default pool size and a nil clock falls back to system time.
func NewDispatcher(frontier *Frontier, fetcher Fetcher, parser Parser, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.Must(uuid.NewV7())
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		frontier: frontier,
		fetcher:  fetcher,
		parser:   parser,
		opts:     opts,
		runID:    progress.UUIDToBytes(opts.RunID),
		logger:   logger,
	}
}

// RunID returns the identifier assigned to this run.
func (d *Dispatcher) RunID() uuid.UUID { return d.opts.RunID }

// Run starts the worker pool and blocks until every worker has exited. It
// returns the accumulated results snapshot in record order; on cancellation
// the partial results gathered so far are returned together with ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) ([]Document, error) {
	start := d.opts.Clock.Now()
	d.emit(progress.Event{
		RunID: d.runID,
		TS:    start,
		Stage: progress.StageRunStart,
	})

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			d.frontier.Close()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()
	close(watchDone)

	finish := d.opts.Clock.Now()
	elapsed := finish.Sub(start)
	crawlDuration.Observe(elapsed.Seconds())

	results := d.frontier.Results()
	stats := d.frontier.Stats()
	dropped := stats.Claimed - stats.Completed
	d.emit(progress.Event{
		RunID: d.runID,
		TS:    finish,
		Stage: progress.StageRunDone,
		Pages: int64(len(results)),
		Dur:   elapsed,
		Note:  fmt.Sprintf("dropped=%d", dropped),
	})
	d.logger.Info("crawl finished",
		zap.String("run_id", d.opts.RunID.String()),
		zap.Int("pages", len(results)),
		zap.Int64("dropped", dropped),
		zap.Int("pending", stats.Pending),
		zap.Duration("elapsed", elapsed),
	)
	return results, ctx.Err()
}

func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	logger := d.logger.With(zap.Int("worker", id))
	for {
		lease, ok := d.frontier.Claim(ctx)
		if !ok {
			return
		}
		d.crawlOne(ctx, logger, lease)
	}
}

// crawlOne runs one fetch/parse/record/offer cycle for a claimed URL. The
// claim is released on every path so quiescence detection stays accurate.
func (d *Dispatcher) crawlOne(ctx context.Context, logger *zap.Logger, lease Lease) {
	defer d.frontier.Release()

	started := d.opts.Clock.Now()
	res, err := d.fetcher.Fetch(ctx, lease.URL)
	if err != nil {
		d.dropPage(logger, lease, err)
		return
	}

	page, err := d.parser.Parse(lease.URL, res.Body)
	if err != nil {
		d.dropPage(logger, lease, err)
		return
	}

	doc := Document{
		URL:        lease.URL,
		Title:      page.Title,
		Text:       page.Text,
		Links:      page.Links,
		Depth:      lease.Depth,
		StatusCode: res.StatusCode,
		Bytes:      int64(len(res.Body)),
		DurationMs: res.Duration.Milliseconds(),
		FetchedAt:  started,
		BlobURI:    d.archivePage(ctx, logger, lease, res.Body),
	}

	if !d.frontier.RecordResult(doc) {
		d.dropPage(logger, lease, errSaturated)
		return
	}
	pagesCrawled.Inc()

	if accepted := d.frontier.OfferLinks(page.Links, lease.Depth+1); accepted > 0 {
		linksEnqueued.Add(float64(accepted))
	}
	frontierDepth.Set(float64(d.frontier.Stats().Pending))

	d.emit(progress.Event{
		RunID:       d.runID,
		TS:          d.opts.Clock.Now(),
		Stage:       progress.StagePageDone,
		URL:         lease.URL,
		Depth:       lease.Depth,
		Bytes:       doc.Bytes,
		StatusClass: progress.ClassifyStatus(res.StatusCode),
		Dur:         res.Duration,
	})
	logger.Debug("page crawled",
		zap.String("url", lease.URL),
		zap.Int("depth", lease.Depth),
		zap.Int("status", res.StatusCode),
		zap.Int("links", len(page.Links)),
	)
}

var errSaturated = errors.New("page cap reached")

// dropPage records the terminal DROPPED state for a claimed URL. The URL
// stays visited and is never retried within this run.
func (d *Dispatcher) dropPage(logger *zap.Logger, lease Lease, cause error) {
	pagesDropped.Inc()
	d.emit(progress.Event{
		RunID: d.runID,
		TS:    d.opts.Clock.Now(),
		Stage: progress.StagePageDrop,
		URL:   lease.URL,
		Depth: lease.Depth,
		Note:  cause.Error(),
	})
	logger.Debug("page dropped",
		zap.String("url", lease.URL),
		zap.Int("depth", lease.Depth),
		zap.Error(cause),
	)
}

// archivePage stores the raw body when an archive is configured, returning
// the blob URI or empty on failure. Archiving is best effort: a storage
// error never fails the page.
func (d *Dispatcher) archivePage(ctx context.Context, logger *zap.Logger, lease Lease, body []byte) string {
	if d.opts.Archive == nil || d.opts.Hasher == nil {
		return ""
	}
	key := path.Join(d.opts.ArchivePrefix, d.opts.RunID.String(), d.opts.Hasher.Hash([]byte(lease.URL))+".html")
	uri, err := d.opts.Archive.Save(ctx, key, body)
	if err != nil {
		logger.Warn("archive page", zap.String("url", lease.URL), zap.Error(err))
		return ""
	}
	return uri
}

func (d *Dispatcher) emit(evt progress.Event) {
	if d.opts.Emitter == nil {
		return
	}
	d.opts.Emitter.Emit(evt)
}
