package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	gcsarchive "github.com/leadspider/spider/internal/archive/gcs"
	localarchive "github.com/leadspider/spider/internal/archive/local"
	memoryarchive "github.com/leadspider/spider/internal/archive/memory"
	"github.com/leadspider/spider/internal/clock/system"
	"github.com/leadspider/spider/internal/config"
	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/export"
	"github.com/leadspider/spider/internal/fetch"
	"github.com/leadspider/spider/internal/hash/sha256"
	uuidgen "github.com/leadspider/spider/internal/id/uuid"
	"github.com/leadspider/spider/internal/index"
	memorynotify "github.com/leadspider/spider/internal/notify/memory"
	pubsubnotify "github.com/leadspider/spider/internal/notify/pubsub"
	"github.com/leadspider/spider/internal/parse"
	"github.com/leadspider/spider/internal/progress"
	"github.com/leadspider/spider/internal/progress/sinks"
	"github.com/leadspider/spider/internal/seeds"
	"github.com/leadspider/spider/internal/signals"
	"github.com/leadspider/spider/internal/store/postgres"
)

// runNotifier is the slice of the notifier surface the crawl command uses.
type runNotifier interface {
	PublishRunSummary(ctx context.Context, summary crawl.Summary) (string, error)
	Close() error
}

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var (
		seedsPath string
		threads   int
		maxPages  int
		maxDepth  int
		outputDir string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the web from a seed list and build the index",
		Long: `Crawl fetches pages breadth-first from the seed list, honoring the page
cap, depth limit, and worker count. Accepted pages are exported as
documents, lead signals, an inverted index, and a run summary; optional
providers archive raw HTML, persist rows to Postgres, and publish a
completion notice to Pub/Sub.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			cfg := rt.cfg
			flags := cmd.Flags()
			if flags.Changed("threads") {
				cfg.Crawl.Threads = threads
			}
			if flags.Changed("max-pages") {
				cfg.Crawl.MaxPages = maxPages
			}
			if flags.Changed("max-depth") {
				cfg.Crawl.MaxDepth = maxDepth
			}
			if flags.Changed("output-dir") {
				cfg.Export.OutputDir = outputDir
			}
			if flags.Changed("format") {
				cfg.Export.Format = format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runCrawl(cmd, cfg, rt.logger, seedsPath)
		},
	}

	cmd.Flags().StringVar(&seedsPath, "seeds", "seeds.txt", "file with one seed URL per line")
	cmd.Flags().IntVar(&threads, "threads", 0, "worker goroutines (overrides config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page cap for the run (overrides config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "link depth limit, 0 disables it (overrides config)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for exported results (overrides config)")
	cmd.Flags().StringVar(&format, "format", "", "export format, json or csv (overrides config)")

	return cmd
}

func runCrawl(cmd *cobra.Command, cfg config.Config, logger *zap.Logger, seedsPath string) error {
	urls, err := seeds.Load(seedsPath)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("init metrics sink: %w", err)
	}
	hub := progress.NewHub(
		progress.Config{Logger: logger.Named("hub")},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
	}()

	archive, closeArchive, err := buildArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer closeArchive(logger)

	docStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if docStore != nil {
		defer docStore.Close()
	}

	notifier, err := buildNotifier(ctx, cfg.Notify)
	if err != nil {
		return err
	}
	if notifier != nil {
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Warn("notifier close failed", zap.Error(err))
			}
		}()
	}

	clock := system.New()
	fetcher := fetch.New(fetch.Config{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    cfg.Fetch.Timeout(),
		Retries:    cfg.Fetch.Retries,
		RetryDelay: cfg.Fetch.RetryDelay(),
	}, clock, logger.Named("fetch"))

	runID, err := uuidgen.New().NewRawID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	frontier := crawl.NewFrontier(cfg.Crawl.MaxPages, cfg.Crawl.MaxDepth)
	seeded := frontier.Seed(urls)
	logger.Info("crawl starting",
		zap.String("run_id", runID.String()),
		zap.Int("seeds", seeded),
		zap.Int("threads", cfg.Crawl.Threads),
		zap.Int("max_pages", cfg.Crawl.MaxPages),
		zap.Int("max_depth", cfg.Crawl.MaxDepth),
	)

	dispatcher := crawl.NewDispatcher(frontier, fetcher, parse.New(), crawl.Options{
		Workers:       cfg.Crawl.Threads,
		RunID:         runID,
		Emitter:       hub,
		Archive:       archive,
		ArchivePrefix: cfg.Archive.Prefix,
		Hasher:        sha256.New(),
		Clock:         clock,
	}, logger.Named("crawl"))

	started := clock.Now()
	docs, runErr := dispatcher.Run(ctx)
	finished := clock.Now()
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
			return fmt.Errorf("run crawl: %w", runErr)
		}
		logger.Warn("crawl interrupted, keeping partial results", zap.Error(runErr))
	}

	stats := frontier.Stats()
	summary := crawl.Summary{
		RunID:      runID.String(),
		Seeds:      seeded,
		Pages:      len(docs),
		Dropped:    int(stats.Claimed - stats.Completed),
		DurationMs: finished.Sub(started).Milliseconds(),
		StartedAt:  started,
		FinishedAt: finished,
	}

	ix := index.New()
	for _, doc := range docs {
		ix.Add(doc.URL, doc.Text)
	}

	var records []signals.Record
	for _, doc := range docs {
		if rec := signals.Extract(doc.URL, doc.Text); !rec.Empty() {
			records = append(records, rec)
		}
	}

	writer, err := export.NewWriter(cfg.Export.OutputDir, cfg.Export.Format, logger.Named("export"))
	if err != nil {
		return fmt.Errorf("init export writer: %w", err)
	}
	docsPath, err := writer.WriteDocuments(docs)
	if err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	signalsPath, err := writer.WriteSignals(records)
	if err != nil {
		return fmt.Errorf("write signals: %w", err)
	}
	indexPath, err := writer.WriteIndex(ix)
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	summaryPath, err := writer.WriteSummary(summary)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	for _, path := range []string{docsPath, signalsPath, indexPath, summaryPath} {
		if path != "" {
			logger.Info("wrote output", zap.String("path", path))
		}
	}

	// Persistence and the run notice run on their own context so an
	// interrupted crawl still lands its partial results.
	persistCtx, cancelPersist := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelPersist()

	if docStore != nil {
		if err := docStore.SaveDocuments(persistCtx, summary.RunID, docs); err != nil {
			return fmt.Errorf("save documents: %w", err)
		}
		if err := docStore.SaveSignals(persistCtx, summary.RunID, records); err != nil {
			return fmt.Errorf("save signals: %w", err)
		}
		logger.Info("persisted run",
			zap.Int("documents", len(docs)),
			zap.Int("signals", len(records)),
		)
	}

	if notifier != nil {
		id, err := notifier.PublishRunSummary(persistCtx, summary)
		if err != nil {
			return fmt.Errorf("publish run summary: %w", err)
		}
		logger.Info("published run notice", zap.String("message_id", id))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "crawled %d pages (%d dropped) in %s; results in %s\n",
		summary.Pages, summary.Dropped, finished.Sub(started).Round(time.Millisecond), cfg.Export.OutputDir)
	return nil
}

func buildArchive(ctx context.Context, cfg config.ArchiveConfig) (crawl.BlobStore, func(*zap.Logger), error) {
	noop := func(*zap.Logger) {}
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, noop, nil
	case config.ProviderMemory:
		return memoryarchive.New(), noop, nil
	case config.ProviderLocal:
		archive, err := localarchive.New(localarchive.Config{BaseDir: cfg.LocalDir})
		if err != nil {
			return nil, nil, fmt.Errorf("init local archive: %w", err)
		}
		return archive, noop, nil
	case config.ProviderGCS:
		archive, err := gcsarchive.New(ctx, gcsarchive.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs archive: %w", err)
		}
		closer := func(logger *zap.Logger) {
			if err := archive.Close(); err != nil {
				logger.Warn("archive close failed", zap.Error(err))
			}
		}
		return archive, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (*postgres.Store, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderPostgres:
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.DSN,
			DocumentsTable: cfg.DocumentsTable,
			SignalsTable:   cfg.SignalsTable,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
	}
}

func buildNotifier(ctx context.Context, cfg config.NotifyConfig) (runNotifier, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderMemory:
		return memorynotify.New(), nil
	case config.ProviderPubSub:
		notifier, err := pubsubnotify.New(ctx, pubsubnotify.Config{
			ProjectID: cfg.ProjectID,
			Topic:     cfg.TopicID,
		})
		if err != nil {
			return nil, fmt.Errorf("init pubsub notifier: %w", err)
		}
		return notifier, nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Provider)
	}
}
