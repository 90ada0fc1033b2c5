package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadspider/spider/internal/api"
	"github.com/leadspider/spider/internal/crawl"
)

// newServeCmd creates and configures the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	var (
		indexPath   string
		summaryPath string
		addr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over a saved index",
		Long: `Serve loads the index and summary written by a previous crawl and exposes
them over HTTP: /v1/search, /v1/lookup, and /v1/stats, plus health probes
and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			cfg := rt.cfg
			logger := rt.logger

			ixPath := indexPath
			if ixPath == "" {
				ixPath = filepath.Join(cfg.Export.OutputDir, "index.json")
			}
			ix, err := loadIndex(ixPath)
			if err != nil {
				return err
			}

			sumPath := summaryPath
			if sumPath == "" {
				sumPath = filepath.Join(cfg.Export.OutputDir, "summary.json")
			}
			summary, err := loadSummary(sumPath)
			if err != nil {
				return err
			}
			if summary == nil {
				logger.Info("no run summary found, /v1/stats omits last_run", zap.String("path", sumPath))
			}

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = fmt.Sprintf(":%d", cfg.Server.Port)
			}

			apiServer := api.NewServer(ix, summary, api.Config{
				Addr:   listenAddr,
				APIKey: cfg.Server.APIKey,
			}, logger.Named("api"))

			return serveHTTP(cmd.Context(), listenAddr, apiServer.Handler(), logger)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "index file to serve (default <output-dir>/index.json)")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "run summary file (default <output-dir>/summary.json)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :<server.port>)")

	return cmd
}

func serveHTTP(parent context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("query api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve api: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	return nil
}

// loadSummary reads a run summary file; a missing file is not an error so
// the API can serve an index that was saved without one.
func loadSummary(path string) (*crawl.Summary, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator flags
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	var summary crawl.Summary
	if err := json.NewDecoder(f).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", path, err)
	}
	return &summary, nil
}
