// Package export persists crawl outputs to the local filesystem as JSON or
// CSV files under a single output directory.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/index"
	"github.com/leadspider/spider/internal/signals"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// File names written under the output directory. The index and summary are
// always JSON regardless of the configured format.
const (
	documentsBase = "documents"
	signalsBase   = "signals"
	indexFile     = "index.json"
	summaryFile   = "summary.json"
)

// Writer persists documents, signal records, the inverted index, and the
// run summary under one output directory.
type Writer struct {
	dir    string
	format string
	logger *zap.Logger
}

// NewWriter validates the format, creates the output directory, and
// returns a Writer.
func NewWriter(dir, format string, logger *zap.Logger) (*Writer, error) {
	switch format {
	case FormatJSON, FormatCSV:
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, format: format, logger: logger}, nil
}

// WriteDocuments persists the accepted documents and returns the path
// written. An empty collection still produces a JSON file holding [], but
// an empty CSV is skipped since its columns would carry no rows.
func (w *Writer) WriteDocuments(docs []crawl.Document) (string, error) {
	if w.format == FormatCSV {
		return w.writeDocumentsCSV(docs)
	}
	if docs == nil {
		docs = []crawl.Document{}
	}
	return w.writeJSON(documentsBase+".json", docs)
}

// WriteSignals persists the signal records and returns the path written.
func (w *Writer) WriteSignals(records []signals.Record) (string, error) {
	if w.format == FormatCSV {
		return w.writeSignalsCSV(records)
	}
	if records == nil {
		records = []signals.Record{}
	}
	return w.writeJSON(signalsBase+".json", records)
}

// WriteIndex persists the inverted index so the search and serve commands
// can load it without re-crawling.
func (w *Writer) WriteIndex(ix *index.Index) (string, error) {
	path := filepath.Join(w.dir, indexFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", indexFile, err)
	}
	defer f.Close() //nolint:errcheck // close error is surfaced by Save below on write failure

	if err := ix.Save(f); err != nil {
		return "", fmt.Errorf("write %s: %w", indexFile, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync %s: %w", indexFile, err)
	}
	return path, nil
}

// WriteSummary persists the run summary.
func (w *Writer) WriteSummary(sum crawl.Summary) (string, error) {
	return w.writeJSON(summaryFile, sum)
}

func (w *Writer) writeJSON(name string, payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (w *Writer) writeDocumentsCSV(docs []crawl.Document) (string, error) {
	if len(docs) == 0 {
		w.logger.Warn("skipping empty csv export", zap.String("file", documentsBase+".csv"))
		return "", nil
	}
	header := []string{"url", "title", "text", "outbound_links", "depth", "status_code", "bytes", "duration_ms", "fetched_at", "blob_uri"}
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, []string{
			doc.URL,
			doc.Title,
			doc.Text,
			strings.Join(doc.Links, " "),
			strconv.Itoa(doc.Depth),
			strconv.Itoa(doc.StatusCode),
			strconv.FormatInt(doc.Bytes, 10),
			strconv.FormatInt(doc.DurationMs, 10),
			doc.FetchedAt.Format(time.RFC3339),
			doc.BlobURI,
		})
	}
	return w.writeCSV(documentsBase+".csv", header, rows)
}

func (w *Writer) writeSignalsCSV(records []signals.Record) (string, error) {
	if len(records) == 0 {
		w.logger.Warn("skipping empty csv export", zap.String("file", signalsBase+".csv"))
		return "", nil
	}
	header := []string{"url", "emails", "phones", "ctas"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.URL,
			strings.Join(rec.Emails, " "),
			strings.Join(rec.Phones, " "),
			strings.Join(rec.CTAs, "; "),
		})
	}
	return w.writeCSV(signalsBase+".csv", header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck // flush and sync below surface write failures

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write %s header: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write %s rows: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	return path, nil
}
