package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/signals"
)

func TestSaveDocumentInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "documents", "signals")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	doc := crawl.Document{
		URL:        "https://acme.test/",
		Title:      "Acme",
		Text:       "buy our widgets",
		Links:      []string{"https://acme.test/pricing"},
		Depth:      1,
		StatusCode: 200,
		Bytes:      512,
		DurationMs: 42,
		FetchedAt:  now,
		BlobURI:    "gs://bucket/pages/abc.html",
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			"run-1",
			doc.URL,
			doc.Title,
			doc.Text,
			[]byte(`["https://acme.test/pricing"]`),
			doc.Depth,
			doc.StatusCode,
			doc.Bytes,
			doc.DurationMs,
			doc.FetchedAt,
			doc.BlobURI,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveDocument(context.Background(), "run-1", doc))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDocumentsInsertsEveryRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	docs := []crawl.Document{
		{URL: "https://a.test/"},
		{URL: "https://b.test/"},
	}
	for range docs {
		mock.ExpectExec("INSERT INTO documents").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, store.SaveDocuments(context.Background(), "run-1", docs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDocumentRequiresURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	err = store.SaveDocument(context.Background(), "run-1", crawl.Document{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "document url is required")
}

func TestSaveDocumentPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", "")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("connection reset"))

	err = store.SaveDocument(context.Background(), "run-1", crawl.Document{URL: "https://a.test/"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert document")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSignalsInsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "documents", "signals")
	require.NoError(t, err)

	records := []signals.Record{
		{
			URL:    "https://acme.test/",
			Emails: []string{"sales@acme.test"},
			CTAs:   []string{"contact us"},
		},
	}

	mock.ExpectExec("INSERT INTO signals").
		WithArgs(
			"run-1",
			"https://acme.test/",
			[]byte(`["sales@acme.test"]`),
			[]byte(`[]`),
			[]byte(`["contact us"]`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveSignals(context.Background(), "run-1", records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "documents; drop table users", "signals")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid table name")
}
