package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/leadspider/spider/internal/progress"
)

func newTestPrometheusSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	return sink, reg
}

func runEvent(stage progress.Stage, runID [16]byte) progress.Event {
	return progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: stage,
	}
}

func TestPrometheusSinkRunLifecycle(t *testing.T) {
	t.Parallel()

	sink, _ := newTestPrometheusSink(t)
	runID := progress.UUIDToBytes(uuid.Must(uuid.NewV7()))

	err := sink.Consume(context.Background(), []progress.Event{runEvent(progress.StageRunStart, runID)})
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsActive))

	done := runEvent(progress.StageRunDone, runID)
	done.Dur = 3 * time.Second
	err = sink.Consume(context.Background(), []progress.Event{done})
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsCompleted))
	require.Equal(t, float64(0), testutil.ToFloat64(sink.runsActive))
}

func TestPrometheusSinkDuplicateRunStart(t *testing.T) {
	t.Parallel()

	sink, _ := newTestPrometheusSink(t)
	runID := progress.UUIDToBytes(uuid.Must(uuid.NewV7()))

	batch := []progress.Event{
		runEvent(progress.StageRunStart, runID),
		runEvent(progress.StageRunStart, runID),
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, float64(2), testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsActive))
}

func TestPrometheusSinkPageEvents(t *testing.T) {
	t.Parallel()

	sink, reg := newTestPrometheusSink(t)
	runID := progress.UUIDToBytes(uuid.Must(uuid.NewV7()))

	page := runEvent(progress.StagePageDone, runID)
	page.URL = "https://example.com/pricing"
	page.StatusClass = progress.Status2xx
	page.Bytes = 2048
	page.Dur = 120 * time.Millisecond

	drop := runEvent(progress.StagePageDrop, runID)
	drop.URL = "https://example.com/broken"

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{page, page, drop}))

	require.Equal(t, float64(2), testutil.ToFloat64(sink.pagesCompleted.WithLabelValues("2xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.pagesDropped))
	require.Equal(t, float64(4096), testutil.ToFloat64(sink.pageBytes))
	require.Equal(t, 1, testutil.CollectAndCount(sink.fetchDuration))
	require.Equal(t, 8, testutil.CollectAndCount(reg))
}

func TestPrometheusSinkRegistersOnce(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "register progress collector")
}
