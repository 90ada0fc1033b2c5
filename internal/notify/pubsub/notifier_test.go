// Package pubsub_test contains unit tests for the Pub/Sub notifier.
package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/leadspider/spider/internal/crawl"
	"github.com/leadspider/spider/internal/notify/pubsub"
)

// newFakeClient connects a Pub/Sub client to an in-process fake server.
func newFakeClient(t *testing.T) *gcppubsub.Client {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Logf("close fake pubsub server: %v", err)
		}
	})

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Logf("close grpc conn: %v", err)
		}
	})

	client, err := gcppubsub.NewClient(context.Background(), "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("close pubsub client: %v", err)
		}
	})
	return client
}

func TestNotifierPublishRunSummary(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	topic, err := client.CreateTopic(ctx, "run-notices")
	require.NoError(t, err)
	sub, err := client.CreateSubscription(ctx, "run-notices-sub", gcppubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	notifier, err := pubsub.NewWithClient(ctx, client, "run-notices")
	require.NoError(t, err)

	summary := crawl.Summary{
		RunID:      "0191d2a8-0000-7000-8000-000000000001",
		Seeds:      2,
		Pages:      41,
		Dropped:    3,
		DurationMs: 1500,
		StartedAt:  time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 11, 3, 12, 0, 1, 500000000, time.UTC),
	}
	id, err := notifier.PublishRunSummary(ctx, summary)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// Receive the message back from the fake server.
	receiveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	received := make(chan *gcppubsub.Message, 1)
	go func() {
		receiveErr := sub.Receive(receiveCtx, func(_ context.Context, msg *gcppubsub.Message) {
			msg.Ack()
			select {
			case received <- msg:
			default:
			}
			cancel()
		})
		if receiveErr != nil {
			t.Logf("receive: %v", receiveErr)
		}
	}()

	select {
	case msg := <-received:
		assert.Equal(t, "run.finished", msg.Attributes["event"])
		assert.Equal(t, summary.RunID, msg.Attributes["run_id"])

		var got crawl.Summary
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, summary.RunID, got.RunID)
		assert.Equal(t, summary.Pages, got.Pages)
		assert.Equal(t, summary.Dropped, got.Dropped)
	case <-receiveCtx.Done():
		t.Fatal("timed out waiting for published summary")
	}
}

func TestNewWithClientRequiresExistingTopic(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient(t)

	_, err := pubsub.NewWithClient(ctx, client, "missing-topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestNewWithClientRequiresClient(t *testing.T) {
	_, err := pubsub.NewWithClient(context.Background(), nil, "run-notices")
	assert.Error(t, err)
}
