// Package pubsub publishes run completion notices to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/leadspider/spider/internal/crawl"
)

// Config captures the parameters required to publish run notices.
type Config struct {
	// ProjectID is the Google Cloud project that owns the topic.
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
	// Topic is the Pub/Sub topic ID that receives run summaries.
	Topic string `mapstructure:"topic" yaml:"topic"`
}

// Notifier publishes run summaries to a Pub/Sub topic.
type Notifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New creates a Pub/Sub notifier. Authentication is handled via Google's
// Application Default Credentials. The topic is checked for existence so
// a bad configuration fails at startup instead of after a finished run.
func New(ctx context.Context, cfg Config) (*Notifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("topic id is required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	notifier, err := NewWithClient(ctx, client, cfg.Topic)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (close client: %v)", err, closeErr)
		}
		return nil, err
	}
	return notifier, nil
}

// NewWithClient wires an existing Pub/Sub client, which keeps the
// notifier testable against a fake server.
func NewWithClient(ctx context.Context, client *pubsub.Client, topicID string) (*Notifier, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %q does not exist", topicID)
	}
	return &Notifier{client: client, topic: topic}, nil
}

// PublishRunSummary marshals the summary to JSON and publishes it. The
// call blocks until the server acknowledges the message so the notice is
// not lost when the process exits right after a run.
func (n *Notifier) PublishRunSummary(ctx context.Context, summary crawl.Summary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal run summary: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event":  "run.finished",
			"run_id": summary.RunID,
		},
	}
	result := n.topic.Publish(ctx, msg)
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish run summary: %w", err)
	}
	return id, nil
}

// Close flushes pending publishes and releases the underlying client.
func (n *Notifier) Close() error {
	n.topic.Stop()
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
