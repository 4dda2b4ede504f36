package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/samvad-hq/tba-sync/internal/logger"
	"google.golang.org/api/option"
)

// gcpPubSubPublisher publishes events to a Pub/Sub topic with the watch id as
// ordering key, so updates to one resource arrive in order on ordered
// subscriptions.
type gcpPubSubPublisher struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    logger.Logger
}

func newGCPPubSubPublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	var opts []option.ClientOption
	if cfg.GCPPubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPPubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.GCPPubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client for %q: %w", cfg.GCPPubSub.ProjectID, err)
	}
	topic := client.Topic(cfg.GCPPubSub.Topic)
	topic.EnableMessageOrdering = true

	return &gcpPubSubPublisher{
		id:     cfg.ID,
		client: client,
		topic:  topic,
		log:    log,
	}, nil
}

func (g *gcpPubSubPublisher) ID() string   { return g.id }
func (g *gcpPubSubPublisher) Type() string { return TypeGCPPubSub }

func (g *gcpPubSubPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.marshal()
	if err != nil {
		return err
	}

	res := g.topic.Publish(ctx, &pubsub.Message{
		Data:        body,
		Attributes:  evt.attributes(),
		OrderingKey: evt.WatchID,
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		// A failed publish pauses the ordering key until resumed.
		g.topic.ResumePublish(evt.WatchID)
		return fmt.Errorf("pubsub publish to %s: %w", g.topic.ID(), err)
	}
	g.log.DebugObj("pubsub message published", "publisher_delivery", map[string]any{
		"publisher_id": g.id,
		"watch_id":     evt.WatchID,
		"message_id":   msgID,
	})
	return nil
}

// Close flushes pending messages and releases the client.
func (g *gcpPubSubPublisher) Close() error {
	g.topic.Stop()
	return g.client.Close()
}
