package events

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/vmihailenco/msgpack/v5"
)

// MessageSender publishes an encoded event to a topic.
type MessageSender interface {
	SendMessage(ctx context.Context, topic string, data []byte, attributes map[string]string) error
}

type pubSubSender struct {
	client *pubsub.Client
	logger *slog.Logger
}

// NewPubSubSender creates a Google Cloud Pub/Sub client for the project.
func NewPubSubSender(ctx context.Context, projectID string, logger *slog.Logger) (MessageSender, func(), error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	teardown := func() {
		client.Close()
	}
	return &pubSubSender{client: client, logger: logger}, teardown, nil
}

func (s *pubSubSender) SendMessage(ctx context.Context, topic string, data []byte, attributes map[string]string) error {
	result := s.client.Topic(topic).Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	serverID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	s.logger.Debug("Published event", "topic", topic, "server_id", serverID)
	return nil
}

// Encode serialises an envelope with MessagePack, keyed by the json field names.
func Encode(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", env.Type, err)
	}
	return buf.Bytes(), nil
}

// Decode reads an envelope produced by Encode. The payload comes back as a generic map.
func Decode(data []byte) (map[string]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return out, nil
}

// PubSubForwarder returns a subscriber that republishes every event to the topic.
func PubSubForwarder(sender MessageSender, topic string) Handler {
	return func(ctx context.Context, env Envelope) error {
		data, err := Encode(env)
		if err != nil {
			return err
		}
		return sender.SendMessage(ctx, topic, data, map[string]string{
			"type":        string(env.Type),
			"division_id": env.DivisionID,
		})
	}
}
