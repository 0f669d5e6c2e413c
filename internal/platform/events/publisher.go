package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
)

// ChangeAction enumerates catalog mutations announced to downstream consumers.
type ChangeAction string

const (
	// ActionCreated announces a new document.
	ActionCreated ChangeAction = "created"
	// ActionUpdated announces a partial update.
	ActionUpdated ChangeAction = "updated"
	// ActionDeleted announces a removal.
	ActionDeleted ChangeAction = "deleted"
)

// ChangeEvent describes one committed catalog mutation.
type ChangeEvent struct {
	Collection string       `json:"collection"`
	EntityID   string       `json:"entityId"`
	Action     ChangeAction `json:"action"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Publisher announces catalog changes to interested consumers.
type Publisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) (string, error)
}

// PubSubPublisher publishes catalog change events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher constructs a Pub/Sub backed change publisher.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("events publisher: topic is required")
	}
	return &PubSubPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishChange enqueues the change event and returns the server message ID.
func (p *PubSubPublisher) PublishChange(ctx context.Context, event ChangeEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("events publisher: not initialised")
	}
	if strings.TrimSpace(event.Collection) == "" || strings.TrimSpace(event.EntityID) == "" {
		return "", errors.New("events publisher: collection and entity id are required")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal change event: %w", err)
	}

	attrs := map[string]string{
		"collection": event.Collection,
		"action":     string(event.Action),
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish change event: %w", err)
	}
	return id, nil
}
