package pipeline

import (
	"context"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/notify"
)

// DefaultTopic is the broadcast group progress is published to.
const DefaultTopic = "progress_group"

// Publisher delivers progress messages. Publishing is fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, msg Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, msg Message)

func (f PublisherFunc) Publish(ctx context.Context, msg Message) { f(ctx, msg) }

// HubPublisher publishes encoded messages to one topic of a notify.Hub.
type HubPublisher struct {
	hub   *notify.Hub
	topic string
}

// NewHubPublisher creates a publisher for topic. An empty topic uses DefaultTopic.
func NewHubPublisher(hub *notify.Hub, topic string) *HubPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &HubPublisher{hub: hub, topic: topic}
}

// Topic returns the topic messages are published to.
func (p *HubPublisher) Topic() string { return p.topic }

func (p *HubPublisher) Publish(_ context.Context, msg Message) {
	data, err := msg.Encode()
	if err != nil {
		logger.Error("Failed to encode progress message", logger.Fields(
			logger.FieldRunID, msg.RunID,
			logger.FieldStep, string(msg.Step),
			logger.FieldError, err.Error(),
		))
		return
	}
	p.hub.Publish(p.topic, data)
}

// MultiPublisher fans a message out to several publishers in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, msg Message) {
	for _, p := range m {
		p.Publish(ctx, msg)
	}
}
