package notify

import (
	"context"
	"fmt"

	"github.com/kbukum/vidscribe/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component ties a Hub to the service lifecycle. Stopping it closes every
// subscriber queue, which ends the live sessions reading from them.
type Component struct {
	hub *Hub
}

// NewComponent wraps hub as a lifecycle component.
func NewComponent(hub *Hub) *Component {
	return &Component{hub: hub}
}

// Hub returns the wrapped hub.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "notify-hub" }

// Start is a no-op; the hub is usable from construction.
func (c *Component) Start(_ context.Context) error { return nil }

func (c *Component) Stop(_ context.Context) error {
	c.hub.Stop()
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.hub.Stopped() {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "hub stopped",
		}
	}

	details := make(map[string]any)
	for _, topic := range c.hub.Topics() {
		details[topic] = c.hub.SubscriberCount(topic)
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d subscribers connected", c.hub.TotalSubscribers()),
		Details: details,
	}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Notify Hub",
		Type:    "hub",
		Details: fmt.Sprintf("queue=%d", c.hub.queueSize),
	}
}
