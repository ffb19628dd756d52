package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dutyroster/apiserver/types"
)

const eventTypeAttribute = "type"

// EventPublisher publishes roster events as JSON on a single channel.
type EventPublisher struct {
	mq      *MQ
	channel string
}

func NewEventPublisher(mq *MQ, channel string) *EventPublisher {
	return &EventPublisher{mq: mq, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, event types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = p.mq.Publish(ctx, p.channel, data, map[string]string{eventTypeAttribute: event.Type})
	return err
}

// DecodeEvent parses a message produced by EventPublisher.
func DecodeEvent(msg Message) (types.Event, error) {
	var event types.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return event, nil
}
