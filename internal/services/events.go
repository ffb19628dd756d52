package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dutyroster/apiserver/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher delivers roster events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event types.Event) error
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, types.Event) error { return nil }

// notifier publishes events after a transaction commits. Failures are
// logged and never reach the caller.
type notifier struct {
	pub Publisher
	log *zap.Logger
}

func newNotifier(pub Publisher, log *zap.Logger) notifier {
	if pub == nil {
		pub = discardPublisher{}
	}
	return notifier{pub: pub, log: log}
}

func (n notifier) emit(ctx context.Context, eventType string, actorID int, payload any) {
	event := types.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			n.log.Warn("encode event payload", zap.String("type", eventType), zap.Error(err))
			return
		}
		event.Payload = data
	}
	if err := n.pub.Publish(ctx, event); err != nil {
		n.log.Warn("publish event",
			zap.String("type", eventType),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func loggerOrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
