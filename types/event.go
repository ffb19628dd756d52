package types

import (
	"encoding/json"
	"time"
)

const (
	EventAccountDeleted        = "account.deleted"
	EventSchedulesBatchDeleted = "schedules.batch_deleted"
	EventTodoAssigned          = "todo.assigned"
	EventTodoCompleted         = "todo.completed"
)

// Event is a roster notification published after a change commits.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	ActorID    int             `json:"actor_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
