package types

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// Todo is a task with an optional assignee.
type Todo struct {
	// ID is the unique identifier of the todo.
	ID int `json:"id" db:"id"`

	// Title is a short summary, 1 to 100 characters.
	Title string `json:"title" db:"title"`

	Content *string `json:"content" db:"content"`
	DueDate *Date   `json:"due_date" db:"due_date"`

	// Priority is one of low, medium or high.
	Priority string `json:"priority" db:"priority"`

	// Status is one of pending, in_progress or completed.
	Status string `json:"status" db:"status"`

	// AssignedTo references the account responsible for the task.
	AssignedTo *int `json:"assigned_to" db:"assigned_to"`

	// CreatedBy references the account that created the task.
	CreatedBy int `json:"created_by" db:"created_by"`

	// IsCompleted mirrors Status == completed.
	IsCompleted bool `json:"is_completed" db:"is_completed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SyncCompletion derives IsCompleted from Status.
func (t *Todo) SyncCompletion() {
	t.IsCompleted = t.Status == TodoCompleted
}

// TodoPatch is a sparse update. Nil pointers and unset Nullable fields
// are left untouched; a set Nullable with a nil Value clears the column.
type TodoPatch struct {
	Title      *string
	Content    Nullable[string]
	DueDate    Nullable[Date]
	Priority   *string
	Status     *string
	AssignedTo Nullable[int]
}

// Apply copies the supplied fields onto t and re-derives IsCompleted.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	p.Content.assign(&t.Content)
	p.DueDate.assign(&t.DueDate)
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	p.AssignedTo.assign(&t.AssignedTo)
	t.SyncCompletion()
}

// TodoFilter narrows a todo listing. VisibleTo, when set, restricts the
// result to todos created by or assigned to that account.
type TodoFilter struct {
	Status     *string
	Priority   *string
	AssignedTo *int
	VisibleTo  *int
}
