package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dutyroster/apiserver/types"
	"go.uber.org/zap"
)

const maxTodoTitleLength = 100

// TodoService encapsulates todo use-cases.
type TodoService struct {
	tx     Transactor
	events notifier
	log    *zap.Logger
}

func NewTodoService(tx Transactor, pub Publisher, log *zap.Logger) *TodoService {
	log = loggerOrNop(log)
	return &TodoService{
		tx:     tx,
		events: newNotifier(pub, log),
		log:    log,
	}
}

// Create stores a todo created by actor. Priority and status default to
// medium and pending.
func (s *TodoService) Create(ctx context.Context, actor types.Account, todo types.Todo) (types.Todo, error) {
	if err := TodoPolicy.Check(actor, ActionCreate, Subject{}); err != nil {
		return types.Todo{}, err
	}
	if todo.Priority == "" {
		todo.Priority = types.PriorityMedium
	}
	if todo.Status == "" {
		todo.Status = types.TodoPending
	}
	todo.CreatedBy = actor.ID
	todo.SyncCompletion()
	if err := validateTodo(todo); err != nil {
		return types.Todo{}, err
	}

	var created types.Todo
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		if todo.AssignedTo != nil {
			if _, err := repos.Accounts.GetByID(ctx, *todo.AssignedTo); err != nil {
				return translate(err, "Assigned user")
			}
		}
		var err error
		created, err = repos.Todos.Create(ctx, todo)
		return err
	})
	if err != nil {
		return types.Todo{}, err
	}

	if created.AssignedTo != nil {
		s.emitAssigned(ctx, actor, created)
	}
	return created, nil
}

// List returns todos matching filter. Non-admins only ever see todos they
// created or are assigned to, whatever the filter says.
func (s *TodoService) List(ctx context.Context, actor types.Account, filter types.TodoFilter) ([]types.Todo, error) {
	if err := TodoPolicy.Check(actor, ActionList, Subject{}); err != nil {
		return nil, err
	}
	filter.VisibleTo = nil
	if !actor.IsAdmin {
		id := actor.ID
		filter.VisibleTo = &id
	}

	var todos []types.Todo
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		todos, err = repos.Todos.List(ctx, filter)
		return err
	})
	return todos, err
}

func (s *TodoService) Get(ctx context.Context, actor types.Account, id int) (types.Todo, error) {
	var todo types.Todo
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := s.load(ctx, repos, actor, id, ActionRead)
		todo = found
		return err
	})
	return todo, err
}

// Update applies the supplied fields and re-derives IsCompleted from the
// resulting status.
func (s *TodoService) Update(ctx context.Context, actor types.Account, id int, patch types.TodoPatch) (types.Todo, error) {
	var (
		updated  types.Todo
		reassign bool
	)
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		todo, err := s.load(ctx, repos, actor, id, ActionUpdate)
		if err != nil {
			return err
		}
		if assignee := patch.AssignedTo.Value; assignee != nil {
			if _, err := repos.Accounts.GetByID(ctx, *assignee); err != nil {
				return translate(err, "Assigned user")
			}
			reassign = todo.AssignedTo == nil || *todo.AssignedTo != *assignee
		}

		patch.Apply(&todo)
		if err := validateTodo(todo); err != nil {
			return err
		}
		updated, err = repos.Todos.Update(ctx, todo)
		return translate(err, "Todo")
	})
	if err != nil {
		return types.Todo{}, err
	}

	if reassign {
		s.emitAssigned(ctx, actor, updated)
	}
	return updated, nil
}

func (s *TodoService) Delete(ctx context.Context, actor types.Account, id int) error {
	return s.tx.InTx(ctx, func(repos Repositories) error {
		if _, err := s.load(ctx, repos, actor, id, ActionDelete); err != nil {
			return err
		}
		return translate(repos.Todos.Delete(ctx, id), "Todo")
	})
}

// Complete marks the todo completed. Only the assignee or an admin may
// do so; field validation does not apply.
func (s *TodoService) Complete(ctx context.Context, actor types.Account, id int) (types.Todo, error) {
	var completed types.Todo
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		todo, err := s.load(ctx, repos, actor, id, ActionComplete)
		if err != nil {
			return err
		}
		todo.Status = types.TodoCompleted
		todo.IsCompleted = true
		completed, err = repos.Todos.Update(ctx, todo)
		return translate(err, "Todo")
	})
	if err != nil {
		return types.Todo{}, err
	}

	s.log.Info("todo completed", zap.Int("todo_id", id), zap.Int("actor_id", actor.ID))
	s.events.emit(ctx, types.EventTodoCompleted, actor.ID, map[string]any{
		"todo_id":     completed.ID,
		"title":       completed.Title,
		"created_by":  completed.CreatedBy,
		"assigned_to": completed.AssignedTo,
	})
	return completed, nil
}

// load fetches a todo and checks actor may perform action on it.
func (s *TodoService) load(ctx context.Context, repos Repositories, actor types.Account, id int, action Action) (types.Todo, error) {
	todo, err := repos.Todos.Get(ctx, id)
	if err != nil {
		return types.Todo{}, translate(err, "Todo")
	}
	subject := Subject{CreatorID: todo.CreatedBy, AssigneeID: todo.AssignedTo}
	if err := TodoPolicy.Check(actor, action, subject); err != nil {
		return types.Todo{}, err
	}
	return todo, nil
}

func (s *TodoService) emitAssigned(ctx context.Context, actor types.Account, todo types.Todo) {
	s.events.emit(ctx, types.EventTodoAssigned, actor.ID, map[string]any{
		"todo_id":     todo.ID,
		"title":       todo.Title,
		"assigned_to": todo.AssignedTo,
		"due_date":    todo.DueDate,
	})
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case types.PriorityLow, types.PriorityMedium, types.PriorityHigh:
		return true
	}
	return false
}

// ValidTodoStatus reports whether status is a known todo status.
func ValidTodoStatus(status string) bool {
	switch status {
	case types.TodoPending, types.TodoInProgress, types.TodoCompleted:
		return true
	}
	return false
}

func validateTodo(todo types.Todo) error {
	title := strings.TrimSpace(todo.Title)
	if title == "" {
		return invalidInput("title is required")
	}
	if utf8.RuneCountInString(todo.Title) > maxTodoTitleLength {
		return invalidInput("title must be at most %d characters", maxTodoTitleLength)
	}
	if !ValidPriority(todo.Priority) {
		return invalidInput("priority must be one of low, medium, high")
	}
	if !ValidTodoStatus(todo.Status) {
		return invalidInput("status must be one of pending, in_progress, completed")
	}
	return nil
}
