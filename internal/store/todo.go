package store

import (
	"context"
	"time"

	"github.com/dutyroster/apiserver/types"
	"github.com/jmoiron/sqlx"
)

const todoColumns = `
	id, title, content, due_date, priority, status, assigned_to, created_by, is_completed,
	created_at, updated_at`

// TodoRepository handles persistence for todos.
type TodoRepository struct {
	db DBTX
}

func NewTodoRepository(db DBTX) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Get(ctx context.Context, id int) (types.Todo, error) {
	const query = `SELECT` + todoColumns + ` FROM todos WHERE id = $1`
	var todo types.Todo
	if err := sqlx.GetContext(ctx, r.db, &todo, query, id); err != nil {
		return types.Todo{}, mapError(err)
	}
	return todo, nil
}

func (r *TodoRepository) List(ctx context.Context, filter types.TodoFilter) ([]types.Todo, error) {
	var conds conditions
	if filter.VisibleTo != nil {
		conds.add("(created_by = ? OR assigned_to = ?)", *filter.VisibleTo)
	}
	if filter.Status != nil {
		conds.add("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		conds.add("priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		conds.add("assigned_to = ?", *filter.AssignedTo)
	}

	query := `SELECT` + todoColumns + ` FROM todos` + conds.where() + ` ORDER BY id ASC`
	todos := []types.Todo{}
	if err := sqlx.SelectContext(ctx, r.db, &todos, query, conds.args...); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo types.Todo) (types.Todo, error) {
	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	const query = `
		INSERT INTO todos (
			title, content, due_date, priority, status, assigned_to, created_by, is_completed,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		todo.Title,
		todo.Content,
		todo.DueDate,
		todo.Priority,
		todo.Status,
		todo.AssignedTo,
		todo.CreatedBy,
		todo.IsCompleted,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID); err != nil {
		return types.Todo{}, mapError(err)
	}
	return todo, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo types.Todo) (types.Todo, error) {
	todo.UpdatedAt = time.Now()

	const query = `
		UPDATE todos
		SET title = $1,
			content = $2,
			due_date = $3,
			priority = $4,
			status = $5,
			assigned_to = $6,
			is_completed = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		todo.Title,
		todo.Content,
		todo.DueDate,
		todo.Priority,
		todo.Status,
		todo.AssignedTo,
		todo.IsCompleted,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return types.Todo{}, mapError(err)
	}
	if err := checkAffected(result); err != nil {
		return types.Todo{}, err
	}
	return todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM todos WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// DeleteByAccount removes todos the account created or is assigned to.
func (r *TodoRepository) DeleteByAccount(ctx context.Context, accountID int) (int64, error) {
	const query = `DELETE FROM todos WHERE assigned_to = $1 OR created_by = $1`
	result, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
