package services

import (
	"context"

	"github.com/dutyroster/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByLogin(ctx context.Context, login string) (types.Account, error)
	List(ctx context.Context, search string) ([]types.Account, error)
	Names(ctx context.Context, ids []int) (map[int]string, error)
	Create(ctx context.Context, acc types.Account) (types.Account, error)
	Update(ctx context.Context, acc types.Account) (types.Account, error)
	Delete(ctx context.Context, id int) error
}

// ScheduleRepository defines persistence operations for schedules.
type ScheduleRepository interface {
	Get(ctx context.Context, id int) (types.Schedule, error)
	List(ctx context.Context, filter types.ScheduleFilter) ([]types.Schedule, error)
	Create(ctx context.Context, schedule types.Schedule) (types.Schedule, error)
	Update(ctx context.Context, schedule types.Schedule) (types.Schedule, error)
	Delete(ctx context.Context, id int) error
	DeleteRange(ctx context.Context, start, end types.Date) (int64, error)
	DeleteByStudent(ctx context.Context, studentID int) (int64, error)
}

// WorkRecordRepository defines persistence operations for work records.
type WorkRecordRepository interface {
	Get(ctx context.Context, id int) (types.WorkRecord, error)
	List(ctx context.Context, filter types.WorkRecordFilter) ([]types.WorkRecord, error)
	Create(ctx context.Context, record types.WorkRecord) (types.WorkRecord, error)
	Update(ctx context.Context, record types.WorkRecord) (types.WorkRecord, error)
	Delete(ctx context.Context, id int) error
	DeleteByStudent(ctx context.Context, studentID int) (int64, error)
}

// TodoRepository defines persistence operations for todos.
type TodoRepository interface {
	Get(ctx context.Context, id int) (types.Todo, error)
	List(ctx context.Context, filter types.TodoFilter) ([]types.Todo, error)
	Create(ctx context.Context, todo types.Todo) (types.Todo, error)
	Update(ctx context.Context, todo types.Todo) (types.Todo, error)
	Delete(ctx context.Context, id int) error
	DeleteByAccount(ctx context.Context, accountID int) (int64, error)
}

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Accounts    AccountRepository
	Schedules   ScheduleRepository
	WorkRecords WorkRecordRepository
	Todos       TodoRepository
}

// Transactor runs fn against repositories sharing a single transaction.
// Nothing fn wrote persists unless it returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(Repositories) error) error

func (f TransactorFunc) InTx(ctx context.Context, fn func(Repositories) error) error {
	return f(ctx, fn)
}
