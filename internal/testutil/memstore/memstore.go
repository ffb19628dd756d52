// Package memstore is an in-memory implementation of the service
// repositories. It is test support only and is never wired into the
// server binary. Transactions are copy-on-write: a failed transaction
// leaves the previous state untouched.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/internal/store"
	"github.com/dutyroster/apiserver/types"
)

// Store holds the tables and serializes transactions.
type Store struct {
	mu     sync.Mutex
	data   *tables
	faults map[string]error
}

type tables struct {
	seq         int
	accounts    map[int]types.Account
	schedules   map[int]types.Schedule
	workRecords map[int]types.WorkRecord
	todos       map[int]types.Todo
}

func New() *Store {
	return &Store{
		data: &tables{
			accounts:    map[int]types.Account{},
			schedules:   map[int]types.Schedule{},
			workRecords: map[int]types.WorkRecord{},
			todos:       map[int]types.Todo{},
		},
		faults: map[string]error{},
	}
}

// FailOn makes the named operation (for example "accounts.delete")
// return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// InTx implements services.Transactor.
func (s *Store) InTx(ctx context.Context, fn func(services.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	tx := &txn{t: work, faults: s.faults}
	if err := fn(services.Repositories{
		Accounts:    accountRepo{tx},
		Schedules:   scheduleRepo{tx},
		WorkRecords: workRecordRepo{tx},
		Todos:       todoRepo{tx},
	}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (t *tables) clone() *tables {
	c := &tables{
		seq:         t.seq,
		accounts:    make(map[int]types.Account, len(t.accounts)),
		schedules:   make(map[int]types.Schedule, len(t.schedules)),
		workRecords: make(map[int]types.WorkRecord, len(t.workRecords)),
		todos:       make(map[int]types.Todo, len(t.todos)),
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.schedules {
		c.schedules[k] = v
	}
	for k, v := range t.workRecords {
		c.workRecords[k] = v
	}
	for k, v := range t.todos {
		c.todos[k] = v
	}
	return c
}

type txn struct {
	t      *tables
	faults map[string]error
}

func (x *txn) fault(op string) error {
	return x.faults[op]
}

func (x *txn) nextID() int {
	x.t.seq++
	return x.t.seq
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type accountRepo struct{ x *txn }

func (r accountRepo) GetByID(_ context.Context, id int) (types.Account, error) {
	if err := r.x.fault("accounts.get"); err != nil {
		return types.Account{}, err
	}
	acc, ok := r.x.t.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return acc, nil
}

func (r accountRepo) GetByLogin(_ context.Context, login string) (types.Account, error) {
	if err := r.x.fault("accounts.get"); err != nil {
		return types.Account{}, err
	}
	for _, acc := range r.x.t.accounts {
		if acc.Login == login {
			return acc, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (r accountRepo) List(_ context.Context, search string) ([]types.Account, error) {
	accounts := []types.Account{}
	for _, acc := range r.x.t.accounts {
		if search == "" || acc.Login == search || strings.Contains(acc.Name, search) {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Login < accounts[j].Login })
	return accounts, nil
}

func (r accountRepo) Names(_ context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	for _, id := range ids {
		if acc, ok := r.x.t.accounts[id]; ok {
			names[id] = acc.Name
		}
	}
	return names, nil
}

func (r accountRepo) Create(_ context.Context, acc types.Account) (types.Account, error) {
	if err := r.x.fault("accounts.create"); err != nil {
		return types.Account{}, err
	}
	for _, existing := range r.x.t.accounts {
		if existing.Login == acc.Login {
			return types.Account{}, fmt.Errorf("%w: accounts_login_key", store.ErrConflict)
		}
	}
	now := time.Now()
	acc.ID = r.x.nextID()
	acc.CreatedAt = now
	acc.UpdatedAt = now
	r.x.t.accounts[acc.ID] = acc
	return acc, nil
}

func (r accountRepo) Update(_ context.Context, acc types.Account) (types.Account, error) {
	if err := r.x.fault("accounts.update"); err != nil {
		return types.Account{}, err
	}
	if _, ok := r.x.t.accounts[acc.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	acc.UpdatedAt = time.Now()
	r.x.t.accounts[acc.ID] = acc
	return acc, nil
}

func (r accountRepo) Delete(_ context.Context, id int) error {
	if err := r.x.fault("accounts.delete"); err != nil {
		return err
	}
	if _, ok := r.x.t.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.x.t.accounts, id)
	return nil
}

type scheduleRepo struct{ x *txn }

func (r scheduleRepo) Get(_ context.Context, id int) (types.Schedule, error) {
	schedule, ok := r.x.t.schedules[id]
	if !ok {
		return types.Schedule{}, store.ErrNotFound
	}
	return schedule, nil
}

func (r scheduleRepo) List(_ context.Context, filter types.ScheduleFilter) ([]types.Schedule, error) {
	schedules := []types.Schedule{}
	for _, id := range sortedKeys(r.x.t.schedules) {
		s := r.x.t.schedules[id]
		if filter.StartDate != nil && s.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && s.Date.After(*filter.EndDate) {
			continue
		}
		if filter.StudentID != nil && s.StudentID != *filter.StudentID {
			continue
		}
		schedules = append(schedules, s)
	}
	sort.SliceStable(schedules, func(i, j int) bool { return schedules[i].Date.Before(schedules[j].Date) })
	return schedules, nil
}

func (r scheduleRepo) Create(_ context.Context, schedule types.Schedule) (types.Schedule, error) {
	if _, ok := r.x.t.accounts[schedule.StudentID]; !ok {
		return types.Schedule{}, fmt.Errorf("schedules.student_id references missing account %d", schedule.StudentID)
	}
	now := time.Now()
	schedule.ID = r.x.nextID()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	r.x.t.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (r scheduleRepo) Update(_ context.Context, schedule types.Schedule) (types.Schedule, error) {
	if _, ok := r.x.t.schedules[schedule.ID]; !ok {
		return types.Schedule{}, store.ErrNotFound
	}
	schedule.UpdatedAt = time.Now()
	r.x.t.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (r scheduleRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.x.t.schedules[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.x.t.schedules, id)
	return nil
}

func (r scheduleRepo) DeleteRange(_ context.Context, start, end types.Date) (int64, error) {
	var deleted int64
	for id, s := range r.x.t.schedules {
		if !s.Date.Before(start) && !s.Date.After(end) {
			delete(r.x.t.schedules, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r scheduleRepo) DeleteByStudent(_ context.Context, studentID int) (int64, error) {
	if err := r.x.fault("schedules.delete_by_student"); err != nil {
		return 0, err
	}
	var deleted int64
	for id, s := range r.x.t.schedules {
		if s.StudentID == studentID {
			delete(r.x.t.schedules, id)
			deleted++
		}
	}
	return deleted, nil
}

type workRecordRepo struct{ x *txn }

func (r workRecordRepo) Get(_ context.Context, id int) (types.WorkRecord, error) {
	record, ok := r.x.t.workRecords[id]
	if !ok {
		return types.WorkRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (r workRecordRepo) List(_ context.Context, filter types.WorkRecordFilter) ([]types.WorkRecord, error) {
	records := []types.WorkRecord{}
	for _, id := range sortedKeys(r.x.t.workRecords) {
		w := r.x.t.workRecords[id]
		if filter.StartDate != nil && w.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && w.Date.After(*filter.EndDate) {
			continue
		}
		if filter.StudentID != nil && w.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && w.Status != *filter.Status {
			continue
		}
		records = append(records, w)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (r workRecordRepo) Create(_ context.Context, record types.WorkRecord) (types.WorkRecord, error) {
	if _, ok := r.x.t.accounts[record.StudentID]; !ok {
		return types.WorkRecord{}, fmt.Errorf("work_records.student_id references missing account %d", record.StudentID)
	}
	now := time.Now()
	record.ID = r.x.nextID()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.x.t.workRecords[record.ID] = record
	return record, nil
}

func (r workRecordRepo) Update(_ context.Context, record types.WorkRecord) (types.WorkRecord, error) {
	if _, ok := r.x.t.workRecords[record.ID]; !ok {
		return types.WorkRecord{}, store.ErrNotFound
	}
	record.UpdatedAt = time.Now()
	r.x.t.workRecords[record.ID] = record
	return record, nil
}

func (r workRecordRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.x.t.workRecords[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.x.t.workRecords, id)
	return nil
}

func (r workRecordRepo) DeleteByStudent(_ context.Context, studentID int) (int64, error) {
	var deleted int64
	for id, w := range r.x.t.workRecords {
		if w.StudentID == studentID {
			delete(r.x.t.workRecords, id)
			deleted++
		}
	}
	return deleted, nil
}

type todoRepo struct{ x *txn }

func (r todoRepo) Get(_ context.Context, id int) (types.Todo, error) {
	todo, ok := r.x.t.todos[id]
	if !ok {
		return types.Todo{}, store.ErrNotFound
	}
	return todo, nil
}

func (r todoRepo) List(_ context.Context, filter types.TodoFilter) ([]types.Todo, error) {
	todos := []types.Todo{}
	for _, id := range sortedKeys(r.x.t.todos) {
		t := r.x.t.todos[id]
		if filter.VisibleTo != nil && t.CreatedBy != *filter.VisibleTo &&
			(t.AssignedTo == nil || *t.AssignedTo != *filter.VisibleTo) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			continue
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (r todoRepo) Create(_ context.Context, todo types.Todo) (types.Todo, error) {
	if _, ok := r.x.t.accounts[todo.CreatedBy]; !ok {
		return types.Todo{}, fmt.Errorf("todos.created_by references missing account %d", todo.CreatedBy)
	}
	now := time.Now()
	todo.ID = r.x.nextID()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.x.t.todos[todo.ID] = todo
	return todo, nil
}

func (r todoRepo) Update(_ context.Context, todo types.Todo) (types.Todo, error) {
	if _, ok := r.x.t.todos[todo.ID]; !ok {
		return types.Todo{}, store.ErrNotFound
	}
	todo.UpdatedAt = time.Now()
	r.x.t.todos[todo.ID] = todo
	return todo, nil
}

func (r todoRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.x.t.todos[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.x.t.todos, id)
	return nil
}

func (r todoRepo) DeleteByAccount(_ context.Context, accountID int) (int64, error) {
	var deleted int64
	for id, t := range r.x.t.todos {
		if t.CreatedBy == accountID || (t.AssignedTo != nil && *t.AssignedTo == accountID) {
			delete(r.x.t.todos, id)
			deleted++
		}
	}
	return deleted, nil
}
