package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.student(t, "alice", "Alice")
	assert.False(t, alice.IsAdmin)
	assert.False(t, alice.IsPasswordSet)
	assert.NotEqual(t, "pw-alice", alice.PasswordHash)

	_, err := f.accounts.Create(ctx, f.admin, types.NewAccount{Name: "Other", Login: "alice", Password: "x"})
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.EqualError(t, err, "Username already registered")

	_, err = f.accounts.Create(ctx, alice, types.NewAccount{Name: "Bob", Login: "bob", Password: "x"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.accounts.Create(ctx, f.admin, types.NewAccount{Name: "Bob", Login: "bob"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestPasswordsLongerThanBcryptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	long := strings.Repeat("p", 80)

	_, err := f.accounts.Create(ctx, f.admin, types.NewAccount{Name: "Bob", Login: "bob", Password: long})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.EqualError(t, err, "Password must be at most 72 bytes")

	err = f.accounts.ResetPassword(ctx, f.admin, alice.ID, long)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	err = f.accounts.ChangeOwnPassword(ctx, alice, long)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	// 25 three-byte runes pass a character count but not the byte limit.
	err = f.accounts.ChangeOwnPassword(ctx, alice, strings.Repeat("密", 25))
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	assert.NoError(t, f.accounts.ChangeOwnPassword(ctx, alice, strings.Repeat("p", 72)))
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)

	acc, created, err := f.accounts.SeedAdmin(context.Background(), types.NewAccount{
		Name:     "Another",
		Login:    "admin",
		Password: "other",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, f.admin.ID, acc.ID)
	assert.Equal(t, "管理员", acc.Name)
	assert.True(t, acc.IsAdmin)
	assert.True(t, acc.IsPasswordSet)
}

func TestAccountGetIsSelfOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	got, err := f.accounts.Get(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Login)

	_, err = f.accounts.Get(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.accounts.Get(ctx, f.admin, bob.ID)
	assert.NoError(t, err)

	_, err = f.accounts.Get(ctx, alice, 999)
	assert.EqualError(t, err, "Student not found")
}

func TestAccountList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice Zhang")
	f.student(t, "bob", "Bob Li")

	all, err := f.accounts.List(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"admin", "alice", "bob"}, []string{all[0].Login, all[1].Login, all[2].Login})

	byName, err := f.accounts.List(ctx, alice, "Zhang")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "alice", byName[0].Login)

	byLogin, err := f.accounts.List(ctx, alice, "bob")
	require.NoError(t, err)
	require.Len(t, byLogin, 1)
}

func TestAccountUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	updated, err := f.accounts.Update(ctx, alice, alice.ID, types.AccountPatch{Phone: types.Some("555-0100")})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0100", *updated.Phone)
	assert.Equal(t, "Alice", updated.Name)

	cleared, err := f.accounts.Update(ctx, alice, alice.ID, types.AccountPatch{Phone: types.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Phone)

	_, err = f.accounts.Update(ctx, alice, bob.ID, types.AccountPatch{Name: ptr("Mallory")})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.accounts.Update(ctx, alice, alice.ID, types.AccountPatch{IsAdmin: ptr(true)})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.accounts.Update(ctx, alice, alice.ID, types.AccountPatch{Name: ptr("  ")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	promoted, err := f.accounts.Update(ctx, f.admin, bob.ID, types.AccountPatch{IsAdmin: ptr(true)})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
}

func TestSetAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")

	_, err := f.accounts.SetAdmin(ctx, alice, alice.ID, true)
	assert.ErrorIs(t, err, services.ErrForbidden)

	acc, err := f.accounts.SetAdmin(ctx, f.admin, alice.ID, true)
	require.NoError(t, err)
	assert.True(t, acc.IsAdmin)

	_, err = f.accounts.SetAdmin(ctx, f.admin, 999, true)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAccountDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	_, err := f.schedules.Create(ctx, f.admin, types.Schedule{Date: date(t, "2024-05-01"), StudentID: bob.ID, TimeSlot: "morning"})
	require.NoError(t, err)
	_, err = f.schedules.Create(ctx, f.admin, types.Schedule{Date: date(t, "2024-05-02"), StudentID: alice.ID, TimeSlot: "morning"})
	require.NoError(t, err)
	_, err = f.workRecords.Create(ctx, bob, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: bob.ID, Content: "checked lab"})
	require.NoError(t, err)
	_, err = f.todos.Create(ctx, bob, types.Todo{Title: "bob's own"})
	require.NoError(t, err)
	_, err = f.todos.Create(ctx, alice, types.Todo{Title: "for bob", AssignedTo: &bob.ID})
	require.NoError(t, err)
	kept, err := f.todos.Create(ctx, alice, types.Todo{Title: "alice only"})
	require.NoError(t, err)

	_, err = f.accounts.Delete(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	result, err := f.accounts.Delete(ctx, f.admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CascadeResult{WorkRecords: 1, Todos: 2, Schedules: 1}, result)

	_, err = f.accounts.Get(ctx, f.admin, bob.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	schedules, err := f.schedules.List(ctx, f.admin, types.ScheduleFilter{})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, alice.ID, schedules[0].StudentID)

	todos, err := f.todos.List(ctx, f.admin, types.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, kept.ID, todos[0].ID)

	assert.Contains(t, f.events.eventTypes(), types.EventAccountDeleted)
}

func TestAccountDeleteRefusesAdmins(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.Delete(context.Background(), f.admin, f.admin.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.EqualError(t, err, "Cannot delete admin user")

	_, err = f.accounts.Delete(context.Background(), f.admin, 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAccountDeleteRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.student(t, "bob", "Bob")

	_, err := f.workRecords.Create(ctx, bob, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: bob.ID, Content: "checked lab"})
	require.NoError(t, err)
	_, err = f.todos.Create(ctx, bob, types.Todo{Title: "bob's own"})
	require.NoError(t, err)

	boom := errors.New("connection reset")
	f.store.FailOn("schedules.delete_by_student", boom)

	_, err = f.accounts.Delete(ctx, f.admin, bob.ID)
	require.ErrorIs(t, err, boom)

	f.store.FailOn("schedules.delete_by_student", nil)

	records, err := f.workRecords.List(ctx, f.admin, types.WorkRecordFilter{StudentID: &bob.ID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	todos, err := f.todos.List(ctx, bob, types.TodoFilter{})
	require.NoError(t, err)
	assert.Len(t, todos, 1)
	_, err = f.accounts.Get(ctx, f.admin, bob.ID)
	assert.NoError(t, err)
	assert.NotContains(t, f.events.eventTypes(), types.EventAccountDeleted)
}

func TestNamesSkipsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	alice := f.student(t, "alice", "Alice")

	names, err := f.accounts.Names(context.Background(), []int{alice.ID, alice.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{alice.ID: "Alice"}, names)
}
