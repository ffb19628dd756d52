package services_test

import (
	"context"
	"testing"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkRecordCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	record, err := f.workRecords.Create(ctx, alice, types.WorkRecord{
		Date:      date(t, "2024-05-01"),
		StudentID: alice.ID,
		Content:   "opened the lab",
	})
	require.NoError(t, err)
	assert.Equal(t, types.WorkRecordPending, record.Status)

	_, err = f.workRecords.Create(ctx, alice, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: bob.ID, Content: "x"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.workRecords.Create(ctx, f.admin, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: bob.ID, Content: "x", Status: "reviewed"})
	assert.NoError(t, err)

	_, err = f.workRecords.Create(ctx, f.admin, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: 999, Content: "x"})
	assert.EqualError(t, err, "Student not found")

	_, err = f.workRecords.Create(ctx, alice, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: alice.ID})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestWorkRecordOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	record, err := f.workRecords.Create(ctx, alice, types.WorkRecord{Date: date(t, "2024-05-01"), StudentID: alice.ID, Content: "opened"})
	require.NoError(t, err)

	got, err := f.workRecords.Get(ctx, bob, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = f.workRecords.Update(ctx, bob, record.ID, types.WorkRecordPatch{Content: ptr("hijacked")})
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, f.workRecords.Delete(ctx, bob, record.ID), services.ErrForbidden)

	updated, err := f.workRecords.Update(ctx, alice, record.ID, types.WorkRecordPatch{Status: ptr(types.WorkRecordCompleted), HandoverNotes: types.Some("keys at desk")})
	require.NoError(t, err)
	assert.Equal(t, types.WorkRecordCompleted, updated.Status)
	assert.Equal(t, "opened", updated.Content)

	require.NotNil(t, updated.HandoverNotes)

	cleared, err := f.workRecords.Update(ctx, alice, record.ID, types.WorkRecordPatch{HandoverNotes: types.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.HandoverNotes)
	assert.Equal(t, types.WorkRecordCompleted, cleared.Status)

	_, err = f.workRecords.Update(ctx, alice, record.ID, types.WorkRecordPatch{Status: ptr("")})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	require.NoError(t, f.workRecords.Delete(ctx, f.admin, record.ID))
	_, err = f.workRecords.Get(ctx, alice, record.ID)
	assert.EqualError(t, err, "Work record not found")
}

func TestWorkRecordListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice", "Alice")
	bob := f.student(t, "bob", "Bob")

	for _, r := range []types.WorkRecord{
		{Date: date(t, "2024-05-03"), StudentID: alice.ID, Content: "c", Status: "completed"},
		{Date: date(t, "2024-05-01"), StudentID: alice.ID, Content: "a"},
		{Date: date(t, "2024-05-02"), StudentID: bob.ID, Content: "b"},
	} {
		_, err := f.workRecords.Create(ctx, f.admin, r)
		require.NoError(t, err)
	}

	all, err := f.workRecords.List(ctx, bob, types.WorkRecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-05-01", all[0].Date.String())
	assert.Equal(t, "2024-05-03", all[2].Date.String())

	ranged, err := f.workRecords.List(ctx, bob, types.WorkRecordFilter{StartDate: ptr(date(t, "2024-05-02")), StudentID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "c", ranged[0].Content)

	pending, err := f.workRecords.List(ctx, bob, types.WorkRecordFilter{Status: ptr(types.WorkRecordPending)})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
