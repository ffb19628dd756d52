package handlers

import (
	"context"

	"github.com/dutyroster/apiserver/types"
)

// NameResolver maps account ids to display names.
type NameResolver interface {
	Names(ctx context.Context, ids []int) (map[int]string, error)
}

type scheduleResponse struct {
	types.Schedule
	StudentName *string `json:"student_name,omitempty"`
}

type workRecordResponse struct {
	types.WorkRecord
	StudentName *string `json:"student_name,omitempty"`
}

type todoResponse struct {
	types.Todo
	AssigneeName *string `json:"assignee_name,omitempty"`
	CreatorName  *string `json:"creator_name,omitempty"`
}

type calendarDayResponse struct {
	Date      types.Date         `json:"date"`
	Schedules []scheduleResponse `json:"schedules"`
}

// enricher attaches account display names to responses. Accounts that no
// longer resolve simply leave the name out.
type enricher struct {
	names NameResolver
}

func nameOf(names map[int]string, id int) *string {
	if name, ok := names[id]; ok {
		return &name
	}
	return nil
}

func (e enricher) schedules(ctx context.Context, schedules []types.Schedule) ([]scheduleResponse, error) {
	ids := make([]int, 0, len(schedules))
	for _, s := range schedules {
		ids = append(ids, s.StudentID)
	}
	names, err := e.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, scheduleResponse{Schedule: s, StudentName: nameOf(names, s.StudentID)})
	}
	return out, nil
}

func (e enricher) schedule(ctx context.Context, schedule types.Schedule) (scheduleResponse, error) {
	out, err := e.schedules(ctx, []types.Schedule{schedule})
	if err != nil {
		return scheduleResponse{}, err
	}
	return out[0], nil
}

func (e enricher) calendar(ctx context.Context, days []types.CalendarDay) ([]calendarDayResponse, error) {
	var all []types.Schedule
	for _, day := range days {
		all = append(all, day.Schedules...)
	}
	enriched, err := e.schedules(ctx, all)
	if err != nil {
		return nil, err
	}

	out := make([]calendarDayResponse, 0, len(days))
	offset := 0
	for _, day := range days {
		n := len(day.Schedules)
		out = append(out, calendarDayResponse{
			Date:      day.Date,
			Schedules: enriched[offset : offset+n : offset+n],
		})
		offset += n
	}
	return out, nil
}

func (e enricher) workRecords(ctx context.Context, records []types.WorkRecord) ([]workRecordResponse, error) {
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.StudentID)
	}
	names, err := e.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]workRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, workRecordResponse{WorkRecord: rec, StudentName: nameOf(names, rec.StudentID)})
	}
	return out, nil
}

func (e enricher) workRecord(ctx context.Context, record types.WorkRecord) (workRecordResponse, error) {
	out, err := e.workRecords(ctx, []types.WorkRecord{record})
	if err != nil {
		return workRecordResponse{}, err
	}
	return out[0], nil
}

func (e enricher) todos(ctx context.Context, todos []types.Todo) ([]todoResponse, error) {
	ids := make([]int, 0, 2*len(todos))
	for _, t := range todos {
		ids = append(ids, t.CreatedBy)
		if t.AssignedTo != nil {
			ids = append(ids, *t.AssignedTo)
		}
	}
	names, err := e.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		resp := todoResponse{Todo: t, CreatorName: nameOf(names, t.CreatedBy)}
		if t.AssignedTo != nil {
			resp.AssigneeName = nameOf(names, *t.AssignedTo)
		}
		out = append(out, resp)
	}
	return out, nil
}

func (e enricher) todo(ctx context.Context, todo types.Todo) (todoResponse, error) {
	out, err := e.todos(ctx, []types.Todo{todo})
	if err != nil {
		return todoResponse{}, err
	}
	return out[0], nil
}
