package services

import (
	"context"
	"strings"
	"time"

	"github.com/dutyroster/apiserver/types"
	"go.uber.org/zap"
)

// ScheduleService encapsulates shift schedule use-cases.
type ScheduleService struct {
	tx     Transactor
	events notifier
	log    *zap.Logger
}

func NewScheduleService(tx Transactor, pub Publisher, log *zap.Logger) *ScheduleService {
	log = loggerOrNop(log)
	return &ScheduleService{
		tx:     tx,
		events: newNotifier(pub, log),
		log:    log,
	}
}

func (s *ScheduleService) Create(ctx context.Context, actor types.Account, schedule types.Schedule) (types.Schedule, error) {
	if err := SchedulePolicy.Check(actor, ActionCreate, Subject{}); err != nil {
		return types.Schedule{}, err
	}
	if err := validateSchedule(schedule); err != nil {
		return types.Schedule{}, err
	}

	var created types.Schedule
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, schedule.StudentID); err != nil {
			return translate(err, "Student")
		}
		var err error
		created, err = repos.Schedules.Create(ctx, schedule)
		return err
	})
	return created, err
}

func (s *ScheduleService) List(ctx context.Context, actor types.Account, filter types.ScheduleFilter) ([]types.Schedule, error) {
	if err := SchedulePolicy.Check(actor, ActionList, Subject{}); err != nil {
		return nil, err
	}

	var schedules []types.Schedule
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		schedules, err = repos.Schedules.List(ctx, filter)
		return err
	})
	return schedules, err
}

// Calendar returns one entry per day of the month with that day's
// schedules.
func (s *ScheduleService) Calendar(ctx context.Context, actor types.Account, year int, month time.Month) ([]types.CalendarDay, error) {
	if err := SchedulePolicy.Check(actor, ActionCalendar, Subject{}); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, invalidInput("Month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, invalidInput("Year must be between 1 and 9999")
	}

	first, last := MonthBounds(year, month)
	var schedules []types.Schedule
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		schedules, err = repos.Schedules.List(ctx, types.ScheduleFilter{StartDate: &first, EndDate: &last})
		return err
	})
	if err != nil {
		return nil, err
	}
	return CalendarDays(year, month, schedules), nil
}

// MonthBounds returns the first and last day of the month.
func MonthBounds(year int, month time.Month) (types.Date, types.Date) {
	first := types.NewDate(year, month, 1)
	// Day 0 of the next month normalizes to the last day of this one,
	// including December into January of the next year.
	last := types.NewDate(year, month+1, 0)
	return first, last
}

// CalendarDays lays schedules out on a dense grid covering every day of
// the month in ascending order. Days without schedules get an empty list.
// Schedules outside the month are ignored.
func CalendarDays(year int, month time.Month, schedules []types.Schedule) []types.CalendarDay {
	first, last := MonthBounds(year, month)

	byDay := make(map[string][]types.Schedule)
	for _, schedule := range schedules {
		key := schedule.Date.String()
		byDay[key] = append(byDay[key], schedule)
	}

	days := make([]types.CalendarDay, 0, last.Day())
	for day := first; !day.After(last); day = day.AddDays(1) {
		entries := byDay[day.String()]
		if entries == nil {
			entries = []types.Schedule{}
		}
		days = append(days, types.CalendarDay{Date: day, Schedules: entries})
	}
	return days
}

func (s *ScheduleService) Update(ctx context.Context, actor types.Account, id int, patch types.SchedulePatch) (types.Schedule, error) {
	if err := SchedulePolicy.Check(actor, ActionUpdate, Subject{}); err != nil {
		return types.Schedule{}, err
	}

	var updated types.Schedule
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		schedule, err := repos.Schedules.Get(ctx, id)
		if err != nil {
			return translate(err, "Schedule")
		}
		if patch.StudentID != nil && *patch.StudentID != schedule.StudentID {
			if _, err := repos.Accounts.GetByID(ctx, *patch.StudentID); err != nil {
				return translate(err, "Student")
			}
		}

		patch.Apply(&schedule)
		if err := validateSchedule(schedule); err != nil {
			return err
		}
		updated, err = repos.Schedules.Update(ctx, schedule)
		return translate(err, "Schedule")
	})
	return updated, err
}

func (s *ScheduleService) Delete(ctx context.Context, actor types.Account, id int) error {
	if err := SchedulePolicy.Check(actor, ActionDelete, Subject{}); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(repos Repositories) error {
		return translate(repos.Schedules.Delete(ctx, id), "Schedule")
	})
}

// BatchDelete removes every schedule dated within [start, end] and
// reports how many were removed. An inverted range matches nothing.
func (s *ScheduleService) BatchDelete(ctx context.Context, actor types.Account, start, end types.Date) (int64, error) {
	if err := SchedulePolicy.Check(actor, ActionBatchDelete, Subject{}); err != nil {
		return 0, err
	}
	if start.After(end) {
		return 0, nil
	}

	var deleted int64
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		deleted, err = repos.Schedules.DeleteRange(ctx, start, end)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("schedules batch deleted",
		zap.Stringer("start_date", start),
		zap.Stringer("end_date", end),
		zap.Int64("deleted", deleted),
		zap.Int("actor_id", actor.ID),
	)
	s.events.emit(ctx, types.EventSchedulesBatchDeleted, actor.ID, map[string]any{
		"start_date": start,
		"end_date":   end,
		"deleted":    deleted,
	})
	return deleted, nil
}

func validateSchedule(schedule types.Schedule) error {
	if schedule.Date.IsZero() {
		return invalidInput("date is required")
	}
	if schedule.StudentID <= 0 {
		return invalidInput("student_id is required")
	}
	if strings.TrimSpace(schedule.TimeSlot) == "" {
		return invalidInput("time_slot is required")
	}
	return nil
}
