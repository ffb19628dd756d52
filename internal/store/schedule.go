package store

import (
	"context"
	"time"

	"github.com/dutyroster/apiserver/types"
	"github.com/jmoiron/sqlx"
)

const scheduleColumns = `
	id, date, student_id, time_slot, location, notes, created_at, updated_at`

// ScheduleRepository handles persistence for schedules.
type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Get(ctx context.Context, id int) (types.Schedule, error) {
	const query = `SELECT` + scheduleColumns + ` FROM schedules WHERE id = $1`
	var schedule types.Schedule
	if err := sqlx.GetContext(ctx, r.db, &schedule, query, id); err != nil {
		return types.Schedule{}, mapError(err)
	}
	return schedule, nil
}

func (r *ScheduleRepository) List(ctx context.Context, filter types.ScheduleFilter) ([]types.Schedule, error) {
	var conds conditions
	if filter.StartDate != nil {
		conds.add("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		conds.add("date <= ?", *filter.EndDate)
	}
	if filter.StudentID != nil {
		conds.add("student_id = ?", *filter.StudentID)
	}

	query := `SELECT` + scheduleColumns + ` FROM schedules` + conds.where() + ` ORDER BY date ASC, id ASC`
	schedules := []types.Schedule{}
	if err := sqlx.SelectContext(ctx, r.db, &schedules, query, conds.args...); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule types.Schedule) (types.Schedule, error) {
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const query = `
		INSERT INTO schedules (date, student_id, time_slot, location, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		schedule.Date,
		schedule.StudentID,
		schedule.TimeSlot,
		schedule.Location,
		schedule.Notes,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	).Scan(&schedule.ID); err != nil {
		return types.Schedule{}, mapError(err)
	}
	return schedule, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule types.Schedule) (types.Schedule, error) {
	schedule.UpdatedAt = time.Now()

	const query = `
		UPDATE schedules
		SET date = $1,
			student_id = $2,
			time_slot = $3,
			location = $4,
			notes = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		schedule.Date,
		schedule.StudentID,
		schedule.TimeSlot,
		schedule.Location,
		schedule.Notes,
		schedule.UpdatedAt,
		schedule.ID,
	)
	if err != nil {
		return types.Schedule{}, mapError(err)
	}
	if err := checkAffected(result); err != nil {
		return types.Schedule{}, err
	}
	return schedule, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// DeleteRange removes every schedule dated within [start, end].
func (r *ScheduleRepository) DeleteRange(ctx context.Context, start, end types.Date) (int64, error) {
	const query = `DELETE FROM schedules WHERE date >= $1 AND date <= $2`
	result, err := r.db.ExecContext(ctx, query, start, end)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ScheduleRepository) DeleteByStudent(ctx context.Context, studentID int) (int64, error) {
	const query = `DELETE FROM schedules WHERE student_id = $1`
	result, err := r.db.ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
