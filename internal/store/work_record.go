package store

import (
	"context"
	"time"

	"github.com/dutyroster/apiserver/types"
	"github.com/jmoiron/sqlx"
)

const workRecordColumns = `
	id, date, time_slot, student_id, content, handover_notes, status, created_at, updated_at`

// WorkRecordRepository handles persistence for work records.
type WorkRecordRepository struct {
	db DBTX
}

func NewWorkRecordRepository(db DBTX) *WorkRecordRepository {
	return &WorkRecordRepository{db: db}
}

func (r *WorkRecordRepository) Get(ctx context.Context, id int) (types.WorkRecord, error) {
	const query = `SELECT` + workRecordColumns + ` FROM work_records WHERE id = $1`
	var record types.WorkRecord
	if err := sqlx.GetContext(ctx, r.db, &record, query, id); err != nil {
		return types.WorkRecord{}, mapError(err)
	}
	return record, nil
}

func (r *WorkRecordRepository) List(ctx context.Context, filter types.WorkRecordFilter) ([]types.WorkRecord, error) {
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
	if filter.Status != nil {
		conds.add("status = ?", *filter.Status)
	}

	query := `SELECT` + workRecordColumns + ` FROM work_records` + conds.where() + ` ORDER BY date ASC, id ASC`
	records := []types.WorkRecord{}
	if err := sqlx.SelectContext(ctx, r.db, &records, query, conds.args...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *WorkRecordRepository) Create(ctx context.Context, record types.WorkRecord) (types.WorkRecord, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `
		INSERT INTO work_records (date, time_slot, student_id, content, handover_notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		record.Date,
		record.TimeSlot,
		record.StudentID,
		record.Content,
		record.HandoverNotes,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		return types.WorkRecord{}, mapError(err)
	}
	return record, nil
}

func (r *WorkRecordRepository) Update(ctx context.Context, record types.WorkRecord) (types.WorkRecord, error) {
	record.UpdatedAt = time.Now()

	const query = `
		UPDATE work_records
		SET date = $1,
			time_slot = $2,
			student_id = $3,
			content = $4,
			handover_notes = $5,
			status = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		record.Date,
		record.TimeSlot,
		record.StudentID,
		record.Content,
		record.HandoverNotes,
		record.Status,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return types.WorkRecord{}, mapError(err)
	}
	if err := checkAffected(result); err != nil {
		return types.WorkRecord{}, err
	}
	return record, nil
}

func (r *WorkRecordRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM work_records WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *WorkRecordRepository) DeleteByStudent(ctx context.Context, studentID int) (int64, error) {
	const query = `DELETE FROM work_records WHERE student_id = $1`
	result, err := r.db.ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
