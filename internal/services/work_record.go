package services

import (
	"context"
	"strings"

	"github.com/dutyroster/apiserver/types"
	"go.uber.org/zap"
)

// WorkRecordService encapsulates work record use-cases.
type WorkRecordService struct {
	tx  Transactor
	log *zap.Logger
}

func NewWorkRecordService(tx Transactor, log *zap.Logger) *WorkRecordService {
	return &WorkRecordService{tx: tx, log: loggerOrNop(log)}
}

// Create stores a record for record.StudentID. Non-admins may only write
// their own records.
func (s *WorkRecordService) Create(ctx context.Context, actor types.Account, record types.WorkRecord) (types.WorkRecord, error) {
	if record.Status == "" {
		record.Status = types.WorkRecordPending
	}
	if err := validateWorkRecord(record); err != nil {
		return types.WorkRecord{}, err
	}

	var created types.WorkRecord
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		if _, err := repos.Accounts.GetByID(ctx, record.StudentID); err != nil {
			return translate(err, "Student")
		}
		if err := WorkRecordPolicy.Check(actor, ActionCreate, Subject{OwnerID: record.StudentID}); err != nil {
			return err
		}
		var err error
		created, err = repos.WorkRecords.Create(ctx, record)
		return err
	})
	return created, err
}

func (s *WorkRecordService) List(ctx context.Context, actor types.Account, filter types.WorkRecordFilter) ([]types.WorkRecord, error) {
	if err := WorkRecordPolicy.Check(actor, ActionList, Subject{}); err != nil {
		return nil, err
	}

	var records []types.WorkRecord
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		var err error
		records, err = repos.WorkRecords.List(ctx, filter)
		return err
	})
	return records, err
}

func (s *WorkRecordService) Get(ctx context.Context, actor types.Account, id int) (types.WorkRecord, error) {
	var record types.WorkRecord
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := repos.WorkRecords.Get(ctx, id)
		if err != nil {
			return translate(err, "Work record")
		}
		if err := WorkRecordPolicy.Check(actor, ActionRead, Subject{OwnerID: found.StudentID}); err != nil {
			return err
		}
		record = found
		return nil
	})
	return record, err
}

// Update applies the supplied fields. Status is free-form.
func (s *WorkRecordService) Update(ctx context.Context, actor types.Account, id int, patch types.WorkRecordPatch) (types.WorkRecord, error) {
	var updated types.WorkRecord
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		record, err := repos.WorkRecords.Get(ctx, id)
		if err != nil {
			return translate(err, "Work record")
		}
		if err := WorkRecordPolicy.Check(actor, ActionUpdate, Subject{OwnerID: record.StudentID}); err != nil {
			return err
		}

		patch.Apply(&record)
		if err := validateWorkRecord(record); err != nil {
			return err
		}
		updated, err = repos.WorkRecords.Update(ctx, record)
		return translate(err, "Work record")
	})
	return updated, err
}

func (s *WorkRecordService) Delete(ctx context.Context, actor types.Account, id int) error {
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		record, err := repos.WorkRecords.Get(ctx, id)
		if err != nil {
			return translate(err, "Work record")
		}
		if err := WorkRecordPolicy.Check(actor, ActionDelete, Subject{OwnerID: record.StudentID}); err != nil {
			return err
		}
		return translate(repos.WorkRecords.Delete(ctx, id), "Work record")
	})
	if err != nil {
		return err
	}
	s.log.Info("work record deleted", zap.Int("work_record_id", id), zap.Int("actor_id", actor.ID))
	return nil
}

func validateWorkRecord(record types.WorkRecord) error {
	if record.Date.IsZero() {
		return invalidInput("date is required")
	}
	if record.StudentID <= 0 {
		return invalidInput("student_id is required")
	}
	if strings.TrimSpace(record.Content) == "" {
		return invalidInput("content is required")
	}
	if strings.TrimSpace(record.Status) == "" {
		return invalidInput("status cannot be empty")
	}
	return nil
}
