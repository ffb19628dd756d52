package types

import "time"

const (
	WorkRecordPending   = "pending"
	WorkRecordCompleted = "completed"
)

// WorkRecord is a log entry describing what happened during a shift.
type WorkRecord struct {
	// ID is the unique identifier of the record.
	ID int `json:"id" db:"id"`

	// Date is the day of the shift.
	Date Date `json:"date" db:"date"`

	// TimeSlot optionally names the shift.
	TimeSlot *string `json:"time_slot" db:"time_slot"`

	// StudentID references the account that owns the record.
	StudentID int `json:"student_id" db:"student_id"`

	// Content describes the work done.
	Content string `json:"content" db:"content"`

	// HandoverNotes are left for the next shift.
	HandoverNotes *string `json:"handover_notes" db:"handover_notes"`

	// Status is a free-form label, "pending" by default.
	Status string `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WorkRecordPatch is a sparse update; nil and unset fields are left untouched.
type WorkRecordPatch struct {
	TimeSlot      Nullable[string]
	Content       *string
	HandoverNotes Nullable[string]
	Status        *string
}

// Apply copies the supplied fields onto r.
func (p WorkRecordPatch) Apply(r *WorkRecord) {
	p.TimeSlot.assign(&r.TimeSlot)
	if p.Content != nil {
		r.Content = *p.Content
	}
	p.HandoverNotes.assign(&r.HandoverNotes)
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// WorkRecordFilter narrows a work record listing. Set fields combine with AND.
type WorkRecordFilter struct {
	StartDate *Date
	EndDate   *Date
	StudentID *int
	Status    *string
}
