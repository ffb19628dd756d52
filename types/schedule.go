package types

import "time"

// Schedule is one account on duty for one date and time slot.
// Several schedules may share the same date and slot.
type Schedule struct {
	// ID is the unique identifier of the schedule.
	ID int `json:"id" db:"id"`

	// Date is the day of the shift.
	Date Date `json:"date" db:"date"`

	// StudentID references the account on duty.
	StudentID int `json:"student_id" db:"student_id"`

	// TimeSlot is a free-form label such as "morning".
	TimeSlot string `json:"time_slot" db:"time_slot"`

	Location *string `json:"location" db:"location"`
	Notes    *string `json:"notes" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SchedulePatch is a sparse update; nil and unset fields are left untouched.
type SchedulePatch struct {
	StudentID *int
	TimeSlot  *string
	Location  Nullable[string]
	Notes     Nullable[string]
}

// Apply copies the supplied fields onto s.
func (p SchedulePatch) Apply(s *Schedule) {
	if p.StudentID != nil {
		s.StudentID = *p.StudentID
	}
	if p.TimeSlot != nil {
		s.TimeSlot = *p.TimeSlot
	}
	p.Location.assign(&s.Location)
	p.Notes.assign(&s.Notes)
}

// ScheduleFilter narrows a schedule listing. Set fields combine with AND.
type ScheduleFilter struct {
	StartDate *Date
	EndDate   *Date
	StudentID *int
}

// CalendarDay groups the schedules of a single day.
type CalendarDay struct {
	Date      Date
	Schedules []Schedule
}
