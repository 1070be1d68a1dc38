package model

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Blocking reports whether an appointment in this status occupies its slot.
func (s Status) Blocking() bool {
	return s != StatusCancelled && s != StatusNoShow
}

type Appointment struct {
	ID               string
	BusinessID       string
	EmployeeID       string
	ClientID         string
	AppointmentDate  time.Time
	StartTime        Clock
	EndTime          Clock
	Status           Status
	TotalPriceCents  int64
	CancellationNote string
	CancelledAt      *time.Time
	UpdatedAt        time.Time
}

// StartsAt is the appointment start as an instant in the business timezone.
func (a Appointment) StartsAt(loc *time.Location) time.Time {
	return a.StartTime.On(a.AppointmentDate, loc)
}

type AppointmentService struct {
	AppointmentID string
	ServiceID     string
	PriceCents    int64
}

type Review struct {
	AppointmentID string
	ClientID      string
	Rating        int
	Comment       string
	CreatedAt     time.Time
}

// TimeSlot is a bookable start time; it is never persisted.
type TimeSlot struct {
	Time      Clock `json:"time"`
	Available bool  `json:"available"`
}

// AppointmentChange moves an appointment to a new employee/date/time and
// optionally appends services. It is applied atomically by the store, which
// re-checks the slot before writing.
type AppointmentChange struct {
	AppointmentID   string
	EmployeeID      string
	Date            time.Time
	StartTime       Clock
	EndTime         Clock
	TotalPriceCents int64
	AddedServices   []AppointmentService
	// EventType is the outbox event written in the same transaction.
	EventType string
}
