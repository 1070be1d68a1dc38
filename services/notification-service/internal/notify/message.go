package notify

import (
	"fmt"
	"strings"
)

const (
	TypeEmployeeDeleted  = "employee_deleted"
	TopicEmployeeDeleted = "booking.appointment.employee_deleted.v1"

	emailSubject = "Your appointment needs a new time"
)

// Message is the employee-deleted envelope written by the booking service.
// It carries the client contact so no lookup is needed here.
type Message struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	AppointmentID string `json:"appointment_id"`
	BusinessID    string `json:"business_id"`
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	Reason        string `json:"reason"`
	ClientName    string `json:"client_name,omitempty"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientPhone   string `json:"client_phone,omitempty"`
	Date          string `json:"appointment_date"`
	StartTime     string `json:"start_time"`
}

// DedupeKey identifies one notification for one appointment and employee.
func (m Message) DedupeKey() string {
	return m.AppointmentID + ":" + m.Type + ":" + m.EmployeeID
}

func (m Message) validate() error {
	var missing []string
	if m.Type == "" {
		missing = append(missing, "type")
	}
	if m.AppointmentID == "" {
		missing = append(missing, "appointment_id")
	}
	if m.EmployeeID == "" {
		missing = append(missing, "employee_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if m.Type != TypeEmployeeDeleted {
		return fmt.Errorf("unsupported type %q", m.Type)
	}
	return nil
}

func body(m Message) string {
	name := m.ClientName
	if name == "" {
		name = "there"
	}
	staff := m.EmployeeName
	if staff == "" {
		staff = "your stylist"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "%s is no longer available for your appointment on %s at %s.\n", staff, m.Date, m.StartTime)
	if m.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", m.Reason)
	}
	b.WriteString("Your booking is on hold. Please pick another employee or time.\n")
	return b.String()
}

func smsBody(m Message) string {
	staff := m.EmployeeName
	if staff == "" {
		staff = "Your stylist"
	}
	return fmt.Sprintf("%s can no longer take your appointment on %s at %s. Please rebook.", staff, m.Date, m.StartTime)
}
