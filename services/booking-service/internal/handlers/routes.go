package handlers

import "net/http"

type Routes struct {
	Availability *AvailabilityHandler
	Appointments *AppointmentHandler
	Modification *ModificationHandler
	Staff        *StaffHandler
}

func (rt Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/slots", rt.Availability.Slots)
	mux.HandleFunc("/api/v1/hours/effective", rt.Availability.EffectiveHours)

	mux.HandleFunc("/api/v1/appointments/cancel", rt.Appointments.Cancel)
	mux.HandleFunc("/api/v1/appointments/reschedule", rt.Appointments.Reschedule)
	mux.HandleFunc("/api/v1/appointments/review", rt.Appointments.Review)
	mux.HandleFunc("/api/v1/appointments/status", rt.Appointments.Status)

	mux.HandleFunc("/api/v1/appointments/modify/start", rt.Modification.Start)
	mux.HandleFunc("/api/v1/appointments/modify/next", rt.Modification.Next)
	mux.HandleFunc("/api/v1/appointments/modify/back", rt.Modification.Back)
	mux.HandleFunc("/api/v1/appointments/modify/confirm", rt.Modification.Confirm)

	mux.HandleFunc("/api/v1/staff/removal/prepare", rt.Staff.Prepare)
	mux.HandleFunc("/api/v1/staff/removal/commit", rt.Staff.Commit)
}
