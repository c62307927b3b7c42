package model

import "time"

// CreateAppointmentRequest is the normalized booking request sent to the
// booking backend. Client contact fields are copied from the selected lead
// at build time so the appointment remains readable if the lead is later
// edited.
type CreateAppointmentRequest struct {
	Mode            Mode       `json:"mode"`
	LeadID          string     `json:"leadId"`
	ClientName      string     `json:"clientName"`
	ClientPhone     string     `json:"clientPhone,omitempty"`
	ClientEmail     string     `json:"clientEmail,omitempty"`
	Date            time.Time  `json:"date"`
	Notes           string     `json:"notes,omitempty"`
	UnitID          string     `json:"unitId,omitempty"`
	CondominiumName string     `json:"condominiumName,omitempty"`
	UnitNumber      string     `json:"unitNumber,omitempty"`
	TourStops       []TourStop `json:"tourStops,omitempty"`
}

type CancelAppointmentRequest struct {
	CancellationReason string `json:"cancellationReason"`
}
