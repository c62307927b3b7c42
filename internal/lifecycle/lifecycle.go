// Package lifecycle governs what the current viewer may do with an
// appointment and how it is rendered. Status and the permission flags are
// asserted by the booking backend; this package only interprets them.
package lifecycle

import (
	"time"

	"github.com/propview/showsched/internal/model"
)

// CanTransition reports whether a status change is legal: the forward,
// server-driven pending -> confirmed -> completed progression, plus the
// terminal cancellation from pending or confirmed.
func CanTransition(from, to model.Status) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusConfirmed || to == model.StatusCancelled
	case model.StatusConfirmed:
		return to == model.StatusCompleted || to == model.StatusCancelled
	default:
		return false
	}
}

// CanOfferCancel reports whether the cancel control is shown at all. The
// server's CanCancel flag is authoritative; cancelled and completed
// appointments never offer it.
func CanOfferCancel(a model.Appointment) bool {
	if a.Status == model.StatusCancelled || a.Status == model.StatusCompleted {
		return false
	}
	return a.CanCancel
}

// DetailView is what the UI renders for one appointment. For restricted
// appointments the contact fields and notes are absent from the view even
// when the underlying payload carries them: an admin can see a subordinate
// seller's day without the raw contact data.
type DetailView struct {
	ID              string           `json:"id"`
	Date            time.Time        `json:"date"`
	EndTime         time.Time        `json:"endTime"`
	Mode            model.Mode       `json:"mode"`
	Status          model.Status     `json:"status"`
	ClientName      string           `json:"clientName"`
	ClientPhone     string           `json:"clientPhone,omitempty"`
	ClientEmail     string           `json:"clientEmail,omitempty"`
	CondominiumName string           `json:"condominiumName,omitempty"`
	UnitNumber      string           `json:"unitNumber,omitempty"`
	TourStops       []model.TourStop `json:"tourStops,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Restricted      bool             `json:"restricted"`
	CanEdit         bool             `json:"canEdit"`
	CanCancel       bool             `json:"canCancel"`
}

func RenderDetail(a model.Appointment) DetailView {
	view := DetailView{
		ID:              a.ID,
		Date:            a.Date,
		EndTime:         a.EndTime,
		Mode:            a.Mode,
		Status:          a.Status,
		ClientName:      a.ClientName,
		CondominiumName: a.CondominiumName,
		UnitNumber:      a.UnitNumber,
		TourStops:       a.TourStops,
		Restricted:      a.IsRestricted,
		CanEdit:         a.CanEdit,
		CanCancel:       CanOfferCancel(a),
	}
	if a.IsRestricted {
		if len(a.TourStops) > 0 {
			stops := make([]model.TourStop, len(a.TourStops))
			for i, s := range a.TourStops {
				s.Notes = ""
				stops[i] = s
			}
			view.TourStops = stops
		}
		return view
	}
	view.ClientPhone = a.ClientPhone
	view.ClientEmail = a.ClientEmail
	view.Notes = a.Notes
	return view
}
