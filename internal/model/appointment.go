package model

import (
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeTour       Mode = "tour"
)

func (m Mode) Valid() bool {
	return m == ModeIndividual || m == ModeTour
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

const (
	// IndividualDuration is the fixed length of a single-unit showing.
	IndividualDuration = 60 * time.Minute
	// TourStopDuration is the time allotted to each stop of a guided tour.
	TourStopDuration = 30 * time.Minute
	// MaxTourStops caps how many units a single tour may visit.
	MaxTourStops = 3
)

// TourStop is one unit visited during a tour. Sequence is implicit:
// a stop's position in the ordered slice is its visiting order.
type TourStop struct {
	UnitID        string `json:"unitId"`
	CondominiumID string `json:"condominiumId"`
	Notes         string `json:"notes,omitempty"`
}

// Appointment is the server-authoritative record of a showing. Status and
// the permission flags (CanEdit, CanCancel, IsRestricted) encode
// authorization decisions made by the booking backend; the scheduler reads
// them and never re-derives them locally.
type Appointment struct {
	ID              string     `json:"id"`
	Date            time.Time  `json:"date"`
	EndTime         time.Time  `json:"endTime"`
	Mode            Mode       `json:"mode"`
	Status          Status     `json:"status"`
	ClientName      string     `json:"clientName"`
	ClientPhone     string     `json:"clientPhone,omitempty"`
	ClientEmail     string     `json:"clientEmail,omitempty"`
	LeadID          string     `json:"leadId"`
	CondominiumName string     `json:"condominiumName,omitempty"`
	UnitNumber      string     `json:"unitNumber,omitempty"`
	TourStops       []TourStop `json:"tourStops,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	IsRestricted    bool       `json:"isRestricted"`
	CanEdit         bool       `json:"canEdit"`
	CanCancel       bool       `json:"canCancel"`
}

var (
	ErrMissingID      = errors.New("missing id")
	ErrMissingDate    = errors.New("missing date")
	ErrUnknownMode    = errors.New("unknown mode")
	ErrUnknownStatus  = errors.New("unknown status")
	ErrStopCount      = errors.New("tour must have between 1 and 3 stops")
	ErrRepeatedUnit   = errors.New("tour visits the same unit twice")
	ErrUnexpectedStop = errors.New("individual appointment carries tour stops")
)

// Validate checks an appointment decoded from a server payload. Malformed
// items are rejected at the boundary rather than trusted.
func (a *Appointment) Validate() error {
	if a.ID == "" {
		return ErrMissingID
	}
	if a.Date.IsZero() {
		return ErrMissingDate
	}
	if !a.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, a.Mode)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, a.Status)
	}
	switch a.Mode {
	case ModeIndividual:
		if len(a.TourStops) > 0 {
			return ErrUnexpectedStop
		}
	case ModeTour:
		if len(a.TourStops) < 1 || len(a.TourStops) > MaxTourStops {
			return fmt.Errorf("%w: got %d", ErrStopCount, len(a.TourStops))
		}
		seen := make(map[string]struct{}, len(a.TourStops))
		for _, stop := range a.TourStops {
			if _, dup := seen[stop.UnitID]; dup {
				return fmt.Errorf("%w: unit %s", ErrRepeatedUnit, stop.UnitID)
			}
			seen[stop.UnitID] = struct{}{}
		}
	}
	if a.EndTime.IsZero() {
		a.EndTime = a.Date.Add(a.expectedDuration())
	}
	return nil
}

func (a *Appointment) expectedDuration() time.Duration {
	if a.Mode == ModeTour {
		return time.Duration(len(a.TourStops)) * TourStopDuration
	}
	return IndividualDuration
}
