// Package planner turns an in-progress booking form into either a typed
// validation failure or a submittable request for the booking backend.
//
// The planner deliberately never checks the requested window against
// existing appointments. Conflict detection is the booking backend's
// authority; a request it rejects comes back as a mutation failure.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propview/showsched/internal/model"
)

// ValidationError names the form rule that blocked submission. Field is a
// stable identifier the UI maps to the offending control.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var (
	ErrLeadRequired   = &ValidationError{Field: "lead", Reason: "a lead must be selected"}
	ErrUnitRequired   = &ValidationError{Field: "unit", Reason: "a unit must be selected"}
	ErrNoStops        = &ValidationError{Field: "tourStops", Reason: "a tour needs at least one stop"}
	ErrIncompleteStop = &ValidationError{Field: "tourStops", Reason: "every stop needs a condominium and a unit"}
	ErrDuplicateUnit  = &ValidationError{Field: "tourStops", Reason: "duplicate unit in tour"}
)

// ErrTourFull is returned by the stop-editing operations, not by Validate:
// the cap is enforced at the interaction level so a fourth stop never
// reaches a submittable form.
var ErrTourFull = errors.New("a tour visits at most 3 units")

var ErrBadTimeInput = errors.New("date or time is malformed")

// Form is the booking form under construction. Tour stops are an ordered,
// index-stable sequence edited only through the methods below.
type Form struct {
	Mode   model.Mode
	LeadID string
	Date   string // calendar day, 2006-01-02
	Time   string // start of day's first slot, 15:04
	UnitID string // individual mode
	Notes  string

	stops []model.TourStop
}

func (f *Form) AddStop(stop model.TourStop) error {
	return f.InsertStopAt(len(f.stops), stop)
}

func (f *Form) InsertStopAt(i int, stop model.TourStop) error {
	if len(f.stops) >= model.MaxTourStops {
		return ErrTourFull
	}
	if i < 0 || i > len(f.stops) {
		return fmt.Errorf("insert position %d out of range", i)
	}
	f.stops = append(f.stops, model.TourStop{})
	copy(f.stops[i+1:], f.stops[i:])
	f.stops[i] = stop
	return nil
}

func (f *Form) RemoveStopAt(i int) error {
	if i < 0 || i >= len(f.stops) {
		return fmt.Errorf("remove position %d out of range", i)
	}
	f.stops = append(f.stops[:i], f.stops[i+1:]...)
	return nil
}

// MoveStop reorders the stop at position from to position to, shifting the
// stops in between.
func (f *Form) MoveStop(from, to int) error {
	if from < 0 || from >= len(f.stops) || to < 0 || to >= len(f.stops) {
		return fmt.Errorf("move %d -> %d out of range", from, to)
	}
	stop := f.stops[from]
	working := append(f.stops[:from], f.stops[from+1:]...)
	working = append(working, model.TourStop{})
	copy(working[to+1:], working[to:])
	working[to] = stop
	f.stops = working
	return nil
}

// Stops returns a copy of the ordered stop sequence.
func (f *Form) Stops() []model.TourStop {
	out := make([]model.TourStop, len(f.stops))
	copy(out, f.stops)
	return out
}

// Validate applies the submission rules in order; the first failure wins
// and is returned as a *ValidationError.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.LeadID) == "" {
		return ErrLeadRequired
	}
	switch f.Mode {
	case model.ModeIndividual:
		if strings.TrimSpace(f.UnitID) == "" {
			return ErrUnitRequired
		}
	case model.ModeTour:
		if len(f.stops) == 0 {
			return ErrNoStops
		}
		seen := make(map[string]struct{}, len(f.stops))
		for _, stop := range f.stops {
			if strings.TrimSpace(stop.CondominiumID) == "" || strings.TrimSpace(stop.UnitID) == "" {
				return ErrIncompleteStop
			}
			if _, dup := seen[stop.UnitID]; dup {
				return ErrDuplicateUnit
			}
			seen[stop.UnitID] = struct{}{}
		}
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", f.Mode)}
	}
	return nil
}

// Schedule is the derived time window for a valid form.
type Schedule struct {
	Start time.Time
	End   time.Time
	// StopStarts holds the scheduled start of each tour stop, in visiting
	// order. Empty for individual appointments.
	StopStarts []time.Time
}

// Schedule combines the form's day and start time in the viewer's zone and
// derives the window: 60 minutes for an individual showing, 30 minutes per
// stop for a tour with stop i starting at +30·i minutes.
func (f *Form) Schedule(loc *time.Location) (Schedule, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", f.Date+" "+f.Time, loc)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", ErrBadTimeInput, err)
	}

	if f.Mode == model.ModeTour {
		stops := make([]time.Time, len(f.stops))
		for i := range f.stops {
			stops[i] = start.Add(time.Duration(i) * model.TourStopDuration)
		}
		return Schedule{
			Start:      start,
			End:        start.Add(time.Duration(len(f.stops)) * model.TourStopDuration),
			StopStarts: stops,
		}, nil
	}
	return Schedule{Start: start, End: start.Add(model.IndividualDuration)}, nil
}

// Build validates the form and, on success, assembles the request sent to
// the booking backend. Contact fields come from the selected lead; unit is
// the resolved unit for individual mode and may be nil for tours.
func (f *Form) Build(loc *time.Location, lead model.Lead, unit *model.Unit) (model.CreateAppointmentRequest, error) {
	if err := f.Validate(); err != nil {
		return model.CreateAppointmentRequest{}, err
	}
	sched, err := f.Schedule(loc)
	if err != nil {
		return model.CreateAppointmentRequest{}, err
	}

	req := model.CreateAppointmentRequest{
		Mode:        f.Mode,
		LeadID:      f.LeadID,
		ClientName:  lead.Name,
		ClientPhone: lead.Phone,
		ClientEmail: lead.Email,
		Date:        sched.Start,
		Notes:       strings.TrimSpace(f.Notes),
	}
	if f.Mode == model.ModeTour {
		req.TourStops = f.Stops()
		return req, nil
	}
	req.UnitID = f.UnitID
	if unit != nil {
		req.CondominiumName = unit.CondominiumName
		req.UnitNumber = unit.Number
	}
	return req, nil
}
