// Package calendar buckets appointments and reminders by civil day for
// month-grid rendering and day-detail lookup. Everything here is a pure
// function of the snapshot handed in; month navigation never triggers I/O.
package calendar

import (
	"sort"
	"time"

	"github.com/propview/showsched/internal/model"
)

// Day identifies a civil day in the viewer's time zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// Index holds a snapshot of appointments and reminders bucketed by day.
type Index struct {
	loc          *time.Location
	appointments map[Day][]model.Appointment
	reminders    map[Day][]model.Reminder
}

// New buckets the given items by civil day in loc. The input slices are not
// retained.
func New(appts []model.Appointment, rems []model.Reminder, loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}
	idx := &Index{
		loc:          loc,
		appointments: make(map[Day][]model.Appointment),
		reminders:    make(map[Day][]model.Reminder),
	}
	for _, a := range appts {
		key := DayOf(a.Date, loc)
		idx.appointments[key] = append(idx.appointments[key], a)
	}
	for _, r := range rems {
		key := DayOf(r.DueDate, loc)
		idx.reminders[key] = append(idx.reminders[key], r)
	}
	return idx
}

// Detail is the ordered item list for one day: reminders first (priority
// desc, due date asc), then appointments by start time.
type Detail struct {
	Reminders    []model.Reminder
	Appointments []model.Appointment
}

func (x *Index) Detail(day Day) Detail {
	rems := append([]model.Reminder(nil), x.reminders[day]...)
	sort.SliceStable(rems, func(i, j int) bool {
		if ri, rj := rems[i].Priority.Rank(), rems[j].Priority.Rank(); ri != rj {
			return ri > rj
		}
		return rems[i].DueDate.Before(rems[j].DueDate)
	})

	appts := append([]model.Appointment(nil), x.appointments[day]...)
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Date.Before(appts[j].Date)
	})

	return Detail{Reminders: rems, Appointments: appts}
}

// MarkerKind classifies an item for the compact per-day grid summary.
type MarkerKind string

const (
	MarkerAppointment MarkerKind = "appointment"
	MarkerCancelled   MarkerKind = "cancelled"
	MarkerCompleted   MarkerKind = "completed"
	MarkerRestricted  MarkerKind = "restricted"
	MarkerReminder    MarkerKind = "reminder"
	MarkerReminderHot MarkerKind = "reminder-hot" // urgent or high priority, still pending
	MarkerDone        MarkerKind = "reminder-done"
)

type Marker struct {
	Kind MarkerKind `json:"kind"`
}

// Summary is the capped marker set for one grid cell. Overflow counts the
// markers dropped by the cap; the authoritative detail list is unaffected.
type Summary struct {
	Markers  []Marker `json:"markers,omitempty"`
	Overflow int      `json:"overflow,omitempty"`
}

// DefaultMarkerCap matches the space available in one month-grid cell.
const DefaultMarkerCap = 4

func (x *Index) Summary(day Day, cap int) Summary {
	if cap <= 0 {
		cap = DefaultMarkerCap
	}
	detail := x.Detail(day)

	markers := make([]Marker, 0, len(detail.Reminders)+len(detail.Appointments))
	for _, r := range detail.Reminders {
		markers = append(markers, Marker{Kind: reminderMarker(r)})
	}
	for _, a := range detail.Appointments {
		markers = append(markers, Marker{Kind: appointmentMarker(a)})
	}

	if len(markers) <= cap {
		return Summary{Markers: markers}
	}
	return Summary{Markers: markers[:cap], Overflow: len(markers) - cap}
}

// MonthGrid returns the marker summary for every day of the month that has
// at least one item.
func (x *Index) MonthGrid(year int, month time.Month) map[Day]Summary {
	out := make(map[Day]Summary)
	mark := func(day Day) {
		if day.Year != year || day.Month != month {
			return
		}
		if _, ok := out[day]; ok {
			return
		}
		out[day] = x.Summary(day, DefaultMarkerCap)
	}
	for day := range x.appointments {
		mark(day)
	}
	for day := range x.reminders {
		mark(day)
	}
	return out
}

func appointmentMarker(a model.Appointment) MarkerKind {
	switch {
	case a.Status == model.StatusCancelled:
		return MarkerCancelled
	case a.Status == model.StatusCompleted:
		return MarkerCompleted
	case a.IsRestricted:
		return MarkerRestricted
	default:
		return MarkerAppointment
	}
}

func reminderMarker(r model.Reminder) MarkerKind {
	switch {
	case r.Status == model.ReminderCompleted:
		return MarkerDone
	case r.Status == model.ReminderPending && r.Priority.Rank() >= model.PriorityHigh.Rank():
		return MarkerReminderHot
	default:
		return MarkerReminder
	}
}
