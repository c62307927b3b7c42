package calendar

import (
	"testing"
	"time"

	"github.com/propview/showsched/internal/model"
)

func appt(id string, start time.Time, status model.Status) model.Appointment {
	return model.Appointment{
		ID:      id,
		Date:    start,
		EndTime: start.Add(time.Hour),
		Mode:    model.ModeIndividual,
		Status:  status,
	}
}

func reminder(id string, due time.Time, prio model.Priority, status model.ReminderStatus) model.Reminder {
	return model.Reminder{
		ID:       id,
		LeadID:   "lead-1",
		Title:    id,
		DueDate:  due,
		Priority: prio,
		Status:   status,
	}
}

func TestBucketingByViewerDay(t *testing.T) {
	// 2024-03-01T01:30 in São Paulo is 2024-03-01T04:30 UTC; the item must
	// land on March 1st in the viewer's zone, not on a UTC day.
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	startLocal := time.Date(2024, 3, 1, 1, 30, 0, 0, sp)

	idx := New([]model.Appointment{appt("a1", startLocal.UTC(), model.StatusPending)}, nil, sp)

	detail := idx.Detail(Day{Year: 2024, Month: time.March, Day: 1})
	if len(detail.Appointments) != 1 {
		t.Fatalf("expected appointment on March 1 in viewer zone, got %d", len(detail.Appointments))
	}
	if got := idx.Detail(Day{Year: 2024, Month: time.February, Day: 29}); len(got.Appointments) != 0 {
		t.Fatalf("appointment leaked into the previous day")
	}
}

func TestBucketingMonthBoundary(t *testing.T) {
	lastOfFeb := time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)
	firstOfMar := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)

	idx := New([]model.Appointment{
		appt("feb", lastOfFeb, model.StatusPending),
		appt("mar", firstOfMar, model.StatusPending),
	}, nil, time.UTC)

	feb := idx.Detail(Day{Year: 2024, Month: time.February, Day: 29})
	mar := idx.Detail(Day{Year: 2024, Month: time.March, Day: 1})
	if len(feb.Appointments) != 1 || feb.Appointments[0].ID != "feb" {
		t.Fatalf("feb bucket wrong: %+v", feb.Appointments)
	}
	if len(mar.Appointments) != 1 || mar.Appointments[0].ID != "mar" {
		t.Fatalf("mar bucket wrong: %+v", mar.Appointments)
	}

	grid := idx.MonthGrid(2024, time.February)
	if len(grid) != 1 {
		t.Fatalf("february grid should have exactly one marked day, got %d", len(grid))
	}
}

func TestDetailOrdering(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	appts := []model.Appointment{
		appt("late", day.Add(15*time.Hour), model.StatusPending),
		appt("early", day.Add(9*time.Hour), model.StatusConfirmed),
	}
	rems := []model.Reminder{
		reminder("low", day.Add(8*time.Hour), model.PriorityLow, model.ReminderPending),
		reminder("urgent-late", day.Add(18*time.Hour), model.PriorityUrgent, model.ReminderPending),
		reminder("urgent-early", day.Add(10*time.Hour), model.PriorityUrgent, model.ReminderPending),
		reminder("high", day.Add(7*time.Hour), model.PriorityHigh, model.ReminderPending),
	}

	detail := New(appts, rems, time.UTC).Detail(Day{Year: 2024, Month: time.March, Day: 10})

	wantRems := []string{"urgent-early", "urgent-late", "high", "low"}
	if len(detail.Reminders) != len(wantRems) {
		t.Fatalf("expected %d reminders, got %d", len(wantRems), len(detail.Reminders))
	}
	for i, want := range wantRems {
		if detail.Reminders[i].ID != want {
			t.Fatalf("reminder position %d: expected %s, got %s", i, want, detail.Reminders[i].ID)
		}
	}
	if detail.Appointments[0].ID != "early" || detail.Appointments[1].ID != "late" {
		t.Fatalf("appointments not ordered by start time: %+v", detail.Appointments)
	}
}

func TestSummaryCapAndOverflow(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	var appts []model.Appointment
	for i := 0; i < 6; i++ {
		appts = append(appts, appt(string(rune('a'+i)), day.Add(time.Duration(9+i)*time.Hour), model.StatusPending))
	}

	idx := New(appts, nil, time.UTC)
	key := Day{Year: 2024, Month: time.March, Day: 10}

	summary := idx.Summary(key, 4)
	if len(summary.Markers) != 4 {
		t.Fatalf("expected 4 visible markers, got %d", len(summary.Markers))
	}
	if summary.Overflow != 2 {
		t.Fatalf("expected overflow 2, got %d", summary.Overflow)
	}

	// The cap never trims the authoritative detail list.
	if got := len(idx.Detail(key).Appointments); got != 6 {
		t.Fatalf("detail list affected by marker cap: %d", got)
	}
}

func TestMarkerKinds(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	cancelled := appt("c", day.Add(9*time.Hour), model.StatusCancelled)
	completed := appt("d", day.Add(10*time.Hour), model.StatusCompleted)
	restricted := appt("r", day.Add(11*time.Hour), model.StatusPending)
	restricted.IsRestricted = true

	rems := []model.Reminder{
		reminder("hot", day.Add(8*time.Hour), model.PriorityUrgent, model.ReminderPending),
		reminder("done", day.Add(9*time.Hour), model.PriorityHigh, model.ReminderCompleted),
	}

	idx := New([]model.Appointment{cancelled, completed, restricted}, rems, time.UTC)
	summary := idx.Summary(Day{Year: 2024, Month: time.March, Day: 10}, 10)

	want := []MarkerKind{MarkerReminderHot, MarkerDone, MarkerCancelled, MarkerCompleted, MarkerRestricted}
	if len(summary.Markers) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(summary.Markers))
	}
	for i, kind := range want {
		if summary.Markers[i].Kind != kind {
			t.Fatalf("marker %d: expected %s, got %s", i, kind, summary.Markers[i].Kind)
		}
	}
}
