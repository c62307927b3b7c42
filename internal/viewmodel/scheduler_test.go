package viewmodel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/propview/showsched/internal/calendar"
	"github.com/propview/showsched/internal/model"
	"github.com/propview/showsched/internal/planner"
)

type fakeBackend struct {
	mu sync.Mutex

	appointments []model.Appointment
	reminders    []model.Reminder

	listErr   error
	createErr error
	cancelErr error

	listCalls   int
	createCalls int
	cancelCalls int

	lastCreate model.CreateAppointmentRequest
	lastCancel string
	lastReason string

	createGate chan struct{} // when set, CreateAppointment blocks until closed
}

func (f *fakeBackend) ListAppointments(context.Context) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Appointment(nil), f.appointments...), nil
}

func (f *fakeBackend) ListReminders(context.Context) ([]model.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Reminder(nil), f.reminders...), nil
}

func (f *fakeBackend) CreateAppointment(_ context.Context, req model.CreateAppointmentRequest) (model.Appointment, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastCreate = req
	gate := f.createGate
	err := f.createErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return model.Appointment{
		ID:     "created-1",
		Date:   req.Date,
		Mode:   req.Mode,
		Status: model.StatusPending,
	}, nil
}

func (f *fakeBackend) CancelAppointment(_ context.Context, id, reason string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	f.lastCancel = id
	f.lastReason = reason
	if f.cancelErr != nil {
		return model.Appointment{}, f.cancelErr
	}
	return model.Appointment{
		ID:     id,
		Date:   time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
		Mode:   model.ModeIndividual,
		Status: model.StatusCancelled,
	}, nil
}

func (f *fakeBackend) GetLead(_ context.Context, id string) (model.Lead, error) {
	return model.Lead{ID: id, Name: "Ana Souza", Phone: "+55 11 99999-0000", Email: "ana@example.com"}, nil
}

func (f *fakeBackend) GetUnit(_ context.Context, id string) (model.Unit, error) {
	return model.Unit{ID: id, CondominiumID: "c1", CondominiumName: "Residencial Aurora", Number: "72B", Active: true}, nil
}

func newTestScheduler(f *fakeBackend) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(f, f, time.UTC, logger)
}

func individualForm() *planner.Form {
	return &planner.Form{
		Mode:   model.ModeIndividual,
		LeadID: "lead-1",
		UnitID: "unit-1",
		Date:   "2024-03-10",
		Time:   "10:00",
	}
}

func TestSubmitValidationFailureSkipsNetwork(t *testing.T) {
	f := &fakeBackend{}
	s := newTestScheduler(f)

	form := individualForm()
	form.LeadID = ""
	_, err := s.Submit(context.Background(), form)
	if !errors.Is(err, planner.ErrLeadRequired) {
		t.Fatalf("expected ErrLeadRequired, got %v", err)
	}
	if f.createCalls != 0 || f.listCalls != 0 {
		t.Fatalf("validation failure must not reach the backend (create=%d list=%d)", f.createCalls, f.listCalls)
	}
}

func TestSubmitCreatesAndRefetches(t *testing.T) {
	f := &fakeBackend{}
	s := newTestScheduler(f)

	created, err := s.Submit(context.Background(), individualForm())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.ID != "created-1" {
		t.Fatalf("unexpected created id %q", created.ID)
	}
	if f.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", f.createCalls)
	}
	if f.listCalls != 1 {
		t.Fatalf("expected invalidation re-fetch after create, got %d list calls", f.listCalls)
	}
	if f.lastCreate.ClientName != "Ana Souza" || f.lastCreate.ClientPhone == "" {
		t.Fatalf("lead contact fields not copied into request: %+v", f.lastCreate)
	}
	if f.lastCreate.CondominiumName != "Residencial Aurora" || f.lastCreate.UnitNumber != "72B" {
		t.Fatalf("unit labels not resolved: %+v", f.lastCreate)
	}
}

func TestSubmitInFlightGuard(t *testing.T) {
	f := &fakeBackend{createGate: make(chan struct{})}
	s := newTestScheduler(f)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), individualForm())
		firstDone <- err
	}()

	// Wait until the first submission reaches the backend.
	deadline := time.After(2 * time.Second)
	for {
		f.mu.Lock()
		started := f.createCalls == 1
		f.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first submission never reached the backend")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := s.Submit(context.Background(), individualForm()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(f.createGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	f := &fakeBackend{
		appointments: []model.Appointment{{
			ID:     "appt-1",
			Date:   time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			Mode:   model.ModeIndividual,
			Status: model.StatusPending,
		}},
	}
	s := newTestScheduler(f)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	f.mu.Lock()
	f.listErr = errors.New("backend down")
	f.mu.Unlock()

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}

	day := calendar.Day{Year: 2024, Month: time.March, Day: 10}
	if got := s.DayDetail(day); len(got.Appointments) != 1 {
		t.Fatalf("failed refresh wiped the snapshot")
	}
}

func TestCancelRequiresOfferedControl(t *testing.T) {
	f := &fakeBackend{
		appointments: []model.Appointment{{
			ID:        "appt-1",
			Date:      time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			Mode:      model.ModeIndividual,
			Status:    model.StatusPending,
			CanCancel: false,
		}},
	}
	s := newTestScheduler(f)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := s.BeginCancel("appt-1"); !errors.Is(err, ErrCancelNotOffered) {
		t.Fatalf("expected ErrCancelNotOffered, got %v", err)
	}
	if _, err := s.BeginCancel("nope"); !errors.Is(err, ErrUnknownAppointment) {
		t.Fatalf("expected ErrUnknownAppointment, got %v", err)
	}
	if f.cancelCalls != 0 {
		t.Fatalf("cancel must not reach the backend without the offered control")
	}
}

func TestCancelTwoStepFlow(t *testing.T) {
	f := &fakeBackend{
		appointments: []model.Appointment{{
			ID:         "appt-1",
			Date:       time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			Mode:       model.ModeIndividual,
			Status:     model.StatusConfirmed,
			ClientName: "Ana Souza",
			CanCancel:  true,
		}},
	}
	s := newTestScheduler(f)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	listCallsBefore := f.listCalls

	// Confirming without the prompt step is rejected.
	if _, err := s.ConfirmCancel(context.Background(), "appt-1", "changed plans"); !errors.Is(err, ErrCancelNotConfirmed) {
		t.Fatalf("expected ErrCancelNotConfirmed, got %v", err)
	}

	prompt, err := s.BeginCancel("appt-1")
	if err != nil {
		t.Fatalf("begin cancel: %v", err)
	}
	if prompt.ClientName != "Ana Souza" {
		t.Fatalf("prompt missing client name: %+v", prompt)
	}

	if _, err := s.ConfirmCancel(context.Background(), "appt-1", ""); !errors.Is(err, ErrEmptyCancelReason) {
		t.Fatalf("expected ErrEmptyCancelReason, got %v", err)
	}

	updated, err := s.ConfirmCancel(context.Background(), "appt-1", "changed plans")
	if err != nil {
		t.Fatalf("confirm cancel: %v", err)
	}
	if updated.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if f.lastCancel != "appt-1" || f.lastReason != "changed plans" {
		t.Fatalf("cancellation not forwarded: id=%q reason=%q", f.lastCancel, f.lastReason)
	}
	if f.listCalls != listCallsBefore+1 {
		t.Fatalf("expected invalidation re-fetch after cancel")
	}
}

func TestCancelFailureLeavesStateUnchanged(t *testing.T) {
	f := &fakeBackend{
		appointments: []model.Appointment{{
			ID:        "appt-1",
			Date:      time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			Mode:      model.ModeIndividual,
			Status:    model.StatusConfirmed,
			CanCancel: true,
		}},
	}
	s := newTestScheduler(f)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := s.BeginCancel("appt-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	f.mu.Lock()
	f.cancelErr = errors.New("server refused")
	f.mu.Unlock()

	if _, err := s.ConfirmCancel(context.Background(), "appt-1", "reason"); err == nil {
		t.Fatalf("expected cancel failure")
	}

	day := calendar.Day{Year: 2024, Month: time.March, Day: 10}
	detail := s.DayDetail(day)
	if len(detail.Appointments) != 1 || detail.Appointments[0].Status != model.StatusConfirmed {
		t.Fatalf("failed cancel mutated displayed state: %+v", detail.Appointments)
	}

	// The confirmation survives so the user can simply retry.
	f.mu.Lock()
	f.cancelErr = nil
	f.mu.Unlock()
	if _, err := s.ConfirmCancel(context.Background(), "appt-1", "reason"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}
