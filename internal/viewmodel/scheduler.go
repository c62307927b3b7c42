// Package viewmodel holds the scheduler's screen state: the most recently
// fetched snapshot, the booking form flow and the two-step cancellation
// flow. There is no optimistic mutation; every successful write is followed
// by a re-fetch and the UI renders whatever the backend returned.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/propview/showsched/internal/calendar"
	"github.com/propview/showsched/internal/lifecycle"
	"github.com/propview/showsched/internal/model"
	"github.com/propview/showsched/internal/planner"
)

// Repository is the persistence boundary, implemented by gateway.Client.
type Repository interface {
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	ListReminders(ctx context.Context) ([]model.Reminder, error)
	CreateAppointment(ctx context.Context, req model.CreateAppointmentRequest) (model.Appointment, error)
	CancelAppointment(ctx context.Context, id, reason string) (model.Appointment, error)
}

// Directory resolves reference records needed while building a booking.
type Directory interface {
	GetLead(ctx context.Context, id string) (model.Lead, error)
	GetUnit(ctx context.Context, id string) (model.Unit, error)
}

var (
	// ErrSubmitInFlight rejects a second submission while one is pending;
	// the UI disables the button, this is the backstop.
	ErrSubmitInFlight = errors.New("a booking submission is already in flight")
	ErrCancelInFlight = errors.New("a cancellation is already in flight")
	// ErrCancelNotOffered means the cancel control should not have been
	// shown: the appointment is terminal or the backend withheld permission.
	ErrCancelNotOffered = errors.New("cancellation is not available for this appointment")
	// ErrCancelNotConfirmed enforces the two-step flow: ConfirmCancel is
	// only valid after BeginCancel for the same appointment.
	ErrCancelNotConfirmed = errors.New("cancellation has not been confirmed")
	ErrUnknownAppointment = errors.New("appointment not in the current snapshot")
	ErrEmptyCancelReason  = errors.New("a cancellation reason is required")
)

type Scheduler struct {
	repo   Repository
	dir    Directory
	loc    *time.Location
	logger *slog.Logger

	mu             sync.Mutex
	appointments   []model.Appointment
	reminders      []model.Reminder
	index          *calendar.Index
	submitting     bool
	cancelling     map[string]bool
	pendingCancels map[string]struct{}
}

func New(repo Repository, dir Directory, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		repo:           repo,
		dir:            dir,
		loc:            loc,
		logger:         logger,
		index:          calendar.New(nil, nil, loc),
		cancelling:     map[string]bool{},
		pendingCancels: map[string]struct{}{},
	}
}

// Refresh re-fetches both collections. On failure the previous snapshot is
// kept so the screen degrades instead of crashing.
func (s *Scheduler) Refresh(ctx context.Context) error {
	appts, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return fmt.Errorf("fetch appointments: %w", err)
	}
	rems, err := s.repo.ListReminders(ctx)
	if err != nil {
		return fmt.Errorf("fetch reminders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = appts
	s.reminders = rems
	s.index = calendar.New(appts, rems, s.loc)
	return nil
}

// MonthGrid is pure recomputation over the held snapshot; navigating months
// performs no I/O.
func (s *Scheduler) MonthGrid(year int, month time.Month) map[calendar.Day]calendar.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.MonthGrid(year, month)
}

// DayDetail is the ordered day list with the privacy mask already applied:
// restricted appointments leave this package without contact data.
type DayDetail struct {
	Reminders    []model.Reminder       `json:"reminders"`
	Appointments []lifecycle.DetailView `json:"appointments"`
}

func (s *Scheduler) DayDetail(day calendar.Day) DayDetail {
	s.mu.Lock()
	detail := s.index.Detail(day)
	s.mu.Unlock()

	views := make([]lifecycle.DetailView, len(detail.Appointments))
	for i, a := range detail.Appointments {
		views[i] = lifecycle.RenderDetail(a)
	}
	return DayDetail{Reminders: detail.Reminders, Appointments: views}
}

// Submit validates the form and, only if it passes, resolves the lead (and
// unit for individual mode), sends the booking and re-fetches. Validation
// failures never reach the network.
func (s *Scheduler) Submit(ctx context.Context, form *planner.Form) (model.Appointment, error) {
	if err := form.Validate(); err != nil {
		return model.Appointment{}, err
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return model.Appointment{}, ErrSubmitInFlight
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	lead, err := s.dir.GetLead(ctx, form.LeadID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("resolve lead: %w", err)
	}
	var unit *model.Unit
	if form.Mode == model.ModeIndividual {
		u, err := s.dir.GetUnit(ctx, form.UnitID)
		if err != nil {
			return model.Appointment{}, fmt.Errorf("resolve unit: %w", err)
		}
		unit = &u
	}

	req, err := form.Build(s.loc, lead, unit)
	if err != nil {
		return model.Appointment{}, err
	}
	created, err := s.repo.CreateAppointment(ctx, req)
	if err != nil {
		return model.Appointment{}, err
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after create failed", "appointment_id", created.ID, "err", err)
	}
	return created, nil
}

// CancelPrompt is what the confirmation dialog shows before a cancellation
// is actually sent.
type CancelPrompt struct {
	AppointmentID string    `json:"appointmentId"`
	ClientName    string    `json:"clientName"`
	Date          time.Time `json:"date"`
}

// BeginCancel opens the confirmation step. It is only available when the
// backend granted CanCancel and the appointment is not already terminal.
func (s *Scheduler) BeginCancel(id string) (CancelPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.findLocked(id)
	if !ok {
		return CancelPrompt{}, ErrUnknownAppointment
	}
	if !lifecycle.CanOfferCancel(appt) {
		return CancelPrompt{}, ErrCancelNotOffered
	}
	s.pendingCancels[id] = struct{}{}
	return CancelPrompt{AppointmentID: appt.ID, ClientName: appt.ClientName, Date: appt.Date}, nil
}

// ConfirmCancel sends the cancellation after explicit re-confirmation. On
// failure the displayed state is left untouched; the caller surfaces the
// error and the user may retry.
func (s *Scheduler) ConfirmCancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	if reason == "" {
		return model.Appointment{}, ErrEmptyCancelReason
	}

	s.mu.Lock()
	if _, ok := s.pendingCancels[id]; !ok {
		s.mu.Unlock()
		return model.Appointment{}, ErrCancelNotConfirmed
	}
	if s.cancelling[id] {
		s.mu.Unlock()
		return model.Appointment{}, ErrCancelInFlight
	}
	s.cancelling[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancelling, id)
		s.mu.Unlock()
	}()

	updated, err := s.repo.CancelAppointment(ctx, id, reason)
	if err != nil {
		return model.Appointment{}, err
	}

	s.mu.Lock()
	delete(s.pendingCancels, id)
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after cancel failed", "appointment_id", id, "err", err)
	}
	return updated, nil
}

func (s *Scheduler) findLocked(id string) (model.Appointment, bool) {
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Appointment{}, false
}
