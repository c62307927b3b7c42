// Package httpapi exposes the scheduler to the web UI as JSON endpoints.
// Handlers follow the same shape everywhere: method check, decode, trim,
// delegate, explicit status code. Every outcome, success or failure, is
// visible to the caller.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/propview/showsched/internal/calendar"
	"github.com/propview/showsched/internal/gateway"
	"github.com/propview/showsched/internal/model"
	"github.com/propview/showsched/internal/planner"
	"github.com/propview/showsched/internal/viewmodel"
)

// ReferenceLister is the slice of the booking backend the picker endpoints
// pass through.
type ReferenceLister interface {
	ListLeads(ctx context.Context, page gateway.Page) (gateway.LeadPage, error)
	ListCondominiums(ctx context.Context, page gateway.Page) (gateway.CondominiumPage, error)
	ListUnits(ctx context.Context, filter gateway.UnitFilter, page gateway.Page) (gateway.UnitPage, error)
}

type Handler struct {
	sched  *viewmodel.Scheduler
	ref    ReferenceLister
	loc    *time.Location
	logger *slog.Logger
}

func NewHandler(sched *viewmodel.Scheduler, ref ReferenceLister, loc *time.Location, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{sched: sched, ref: ref, loc: loc, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/schedule/month", h.MonthGrid)
	mux.HandleFunc("/api/v1/schedule/day", h.DayDetail)
	mux.HandleFunc("/api/v1/schedule/refresh", h.Refresh)
	mux.HandleFunc("/api/v1/schedule/appointments", h.Submit)
	mux.HandleFunc("/api/v1/schedule/appointments/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/reference/leads", h.Leads)
	mux.HandleFunc("/api/v1/reference/condominiums", h.Condominiums)
	mux.HandleFunc("/api/v1/reference/units", h.Units)
}

type monthGridResponse struct {
	Year  int                         `json:"year"`
	Month int                         `json:"month"`
	Days  map[string]calendar.Summary `json:"days"`
}

func (h *Handler) MonthGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1970 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	grid := h.sched.MonthGrid(year, time.Month(month))
	days := make(map[string]calendar.Summary, len(grid))
	for day, summary := range grid {
		key := time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, h.loc).Format("2006-01-02")
		days[key] = summary
	}
	writeJSON(w, http.StatusOK, monthGridResponse{Year: year, Month: month, Days: days})
}

func (h *Handler) DayDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, h.sched.DayDetail(calendar.DayOf(date, h.loc)))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := h.sched.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh failed", "err", err)
		writeError(w, http.StatusBadGateway, "could not load schedule data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitRequest struct {
	Mode      model.Mode       `json:"mode"`
	LeadID    string           `json:"leadId"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	UnitID    string           `json:"unitId"`
	Notes     string           `json:"notes"`
	TourStops []model.TourStop `json:"tourStops"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	form := planner.Form{
		Mode:   req.Mode,
		LeadID: strings.TrimSpace(req.LeadID),
		Date:   strings.TrimSpace(req.Date),
		Time:   strings.TrimSpace(req.Time),
		UnitID: strings.TrimSpace(req.UnitID),
		Notes:  req.Notes,
	}
	for _, stop := range req.TourStops {
		if err := form.AddStop(stop); err != nil {
			// The stop cap is an interaction-level rule; a fourth stop is
			// rejected before validation ever runs.
			writeFieldError(w, http.StatusUnprocessableEntity, "tourStops", err.Error())
			return
		}
	}

	created, err := h.sched.Submit(r.Context(), &form)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	var verr *planner.ValidationError
	if errors.As(err, &verr) {
		writeFieldError(w, http.StatusUnprocessableEntity, verr.Field, verr.Reason)
		return
	}
	if errors.Is(err, planner.ErrBadTimeInput) {
		writeFieldError(w, http.StatusUnprocessableEntity, "time", "date or time is malformed")
		return
	}
	if errors.Is(err, viewmodel.ErrSubmitInFlight) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeBackendError(w, err)
}

type cancelRequest struct {
	AppointmentID string `json:"appointmentId"`
	Reason        string `json:"reason"`
	Confirmed     bool   `json:"confirmed"`
}

// Cancel implements the two-step flow over a single endpoint: the first
// call (confirmed=false) returns the confirmation prompt, the second call
// (confirmed=true, with a reason) actually sends the cancellation.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "appointmentId required")
		return
	}

	if !req.Confirmed {
		prompt, err := h.sched.BeginCancel(req.AppointmentID)
		if err != nil {
			h.writeCancelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prompt)
		return
	}

	updated, err := h.sched.ConfirmCancel(r.Context(), req.AppointmentID, req.Reason)
	if err != nil {
		h.writeCancelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeCancelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewmodel.ErrUnknownAppointment):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, viewmodel.ErrCancelNotOffered),
		errors.Is(err, viewmodel.ErrCancelNotConfirmed),
		errors.Is(err, viewmodel.ErrCancelInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, viewmodel.ErrEmptyCancelReason):
		writeFieldError(w, http.StatusUnprocessableEntity, "reason", err.Error())
	default:
		h.writeBackendError(w, err)
	}
}

// writeBackendError relays a booking-backend rejection with the
// server-provided message so the UI can toast it verbatim.
func (h *Handler) writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
		return
	}
	h.logger.Error("booking backend call failed", "err", err)
	writeError(w, http.StatusBadGateway, "booking service unavailable, try again")
}

func (h *Handler) Leads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out, err := h.ref.ListLeads(r.Context(), pageParams(r))
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Condominiums(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out, err := h.ref.ListCondominiums(r.Context(), pageParams(r))
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Units(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filter := gateway.UnitFilter{
		CondominiumID: strings.TrimSpace(r.URL.Query().Get("condominium_id")),
		ActiveOnly:    r.URL.Query().Get("active") == "true",
	}
	out, err := h.ref.ListUnits(r.Context(), filter, pageParams(r))
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func pageParams(r *http.Request) gateway.Page {
	page := gateway.Page{Number: 1, Size: 50}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page.Number = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && n > 0 && n <= 200 {
		page.Size = n
	}
	return page
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldError(w http.ResponseWriter, status int, field, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "field": field})
}
