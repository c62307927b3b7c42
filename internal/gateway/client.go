// Package gateway is the HTTP client for the remote booking backend. The
// backend owns persistence, conflict detection and per-item authorization;
// this client constructs requests, validates what comes back and surfaces
// server-provided error messages.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/propview/showsched/internal/model"
)

// APIError carries the booking backend's rejection so the UI can show the
// server-provided message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking backend: %s (status %d)", e.Message, e.StatusCode)
}

type Config struct {
	// BaseURL is the backend API root, e.g. https://api.example.com/api/v1.
	BaseURL string
	// Cookie is the raw Cookie header carrying the viewer session.
	Cookie  string
	Timeout time.Duration
}

type Client struct {
	base   *url.URL
	cookie string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   base,
		cookie: cfg.Cookie,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

// ListAppointments fetches the full appointment set for the viewer's scope.
// Malformed items are rejected (logged and dropped) rather than trusted.
func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	var raw []model.Appointment
	if err := c.get(ctx, "/appointments", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(raw))
	for i := range raw {
		if err := raw[i].Validate(); err != nil {
			c.logger.Warn("rejecting malformed appointment payload", "index", i, "err", err)
			continue
		}
		out = append(out, raw[i])
	}
	return out, nil
}

func (c *Client) ListReminders(ctx context.Context) ([]model.Reminder, error) {
	var raw []model.Reminder
	if err := c.get(ctx, "/reminders", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Reminder, 0, len(raw))
	for i := range raw {
		if err := raw[i].Validate(); err != nil {
			c.logger.Warn("rejecting malformed reminder payload", "index", i, "err", err)
			continue
		}
		out = append(out, raw[i])
	}
	return out, nil
}

// CreateAppointment submits a booking request. An Idempotency-Key header
// guards against duplicate creation if the response is lost and the UI
// retries.
func (c *Client) CreateAppointment(ctx context.Context, req model.CreateAppointmentRequest) (model.Appointment, error) {
	var created model.Appointment
	headers := http.Header{"Idempotency-Key": []string{uuid.NewString()}}
	if err := c.send(ctx, http.MethodPost, "/appointments", req, headers, &created); err != nil {
		return model.Appointment{}, err
	}
	if err := created.Validate(); err != nil {
		return model.Appointment{}, fmt.Errorf("malformed created appointment: %w", err)
	}
	return created, nil
}

// CancelAppointment asks the backend to cancel; the backend decides whether
// the viewer is allowed to and returns the updated record.
func (c *Client) CancelAppointment(ctx context.Context, id, reason string) (model.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return model.Appointment{}, errors.New("appointment id required")
	}
	var updated model.Appointment
	body := model.CancelAppointmentRequest{CancellationReason: reason}
	path := "/appointments/" + url.PathEscape(id) + "/cancel"
	if err := c.send(ctx, http.MethodPatch, path, body, nil, &updated); err != nil {
		return model.Appointment{}, err
	}
	if err := updated.Validate(); err != nil {
		return model.Appointment{}, fmt.Errorf("malformed cancelled appointment: %w", err)
	}
	return updated, nil
}

// Ping verifies the backend is reachable; used by the readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String()+"/appointments", nil)
	if err != nil {
		return err
	}
	c.decorate(req, nil)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base.String() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.decorate(req, nil)
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body any, headers http.Header, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.decorate(req, headers)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) decorate(req *http.Request, headers http.Header) {
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("booking backend unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(body))
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			msg = envelope.Error
		} else if envelope.Message != "" {
			msg = envelope.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
