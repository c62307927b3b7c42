package model

import (
	"fmt"
	"time"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
	ReminderCancelled ReminderStatus = "cancelled"
)

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderPending, ReminderCompleted, ReminderCancelled:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for display: urgent first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 0
	default:
		return -1
	}
}

// Reminder is a follow-up task owned by the lead-management system.
// The scheduler only reads reminders to place them on the calendar.
type Reminder struct {
	ID           string         `json:"id"`
	LeadID       string         `json:"leadId"`
	ReminderType string         `json:"reminderType"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	DueDate      time.Time      `json:"dueDate"`
	Priority     Priority       `json:"priority"`
	Status       ReminderStatus `json:"status"`
}

func (r *Reminder) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.DueDate.IsZero() {
		return ErrMissingDate
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
	if r.Priority.Rank() < 0 {
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
	return nil
}
