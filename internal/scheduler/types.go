// Package scheduler persists reminders and fires each one exactly once
// when its deadline passes.
package scheduler

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a reminder row.
type Status string

const (
	StatusPending Status = "pending"
	StatusFired   Status = "fired"
)

// Reminder is a persisted task paired with at most one armed deadline.
type Reminder struct {
	ID        int64      `json:"id"` // assigned by the store
	Text      string     `json:"text"`
	FireAt    time.Time  `json:"fire_at"`
	CreatedAt time.Time  `json:"created_at"`
	Status    Status     `json:"status"`
	FiredAt   *time.Time `json:"fired_at,omitempty"`
}

// Due reports whether the reminder's deadline has passed at now.
func (r *Reminder) Due(now time.Time) bool {
	return !r.FireAt.After(now)
}

// FireFunc is called once per reminder after its row is marked fired.
type FireFunc func(ctx context.Context, r *Reminder)

var (
	// ErrStopped is returned when scheduling on a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")

	// ErrAlreadyArmed is returned when a reminder id is armed twice.
	ErrAlreadyArmed = errors.New("reminder already armed")
)
