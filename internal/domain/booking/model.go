package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/domain/patient"
	"github.com/clinicore/clinic-api/internal/domain/slot"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrDuplicateBooking  = errors.New("patient already has an active booking for this slot")
	ErrInvalidStatus     = errors.New("unknown booking status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotDeletable      = errors.New("booking can no longer be deleted")
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
)

// transitions is the full lifecycle graph. rejected and completed are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusCheckedIn, StatusRejected},
	StatusCheckedIn: {StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Active reports whether the booking still holds a seat that a new
// booking by the same patient would conflict with.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// CanTransitionTo reports whether the lifecycle allows moving from s to
// target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// BookingRequest maps to the booking_request table. A seat on the slot
// is held from creation until the booking is rejected or deleted.
type BookingRequest struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SlotID      uuid.UUID `db:"slot_id" json:"slot_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Status      Status    `db:"status" json:"status"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Enriched on read, not persisted here.
	Slot    *slot.Slot       `db:"-" json:"slot,omitempty"`
	Patient *patient.Patient `db:"-" json:"patient,omitempty"`
}
