package slot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by the slot store. Handlers map these onto
// HTTP status codes; callers test with errors.Is.
var (
	ErrNotFound         = errors.New("slot not found")
	ErrDuplicateSlot    = errors.New("slot already exists for doctor, date and hour range")
	ErrInvalidHourRange = errors.New("end_hour must be greater than start_hour, both within 0-23")
	ErrInvalidCapacity  = errors.New("capacity must be at least 1")
	ErrSlotFull         = errors.New("slot is fully booked")
	ErrSlotHasBookings  = errors.New("slot has active bookings")
)

// Slot maps to the slot table: one bookable window of a doctor's day
// with a fixed seat capacity. BookedCount is owned by the booking
// lifecycle manager; nothing else may move it.
type Slot struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        time.Time `db:"date" json:"date"`
	StartHour   int       `db:"start_hour" json:"start_hour"`
	EndHour     int       `db:"end_hour" json:"end_hour"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Location    *string   `db:"location" json:"location,omitempty"`
	BookedCount int       `db:"booked_count" json:"booked_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether the slot has no seats left. Capacity may have
// been lowered below the current count; the slot is then over-capacity
// and still reports full.
func (s *Slot) IsFull() bool { return s.BookedCount >= s.Capacity }

// FieldPatch carries a partial update of the non-counter fields.
// BookedCount is deliberately absent: it only moves through the
// Reserve/Release pair.
type FieldPatch struct {
	Date      *time.Time `json:"date,omitempty"`
	StartHour *int       `json:"start_hour,omitempty"`
	EndHour   *int       `json:"end_hour,omitempty"`
	Capacity  *int       `json:"capacity,omitempty"`
	Location  *string    `json:"location,omitempty"`
}
