package slot

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	UpdateFields(ctx context.Context, s *Slot) error
	// Delete removes the slot only while booked_count is zero and
	// returns ErrSlotHasBookings otherwise.
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Slot, int, error)
	// Reserve increments booked_count iff it is below capacity, as a
	// single conditional update. Returns ErrSlotFull when no seat is
	// left at the moment of the update.
	Reserve(ctx context.Context, id uuid.UUID) error
	// Release decrements booked_count, floored at zero. Never fails on
	// an already-empty slot.
	Release(ctx context.Context, id uuid.UUID) error
}
