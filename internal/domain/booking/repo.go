package booking

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *BookingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*BookingRequest, error)
	Update(ctx context.Context, b *BookingRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ExistsActive reports whether the patient already holds a pending
	// or accepted booking on the slot.
	ExistsActive(ctx context.Context, slotID, patientID uuid.UUID) (bool, error)
	// ListActiveBySlot returns every pending or accepted booking on the
	// slot, oldest first.
	ListActiveBySlot(ctx context.Context, slotID uuid.UUID) ([]*BookingRequest, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*BookingRequest, int, error)
}
