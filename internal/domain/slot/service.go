package slot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service is the slot store: it owns validation of slot fields and is
// the single gateway to the booked-count mutators. Only the booking
// lifecycle manager calls Reserve and Release.
type Service struct {
	slots Repository
}

func NewService(slots Repository) *Service {
	return &Service{slots: slots}
}

func validHourRange(start, end int) bool {
	return start >= 0 && start <= 23 && end >= 0 && end <= 23 && end > start
}

func (s *Service) CreateSlot(ctx context.Context, sl *Slot) error {
	if sl.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if !validHourRange(sl.StartHour, sl.EndHour) {
		return ErrInvalidHourRange
	}
	if sl.Capacity < 1 {
		return ErrInvalidCapacity
	}
	sl.BookedCount = 0
	return s.slots.Create(ctx, sl)
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, params map[string]string, limit, offset int) ([]*Slot, int, error) {
	return s.slots.Search(ctx, params, limit, offset)
}

// UpdateSlotFields applies a partial edit of the non-counter fields.
// Capacity may be lowered below the current booked count; the slot then
// reports full and blocks new bookings until usage drops.
func (s *Service) UpdateSlotFields(ctx context.Context, id uuid.UUID, patch FieldPatch) (*Slot, error) {
	sl, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Date != nil {
		sl.Date = *patch.Date
	}
	if patch.StartHour != nil {
		sl.StartHour = *patch.StartHour
	}
	if patch.EndHour != nil {
		sl.EndHour = *patch.EndHour
	}
	if patch.Capacity != nil {
		sl.Capacity = *patch.Capacity
	}
	if patch.Location != nil {
		sl.Location = patch.Location
	}
	if !validHourRange(sl.StartHour, sl.EndHour) {
		return nil, ErrInvalidHourRange
	}
	if sl.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if err := s.slots.UpdateFields(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Delete(ctx, id)
}

// CanAcceptBooking is a pure predicate on a loaded slot; the atomic
// check happens again inside Reserve.
func (s *Service) CanAcceptBooking(sl *Slot) bool {
	return !sl.IsFull()
}

// Reserve consumes one seat, failing with ErrSlotFull when the
// conditional update finds no capacity left.
func (s *Service) Reserve(ctx context.Context, id uuid.UUID) error {
	return s.slots.Reserve(ctx, id)
}

// Release returns one seat; decrementing an empty slot is a no-op by
// construction, so Release only fails when the slot is missing.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	return s.slots.Release(ctx, id)
}
