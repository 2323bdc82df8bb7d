package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-api/internal/domain/patient"
	"github.com/clinicore/clinic-api/internal/domain/slot"
)

// SlotStore is the capacity ledger the lifecycle manager drives. The
// booking service is the only caller of Reserve and Release.
type SlotStore interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*slot.Slot, error)
	CanAcceptBooking(sl *slot.Slot) bool
	Reserve(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
}

// PatientDirectory resolves or registers the patient a booking is for.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	CreatePatient(ctx context.Context, p *patient.Patient) error
}

// TxRunner executes fn as one atomic unit. The production runner wraps
// fn in a database transaction; a nil runner degrades to calling fn
// directly, in which case the service's compensating releases keep the
// counters consistent.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	bookings Repository
	slots    SlotStore
	patients PatientDirectory
	tx       TxRunner
}

func NewService(bookings Repository, slots SlotStore, patients PatientDirectory, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{bookings: bookings, slots: slots, patients: patients, tx: tx}
}

// CreateInput carries a booking creation request. Exactly one of
// PatientID and NewPatient must be set.
type CreateInput struct {
	SlotID     uuid.UUID        `json:"slot_id"`
	PatientID  uuid.UUID        `json:"patient_id"`
	NewPatient *patient.Patient `json:"patient"`
	Reason     *string          `json:"reason"`
	Status     Status           `json:"status"`
}

// CreateBooking admits a booking and consumes a seat on the slot. The
// seat is held from this point until the booking is rejected or
// deleted. Walk-ins may be created directly as accepted.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (*BookingRequest, error) {
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() || !status.Active() {
		return nil, ErrInvalidStatus
	}

	sl, err := s.slots.GetSlot(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}
	if !s.slots.CanAcceptBooking(sl) {
		return nil, slot.ErrSlotFull
	}

	var p *patient.Patient
	switch {
	case in.PatientID != uuid.Nil:
		p, err = s.patients.GetPatient(ctx, in.PatientID)
		if err != nil {
			return nil, err
		}
	case in.NewPatient != nil:
		if err := s.patients.CreatePatient(ctx, in.NewPatient); err != nil {
			return nil, err
		}
		p = in.NewPatient
	default:
		return nil, fmt.Errorf("patient_id or patient is required")
	}

	exists, err := s.bookings.ExistsActive(ctx, sl.ID, p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	b := &BookingRequest{
		SlotID:    sl.ID,
		PatientID: p.ID,
		Status:    status,
		Reason:    in.Reason,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		// Reserve settles the race: the predicate above may be stale by
		// the time we get here.
		if err := s.slots.Reserve(ctx, sl.ID); err != nil {
			return err
		}
		if err := s.bookings.Create(ctx, b); err != nil {
			if relErr := s.slots.Release(ctx, sl.ID); relErr != nil {
				log.Error().Err(relErr).
					Str("slot_id", sl.ID.String()).
					Msg("failed to release seat after booking insert failure")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, b)
	return b, nil
}

// UpdateBookingStatus walks one edge of the lifecycle graph. The only
// counter-changing edge is into rejected, which gives the seat back.
func (s *Service) UpdateBookingStatus(ctx context.Context, id uuid.UUID, target Status) (*BookingRequest, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.slots.GetSlot(ctx, b.SlotID); err != nil {
		if errors.Is(err, slot.ErrNotFound) {
			// A booking pointing at a missing slot is a broken
			// invariant, not a routine lookup miss.
			log.Error().
				Str("booking_id", b.ID.String()).
				Str("slot_id", b.SlotID.String()).
				Msg("booking references a missing slot")
		}
		return nil, err
	}
	if !b.Status.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}

	prev := b.Status
	b.Status = target
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		if target == StatusRejected {
			return s.slots.Release(ctx, b.SlotID)
		}
		return nil
	})
	if err != nil {
		b.Status = prev
		return nil, err
	}

	s.enrich(ctx, b)
	return b, nil
}

// DeleteBooking withdraws a pending or accepted booking and gives the
// seat back. Checked-in, completed and rejected bookings are part of
// the visit record and stay.
func (s *Service) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.Status.Active() {
		return ErrNotDeletable
	}
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.bookings.Delete(ctx, id); err != nil {
			return err
		}
		return s.slots.Release(ctx, b.SlotID)
	})
}

// RescheduleBookings moves every active booking from one slot to
// another, one at a time, and returns the bookings it moved. A full
// destination stops the batch; bookings moved before the stop stay
// moved. No single move ever half-happens.
func (s *Service) RescheduleBookings(ctx context.Context, fromSlotID, toSlotID uuid.UUID) ([]*BookingRequest, error) {
	if fromSlotID == toSlotID {
		return nil, fmt.Errorf("source and destination slot are the same")
	}
	if _, err := s.slots.GetSlot(ctx, fromSlotID); err != nil {
		return nil, err
	}
	if _, err := s.slots.GetSlot(ctx, toSlotID); err != nil {
		return nil, err
	}

	active, err := s.bookings.ListActiveBySlot(ctx, fromSlotID)
	if err != nil {
		return nil, err
	}

	moved := make([]*BookingRequest, 0, len(active))
	for _, b := range active {
		b := b
		err := s.tx(ctx, func(ctx context.Context) error {
			if err := s.slots.Reserve(ctx, toSlotID); err != nil {
				return err
			}
			b.SlotID = toSlotID
			if err := s.bookings.Update(ctx, b); err != nil {
				b.SlotID = fromSlotID
				if relErr := s.slots.Release(ctx, toSlotID); relErr != nil {
					log.Error().Err(relErr).
						Str("slot_id", toSlotID.String()).
						Msg("failed to release seat after reschedule update failure")
				}
				return err
			}
			return s.slots.Release(ctx, fromSlotID)
		})
		if err != nil {
			return moved, err
		}
		s.enrich(ctx, b)
		moved = append(moved, b)
	}
	return moved, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, b)
	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, params map[string]string, limit, offset int) ([]*BookingRequest, int, error) {
	items, total, err := s.bookings.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, b := range items {
		s.enrich(ctx, b)
	}
	return items, total, nil
}

// enrich attaches slot and patient details for responses. Lookup
// failures leave the reference fields empty rather than failing the
// read.
func (s *Service) enrich(ctx context.Context, b *BookingRequest) {
	if sl, err := s.slots.GetSlot(ctx, b.SlotID); err == nil {
		b.Slot = sl
	}
	if p, err := s.patients.GetPatient(ctx, b.PatientID); err == nil {
		b.Patient = p
	}
}
