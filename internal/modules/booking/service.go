package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"medislot/internal/domain"
	"medislot/internal/repository"
)

type Service struct {
	bookings BookingRepository
	events   SlotEventPublisher
}

func NewService(bookings BookingRepository, events SlotEventPublisher) *Service {
	return &Service{
		bookings: bookings,
		events:   events,
	}
}

// Reserve atomically books the slot for the user. Concurrent calls against
// the same slot are serialized by the slot row lock inside the repository;
// exactly one caller wins, the rest get ErrSlotUnavailable.
func (s *Service) Reserve(ctx context.Context, slotID, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.Reserve(ctx, slotID, userID)
	if err != nil {
		return nil, mapReserveErr(err)
	}

	if s.events != nil {
		s.events.PublishSlotState(slotID, true)
	}
	return b, nil
}

// Hold books the slot with a PENDING booking that must be confirmed within
// the pending window, or the reconciler fails it and frees the slot.
func (s *Service) Hold(ctx context.Context, slotID, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.Hold(ctx, slotID, userID)
	if err != nil {
		return nil, mapReserveErr(err)
	}

	if s.events != nil {
		s.events.PublishSlotState(slotID, true)
	}
	return b, nil
}

// Confirm promotes the caller's PENDING booking to CONFIRMED. The slot was
// already held by the hold, so availability does not change.
func (s *Service) Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.Confirm(ctx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrBookingNotFound
		case errors.Is(err, repository.ErrNotOwner):
			return nil, ErrNotOwner
		case errors.Is(err, repository.ErrNotPending):
			return nil, ErrNotPending
		}
		return nil, err
	}
	return b, nil
}

// CancelAsUser cancels the caller's own booking and releases the slot
// immediately, both in the same transaction.
func (s *Service) CancelAsUser(ctx context.Context, bookingID, userID int64) error {
	slotID, err := s.bookings.CancelOwn(ctx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrBookingNotFound
		case errors.Is(err, repository.ErrNotOwner):
			return ErrNotOwner
		case errors.Is(err, repository.ErrNotActive):
			return ErrNotCancellable
		}
		return err
	}

	if s.events != nil {
		s.events.PublishSlotState(slotID, false)
	}
	return nil
}

// CancelAsAdmin parks the booking in BUFFER. The slot stays unavailable
// until the buffer window lapses and the reconciler releases it, so the
// slot cannot be instantly re-booked right after an admin action.
func (s *Service) CancelAsAdmin(ctx context.Context, bookingID int64) error {
	_, err := s.bookings.Buffer(ctx, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrBookingNotFound
		case errors.Is(err, repository.ErrNotActive):
			return ErrNotCancellable
		}
		return err
	}
	return nil
}

func (s *Service) GetMyBookings(ctx context.Context, userID int64) ([]repository.UserBookingRow, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// mapReserveErr translates storage-level failures of a reservation attempt.
// A unique violation on the active-booking index means another writer won a
// race the row lock should have serialized; it is reported as the same
// conflict the caller would have seen under the lock.
func mapReserveErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSlotNotFound
	}
	if errors.Is(err, repository.ErrSlotTaken) {
		return ErrSlotUnavailable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "idx_one_active_booking" {
			return ErrSlotUnavailable
		}
	}
	return err
}
