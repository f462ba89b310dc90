package booking

import (
	"context"

	"medislot/internal/domain"
	"medislot/internal/repository"
)

// BookingRepository is the transactional storage surface the engine runs on.
// Every mutating method executes as a single transaction holding the
// relevant row lock.
type BookingRepository interface {
	Reserve(ctx context.Context, slotID, userID int64) (*domain.Booking, error)
	Hold(ctx context.Context, slotID, userID int64) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)
	CancelOwn(ctx context.Context, bookingID, userID int64) (slotID int64, err error)
	Buffer(ctx context.Context, bookingID int64) (slotID int64, err error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]repository.UserBookingRow, error)
}

// SlotEventPublisher receives slot availability changes. Best effort: the
// engine never fails a booking because a publish did.
type SlotEventPublisher interface {
	PublishSlotState(slotID int64, isBooked bool)
}
