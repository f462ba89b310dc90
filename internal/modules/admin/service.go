package admin

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"medislot/internal/repository"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	dashboard BookingDashboard
	canceller BookingCanceller
	slots     SlotRemover
	doctors   DoctorRemover
}

func NewService(
	dashboard BookingDashboard,
	canceller BookingCanceller,
	slots SlotRemover,
	doctors DoctorRemover,
) *Service {
	return &Service{
		dashboard: dashboard,
		canceller: canceller,
		slots:     slots,
		doctors:   doctors,
	}
}

func (s *Service) ListBookings(ctx context.Context) ([]repository.AdminBookingRow, error) {
	return s.dashboard.ListAll(ctx)
}

// CancelBooking is the admin cancel: the booking goes to BUFFER and its slot
// stays held until the reconciler releases it.
func (s *Service) CancelBooking(ctx context.Context, bookingID int64) error {
	return s.canceller.CancelAsAdmin(ctx, bookingID)
}

func (s *Service) DeleteSlot(ctx context.Context, slotID int64) error {
	if err := s.slots.DeleteCascade(ctx, slotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) DeleteDoctor(ctx context.Context, doctorID int64) error {
	if err := s.doctors.DeleteCascade(ctx, doctorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
