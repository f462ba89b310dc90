package admin

import (
	"context"

	"medislot/internal/repository"
)

type BookingDashboard interface {
	ListAll(ctx context.Context) ([]repository.AdminBookingRow, error)
}

// BookingCanceller is the engine's admin-cancel entry point (BUFFER path).
type BookingCanceller interface {
	CancelAsAdmin(ctx context.Context, bookingID int64) error
}

type SlotRemover interface {
	DeleteCascade(ctx context.Context, slotID int64) error
}

type DoctorRemover interface {
	DeleteCascade(ctx context.Context, doctorID int64) error
}
