package directory

import (
	"context"

	"medislot/internal/domain"
)

type DoctorRepository interface {
	Create(ctx context.Context, d *domain.Doctor) error
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	List(ctx context.Context) ([]domain.Doctor, error)
}

type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) error
	ListAll(ctx context.Context) ([]domain.Slot, error)
}
