package directory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"medislot/internal/domain"
)

type Service struct {
	doctors DoctorRepository
	slots   SlotRepository
}

func NewService(doctors DoctorRepository, slots SlotRepository) *Service {
	return &Service{
		doctors: doctors,
		slots:   slots,
	}
}

// ListDoctors returns every doctor with their slots embedded, ordered by
// slot start time. Two queries, grouped in memory.
func (s *Service) ListDoctors(ctx context.Context) ([]DoctorWithSlots, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byDoctor := make(map[int64][]domain.Slot, len(doctors))
	for _, slot := range slots {
		byDoctor[slot.DoctorID] = append(byDoctor[slot.DoctorID], slot)
	}

	out := make([]DoctorWithSlots, 0, len(doctors))
	for _, d := range doctors {
		slots := byDoctor[d.ID]
		if slots == nil {
			slots = []domain.Slot{}
		}
		out = append(out, DoctorWithSlots{Doctor: d, Slots: slots})
	}
	return out, nil
}

func (s *Service) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*domain.Doctor, error) {
	d := &domain.Doctor{
		Name:           req.Name,
		Specialization: req.Specialization,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateSlot adds an open slot for an existing doctor. Slots are created
// available; only the booking engine and the reconciler flip is_booked.
func (s *Service) CreateSlot(ctx context.Context, req CreateSlotRequest) (*domain.Slot, error) {
	if req.StartTime.Before(time.Now()) {
		return nil, ErrValidation
	}

	if _, err := s.doctors.GetByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	slot := &domain.Slot{
		DoctorID:  req.DoctorID,
		StartTime: req.StartTime.UTC(),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}
