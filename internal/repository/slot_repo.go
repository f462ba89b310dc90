package repository

import (
	"context"

	"gorm.io/gorm"

	"medislot/internal/domain"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	var s domain.Slot
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]domain.Slot, error) {
	var slots []domain.Slot
	tx := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("start_time ASC").
		Find(&slots)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return slots, nil
}

func (r *SlotRepository) ListAll(ctx context.Context) ([]domain.Slot, error) {
	var slots []domain.Slot
	tx := r.db.WithContext(ctx).Order("start_time ASC").Find(&slots)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return slots, nil
}

// DeleteCascade removes the slot and every booking referencing it as one
// transaction, bookings first to satisfy referential integrity. A partial
// cascade is never observable.
func (r *SlotRepository) DeleteCascade(ctx context.Context, slotID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slot_id = ?", slotID).
			Delete(&domain.Booking{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&domain.Slot{}, slotID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
