package repository

import (
	"context"

	"gorm.io/gorm"

	"medislot/internal/domain"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	var d domain.Doctor
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]domain.Doctor, error) {
	var doctors []domain.Doctor
	tx := r.db.WithContext(ctx).Order("id ASC").Find(&doctors)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return doctors, nil
}

// DeleteCascade removes the doctor, the doctor's slots, and every booking on
// those slots in one transaction, leaf tables first.
func (r *DoctorRepository) DeleteCascade(ctx context.Context, doctorID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slotIDs []int64
		if err := tx.Model(&domain.Slot{}).
			Where("doctor_id = ?", doctorID).
			Pluck("id", &slotIDs).Error; err != nil {
			return err
		}

		if len(slotIDs) > 0 {
			if err := tx.Where("slot_id IN ?", slotIDs).
				Delete(&domain.Booking{}).Error; err != nil {
				return err
			}
			if err := tx.Where("doctor_id = ?", doctorID).
				Delete(&domain.Slot{}).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&domain.Doctor{}, doctorID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
