package directory

import (
	"time"

	"medislot/internal/domain"
)

type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
}

type CreateSlotRequest struct {
	DoctorID  int64     `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type DoctorWithSlots struct {
	domain.Doctor
	Slots []domain.Slot `json:"slots"`
}
