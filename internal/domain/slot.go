package domain

import "time"

type Doctor struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name" validate:"required"`
	Specialization string    `json:"specialization" validate:"required"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Doctor) TableName() string { return "doctors" }

// Slot is a bookable time unit tied to one doctor. IsBooked is mutated only
// by the booking engine and the reconciler, never directly by handlers.
type Slot struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	IsBooked  bool      `json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
}

func (Slot) TableName() string { return "slots" }
