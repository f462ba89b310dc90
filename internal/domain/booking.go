package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingBuffer    BookingStatus = "BUFFER"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingFailed    BookingStatus = "FAILED"
)

// Active reports whether a booking in this status still holds its slot.
// The one-active-booking-per-slot invariant is defined over these statuses.
func (s BookingStatus) Active() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingBuffer:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingFailed
}

type Booking struct {
	ID     int64         `json:"id"`
	SlotID int64         `json:"slot_id" validate:"required"`
	UserID int64         `json:"user_id" validate:"required"`
	Status BookingStatus `json:"status"`

	// StatusChangedAt is overwritten on every status transition. It is the
	// only deadline anchor the reconciler reads: for PENDING it marks the
	// start of the confirmation window, for BUFFER the start of the hold
	// window. Any new status must decide explicitly whether the reconciler
	// interprets this field as a deadline.
	StatusChangedAt time.Time `json:"status_changed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }
