package booking

import "errors"

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot already booked")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("not booking owner")
	ErrNotPending      = errors.New("booking is not pending")
	ErrNotCancellable  = errors.New("booking cannot be cancelled")
)
