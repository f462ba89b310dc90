package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medislot/internal/domain"
)

var (
	// ErrSlotTaken is returned when the locked slot row is already booked.
	ErrSlotTaken = errors.New("slot_taken")
	// ErrNotOwner is returned when a booking does not belong to the caller.
	ErrNotOwner = errors.New("not_owner")
	// ErrNotActive is returned for transitions on terminal or buffered bookings.
	ErrNotActive = errors.New("booking_not_active")
	// ErrNotPending is returned when confirming a booking that is not PENDING.
	ErrNotPending = errors.New("booking_not_pending")
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// reserve inserts a booking for the slot under an exclusive lock on the slot
// row. The lock serializes all concurrent attempts against the same slot:
// the first writer flips is_booked, every later one re-reads it as true and
// aborts. The lock is released on commit or rollback, never held outside
// the transaction.
func (r *BookingRepository) reserve(ctx context.Context, slotID, userID int64, status domain.BookingStatus) (*domain.Booking, error) {
	var b *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot domain.Slot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&slot, slotID).Error; err != nil {
			return err
		}
		if slot.IsBooked {
			return ErrSlotTaken
		}

		now := time.Now().UTC()
		b = &domain.Booking{
			SlotID:          slotID,
			UserID:          userID,
			Status:          status,
			StatusChangedAt: now,
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Slot{}).
			Where("id = ?", slotID).
			Update("is_booked", true).Error
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Reserve books the slot with an immediately CONFIRMED booking.
func (r *BookingRepository) Reserve(ctx context.Context, slotID, userID int64) (*domain.Booking, error) {
	return r.reserve(ctx, slotID, userID, domain.BookingConfirmed)
}

// Hold books the slot with a PENDING booking. A hold that is never confirmed
// is failed by the reconciler once the pending window lapses.
func (r *BookingRepository) Hold(ctx context.Context, slotID, userID int64) (*domain.Booking, error) {
	return r.reserve(ctx, slotID, userID, domain.BookingPending)
}

// Confirm promotes the caller's PENDING booking to CONFIRMED.
func (r *BookingRepository) Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, bookingID).Error; err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotOwner
		}
		if b.Status != domain.BookingPending {
			return ErrNotPending
		}

		now := time.Now().UTC()
		if err := tx.Model(&domain.Booking{}).
			Where("id = ?", bookingID).
			Updates(map[string]any{
				"status":            domain.BookingConfirmed,
				"status_changed_at": now,
			}).Error; err != nil {
			return err
		}
		b.Status = domain.BookingConfirmed
		b.StatusChangedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CancelOwn cancels the caller's booking and releases the slot in the same
// transaction. Only PENDING and CONFIRMED bookings are user-cancellable;
// buffered bookings belong to the admin flow until the reconciler frees them.
func (r *BookingRepository) CancelOwn(ctx context.Context, bookingID, userID int64) (slotID int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, bookingID).Error; err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotOwner
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			return ErrNotActive
		}
		slotID = b.SlotID

		if err := tx.Model(&domain.Booking{}).
			Where("id = ?", bookingID).
			Updates(map[string]any{
				"status":            domain.BookingCancelled,
				"status_changed_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Slot{}).
			Where("id = ?", b.SlotID).
			Update("is_booked", false).Error
	})
	return slotID, err
}

// Buffer is the admin cancel: the booking moves to BUFFER and its deadline
// anchor is reset, but the slot is NOT released. The slot stays unavailable
// until the reconciler finalizes the buffer window.
func (r *BookingRepository) Buffer(ctx context.Context, bookingID int64) (slotID int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, bookingID).Error; err != nil {
			return err
		}
		if b.Status.Terminal() {
			return ErrNotActive
		}
		slotID = b.SlotID

		return tx.Model(&domain.Booking{}).
			Where("id = ?", bookingID).
			Updates(map[string]any{
				"status":            domain.BookingBuffer,
				"status_changed_at": time.Now().UTC(),
			}).Error
	})
	return slotID, err
}

type SweepResult struct {
	Failed       int     `json:"failed"`
	Released     int     `json:"released"`
	FreedSlotIDs []int64 `json:"-"`
}

// Sweep finalizes stale transient bookings in one transaction: PENDING older
// than pendingBefore become FAILED, BUFFER older than bufferBefore become
// CANCELLED, and their slots are released. The whole batch commits or rolls
// back as a unit; a failed sweep leaves everything for the next tick.
func (r *BookingRepository) Sweep(ctx context.Context, pendingBefore, bufferBefore time.Time) (SweepResult, error) {
	var res SweepResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		failed, err := finalizeStale(tx, domain.BookingPending, pendingBefore, domain.BookingFailed)
		if err != nil {
			return err
		}
		res.Failed = len(failed)
		res.FreedSlotIDs = append(res.FreedSlotIDs, failed...)

		released, err := finalizeStale(tx, domain.BookingBuffer, bufferBefore, domain.BookingCancelled)
		if err != nil {
			return err
		}
		res.Released = len(released)
		res.FreedSlotIDs = append(res.FreedSlotIDs, released...)
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return res, nil
}

// finalizeStale locks every booking in `from` whose deadline anchor is older
// than `before`, moves the batch to `to`, and releases the slots. Batch
// statements, not row-at-a-time: the locked set must transition atomically.
func finalizeStale(tx *gorm.DB, from domain.BookingStatus, before time.Time, to domain.BookingStatus) ([]int64, error) {
	var stale []domain.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND status_changed_at < ?", from, before).
		Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(stale))
	slotIDs := make([]int64, 0, len(stale))
	for _, b := range stale {
		ids = append(ids, b.ID)
		slotIDs = append(slotIDs, b.SlotID)
	}

	if err := tx.Model(&domain.Booking{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":            to,
			"status_changed_at": time.Now().UTC(),
		}).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&domain.Slot{}).
		Where("id IN ?", slotIDs).
		Update("is_booked", false).Error; err != nil {
		return nil, err
	}
	return slotIDs, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

type UserBookingRow struct {
	ID             int64                `gorm:"column:id" json:"id"`
	Status         domain.BookingStatus `gorm:"column:status" json:"status"`
	DoctorName     string               `gorm:"column:doctor_name" json:"doctor_name"`
	Specialization string               `gorm:"column:specialization" json:"specialization"`
	StartTime      time.Time            `gorm:"column:start_time" json:"start_time"`
	CreatedAt      time.Time            `gorm:"column:created_at" json:"created_at"`
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]UserBookingRow, error) {
	q := `
SELECT b.id, b.status, b.created_at,
       d.name AS doctor_name, d.specialization,
       s.start_time
FROM bookings b
JOIN slots s ON b.slot_id = s.id
JOIN doctors d ON s.doctor_id = d.id
WHERE b.user_id = ?
ORDER BY s.start_time ASC
`
	var rows []UserBookingRow
	tx := r.db.WithContext(ctx).Raw(q, userID).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}

type AdminBookingRow struct {
	BookingID      int64                `gorm:"column:booking_id" json:"booking_id"`
	Status         domain.BookingStatus `gorm:"column:status" json:"status"`
	PatientName    string               `gorm:"column:patient_name" json:"patient_name"`
	PatientEmail   string               `gorm:"column:patient_email" json:"patient_email"`
	DoctorName     string               `gorm:"column:doctor_name" json:"doctor_name"`
	Specialization string               `gorm:"column:specialization" json:"specialization"`
	StartTime      time.Time            `gorm:"column:start_time" json:"start_time"`
	CreatedAt      time.Time            `gorm:"column:created_at" json:"created_at"`
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]AdminBookingRow, error) {
	q := `
SELECT b.id AS booking_id, b.status, b.created_at,
       u.name AS patient_name, u.email AS patient_email,
       d.name AS doctor_name, d.specialization,
       s.start_time
FROM bookings b
JOIN users u ON b.user_id = u.id
JOIN slots s ON b.slot_id = s.id
JOIN doctors d ON s.doctor_id = d.id
ORDER BY b.created_at DESC
`
	var rows []AdminBookingRow
	tx := r.db.WithContext(ctx).Raw(q).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}
